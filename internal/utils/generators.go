package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

// GenerateGuestID returns a new guest primary key.
func GenerateGuestID() string {
	return uuid.New().String()
}

// GenerateConfirmationCode returns a short human-readable code of the form
// GST-XXXXXX, usable over the phone and on printed invitations. Ambiguous
// characters (0/O, 1/I) are excluded.
func GenerateConfirmationCode() string {
	const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	var b strings.Builder
	b.WriteString("GST-")
	for i := 0; i < 6; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			// crypto/rand only fails if the platform source is broken;
			// fall back to a UUID-derived code.
			return fmt.Sprintf("GST-%s", strings.ToUpper(uuid.New().String()[:6]))
		}
		b.WriteByte(alphabet[n.Int64()])
	}
	return b.String()
}
