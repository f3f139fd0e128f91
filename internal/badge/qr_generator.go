package badge

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"

	"github.com/skip2/go-qrcode"

	"ms-checkin/internal/models"
)

// Generator produces printable badge QR codes. The payload is encrypted so
// a scanned badge resolves to a guest id only for holders of the shared
// secret, not for anyone who photographs a badge.
type Generator struct {
	secret []byte
}

func NewGenerator(secret string) *Generator {
	hashed := sha256.Sum256([]byte(secret)) // normalize to 32 bytes
	return &Generator{secret: hashed[:]}
}

// Payload is what a scanner recovers from a badge.
type Payload struct {
	GuestID          string `json:"guest_id"`
	ConfirmationCode string `json:"confirmation_code"`
	FullName         string `json:"full_name"`
}

// BadgePNG renders the guest's badge as a 256x256 PNG QR code.
func (g *Generator) BadgePNG(guest models.GuestView) ([]byte, error) {
	encoded, err := g.EncodePayload(Payload{
		GuestID:          guest.ID,
		ConfirmationCode: guest.ConfirmationCode,
		FullName:         guest.FullName,
	})
	if err != nil {
		return nil, err
	}
	return qrcode.Encode(encoded, qrcode.Medium, 256)
}

// EncodePayload encrypts the payload to the string embedded in the QR.
func (g *Generator) EncodePayload(p Payload) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(g.secret)
	if err != nil {
		return "", err
	}

	ciphertext := make([]byte, aes.BlockSize+len(data))
	iv := ciphertext[:aes.BlockSize]
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", err
	}

	stream := cipher.NewCFBEncrypter(block, iv)
	stream.XORKeyStream(ciphertext[aes.BlockSize:], data)

	return base64.URLEncoding.EncodeToString(ciphertext), nil
}

// DecodePayload reverses EncodePayload for scanned badge content.
func (g *Generator) DecodePayload(encoded string) (*Payload, error) {
	ciphertext, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < aes.BlockSize {
		return nil, errors.New("badge payload too short")
	}

	block, err := aes.NewCipher(g.secret)
	if err != nil {
		return nil, err
	}

	iv := ciphertext[:aes.BlockSize]
	data := make([]byte, len(ciphertext)-aes.BlockSize)
	stream := cipher.NewCFBDecrypter(block, iv)
	stream.XORKeyStream(data, ciphertext[aes.BlockSize:])

	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, errors.New("badge payload is not valid")
	}
	return &p, nil
}
