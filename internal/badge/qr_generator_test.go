package badge_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-checkin/internal/badge"
	"ms-checkin/internal/models"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func TestPayloadRoundTrip(t *testing.T) {
	gen := badge.NewGenerator("test-secret")

	payload := badge.Payload{
		GuestID:          "guest-1",
		ConfirmationCode: "GST-ABC123",
		FullName:         "Ada Lovelace",
	}

	encoded, err := gen.EncodePayload(payload)
	require.NoError(t, err)
	require.NotEmpty(t, encoded)

	decoded, err := gen.DecodePayload(encoded)
	require.NoError(t, err)
	assert.Equal(t, payload, *decoded)
}

func TestDecodeWithWrongSecretFails(t *testing.T) {
	encoded, err := badge.NewGenerator("secret-a").EncodePayload(badge.Payload{GuestID: "guest-1"})
	require.NoError(t, err)

	_, err = badge.NewGenerator("secret-b").DecodePayload(encoded)
	assert.Error(t, err)
}

func TestDecodeGarbageFails(t *testing.T) {
	gen := badge.NewGenerator("test-secret")

	_, err := gen.DecodePayload("not base64!!")
	assert.Error(t, err)

	_, err = gen.DecodePayload("c2hvcnQ=") // valid base64, too short for an IV
	assert.Error(t, err)
}

func TestBadgePNG(t *testing.T) {
	gen := badge.NewGenerator("test-secret")

	png, err := gen.BadgePNG(models.GuestView{
		ID:               "guest-1",
		FullName:         "Ada Lovelace",
		ConfirmationCode: "GST-ABC123",
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, pngMagic), "badge should be a PNG image")
}
