package auth

import (
	"encoding/base64"
	"fmt"

	"github.com/pquerna/otp"
	qrcode "github.com/skip2/go-qrcode"
)

// QRCodeSize is the edge length in pixels of enrolment QR codes.
const QRCodeSize = 256

// QRCodePNG encodes the key's otpauth:// URL as a base64 PNG, ready for
// a data: URI.
func QRCodePNG(key *otp.Key) (string, error) {
	png, err := qrcode.Encode(key.URL(), qrcode.Medium, QRCodeSize)
	if err != nil {
		return "", fmt.Errorf("qr encode: %w", err)
	}
	return base64.StdEncoding.EncodeToString(png), nil
}
