package report

import (
	"errors"
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

const qrPrefix = "sha256:"

// ErrBadDigest is returned when a manifest digest is not 64 hex characters.
var ErrBadDigest = errors.New("report: manifest digest must be 64 hex characters")

// DigestQR renders a PNG QR code carrying "sha256:<digest>".
func DigestQR(digest string, size int) ([]byte, error) {
	normalized, err := normalizeDigest(digest)
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		size = 128
	}
	code, err := qrcode.New(qrPrefix+normalized, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("qr encode: %w", err)
	}
	return code.PNG(size)
}

func normalizeDigest(digest string) (string, error) {
	d := strings.ToLower(strings.TrimSpace(digest))
	d = strings.TrimPrefix(d, qrPrefix)
	if len(d) != 64 {
		return "", ErrBadDigest
	}
	for _, r := range d {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return "", ErrBadDigest
		}
	}
	return d, nil
}
