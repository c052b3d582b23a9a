package common

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
)

func Sha256OfFile(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()
	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), n, nil
}

// Sha256OfBytes returns the hex digest of b.
func Sha256OfBytes(b []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(b))
}
