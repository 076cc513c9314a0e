// Package checksum hashes uploads while they are copied to disk.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
)

// ErrTooLarge is returned by CopyLimited when src holds more than limit bytes.
var ErrTooLarge = errors.New("content exceeds size limit")

// CopyLimited copies src into dst, hashing as it goes. It stops with
// ErrTooLarge as soon as more than limit bytes have been seen.
func CopyLimited(dst io.Writer, src io.Reader, limit int64) (int64, string, error) {
	hash := sha256.New()
	n, err := io.Copy(io.MultiWriter(dst, hash), io.LimitReader(src, limit+1))
	if err != nil {
		return n, "", err
	}
	if n > limit {
		return n, "", ErrTooLarge
	}
	return n, hex.EncodeToString(hash.Sum(nil)), nil
}
