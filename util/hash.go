package util

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"

	"github.com/taigrr/colorhash"
)

// WorkDir is the content-addressed staging directory maintained under the
// storage path. Written file content is copied here keyed by hash.
const WorkDir = ".work"

// Hash identifies either the snapshot/commit a working copy is based on or
// the SHA-256 content hash of a single file. The zero value means "no hash".
type Hash string

func (h Hash) String() string { return string(h) }

// IsZero reports whether the hash is unset.
func (h Hash) IsZero() bool { return h == "" }

// Short returns an abbreviated form suitable for log output.
func (h Hash) Short() string {
	if len(h) <= 8 {
		return string(h)
	}
	return string(h[:8])
}

// HashReader calculates the SHA-256 hash of data from an io.Reader.
func HashReader(r io.Reader) (Hash, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return Hash(fmt.Sprintf("%x", h.Sum(nil))), nil
}

// HashBytes calculates the SHA-256 hash of in-memory content.
func HashBytes(b []byte) Hash {
	return Hash(fmt.Sprintf("%x", sha256.Sum256(b)))
}

// HashFile calculates the SHA-256 hash of a file's content.
func HashFile(path string) (Hash, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", ErrExpectedFile
	}
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()
	return HashReader(file)
}

// HashPath generates the work-directory file name for a content hash.
// The result is "bucket-hash" where the bucket is a color hash mod 1000,
// keeping any single directory well under filesystem per-directory limits
// while remaining reconstructible from the hash alone.
func HashPath(h Hash) string {
	bucket := colorhash.HashString(string(h)) % 1000
	return fmt.Sprintf("%d-%s", bucket, h)
}
