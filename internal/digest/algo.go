package digest

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
)

// Algo names a digest algorithm available both as a file-check extension
// algorithm and as a `<name>sum` utility on the remote host. crc32 is the
// one extension algorithm without such a utility, so it is not offered.
type Algo string

const (
	MD5    Algo = "md5"
	SHA1   Algo = "sha1"
	SHA224 Algo = "sha224"
	SHA256 Algo = "sha256"
	SHA384 Algo = "sha384"
	SHA512 Algo = "sha512"
)

// Default is the algorithm used when none is configured.
const Default = SHA1

// ParseAlgo validates an algorithm name from the boundary.
func ParseAlgo(s string) (Algo, error) {
	switch Algo(s) {
	case MD5, SHA1, SHA224, SHA256, SHA384, SHA512:
		return Algo(s), nil
	}
	return "", fmt.Errorf("digest: unknown algorithm %q", s)
}

// New returns a fresh hash state. It panics on an Algo that did not come
// from ParseAlgo or the package constants.
func (a Algo) New() hash.Hash {
	switch a {
	case MD5:
		return md5.New()
	case SHA1:
		return sha1.New()
	case SHA224:
		return sha256.New224()
	case SHA256:
		return sha256.New()
	case SHA384:
		return sha512.New384()
	case SHA512:
		return sha512.New()
	}
	panic("digest: unknown algorithm " + string(a))
}

// Command returns the name of the remote checksum utility.
func (a Algo) Command() string {
	return string(a) + "sum"
}

// Sum returns the hex-encoded digest of data.
func Sum(a Algo, data []byte) string {
	h := a.New()
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
