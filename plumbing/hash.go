package plumbing

import (
	"crypto"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"sort"

	"github.com/pjbgf/sha1cd"
)

// HashSize is the length, in bytes, of an object identifier.
const HashSize = 20

// ZeroHash is the canonical zero-valued object identifier.
var ZeroHash Hash

// Hash is a 20-byte content-addressed object identifier, compared
// byte-wise.
type Hash [HashSize]byte

// algos holds the hash constructor used for each supported object
// format. SHA-1 defaults to pjbgf/sha1cd, which detects the
// shattered-style collision attack instead of silently accepting a
// crafted collision.
var algos = map[crypto.Hash]func() hash.Hash{
	crypto.SHA1: sha1cd.New,
}

// RegisterHash overrides the hash implementation used for a given
// crypto.Hash identifier.
func RegisterHash(h crypto.Hash, f func() hash.Hash) error {
	if f == nil {
		return errors.New("plumbing: cannot register hash: f is nil")
	}
	algos[h] = f
	return nil
}

// NewHash parses a 40-character hex string into a Hash. It panics if s
// is not valid hex of the right length; callers that need a checked
// conversion should use ParseHash.
func NewHash(s string) Hash {
	h, err := ParseHash(s)
	if err != nil {
		panic(err)
	}
	return h
}

// ParseHash parses a 40-character hex string into a Hash.
func ParseHash(s string) (Hash, error) {
	var h Hash
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("invalid hash %q: %w", s, err)
	}
	if len(b) != HashSize {
		return h, fmt.Errorf("invalid hash %q: want %d bytes, got %d", s, HashSize, len(b))
	}
	copy(h[:], b)
	return h, nil
}

// IsHash reports whether s is a syntactically valid hex object id.
func IsHash(s string) bool {
	if len(s) != HashSize*2 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// IsZero reports whether h is the canonical zero value.
func (h Hash) IsZero() bool {
	return h == ZeroHash
}

// String returns the 40-character hex encoding of h.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// Compare orders two hashes byte-wise, returning a negative number, zero
// or a positive number as h < other, h == other or h > other.
func (h Hash) Compare(other Hash) int {
	for i := range h {
		if h[i] != other[i] {
			if h[i] < other[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// HashesSort sorts hs in place in ascending byte order.
func HashesSort(hs []Hash) {
	sort.Slice(hs, func(i, j int) bool { return hs[i].Compare(hs[j]) < 0 })
}

// ComputeHash computes the object identifier for a payload of the given
// object type, using the git object-header convention
// "<type> <size>\x00<payload>".
func ComputeHash(t ObjectType, payload []byte) Hash {
	h := algos[crypto.SHA1]()
	fmt.Fprintf(h, "%s %d\x00", t, len(payload))
	h.Write(payload)

	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}
