package schema

import (
	"encoding/hex"

	"github.com/glimte/protolite-go/metadata"
	"golang.org/x/crypto/blake2b"
)

// Digest is the structural checksum of a message type
type Digest [blake2b.Size256]byte

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Equal reports whether both digests describe the same shape
func (d Digest) Equal(other Digest) bool {
	return d == other
}

// Checksum digests the collected schema of d. Type and field names do not
// contribute; field order, kinds, rules and referenced types do.
func Checksum(d *metadata.MessageDescriptor) (Digest, error) {
	s, err := Collect(d)
	if err != nil {
		return Digest{}, err
	}
	return s.Checksum()
}

// Checksum digests the canonical encoding of s
func (s *Schema) Checksum() (Digest, error) {
	data, err := MarshalCanonical(s)
	if err != nil {
		return Digest{}, err
	}
	return blake2b.Sum256(data), nil
}
