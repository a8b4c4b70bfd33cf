package ids

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// ID represents a unique identifier
type ID [32]byte

// Empty is the zero ID, used as the "not set" sentinel
var Empty = ID{}

// GenerateTestID creates a random ID for testing
func GenerateTestID() ID {
	var id ID
	rand.Read(id[:])
	return id
}

// String returns the hex representation of the ID
func (id ID) String() string {
	return hex.EncodeToString(id[:])
}

// Bytes returns the byte representation of the ID
func (id ID) Bytes() []byte {
	return id[:]
}

// IsEmpty reports whether the ID is the zero value
func (id ID) IsEmpty() bool {
	return id == Empty
}

// FromString creates an ID from a hex string
func FromString(s string) (ID, error) {
	var id ID
	bytes, err := hex.DecodeString(s)
	if err != nil {
		return id, err
	}
	if len(bytes) != 32 {
		return id, fmt.Errorf("invalid ID length: expected 32, got %d", len(bytes))
	}
	copy(id[:], bytes)
	return id, nil
}

// MarshalText encodes the ID as its hex string for JSON and map keys.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText decodes an ID from its hex string.
func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := FromString(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Derive computes the deterministic ID for the record of the given kind
// owned by authority at index. Stores are keyed by derived IDs so that a
// supplied reference can always be re-derived and compared against the
// expected owner and index.
func Derive(kind string, authority ID, index uint64) ID {
	var idx [8]byte
	binary.LittleEndian.PutUint64(idx[:], index)

	h := sha256.New()
	h.Write([]byte(kind))
	h.Write(authority[:])
	h.Write(idx[:])

	var id ID
	copy(id[:], h.Sum(nil))
	return id
}

// DeriveComposite computes a deterministic ID from a kind tag and an
// arbitrary sequence of byte parts, for records keyed by more than one
// parent (a booking spans a campaign, a location and a time range).
func DeriveComposite(kind string, parts ...[]byte) ID {
	h := sha256.New()
	h.Write([]byte(kind))
	for _, p := range parts {
		h.Write(p)
	}

	var id ID
	copy(id[:], h.Sum(nil))
	return id
}

// Int64Bytes returns the little-endian encoding of v, for use as a
// DeriveComposite part.
func Int64Bytes(v int64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(v))
	return b[:]
}
