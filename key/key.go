package key

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

// Size is the length of a 128-bit key in bytes.
const Size = 16

var ErrShortKey = errors.New("key too short")

type Key interface {
	GetBytes() []byte
	Len() int
}

type key128 struct {
	material [Size]byte
}

func (k *key128) GetBytes() []byte {
	return k.material[:]
}

func (k *key128) Len() int {
	return len(k.material)
}

func Bit128() Key {
	b := generateRandomBytes(Size)
	return &key128{material: [Size]byte(b)}
}

func NewKey(material [Size]byte) Key {
	return &key128{material: material}
}

// FromBytes copies the first 16 bytes of b into a new key.
func FromBytes(b []byte) (Key, error) {
	if len(b) < Size {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrShortKey, len(b), Size)
	}
	return &key128{material: [Size]byte(b[:Size])}, nil
}

// Read consumes exactly 16 raw bytes from r as key material.
func Read(r io.Reader) (Key, error) {
	var k key128
	n, err := io.ReadFull(r, k.material[:])
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrShortKey, n, Size)
	}
	if err != nil {
		return nil, err
	}
	return &k, nil
}

// Parse decodes a key given as 32 hex digits.
func Parse(s string) (Key, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid key: %w", err)
	}
	if len(b) != Size {
		return nil, fmt.Errorf("invalid key: got %d bytes, want %d", len(b), Size)
	}
	return FromBytes(b)
}

func generateRandomBytes(n int) []byte {
	randBytes := make([]byte, n)

	i, err := rand.Read(randBytes)
	if i != n || err != nil {
		panic("Could not generate random bytes")
	}

	return randBytes
}
