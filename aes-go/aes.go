package aesgo

import (
	"errors"
	"fmt"

	"example.com/aes128/key"
)

const (
	// BlockSize is the AES block size in bytes.
	BlockSize = 16
	// KeySize is the only supported key size in bytes.
	KeySize = 128 / 8
	// Rounds is the number of rounds for a 128-bit key.
	Rounds = 10
)

var (
	ErrKeySize     = errors.New("unsupported key size")
	ErrShortBuffer = errors.New("output buffer too small")
)

// TruncatedBlockError reports input that ends in the middle of a block.
type TruncatedBlockError struct {
	Offset int64 // offset of the partial block in the input
	Len    int   // number of bytes available, 0 < Len < BlockSize
}

func (e *TruncatedBlockError) Error() string {
	return fmt.Sprintf("truncated block at offset %d: got %d bytes, want %d", e.Offset, e.Len, BlockSize)
}

// Block is one 16-byte block, read as a 4x4 matrix in column-major order:
// byte r + 4*c is row r, column c. It also serves as the cipher state.
type Block [BlockSize]byte

// Cipher encrypts independent 16-byte blocks under a fixed 128-bit key.
// A Cipher is read-only after construction and safe for concurrent use.
type Cipher struct {
	sbox     *SBox
	schedule Schedule
}

func NewCipher(k key.Key) (*Cipher, error) {
	if s := k.Len(); s != KeySize {
		return nil, fmt.Errorf("%w: %d bytes", ErrKeySize, s)
	}
	sbox := DefaultSBox()
	return &Cipher{sbox: sbox, schedule: ExpandKey(k, sbox)}, nil
}

// EncryptBlock encrypts src into dst. dst and src may point to the same block.
func (c *Cipher) EncryptBlock(dst, src *Block) {
	state := *src

	addRoundKey(&state, c.schedule.RoundKey(0))

	for round := 1; round < Rounds; round++ {
		subBytes(&state, c.sbox)
		shiftRows(&state)
		mixColumns(&state)
		addRoundKey(&state, c.schedule.RoundKey(round))
	}

	subBytes(&state, c.sbox)
	shiftRows(&state)
	addRoundKey(&state, c.schedule.RoundKey(Rounds))

	*dst = state
}

// Encrypt encrypts src block by block into dst, with no chaining between
// blocks. len(src) must be a multiple of BlockSize and dst at least as long.
func (c *Cipher) Encrypt(dst, src []byte) error {
	if r := len(src) % BlockSize; r != 0 {
		return &TruncatedBlockError{Offset: int64(len(src) - r), Len: r}
	}
	if len(dst) < len(src) {
		return fmt.Errorf("%w: %d < %d", ErrShortBuffer, len(dst), len(src))
	}

	for i := 0; i < len(src); i += BlockSize {
		c.EncryptBlock((*Block)(dst[i:i+BlockSize]), (*Block)(src[i:i+BlockSize]))
	}

	return nil
}

func addRoundKey(state *Block, key *[BlockSize]byte) {
	for i := range state {
		state[i] ^= key[i]
	}
}

func subBytes(state *Block, sbox *SBox) {
	for i, b := range state {
		state[i] = sbox[b]
	}
}

// shiftRows rotates row r of the state left by r columns.
func shiftRows(state *Block) {
	s := *state

	for i := range state {
		r, c := i%4, i/4
		state[i] = s[r+4*((c+r)%4)]
	}
}
