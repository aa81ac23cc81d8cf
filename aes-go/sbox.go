package aesgo

import (
	"math/bits"
	"sync"
)

// SBox is the forward byte substitution table, indexed by byte value.
type SBox [256]byte

// affineConstant is the constant term of the S-box affine transformation.
const affineConstant = 0x63

// NewSBox derives the AES S-box from multiplicative inverses in GF(2^8)
// followed by the affine transformation.
//
// Inverses are not computed one at a time. Instead p walks the
// multiplicative group with generator 3 and q walks it with generator 3^-1,
// so that p*q == 1 holds after every step and q is always the inverse of p.
// Since 3 generates the whole group of order 255, the loop visits every
// nonzero byte exactly once before p returns to 1.
func NewSBox() *SBox {
	var s SBox

	var p, q byte = 1, 1
	for {
		// p *= 3
		p = times3(p)

		// q /= 3, i.e. q *= 0xf6
		q ^= q << 1
		q ^= q << 2
		q ^= q << 4
		q ^= 0x09 & -(q >> 7)

		s[p] = affine(q)

		if p == 1 {
			break
		}
	}

	// 0 has no inverse; the affine map of the zero byte is the constant alone.
	s[0] = affineConstant

	return &s
}

func affine(q byte) byte {
	return q ^ bits.RotateLeft8(q, 1) ^ bits.RotateLeft8(q, 2) ^
		bits.RotateLeft8(q, 3) ^ bits.RotateLeft8(q, 4) ^ affineConstant
}

var defaultSBox = sync.OnceValue(NewSBox)

// DefaultSBox returns the process-wide S-box. It is built on first use and
// must not be modified by callers.
func DefaultSBox() *SBox {
	return defaultSBox()
}

func (s *SBox) subWord(w [4]byte) [4]byte {
	return [4]byte{s[w[0]], s[w[1]], s[w[2]], s[w[3]]}
}
