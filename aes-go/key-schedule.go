package aesgo

import (
	"example.com/aes128/key"
)

const (
	keyBlock = 4 // 4 bytes or 32 bits

	// ScheduleSize is the length of the expanded key: one round key for the
	// initial AddRoundKey plus one per round.
	ScheduleSize = (Rounds + 1) * BlockSize
)

// Schedule is the expanded key. Round key i occupies bytes [16i, 16i+16).
type Schedule [ScheduleSize]byte

// RoundKey returns round key i, 0 <= i <= Rounds.
func (s *Schedule) RoundKey(i int) *[BlockSize]byte {
	return (*[BlockSize]byte)(s[i*BlockSize : (i+1)*BlockSize])
}

// ExpandKey derives the 11 round keys from a 128-bit key. The first round
// key is the key itself. k must be 16 bytes long.
func ExpandKey(k key.Key, sbox *SBox) Schedule {
	var s Schedule
	n := copy(s[:], k.GetBytes()[:KeySize])

	r := 0
	for ; n < ScheduleSize; n += keyBlock {
		t := [keyBlock]byte(s[n-keyBlock : n])

		if n%KeySize == 0 {
			t = rotWord(t)
			t = sbox.subWord(t)
			t = rcon(r, t)
			r++
		}

		w := xor([keyBlock]byte(s[n-KeySize:n-KeySize+keyBlock]), t)
		copy(s[n:], w[:])
	}

	return s
}

func rotWord(word [4]byte) [4]byte {
	return [4]byte{word[1], word[2], word[3], word[0]}
}

func rcon(round int, word [4]byte) [4]byte {
	word[0] ^= rconTable[round]
	return word
}

func xor(a, b [4]byte) [4]byte {
	var x [4]byte
	for i := 0; i < 4; i++ {
		x[i] = a[i] ^ b[i]
	}
	return x
}

// rconTable holds x^(i) in GF(2^8) for i = 0..9, i.e. successive doublings of 1.
var rconTable = [Rounds]byte{
	0x01, 0x02, 0x04, 0x08, 0x10, 0x20, 0x40, 0x80, 0x1B, 0x36,
}
