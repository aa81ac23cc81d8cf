package aesgo

// times2 doubles b in GF(2^8) modulo x^8 + x^4 + x^3 + x + 1.
func times2(b byte) byte {
	hi := b >> 7 // 0 or 1, no sign extension
	return b<<1 ^ 0x1B&-hi
}

// times3 multiplies b by x + 1, i.e. times2(b) + b.
func times3(b byte) byte {
	return times2(b) ^ b
}

// gmul multiplies a and b in GF(2^8) by shift and add: for every set bit
// of b, from the lowest, the current multiple of a is added to the product
// and a is doubled.
func gmul(a, b byte) byte {
	var p byte = 0

	for counter := 0; counter < 8; counter++ {
		if (b & 1) != 0 {
			p ^= a
		}
		a = times2(a)
		b >>= 1
	}

	return p
}

// mixColumn replaces the column [x0 x1 x2 x3] with its product by the
// circulant matrix (02 03 01 01).
func mixColumn(col *[4]byte) {
	x0, x1, x2, x3 := col[0], col[1], col[2], col[3]

	col[0] = times2(x0) ^ times3(x1) ^ x2 ^ x3
	col[1] = x0 ^ times2(x1) ^ times3(x2) ^ x3
	col[2] = x0 ^ x1 ^ times2(x2) ^ times3(x3)
	col[3] = times3(x0) ^ x1 ^ x2 ^ times2(x3)
}

// mixColumns mixes the columns of the state matrix in place.
// Columns are the 4 consecutive bytes at offsets 0, 4, 8 and 12.
func mixColumns(s *Block) {
	for c := 0; c < BlockSize; c += 4 {
		mixColumn((*[4]byte)(s[c : c+4]))
	}
}
