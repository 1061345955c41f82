package util

import (
	"encoding/binary"
	"math/rand"
	crand "crypto/rand"
)

var MyRand *rand.Rand

func init() {
	MyRand = NewRand()
}

func RandomInt64() int64 {
	var buf [8]byte
	if _, err := crand.Read(buf[:]); err != nil {
		panic(err)
	}
	buf[0] &= 0x7f
	return int64(binary.BigEndian.Uint64(buf[:]))
}

func RandomInt32() int32 {
	var buf [4]byte
	if _, err := crand.Read(buf[:]); err != nil {
		panic(err)
	}
	buf[0] &= 0x7f
	return int32(binary.BigEndian.Uint32(buf[:]))
}

func RandomInt32n(n int32) int32 {
	if n & (n-1) == 0 { // n is power of two, can mask
		return RandomInt32() & (n - 1)
	}

	max := int32((1 << 31) - 1 - (1<<31)%uint32(n))
	v := RandomInt32()
	for v > max {
		v = RandomInt32()
	}
	return v % n
}

func RandomInt64n(n int64) int64 {
	if n & (n-1) == 0 { // n is power of two, can mask
		return RandomInt64() & (n - 1)
	}

	max := int64((1 << 63) - 1 - (1<<63)%uint64(n))
	v := RandomInt64()
	for v > max {
		v = RandomInt64()
	}
	return v % n
}

// RandomIntn returns a non-negative, cryptographically seeded random int in [0,n).
// Used by the host store to pick a random known address.
func RandomIntn(n int) int {
	if n <= 0 {
		panic("n must be positive")
	}
	if n <= (1<<31) - 1 {
		return int(RandomInt32n(int32(n)))
	}
	return int(RandomInt64n(int64(n)))
}

// NewRand returns a math/rand source seeded from the OS CSPRNG, so two
// processes started at the same instant still diverge immediately.
func NewRand() *rand.Rand {
	return rand.New(rand.NewSource(RandomInt64()))
}
