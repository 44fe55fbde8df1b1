package palette

import (
	"crypto/rand"
	"math/big"
)

// Rand is the randomness a shuffle needs: a uniform int in [0, n).
// *math/rand/v2.Rand satisfies it.
type Rand interface {
	IntN(n int) int
}

// CryptoRand draws from crypto/rand, matching how answers are picked elsewhere.
type CryptoRand struct{}

// IntN returns a uniform int in [0, n). Panics if n <= 0, like math/rand.
func (CryptoRand) IntN(n int) int {
	if n <= 0 {
		panic("palette: IntN called with n <= 0")
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic(err)
	}
	return int(v.Int64())
}

// Shuffle returns a uniformly random permutation of xs as a new slice.
// xs is not modified. Fisher–Yates: walk i from the last index down to 1
// and swap with a partner drawn from [0, i].
func Shuffle[T any](xs []T, rng Rand) []T {
	out := make([]T, len(xs))
	copy(out, xs)
	for i := len(out) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}
