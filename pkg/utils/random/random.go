package random

import (
	"crypto/rand"
	"math/big"
)

const letters = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Code returns an unambiguous upper-case tag, used for guest nicknames.
func Code(length int) string {
	return pickFromSet(letters, length)
}

func pickFromSet(set string, length int) string {
	if length <= 0 {
		return ""
	}
	max := big.NewInt(int64(len(set)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			out[i] = set[0]
			continue
		}
		out[i] = set[n.Int64()]
	}
	return string(out)
}
