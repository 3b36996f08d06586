package utils

import (
	"crypto/rand"
	"math/big"
)

// joinCodeAlphabet omits 0/O and 1/I so codes survive being read aloud.
const joinCodeAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

const joinCodeLength = 6

// NewJoinCode generates the short human-entered code the respondent uses
// to join a case. Uniqueness is enforced by the store's index.
func NewJoinCode() string {
	b := make([]byte, joinCodeLength)
	max := big.NewInt(int64(len(joinCodeAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails if the OS entropy source is broken
			b[i] = joinCodeAlphabet[0]
			continue
		}
		b[i] = joinCodeAlphabet[n.Int64()]
	}
	return string(b)
}
