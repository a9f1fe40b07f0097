package household

import (
	"crypto/rand"
	"math/big"
)

const (
	InviteCodeLength = 6
	// no 0/O or 1/I so codes survive being read aloud
	inviteAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// NewInviteCode returns a random code from a cryptographic source.
func NewInviteCode() (string, error) {
	max := big.NewInt(int64(len(inviteAlphabet)))
	b := make([]byte, InviteCodeLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = inviteAlphabet[n.Int64()]
	}
	return string(b), nil
}
