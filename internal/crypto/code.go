package crypto

import (
	"crypto/rand"
	"math/big"
	"strconv"
)

const (
	minVerificationCode = 10000
	maxVerificationCode = 99999
)

// GenerateVerificationCode returns a random 5-digit numeric code in
// [10000, 99999] using crypto/rand.
func GenerateVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(maxVerificationCode-minVerificationCode+1))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(minVerificationCode+n.Int64(), 10), nil
}
