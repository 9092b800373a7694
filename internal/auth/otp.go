package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

var otpSpace = big.NewInt(1000000)

// GenerateOTP produces a 6-digit numeric one-time code drawn uniformly
// from crypto/rand.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, otpSpace)
	if err != nil {
		return "", fmt.Errorf("read otp entropy: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
