package cryptox

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// codeAlphabet covers digits and upper-case letters so codes survive
// being read aloud or typed from a phone screen.
const codeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// CodeLength is the number of characters in a verification code.
const CodeLength = 6

// GenerateCode returns a verification code of CodeLength characters,
// each drawn independently from the code alphabet with crypto/rand.
func GenerateCode() (string, error) {
	code := make([]byte, CodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeAlphabet))))
		if err != nil {
			return "", fmt.Errorf("failed to generate verification code: %w", err)
		}
		code[i] = codeAlphabet[n.Int64()]
	}
	return string(code), nil
}
