package lobby

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// Alphabet is the character set for generated codes. 0, O, 1 and I are
// left out so codes survive being read aloud.
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	DefaultCodeLength = 6
	MinCodeLength     = 4
	MaxCodeLength     = 12
	maxCodeAttempts   = 64
)

// RandSource interface for dependency injection of randomness
type RandSource interface {
	IntN(n int) int
}

// CodeGenerator produces room codes with configurable randomness
type CodeGenerator struct {
	length     int
	randSource RandSource
}

// NewCodeGenerator creates a generator. A nil RandSource uses crypto/rand.
func NewCodeGenerator(length int, randSource RandSource) *CodeGenerator {
	if length <= 0 {
		length = DefaultCodeLength
	}
	if randSource == nil {
		randSource = cryptoSource{}
	}
	return &CodeGenerator{length: length, randSource: randSource}
}

// Generate returns a fresh code without checking for collisions
func (g *CodeGenerator) Generate() string {
	out := make([]byte, g.length)
	for i := range out {
		out[i] = Alphabet[g.randSource.IntN(len(Alphabet))]
	}
	return string(out)
}

// Unique generates codes until taken reports one free, giving up after a
// bounded number of attempts.
func (g *CodeGenerator) Unique(taken func(code string) bool) (string, error) {
	for range maxCodeAttempts {
		code := g.Generate()
		if !taken(code) {
			return code, nil
		}
	}
	return "", fmt.Errorf("%d attempts at length %d: %w", maxCodeAttempts, g.length, ErrCodeSpaceExhausted)
}

// NormalizeCode trims and upper-cases a client supplied code
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidateCode checks a normalized code. Client supplied codes may use any
// upper-case letter or digit, generated ones only draw from Alphabet.
func ValidateCode(code string) error {
	if len(code) < MinCodeLength || len(code) > MaxCodeLength {
		return fmt.Errorf("code %q must be %d to %d characters: %w", code, MinCodeLength, MaxCodeLength, ErrInvalidCode)
	}
	for i, c := range code {
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return fmt.Errorf("invalid character %c at position %d: %w", c, i, ErrInvalidCode)
		}
	}
	return nil
}

type cryptoSource struct{}

func (cryptoSource) IntN(n int) int {
	x, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("failed to generate random code: " + err.Error())
	}
	return int(x.Int64())
}
