package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"strings"
)

const (
	// CodeAlphabet has 32 symbols and leaves out 0/O and 1/I.
	CodeAlphabet    = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	CodeLength      = 6
	MaxCodeAttempts = 10
)

// CodeGenerator mints invitation codes. Each character is drawn uniformly: 256 is a
// multiple of 32, so masking a random byte has no modulo bias.
type CodeGenerator struct {
	random      io.Reader
	maxAttempts int
}

func NewCodeGenerator(random io.Reader) *CodeGenerator {
	if random == nil {
		random = rand.Reader
	}
	return &CodeGenerator{random: random, maxAttempts: MaxCodeAttempts}
}

func (g *CodeGenerator) next() (string, error) {
	buf := make([]byte, CodeLength)
	if _, err := io.ReadFull(g.random, buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	for i, b := range buf {
		buf[i] = CodeAlphabet[int(b)&(len(CodeAlphabet)-1)]
	}
	return string(buf), nil
}

// Generate draws codes until reserve accepts one. reserve reports taken=true when the
// code collides with a pending invitation; after MaxCodeAttempts collisions Generate gives
// up with ErrCodeGenerationExhausted.
func (g *CodeGenerator) Generate(ctx context.Context, reserve func(ctx context.Context, code string) (taken bool, err error)) (string, error) {
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		code, err := g.next()
		if err != nil {
			return "", err
		}
		taken, err := reserve(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", ErrCodeGenerationExhausted
}

func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func ValidCodeFormat(code string) bool {
	return len(code) == CodeLength
}
