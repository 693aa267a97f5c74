package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeGenerator_Alphabet(t *testing.T) {
	assert.Len(t, CodeAlphabet, 32)
	assert.NotContains(t, CodeAlphabet, "0")
	assert.NotContains(t, CodeAlphabet, "O")
	assert.NotContains(t, CodeAlphabet, "1")
	assert.NotContains(t, CodeAlphabet, "I")
}

func TestCodeGenerator_Generate(t *testing.T) {
	gen := NewCodeGenerator(nil)

	for i := 0; i < 100; i++ {
		code, err := gen.Generate(context.Background(), func(context.Context, string) (bool, error) {
			return false, nil
		})
		require.NoError(t, err)
		require.Len(t, code, CodeLength)
		for _, r := range code {
			require.True(t, strings.ContainsRune(CodeAlphabet, r), "unexpected symbol %q in %s", r, code)
		}
	}
}

func TestCodeGenerator_MapsBytesUniformly(t *testing.T) {
	gen := NewCodeGenerator(bytes.NewReader([]byte{0, 31, 32, 63, 224, 255}))

	code, err := gen.next()

	require.NoError(t, err)
	assert.Equal(t, "A9A9A9", code)
}

func TestCodeGenerator_RetriesCollisions(t *testing.T) {
	gen := NewCodeGenerator(nil)
	attempts := 0

	code, err := gen.Generate(context.Background(), func(context.Context, string) (bool, error) {
		attempts++
		return attempts < 4, nil
	})

	require.NoError(t, err)
	assert.Len(t, code, CodeLength)
	assert.Equal(t, 4, attempts)
}

func TestCodeGenerator_Exhausted(t *testing.T) {
	gen := NewCodeGenerator(nil)
	attempts := 0

	_, err := gen.Generate(context.Background(), func(context.Context, string) (bool, error) {
		attempts++
		return true, nil
	})

	assert.ErrorIs(t, err, ErrCodeGenerationExhausted)
	assert.Equal(t, MaxCodeAttempts, attempts)
}

func TestCodeGenerator_ReserveError(t *testing.T) {
	gen := NewCodeGenerator(nil)
	boom := errors.New("boom")

	_, err := gen.Generate(context.Background(), func(context.Context, string) (bool, error) {
		return false, boom
	})

	assert.ErrorIs(t, err, boom)
}

func TestCodeGenerator_RandomFailure(t *testing.T) {
	gen := NewCodeGenerator(bytes.NewReader([]byte{1, 2}))

	_, err := gen.Generate(context.Background(), func(context.Context, string) (bool, error) {
		return false, nil
	})

	assert.Error(t, err)
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "K7M2QX", NormalizeCode("  k7m2qx\n"))
	assert.True(t, ValidCodeFormat("K7M2QX"))
	assert.False(t, ValidCodeFormat("K7M2Q"))
	assert.False(t, ValidCodeFormat("K7M2QXY"))
}
