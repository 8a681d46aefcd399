package password

import (
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func TestTemporary_Generate(t *testing.T) {
	re := regexp.MustCompile(`^[0-9A-Za-z]{4}-[0-9A-Za-z]{4}-[0-9A-Za-z]{4}$`)
	g := NewTemporary()
	seen := map[string]struct{}{}

	for range 500 {
		pw, err := g.Generate()
		require.NoError(t, err)
		assert.Regexp(t, re, pw)
		assert.True(t, mixed(pw), pw)
		seen[pw] = struct{}{}
	}
	assert.Len(t, seen, 500)
}

func TestTemporary_GenerateRandomError(t *testing.T) {
	g := &Temporary{random: errReader{}}

	_, err := g.Generate()
	assert.Error(t, err)
}
