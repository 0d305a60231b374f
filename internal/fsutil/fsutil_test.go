package fsutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "SOLO-12.png", want: "SOLO-12.png"},
		{in: " Billet Duo ", want: "Billet_Duo"},
		{in: "a/b\\c:d", want: "a_b_c_d"},
		{in: "fam\u200bille\x07", want: "famille"},
		{in: "Billet Été.png", want: "Billet_Été.png"},
	}

	for _, tt := range tests {
		got, err := SafeFilename(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestSafeFilenameRejects(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "  ", "///", ".env", "..", "con.png", "LPT3"} {
		_, err := SafeFilename(in)
		assert.ErrorIs(t, err, ErrInvalidFilename, in)
	}
}

func TestSafeFilenameTruncatesByRunes(t *testing.T) {
	t.Parallel()

	got, err := SafeFilename(strings.Repeat("é", 300))
	require.NoError(t, err)
	assert.Equal(t, maxFilenameRunes, len([]rune(got)))
}

func TestIsPNG(t *testing.T) {
	t.Parallel()

	assert.True(t, IsPNG([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")))
	assert.False(t, IsPNG([]byte(`{"message":"not found"}`)))
	assert.False(t, IsPNG(nil))
}
