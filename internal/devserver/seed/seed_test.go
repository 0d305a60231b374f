package seed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSeed(t *testing.T) {
	data, err := Load("")
	require.NoError(t, err)

	offers := data.OfferInputs()
	require.Len(t, offers, 3)
	assert.Equal(t, "SOLO", offers[0].Code)
	assert.Equal(t, int64(2500), offers[0].PriceCents)
	assert.Equal(t, "Pack Familial", offers[2].Name)
	assert.Equal(t, 4, offers[2].Seats)
	assert.True(t, offers[2].Active)

	require.NotEmpty(t, data.Users)
	assert.Equal(t, "admin@jo.fr", data.Users[0].Email)
	assert.Contains(t, data.Users[0].Roles, "ROLE_ADMIN")
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
offers:
  - code: VIP
    name: VIP
    seats: 1
    priceCents: 9900
    active: false
  - code: OPEN
    name: Open
    seats: 1
    priceCents: 0
`), 0o600))

	data, err := Load(path)
	require.NoError(t, err)
	offers := data.OfferInputs()
	require.Len(t, offers, 2)
	assert.False(t, offers[0].Active)
	assert.True(t, offers[1].Active)
	assert.Empty(t, data.Users)
}

func TestParseRejectsUnknownFieldsAndBadUsers(t *testing.T) {
	_, err := Parse([]byte("offers:\n  - code: X\n    colour: red\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("users:\n  - email: a@b.c\n"))
	assert.ErrorContains(t, err, "user 1")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
