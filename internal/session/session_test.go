package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketing-front/internal/model"
)

func TestRolesAdminAndAgentSpellings(t *testing.T) {
	tests := []struct {
		name  string
		roles []string
		admin bool
		agent bool
	}{
		{name: "prefixed admin", roles: []string{"ROLE_USER", "ROLE_ADMIN"}, admin: true},
		{name: "bare admin", roles: []string{"ADMIN"}, admin: true},
		{name: "prefixed agent", roles: []string{"ROLE_AGENT"}, agent: true},
		{name: "bare agent", roles: []string{"AGENT", "ROLE_USER"}, agent: true},
		{name: "both", roles: []string{"ADMIN", "ROLE_AGENT"}, admin: true, agent: true},
		{name: "user only", roles: []string{"ROLE_USER"}},
		{name: "lowercase is not admin", roles: []string{"admin", "role_agent"}},
		{name: "empty", roles: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity := Derive("tok", &model.Profile{Roles: tt.roles})
			assert.True(t, identity.IsAuth)
			assert.Equal(t, tt.admin, identity.IsAdmin)
			assert.Equal(t, tt.agent, identity.IsAgent)
			assert.Equal(t, tt.admin || tt.agent, identity.CanScan())
		})
	}
}

func TestDeriveWithoutProfileKeepsAuth(t *testing.T) {
	identity := Derive("tok", nil)
	assert.True(t, identity.IsAuth)
	assert.False(t, identity.IsAdmin)
	assert.False(t, identity.IsAgent)

	assert.False(t, Derive("", nil).IsAuth)
}

func TestRolesSorted(t *testing.T) {
	roles := NewRoles("ROLE_USER", "", "ROLE_ADMIN", "ROLE_USER")
	assert.Equal(t, []string{"ROLE_ADMIN", "ROLE_USER"}, roles.Sorted())
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	store := NewFileStore(path)

	token, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, store.Save("  abc.def.ghi  "))

	token, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"token":"abc.def.ghi"}`, string(raw))

	require.NoError(t, store.Clear())
	token, err = store.Load()
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, store.Clear())
}

func TestFileStoreSaveEmptyClears(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewFileStore(path)

	require.NoError(t, store.Save("tok"))
	require.NoError(t, store.Save(""))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))

	_, err := NewFileStore(path).Load()
	assert.Error(t, err)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore("first")

	token, _ := store.Load()
	assert.Equal(t, "first", token)

	require.NoError(t, store.Save("second"))
	token, _ = store.Load()
	assert.Equal(t, "second", token)

	require.NoError(t, store.Clear())
	token, _ = store.Load()
	assert.Empty(t, token)
}

func TestParseClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "admin@jo.fr",
		"email": "admin@jo.fr",
		"exp":   exp.Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	claims, ok := ParseClaims(signed)
	require.True(t, ok)
	assert.Equal(t, "admin@jo.fr", claims.Subject)
	assert.Equal(t, "admin@jo.fr", claims.Email)
	assert.True(t, exp.Equal(claims.ExpiresAt))
	assert.False(t, claims.Expired(time.Now()))
	assert.True(t, claims.Expired(exp.Add(time.Minute)))
}

func TestParseClaimsOpaqueToken(t *testing.T) {
	_, ok := ParseClaims("abc.def.ghi")
	assert.False(t, ok)

	_, ok = ParseClaims("opaque")
	assert.False(t, ok)
}

func TestGeneration(t *testing.T) {
	var gen Generation
	first := gen.Next()
	assert.True(t, gen.IsCurrent(first))

	second := gen.Next()
	assert.False(t, gen.IsCurrent(first))
	assert.True(t, gen.IsCurrent(second))
	assert.Equal(t, second, gen.Current())
}
