package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "github.com/viant/scy/kms/blowfish"
)

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	_, ok := s.Lookup()
	assert.False(t, ok)

	require.NoError(t, s.Save(&Credentials{Access: "a1", Refresh: "r1", Role: "user"}))
	credentials, ok := s.Lookup()
	require.True(t, ok)
	assert.Equal(t, &Credentials{Access: "a1", Refresh: "r1", Role: "user"}, credentials)

	credentials.Access = "mutated"
	assert.Equal(t, "a1", AccessToken(s), "lookup must return a copy")

	require.NoError(t, s.Clear())
	assert.Equal(t, "", AccessToken(s))
	assert.Equal(t, "", RefreshToken(s))
}

func TestUpdateTokens(t *testing.T) {
	testCases := []struct {
		description string
		seed        *Credentials
		access      string
		refresh     string
		expect      *Credentials
	}{
		{
			description: "rotation overwrites both tokens",
			seed:        &Credentials{Access: "expired", Refresh: "valid-r1", Role: "admin"},
			access:      "new-a",
			refresh:     "new-r2",
			expect:      &Credentials{Access: "new-a", Refresh: "new-r2", Role: "admin"},
		},
		{
			description: "missing refresh keeps previous",
			seed:        &Credentials{Access: "expired", Refresh: "valid-r1", Role: "user"},
			access:      "new-a",
			expect:      &Credentials{Access: "new-a", Refresh: "valid-r1", Role: "user"},
		},
		{
			description: "empty store",
			access:      "a",
			expect:      &Credentials{Access: "a"},
		},
	}
	for _, testCase := range testCases {
		s := NewMemoryStore(testCase.seed)
		require.NoError(t, UpdateTokens(s, testCase.access, testCase.refresh), testCase.description)
		actual, ok := s.Lookup()
		require.True(t, ok, testCase.description)
		assert.Equal(t, testCase.expect, actual, testCase.description)
	}
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	URL := filepath.Join(t.TempDir(), "credentials.json")

	s, err := NewFileStore(ctx, URL)
	require.NoError(t, err)
	_, ok := s.Lookup()
	assert.False(t, ok)

	require.NoError(t, s.Save(&Credentials{Access: "a1", Refresh: "r1", Role: "staff"}))

	reloaded, err := NewFileStore(ctx, URL)
	require.NoError(t, err)
	credentials, ok := reloaded.Lookup()
	require.True(t, ok)
	assert.Equal(t, "a1", credentials.Access)
	assert.Equal(t, "r1", credentials.Refresh)
	assert.Equal(t, "staff", credentials.Role)

	require.NoError(t, reloaded.Clear())
	require.NoError(t, reloaded.Clear(), "clearing twice is a no-op")
	again, err := NewFileStore(ctx, URL)
	require.NoError(t, err)
	_, ok = again.Lookup()
	assert.False(t, ok)
}

func TestSecretStore(t *testing.T) {
	ctx := context.Background()
	URL := filepath.Join(t.TempDir(), "credentials.enc")

	s, err := NewSecretStore(ctx, URL, DefaultSecretKey)
	require.NoError(t, err)
	require.NoError(t, s.Save(&Credentials{Access: "a1", Refresh: "r1", Role: "user"}))

	reloaded, err := NewSecretStore(ctx, URL, DefaultSecretKey)
	require.NoError(t, err)
	credentials, ok := reloaded.Lookup()
	require.True(t, ok)
	assert.Equal(t, "r1", credentials.Refresh)

	require.NoError(t, reloaded.Clear())
	_, ok = reloaded.Lookup()
	assert.False(t, ok)
}

func TestNew(t *testing.T) {
	ctx := context.Background()
	s, err := New(ctx, "", "", "")
	require.NoError(t, err)
	assert.NotNil(t, s)

	_, err = New(ctx, KindFile, "", "")
	assert.Error(t, err)

	_, err = New(ctx, "redis", "", "")
	assert.Error(t, err)
}

func TestCredentials_Claims(t *testing.T) {
	expiry := time.Now().Add(5 * time.Minute).Truncate(time.Second)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"token_type": "access",
		"exp":        expiry.Unix(),
		"user_id":    42,
	})
	signed, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)

	credentials := &Credentials{Access: signed}
	claims, err := credentials.Claims()
	require.NoError(t, err)
	assert.Equal(t, 42, claims.UserID)
	assert.Equal(t, "access", claims.TokenType)
	assert.True(t, expiry.Equal(credentials.Expiry()))

	opaque := &Credentials{Access: "not-a-jwt"}
	_, err = opaque.Claims()
	assert.Error(t, err)
	assert.True(t, opaque.Expiry().IsZero())
}
