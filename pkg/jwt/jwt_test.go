package jwt_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantkit/pkg/jwt"
)

func TestGenerateParse_RoundTrip(t *testing.T) {
	t.Parallel()

	svc, err := jwt.New([]byte("test-signing-key-of-adequate-len"))
	require.NoError(t, err)

	claims := jwt.TenantClaims{
		StandardClaims: jwt.StandardClaims{
			Subject:   "user-1",
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
		},
		TenantID:   "t1",
		TenantTier: "bridge",
	}

	token, err := svc.Generate(claims)
	require.NoError(t, err)
	assert.Len(t, strings.Split(token, "."), 3)

	var parsed jwt.TenantClaims
	require.NoError(t, svc.Parse(token, &parsed))
	assert.Equal(t, "t1", parsed.TenantID)
	assert.Equal(t, "bridge", parsed.TenantTier)
	assert.Equal(t, "user-1", parsed.Subject)
}

func TestParse_RejectsTamperedSignature(t *testing.T) {
	t.Parallel()

	svc, err := jwt.New([]byte("test-signing-key-of-adequate-len"))
	require.NoError(t, err)

	token, err := svc.Generate(jwt.TenantClaims{TenantID: "t1"})
	require.NoError(t, err)

	other, err := jwt.New([]byte("another-key-entirely-not-the-one"))
	require.NoError(t, err)

	var claims jwt.TenantClaims
	assert.ErrorIs(t, other.Parse(token, &claims), jwt.ErrInvalidSignature)
}

func TestParse_RejectsExpiredToken(t *testing.T) {
	t.Parallel()

	svc, err := jwt.New([]byte("test-signing-key-of-adequate-len"))
	require.NoError(t, err)

	token, err := svc.Generate(jwt.TenantClaims{
		StandardClaims: jwt.StandardClaims{ExpiresAt: time.Now().Add(-time.Minute).Unix()},
		TenantID:       "t1",
	})
	require.NoError(t, err)

	var claims jwt.TenantClaims
	assert.ErrorIs(t, svc.Parse(token, &claims), jwt.ErrExpiredToken)
}

func TestParseUnverified(t *testing.T) {
	t.Parallel()

	t.Run("decodes claims regardless of signer", func(t *testing.T) {
		t.Parallel()

		svc, err := jwt.New([]byte("key-the-parser-will-never-learn!"))
		require.NoError(t, err)

		token, err := svc.Generate(jwt.TenantClaims{TenantID: "t9", TenantTier: "silo"})
		require.NoError(t, err)

		var claims jwt.TenantClaims
		require.NoError(t, jwt.ParseUnverified(token, &claims))
		assert.Equal(t, "t9", claims.TenantID)
		assert.Equal(t, "silo", claims.TenantTier)
	})

	t.Run("rejects malformed tokens", func(t *testing.T) {
		t.Parallel()

		var claims jwt.TenantClaims
		assert.ErrorIs(t, jwt.ParseUnverified("only.two", &claims), jwt.ErrInvalidToken)
		assert.ErrorIs(t, jwt.ParseUnverified("!!.!!.!!", &claims), jwt.ErrInvalidToken)
	})
}

func TestNew_RequiresKey(t *testing.T) {
	t.Parallel()

	_, err := jwt.New(nil)
	assert.ErrorIs(t, err, jwt.ErrMissingSigningKey)
}
