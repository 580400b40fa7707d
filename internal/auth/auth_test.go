package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckNoHookAllows(t *testing.T) {
	a := New(nil)
	req := httptest.NewRequest(http.MethodGet, "http://example.com/", nil)

	ok, err := a.Check(req)

	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCheckHookConfiguredNoHeaderChallenges(t *testing.T) {
	called := false
	a := New(func(r *http.Request) (bool, error) {
		called = true
		return true, nil
	})
	req := httptest.NewRequest(http.MethodGet, "http://example.com/", nil)

	ok, err := a.Check(req)

	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, called, "hook must not be consulted when the header is absent")
}

func TestCheckHookConfiguredHeaderPresentDelegates(t *testing.T) {
	var seen string
	a := New(func(r *http.Request) (bool, error) {
		seen = r.Header.Get("Proxy-Authorization")
		return seen == "Basic dGVzdA==", nil
	})

	req := httptest.NewRequest(http.MethodGet, "http://example.com/", nil)
	req.Header.Set("Proxy-Authorization", "Basic dGVzdA==")

	ok, err := a.Check(req)

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Basic dGVzdA==", seen)
}

func TestNilAuthenticatorAllows(t *testing.T) {
	var a *Authenticator
	req := httptest.NewRequest(http.MethodGet, "http://example.com/", nil)

	ok, err := a.Check(req)

	require.NoError(t, err)
	assert.True(t, ok)
}

func TestChallengeWritesRealmAndStatus(t *testing.T) {
	rec := httptest.NewRecorder()

	Challenge(rec)

	assert.Equal(t, http.StatusProxyAuthRequired, rec.Code)
	assert.Equal(t, `Basic realm="proxy"`, rec.Header().Get("Proxy-Authenticate"))
}
