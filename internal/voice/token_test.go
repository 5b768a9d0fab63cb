package voice_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/relocation/internal/voice"
)

func TestTokenIssuer_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "key", user)
		assert.Equal(t, "secret", pass)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-123","token_type":"Bearer","expires_in":1800}`))
	}))
	defer srv.Close()

	issuer := voice.NewTokenIssuerWithURL("key", "secret", srv.URL)
	assert.True(t, issuer.Configured())

	tok, err := issuer.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-123", tok)
}

func TestTokenIssuer_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid_client"}`))
	}))
	defer srv.Close()

	_, err := voice.NewTokenIssuerWithURL("key", "bad", srv.URL).AccessToken(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetching voice access token")
}

func TestTokenIssuer_NotConfigured(t *testing.T) {
	for _, creds := range [][2]string{{"", ""}, {"key", ""}, {"", "secret"}} {
		issuer := voice.NewTokenIssuer(creds[0], creds[1])
		assert.False(t, issuer.Configured())

		_, err := issuer.AccessToken(context.Background())
		assert.True(t, errors.Is(err, voice.ErrNotConfigured))
	}
}
