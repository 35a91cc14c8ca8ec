package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krishiyukti/krishiyukti/utils"
)

func TestReformatDOB(t *testing.T) {
	got, err := reformatDOB("1990-04-27")
	require.NoError(t, err)
	assert.Equal(t, "27-04-1990", got)

	_, err = reformatDOB("27-04-1990")
	assert.Error(t, err)

	_, err = reformatDOB("")
	assert.Error(t, err)
}

func TestParseTokenResponseShapes(t *testing.T) {
	def := 25 * time.Minute

	token, ttl := parseTokenResponse(map[string]interface{}{"access_token": "abc"}, def)
	assert.Equal(t, "abc", token)
	assert.Equal(t, def, ttl)

	token, ttl = parseTokenResponse(map[string]interface{}{"token": "xyz", "expires_in": float64(600)}, def)
	assert.Equal(t, "xyz", token)
	assert.Equal(t, 10*time.Minute, ttl)

	token, _ = parseTokenResponse(map[string]interface{}{
		"data": map[string]interface{}{"access_token": "nested"},
	}, def)
	assert.Equal(t, "nested", token)

	token, _ = parseTokenResponse(map[string]interface{}{}, def)
	assert.Empty(t, token)
}

func newEshramTestServer(t *testing.T, authCalls *int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth":
			*authCalls++
			json.NewEncoder(w).Encode(map[string]interface{}{"access_token": "tok-1", "expires_in": 900})
		case "/validate":
			assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "14-08-1992", body["dob"])
			if body["uan"] == "000000000000" {
				w.WriteHeader(http.StatusNotFound)
				json.NewEncoder(w).Encode(map[string]string{"message": "UAN not found"})
				return
			}
			json.NewEncoder(w).Encode(map[string]interface{}{"uan": body["uan"], "valid": true})
		default:
			http.NotFound(w, r)
		}
	}))
}

func newEshramService(baseURL string) *EshramService {
	return &EshramService{
		baseURL:      baseURL,
		authPath:     "/auth",
		validatePath: "/validate",
		clientID:     "id",
		clientSecret: "secret",
		tokenTTL:     25 * time.Minute,
		tokens:       utils.NewMemoryCache(),
		client:       &http.Client{Timeout: 5 * time.Second},
	}
}

func TestValidateUANReusesCachedToken(t *testing.T) {
	authCalls := 0
	srv := newEshramTestServer(t, &authCalls)
	defer srv.Close()

	svc := newEshramService(srv.URL)

	result, err := svc.ValidateUAN(context.Background(), "123456789012", "1992-08-14")
	require.NoError(t, err)
	assert.True(t, result.OK)
	assert.Equal(t, http.StatusOK, result.Status)

	_, err = svc.ValidateUAN(context.Background(), "123456789012", "1992-08-14")
	require.NoError(t, err)
	assert.Equal(t, 1, authCalls)
}

func TestValidateUANForwardsUpstreamError(t *testing.T) {
	authCalls := 0
	srv := newEshramTestServer(t, &authCalls)
	defer srv.Close()

	svc := newEshramService(srv.URL)

	result, err := svc.ValidateUAN(context.Background(), "000000000000", "1992-08-14")
	require.NoError(t, err)
	assert.False(t, result.OK)
	assert.Equal(t, http.StatusNotFound, result.Status)
	assert.NotNil(t, result.Error)
}

func TestValidateUANNotConfigured(t *testing.T) {
	svc := &EshramService{tokens: utils.NewMemoryCache(), client: http.DefaultClient}

	_, err := svc.ValidateUAN(context.Background(), "123456789012", "1992-08-14")
	assert.ErrorIs(t, err, ErrEshramNotConfigured)
}
