package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRGIService(baseURL string) *RGIService {
	return &RGIService{
		baseURL:      baseURL,
		birthPath:    "/btcer",
		deathPath:    "/dtcer",
		apiKey:       "setu-key",
		apiKeyHeader: "X-APISETU-APIKEY",
		consumerID:   "test-app",
		providerID:   "rgi",
		purpose:      "certificate verification",
		client:       &http.Client{Timeout: 5 * time.Second},
	}
}

func TestVerifyBirthSuccess(t *testing.T) {
	pdf := []byte("%PDF-1.4 fake")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/btcer", r.URL.Path)
		assert.Equal(t, "setu-key", r.Header.Get("X-APISETU-APIKEY"))

		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.NotEmpty(t, payload["txnId"])
		assert.Equal(t, "pdf", payload["format"])

		params, ok := payload["certificateParameters"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "B-2009-1234", params["RegNo"])
		assert.Equal(t, "Asha Devi", params["FullName"])
		assert.Equal(t, "14-08-1992", params["DOB"])
		_, hasGender := params["GENDER"]
		assert.False(t, hasGender)

		consent, ok := payload["consentArtifact"].(map[string]interface{})
		require.True(t, ok)
		inner, ok := consent["consent"].(map[string]interface{})
		require.True(t, ok)
		assert.NotEmpty(t, inner["consentId"])

		w.Header().Set("Content-Type", "application/pdf")
		w.Write(pdf)
	}))
	defer srv.Close()

	svc := newRGIService(srv.URL)
	result, err := svc.VerifyBirth(context.Background(), BirthQuery{
		RegNo:    "B-2009-1234",
		FullName: "Asha Devi",
		DOB:      "14-08-1992",
	})
	require.NoError(t, err)

	assert.True(t, result.OK)
	data, ok := result.Data.(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "application/pdf", data["contentType"])
	assert.Equal(t, base64.StdEncoding.EncodeToString(pdf), data["data"])
}

func TestVerifyDeathForwardsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/dtcer", r.URL.Path)

		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		params, ok := payload["certificateParameters"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "Ramesh", params["dec_name"])
		assert.Equal(t, "son", params["relation"])

		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"errorDescription": "record not found"})
	}))
	defer srv.Close()

	svc := newRGIService(srv.URL)
	result, err := svc.VerifyDeath(context.Background(), DeathQuery{
		RegNo:          "D-2015-99",
		FullName:       "Suresh",
		GenderDeceased: "male",
		DeceasedName:   "Ramesh",
		DOD:            "02-03-2015",
		Relation:       "son",
	})
	require.NoError(t, err)

	assert.False(t, result.OK)
	assert.Equal(t, http.StatusBadRequest, result.Status)
	upstream, ok := result.Error.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "record not found", upstream["errorDescription"])
}
