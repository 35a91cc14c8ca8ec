package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/krishiyukti/krishiyukti/config"
	"github.com/krishiyukti/krishiyukti/utils"
)

// ErrEshramNotConfigured means client credentials are missing.
var ErrEshramNotConfigured = errors.New("e-Shram credentials not configured; set ESHRAM_CLIENT_ID and ESHRAM_CLIENT_SECRET")

const eshramTokenKey = "eshram:token"

// ProxyResult is the uniform forwarding shape for government verification
// proxies: upstream 2xx lands in Data, anything else in Error.
type ProxyResult struct {
	OK     bool        `json:"ok"`
	Status int         `json:"status"`
	Data   interface{} `json:"data,omitempty"`
	Error  interface{} `json:"error,omitempty"`
}

// EshramService validates workers against the e-Shram UAN API. The short
// lived upstream auth token is cached in-process.
type EshramService struct {
	baseURL      string
	authPath     string
	validatePath string
	clientID     string
	clientSecret string
	tokenTTL     time.Duration
	tokens       utils.ByteCache
	client       *http.Client
}

// NewEshramService builds an EshramService with its own token cache.
func NewEshramService(cfg config.AppConfig) *EshramService {
	return &EshramService{
		baseURL:      cfg.EshramBaseURL,
		authPath:     cfg.EshramAuthPath,
		validatePath: cfg.EshramValidatePath,
		clientID:     cfg.EshramClientID,
		clientSecret: cfg.EshramClientSecret,
		tokenTTL:     time.Duration(cfg.EshramTokenTTLSec) * time.Second,
		tokens:       utils.NewMemoryCache(),
		client:       defaultHTTPClient,
	}
}

// ValidateUAN checks a UAN + date of birth pair. dob arrives as YYYY-MM-DD
// and is reformatted to the DD-MM-YYYY the API expects.
func (s *EshramService) ValidateUAN(ctx context.Context, uan, dob string) (*ProxyResult, error) {
	token, err := s.token(ctx)
	if err != nil {
		return nil, err
	}

	dobFmt, err := reformatDOB(dob)
	if err != nil {
		return nil, err
	}

	body, _ := json.Marshal(map[string]string{"uan": uan, "dob": dobFmt})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, joinURL(s.baseURL, s.validatePath), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var payload interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		payload = string(raw)
	}

	// Surface 4xx/5xx as clean error payloads rather than failing the request
	if resp.StatusCode >= 400 {
		return &ProxyResult{OK: false, Status: resp.StatusCode, Error: payload}, nil
	}
	return &ProxyResult{OK: true, Status: resp.StatusCode, Data: payload}, nil
}

// token returns a cached upstream token, fetching a fresh one when expired.
func (s *EshramService) token(ctx context.Context) (string, error) {
	if b, ok := s.tokens.GetBytes(eshramTokenKey); ok {
		return string(b), nil
	}

	if s.clientID == "" && s.clientSecret == "" {
		return "", ErrEshramNotConfigured
	}

	body, _ := json.Marshal(map[string]string{"clientId": s.clientID, "clientSecret": s.clientSecret})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, joinURL(s.baseURL, s.authPath), bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", errors.New("e-Shram auth returned " + resp.Status)
	}

	var data map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", err
	}

	token, ttl := parseTokenResponse(data, s.tokenTTL)
	if token == "" {
		return "", errors.New("e-Shram token not found in response")
	}

	// refresh slightly before upstream expiry
	cacheTTL := ttl - 30*time.Second
	if cacheTTL < time.Minute {
		cacheTTL = time.Minute
	}
	s.tokens.SetBytes(eshramTokenKey, []byte(token), cacheTTL)
	return token, nil
}

// parseTokenResponse tolerates the common token/TTL envelope shapes.
func parseTokenResponse(data map[string]interface{}, defaultTTL time.Duration) (string, time.Duration) {
	nested, _ := data["data"].(map[string]interface{})

	token := stringField(data, "access_token")
	if token == "" {
		token = stringField(data, "token")
	}
	if token == "" && nested != nil {
		token = stringField(nested, "access_token")
		if token == "" {
			token = stringField(nested, "token")
		}
	}

	ttl := defaultTTL
	for _, m := range []map[string]interface{}{data, nested} {
		if m == nil {
			continue
		}
		for _, key := range []string{"expires_in", "expiresIn"} {
			if v, ok := m[key].(float64); ok && v > 0 {
				return token, time.Duration(v) * time.Second
			}
		}
	}
	return token, ttl
}

func stringField(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// reformatDOB converts YYYY-MM-DD into the DD-MM-YYYY form the API expects.
func reformatDOB(dob string) (string, error) {
	t, err := time.Parse("2006-01-02", dob)
	if err != nil {
		return "", errors.New("dob must be in YYYY-MM-DD format")
	}
	return t.Format("02-01-2006"), nil
}
