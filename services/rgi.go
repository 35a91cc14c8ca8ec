package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/krishiyukti/krishiyukti/config"
)

// ConsentUser identifies the citizen giving consent for a certificate lookup.
type ConsentUser struct {
	IDType   string `json:"userIdType"`
	IDNumber string `json:"userIdNumber"`
	Mobile   string `json:"mobile"`
	Email    string `json:"email"`
}

// BirthQuery are the parameters for a birth certificate verification.
type BirthQuery struct {
	RegNo    string
	FullName string
	DOB      string // DD-MM-YYYY per API docs
	Gender   string
	Format   string
	User     ConsentUser
}

// DeathQuery are the parameters for a death certificate verification.
type DeathQuery struct {
	RegNo          string
	FullName       string // applicant full name
	GenderDeceased string
	DeceasedName   string
	DOD            string // DD-MM-YYYY
	Relation       string
	Format         string
	User           ConsentUser
}

// RGIService forwards certificate verification requests to the Registrar
// General of India API behind API Setu. Successful responses (PDF or XML) are
// returned base64 encoded; upstream errors are forwarded verbatim.
type RGIService struct {
	baseURL      string
	birthPath    string
	deathPath    string
	apiKey       string
	apiKeyHeader string
	consumerID   string
	providerID   string
	purpose      string
	client       *http.Client
}

// NewRGIService builds an RGIService from configuration.
func NewRGIService(cfg config.AppConfig) *RGIService {
	return &RGIService{
		baseURL:      cfg.RGIBaseURL,
		birthPath:    cfg.RGIBirthPath,
		deathPath:    cfg.RGIDeathPath,
		apiKey:       cfg.RGIAPIKey,
		apiKeyHeader: cfg.RGIAPIKeyHeader,
		consumerID:   cfg.RGIConsumerID,
		providerID:   cfg.RGIProviderID,
		purpose:      cfg.RGIPurpose,
		client:       &http.Client{Timeout: 30 * time.Second},
	}
}

// VerifyBirth requests a birth certificate verification.
func (s *RGIService) VerifyBirth(ctx context.Context, q BirthQuery) (*ProxyResult, error) {
	params := map[string]string{
		"RegNo":    q.RegNo,
		"FullName": q.FullName,
		"DOB":      q.DOB,
	}
	if q.Gender != "" {
		params["GENDER"] = q.Gender
	}
	return s.verify(ctx, joinURL(s.baseURL, s.birthPath), q.Format, params, q.RegNo, q.User)
}

// VerifyDeath requests a death certificate verification.
func (s *RGIService) VerifyDeath(ctx context.Context, q DeathQuery) (*ProxyResult, error) {
	params := map[string]string{
		"RegNo":           q.RegNo,
		"gender_deceased": q.GenderDeceased,
		"dec_name":        q.DeceasedName,
		"dod":             q.DOD,
		"relation":        q.Relation,
		"FullName":        q.FullName,
	}
	return s.verify(ctx, joinURL(s.baseURL, s.deathPath), q.Format, params, q.RegNo, q.User)
}

func (s *RGIService) verify(ctx context.Context, url, format string, params map[string]string, regNo string, user ConsentUser) (*ProxyResult, error) {
	if format == "" {
		format = "pdf"
	}

	payload := map[string]interface{}{
		"txnId":                 uuid.NewString(),
		"format":                format,
		"certificateParameters": params,
		"consentArtifact":       s.consentArtifact(regNo, user),
	}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set(s.apiKeyHeader, s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusOK {
		// The API can return PDF or XML bytes; base64 keeps them JSON-safe.
		ct := resp.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/pdf"
		}
		return &ProxyResult{
			OK:     true,
			Status: http.StatusOK,
			Data: map[string]string{
				"contentType": ct,
				"data":        base64.StdEncoding.EncodeToString(raw),
			},
		}, nil
	}

	var upstream interface{}
	if err := json.Unmarshal(raw, &upstream); err != nil {
		upstream = string(raw)
	}
	return &ProxyResult{OK: false, Status: resp.StatusCode, Error: upstream}, nil
}

// consentArtifact shapes the API Setu consent block for a single VIEW access.
func (s *RGIService) consentArtifact(regNo string, user ConsentUser) map[string]interface{} {
	now := time.Now().UTC().Format(time.RFC3339)
	idType := user.IDType
	if idType == "" {
		idType = "mobile"
	}
	return map[string]interface{}{
		"consent": map[string]interface{}{
			"consentId":    uuid.NewString(),
			"timestamp":    now,
			"dataConsumer": map[string]string{"id": s.consumerID},
			"dataProvider": map[string]string{"id": s.providerID},
			"purpose":      map[string]string{"description": s.purpose},
			"user": map[string]string{
				"idType":   idType,
				"idNumber": user.IDNumber,
				"mobile":   user.Mobile,
				"email":    user.Email,
			},
			"data": map[string]string{"id": regNo},
			"permission": map[string]interface{}{
				"access":    "VIEW",
				"dateRange": map[string]string{"from": now, "to": now},
				"frequency": map[string]interface{}{"unit": "once", "value": 1, "repeats": 0},
			},
		},
		"signature": map[string]string{"signature": ""},
	}
}
