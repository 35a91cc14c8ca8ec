package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krishiyukti/krishiyukti/utils"
)

const schemesPage = `<html><body>
<div><a href="/schemes/pm-kisan-samman-nidhi">PM-Kisan Samman Nidhi</a><p>Income support for farmer families.</p></div>
<div><a href="/schemes/kisan-credit-card">Kisan Credit Card</a><p>Low-interest crop credit.</p></div>
<div><a href="/schemes/pm-kisan-samman-nidhi">PM-Kisan Samman Nidhi</a></div>
<a href="/about">About</a>
<a href="/schemes/x">x</a>
</body></html>`

func newSchemesService(url string, ttl time.Duration) *SchemeService {
	return &SchemeService{
		sourceURL: url,
		ttl:       ttl,
		cache:     utils.NewMemoryCache(),
		client:    &http.Client{Timeout: 5 * time.Second},
	}
}

func TestSchemesScrape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(schemesPage))
	}))
	defer srv.Close()

	svc := newSchemesService(srv.URL, time.Minute)
	items := svc.Fetch(context.Background(), "", 10)

	// duplicate link and short names are dropped
	require.Len(t, items, 2)
	assert.Equal(t, "PM-Kisan Samman Nidhi", items[0].Name)
	assert.Equal(t, srv.URL+"/schemes/pm-kisan-samman-nidhi", items[0].Link)
	assert.Equal(t, "Income support for farmer families.", items[0].Desc)
	assert.Equal(t, "Kisan Credit Card", items[1].Name)
}

func TestSchemesQueryFilter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(schemesPage))
	}))
	defer srv.Close()

	svc := newSchemesService(srv.URL, time.Minute)
	items := svc.Fetch(context.Background(), "credit", 10)

	require.Len(t, items, 1)
	assert.Equal(t, "Kisan Credit Card", items[0].Name)
}

func TestSchemesServedFromCache(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(schemesPage))
	}))
	defer srv.Close()

	svc := newSchemesService(srv.URL, time.Minute)
	svc.Fetch(context.Background(), "", 10)
	svc.Fetch(context.Background(), "", 10)

	assert.Equal(t, 1, hits)

	// a different query key misses the cache
	svc.Fetch(context.Background(), "credit", 10)
	assert.Equal(t, 2, hits)
}

func TestSchemesCuratedFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	svc := newSchemesService(srv.URL, time.Minute)
	items := svc.Fetch(context.Background(), "", 10)

	require.NotEmpty(t, items)
	assert.Equal(t, "curated", items[0].Source)
}
