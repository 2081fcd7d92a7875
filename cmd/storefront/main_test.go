package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/app"
	"github.com/utafrali/storefront/internal/config"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

func newTestApp(t *testing.T) (*app.App, *[]string) {
	t.Helper()
	var searches []string

	r := chi.NewRouter()
	r.Get("/api/v1/cart", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"items":[{"id":1,"product_id":10,"quantity":2,"unit_price":"4.25"}]}}`))
	})
	r.Get("/api/v1/products", func(w http.ResponseWriter, req *http.Request) {
		searches = append(searches, req.URL.Query().Get("search"))
		_, _ = w.Write([]byte(`{"data":[{"id":10,"name":"Sock","price":"4.25"}],"meta":{"total":1}}`))
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		APIBaseURL:       srv.URL + "/api/v1",
		DefaultLocale:    "en",
		SupportedLocales: []string{"en", "ar"},
		RequestTimeout:   5 * time.Second,
		CBMaxRequests:    1,
		CBInterval:       time.Minute,
		CBTimeout:        time.Minute,
		CBFailureRatio:   0.5,
		CBMinRequests:    5,
		HTTPPort:         8090,
	}
	a, err := app.NewApp(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown() })
	return a, &searches
}

func TestRun_Cart(t *testing.T) {
	a, _ := newTestApp(t)
	var out bytes.Buffer

	require.NoError(t, run(context.Background(), a, "cart", nil, &out))

	var cart map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &cart))
	assert.Equal(t, float64(2), cart["items_count"])
	assert.Equal(t, "8.50", cart["total"])
}

func TestRun_ProductsWithFlags(t *testing.T) {
	a, searches := newTestApp(t)
	var out bytes.Buffer

	require.NoError(t, run(context.Background(), a, "products", []string{"-search", "sock"}, &out))

	var products []map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &products))
	require.Len(t, products, 1)
	assert.Equal(t, "Sock", products[0]["name"])
	assert.Equal(t, []string{"sock"}, *searches)
}

func TestRun_Locale(t *testing.T) {
	a, _ := newTestApp(t)
	var out bytes.Buffer

	require.NoError(t, run(context.Background(), a, "locale", []string{"ar"}, &out))
	assert.Contains(t, out.String(), `"current": "ar"`)
	assert.Contains(t, out.String(), `"rtl": true`)

	err := run(context.Background(), a, "locale", []string{"fr"}, io.Discard)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestRun_UsageErrors(t *testing.T) {
	a, _ := newTestApp(t)

	tests := []struct {
		cmd  string
		args []string
	}{
		{"bogus", nil},
		{"qty", []string{"1"}},
		{"qty", []string{"x", "1"}},
		{"qty", []string{"1", "many"}},
		{"remove", nil},
		{"add", nil},
		{"product", []string{"-3"}},
	}
	for _, tt := range tests {
		err := run(context.Background(), a, tt.cmd, tt.args, io.Discard)
		var usageErr usageError
		assert.True(t, errors.As(err, &usageErr), "%s %v", tt.cmd, tt.args)
	}
}
