// Package storefront is the HTTP client for the storefront API. It carries
// the cart-mutation surface the cart controller drives and the catalog reads
// that return canonical entities.
package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/utafrali/storefront/internal/cartstate"
	"github.com/utafrali/storefront/internal/locale"
	"github.com/utafrali/storefront/internal/normalize"
	"github.com/utafrali/storefront/pkg/httpclient"
)

const serviceName = "storefront"

// LocaleSource reports the locale the user currently browses in.
// *locale.State satisfies it.
type LocaleSource interface {
	Current() locale.Locale
}

// Client talks to the storefront API.
type Client struct {
	http    httpclient.Doer
	baseURL string
	norm    *normalize.Normalizer
	locales LocaleSource
}

var _ cartstate.CartService = (*Client)(nil)

// NewClient creates a client for the API rooted at baseURL. Catalog reads are
// normalized with norm switched to the locale locales reports at call time.
func NewClient(doer httpclient.Doer, baseURL string, norm *normalize.Normalizer, locales LocaleSource) *Client {
	return &Client{
		http:    doer,
		baseURL: strings.TrimRight(baseURL, "/"),
		norm:    norm,
		locales: locales,
	}
}

func (c *Client) normalizer() *normalize.Normalizer {
	if c.locales == nil {
		return c.norm
	}
	return c.norm.WithLocale(c.locales.Current())
}

// get performs a GET and returns the decoded body.
func (c *Client) get(ctx context.Context, path string, query url.Values) (any, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return c.do(ctx, http.MethodGet, u, nil)
}

// send performs a mutation with an optional JSON body and returns the
// decoded response body, or nil for an empty one. Mutations are sent once;
// recovering from a failure is the caller's decision.
func (c *Client) send(ctx context.Context, method, path string, payload any) (any, error) {
	ctx = httpclient.WithoutRetry(ctx)
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	return c.do(ctx, method, c.baseURL+path, body)
}

func (c *Client) do(ctx context.Context, method, u string, body io.Reader) (any, error) {
	contentType := ""
	if body != nil {
		contentType = "application/json"
	}

	resp, err := c.http.Send(ctx, method, u, contentType, body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, u, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, httpclient.ParseResponseError(resp, serviceName)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	v, err := normalize.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return v, nil
}

func idPath(prefix string, id int64) string {
	return prefix + "/" + strconv.FormatInt(id, 10)
}
