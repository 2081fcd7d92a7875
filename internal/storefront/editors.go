package storefront

import (
	"context"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel/propagation"

	"github.com/utafrali/storefront/pkg/httpclient"
	"github.com/utafrali/storefront/pkg/logger"
	"github.com/utafrali/storefront/pkg/middleware"
	"github.com/utafrali/storefront/pkg/tracing"
)

// TokenSource supplies the bearer token for authenticated calls. An empty
// token means the user is signed out.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource returning a fixed token.
type StaticToken string

// Token implements TokenSource.
func (t StaticToken) Token(context.Context) (string, error) { return string(t), nil }

// BearerAuth sets the Authorization header from ts.
func BearerAuth(ts TokenSource) httpclient.RequestEditor {
	return func(ctx context.Context, req *http.Request) error {
		token, err := ts.Token(ctx)
		if err != nil {
			return fmt.Errorf("get token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		return nil
	}
}

// AcceptLanguage sets Accept-Language to the current locale, so the API can
// localize its answer as well.
func AcceptLanguage(src LocaleSource) httpclient.RequestEditor {
	return func(_ context.Context, req *http.Request) error {
		if loc := src.Current(); loc != "" {
			req.Header.Set("Accept-Language", loc.String())
		}
		return nil
	}
}

// CorrelationID forwards the correlation id carried by ctx, if any.
func CorrelationID() httpclient.RequestEditor {
	return func(ctx context.Context, req *http.Request) error {
		if id := logger.CorrelationIDFromContext(ctx); id != "" {
			req.Header.Set(middleware.CorrelationHeader, id)
		}
		return nil
	}
}

// TraceContext propagates the span carried by ctx as traceparent and
// baggage headers.
func TraceContext() httpclient.RequestEditor {
	return func(ctx context.Context, req *http.Request) error {
		tracing.Propagator.Inject(ctx, propagation.HeaderCarrier(req.Header))
		return nil
	}
}
