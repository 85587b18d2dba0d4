package httputil

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"

	"github.com/cobaltcrm/console/pkg/session"
)

// Transport authenticates outbound requests with the session credential and
// stamps each request with an X-Request-ID. When the session is empty the
// request is sent unauthenticated so the backend's 401 drives the
// fail-closed path, instead of the client failing locally.
type Transport struct {
	source oauth2.TokenSource
	base   http.RoundTripper
}

// NewTransport builds the authenticated transport. With instrument true the
// underlying round tripper is wrapped with otelhttp.
func NewTransport(source oauth2.TokenSource, instrument bool) *Transport {
	base := http.DefaultTransport
	if instrument {
		base = otelhttp.NewTransport(base)
	}
	return &Transport{source: source, base: base}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Per RoundTripper contract the request must not be mutated.
	clone := req.Clone(req.Context())
	if clone.Header.Get("X-Request-ID") == "" {
		clone.Header.Set("X-Request-ID", uuid.NewString())
	}

	tok, err := t.source.Token()
	switch {
	case err == nil:
		tok.SetAuthHeader(clone)
	case errors.Is(err, session.ErrNoCredential):
		// no credential: proceed unauthenticated
	default:
		return nil, err
	}

	return t.base.RoundTrip(clone)
}
