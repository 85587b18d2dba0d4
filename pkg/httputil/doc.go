// Package httputil provides HTTP client plumbing for talking to the CRM
// backend: the authenticated transport and typed API errors.
//
// # Overview
//
// Every backend call carries a bearer credential and a request ID. Backend
// failures decode into APIError so callers can distinguish authorization
// failures (fail closed) from transient failures (keep stale state).
//
// # Transport
//
//	transport := httputil.NewTransport(session.TokenSource(ctx, store), false)
//	client := &http.Client{Transport: transport, Timeout: cfg.API.Timeout}
//
// # Errors
//
//	var apiErr *httputil.APIError
//	if errors.As(err, &apiErr) && apiErr.IsAuthError() {
//		// 401/403: treat as zero permissions, never crash
//	}
package httputil
