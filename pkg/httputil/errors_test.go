package httputil

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestCheckResponseSuccess(t *testing.T) {
	assert.NoError(t, CheckResponse(newResponse(http.StatusOK, `{}`)))
	assert.NoError(t, CheckResponse(newResponse(http.StatusCreated, ``)))
}

func TestCheckResponseCarriesBackendMessage(t *testing.T) {
	err := CheckResponse(newResponse(http.StatusUnprocessableEntity, `{"error":"role code already in use"}`))
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Equal(t, "role code already in use", apiErr.Message)
}

func TestCheckResponseFallsBackToStatusText(t *testing.T) {
	err := CheckResponse(newResponse(http.StatusBadGateway, `not json`))
	require.Error(t, err)

	apiErr := err.(*APIError)
	assert.Equal(t, http.StatusText(http.StatusBadGateway), apiErr.Message)
}

func TestIsAuthError(t *testing.T) {
	unauthorized := CheckResponse(newResponse(http.StatusUnauthorized, `{"error":"token expired"}`))
	forbidden := CheckResponse(newResponse(http.StatusForbidden, `{"error":"no"}`))
	server := CheckResponse(newResponse(http.StatusInternalServerError, `{"error":"boom"}`))

	assert.True(t, IsAuthError(unauthorized))
	assert.True(t, IsAuthError(forbidden))
	assert.False(t, IsAuthError(server))
	assert.False(t, IsAuthError(nil))

	wrapped := fmt.Errorf("refresh: %w", unauthorized)
	assert.True(t, IsAuthError(wrapped))
}

func TestDecodeJSON(t *testing.T) {
	var dest struct {
		Name string `json:"name"`
	}
	err := DecodeJSON(newResponse(http.StatusOK, `{"name":"sales"}`), &dest)
	require.NoError(t, err)
	assert.Equal(t, "sales", dest.Name)
}

func TestDecodeJSONPropagatesAPIError(t *testing.T) {
	var dest struct{}
	err := DecodeJSON(newResponse(http.StatusForbidden, `{"error":"denied"}`), &dest)
	assert.True(t, IsAuthError(err))
}

func TestDecodeJSONNilDestDrainsStatusOnly(t *testing.T) {
	assert.NoError(t, DecodeJSON(newResponse(http.StatusOK, `{"ignored":true}`), nil))
}
