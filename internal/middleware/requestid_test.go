package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"mtg-price-api/pkg/uid"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runRequestID(t *testing.T, header string) (ctxID, echoedID string) {
	t.Helper()

	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxID = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("X-Request-ID", header)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return ctxID, rec.Header().Get("X-Request-ID")
}

func TestRequestID_GeneratesWhenAbsent(t *testing.T) {
	ctxID, echoedID := runRequestID(t, "")

	require.NotEmpty(t, ctxID)
	assert.Equal(t, ctxID, echoedID)
	assert.True(t, uid.IsValid(ctxID))
}

func TestRequestID_HonorsValidHeader(t *testing.T) {
	supplied := uid.New()
	ctxID, echoedID := runRequestID(t, supplied)

	assert.Equal(t, supplied, ctxID)
	assert.Equal(t, supplied, echoedID)
}

func TestRequestID_ReplacesMalformedHeader(t *testing.T) {
	ctxID, echoedID := runRequestID(t, "not-a-uuid")

	assert.NotEqual(t, "not-a-uuid", ctxID)
	assert.Equal(t, ctxID, echoedID)
	assert.True(t, uid.IsValid(ctxID))
}
