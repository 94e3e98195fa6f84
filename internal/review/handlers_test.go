package review

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace/internal/api"
	"marketplace/internal/user"
)

// Validation runs before any database access, so these paths run against a
// zero-value handler.

func postReview(t *testing.T, u *user.User, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/reviews", strings.NewReader(body))
	if u != nil {
		req = req.WithContext(api.WithUser(req.Context(), u))
	}
	rec := httptest.NewRecorder()
	Handlers{}.Create(rec, req)
	return rec
}

func TestCreateRequiresUser(t *testing.T) {
	rec := postReview(t, nil, `{}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateValidatesRatingAndCategories(t *testing.T) {
	client := &user.User{ID: "u1", Role: user.RoleClient}
	rec := postReview(t, client, `{
		"bookingId": "not-a-uuid",
		"rating": 9,
		"categories": {"communication": 6}
	}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var envelope api.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "VALIDATION_FAILED", envelope.Error.Code)

	got := make(map[string]bool, len(envelope.Error.Fields))
	for _, f := range envelope.Error.Fields {
		got[f.Field] = true
	}
	for _, want := range []string{"bookingId", "rating", "categories.communication"} {
		assert.True(t, got[want], "missing violation for %s, got %+v", want, envelope.Error.Fields)
	}
}

func TestVisibilityDefaultsToPublic(t *testing.T) {
	var req CreateRequest
	require.NoError(t, json.Unmarshal([]byte(`{"bookingId": "b1", "rating": 5}`), &req))
	assert.True(t, visibility(req.IsPublic))

	require.NoError(t, json.Unmarshal([]byte(`{"bookingId": "b1", "rating": 5, "isPublic": false}`), &req))
	assert.False(t, visibility(req.IsPublic))
}
