package application

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

func submitAs(t *testing.T, u *user.User, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/applications", strings.NewReader(body))
	if u != nil {
		req = req.WithContext(api.WithUser(req.Context(), u))
	}
	rec := httptest.NewRecorder()
	Handlers{}.Submit(rec, req)
	return rec
}

func TestSubmitRequiresUser(t *testing.T) {
	rec := submitAs(t, nil, `{}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSubmitRejectsClients(t *testing.T) {
	rec := submitAs(t, &user.User{ID: "u1", Role: user.RoleClient}, `{}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSubmitReportsAllViolations(t *testing.T) {
	body := `{
		"jobId": "not-a-uuid",
		"coverLetter": "",
		"proposedBudget": "free",
		"availabilityStartDate": "tomorrow"
	}`
	rec := submitAs(t, &user.User{ID: "u1", Role: user.RoleWorker}, body)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var envelope api.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "VALIDATION_FAILED", envelope.Error.Code)

	got := make(map[string]bool, len(envelope.Error.Fields))
	for _, f := range envelope.Error.Fields {
		got[f.Field] = true
	}
	for _, want := range []string{"jobId", "coverLetter", "proposedBudget", "availabilityStartDate"} {
		assert.True(t, got[want], "missing violation for %s, got %+v", want, envelope.Error.Fields)
	}
}

func TestRejectionReasonIsOptionalAndVerbatim(t *testing.T) {
	assert.Equal(t, "", rejectionReason(StatusRejected, ""))
	assert.Equal(t, "", rejectionReason(StatusRejected, "   "))
	assert.Equal(t, "budget too high", rejectionReason(StatusRejected, " budget too high "))
	assert.Equal(t, "", rejectionReason(StatusWithdrawn, "ignored"))
}
