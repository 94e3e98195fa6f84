package booking

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace/internal/api"
	"marketplace/internal/user"
)

// Validation and authorization are checked before any database access, so
// these paths run against a zero-value handler.

func newTestRouter(h Handlers) http.Handler {
	r := chi.NewRouter()
	r.Post("/v1/bookings", h.Create)
	r.Get("/v1/bookings/{id}/milestones", h.ListMilestones)
	r.Patch("/v1/bookings/{id}/cancel", h.Cancel)
	r.Post("/v1/bookings/{id}/admin/override", h.AdminOverride)
	return r
}

func doAs(t *testing.T, router http.Handler, u *user.User, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if u != nil {
		req = req.WithContext(api.WithUser(req.Context(), u))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) api.APIError {
	t.Helper()
	var envelope api.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope.Error
}

func TestCreateRequiresUser(t *testing.T) {
	rec := doAs(t, newTestRouter(Handlers{}), nil, http.MethodPost, "/v1/bookings", `{}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateRejectsInvalidJSON(t *testing.T) {
	client := &user.User{ID: "u1", Role: user.RoleClient}
	rec := doAs(t, newTestRouter(Handlers{}), client, http.MethodPost, "/v1/bookings", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_FAILED", decodeError(t, rec).Code)
}

func TestCreateReportsAllViolations(t *testing.T) {
	client := &user.User{ID: "u1", Role: user.RoleClient}
	body := `{
		"applicationId": "not-a-uuid",
		"startDate": "2020-01-01",
		"expectedCompletionDate": "2019-12-01",
		"finalBudget": "-10",
		"milestones": [{"description": "", "amount": "zero", "dueDate": "2020-01-15"}]
	}`
	rec := doAs(t, newTestRouter(Handlers{}), client, http.MethodPost, "/v1/bookings", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	apiErr := decodeError(t, rec)
	assert.Equal(t, "VALIDATION_FAILED", apiErr.Code)

	got := make(map[string]bool, len(apiErr.Fields))
	for _, f := range apiErr.Fields {
		got[f.Field] = true
	}
	for _, want := range []string{"applicationId", "startDate", "finalBudget", "milestones[0].description", "milestones[0].amount"} {
		assert.True(t, got[want], "missing violation for %s, got %+v", want, apiErr.Fields)
	}
}

func TestMilestonesRequiresUser(t *testing.T) {
	rec := doAs(t, newTestRouter(Handlers{}), nil, http.MethodGet, "/v1/bookings/b1/milestones", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCancelRequiresReason(t *testing.T) {
	client := &user.User{ID: "u1", Role: user.RoleClient}
	rec := doAs(t, newTestRouter(Handlers{}), client, http.MethodPatch, "/v1/bookings/b1/cancel", `{"reason": "  "}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	apiErr := decodeError(t, rec)
	require.Len(t, apiErr.Fields, 1)
	assert.Equal(t, "reason", apiErr.Fields[0].Field)
}

func TestAdminOverrideRejectsNonAdmin(t *testing.T) {
	client := &user.User{ID: "u1", Role: user.RoleClient}
	rec := doAs(t, newTestRouter(Handlers{}), client, http.MethodPost, "/v1/bookings/b1/admin/override",
		`{"action": "REOPEN_BOOKING", "reason": "support ticket 4711"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", decodeError(t, rec).Code)
}

func TestAdminOverrideValidatesActionAndReason(t *testing.T) {
	admin := &user.User{ID: "a1", Role: user.RoleAdmin}
	rec := doAs(t, newTestRouter(Handlers{}), admin, http.MethodPost, "/v1/bookings/b1/admin/override",
		`{"action": "DELETE_EVERYTHING", "reason": ""}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	apiErr := decodeError(t, rec)
	got := make(map[string]bool, len(apiErr.Fields))
	for _, f := range apiErr.Fields {
		got[f.Field] = true
	}
	assert.True(t, got["action"])
	assert.True(t, got["reason"])
}

func TestAdminOverrideRequiresMilestoneIDForMarkPaid(t *testing.T) {
	admin := &user.User{ID: "a1", Role: user.RoleAdmin}
	rec := doAs(t, newTestRouter(Handlers{}), admin, http.MethodPost, "/v1/bookings/b1/admin/override",
		`{"action": "MARK_MILESTONE_PAID", "reason": "provider outage"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	apiErr := decodeError(t, rec)
	require.Len(t, apiErr.Fields, 1)
	assert.Equal(t, "milestoneId", apiErr.Fields[0].Field)
}
