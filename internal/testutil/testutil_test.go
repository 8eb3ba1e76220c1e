package testutil

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hireloop-ai/hireloop/internal/models"
)

func TestNewTestServerServes(t *testing.T) {
	srv, _ := NewTestServer(t)

	req := CreateHTTPRequest(t, http.MethodPost, "/api/auth/login", models.LoginRequest{
		Email: "nobody@example.com", Password: "wrong",
	})
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	AssertHTTPStatus(t, http.StatusUnauthorized, rr.Code, "login with unknown account")
	AssertJSONResponse(t, rr, false)
}

func TestCreateTestUserIssuesUsableToken(t *testing.T) {
	srv, deps := NewTestServer(t)
	_, token := CreateTestUser(t, deps, models.RoleCandidate)

	req := CreateHTTPRequest(t, http.MethodGet, "/api/dashboard/get-dashboard-data", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	AssertHTTPStatus(t, http.StatusOK, rr.Code, "dashboard with issued token")
	AssertJSONResponse(t, rr, true)
}

func TestMustMarshalRoundTrip(t *testing.T) {
	data := MustMarshalJSON(t, models.JobDetails{Title: "SRE"})
	var out models.JobDetails
	MustUnmarshalJSON(t, data, &out)
	if out.Title != "SRE" {
		t.Errorf("round trip lost title: %+v", out)
	}
}
