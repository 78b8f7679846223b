package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/arklim/rera-lookup-gateway/internal/core/domain"
	"github.com/arklim/rera-lookup-gateway/internal/transport/http/handlers"
	"github.com/arklim/rera-lookup-gateway/internal/usecase"
)

type stubAuthFlow struct {
	startResult  usecase.StartLoginResult
	startErr     error
	verifyResult usecase.VerifyLoginResult
	verifyErr    error
	status       domain.AccountStatus
	statusErr    error
	logoutErr    error
}

func (s *stubAuthFlow) StartLogin(context.Context, string) (usecase.StartLoginResult, error) {
	return s.startResult, s.startErr
}

func (s *stubAuthFlow) VerifyLogin(context.Context, string, string, string) (usecase.VerifyLoginResult, error) {
	return s.verifyResult, s.verifyErr
}

func (s *stubAuthFlow) Status(context.Context) (domain.AccountStatus, error) {
	return s.status, s.statusErr
}

func (s *stubAuthFlow) Logout(context.Context) error {
	return s.logoutErr
}

type stubLookupRunner struct {
	result     usecase.LookupResult
	err        error
	records    []domain.LookupRecord
	historyErr error
}

func (s *stubLookupRunner) Lookup(context.Context, string) (usecase.LookupResult, error) {
	return s.result, s.err
}

func (s *stubLookupRunner) History(context.Context, int) ([]domain.LookupRecord, error) {
	return s.records, s.historyErr
}

func newRouter(auth handlers.AuthFlow, lookups handlers.LookupRunner) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api/v1")
	if auth != nil {
		handlers.NewAuthHandler(auth).RegisterRoutes(api)
	}
	if lookups != nil {
		handlers.NewLookupHandler(lookups).RegisterRoutes(api)
	}
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestStartAuthSendsCode(t *testing.T) {
	auth := &stubAuthFlow{startResult: usecase.StartLoginResult{CodeSent: true}}
	r := newRouter(auth, nil)

	rr := doJSON(t, r, http.MethodPost, "/api/v1/auth/start", `{"phone":"+971501234567"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp handlers.StartAuthResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Success || !resp.CodeSent {
		t.Fatalf("expected success with code sent, got %+v", resp)
	}
}

func TestStartAuthRejectsMissingPhone(t *testing.T) {
	r := newRouter(&stubAuthFlow{}, nil)

	rr := doJSON(t, r, http.MethodPost, "/api/v1/auth/start", `{}`)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestStartAuthErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{name: "invalid phone", err: usecase.ErrInvalidInput, status: http.StatusBadRequest},
		{name: "rate limited", err: usecase.ErrRateLimited, status: http.StatusTooManyRequests},
		{name: "telegram down", err: usecase.ErrTelegramUnavailable, status: http.StatusBadGateway},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newRouter(&stubAuthFlow{startErr: tc.err}, nil)

			rr := doJSON(t, r, http.MethodPost, "/api/v1/auth/start", `{"phone":"+971501234567"}`)

			if rr.Code != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, rr.Code)
			}
		})
	}
}

func TestVerifyAuthReportsPasswordRequired(t *testing.T) {
	auth := &stubAuthFlow{verifyResult: usecase.VerifyLoginResult{PasswordRequired: true}}
	r := newRouter(auth, nil)

	rr := doJSON(t, r, http.MethodPost, "/api/v1/auth/verify", `{"phone":"+971501234567","code":"12345"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp handlers.VerifyAuthResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Success || !resp.PasswordRequired {
		t.Fatalf("expected password-required outcome, got %+v", resp)
	}
}

func TestVerifyAuthErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{name: "bad code", err: usecase.ErrInvalidCredentials, status: http.StatusBadRequest},
		{name: "expired code", err: usecase.ErrCodeExpired, status: http.StatusBadRequest},
		{name: "no pending login", err: usecase.ErrNoPendingLogin, status: http.StatusConflict},
		{name: "phone mismatch", err: usecase.ErrPhoneMismatch, status: http.StatusConflict},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newRouter(&stubAuthFlow{verifyErr: tc.err}, nil)

			rr := doJSON(t, r, http.MethodPost, "/api/v1/auth/verify", `{"phone":"+971501234567","code":"12345"}`)

			if rr.Code != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, rr.Code)
			}
		})
	}
}

func TestSessionStatus(t *testing.T) {
	auth := &stubAuthFlow{status: domain.AccountStatus{Authenticated: true, Phone: "+971501234567"}}
	r := newRouter(auth, nil)

	rr := doJSON(t, r, http.MethodGet, "/api/v1/session/status", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var resp handlers.SessionStatusResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Authenticated || resp.Phone != "+971501234567" {
		t.Fatalf("unexpected status payload: %+v", resp)
	}
}

func TestLogout(t *testing.T) {
	r := newRouter(&stubAuthFlow{}, nil)

	rr := doJSON(t, r, http.MethodPost, "/api/v1/auth/logout", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
}

func TestLookupReturnsReply(t *testing.T) {
	lookups := &stubLookupRunner{result: usecase.LookupResult{
		ReraNumber: "12345",
		Response:   "Project: Marina Heights, status registered",
	}}
	r := newRouter(nil, lookups)

	rr := doJSON(t, r, http.MethodPost, "/api/v1/rera/lookup", `{"rera_number":"12345"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp handlers.LookupResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Success || resp.ReraNumber != "12345" || resp.Response == "" {
		t.Fatalf("unexpected lookup payload: %+v", resp)
	}
}

func TestLookupErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{name: "not authenticated", err: usecase.ErrNotAuthenticated, status: http.StatusUnauthorized},
		{name: "lookup in progress", err: usecase.ErrLookupInProgress, status: http.StatusConflict},
		{name: "timeout", err: usecase.ErrLookupTimeout, status: http.StatusGatewayTimeout},
		{name: "peer not found", err: usecase.ErrPeerNotFound, status: http.StatusNotFound},
		{name: "telegram down", err: usecase.ErrTelegramUnavailable, status: http.StatusBadGateway},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newRouter(nil, &stubLookupRunner{err: tc.err})

			rr := doJSON(t, r, http.MethodPost, "/api/v1/rera/lookup", `{"rera_number":"12345"}`)

			if rr.Code != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, rr.Code)
			}
		})
	}
}

func TestLookupHistory(t *testing.T) {
	response := "registered"
	lookups := &stubLookupRunner{records: []domain.LookupRecord{{
		ID:         "lk-1",
		ReraNumber: "12345",
		Response:   &response,
		Outcome:    domain.LookupOutcomeCompleted,
	}}}
	r := newRouter(nil, lookups)

	rr := doJSON(t, r, http.MethodGet, "/api/v1/rera/history?limit=10", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var resp handlers.LookupHistoryResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Lookups) != 1 || resp.Lookups[0].Outcome != "completed" {
		t.Fatalf("unexpected history payload: %+v", resp)
	}
}

func TestLookupHistoryDisabled(t *testing.T) {
	r := newRouter(nil, &stubLookupRunner{historyErr: usecase.ErrHistoryDisabled})

	rr := doJSON(t, r, http.MethodGet, "/api/v1/rera/history", "")

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rr.Code)
	}
}

func TestLookupHistoryRejectsBadLimit(t *testing.T) {
	r := newRouter(nil, &stubLookupRunner{})

	rr := doJSON(t, r, http.MethodGet, "/api/v1/rera/history?limit=abc", "")

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}
