// Package testutil provides common test utilities and helpers for Hireloop tests.
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/hireloop-ai/hireloop/internal/agent"
	"github.com/hireloop-ai/hireloop/internal/api"
	"github.com/hireloop-ai/hireloop/internal/auth"
	"github.com/hireloop-ai/hireloop/internal/cache"
	"github.com/hireloop-ai/hireloop/internal/dashboard"
	"github.com/hireloop-ai/hireloop/internal/interview"
	"github.com/hireloop-ai/hireloop/internal/models"
	"github.com/hireloop-ai/hireloop/internal/store"
)

// ScriptedProvider is an agent.Provider replaying canned responses. Safe for
// concurrent use.
type ScriptedProvider struct {
	mu        sync.Mutex
	created   int
	Responses []string
}

func (p *ScriptedProvider) CreateSession(ctx context.Context, agentID, version string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created++
	return fmt.Sprintf("scripted-session-%d", p.created), nil
}

func (p *ScriptedProvider) StreamMessage(ctx context.Context, sessionID, text string) (agent.Stream, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	resp := "What would you like to talk about?"
	if len(p.Responses) > 0 {
		resp = p.Responses[0]
		p.Responses = p.Responses[1:]
	}
	return &scriptedStream{chunks: []string{resp}}, nil
}

type scriptedStream struct {
	chunks []string
	pos    int
}

func (s *scriptedStream) Next() bool {
	if s.pos >= len(s.chunks) {
		return false
	}
	s.pos++
	return true
}

func (s *scriptedStream) Current() string { return s.chunks[s.pos-1] }
func (s *scriptedStream) Err() error      { return nil }
func (s *scriptedStream) Close() error    { return nil }

// TestDeps exposes the in-memory collaborators behind a test server so tests
// can seed and inspect state directly.
type TestDeps struct {
	Store    *store.InMemoryStore
	Cache    *cache.Client
	Redis    *miniredis.Miniredis
	Auth     *auth.Service
	Provider *ScriptedProvider
}

// NewTestServer creates a test API server with in-memory dependencies.
// This centralizes the test server creation logic used across multiple test files.
func NewTestServer(t *testing.T, opts ...interview.Option) (*api.Server, *TestDeps) {
	t.Helper()
	mr := miniredis.RunT(t)
	kv := cache.NewClientFromRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { kv.Close() })

	st := store.NewInMemoryStore()
	provider := &ScriptedProvider{}
	authSvc, err := auth.NewService(auth.WithSecret("test-secret"))
	if err != nil {
		t.Fatalf("auth.NewService: %v", err)
	}
	ctrl := interview.NewController(st, kv, provider, opts...)
	dash := dashboard.NewService(st, kv)

	return api.NewServer(st, kv, ctrl, dash, authSvc), &TestDeps{
		Store: st, Cache: kv, Redis: mr, Auth: authSvc, Provider: provider,
	}
}

// CreateTestUser stores a user with a known password and returns its id and
// a valid access token.
func CreateTestUser(t *testing.T, deps *TestDeps, role models.Role) (int64, string) {
	t.Helper()
	uid, err := deps.Store.NextID(store.SeqUser)
	if err != nil {
		t.Fatalf("NextID: %v", err)
	}
	hash, err := auth.HashPassword("correct horse battery")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	now := time.Now()
	err = deps.Store.CreateUser(models.User{
		UID: uid, Name: "Test User",
		Email:        fmt.Sprintf("user%d@example.com", uid),
		PasswordHash: hash, Role: role,
		CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	token, err := deps.Auth.IssueAccessToken(uid, role)
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}
	return uid, token
}

// AssertHTTPStatus checks the HTTP status code and fails the test if it doesn't match.
func AssertHTTPStatus(t *testing.T, expected, actual int, context string) {
	t.Helper()
	if actual != expected {
		t.Errorf("%s: expected status %d, got %d", context, expected, actual)
	}
}

// AssertJSONResponse decodes a response envelope and validates its success flag.
func AssertJSONResponse(t *testing.T, rr *httptest.ResponseRecorder, expectSuccess bool) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON response: %v", err)
	}

	if success, ok := response["success"].(bool); ok {
		if success != expectSuccess {
			t.Errorf("expected success=%v, got %v (message: %v)", expectSuccess, success, response["message"])
		}
	} else {
		t.Error("response missing or invalid 'success' field")
	}

	return response
}

// CreateHTTPRequest creates an HTTP request with optional JSON body for testing.
func CreateHTTPRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	t.Helper()
	var reqBody *bytes.Buffer
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		t.Fatalf("failed to create HTTP request: %v", err)
	}
	return req
}

// MustMarshalJSON marshals an object to JSON and fails test on error.
func MustMarshalJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal JSON: %v", err)
	}
	return data
}

// MustUnmarshalJSON unmarshals JSON data into target and fails test on error.
func MustUnmarshalJSON(t *testing.T, data []byte, target interface{}) {
	t.Helper()
	if err := json.Unmarshal(data, target); err != nil {
		t.Fatalf("failed to unmarshal JSON: %v", err)
	}
}
