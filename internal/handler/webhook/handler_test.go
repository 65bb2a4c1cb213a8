package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/parla/backend/internal/service/relay"
)

type stubProcessor struct {
	result relay.Result
	got    []byte
}

func (s *stubProcessor) Process(_ context.Context, raw []byte) relay.Result {
	s.got = raw
	return s.result
}

func setupRouter(token string, proc Processor) *chi.Mux {
	r := chi.NewRouter()
	New(token, proc).RegisterRoutes(r)
	return r
}

func TestVerifyAcceptsMatchingToken(t *testing.T) {
	r := setupRouter("secret", &stubProcessor{})

	req := httptest.NewRequest(http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=secret&hub.challenge=12345", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if resp.Body.String() != "12345" {
		t.Fatalf("expected challenge echo, got %q", resp.Body.String())
	}
}

func TestVerifyRejects(t *testing.T) {
	cases := []struct {
		name  string
		token string
		query string
	}{
		{name: "wrong token", token: "secret", query: "hub.mode=subscribe&hub.verify_token=nope&hub.challenge=1"},
		{name: "wrong mode", token: "secret", query: "hub.mode=unsubscribe&hub.verify_token=secret&hub.challenge=1"},
		{name: "unconfigured token", token: "", query: "hub.mode=subscribe&hub.verify_token=&hub.challenge=1"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := setupRouter(tc.token, &stubProcessor{})
			req := httptest.NewRequest(http.MethodGet, "/webhook?"+tc.query, nil)
			resp := httptest.NewRecorder()
			r.ServeHTTP(resp, req)

			if resp.Code != http.StatusForbidden {
				t.Fatalf("expected 403, got %d", resp.Code)
			}
			if resp.Body.String() != "error: invalid token" {
				t.Fatalf("unexpected body %q", resp.Body.String())
			}
		})
	}
}

func TestDeliveryAlwaysReturns200(t *testing.T) {
	statuses := []relay.Status{relay.StatusOK, relay.StatusNoMessages, relay.StatusTranscriptionFailed, relay.StatusError}

	for _, status := range statuses {
		proc := &stubProcessor{result: relay.Result{Status: status, Sender: "123"}}
		r := setupRouter("secret", proc)

		payload := `{"entry":[]}`
		req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)

		if resp.Code != http.StatusOK {
			t.Fatalf("status %s: expected 200, got %d", status, resp.Code)
		}
		var body map[string]string
		if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["status"] != string(status) {
			t.Fatalf("expected status %s, got %v", status, body)
		}
		if _, leaked := body["Sender"]; leaked {
			t.Fatal("sender must not be exposed")
		}
		if string(proc.got) != payload {
			t.Fatalf("processor got %q", proc.got)
		}
	}
}

func TestDeliveryOversizedBody(t *testing.T) {
	proc := &stubProcessor{result: relay.Result{Status: relay.StatusOK}}
	r := setupRouter("secret", proc)

	payload := strings.Repeat("x", maxBodyBytes+1)
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(payload))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if strings.TrimSpace(resp.Body.String()) != `{"status":"error"}` {
		t.Fatalf("unexpected body %q", resp.Body.String())
	}
	if proc.got != nil {
		t.Fatal("processor must not run when the body cannot be read")
	}
}
