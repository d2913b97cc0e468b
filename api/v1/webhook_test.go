package v1

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/launchdeck-platform/apperrors"
	"github.com/launchdeck-platform/dto"
)

type fakeIngestor struct {
	resp    dto.WebhookResponse
	err     error
	gotSig  string
	gotKind string
	gotBody []byte
}

func (f *fakeIngestor) IngestWebhook(raw []byte, signature, eventKind string) (dto.WebhookResponse, error) {
	f.gotBody = raw
	f.gotSig = signature
	f.gotKind = eventKind
	return f.resp, f.err
}

func newWebhookRouter(ingestor *fakeIngestor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewWebhookController(ingestor).RegisterRoutes(router.Group("/api/v1"))
	return router
}

func TestHandleGitHubWebhookReturnsFlatBody(t *testing.T) {
	summary := dto.DeploymentSummary{ID: "dep-1"}
	ingestor := &fakeIngestor{resp: dto.WebhookResponse{
		Message:    "deployment triggered",
		Triggered:  true,
		Deployment: &summary,
	}}
	router := newWebhookRouter(ingestor)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/github",
		strings.NewReader(`{"ref":"refs/heads/main"}`))
	req.Header.Set("X-Hub-Signature-256", "sha256=abc")
	req.Header.Set("X-GitHub-Event", "push")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body map[string]json.RawMessage
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	// Flat contract: message/triggered/deployment at the top level
	if _, ok := body["message"]; !ok {
		t.Fatalf("message missing from top level: %s", w.Body.String())
	}
	if string(body["triggered"]) != "true" {
		t.Fatalf("triggered = %s, want true", body["triggered"])
	}
	if _, ok := body["deployment"]; !ok {
		t.Fatalf("deployment missing from top level: %s", w.Body.String())
	}
	if _, wrapped := body["data"]; wrapped {
		t.Fatalf("response wrapped in an envelope: %s", w.Body.String())
	}

	if ingestor.gotSig != "sha256=abc" || ingestor.gotKind != "push" {
		t.Fatalf("headers not forwarded: sig=%q kind=%q", ingestor.gotSig, ingestor.gotKind)
	}
	if string(ingestor.gotBody) != `{"ref":"refs/heads/main"}` {
		t.Fatalf("raw body not forwarded verbatim: %s", ingestor.gotBody)
	}
}

func TestHandleGitHubWebhookBadSignature(t *testing.T) {
	ingestor := &fakeIngestor{err: apperrors.New(apperrors.KindAuth,
		"invalid_signature", "missing or invalid webhook signature")}
	router := newWebhookRouter(ingestor)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/github", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("error response is not JSON: %v", err)
	}
	if body["code"] != "invalid_signature" {
		t.Fatalf("code = %q", body["code"])
	}
}
