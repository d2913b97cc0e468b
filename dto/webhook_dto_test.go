package dto

import (
	"testing"

	"github.com/launchdeck-platform/apperrors"
	"github.com/launchdeck-platform/models"
)

func TestParseWebhookEventPush(t *testing.T) {
	raw := []byte(`{
		"ref": "refs/heads/main",
		"repository": {"full_name": "acme/site", "html_url": "https://github.com/acme/site"},
		"head_commit": {"id": "0123456789abcdef", "message": "fix build"},
		"pusher": {"name": "dev"}
	}`)

	ev, err := ParseWebhookEvent(WebhookEventPush, raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Kind != WebhookEventPush || ev.Push == nil {
		t.Fatalf("wrong variant: %+v", ev)
	}
	if ev.Push.Ref != "refs/heads/main" || ev.Push.HeadCommit.ID != "0123456789abcdef" {
		t.Fatalf("payload not decoded: %+v", ev.Push)
	}
}

func TestParseWebhookEventBranchDeleteHasNilHeadCommit(t *testing.T) {
	raw := []byte(`{
		"ref": "refs/heads/feature",
		"deleted": true,
		"repository": {"html_url": "https://github.com/acme/site"},
		"pusher": {"name": "dev"}
	}`)

	ev, err := ParseWebhookEvent(WebhookEventPush, raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ev.Push.Deleted || ev.Push.HeadCommit != nil {
		t.Fatalf("branch delete not detected: %+v", ev.Push)
	}
}

func TestParseWebhookEventRejections(t *testing.T) {
	tests := []struct {
		name string
		kind string
		raw  string
		code string
	}{
		{"malformed json", WebhookEventPush, `{"ref": `, "malformed_payload"},
		{"missing ref", WebhookEventPush, `{"repository":{"html_url":"https://x"}}`, "missing_fields"},
		{"missing repo", WebhookEventPush, `{"ref":"refs/heads/main"}`, "missing_fields"},
		{"pr missing action", WebhookEventPullRequest, `{"repository":{"html_url":"https://x"}}`, "missing_fields"},
		{"unknown kind", "deployment_status", `{}`, "unsupported_event"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseWebhookEvent(tt.kind, []byte(tt.raw))
			if err == nil {
				t.Fatal("expected error")
			}
			if !apperrors.IsKind(err, apperrors.KindValidation) {
				t.Fatalf("wrong kind: %v", err)
			}
			if apperrors.Code(err) != tt.code {
				t.Fatalf("code = %s, want %s", apperrors.Code(err), tt.code)
			}
		})
	}
}

func TestParseWebhookEventPing(t *testing.T) {
	ev, err := ParseWebhookEvent(WebhookEventPing, []byte(`{"zen":"keep it logically awesome"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Kind != WebhookEventPing {
		t.Fatalf("wrong kind: %s", ev.Kind)
	}
}

func TestStepForStatus(t *testing.T) {
	tests := []struct {
		status   string
		label    string
		progress int
	}{
		{"QUEUED", "Queued", 0},
		{"BUILDING", "Building", 30},
		{"DEPLOYING", "Deploying", 70},
		{"READY", "Ready", 100},
		{"ERROR", "Failed", 0},
		{"CANCELLED", "Cancelled", 0},
	}

	for _, tt := range tests {
		step := StepForStatus(models.DeploymentStatus(tt.status))
		if step.Label != tt.label || step.Progress != tt.progress {
			t.Errorf("StepForStatus(%s) = %q/%d, want %q/%d",
				tt.status, step.Label, step.Progress, tt.label, tt.progress)
		}
	}
}
