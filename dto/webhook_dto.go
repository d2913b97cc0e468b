package dto

import (
	"encoding/json"
	"fmt"

	"github.com/launchdeck-platform/apperrors"
)

// Webhook event kinds taken from the event-kind request header
const (
	WebhookEventPush        = "push"
	WebhookEventPullRequest = "pull_request"
	WebhookEventPing        = "ping"
)

// WebhookRepository identifies the repository an event belongs to
type WebhookRepository struct {
	FullName string `json:"full_name"`
	HTMLURL  string `json:"html_url"`
	CloneURL string `json:"clone_url"`
}

// WebhookCommit is the head commit of a push event
type WebhookCommit struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// WebhookPusher is the actor that pushed
type WebhookPusher struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// PushEvent is a decoded push payload. A nil HeadCommit means the push
// removed the branch.
type PushEvent struct {
	Ref        string            `json:"ref"`
	Repository WebhookRepository `json:"repository"`
	HeadCommit *WebhookCommit    `json:"head_commit"`
	Pusher     WebhookPusher     `json:"pusher"`
	Deleted    bool              `json:"deleted"`
}

// PullRequestEvent is a decoded pull_request payload
type PullRequestEvent struct {
	Action      string            `json:"action"`
	Number      int               `json:"number"`
	Repository  WebhookRepository `json:"repository"`
	PullRequest struct {
		Title string `json:"title"`
		Head  struct {
			Ref string `json:"ref"`
			SHA string `json:"sha"`
		} `json:"head"`
		User struct {
			Login string `json:"login"`
		} `json:"user"`
	} `json:"pull_request"`
}

// WebhookEvent is the tagged union of payload variants the ingest path
// understands. Exactly one variant is non-nil, selected by Kind.
type WebhookEvent struct {
	Kind        string
	Push        *PushEvent
	PullRequest *PullRequestEvent
}

// ParseWebhookEvent decodes a raw payload defensively. Malformed JSON or
// a payload missing its required fields yields a typed rejection instead
// of a runtime field-access failure.
func ParseWebhookEvent(kind string, raw []byte) (WebhookEvent, error) {
	switch kind {
	case WebhookEventPing:
		return WebhookEvent{Kind: WebhookEventPing}, nil
	case WebhookEventPush:
		var ev PushEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return WebhookEvent{}, apperrors.Wrap(apperrors.KindValidation,
				"malformed_payload", "invalid push payload", err)
		}
		if ev.Ref == "" || ev.Repository.HTMLURL == "" {
			return WebhookEvent{}, apperrors.Validation("missing_fields",
				"push payload missing ref or repository")
		}
		return WebhookEvent{Kind: WebhookEventPush, Push: &ev}, nil
	case WebhookEventPullRequest:
		var ev PullRequestEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return WebhookEvent{}, apperrors.Wrap(apperrors.KindValidation,
				"malformed_payload", "invalid pull_request payload", err)
		}
		if ev.Action == "" || ev.Repository.HTMLURL == "" {
			return WebhookEvent{}, apperrors.Validation("missing_fields",
				"pull_request payload missing action or repository")
		}
		return WebhookEvent{Kind: WebhookEventPullRequest, PullRequest: &ev}, nil
	default:
		return WebhookEvent{}, apperrors.Validation("unsupported_event",
			fmt.Sprintf("unsupported event kind: %s", kind))
	}
}

// WebhookResponse is the uniform ingest response body
type WebhookResponse struct {
	Message    string             `json:"message"`
	Triggered  bool               `json:"triggered"`
	Deployment *DeploymentSummary `json:"deployment,omitempty"`
}
