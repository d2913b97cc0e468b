package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/launchdeck-platform/apperrors"
	"github.com/launchdeck-platform/config"
	"github.com/launchdeck-platform/dto"
	"github.com/launchdeck-platform/lib/eventbus"
	"github.com/launchdeck-platform/models"
	"github.com/launchdeck-platform/repositories"
	"github.com/launchdeck-platform/utils"
)

const commitMessageMaxLen = 100

// deploymentStore is the persistence surface the state machine needs
type deploymentStore interface {
	Create(models.Deployment) (models.Deployment, error)
	FindByID(id string) (models.Deployment, error)
	FindByProjectID(projectID string) ([]models.Deployment, error)
	Update(models.Deployment) error
}

type projectStore interface {
	FindByID(id string) (models.Project, error)
	FindByRepoURL(repoURL string) (models.Project, error)
}

type logStore interface {
	Create(models.LogEntry) (models.LogEntry, error)
	FindFromSequence(deploymentID string, from int64) ([]models.LogEntry, error)
	NextSequence(deploymentID string) (int64, error)
}

type auditStore interface {
	Create(models.AuditEvent) (models.AuditEvent, error)
}

// hostNotifier pushes best-effort notifications to the code-hosting service.
// Callers are allowed to ignore the result; failures never fail a transition.
type hostNotifier interface {
	CommitStatus(ctx context.Context, repoURL, sha, state, targetURL, description string) NotifyResult
	PRComment(ctx context.Context, repoURL string, number int, body string) NotifyResult
}

// buildDispatcher hands a deployment off to the external build executor
type buildDispatcher interface {
	Dispatch(ctx context.Context, job dto.ExecutorDispatch) error
}

// DeploymentService owns the deployment lifecycle: it ingests webhook
// events, drives status transitions, writes the event bus and keeps the
// code-hosting service's commit status in sync.
type DeploymentService struct {
	deployments deploymentStore
	projects    projectStore
	logs        logStore
	audits      auditStore
	notifier    hostNotifier
	executor    buildDispatcher
	registry    *eventbus.Registry

	webhookSecret string
	baseDomain    string
	callbackBase  string
}

// NewDeploymentService wires the state machine against the shared database
// and the given event bus registry.
func NewDeploymentService(registry *eventbus.Registry) *DeploymentService {
	return &DeploymentService{
		deployments:   repositories.NewDeploymentRepository(),
		projects:      repositories.NewProjectRepository(),
		logs:          repositories.NewLogEntryRepository(),
		audits:        repositories.NewAuditRepository(),
		notifier:      NewGitHubService(),
		executor:      NewHTTPBuildExecutor(),
		registry:      registry,
		webhookSecret: config.GetEnv("WEBHOOK_SECRET", ""),
		baseDomain:    config.GetEnv("BASE_DOMAIN", "launchdeck.app"),
		callbackBase:  config.GetEnv("PUBLIC_API_URL", "http://localhost:8080"),
	}
}

// IngestWebhook verifies, parses and routes one inbound webhook event.
// Every failure branch returns a structured result; nothing here panics
// on untrusted input.
func (s *DeploymentService) IngestWebhook(raw []byte, signature, eventKind string) (dto.WebhookResponse, error) {
	if s.webhookSecret == "" {
		return dto.WebhookResponse{}, apperrors.New(apperrors.KindUnavailable,
			"webhook_secret_missing", "webhook signing secret is not configured")
	}
	if !utils.VerifyWebhookSignature(raw, s.webhookSecret, signature) {
		return dto.WebhookResponse{}, apperrors.New(apperrors.KindAuth,
			"invalid_signature", "missing or invalid webhook signature")
	}

	event, err := dto.ParseWebhookEvent(eventKind, raw)
	if err != nil {
		return dto.WebhookResponse{}, err
	}

	switch event.Kind {
	case dto.WebhookEventPing:
		return dto.WebhookResponse{Message: "pong", Triggered: false}, nil
	case dto.WebhookEventPush:
		return s.handlePush(event.Push)
	case dto.WebhookEventPullRequest:
		return s.handlePullRequest(event.PullRequest)
	}
	return dto.WebhookResponse{Message: "ignored", Triggered: false}, nil
}

func (s *DeploymentService) handlePush(ev *dto.PushEvent) (dto.WebhookResponse, error) {
	// A push that removes its branch has no head commit and is a no-op
	if ev.Deleted || ev.HeadCommit == nil {
		return dto.WebhookResponse{Message: "branch deleted, nothing to deploy", Triggered: false}, nil
	}

	project, err := s.projects.FindByRepoURL(ev.Repository.HTMLURL)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Many pushes target repositories with no linked project;
			// this is an accepted no-op, not an error.
			return dto.WebhookResponse{Message: "no project linked to repository", Triggered: false}, nil
		}
		return dto.WebhookResponse{}, err
	}

	branch := strings.TrimPrefix(ev.Ref, "refs/heads/")
	isPreview := branch != project.ProductionBranch

	deployment, err := s.Trigger(project, branch, ev.HeadCommit.ID,
		ev.HeadCommit.Message, ev.Pusher.Name, isPreview, 0)
	if err != nil {
		return dto.WebhookResponse{}, err
	}

	summary := dto.NewDeploymentSummary(deployment)
	return dto.WebhookResponse{
		Message:    "deployment triggered",
		Triggered:  true,
		Deployment: &summary,
	}, nil
}

func (s *DeploymentService) handlePullRequest(ev *dto.PullRequestEvent) (dto.WebhookResponse, error) {
	project, err := s.projects.FindByRepoURL(ev.Repository.HTMLURL)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.WebhookResponse{Message: "no project linked to repository", Triggered: false}, nil
		}
		return dto.WebhookResponse{}, err
	}

	switch ev.Action {
	case "opened", "synchronize", "reopened":
		deployment, err := s.Trigger(project, ev.PullRequest.Head.Ref, ev.PullRequest.Head.SHA,
			ev.PullRequest.Title, ev.PullRequest.User.Login, true, ev.Number)
		if err != nil {
			return dto.WebhookResponse{}, err
		}
		summary := dto.NewDeploymentSummary(deployment)
		return dto.WebhookResponse{
			Message:    "preview deployment triggered",
			Triggered:  true,
			Deployment: &summary,
		}, nil
	case "closed":
		s.HandlePRClosed(project, ev.Number)
		return dto.WebhookResponse{Message: "pull request closed, recorded", Triggered: false}, nil
	default:
		return dto.WebhookResponse{Message: "pull request action ignored", Triggered: false}, nil
	}
}

// Trigger creates a deployment in QUEUED, publishes the initial log lines,
// notifies the code-hosting service and hands off to the build executor
// asynchronously. It returns as soon as the record exists.
func (s *DeploymentService) Trigger(project models.Project, branch, commitSHA, commitMessage, author string, isPreview bool, prNumber int) (models.Deployment, error) {
	deployment, err := s.deployments.Create(models.Deployment{
		ProjectID:     project.ID,
		Status:        models.DeploymentStatusQueued,
		Branch:        branch,
		CommitSHA:     shortSHA(commitSHA),
		CommitMessage: truncateMessage(commitMessage),
		Author:        author,
		IsPreview:     isPreview,
		PRNumber:      prNumber,
	})
	if err != nil {
		log.Println("Error creating deployment:", err)
		return models.Deployment{}, err
	}

	bus := s.registry.GetOrCreate(deployment.ID, 0)

	reason := fmt.Sprintf("Deployment triggered by push to %s", branch)
	if isPreview && prNumber > 0 {
		reason = fmt.Sprintf("Preview deployment for pull request #%d", prNumber)
	} else if isPreview {
		reason = fmt.Sprintf("Preview deployment triggered by push to %s", branch)
	}
	s.appendLog(bus, deployment.ID, models.LogLevelInfo, reason)
	s.appendLog(bus, deployment.ID, models.LogLevelInfo, fmt.Sprintf("Branch: %s", branch))
	s.appendLog(bus, deployment.ID, models.LogLevelInfo, fmt.Sprintf("Commit: %s %s", deployment.CommitSHA, deployment.CommitMessage))
	s.appendLog(bus, deployment.ID, models.LogLevelInfo, fmt.Sprintf("Author: %s", author))

	// The publish URL is deterministic from the project slug and deployment id
	deployment.URL = fmt.Sprintf("https://%s-%s.%s", project.Slug, shortID(deployment.ID), s.baseDomain)
	if err := s.deployments.Update(deployment); err != nil {
		log.Println("Error saving deployment URL:", err)
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if result := s.notifier.CommitStatus(ctx, project.RepoURL, commitSHA, "pending",
			deployment.URL, "Build queued"); result.Err != nil {
			log.Printf("Warning: commit status notification failed: %v", result.Err)
		}
		if isPreview && prNumber > 0 {
			body := fmt.Sprintf("🔨 Building preview deployment for `%s`: %s", deployment.CommitSHA, deployment.URL)
			if result := s.notifier.PRComment(ctx, project.RepoURL, prNumber, body); result.Err != nil {
				log.Printf("Warning: PR comment failed: %v", result.Err)
			}
		}
	}()

	go s.dispatchBuild(deployment, project)

	return deployment, nil
}

// dispatchBuild hands the deployment to the external build executor.
// A dispatch failure is a deployment failure, not a crash.
func (s *DeploymentService) dispatchBuild(deployment models.Deployment, project models.Project) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := s.executor.Dispatch(ctx, dto.ExecutorDispatch{
		DeploymentID: deployment.ID,
		ProjectID:    project.ID,
		RepoURL:      project.RepoURL,
		Branch:       deployment.Branch,
		CommitSHA:    deployment.CommitSHA,
		CallbackURL:  fmt.Sprintf("%s/api/v1/deployments/%s/status", s.callbackBase, deployment.ID),
	})
	if err != nil {
		log.Printf("Error dispatching build for deployment %s: %v", deployment.ID, err)
		if bus, ok := s.registry.Get(deployment.ID); ok {
			s.appendLog(bus, deployment.ID, models.LogLevelError,
				fmt.Sprintf("Failed to start build: %v", err))
		}
		if _, err := s.ApplyStatus(deployment.ID, string(models.DeploymentStatusError), "", 0); err != nil {
			log.Printf("Error marking deployment %s failed: %v", deployment.ID, err)
		}
	}
}

// ApplyStatus handles the build executor's status callbacks. Transitions
// out of a terminal state are rejected and terminal transitions stamp the
// completion timestamp, seal the event bus and update the commit status.
func (s *DeploymentService) ApplyStatus(deploymentID, newStatus, publishURL string, duration int) (models.Deployment, error) {
	status := models.DeploymentStatus(newStatus)
	if !models.IsValidDeploymentStatus(status) {
		return models.Deployment{}, apperrors.Validation("invalid_status",
			fmt.Sprintf("unknown deployment status: %s", newStatus))
	}

	deployment, err := s.deployments.FindByID(deploymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Deployment{}, apperrors.NotFound("deployment_not_found", "deployment not found")
		}
		return models.Deployment{}, err
	}

	if deployment.Status.IsTerminal() {
		return models.Deployment{}, apperrors.Conflict("already_terminal",
			fmt.Sprintf("deployment is already %s", deployment.Status))
	}
	if !deployment.Status.CanTransitionTo(status) {
		return models.Deployment{}, apperrors.Conflict("invalid_transition",
			fmt.Sprintf("cannot move from %s to %s", deployment.Status, status))
	}

	deployment.Status = status
	if publishURL != "" {
		deployment.URL = publishURL
	}
	// Every terminal status gets the completion stamp, including a
	// CANCELLED reported through the callback.
	if status.IsTerminal() {
		now := time.Now()
		deployment.FinishedAt = &now
		deployment.Duration = duration
	}
	if err := s.deployments.Update(deployment); err != nil {
		return models.Deployment{}, err
	}

	bus := s.busFor(deployment)
	s.appendStatus(bus, deployment.ID, status)
	if status.IsTerminal() {
		bus.Seal(status, deployment.URL, deployment.Duration)
	}

	go s.notifyCommitStatus(deployment)

	return deployment, nil
}

// Cancel marks a running deployment cancelled. Cancelling an already
// terminal deployment is an idempotent no-op, the second call appends
// nothing.
func (s *DeploymentService) Cancel(deploymentID string) (models.Deployment, error) {
	deployment, err := s.deployments.FindByID(deploymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Deployment{}, apperrors.NotFound("deployment_not_found", "deployment not found")
		}
		return models.Deployment{}, err
	}

	if deployment.Status.IsTerminal() {
		return deployment, nil
	}

	now := time.Now()
	deployment.Status = models.DeploymentStatusCancelled
	deployment.FinishedAt = &now
	if err := s.deployments.Update(deployment); err != nil {
		return models.Deployment{}, err
	}

	bus := s.busFor(deployment)
	s.appendLog(bus, deployment.ID, models.LogLevelWarn, "Deployment cancelled")
	s.appendStatus(bus, deployment.ID, models.DeploymentStatusCancelled)
	bus.Seal(models.DeploymentStatusCancelled, deployment.URL, deployment.Duration)

	go s.notifyCommitStatus(deployment)

	return deployment, nil
}

// HandlePRClosed records an audit trail entry. In-flight preview
// deployments for the pull request keep running; the executor owns its
// own cancellation contract.
func (s *DeploymentService) HandlePRClosed(project models.Project, prNumber int) {
	if _, err := s.audits.Create(models.AuditEvent{
		ProjectID: project.ID,
		Action:    "pull_request_closed",
		Detail:    fmt.Sprintf("pull request #%d closed", prNumber),
	}); err != nil {
		log.Printf("Warning: failed to record PR close audit event: %v", err)
	}
}

// GetDeployment returns one deployment scoped to the requesting user.
// Cross-tenant lookups report not-found rather than forbidden so that
// resource existence never leaks.
func (s *DeploymentService) GetDeployment(deploymentID, userID string, isAdmin bool) (models.Deployment, error) {
	deployment, err := s.deployments.FindByID(deploymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Deployment{}, apperrors.NotFound("deployment_not_found", "deployment not found")
		}
		return models.Deployment{}, err
	}
	if err := s.authorizeProjectAccess(deployment.ProjectID, userID, isAdmin); err != nil {
		return models.Deployment{}, err
	}
	return deployment, nil
}

// ListProjectDeployments lists a project's deployments newest first
func (s *DeploymentService) ListProjectDeployments(projectID, userID string, isAdmin bool) ([]models.Deployment, error) {
	if err := s.authorizeProjectAccess(projectID, userID, isAdmin); err != nil {
		return nil, err
	}
	return s.deployments.FindByProjectID(projectID)
}

func (s *DeploymentService) authorizeProjectAccess(projectID, userID string, isAdmin bool) error {
	project, err := s.projects.FindByID(projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("project_not_found", "project not found")
		}
		return err
	}
	if !isAdmin && project.UserID != userID {
		return apperrors.NotFound("deployment_not_found", "deployment not found")
	}
	return nil
}

// StreamEvents returns the sequenced event channel a live stream
// connection drains. Events before from are replayed from the in-memory
// bus, or from persisted logs when the bus is gone (process restart or
// long-finished deployment). The channel closes after the complete event.
func (s *DeploymentService) StreamEvents(ctx context.Context, deployment models.Deployment, from int64) <-chan eventbus.Event {
	if bus, ok := s.registry.Get(deployment.ID); ok {
		return bus.Attach(ctx, from)
	}

	if deployment.Status.IsTerminal() {
		return s.replayPersisted(ctx, deployment, from)
	}

	// Bus lost to a restart mid-deployment: replay what was persisted,
	// then follow the recreated bus for everything after it.
	bus := s.busFor(deployment)
	persisted := s.replayPersisted(ctx, deployment, from)
	live := bus.Attach(ctx, bus.NextSeq())
	out := make(chan eventbus.Event, 16)
	go func() {
		defer close(out)
		for ev := range persisted {
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
		for ev := range live {
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// replayPersisted streams stored log entries from the given sequence and,
// for terminal deployments, appends the final complete event.
func (s *DeploymentService) replayPersisted(ctx context.Context, deployment models.Deployment, from int64) <-chan eventbus.Event {
	ch := make(chan eventbus.Event, 16)
	go func() {
		defer close(ch)
		entries, err := s.logs.FindFromSequence(deployment.ID, from)
		if err != nil {
			log.Printf("Error loading persisted logs for %s: %v", deployment.ID, err)
			return
		}
		for _, entry := range entries {
			select {
			case ch <- eventbus.Event{
				Seq:       entry.Sequence,
				Kind:      eventbus.EventKindLog,
				Level:     entry.Level,
				Message:   entry.Message,
				Timestamp: entry.Timestamp,
			}:
			case <-ctx.Done():
				return
			}
		}
		if deployment.Status.IsTerminal() {
			next, _ := s.logs.NextSequence(deployment.ID)
			select {
			case ch <- eventbus.Event{
				Seq:       next,
				Kind:      eventbus.EventKindComplete,
				Status:    deployment.Status,
				URL:       deployment.URL,
				Duration:  deployment.Duration,
				Timestamp: time.Now(),
			}:
			case <-ctx.Done():
			}
		}
	}()
	return ch
}

// busFor returns the deployment's bus, recreating it after a process
// restart with the sequence picked up from persisted logs.
func (s *DeploymentService) busFor(deployment models.Deployment) *eventbus.Bus {
	if bus, ok := s.registry.Get(deployment.ID); ok {
		return bus
	}
	next, err := s.logs.NextSequence(deployment.ID)
	if err != nil {
		log.Printf("Warning: could not restore log cursor for %s: %v", deployment.ID, err)
		next = 0
	}
	return s.registry.GetOrCreate(deployment.ID, next)
}

// appendLog publishes a log line on the bus and persists it with the
// sequence the bus assigned.
func (s *DeploymentService) appendLog(bus *eventbus.Bus, deploymentID string, level models.LogLevel, message string) {
	seq := bus.Append(eventbus.Event{
		Kind:    eventbus.EventKindLog,
		Level:   level,
		Message: message,
	})
	if seq < 0 {
		return
	}
	if _, err := s.logs.Create(models.LogEntry{
		DeploymentID: deploymentID,
		Sequence:     seq,
		Level:        level,
		Message:      message,
		Timestamp:    time.Now(),
	}); err != nil {
		log.Printf("Error persisting log entry for %s: %v", deploymentID, err)
	}
}

// appendStatus publishes a status event and persists a matching log
// line under the sequence the bus issued. Persisting the marker keeps
// the stored sequences dense, so a bus recreated after a restart never
// reissues a sequence a client may have already seen.
func (s *DeploymentService) appendStatus(bus *eventbus.Bus, deploymentID string, status models.DeploymentStatus) {
	seq := bus.Append(eventbus.Event{Kind: eventbus.EventKindStatus, Status: status})
	if seq < 0 {
		return
	}
	if _, err := s.logs.Create(models.LogEntry{
		DeploymentID: deploymentID,
		Sequence:     seq,
		Level:        models.LogLevelInfo,
		Message:      fmt.Sprintf("Status changed to %s", status),
		Timestamp:    time.Now(),
	}); err != nil {
		log.Printf("Error persisting status marker for %s: %v", deploymentID, err)
	}
}

// notifyCommitStatus mirrors a deployment status onto the code-hosting
// service's commit-status API. Best effort: failures are logged only.
func (s *DeploymentService) notifyCommitStatus(deployment models.Deployment) {
	project, err := s.projects.FindByID(deployment.ProjectID)
	if err != nil {
		log.Printf("Warning: cannot resolve project for commit status: %v", err)
		return
	}

	state := "pending"
	description := "Deployment in progress"
	switch deployment.Status {
	case models.DeploymentStatusReady:
		state = "success"
		description = "Deployment ready"
	case models.DeploymentStatusError:
		state = "failure"
		description = "Deployment failed"
	case models.DeploymentStatusCancelled:
		state = "error"
		description = "Deployment cancelled"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if result := s.notifier.CommitStatus(ctx, project.RepoURL, deployment.CommitSHA,
		state, deployment.URL, description); result.Err != nil {
		log.Printf("Warning: commit status notification failed: %v", result.Err)
	}
}

func truncateMessage(message string) string {
	message = strings.SplitN(message, "\n", 2)[0]
	runes := []rune(message)
	if len(runes) > commitMessageMaxLen {
		return string(runes[:commitMessageMaxLen])
	}
	return message
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}

func shortID(id string) string {
	cleaned := strings.ReplaceAll(id, "-", "")
	if len(cleaned) > 8 {
		return cleaned[:8]
	}
	return cleaned
}
