package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/launchdeck-platform/apperrors"
	"github.com/launchdeck-platform/dto"
	"github.com/launchdeck-platform/lib/eventbus"
	"github.com/launchdeck-platform/models"
	"github.com/launchdeck-platform/utils"
)

// ---- in-memory fakes -------------------------------------------------

type fakeDeploymentStore struct {
	mu   sync.Mutex
	rows map[string]models.Deployment
	seq  int
}

func newFakeDeploymentStore() *fakeDeploymentStore {
	return &fakeDeploymentStore{rows: make(map[string]models.Deployment)}
}

func (f *fakeDeploymentStore) Create(d models.Deployment) (models.Deployment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	d.ID = fmt.Sprintf("dep-%d", f.seq)
	d.CreatedAt = time.Now()
	f.rows[d.ID] = d
	return d, nil
}

func (f *fakeDeploymentStore) FindByID(id string) (models.Deployment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.rows[id]
	if !ok {
		return models.Deployment{}, gorm.ErrRecordNotFound
	}
	return d, nil
}

func (f *fakeDeploymentStore) FindByProjectID(projectID string) ([]models.Deployment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Deployment
	for _, d := range f.rows {
		if d.ProjectID == projectID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDeploymentStore) Update(d models.Deployment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[d.ID] = d
	return nil
}

type fakeProjectStore struct {
	projects map[string]models.Project
}

func (f *fakeProjectStore) FindByID(id string) (models.Project, error) {
	if p, ok := f.projects[id]; ok {
		return p, nil
	}
	return models.Project{}, gorm.ErrRecordNotFound
}

func (f *fakeProjectStore) FindByRepoURL(repoURL string) (models.Project, error) {
	normalized := strings.ToLower(strings.TrimSuffix(repoURL, ".git"))
	for _, p := range f.projects {
		if strings.ToLower(p.RepoURL) == normalized {
			return p, nil
		}
	}
	return models.Project{}, gorm.ErrRecordNotFound
}

type fakeLogStore struct {
	mu   sync.Mutex
	rows []models.LogEntry
}

func (f *fakeLogStore) Create(e models.LogEntry) (models.LogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, e)
	return e, nil
}

func (f *fakeLogStore) FindFromSequence(deploymentID string, from int64) ([]models.LogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.LogEntry
	for _, e := range f.rows {
		if e.DeploymentID == deploymentID && e.Sequence >= from {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeLogStore) NextSequence(deploymentID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var next int64
	for _, e := range f.rows {
		if e.DeploymentID == deploymentID && e.Sequence >= next {
			next = e.Sequence + 1
		}
	}
	return next, nil
}

type fakeAuditStore struct {
	mu   sync.Mutex
	rows []models.AuditEvent
}

func (f *fakeAuditStore) Create(e models.AuditEvent) (models.AuditEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, e)
	return e, nil
}

type fakeNotifier struct {
	mu       sync.Mutex
	statuses []string
}

func (f *fakeNotifier) CommitStatus(ctx context.Context, repoURL, sha, state, targetURL, description string) NotifyResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, state)
	return NotifyResult{}
}

func (f *fakeNotifier) PRComment(ctx context.Context, repoURL string, number int, body string) NotifyResult {
	return NotifyResult{}
}

type fakeDispatcher struct {
	mu   sync.Mutex
	jobs []dto.ExecutorDispatch
	err  error
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, job dto.ExecutorDispatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, job)
	return f.err
}

// ---- harness ---------------------------------------------------------

const testSecret = "webhook-test-secret"

func newTestService(t *testing.T) (*DeploymentService, *fakeDeploymentStore, *fakeLogStore, *fakeDispatcher) {
	t.Helper()
	deployments := newFakeDeploymentStore()
	logs := &fakeLogStore{}
	dispatcher := &fakeDispatcher{}
	svc := &DeploymentService{
		deployments: deployments,
		projects: &fakeProjectStore{projects: map[string]models.Project{
			"proj-1": {
				ID:               "proj-1",
				Name:             "Acme Site",
				Slug:             "acme-site",
				RepoURL:          "https://github.com/acme/site",
				ProductionBranch: "main",
				UserID:           "user-1",
			},
		}},
		logs:          logs,
		audits:        &fakeAuditStore{},
		notifier:      &fakeNotifier{},
		executor:      dispatcher,
		registry:      eventbus.NewRegistry(),
		webhookSecret: testSecret,
		baseDomain:    "launchdeck.app",
		callbackBase:  "http://localhost:8080",
	}
	return svc, deployments, logs, dispatcher
}

func pushPayload(repoURL, ref string) []byte {
	return []byte(fmt.Sprintf(`{
		"ref": %q,
		"repository": {"html_url": %q},
		"head_commit": {"id": "0123456789abcdef0123", "message": "ship it"},
		"pusher": {"name": "dev"}
	}`, ref, repoURL))
}

// ---- webhook ingestion -----------------------------------------------

func TestIngestWebhookRejectsBadSignature(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	body := pushPayload("https://github.com/acme/site", "refs/heads/main")

	_, err := svc.IngestWebhook(body, "sha256=deadbeef", "push")
	if !apperrors.IsKind(err, apperrors.KindAuth) {
		t.Fatalf("expected auth error, got %v", err)
	}
}

func TestIngestWebhookWithoutSecretIsUnavailable(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	svc.webhookSecret = ""

	_, err := svc.IngestWebhook([]byte("{}"), "sha256=x", "push")
	if !apperrors.IsKind(err, apperrors.KindUnavailable) {
		t.Fatalf("expected unavailable error, got %v", err)
	}
}

func TestIngestWebhookUnknownRepositoryIsNoop(t *testing.T) {
	svc, deployments, _, _ := newTestService(t)
	body := pushPayload("https://github.com/elsewhere/repo", "refs/heads/main")

	resp, err := svc.IngestWebhook(body, utils.SignWebhookBody(body, testSecret), "push")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Triggered {
		t.Fatal("unlinked repository must not trigger a deployment")
	}
	if len(deployments.rows) != 0 {
		t.Fatal("deployment row created for unlinked repository")
	}
}

func TestIngestWebhookBranchDeleteIsNoop(t *testing.T) {
	svc, deployments, _, _ := newTestService(t)
	body := []byte(`{
		"ref": "refs/heads/feature",
		"deleted": true,
		"repository": {"html_url": "https://github.com/acme/site"},
		"pusher": {"name": "dev"}
	}`)

	resp, err := svc.IngestWebhook(body, utils.SignWebhookBody(body, testSecret), "push")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Triggered || len(deployments.rows) != 0 {
		t.Fatal("branch deletion must not trigger a deployment")
	}
}

func TestIngestWebhookPushTriggersDeployment(t *testing.T) {
	svc, deployments, logs, dispatcher := newTestService(t)
	body := pushPayload("https://github.com/acme/site", "refs/heads/main")

	resp, err := svc.IngestWebhook(body, utils.SignWebhookBody(body, testSecret), "push")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.Triggered || resp.Deployment == nil {
		t.Fatalf("push did not trigger: %+v", resp)
	}

	dep, err := deployments.FindByID(resp.Deployment.ID)
	if err != nil {
		t.Fatalf("deployment row missing: %v", err)
	}
	if dep.Status != models.DeploymentStatusQueued {
		t.Fatalf("new deployment status = %s, want QUEUED", dep.Status)
	}
	if dep.IsPreview {
		t.Fatal("push to production branch marked as preview")
	}
	if dep.CommitSHA != "0123456" {
		t.Fatalf("commit SHA not shortened: %s", dep.CommitSHA)
	}
	if !strings.HasPrefix(dep.URL, "https://acme-site-") || !strings.HasSuffix(dep.URL, ".launchdeck.app") {
		t.Fatalf("publish URL wrong: %s", dep.URL)
	}

	// The initial log lines are sequenced from zero
	entries, _ := logs.FindFromSequence(dep.ID, 0)
	if len(entries) < 4 {
		t.Fatalf("expected at least 4 initial log lines, got %d", len(entries))
	}
	for i, e := range entries {
		if e.Sequence != int64(i) {
			t.Fatalf("log %d has sequence %d", i, e.Sequence)
		}
	}

	waitFor(t, func() bool {
		dispatcher.mu.Lock()
		defer dispatcher.mu.Unlock()
		return len(dispatcher.jobs) == 1
	})
}

func TestIngestWebhookNonProductionBranchIsPreview(t *testing.T) {
	svc, deployments, _, _ := newTestService(t)
	body := pushPayload("https://github.com/acme/site", "refs/heads/feature-x")

	resp, err := svc.IngestWebhook(body, utils.SignWebhookBody(body, testSecret), "push")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	dep, _ := deployments.FindByID(resp.Deployment.ID)
	if !dep.IsPreview {
		t.Fatal("non-production branch must be a preview deployment")
	}
}

func TestIngestWebhookPullRequestOpened(t *testing.T) {
	svc, deployments, _, _ := newTestService(t)
	body := []byte(`{
		"action": "opened",
		"number": 7,
		"repository": {"html_url": "https://github.com/acme/site"},
		"pull_request": {
			"title": "Add pricing page",
			"head": {"ref": "pricing", "sha": "fedcba9876543210"},
			"user": {"login": "contributor"}
		}
	}`)

	resp, err := svc.IngestWebhook(body, utils.SignWebhookBody(body, testSecret), "pull_request")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.Triggered {
		t.Fatal("opened PR did not trigger a preview")
	}
	dep, _ := deployments.FindByID(resp.Deployment.ID)
	if !dep.IsPreview || dep.PRNumber != 7 || dep.Branch != "pricing" {
		t.Fatalf("preview deployment wrong: %+v", dep)
	}
}

func TestIngestWebhookPing(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	body := []byte(`{"zen":"ok"}`)
	resp, err := svc.IngestWebhook(body, utils.SignWebhookBody(body, testSecret), "ping")
	if err != nil || resp.Triggered {
		t.Fatalf("ping handling wrong: %+v %v", resp, err)
	}
}

// ---- status transitions ----------------------------------------------

func triggerTestDeployment(t *testing.T, svc *DeploymentService) models.Deployment {
	t.Helper()
	project, _ := svc.projects.FindByID("proj-1")
	dep, err := svc.Trigger(project, "main", "0123456789abcdef", "ship it", "dev", false, 0)
	if err != nil {
		t.Fatalf("trigger failed: %v", err)
	}
	return dep
}

func TestApplyStatusWalksLifecycle(t *testing.T) {
	svc, deployments, _, _ := newTestService(t)
	dep := triggerTestDeployment(t, svc)

	for _, status := range []string{"BUILDING", "DEPLOYING"} {
		if _, err := svc.ApplyStatus(dep.ID, status, "", 0); err != nil {
			t.Fatalf("transition to %s failed: %v", status, err)
		}
	}

	final, err := svc.ApplyStatus(dep.ID, "READY", "https://acme-site-x.launchdeck.app", 95)
	if err != nil {
		t.Fatalf("transition to READY failed: %v", err)
	}
	if final.FinishedAt == nil || final.Duration != 95 {
		t.Fatalf("terminal stamp missing: %+v", final)
	}

	stored, _ := deployments.FindByID(dep.ID)
	if stored.Status != models.DeploymentStatusReady {
		t.Fatalf("stored status = %s", stored.Status)
	}

	// The bus is sealed with a complete event
	bus, ok := svc.registry.Get(dep.ID)
	if !ok || !bus.Sealed() {
		t.Fatal("bus not sealed after terminal transition")
	}
}

func TestApplyStatusCancelledStampsCompletion(t *testing.T) {
	svc, deployments, _, _ := newTestService(t)
	dep := triggerTestDeployment(t, svc)

	final, err := svc.ApplyStatus(dep.ID, "CANCELLED", "", 0)
	if err != nil {
		t.Fatalf("transition to CANCELLED failed: %v", err)
	}
	if final.FinishedAt == nil {
		t.Fatal("cancelled deployment missing completion timestamp")
	}

	stored, _ := deployments.FindByID(dep.ID)
	if stored.Status != models.DeploymentStatusCancelled || stored.FinishedAt == nil {
		t.Fatalf("stored row not finalized: %+v", stored)
	}

	bus, ok := svc.registry.Get(dep.ID)
	if !ok || !bus.Sealed() {
		t.Fatal("bus not sealed after cancellation callback")
	}
}

func TestApplyStatusRejectsInvalidStatus(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	dep := triggerTestDeployment(t, svc)

	_, err := svc.ApplyStatus(dep.ID, "SHIPPED", "", 0)
	if !apperrors.IsKind(err, apperrors.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestApplyStatusRejectsBackwardTransition(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	dep := triggerTestDeployment(t, svc)

	if _, err := svc.ApplyStatus(dep.ID, "DEPLOYING", "", 0); err != nil {
		t.Fatalf("setup transition failed: %v", err)
	}
	_, err := svc.ApplyStatus(dep.ID, "BUILDING", "", 0)
	if !apperrors.IsKind(err, apperrors.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestApplyStatusAfterTerminalConflicts(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	dep := triggerTestDeployment(t, svc)

	if _, err := svc.ApplyStatus(dep.ID, "ERROR", "", 0); err != nil {
		t.Fatalf("setup transition failed: %v", err)
	}
	_, err := svc.ApplyStatus(dep.ID, "READY", "", 0)
	if !apperrors.IsKind(err, apperrors.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if apperrors.Code(err) != "already_terminal" {
		t.Fatalf("code = %s", apperrors.Code(err))
	}
}

func TestApplyStatusUnknownDeployment(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	_, err := svc.ApplyStatus("dep-missing", "BUILDING", "", 0)
	if !apperrors.IsKind(err, apperrors.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	dep := triggerTestDeployment(t, svc)

	first, err := svc.Cancel(dep.ID)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if first.Status != models.DeploymentStatusCancelled || first.FinishedAt == nil {
		t.Fatalf("cancel did not finalize: %+v", first)
	}

	bus, _ := svc.registry.Get(dep.ID)
	sealedAt := bus.NextSeq()

	second, err := svc.Cancel(dep.ID)
	if err != nil {
		t.Fatalf("second cancel errored: %v", err)
	}
	if second.Status != models.DeploymentStatusCancelled {
		t.Fatalf("second cancel changed status: %s", second.Status)
	}
	if bus.NextSeq() != sealedAt {
		t.Fatal("second cancel appended events to a sealed bus")
	}
}

func TestDispatchFailureMarksDeploymentFailed(t *testing.T) {
	svc, deployments, _, dispatcher := newTestService(t)
	dispatcher.err = fmt.Errorf("connection refused")

	dep := triggerTestDeployment(t, svc)

	waitFor(t, func() bool {
		d, err := deployments.FindByID(dep.ID)
		return err == nil && d.Status == models.DeploymentStatusError
	})
}

// ---- scoped reads ----------------------------------------------------

func TestGetDeploymentCrossTenantReportsNotFound(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	dep := triggerTestDeployment(t, svc)

	_, err := svc.GetDeployment(dep.ID, "someone-else", false)
	if !apperrors.IsKind(err, apperrors.KindNotFound) {
		t.Fatalf("cross-tenant read must report not found, got %v", err)
	}

	if _, err := svc.GetDeployment(dep.ID, "user-1", false); err != nil {
		t.Fatalf("owner read failed: %v", err)
	}
	if _, err := svc.GetDeployment(dep.ID, "someone-else", true); err != nil {
		t.Fatalf("admin read failed: %v", err)
	}
}

// ---- streaming -------------------------------------------------------

func TestStreamEventsReplaysPersistedForTerminalDeployment(t *testing.T) {
	svc, deployments, _, _ := newTestService(t)
	dep := triggerTestDeployment(t, svc)
	if _, err := svc.ApplyStatus(dep.ID, "READY", "https://live.example", 10); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	// Simulate a restart: the in-memory bus is gone
	svc.registry.Remove(dep.ID)
	stored, _ := deployments.FindByID(dep.ID)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var events []eventbus.Event
	for ev := range svc.StreamEvents(ctx, stored, 0) {
		events = append(events, ev)
	}

	if len(events) < 5 {
		t.Fatalf("expected replayed logs plus complete, got %d events", len(events))
	}
	last := events[len(events)-1]
	if last.Kind != eventbus.EventKindComplete || last.Status != models.DeploymentStatusReady {
		t.Fatalf("stream did not end with complete: %+v", last)
	}
}

func TestBusRecreatedAfterRestartContinuesSequencing(t *testing.T) {
	svc, deployments, logs, _ := newTestService(t)
	dep := triggerTestDeployment(t, svc)
	if _, err := svc.ApplyStatus(dep.ID, "BUILDING", "", 0); err != nil {
		t.Fatalf("setup transition failed: %v", err)
	}

	// Status events persist a marker row, so the stored sequences cover
	// every number the old bus issued.
	svc.registry.Remove(dep.ID)
	stored, _ := deployments.FindByID(dep.ID)

	bus := svc.busFor(stored)
	if got := bus.NextSeq(); got != 5 {
		t.Fatalf("recreated bus starts at %d, want 5 (4 logs + 1 status marker)", got)
	}

	svc.appendLog(bus, dep.ID, models.LogLevelInfo, "resumed after restart")

	entries, _ := logs.FindFromSequence(dep.ID, 0)
	seen := make(map[int64]bool)
	for _, e := range entries {
		if seen[e.Sequence] {
			t.Fatalf("sequence %d issued twice", e.Sequence)
		}
		seen[e.Sequence] = true
	}
	if !seen[5] {
		t.Fatal("post-restart log line did not continue the sequence")
	}
}

func TestStreamEventsResumesFromCursor(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	dep := triggerTestDeployment(t, svc)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	ch := svc.StreamEvents(ctx, dep, 2)
	first := <-ch
	if first.Seq != 2 {
		t.Fatalf("resume delivered seq %d, want 2", first.Seq)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition never satisfied")
}
