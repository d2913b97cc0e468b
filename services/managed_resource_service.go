package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/launchdeck-platform/apperrors"
	"github.com/launchdeck-platform/dto"
	"github.com/launchdeck-platform/models"
	"github.com/launchdeck-platform/repositories"
	"github.com/launchdeck-platform/utils"
)

const (
	defaultProbeTimeout  = 2 * time.Minute
	defaultProbeInterval = 3 * time.Second
	metricHistorySize    = 24
)

type resourceStore interface {
	FindByID(id string) (models.ManagedResource, error)
	FindByProjectID(projectID string) ([]models.ManagedResource, error)
	FindByProjectAndName(projectID, name string) (models.ManagedResource, error)
	CountByProjectID(projectID string) (int64, error)
	Create(models.ManagedResource) (models.ManagedResource, error)
	Update(models.ManagedResource) error
	Delete(id string) error
}

type metricStore interface {
	Create(models.ResourceMetric) (models.ResourceMetric, error)
	FindRecent(resourceID string, n int) ([]models.ResourceMetric, error)
}

// substrate abstracts the execution substrate that runs managed
// database instances. The Kubernetes implementation lives in
// substrate_kubernetes.go; tests use a fake.
type substrate interface {
	CreateInstance(ctx context.Context, resource models.ManagedResource) error
	DeleteInstance(ctx context.Context, resource models.ManagedResource) error
	InstanceStats(ctx context.Context, resource models.ManagedResource) (dto.InstanceStats, error)
	InstanceEndpoint(resource models.ManagedResource) (string, int)
}

// ManagedResourceService provisions, monitors and tears down isolated
// database instances for projects.
type ManagedResourceService struct {
	resources resourceStore
	metrics   metricStore
	projects  projectStore
	substrate substrate

	probeTimeout  time.Duration
	probeInterval time.Duration
}

// NewManagedResourceService wires the provisioner against the shared
// database and the Kubernetes substrate.
func NewManagedResourceService() *ManagedResourceService {
	return &ManagedResourceService{
		resources:     repositories.NewManagedResourceRepository(),
		metrics:       repositories.NewResourceMetricRepository(),
		projects:      repositories.NewProjectRepository(),
		substrate:     NewKubernetesSubstrate(),
		probeTimeout:  defaultProbeTimeout,
		probeInterval: defaultProbeInterval,
	}
}

// Provision validates the request, generates credentials and creates the
// backing instance. The quota check runs before anything touches the
// substrate. The returned response is the only place credentials are
// ever exposed.
func (s *ManagedResourceService) Provision(projectID string, req dto.CreateResourceRequest, userID string, isAdmin bool) (dto.CreatedResourceResponse, error) {
	project, err := s.projects.FindByID(projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CreatedResourceResponse{}, apperrors.NotFound("project_not_found", "project not found")
		}
		return dto.CreatedResourceResponse{}, err
	}
	if !isAdmin && project.UserID != userID {
		return dto.CreatedResourceResponse{}, apperrors.NotFound("project_not_found", "project not found")
	}

	engineCfg, ok := utils.GetEngineConfig(req.Engine)
	if !ok {
		return dto.CreatedResourceResponse{}, apperrors.Validation("unsupported_engine",
			fmt.Sprintf("unsupported engine: %s", req.Engine))
	}

	if _, err := s.resources.FindByProjectAndName(projectID, req.Name); err == nil {
		return dto.CreatedResourceResponse{}, apperrors.Conflict("duplicate_name",
			fmt.Sprintf("a resource named %q already exists for this project", req.Name))
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.CreatedResourceResponse{}, err
	}

	plan := req.Plan
	if plan == "" {
		plan = project.Plan
	}
	limits, ok := utils.GetPlanLimits(plan)
	if !ok {
		return dto.CreatedResourceResponse{}, apperrors.Validation("invalid_plan",
			fmt.Sprintf("unknown plan tier: %s", plan))
	}

	count, err := s.resources.CountByProjectID(projectID)
	if err != nil {
		return dto.CreatedResourceResponse{}, err
	}
	if count >= int64(limits.MaxResources) {
		return dto.CreatedResourceResponse{}, apperrors.New(apperrors.KindQuotaExceeded,
			"quota_exceeded", fmt.Sprintf("plan %s allows at most %d resources", plan, limits.MaxResources))
	}

	version := req.Version
	if version == "" {
		version = utils.GetEngineDefaultVersion(req.Engine)
	}

	resource, err := s.resources.Create(models.ManagedResource{
		ProjectID:      projectID,
		Name:           req.Name,
		Engine:         req.Engine,
		Status:         models.ResourceStatusProvisioning,
		Plan:           plan,
		Region:         req.Region,
		Version:        version,
		Username:       engineCfg.DefaultUser,
		Password:       utils.GenerateSecurePassword(32),
		Port:           engineCfg.Port,
		ConnLimit:      limits.ConnLimit,
		StorageLimitMB: limits.StorageLimitMB,
	})
	if err != nil {
		return dto.CreatedResourceResponse{}, err
	}

	go s.provisionAsync(resource)

	return dto.CreatedResourceResponse{
		ResourceResponse: dto.NewResourceResponse(resource),
		Username:         resource.Username,
		Password:         resource.Password,
	}, nil
}

// provisionAsync creates the backing instance and waits for it to answer
// its readiness probe. Failures leave the row in error with enough
// context for a manual retry.
func (s *ManagedResourceService) provisionAsync(resource models.ManagedResource) {
	ctx, cancel := context.WithTimeout(context.Background(), s.probeTimeout+time.Minute)
	defer cancel()

	if err := s.substrate.CreateInstance(ctx, resource); err != nil {
		log.Printf("Error creating instance for resource %s: %v", resource.ID, err)
		s.markResourceError(resource, err)
		return
	}

	if err := s.AwaitReady(ctx, resource, s.probeTimeout); err != nil {
		log.Printf("Resource %s never became ready: %v", resource.ID, err)
		s.markResourceError(resource, err)
		return
	}

	resource.Status = models.ResourceStatusActive
	resource.LastError = ""
	if err := s.resources.Update(resource); err != nil {
		log.Printf("Error activating resource %s: %v", resource.ID, err)
	}
	log.Printf("Managed resource %s (%s) is active", resource.Name, resource.Engine)
}

// AwaitReady polls the engine-native liveness probe on a fixed interval
// until it succeeds or the timeout budget is spent.
func (s *ManagedResourceService) AwaitReady(ctx context.Context, resource models.ManagedResource, timeout time.Duration) error {
	probe := utils.GetReadinessProbe(resource.Engine)
	host, port := s.substrate.InstanceEndpoint(resource)
	target := utils.ProbeTarget{
		Host:     host,
		Port:     port,
		Username: resource.Username,
		Password: resource.Password,
		Database: resource.Name,
	}

	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(s.probeInterval)
	defer ticker.Stop()

	for {
		probeCtx, cancel := context.WithTimeout(ctx, s.probeInterval)
		err := probe(probeCtx, target)
		cancel()
		if err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return apperrors.Wrap(apperrors.KindTimeout, "readiness_timeout",
				fmt.Sprintf("%s instance did not become ready within %s", resource.Engine, timeout), err)
		}
		select {
		case <-ctx.Done():
			return apperrors.Wrap(apperrors.KindTimeout, "readiness_timeout",
				"readiness wait cancelled", ctx.Err())
		case <-ticker.C:
		}
	}
}

// Stats returns a live utilization snapshot plus persisted history.
// A backing instance that is not currently running yields running=false,
// not an error.
func (s *ManagedResourceService) Stats(resourceID, userID string, isAdmin bool) (dto.ResourceStatsResponse, error) {
	resource, err := s.getAuthorized(resourceID, userID, isAdmin)
	if err != nil {
		return dto.ResourceStatsResponse{}, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	live, err := s.substrate.InstanceStats(ctx, resource)
	if err != nil {
		return dto.ResourceStatsResponse{}, apperrors.Wrap(apperrors.KindSubstrate,
			"substrate_error", "failed to read instance stats", err)
	}

	if live.Running {
		if _, err := s.metrics.Create(models.ResourceMetric{
			ResourceID:    resource.ID,
			CPUPercent:    live.CPUPercent,
			MemoryUsedMB:  live.MemoryUsedMB,
			MemoryLimitMB: live.MemoryLimitMB,
			DiskReadMB:    live.DiskReadMB,
			DiskWriteMB:   live.DiskWriteMB,
			SampledAt:     time.Now(),
		}); err != nil {
			log.Printf("Warning: failed to persist metric sample for %s: %v", resource.ID, err)
		}
	}

	history, err := s.metrics.FindRecent(resource.ID, metricHistorySize)
	if err != nil {
		return dto.ResourceStatsResponse{}, err
	}

	return dto.ResourceStatsResponse{Live: live, History: history}, nil
}

// Deprovision removes the backing instance and the resource row.
// An instance that is already gone from the substrate counts as success.
func (s *ManagedResourceService) Deprovision(resourceID, userID string, isAdmin bool) error {
	resource, err := s.getAuthorized(resourceID, userID, isAdmin)
	if err != nil {
		return err
	}

	resource.Status = models.ResourceStatusDeleting
	if err := s.resources.Update(resource); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := s.substrate.DeleteInstance(ctx, resource); err != nil {
		if !apperrors.IsKind(err, apperrors.KindNotFound) {
			resource.Status = models.ResourceStatusError
			resource.LastError = err.Error()
			if updateErr := s.resources.Update(resource); updateErr != nil {
				log.Printf("Error recording teardown failure for %s: %v", resource.ID, updateErr)
			}
			return apperrors.Wrap(apperrors.KindSubstrate, "substrate_error",
				"failed to remove backing instance", err)
		}
		// already absent: idempotent teardown
	}

	return s.resources.Delete(resource.ID)
}

// List returns a project's resources with credentials stripped
func (s *ManagedResourceService) List(projectID, userID string, isAdmin bool) ([]dto.ResourceResponse, error) {
	project, err := s.projects.FindByID(projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("project_not_found", "project not found")
		}
		return nil, err
	}
	if !isAdmin && project.UserID != userID {
		return nil, apperrors.NotFound("project_not_found", "project not found")
	}

	resources, err := s.resources.FindByProjectID(projectID)
	if err != nil {
		return nil, err
	}
	responses := make([]dto.ResourceResponse, 0, len(resources))
	for _, r := range resources {
		responses = append(responses, dto.NewResourceResponse(r))
	}
	return responses, nil
}

// Get returns one resource with credentials stripped
func (s *ManagedResourceService) Get(resourceID, userID string, isAdmin bool) (dto.ResourceResponse, error) {
	resource, err := s.getAuthorized(resourceID, userID, isAdmin)
	if err != nil {
		return dto.ResourceResponse{}, err
	}
	return dto.NewResourceResponse(resource), nil
}

func (s *ManagedResourceService) getAuthorized(resourceID, userID string, isAdmin bool) (models.ManagedResource, error) {
	resource, err := s.resources.FindByID(resourceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ManagedResource{}, apperrors.NotFound("resource_not_found", "resource not found")
		}
		return models.ManagedResource{}, err
	}
	project, err := s.projects.FindByID(resource.ProjectID)
	if err != nil {
		return models.ManagedResource{}, err
	}
	if !isAdmin && project.UserID != userID {
		return models.ManagedResource{}, apperrors.NotFound("resource_not_found", "resource not found")
	}
	return resource, nil
}

func (s *ManagedResourceService) markResourceError(resource models.ManagedResource, cause error) {
	resource.Status = models.ResourceStatusError
	resource.LastError = cause.Error()
	if err := s.resources.Update(resource); err != nil {
		log.Printf("Error recording failure for resource %s: %v", resource.ID, err)
	}
}
