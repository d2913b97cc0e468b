package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/launchdeck-platform/apperrors"
	"github.com/launchdeck-platform/lib/kubernetes"
	"github.com/launchdeck-platform/models"
	"github.com/launchdeck-platform/repositories"
	"github.com/launchdeck-platform/utils"
)

var slugPattern = regexp.MustCompile(`[^a-z0-9-]+`)

// ProjectService handles project business logic
type ProjectService struct {
	projects *repositories.ProjectRepository
}

// NewProjectService creates a new project service
func NewProjectService() *ProjectService {
	return &ProjectService{projects: repositories.NewProjectRepository()}
}

// Create links a repository as a new project. The slug must be unique
// because it forms the deployment hostname.
func (s *ProjectService) Create(name, slug, repoURL, productionBranch string, plan models.PlanTier, userID string) (models.Project, error) {
	if slug == "" {
		slug = Slugify(name)
	}
	if slug == "" {
		return models.Project{}, apperrors.Validation("invalid_slug", "project name yields an empty slug")
	}

	if _, err := s.projects.FindBySlug(slug); err == nil {
		return models.Project{}, apperrors.Conflict("duplicate_slug",
			fmt.Sprintf("a project with slug %q already exists", slug))
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Project{}, err
	}

	if _, err := s.projects.FindByRepoURL(repoURL); err == nil {
		return models.Project{}, apperrors.Conflict("duplicate_repo",
			"this repository is already linked to a project")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Project{}, err
	}

	if productionBranch == "" {
		productionBranch = "main"
	}
	if plan == "" {
		plan = models.PlanFree
	}
	if _, ok := utils.GetPlanLimits(plan); !ok {
		return models.Project{}, apperrors.Validation("invalid_plan",
			fmt.Sprintf("unknown plan tier: %s", plan))
	}

	return s.projects.Create(models.Project{
		Name:             name,
		Slug:             slug,
		RepoURL:          repoURL,
		ProductionBranch: productionBranch,
		Plan:             plan,
		UserID:           userID,
	})
}

// Get returns one project scoped to the requesting user
func (s *ProjectService) Get(projectID, userID string, isAdmin bool) (models.Project, error) {
	project, err := s.projects.FindByID(projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Project{}, apperrors.NotFound("project_not_found", "project not found")
		}
		return models.Project{}, err
	}
	if !isAdmin && project.UserID != userID {
		return models.Project{}, apperrors.NotFound("project_not_found", "project not found")
	}
	return project, nil
}

// List returns the requesting user's projects; admins see everything
func (s *ProjectService) List(userID string, isAdmin bool) ([]models.Project, error) {
	if isAdmin {
		return s.projects.FindAll()
	}
	return s.projects.FindByUserID(userID)
}

// Update modifies mutable project fields. The slug and repository URL
// are fixed after creation since deployments reference them.
func (s *ProjectService) Update(projectID, userID string, isAdmin bool, name, productionBranch string, plan models.PlanTier) (models.Project, error) {
	project, err := s.Get(projectID, userID, isAdmin)
	if err != nil {
		return models.Project{}, err
	}

	if name != "" {
		project.Name = name
	}
	if productionBranch != "" {
		project.ProductionBranch = productionBranch
	}
	if plan != "" {
		if _, ok := utils.GetPlanLimits(plan); !ok {
			return models.Project{}, apperrors.Validation("invalid_plan",
				fmt.Sprintf("unknown plan tier: %s", plan))
		}
		project.Plan = plan
	}

	if err := s.projects.Update(project); err != nil {
		return models.Project{}, err
	}
	return project, nil
}

// Delete removes a project and cascades to its deployments and resources.
// The project's substrate namespace is torn down best effort; orphaned
// namespaces are cleaned up by the cluster janitor.
func (s *ProjectService) Delete(projectID, userID string, isAdmin bool) error {
	project, err := s.Get(projectID, userID, isAdmin)
	if err != nil {
		return err
	}
	if err := s.projects.Delete(project.ID); err != nil {
		return err
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		client, err := kubernetes.NewClient()
		if err != nil {
			log.Printf("Warning: cannot reach cluster to remove project namespace: %v", err)
			return
		}
		namespace := fmt.Sprintf("proj-%s", project.ID)
		if exists, _ := client.NamespaceExists(ctx, namespace); !exists {
			return
		}
		if err := client.DeleteNamespace(ctx, namespace); err != nil {
			log.Printf("Warning: failed to delete namespace %s: %v", namespace, err)
		}
	}()

	return nil
}

// Slugify derives a hostname-safe slug from a project name
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.ReplaceAll(slug, " ", "-")
	slug = slugPattern.ReplaceAllString(slug, "")
	return strings.Trim(slug, "-")
}
