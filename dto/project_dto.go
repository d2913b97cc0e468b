package dto

// CreateProjectRequest represents the request payload for creating a new project
type CreateProjectRequest struct {
	Name             string `json:"name" binding:"required"`
	Slug             string `json:"slug"`
	RepoURL          string `json:"repoUrl" binding:"required"`
	ProductionBranch string `json:"productionBranch"`
	Plan             string `json:"plan"`
}

// UpdateProjectRequest represents the request payload for updating a project
type UpdateProjectRequest struct {
	Name             string `json:"name"`
	ProductionBranch string `json:"productionBranch"`
	Plan             string `json:"plan"`
}
