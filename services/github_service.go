package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/go-github/github"
	"golang.org/x/oauth2"

	"github.com/launchdeck-platform/config"
)

// NotifyResult carries the outcome of a best-effort notification.
// Callers may ignore it; the primary state transition never depends on it.
type NotifyResult struct {
	Err error
}

// GitHubService pushes commit statuses and pull request comments to GitHub
type GitHubService struct {
	client *github.Client
}

// NewGitHubService creates the notifier. Without a GITHUB_TOKEN the
// service stays in no-op mode so local setups work without credentials.
func NewGitHubService() *GitHubService {
	token := config.GetEnv("GITHUB_TOKEN", "")
	if token == "" {
		log.Println("Warning: GITHUB_TOKEN not set, commit status updates disabled")
		return &GitHubService{}
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(context.Background(), ts)
	return &GitHubService{client: github.NewClient(tc)}
}

// CommitStatus sets the commit status shown next to a commit
func (s *GitHubService) CommitStatus(ctx context.Context, repoURL, sha, state, targetURL, description string) NotifyResult {
	if s.client == nil {
		return NotifyResult{}
	}
	owner, repo, err := splitRepoURL(repoURL)
	if err != nil {
		return NotifyResult{Err: err}
	}
	_, _, err = s.client.Repositories.CreateStatus(ctx, owner, repo, sha, &github.RepoStatus{
		State:       github.String(state),
		TargetURL:   github.String(targetURL),
		Description: github.String(description),
		Context:     github.String("launchdeck/deploy"),
	})
	return NotifyResult{Err: err}
}

// PRComment posts a comment on a pull request
func (s *GitHubService) PRComment(ctx context.Context, repoURL string, number int, body string) NotifyResult {
	if s.client == nil {
		return NotifyResult{}
	}
	owner, repo, err := splitRepoURL(repoURL)
	if err != nil {
		return NotifyResult{Err: err}
	}
	_, _, err = s.client.Issues.CreateComment(ctx, owner, repo, number, &github.IssueComment{
		Body: github.String(body),
	})
	return NotifyResult{Err: err}
}

// splitRepoURL extracts owner and repository name from a repository URL
func splitRepoURL(repoURL string) (string, string, error) {
	trimmed := strings.TrimSuffix(strings.TrimSuffix(repoURL, "/"), ".git")
	parts := strings.Split(trimmed, "/")
	if len(parts) < 2 {
		return "", "", fmt.Errorf("cannot parse repository URL: %s", repoURL)
	}
	return parts[len(parts)-2], parts[len(parts)-1], nil
}
