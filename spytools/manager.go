package spytools

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/go-github/v66/github"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/altio-ai/cheeko/pkg/config"
)

// Manager owns the spy-tool API clients and auth state. It is
// constructed once per process from the config and passed by
// reference; there is no package-level credential state.
type Manager struct {
	cfg *config.Config

	gmail    *gmail.Service
	calendar *calendar.Service
	github   *github.Client

	githubUser string

	googleOK bool
	githubOK bool
}

func NewManager(cfg *config.Config) *Manager {
	return &Manager{cfg: cfg}
}

// Initialize builds all API clients and returns the per-service auth
// status. A service that fails to initialize only disables its own
// tools; Initialize itself never fails.
func (m *Manager) Initialize(ctx context.Context) map[string]bool {
	results := map[string]bool{
		"google": m.initGoogle(ctx),
		"github": m.initGitHub(ctx),
	}
	log.Printf("[SpyTools] auth status: google=%v github=%v", results["google"], results["github"])
	return results
}

func (m *Manager) initGoogle(ctx context.Context) bool {
	client, source, err := GoogleHTTPClient(ctx, m.cfg)
	if err != nil {
		log.Printf("[SpyTools] Google auth unavailable: %v", err)
		return false
	}
	gm, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		log.Printf("[SpyTools] Gmail service init failed: %v", err)
		return false
	}
	cal, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		log.Printf("[SpyTools] Calendar service init failed: %v", err)
		return false
	}
	m.gmail = gm
	m.calendar = cal
	m.googleOK = true
	log.Printf("[SpyTools] Google APIs initialized (credential source: %s)", source)
	return true
}

func (m *Manager) initGitHub(ctx context.Context) bool {
	if m.cfg.GitHubToken == "" {
		log.Printf("[SpyTools] GITHUB_TOKEN not set, GitHub spy disabled")
		return false
	}
	client := github.NewClient(nil).WithAuthToken(m.cfg.GitHubToken)
	user, _, err := client.Users.Get(ctx, "")
	if err != nil {
		log.Printf("[SpyTools] GitHub auth failed: %v", err)
		return false
	}
	m.github = client
	m.githubUser = user.GetLogin()
	m.githubOK = true
	log.Printf("[SpyTools] GitHub authenticated as: %s", m.githubUser)
	return true
}

// RegisterTools adds every spy tool to the registry.
func (m *Manager) RegisterTools(reg *Registry) {
	reg.Register(&EmailTool{m: m})
	reg.Register(&CalendarTool{m: m})
	reg.Register(&GitHubTool{m: m})
}

// errorCategory reduces an error to its bare Go type name. Tool output
// carries only the category, never the message, so upstream failures
// can't leak anything odd into the conversation.
func errorCategory(err error) string {
	name := fmt.Sprintf("%T", err)
	name = strings.TrimLeft(name, "*")
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name
}
