package spytools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/go-github/v66/github"
)

const recentEventWindow = 15

// GitHubTool audits the token owner's recent GitHub activity.
type GitHubTool struct {
	m *Manager

	now func() time.Time
}

func (t *GitHubTool) Name() string { return "get_github_activity" }

func (t *GitHubTool) Description() string {
	return "Check recent GitHub activity for the authenticated user. Use this to audit coding " +
		"habits, call out lack of commits, or praise rare moments of productivity. Checks the " +
		"activity of the GITHUB_TOKEN owner."
}

func (t *GitHubTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

func (t *GitHubTool) Execute(ctx context.Context, args map[string]interface{}) string {
	if !t.m.githubOK {
		return "No GitHub access. Can't judge your code crimes today. Consider yourself lucky, but I'm judging you anyway."
	}

	user, _, err := t.m.github.Users.Get(ctx, "")
	if err != nil {
		return githubFailure(err)
	}

	events, _, err := t.m.github.Activity.ListEventsPerformedByUser(ctx, t.m.githubUser, false,
		&github.ListOptions{PerPage: recentEventWindow})
	if err != nil {
		return githubFailure(err)
	}

	if len(events) == 0 {
		return fmt.Sprintf("No recent activity for %s. Ghost developer detected. Are you even coding, or just pretending to be a developer?", t.m.githubUser)
	}

	nowFn := t.now
	if nowFn == nil {
		nowFn = time.Now
	}
	return formatActivity(t.m.githubUser, user, events, nowFn().UTC())
}

// formatActivity renders the audit. Split out so it can be tested
// without a live client.
func formatActivity(username string, user *github.User, events []*github.Event, now time.Time) string {
	var pushEvents []*github.Event
	var pushCount, prCount, issueCount int
	for _, e := range events {
		switch e.GetType() {
		case "PushEvent":
			pushCount++
			pushEvents = append(pushEvents, e)
		case "PullRequestEvent":
			prCount++
		case "IssuesEvent", "IssueCommentEvent":
			issueCount++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "GitHub audit for %s:\n", username)
	fmt.Fprintf(&b, "- Recent pushes: %d\n", pushCount)
	fmt.Fprintf(&b, "- Pull requests: %d\n", prCount)
	fmt.Fprintf(&b, "- Issues touched: %d\n", issueCount)
	fmt.Fprintf(&b, "- Public repos: %d\n", user.GetPublicRepos())
	fmt.Fprintf(&b, "- Followers: %d\n", user.GetFollowers())

	if len(pushEvents) > 0 {
		latest := pushEvents[0]
		repoName := latest.GetRepo().GetName()
		hoursAgo := now.Sub(latest.GetCreatedAt().Time).Hours()
		switch {
		case hoursAgo < 1:
			fmt.Fprintf(&b, "\nLast commit: %d minutes ago on %s. Okay, you're actually working. Don't let it go to your head.", int(hoursAgo*60), repoName)
		case hoursAgo < 24:
			fmt.Fprintf(&b, "\nLast commit: %d hours ago on %s.", int(hoursAgo), repoName)
		default:
			fmt.Fprintf(&b, "\nLast commit: %d days ago on %s. Your GitHub is collecting dust.", int(hoursAgo/24), repoName)
		}
	}

	switch {
	case pushCount == 0:
		b.WriteString("\n\nVerdict: Zero pushes in recent activity. Your GitHub contribution graph looks like a barcode at a liquidation sale.")
	case pushCount < 3:
		b.WriteString("\n\nVerdict: Barely alive. Your contribution graph looks anemic. Ship something.")
	default:
		b.WriteString("\n\nVerdict: Some activity detected. You're not completely useless today.")
	}
	return b.String()
}

func githubFailure(err error) string {
	if ghErr, ok := err.(*github.ErrorResponse); ok && ghErr.Response != nil {
		if ghErr.Response.StatusCode == 404 {
			return "User not found. Did your account get banned for pushing terrible code?"
		}
		return fmt.Sprintf("GitHub API error. Even APIs are tired of your requests. Error: %d", ghErr.Response.StatusCode)
	}
	return fmt.Sprintf("GitHub spy failed. Your code quality has infected my API calls. Error: %s", errorCategory(err))
}
