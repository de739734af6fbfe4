package spytools

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/go-github/v66/github"

	"github.com/altio-ai/cheeko/pkg/config"
)

func TestRegistryRegisterAndList(t *testing.T) {
	m := NewManager(&config.Config{})
	reg := NewRegistry()
	m.RegisterTools(reg)

	names := reg.List()
	want := []string{"get_unread_email_summary", "check_calendar_today", "get_github_activity"}
	if len(names) != len(want) {
		t.Fatalf("Expected %d tools, got %d", len(want), len(names))
	}
	for i, name := range want {
		if names[i] != name {
			t.Errorf("Tool %d: expected %s, got %s", i, name, names[i])
		}
	}
}

func TestRegistrySpecs(t *testing.T) {
	m := NewManager(&config.Config{})
	reg := NewRegistry()
	m.RegisterTools(reg)

	specs := reg.Specs()
	if len(specs) != 3 {
		t.Fatalf("Expected 3 specs, got %d", len(specs))
	}
	for _, spec := range specs {
		if spec.Type != "function" {
			t.Errorf("Expected function type, got %s", spec.Type)
		}
		if spec.Function == nil || spec.Function.Name == "" || spec.Function.Description == "" {
			t.Error("Spec missing function name or description")
		}
		if spec.Function.Parameters == nil {
			t.Errorf("Spec %s missing parameters schema", spec.Function.Name)
		}
	}
}

func TestCallToolUnknown(t *testing.T) {
	reg := NewRegistry()
	out := reg.CallTool(context.Background(), "launch_missiles", nil)
	if out == "" || !strings.Contains(out, "launch_missiles") {
		t.Errorf("Unknown tool should return an in-character line, got %q", out)
	}
}

func TestToolsDegradeWithoutCredentials(t *testing.T) {
	m := NewManager(&config.Config{})
	reg := NewRegistry()
	m.RegisterTools(reg)

	cases := map[string]string{
		"get_unread_email_summary": "access to your inbox",
		"check_calendar_today":     "No calendar access",
		"get_github_activity":      "No GitHub access",
	}
	for name, want := range cases {
		out := reg.CallTool(context.Background(), name, nil)
		if !strings.Contains(out, want) {
			t.Errorf("%s: expected canned no-access line containing %q, got %q", name, want, out)
		}
	}
}

func TestErrorCategory(t *testing.T) {
	if got := errorCategory(errors.New("boom")); got != "errorString" {
		t.Errorf("Expected errorString, got %s", got)
	}
	if got := errorCategory(&github.ErrorResponse{}); got != "ErrorResponse" {
		t.Errorf("Expected ErrorResponse, got %s", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 40); got != "short" {
		t.Errorf("Short string should pass through, got %q", got)
	}
	long := strings.Repeat("a", 60)
	got := truncate(long, 50)
	if len(got) != 53 || !strings.HasSuffix(got, "...") {
		t.Errorf("Expected 50 chars plus ellipsis, got %d chars", len(got))
	}
	// Multi-byte subjects are cut on rune boundaries, never mid-character
	hindi := strings.Repeat("न", 60)
	got = truncate(hindi, 50)
	if !utf8.ValidString(got) {
		t.Errorf("Truncation produced invalid UTF-8: %q", got)
	}
	if n := utf8.RuneCountInString(strings.TrimSuffix(got, "...")); n != 50 {
		t.Errorf("Expected 50 runes before ellipsis, got %d", n)
	}
}

func TestGetInt(t *testing.T) {
	args := map[string]interface{}{"limit": float64(7)}
	if got := GetInt(args, "limit", 5); got != 7 {
		t.Errorf("Expected 7, got %d", got)
	}
	if got := GetInt(args, "missing", 5); got != 5 {
		t.Errorf("Expected fallback 5, got %d", got)
	}
	if got := GetInt(map[string]interface{}{"limit": "nope"}, "limit", 5); got != 5 {
		t.Errorf("Expected fallback for bad type, got %d", got)
	}
}

func TestFormatActivityVerdicts(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	user := &github.User{
		PublicRepos: github.Int(12),
		Followers:   github.Int(3),
	}

	// Zero pushes
	events := []*github.Event{
		{Type: github.String("IssuesEvent"), CreatedAt: &github.Timestamp{Time: now.Add(-time.Hour)}},
	}
	out := formatActivity("abe", user, events, now)
	if !strings.Contains(out, "barcode at a liquidation sale") {
		t.Errorf("Expected zero-push verdict, got %q", out)
	}
	if !strings.Contains(out, "- Issues touched: 1") {
		t.Errorf("Expected issue count, got %q", out)
	}

	// Recent push
	events = []*github.Event{
		{
			Type:      github.String("PushEvent"),
			CreatedAt: &github.Timestamp{Time: now.Add(-30 * time.Minute)},
			Repo:      &github.Repository{Name: github.String("abe/cheeko")},
		},
	}
	out = formatActivity("abe", user, events, now)
	if !strings.Contains(out, "30 minutes ago on abe/cheeko") {
		t.Errorf("Expected recent-push line, got %q", out)
	}
	if !strings.Contains(out, "Barely alive") {
		t.Errorf("Expected low-activity verdict, got %q", out)
	}

	// Stale push
	events = []*github.Event{
		{
			Type:      github.String("PushEvent"),
			CreatedAt: &github.Timestamp{Time: now.Add(-72 * time.Hour)},
			Repo:      &github.Repository{Name: github.String("abe/dusty")},
		},
	}
	out = formatActivity("abe", user, events, now)
	if !strings.Contains(out, "3 days ago on abe/dusty") {
		t.Errorf("Expected stale-push line, got %q", out)
	}
	if !strings.Contains(out, "collecting dust") {
		t.Errorf("Expected dust remark, got %q", out)
	}
}

func TestStoredTokenParsing(t *testing.T) {
	// Python google-auth layout
	tok, _, err := parseStoredToken([]byte(`{"token":"abc","refresh_token":"r1","client_id":"cid"}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if tok.AccessToken != "abc" || tok.RefreshToken != "r1" {
		t.Errorf("Unexpected token: %+v", tok)
	}

	// x/oauth2 layout
	tok, _, err = parseStoredToken([]byte(`{"access_token":"xyz","token_type":"Bearer"}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if tok.AccessToken != "xyz" {
		t.Errorf("Unexpected token: %+v", tok)
	}

	if _, _, err := parseStoredToken([]byte(`{}`)); err == nil {
		t.Error("Empty credential should not parse")
	}
	if _, _, err := parseStoredToken([]byte(`not json`)); err == nil {
		t.Error("Malformed credential should not parse")
	}
}

func TestHasUsableToken(t *testing.T) {
	if !HasUsableToken([]byte(`{"token":"abc"}`)) {
		t.Error("token key should count")
	}
	if !HasUsableToken([]byte(`{"access_token":"abc"}`)) {
		t.Error("access_token key should count")
	}
	if HasUsableToken([]byte(`{"refresh_token":"r"}`)) {
		t.Error("refresh token alone should not count as usable")
	}
	if HasUsableToken([]byte(`nope`)) {
		t.Error("malformed JSON should not count")
	}
}

func TestSaveTokenRoundTrip(t *testing.T) {
	path := t.TempDir() + "/token.json"
	tok, _, err := parseStoredToken([]byte(`{"access_token":"abc","refresh_token":"r1"}`))
	if err != nil {
		t.Fatal(err)
	}
	if err := SaveToken(path, tok); err != nil {
		t.Fatalf("SaveToken failed: %v", err)
	}

	cfg := &config.Config{TokenPath: path}
	loaded, _, source, err := LoadGoogleToken(cfg)
	if err != nil {
		t.Fatalf("LoadGoogleToken failed: %v", err)
	}
	if source != "file" {
		t.Errorf("Expected file source, got %s", source)
	}
	if loaded.AccessToken != "abc" || loaded.RefreshToken != "r1" {
		t.Errorf("Round trip lost fields: %+v", loaded)
	}
}

func TestLoadGoogleTokenEnvWins(t *testing.T) {
	cfg := &config.Config{
		GoogleTokenJSON: `{"token":"from-env"}`,
		TokenPath:       "does-not-exist.json",
	}
	tok, _, source, err := LoadGoogleToken(cfg)
	if err != nil {
		t.Fatalf("LoadGoogleToken failed: %v", err)
	}
	if source != "env" || tok.AccessToken != "from-env" {
		t.Errorf("Expected env credential, got source=%s token=%+v", source, tok)
	}
}
