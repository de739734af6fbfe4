package agent

import (
	"strings"
	"testing"
	"time"
)

func TestBuildInstructionsSubstitution(t *testing.T) {
	profile := NewUserProfile()
	profile.Merge(map[string]interface{}{
		"name":       "Abraham",
		"city":       "Kochi",
		"profession": "Engineer",
	})
	now := time.Date(2026, 3, 9, 14, 30, 0, 0, istLocation())

	prompt := BuildInstructions(profile, now)

	for _, want := range []string{
		"Abraham (Engineer)",
		"Kochi, India",
		"02:30 PM on Monday",
		"get_unread_email_summary",
		"check_calendar_today",
		"get_github_activity",
		"ALTIO AI",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Prompt missing %q", want)
		}
	}
	if strings.Contains(prompt, "{name}") || strings.Contains(prompt, "{time}") {
		t.Error("Prompt contains unexpanded placeholders")
	}
}

func TestBuildInstructionsWithDefaults(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, istLocation())
	prompt := BuildInstructions(NewUserProfile(), now)

	if !strings.Contains(prompt, "Boss (Professional)") {
		t.Error("Default profile not rendered into prompt")
	}
}

func TestGreetingInstruction(t *testing.T) {
	profile := NewUserProfile()
	profile.Set("name", "Priya")
	profile.Set("city", "Bangalore")
	now := time.Date(2026, 3, 9, 22, 15, 0, 0, istLocation())

	greeting := GreetingInstruction(profile, now)

	for _, want := range []string{"10:15 PM", "Bangalore", "Priya"} {
		if !strings.Contains(greeting, want) {
			t.Errorf("Greeting missing %q: %s", want, greeting)
		}
	}
}

func TestPromptClock(t *testing.T) {
	clock, day := PromptClock(time.Date(2026, 8, 29, 1, 5, 0, 0, time.UTC))
	if clock != "01:05 AM" {
		t.Errorf("Expected 01:05 AM, got %q", clock)
	}
	if day != "Saturday" {
		t.Errorf("Expected Saturday, got %q", day)
	}
}
