package spytools

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// CalendarTool checks today's calendar events for accountability
// ammunition.
type CalendarTool struct {
	m *Manager

	// now is swappable for tests
	now func() time.Time
}

func (t *CalendarTool) Name() string { return "check_calendar_today" }

func (t *CalendarTool) Description() string {
	return "Check today's calendar events for accountability ammunition. Use this to know what " +
		"the user SHOULD be doing versus what they're actually doing (talking to you instead of " +
		"attending meetings)."
}

func (t *CalendarTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

func (t *CalendarTool) Execute(ctx context.Context, args map[string]interface{}) string {
	if !t.m.googleOK {
		return "No calendar access. You're either privacy-conscious or hiding something. I'll assume you have 47 meetings you're avoiding."
	}

	nowFn := t.now
	if nowFn == nil {
		nowFn = time.Now
	}
	now := nowFn().UTC()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	endOfDay := startOfDay.Add(24*time.Hour - time.Second)

	events, err := t.m.calendar.Events.List("primary").
		TimeMin(startOfDay.Format(time.RFC3339)).
		TimeMax(endOfDay.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).Do()
	if err != nil {
		return fmt.Sprintf("Calendar error. Your schedule is as broken as your time management. Error: %s", errorCategory(err))
	}

	if len(events.Items) == 0 {
		return "Empty calendar today. Either you have no responsibilities, or you've given up on planning. Both are concerning for someone who claims to be 'busy'."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Today's schedule (%d events). Let's see what you're avoiding:\n", len(events.Items))
	for _, ev := range events.Items {
		timeStr := "All day"
		if ev.Start != nil && ev.Start.DateTime != "" {
			if dt, err := time.Parse(time.RFC3339, ev.Start.DateTime); err == nil {
				timeStr = dt.Format("03:04 PM")
			}
		}
		summary := ev.Summary
		if summary == "" {
			summary = "Unnamed Event"
		}
		fmt.Fprintf(&b, "- %s: %s\n", timeStr, summary)
	}
	return b.String()
}
