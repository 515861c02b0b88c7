package narrative

import (
	"strings"
	"testing"

	"case-connector/internal/model"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		secs int64
		want string
	}{
		{0, "0s"},
		{-5, "0s"},
		{59, "59s"},
		{120, "2m"},
		{181, "3m 1s"},
		{1800, "30m"},
		{3006, "50m 6s"},
		{3600, "1h"},
		{3601, "1h 1s"},
		{4006, "1h 6m 46s"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.secs); got != tt.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tt.secs, got, tt.want)
		}
	}
}

func twoTags() []model.Tag {
	return []model.Tag{{Name: "tag1", Path: "/Cases/"}, {Name: "tag2", Path: "/Cases/"}}
}

func TestRender_DivideBetweenTags(t *testing.T) {
	group := model.TimeGroup{
		Description:           "Drafted the response",
		TotalDurationSecs:     4006,
		NarrativeType:         model.NarrativeAndActivityDescriptions,
		DurationSplitStrategy: model.DivideBetweenTags,
		Tags:                  twoTags(),
		User:                  model.User{ExperienceWeightingPercent: 50},
		TimeRows: []model.TimeRow{
			{Activity: "Word", Description: "claims.docx", ActivityHour: 2019031816, FirstObservedInHour: 5, DurationSecs: 3006},
			{Activity: "Outlook", Description: "Inbox", ActivityHour: 2019031818, FirstObservedInHour: 8, DurationSecs: 1000},
		},
	}

	got, err := NewRenderer(true).Render(group, 1002)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if !strings.HasPrefix(got, group.Description) {
		t.Errorf("narrative must start with description: %q", got)
	}
	wantRows := "\r\n16:00 - 16:59\n" +
		"- 50m 6s - Word - claims.docx\n" +
		"\r\n18:00 - 18:59\n" +
		"- 16m 40s - Outlook - Inbox"
	if !strings.Contains(got, wantRows) {
		t.Errorf("missing row details in %q", got)
	}
	if !strings.Contains(got, "\r\nTotal Worked Time: 1h 6m 46s\nTotal Chargeable Time: 16m 42s") {
		t.Errorf("missing summary in %q", got)
	}
	if !strings.Contains(got, "The chargeable time has been weighed based on an experience factor of 50%.") {
		t.Errorf("missing weighting note in %q", got)
	}
	if !strings.HasSuffix(got, "\r\nThe above times have been split across 2 cases and are thus greater than "+
		"the chargeable time in this case") {
		t.Errorf("missing split note in %q", got)
	}
}

func TestRender_DivideBetweenTagsEdited(t *testing.T) {
	group := model.TimeGroup{
		Description:           "Edited",
		TotalDurationSecs:     3600,
		NarrativeType:         model.NarrativeAndActivityDescriptions,
		DurationSplitStrategy: model.DivideBetweenTags,
		Tags:                  twoTags(),
		User:                  model.User{ExperienceWeightingPercent: 50},
		TimeRows: []model.TimeRow{
			{Activity: "Word", Description: "a", ActivityHour: 2019031816, DurationSecs: 3006},
			{Activity: "Word", Description: "b", ActivityHour: 2019031818, DurationSecs: 1000},
		},
	}

	got, err := NewRenderer(true).Render(group, 1800)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(got, "\r\nTotal Worked Time: 1h 6m 46s\nTotal Chargeable Time: 30m") {
		t.Errorf("missing summary in %q", got)
	}
	if strings.Contains(got, "weighed based on an experience factor") {
		t.Errorf("edited durations are never weighted: %q", got)
	}
}

func TestRender_WholeDurationToEachTag(t *testing.T) {
	group := model.TimeGroup{
		Description:           "Whole",
		TotalDurationSecs:     120,
		NarrativeType:         model.NarrativeAndActivityDescriptions,
		DurationSplitStrategy: model.WholeDurationToEachTag,
		Tags:                  twoTags(),
		User:                  model.User{ExperienceWeightingPercent: 100},
		TimeRows: []model.TimeRow{
			{Activity: "Chrome", Description: "Search", ActivityHour: 2016050121, FirstObservedInHour: 7, DurationSecs: 120},
		},
	}

	got, err := NewRenderer(true).Render(group, 120)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(got, "\r\n21:00 - 21:59\n- 2m - Chrome - Search") {
		t.Errorf("missing row details in %q", got)
	}
	if strings.Contains(got, "weighed based on an experience factor") || strings.Contains(got, "split across") {
		t.Errorf("unexpected notes in %q", got)
	}
	if !strings.HasSuffix(got, "\r\nTotal Worked Time: 2m\nTotal Chargeable Time: 2m") {
		t.Errorf("unexpected ending in %q", got)
	}
}

func TestRender_NarrativeOnly(t *testing.T) {
	group := model.TimeGroup{
		Description:           "Narrative only",
		TotalDurationSecs:     300,
		NarrativeType:         model.NarrativeOnly,
		DurationSplitStrategy: model.WholeDurationToEachTag,
		Tags:                  twoTags(),
		User:                  model.User{ExperienceWeightingPercent: 100},
		TimeRows: []model.TimeRow{
			{Activity: "Word", Description: "one", ActivityHour: 2017050121, DurationSecs: 360},
			{Activity: "Word", Description: "two", ActivityHour: 2017050121, DurationSecs: 360},
		},
	}

	withSummary, err := NewRenderer(true).Render(group, 300)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if strings.Contains(withSummary, "Word - one") {
		t.Errorf("narrative only must not list rows: %q", withSummary)
	}
	if want := "Narrative only\n\r\nTotal Worked Time: 12m\nTotal Chargeable Time: 5m"; withSummary != want {
		t.Errorf("Render() = %q, want %q", withSummary, want)
	}

	withoutSummary, err := NewRenderer(false).Render(group, 300)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if withoutSummary != "Narrative only" {
		t.Errorf("Render() = %q, want description only", withoutSummary)
	}
}

func TestRender_SanitizesActivityAndTitle(t *testing.T) {
	group := model.TimeGroup{
		Description:           "Sanitized",
		TotalDurationSecs:     300,
		NarrativeType:         model.NarrativeAndActivityDescriptions,
		DurationSplitStrategy: model.WholeDurationToEachTag,
		Tags:                  twoTags(),
		User:                  model.User{ExperienceWeightingPercent: 100},
		TimeRows: []model.TimeRow{
			{Activity: "@_Thinking_@", Description: "", ActivityHour: 2018110117, DurationSecs: 120},
			{Activity: "@_Videocall_@", Description: "@_empty_@", ActivityHour: 2018110117, DurationSecs: 181},
		},
	}

	got, err := NewRenderer(true).Render(group, 300)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	want := "\n\r\n17:00 - 17:59" +
		"\n- 2m - Thinking - No window title available" +
		"\n- 3m 1s - Videocall - No window title available"
	if !strings.Contains(got, want) {
		t.Errorf("missing sanitized rows in %q", got)
	}
	if !strings.HasSuffix(got, "\nTotal Worked Time: 5m 1s\nTotal Chargeable Time: 5m") {
		t.Errorf("unexpected ending in %q", got)
	}
}

func TestRender_SortsHoursChronologically(t *testing.T) {
	group := model.TimeGroup{
		Description:   "Order",
		NarrativeType: model.NarrativeAndActivityDescriptions,
		TimeRows: []model.TimeRow{
			{Activity: "B", Description: "late", ActivityHour: 2019010102, DurationSecs: 60},
			{Activity: "A", Description: "early", ActivityHour: 2018123123, DurationSecs: 60},
		},
	}
	got, err := NewRenderer(false).Render(group, 120)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if strings.Index(got, "23:00 - 23:59") > strings.Index(got, "02:00 - 02:59") {
		t.Errorf("hours out of order: %q", got)
	}
}
