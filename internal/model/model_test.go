package model

import (
	"encoding/json"
	"testing"
)

func TestCase_UnmarshalJSON_CanonicalNames(t *testing.T) {
	var c Case
	data := `{"caseId": 42, "caseReference": "P-0042", "caseDescription": "Patent filing"}`
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	want := Case{CaseID: 42, CaseReference: "P-0042", CaseDescription: "Patent filing"}
	if c != want {
		t.Errorf("got %+v, want %+v", c, want)
	}
}

func TestCase_UnmarshalJSON_LegacyAliases(t *testing.T) {
	var c Case
	data := `{"ID": "17", "az": "AZ-17", "prname": "Legacy project"}`
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	want := Case{CaseID: 17, CaseReference: "AZ-17", CaseDescription: "Legacy project"}
	if c != want {
		t.Errorf("got %+v, want %+v", c, want)
	}
}

func TestCase_UnmarshalJSON_CanonicalWins(t *testing.T) {
	var c Case
	data := `{"caseId": 1, "ID": 2, "caseReference": "new", "az": "old"}`
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if c.CaseID != 1 || c.CaseReference != "new" {
		t.Errorf("canonical fields should take precedence, got %+v", c)
	}
}

func TestCase_UnmarshalJSON_BadID(t *testing.T) {
	var c Case
	if err := json.Unmarshal([]byte(`{"caseId": "abc"}`), &c); err == nil {
		t.Error("expected error for non-numeric id")
	}
}

func TestCase_ToUpsertTagRequest(t *testing.T) {
	c := Case{CaseID: 99, CaseReference: "REF-99", CaseDescription: "Trade mark"}
	got := c.ToUpsertTagRequest("/Cases/", "https://cases.example.com/projekt/show/ID/")
	want := UpsertTagRequest{
		Name:        "REF-99",
		Description: "Trade mark",
		Path:        "/Cases/",
		URL:         "https://cases.example.com/projekt/show/ID/99",
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestTimeGroup_CloneIsDeep(t *testing.T) {
	g := TimeGroup{
		Tags:     []Tag{{Name: "a", Path: "/Cases/"}},
		TimeRows: []TimeRow{{ActivityHour: 2018123123, DurationSecs: 60}},
	}
	c := g.Clone()
	c.Tags[0].Name = "changed"
	c.TimeRows[0].ActivityHour = 1

	if g.Tags[0].Name != "a" {
		t.Error("clone shares tag storage with original")
	}
	if g.TimeRows[0].ActivityHour != 2018123123 {
		t.Error("clone shares row storage with original")
	}
}

func TestTimeGroup_TotalDurationEdited(t *testing.T) {
	g := TimeGroup{
		TotalDurationSecs: 900,
		TimeRows:          []TimeRow{{DurationSecs: 600}, {DurationSecs: 300}},
	}
	if g.RowDurationSecs() != 900 {
		t.Errorf("RowDurationSecs() = %d", g.RowDurationSecs())
	}
	if g.TotalDurationEdited() {
		t.Error("matching total must not count as edited")
	}
	g.TotalDurationSecs = 1500
	if !g.TotalDurationEdited() {
		t.Error("diverging total must count as edited")
	}
}

func TestUser_UnmarshalJSON_DefaultsWeighting(t *testing.T) {
	var u User
	if err := json.Unmarshal([]byte(`{"name": "Ada", "externalId": "7"}`), &u); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if u.ExperienceWeightingPercent != 100 {
		t.Errorf("ExperienceWeightingPercent = %d, want 100", u.ExperienceWeightingPercent)
	}

	if err := json.Unmarshal([]byte(`{"experienceWeightingPercent": 50}`), &u); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if u.ExperienceWeightingPercent != 50 {
		t.Errorf("ExperienceWeightingPercent = %d, want 50", u.ExperienceWeightingPercent)
	}
}
