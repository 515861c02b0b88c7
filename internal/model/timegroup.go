package model

import "encoding/json"

// NarrativeType selects how much detail goes into a posted narrative.
type NarrativeType string

const (
	NarrativeOnly                    NarrativeType = "ONLY"
	NarrativeAndActivityDescriptions NarrativeType = "AND_TIME_ROW_ACTIVITY_DESCRIPTIONS"
)

// DurationSplitStrategy controls how a group's duration is shared between its tags.
type DurationSplitStrategy string

const (
	DivideBetweenTags      DurationSplitStrategy = "DIVIDE_BETWEEN_TAGS"
	WholeDurationToEachTag DurationSplitStrategy = "WHOLE_DURATION_TO_EACH_TAG"
)

// TimeGroup is a bundle of time rows posted by a user against one or more tags.
type TimeGroup struct {
	GroupID               string                `json:"groupId"`
	GroupName             string                `json:"groupName"`
	Description           string                `json:"description"`
	CallerKey             string                `json:"callerKey,omitempty"`
	TotalDurationSecs     int64                 `json:"totalDurationSecs"`
	NarrativeType         NarrativeType         `json:"narrativeType"`
	DurationSplitStrategy DurationSplitStrategy `json:"durationSplitStrategy"`
	Tags                  []Tag                 `json:"tags"`
	TimeRows              []TimeRow             `json:"timeRows"`
	User                  User                  `json:"user"`
}

// TimeRow is a single block of observed activity. Timestamps are UTC
// unless the row comes out of a zone conversion.
type TimeRow struct {
	Activity    string `json:"activity"`
	Description string `json:"description"`
	// ActivityHour is formatted yyyyMMddHH.
	ActivityHour        int   `json:"activityHour"`
	FirstObservedInHour int   `json:"firstObservedInHour"`
	DurationSecs        int64 `json:"durationSecs"`
	// SubmittedDate is formatted yyyyMMddHHmmssSSS.
	SubmittedDate    int64  `json:"submittedDate"`
	ActivityTypeCode string `json:"activityTypeCode,omitempty"`
	Modifier         string `json:"modifier,omitempty"`
	Source           string `json:"source,omitempty"`
}

// Tag references a case from the time tracking platform.
type Tag struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
}

// User is the person who posted a time group.
type User struct {
	Name                       string `json:"name"`
	Email                      string `json:"email,omitempty"`
	ExternalID                 string `json:"externalId"`
	ExperienceWeightingPercent int    `json:"experienceWeightingPercent"`
}

// UnmarshalJSON defaults the experience weighting to 100 when it is absent.
func (u *User) UnmarshalJSON(data []byte) error {
	type plain User
	p := plain{ExperienceWeightingPercent: 100}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*u = User(p)
	return nil
}

// Clone returns a deep copy of the group.
func (g TimeGroup) Clone() TimeGroup {
	c := g
	if g.Tags != nil {
		c.Tags = make([]Tag, len(g.Tags))
		copy(c.Tags, g.Tags)
	}
	if g.TimeRows != nil {
		c.TimeRows = make([]TimeRow, len(g.TimeRows))
		copy(c.TimeRows, g.TimeRows)
	}
	return c
}

// RowDurationSecs returns the sum of all row durations.
func (g TimeGroup) RowDurationSecs() int64 {
	var total int64
	for _, row := range g.TimeRows {
		total += row.DurationSecs
	}
	return total
}

// TotalDurationEdited reports whether the user changed the group total so
// that it no longer matches the sum of its rows.
func (g TimeGroup) TotalDurationEdited() bool {
	return g.TotalDurationSecs != g.RowDurationSecs()
}
