// Package narrative renders the human readable comment attached to every
// posted time record.
package narrative

import (
	"fmt"
	"sort"
	"strings"
	"text/template"

	"case-connector/internal/model"
)

const noWindowTitle = "No window title available"

// The template is built from explicit escapes so that the exact line
// endings expected by the case system survive editing.
var narrativeTemplate = template.Must(template.New("narrative").Parse(
	`{{.Description}}` +
		`{{if .Hours}}{{"\n"}}{{range .Hours}}{{"\r\n"}}{{printf "%02d:00 - %02d:59" .Hour .Hour}}{{"\n"}}` +
		`{{range .Rows}}- {{.Duration}} - {{.Activity}} - {{.Description}}{{"\n"}}{{end}}{{end}}{{end}}` +
		`{{if .Summary}}{{if not .Hours}}{{"\n"}}{{end}}` +
		`{{"\r\n"}}Total Worked Time: {{.Worked}}{{"\n"}}Total Chargeable Time: {{.Chargeable}}` +
		`{{if .ShowWeighting}}{{"\n"}}The chargeable time has been weighed based on an experience factor of {{.WeightingPercent}}%.{{end}}` +
		`{{if gt .SplitCount 1}}{{"\r\n"}}The above times have been split across {{.SplitCount}} cases` +
		` and are thus greater than the chargeable time in this case{{end}}{{end}}`,
))

// Renderer produces narratives, optionally followed by a summary block.
type Renderer struct {
	includeSummary bool
}

// NewRenderer creates a renderer.
func NewRenderer(includeSummary bool) *Renderer {
	return &Renderer{includeSummary: includeSummary}
}

type rowLine struct {
	Duration    string
	Activity    string
	Description string
}

type hourBlock struct {
	Hour int
	Rows []rowLine
}

type templateData struct {
	Description      string
	Hours            []hourBlock
	Summary          bool
	Worked           string
	Chargeable       string
	ShowWeighting    bool
	WeightingPercent int
	SplitCount       int
}

// Render builds the narrative for group, whose rows must already be in the
// target time zone. chargeableSecs is the chargeable time posted to each case.
func (r *Renderer) Render(group model.TimeGroup, chargeableSecs int64) (string, error) {
	data := templateData{
		Description: group.Description,
		Summary:     r.includeSummary,
	}

	if group.NarrativeType == model.NarrativeAndActivityDescriptions {
		data.Hours = groupByHour(group.TimeRows)
	}

	if r.includeSummary {
		if group.DurationSplitStrategy == model.DivideBetweenTags {
			data.SplitCount = len(group.Tags)
		}
		data.Worked = FormatDuration(group.RowDurationSecs())
		data.Chargeable = FormatDuration(chargeableSecs)
		data.WeightingPercent = group.User.ExperienceWeightingPercent
		data.ShowWeighting = !group.TotalDurationEdited() && group.User.ExperienceWeightingPercent != 100
	}

	var sb strings.Builder
	if err := narrativeTemplate.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to render narrative: %w", err)
	}
	return sb.String(), nil
}

func groupByHour(rows []model.TimeRow) []hourBlock {
	sorted := make([]model.TimeRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ActivityHour < sorted[j].ActivityHour
	})

	var blocks []hourBlock
	for i, row := range sorted {
		if i == 0 || row.ActivityHour != sorted[i-1].ActivityHour {
			blocks = append(blocks, hourBlock{Hour: row.ActivityHour % 100})
		}
		last := &blocks[len(blocks)-1]
		last.Rows = append(last.Rows, rowLine{
			Duration:    FormatDuration(row.DurationSecs),
			Activity:    sanitize(row.Activity),
			Description: sanitizeDescription(row.Description),
		})
	}
	return blocks
}

// sanitize unwraps markers such as "@_Thinking_@" used for manual entries.
func sanitize(s string) string {
	if strings.HasPrefix(s, "@_") && strings.HasSuffix(s, "_@") && len(s) >= 4 {
		return s[2 : len(s)-2]
	}
	return s
}

func sanitizeDescription(s string) string {
	if strings.TrimSpace(s) == "" || s == "@_empty_@" {
		return noWindowTitle
	}
	return sanitize(s)
}

// FormatDuration renders seconds as "1h 6m 46s", omitting zero parts.
func FormatDuration(secs int64) string {
	if secs <= 0 {
		return "0s"
	}
	h, m, s := secs/3600, secs%3600/60, secs%60

	var parts []string
	if h > 0 {
		parts = append(parts, fmt.Sprintf("%dh", h))
	}
	if m > 0 {
		parts = append(parts, fmt.Sprintf("%dm", m))
	}
	if s > 0 {
		parts = append(parts, fmt.Sprintf("%ds", s))
	}
	return strings.Join(parts, " ")
}
