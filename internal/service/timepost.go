package service

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"case-connector/internal/apperror"
	"case-connector/internal/model"
)

// TimePostConfig configures the time posting pipeline.
type TimePostConfig struct {
	// CaseType is used to look up the case behind each tag.
	CaseType string
	// PostType selects the endpoint records are posted to.
	PostType string
	// TagPath is the path of tags created by this connector.
	TagPath string
	// Location is the zone the case system expects times in.
	Location *time.Location
}

// TimePostService posts time groups to the cases referenced by their tags.
type TimePostService struct {
	cases    CaseClient
	renderer NarrativeRenderer
	cfg      TimePostConfig
}

// NewTimePostService creates the time posting pipeline.
func NewTimePostService(cases CaseClient, renderer NarrativeRenderer, cfg TimePostConfig) *TimePostService {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &TimePostService{cases: cases, renderer: renderer, cfg: cfg}
}

// PostTime validates group and submits one time record per tagged case.
// Failures are always reported through the returned result.
func (s *TimePostService) PostTime(ctx context.Context, group model.TimeGroup) (result model.PostResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[TimePostService] PANIC while posting group %s: %v", group.GroupID, r)
			result = model.TransientFailure("There was an error posting time", fmt.Errorf("panic: %v", r))
		}
	}()

	log.Printf("[TimePostService] Posted time received: %s", group.GroupID)

	tags := s.relevantTags(group.Tags)
	if len(tags) == 0 {
		return model.Success("Time group has no tags. There is nothing to post.")
	}

	if len(group.TimeRows) == 0 {
		return model.PermanentFailure("Cannot post time group with no time rows", nil)
	}

	userID := group.User.ExternalID
	if userID == "" {
		return model.PermanentFailure("External User Id is required in order to post time", nil)
	}
	if !isNumeric(userID) {
		return model.PermanentFailure("External User Id must be numeric: "+userID, nil)
	}

	chargeableSecs := PerCaseSecs(group, ChargeableSecs(group), len(tags))
	actualSecs := PerCaseSecs(group, group.RowDurationSecs(), len(tags))

	filtered := group.Clone()
	filtered.Tags = tags

	converted, err := ConvertToZone(filtered, s.cfg.Location)
	if err != nil {
		return s.mapError(err)
	}

	narrative, err := s.renderer.Render(converted, chargeableSecs)
	if err != nil {
		return s.mapError(err)
	}

	startTime, ok := StartTime(converted)
	if !ok {
		return model.PermanentFailure("Cannot post time group with no time rows", nil)
	}

	activityCode, err := ActivityCode(group)
	if err != nil {
		return s.mapError(err)
	}

	resolved := make([]*model.Case, 0, len(tags))
	for _, tag := range tags {
		found, err := s.cases.FindCaseByReference(ctx, s.cfg.CaseType, tag.Name)
		if err != nil {
			return s.mapError(err)
		}
		if found == nil {
			return s.mapError(apperror.New(apperror.ErrValidation, "Can't find case for tag "+tag.Name))
		}
		resolved = append(resolved, found)
	}

	for _, c := range resolved {
		record := model.TimePostRecord{
			CaseID:             c.CaseID,
			UserID:             userID,
			Narrative:          narrative,
			StartDateTime:      startTime,
			TotalTimeSecs:      actualSecs,
			ChargeableTimeSecs: chargeableSecs,
			ActivityCode:       activityCode,
		}
		if err := s.cases.PostTimeRecord(ctx, s.cfg.PostType, record); err != nil {
			return s.mapError(err)
		}
		log.Printf("[TimePostService] Posted time to case %d on behalf of %s", c.CaseID, userID)
	}

	return model.Success("")
}

// relevantTags keeps the tags created by this connector.
func (s *TimePostService) relevantTags(tags []model.Tag) []model.Tag {
	stripped := strings.Trim(s.cfg.TagPath, "/")
	relevant := make([]model.Tag, 0, len(tags))
	for _, tag := range tags {
		if tag.Path == s.cfg.TagPath || tag.Path == stripped {
			relevant = append(relevant, tag)
			continue
		}
		log.Printf("[TimePostService] Not configured to handle tag %s with path %s. No time will be posted for this tag.",
			tag.Name, tag.Path)
	}
	return relevant
}

func (s *TimePostService) mapError(err error) model.PostResult {
	if apperror.IsBusiness(err) {
		log.Printf("[TimePostService] Can't post time: %v", err)
		return model.PermanentFailure(apperror.Message(err), err)
	}
	log.Printf("[TimePostService] Failed to post time: %v", err)
	return model.TransientFailure("There was an error posting time", err)
}

// ChargeableSecs returns the chargeable time of group. A total edited by
// the user is taken as is. Otherwise the row total is weighted by the
// user's experience factor and rounded to the nearest second.
func ChargeableSecs(group model.TimeGroup) int64 {
	if group.TotalDurationEdited() {
		return group.TotalDurationSecs
	}
	weighted := float64(group.RowDurationSecs()) * float64(group.User.ExperienceWeightingPercent) / 100
	return int64(math.Round(weighted))
}

// PerCaseSecs returns the share of secs posted to each of tagCount cases.
// Groups split between tags divide it equally, rounded to the nearest
// second. Other groups post secs to every case.
func PerCaseSecs(group model.TimeGroup, secs int64, tagCount int) int64 {
	if group.DurationSplitStrategy != model.DivideBetweenTags || tagCount < 2 {
		return secs
	}
	return int64(math.Round(float64(secs) / float64(tagCount)))
}

// ActivityCode returns the activity type code shared by all rows, or ""
// when no row carries one. Rows with diverging codes are rejected.
func ActivityCode(group model.TimeGroup) (string, error) {
	var codes []string
	seen := make(map[string]bool)
	for _, row := range group.TimeRows {
		if !seen[row.ActivityTypeCode] {
			seen[row.ActivityTypeCode] = true
			codes = append(codes, row.ActivityTypeCode)
		}
	}

	switch len(codes) {
	case 0:
		return "", nil
	case 1:
		return codes[0], nil
	default:
		log.Printf("[TimePostService] All time rows within group %s should share one activity type code, got %v",
			group.GroupID, codes)
		return "", apperror.Newf(apperror.ErrValidation, "Expected only one activity type, but got %d", len(codes))
	}
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
