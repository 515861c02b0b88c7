package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"case-connector/internal/apperror"
	"case-connector/internal/model"
)

const (
	activityHourLayout  = "2006010215"
	submittedDateLayout = "20060102150405.000"
	startTimeLayout     = "2006-01-02 15:04:05"
)

// ConvertToZone returns a deep copy of group with every row's activity
// time and submitted date moved from UTC into loc. group is not modified.
func ConvertToZone(group model.TimeGroup, loc *time.Location) (model.TimeGroup, error) {
	converted := group.Clone()
	for i := range converted.TimeRows {
		row := &converted.TimeRows[i]

		hour, minute, err := convertActivityTime(row.ActivityHour, row.FirstObservedInHour, loc)
		if err != nil {
			return model.TimeGroup{}, err
		}
		row.ActivityHour, row.FirstObservedInHour = hour, minute

		if row.SubmittedDate != 0 {
			submitted, err := convertSubmittedDate(row.SubmittedDate, loc)
			if err != nil {
				return model.TimeGroup{}, err
			}
			row.SubmittedDate = submitted
		}
	}
	return converted, nil
}

func convertActivityTime(activityHour, firstObservedInHour int, loc *time.Location) (int, int, error) {
	t, err := parseActivityTime(activityHour, firstObservedInHour)
	if err != nil {
		return 0, 0, err
	}
	local := t.In(loc)
	hour, err := strconv.Atoi(local.Format(activityHourLayout))
	if err != nil {
		return 0, 0, err
	}
	return hour, local.Minute(), nil
}

func convertSubmittedDate(submitted int64, loc *time.Location) (int64, error) {
	raw := strconv.FormatInt(submitted, 10)
	if len(raw) != 17 {
		return 0, apperror.Newf(apperror.ErrValidation, "Invalid submitted date: %d", submitted)
	}
	t, err := time.ParseInLocation(submittedDateLayout, raw[:14]+"."+raw[14:], time.UTC)
	if err != nil {
		return 0, apperror.Wrap(apperror.ErrValidation, fmt.Sprintf("Invalid submitted date: %d", submitted), err)
	}
	formatted := strings.Replace(t.In(loc).Format(submittedDateLayout), ".", "", 1)
	return strconv.ParseInt(formatted, 10, 64)
}

// parseActivityTime reads yyyyMMddHH plus minutes as a UTC wall clock time.
func parseActivityTime(activityHour, firstObservedInHour int) (time.Time, error) {
	t, err := time.ParseInLocation(activityHourLayout, strconv.Itoa(activityHour), time.UTC)
	if err != nil {
		return time.Time{}, apperror.Wrap(apperror.ErrValidation,
			fmt.Sprintf("Invalid activity hour: %d", activityHour), err)
	}
	if firstObservedInHour < 0 || firstObservedInHour > 59 {
		return time.Time{}, apperror.Newf(apperror.ErrValidation,
			"Invalid first observed minute: %d", firstObservedInHour)
	}
	return t.Add(time.Duration(firstObservedInHour) * time.Minute), nil
}

// StartTime returns the wall clock start of the earliest row formatted as
// "2006-01-02 15:04:05". Rows are read as already converted.
func StartTime(group model.TimeGroup) (string, bool) {
	var (
		earliest time.Time
		found    bool
	)
	for _, row := range group.TimeRows {
		t, err := parseActivityTime(row.ActivityHour, row.FirstObservedInHour)
		if err != nil {
			continue
		}
		if !found || t.Before(earliest) {
			earliest, found = t, true
		}
	}
	if !found {
		return "", false
	}
	return earliest.Format(startTimeLayout), true
}
