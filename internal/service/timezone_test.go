package service

import (
	"testing"
	"time"

	"case-connector/internal/apperror"
	"case-connector/internal/model"
)

func TestConvertToZone(t *testing.T) {
	india := time.FixedZone("IST", 5*60*60+30*60)
	group := model.TimeGroup{TimeRows: []model.TimeRow{
		{ActivityHour: 2018123123, FirstObservedInHour: 12, SubmittedDate: 20190110082359997},
		{ActivityHour: 2019010100, FirstObservedInHour: 0, SubmittedDate: 0},
	}}

	converted, err := ConvertToZone(group, india)
	if err != nil {
		t.Fatalf("ConvertToZone() error = %v", err)
	}

	first := converted.TimeRows[0]
	if first.ActivityHour != 2019010104 || first.FirstObservedInHour != 42 {
		t.Errorf("activity time = %d/%d, want 2019010104/42", first.ActivityHour, first.FirstObservedInHour)
	}
	if first.SubmittedDate != 20190110135359997 {
		t.Errorf("SubmittedDate = %d, want 20190110135359997", first.SubmittedDate)
	}

	second := converted.TimeRows[1]
	if second.ActivityHour != 2019010105 || second.FirstObservedInHour != 30 {
		t.Errorf("activity time = %d/%d, want 2019010105/30", second.ActivityHour, second.FirstObservedInHour)
	}
	if second.SubmittedDate != 0 {
		t.Errorf("zero SubmittedDate was converted to %d", second.SubmittedDate)
	}

	if group.TimeRows[0].ActivityHour != 2018123123 {
		t.Error("input group was modified")
	}
}

func TestConvertToZone_RoundTrip(t *testing.T) {
	zone := time.FixedZone("NPT", 5*60*60+45*60)
	group := model.TimeGroup{TimeRows: []model.TimeRow{
		{ActivityHour: 2020022923, FirstObservedInHour: 59, SubmittedDate: 20200229235959001},
	}}

	there, err := ConvertToZone(group, zone)
	if err != nil {
		t.Fatal(err)
	}
	back, err := ConvertToZone(there, time.FixedZone("back", -(5*60*60 + 45*60)))
	if err != nil {
		t.Fatal(err)
	}
	if back.TimeRows[0] != group.TimeRows[0] {
		t.Errorf("round trip = %+v, want %+v", back.TimeRows[0], group.TimeRows[0])
	}
}

func TestConvertToZone_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		row  model.TimeRow
	}{
		{"bad hour", model.TimeRow{ActivityHour: 2018133100}},
		{"bad minute", model.TimeRow{ActivityHour: 2018123123, FirstObservedInHour: 75}},
		{"short submitted date", model.TimeRow{ActivityHour: 2018123123, SubmittedDate: 2019011008}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ConvertToZone(model.TimeGroup{TimeRows: []model.TimeRow{tt.row}}, time.UTC)
			if !apperror.Is(err, apperror.ErrValidation) {
				t.Errorf("error = %v, want validation error", err)
			}
		})
	}
}

func TestStartTime(t *testing.T) {
	group := model.TimeGroup{TimeRows: []model.TimeRow{
		{ActivityHour: 2018110121, FirstObservedInHour: 0},
	}}
	converted, err := ConvertToZone(group, manila)
	if err != nil {
		t.Fatal(err)
	}

	got, ok := StartTime(converted)
	if !ok || got != "2018-11-02 05:00:00" {
		t.Errorf("StartTime() = %q, %v, want 2018-11-02 05:00:00", got, ok)
	}
}

func TestStartTime_PicksEarliestRow(t *testing.T) {
	group := model.TimeGroup{TimeRows: []model.TimeRow{
		{ActivityHour: 2018110110, FirstObservedInHour: 5},
		{ActivityHour: 2018110109, FirstObservedInHour: 45},
		{ActivityHour: 2018110109, FirstObservedInHour: 50},
	}}

	got, ok := StartTime(group)
	if !ok || got != "2018-11-01 09:45:00" {
		t.Errorf("StartTime() = %q, %v", got, ok)
	}

	if _, ok := StartTime(model.TimeGroup{}); ok {
		t.Error("StartTime() of empty group reported a value")
	}
}
