package service

import (
	"context"

	"case-connector/internal/model"
)

// CaseLister fetches pages of cases from the remote case system.
type CaseLister interface {
	ListCases(ctx context.Context, caseType string, page, pageSize int64) ([]model.Case, error)
}

// CaseClient resolves cases by reference and accepts time records.
type CaseClient interface {
	FindCaseByReference(ctx context.Context, caseType, name string) (*model.Case, error)
	PostTimeRecord(ctx context.Context, postType string, record model.TimePostRecord) error
}

// TagUpserter registers tags in the time tracking platform.
type TagUpserter interface {
	UpsertBatch(ctx context.Context, requests []model.UpsertTagRequest) error
}

// NarrativeRenderer renders the comment of a zone converted time group.
type NarrativeRenderer interface {
	Render(group model.TimeGroup, chargeableSecs int64) (string, error)
}
