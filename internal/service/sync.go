package service

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"case-connector/internal/model"
)

// DefaultBatchSize is the page size used when none is configured.
const DefaultBatchSize = 500

// FeedConfig describes which cases are fetched and how they become tags.
type FeedConfig struct {
	CaseType  string
	BatchSize int64
	TagPath   string
	// CaseURLPrefix is prepended to the case id to build the tag URL.
	CaseURLPrefix string
}

// SyncReport summarizes one engine invocation.
type SyncReport struct {
	PagesFetched int         `json:"pages_fetched"`
	CasesSynced  int         `json:"cases_synced"`
	Cursor       CursorState `json:"cursor"`
}

// caseFeed holds what discovery and refresh share: fetching filtered pages
// and forwarding them as one tag batch.
type caseFeed struct {
	cases CaseLister
	tags  TagUpserter
	cfg   FeedConfig
}

func newCaseFeed(cases CaseLister, tags TagUpserter, cfg FeedConfig) caseFeed {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	return caseFeed{cases: cases, tags: tags, cfg: cfg}
}

// newCases returns the cases of page whose id is greater than lastID.
func (f caseFeed) newCases(ctx context.Context, lastID, page int64) ([]model.Case, error) {
	cases, err := f.cases.ListCases(ctx, f.cfg.CaseType, page, f.cfg.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list cases on page %d: %w", page, err)
	}

	filtered := make([]model.Case, 0, len(cases))
	for _, c := range cases {
		if c.CaseID > lastID {
			filtered = append(filtered, c)
		}
	}
	return filtered, nil
}

func (f caseFeed) upsert(ctx context.Context, cases []model.Case) error {
	requests := make([]model.UpsertTagRequest, 0, len(cases))
	for _, c := range cases {
		requests = append(requests, c.ToUpsertTagRequest(f.cfg.TagPath, f.cfg.CaseURLPrefix))
	}
	if err := f.tags.UpsertBatch(ctx, requests); err != nil {
		return fmt.Errorf("failed to upsert %d tags: %w", len(requests), err)
	}
	return nil
}

// SyncService discovers cases that have not been synced yet and creates
// matching tags for them.
type SyncService struct {
	feed   caseFeed
	cursor *SyncCursor
}

// NewSyncService creates the discovery engine.
func NewSyncService(cases CaseLister, tags TagUpserter, cursor *SyncCursor, cfg FeedConfig) *SyncService {
	return &SyncService{feed: newCaseFeed(cases, tags, cfg), cursor: cursor}
}

// SyncNewCases walks pages from the stored page until it hits an empty one,
// forwarding every unseen case as a tag. It blocks until all new cases
// have been synced.
//
// A page may be empty because everything on it was already synced while a
// later page already holds newer cases, so the first empty page of an
// invocation is skipped once. Any later empty page rolls the stored page
// back by one so that the page before it is re-examined next time.
func (s *SyncService) SyncNewCases(ctx context.Context) (SyncReport, error) {
	var report SyncReport
	shouldCheckNextPage := true

	for {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		lastID, err := s.cursor.LastID(ctx)
		if err != nil {
			return report, err
		}
		currentPage, err := s.cursor.Page(ctx)
		if err != nil {
			return report, err
		}

		cases, err := s.feed.newCases(ctx, lastID, currentPage)
		if err != nil {
			return report, err
		}
		report.PagesFetched++

		if len(cases) == 0 {
			if shouldCheckNextPage {
				shouldCheckNextPage = false
				log.Printf("[SyncService] Page %d has no new cases, checking next page", currentPage)
				if err := s.cursor.SetPage(ctx, currentPage+1); err != nil {
					return report, err
				}
				continue
			}

			rollback := currentPage - 1
			if rollback < 1 {
				rollback = 1
			}
			log.Printf("[SyncService] No new cases found. Last case ID synced: %d", lastID)
			if err := s.cursor.SetPage(ctx, rollback); err != nil {
				return report, err
			}
			report.Cursor = CursorState{LastID: lastID, Page: rollback}
			return report, nil
		}

		log.Printf("[SyncService] Detected %d new %s: %s", len(cases), plural(len(cases), "tag"), joinIDs(cases))

		if err := s.feed.upsert(ctx, cases); err != nil {
			return report, err
		}

		lastSynced := cases[len(cases)-1].CaseID
		if err := s.cursor.SetLastID(ctx, lastSynced); err != nil {
			return report, err
		}
		if err := s.cursor.SetPage(ctx, currentPage+1); err != nil {
			return report, err
		}
		shouldCheckNextPage = false
		report.CasesSynced += len(cases)
		log.Printf("[SyncService] Last synced case ID: %d on page %d", lastSynced, currentPage)
	}
}

// Cursor returns the discovery cursor.
func (s *SyncService) Cursor() *SyncCursor {
	return s.cursor
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

func joinIDs(cases []model.Case) string {
	ids := make([]string, len(cases))
	for i, c := range cases {
		ids[i] = strconv.FormatInt(c.CaseID, 10)
	}
	return strings.Join(ids, ", ")
}
