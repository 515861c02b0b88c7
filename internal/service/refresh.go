package service

import (
	"context"
	"log"
)

// RefreshService re-sends already synced cases, one page per invocation,
// to keep existing tags fresh. It mitigates renamed or missed tags.
type RefreshService struct {
	feed   caseFeed
	cursor *SyncCursor
}

// NewRefreshService creates the refresh engine.
func NewRefreshService(cases CaseLister, tags TagUpserter, cursor *SyncCursor, cfg FeedConfig) *RefreshService {
	return &RefreshService{feed: newCaseFeed(cases, tags, cfg), cursor: cursor}
}

// RefreshCases upserts the page after the stored one. When that page has
// nothing beyond the stored id the cursor is reset so that the next call
// starts over from page 1.
func (s *RefreshService) RefreshCases(ctx context.Context) (SyncReport, error) {
	var report SyncReport

	lastID, err := s.cursor.LastID(ctx)
	if err != nil {
		return report, err
	}
	storedPage, err := s.cursor.Page(ctx)
	if err != nil {
		return report, err
	}
	page := storedPage + 1

	cases, err := s.feed.newCases(ctx, lastID, page)
	if err != nil {
		return report, err
	}
	report.PagesFetched = 1

	if len(cases) == 0 {
		log.Printf("[RefreshService] Page %d is empty, restarting refresh from the beginning", page)
		if err := s.cursor.Reset(ctx); err != nil {
			return report, err
		}
		return report, nil
	}

	log.Printf("[RefreshService] Refreshing %d %s: %s", len(cases), plural(len(cases), "tag"), joinIDs(cases))

	if err := s.feed.upsert(ctx, cases); err != nil {
		return report, err
	}

	lastRefreshed := cases[len(cases)-1].CaseID
	if err := s.cursor.SetLastID(ctx, lastRefreshed); err != nil {
		return report, err
	}
	if err := s.cursor.SetPage(ctx, page); err != nil {
		return report, err
	}

	report.CasesSynced = len(cases)
	report.Cursor = CursorState{LastID: lastRefreshed, Page: page}
	log.Printf("[RefreshService] Last refreshed case ID: %d on page %d", lastRefreshed, page)
	return report, nil
}

// Cursor returns the refresh cursor.
func (s *RefreshService) Cursor() *SyncCursor {
	return s.cursor
}
