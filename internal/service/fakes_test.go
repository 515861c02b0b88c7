package service

import (
	"context"
	"strconv"
	"sync"

	"case-connector/internal/model"
)

type memoryCursorRepo struct {
	mu     sync.Mutex
	values map[string]int64
	puts   int
}

func newMemoryCursorRepo() *memoryCursorRepo {
	return &memoryCursorRepo{values: make(map[string]int64)}
}

func (r *memoryCursorRepo) GetInt64(_ context.Context, key string) (int64, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.values[key]
	return v, ok, nil
}

func (r *memoryCursorRepo) PutInt64(_ context.Context, key string, value int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[key] = value
	r.puts++
	return nil
}

func (r *memoryCursorRepo) Ping(context.Context) error { return nil }
func (r *memoryCursorRepo) Close() error              { return nil }

// pagedCases serves ascending case ids split into fixed size pages.
type pagedCases struct {
	mu    sync.Mutex
	ids   []int64
	calls []int64
}

func (p *pagedCases) add(ids ...int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ids = append(p.ids, ids...)
}

func (p *pagedCases) ListCases(_ context.Context, _ string, page, pageSize int64) ([]model.Case, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, page)

	start := (page - 1) * pageSize
	if page < 1 || start >= int64(len(p.ids)) {
		return nil, nil
	}
	end := start + pageSize
	if end > int64(len(p.ids)) {
		end = int64(len(p.ids))
	}

	cases := make([]model.Case, 0, end-start)
	for _, id := range p.ids[start:end] {
		cases = append(cases, model.Case{CaseID: id, CaseReference: "C-" + strconv.FormatInt(id, 10), CaseDescription: "Case " + strconv.FormatInt(id, 10)})
	}
	return cases, nil
}

type recordingTags struct {
	mu      sync.Mutex
	batches [][]model.UpsertTagRequest
	err     error
}

func (r *recordingTags) UpsertBatch(_ context.Context, requests []model.UpsertTagRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.batches = append(r.batches, requests)
	return nil
}

func (r *recordingTags) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var names []string
	for _, batch := range r.batches {
		for _, req := range batch {
			names = append(names, req.Name)
		}
	}
	return names
}

type fakeCaseClient struct {
	cases   map[string]*model.Case
	findErr error
	postErr error
	panics  bool

	lookups []string
	posted  []model.TimePostRecord
}

func (f *fakeCaseClient) FindCaseByReference(_ context.Context, _ string, name string) (*model.Case, error) {
	if f.panics {
		panic("lookup exploded")
	}
	f.lookups = append(f.lookups, name)
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.cases[name], nil
}

func (f *fakeCaseClient) PostTimeRecord(_ context.Context, _ string, record model.TimePostRecord) error {
	if f.postErr != nil {
		return f.postErr
	}
	f.posted = append(f.posted, record)
	return nil
}

type stubRenderer struct {
	groups     []model.TimeGroup
	chargeable []int64
}

func (s *stubRenderer) Render(group model.TimeGroup, chargeableSecs int64) (string, error) {
	s.groups = append(s.groups, group)
	s.chargeable = append(s.chargeable, chargeableSecs)
	return "narrative for " + group.GroupName, nil
}
