package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"case-connector/internal/config"
	"case-connector/internal/model"
	"case-connector/internal/repository"
	"case-connector/internal/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// fakeCaseAPI serves case ids 1..total through the paged list endpoint.
func fakeCaseAPI(t *testing.T, total int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		// api list type {type} rowsPerPage {n} page {p} orderrow caseId
		if len(parts) != 10 || parts[1] != "list" {
			http.NotFound(w, r)
			return
		}
		size, _ := strconv.Atoi(parts[5])
		page, _ := strconv.Atoi(parts[7])

		var rows []string
		for id := (page-1)*size + 1; id <= page*size && id <= total; id++ {
			rows = append(rows, fmt.Sprintf(`{"caseId":%d,"caseReference":"REF-%d"}`, id, id))
		}
		fmt.Fprintf(w, `{"result":{"data":[%s]},"code":200}`, strings.Join(rows, ","))
	}))
	t.Cleanup(srv.Close)
	return srv
}

type tagRecorder struct {
	mu    sync.Mutex
	names []string
}

func (tr *tagRecorder) server(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var batch []model.UpsertTagRequest
		if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		tr.mu.Lock()
		for _, req := range batch {
			tr.names = append(tr.names, req.Name)
		}
		tr.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func setEnv(t *testing.T, caseURL, tagURL string) {
	t.Helper()
	t.Setenv("CASE_API_BASE_URL", caseURL)
	t.Setenv("CASE_API_KEY", "secret")
	t.Setenv("CASE_TYPE", "projekt")
	t.Setenv("CASE_POST_TYPE", "zeit")
	t.Setenv("TAG_API_BASE_URL", tagURL)
	t.Setenv("TAG_UPSERT_BATCH_SIZE", "2")
	t.Setenv("CURSOR_DB_TYPE", "sqlite")
	t.Setenv("CURSOR_DB_PATH", filepath.Join(t.TempDir(), "data", "cursors.db"))
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSyncAndCursorsCommands(t *testing.T) {
	tags := &tagRecorder{}
	setEnv(t, fakeCaseAPI(t, 3).URL, tags.server(t).URL)

	out, err := run(t, "sync")
	if err != nil {
		t.Fatalf("sync error = %v, output %s", err, out)
	}
	var report service.SyncReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("sync output %q: %v", out, err)
	}
	if report.CasesSynced != 3 {
		t.Errorf("CasesSynced = %d, want 3", report.CasesSynced)
	}
	if strings.Join(tags.names, ",") != "REF-1,REF-2,REF-3" {
		t.Errorf("tags = %v", tags.names)
	}

	out, err = run(t, "cursors")
	if err != nil {
		t.Fatalf("cursors error = %v", err)
	}
	var cursors map[string]service.CursorState
	if err := json.Unmarshal([]byte(out), &cursors); err != nil {
		t.Fatalf("cursors output %q: %v", out, err)
	}
	if cursors["sync"] != (service.CursorState{LastID: 3, Page: 2}) {
		t.Errorf("sync cursor = %+v", cursors["sync"])
	}
	if cursors["refresh"] != (service.CursorState{}) {
		t.Errorf("refresh cursor = %+v", cursors["refresh"])
	}

	if _, err := run(t, "refresh"); err != nil {
		t.Fatalf("refresh error = %v", err)
	}
	if len(tags.names) != 5 {
		t.Errorf("refresh upserted %d tags, want 2", len(tags.names)-3)
	}
}

func TestHealthCommand(t *testing.T) {
	setEnv(t, fakeCaseAPI(t, 1).URL, (&tagRecorder{}).server(t).URL)

	out, err := run(t, "health")
	if err != nil {
		t.Fatalf("health error = %v, output %s", err, out)
	}
	if !strings.Contains(out, "case API:     ok") || !strings.Contains(out, "cursor store: ok (sqlite)") {
		t.Errorf("unexpected output %q", out)
	}

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	down.Close()
	t.Setenv("CASE_API_BASE_URL", down.URL)

	if _, err := run(t, "health"); err == nil {
		t.Error("expected health to fail when the case API is unreachable")
	}
}

func TestCommandsRejectInvalidConfig(t *testing.T) {
	setEnv(t, "http://127.0.0.1:1", "http://127.0.0.1:1")
	t.Setenv("CASE_TYPE", "")

	if _, err := run(t, "cursors"); err == nil || !strings.Contains(err.Error(), "CASE_TYPE is required") {
		t.Errorf("error = %v, want missing CASE_TYPE", err)
	}
}

func TestOpenCursorRepository(t *testing.T) {
	dir := t.TempDir()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	tests := []struct {
		name   string
		cfg    config.CursorDBConfig
		client *redis.Client
	}{
		{"sqlite", config.CursorDBConfig{Type: repository.StoreSQLite, Path: filepath.Join(dir, "a", "cursors.db")}, nil},
		{"bolt", config.CursorDBConfig{Type: repository.StoreBolt, Path: filepath.Join(dir, "b", "cursors.bolt")}, nil},
		{"redis", config.CursorDBConfig{Type: repository.StoreRedis}, client},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, err := openCursorRepository(tt.cfg, tt.client)
			if err != nil {
				t.Fatalf("openCursorRepository() error = %v", err)
			}
			defer repo.Close()

			ctx, cancel := context.WithCancel(context.Background())
			t.Cleanup(cancel)
			if err := repo.PutInt64(ctx, "case_last_sync_id", 9); err != nil {
				t.Fatal(err)
			}
			v, ok, err := repo.GetInt64(ctx, "case_last_sync_id")
			if err != nil || !ok || v != 9 {
				t.Errorf("GetInt64() = %d, %v, %v", v, ok, err)
			}
		})
	}

	if _, err := openCursorRepository(config.CursorDBConfig{Type: repository.StoreRedis}, nil); err == nil {
		t.Error("expected error for redis store without client")
	}
}
