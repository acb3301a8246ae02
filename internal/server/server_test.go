package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"codeberg.org/snonux/wortschatz/internal/anki"
	"codeberg.org/snonux/wortschatz/internal/blob"
	"codeberg.org/snonux/wortschatz/internal/queue"
	"codeberg.org/snonux/wortschatz/internal/store"
	"codeberg.org/snonux/wortschatz/internal/submit"
	"codeberg.org/snonux/wortschatz/internal/testutil"
)

func newTestServer(t *testing.T) (*Server, *store.Store, *queue.Memory, blob.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := testutil.OpenTestStore(t)
	q := queue.NewMemory()
	blobs := testutil.OpenTestBlobStore(t)
	submitter := submit.New(st, q)
	compiler := anki.NewCompiler(st, blobs, "Test Deck")

	return New(submitter, st, compiler, blobs, nil), st, q, blobs
}

func doJSON(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	srv, _, _, _ := newTestServer(t)

	w := doJSON(t, srv, http.MethodGet, "/healthz", "")
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestSubmitEndpoint(t *testing.T) {
	srv, st, q, _ := newTestServer(t)

	t.Run("accepted", func(t *testing.T) {
		w := doJSON(t, srv, http.MethodPost, "/api/submit", `{"owner_id":"42","text":"Haus"}`)
		if w.Code != http.StatusAccepted {
			t.Fatalf("status = %d, want 202: %s", w.Code, w.Body)
		}
		if q.Len() != 1 {
			t.Errorf("queue length = %d, want 1", q.Len())
		}

		var resp struct {
			Status string `json:"status"`
			Query  string `json:"query"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("bad response body: %v", err)
		}
		if resp.Status != "accepted" || resp.Query != "haus" {
			t.Errorf("response = %+v", resp)
		}
	})

	t.Run("already exists", func(t *testing.T) {
		e := testutil.InsertTestEntry(t, st, "42", "katze")
		e.AudioKey = "audio/42/abc.mp3"
		if err := st.Upsert(context.Background(), e); err != nil {
			t.Fatalf("Upsert() error: %v", err)
		}

		w := doJSON(t, srv, http.MethodPost, "/api/submit", `{"owner_id":"42","text":"Katze"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", w.Code, w.Body)
		}
		if !strings.Contains(w.Body.String(), "already-exists") {
			t.Errorf("response missing status: %s", w.Body)
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		w := doJSON(t, srv, http.MethodPost, "/api/submit", `{"owner_id":"42"}`)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("whitespace only text", func(t *testing.T) {
		w := doJSON(t, srv, http.MethodPost, "/api/submit", `{"owner_id":"42","text":"   "}`)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})
}

func TestSubmitEndpointQueueDown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	st := testutil.OpenTestStore(t)
	blobs := testutil.OpenTestBlobStore(t)
	submitter := submit.New(st, unavailableQueue{})
	srv := New(submitter, st, anki.NewCompiler(st, blobs, "d"), blobs, nil)

	w := doJSON(t, srv, http.MethodPost, "/api/submit", `{"owner_id":"42","text":"Haus"}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503: %s", w.Code, w.Body)
	}
}

type unavailableQueue struct{}

func (unavailableQueue) Send(ctx context.Context, body []byte) error { return queue.ErrUnavailable }
func (unavailableQueue) Receive(ctx context.Context, max int, lease time.Duration) ([]queue.Message, error) {
	return nil, queue.ErrUnavailable
}
func (unavailableQueue) Delete(ctx context.Context, id string) error { return queue.ErrUnavailable }

func TestListEntriesEndpoint(t *testing.T) {
	srv, st, _, _ := newTestServer(t)

	testutil.InsertTestEntry(t, st, "42", "haus")
	testutil.InsertTestEntry(t, st, "42", "baum")

	w := doJSON(t, srv, http.MethodGet, "/api/entries/42", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if resp.Count != 2 {
		t.Errorf("count = %d, want 2", resp.Count)
	}
}

func TestCompileDeckEndpoint(t *testing.T) {
	srv, st, _, blobs := newTestServer(t)

	t.Run("empty collection", func(t *testing.T) {
		w := doJSON(t, srv, http.MethodPost, "/api/decks/42", "")
		if w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404: %s", w.Code, w.Body)
		}
	})

	t.Run("compiles and stores", func(t *testing.T) {
		testutil.InsertTestEntry(t, st, "42", "haus")

		w := doJSON(t, srv, http.MethodPost, "/api/decks/42", "")
		if w.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201: %s", w.Code, w.Body)
		}

		var resp struct {
			Artifact string `json:"artifact"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("bad response body: %v", err)
		}
		if _, err := blobs.Get(context.Background(), resp.Artifact); err != nil {
			t.Errorf("artifact not stored: %v", err)
		}
	})
}

func TestDownloadDeckEndpoint(t *testing.T) {
	srv, st, _, _ := newTestServer(t)
	testutil.InsertTestEntry(t, st, "42", "haus")

	w := doJSON(t, srv, http.MethodGet, "/api/decks/42/download", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/zip" {
		t.Errorf("Content-Type = %q, want application/zip", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "42.apkg") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	body := w.Body.Bytes()
	if len(body) < 2 || body[0] != 'P' || body[1] != 'K' {
		t.Error("body is not a zip archive")
	}
}

func TestDownloadDeckStoresNoArtifacts(t *testing.T) {
	gin.SetMode(gin.TestMode)
	st := testutil.OpenTestStore(t)
	blobDir := t.TempDir()
	blobs, err := blob.NewStore(&blob.Config{Backend: "fs", Dir: blobDir})
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}
	submitter := submit.New(st, queue.NewMemory())
	srv := New(submitter, st, anki.NewCompiler(st, blobs, "Test Deck"), blobs, nil)

	testutil.InsertTestEntry(t, st, "42", "haus")

	// Repeated downloads stream the deck; only the compile endpoint may
	// leave an artifact for the retention sweep to manage.
	for i := 0; i < 2; i++ {
		w := doJSON(t, srv, http.MethodGet, "/api/decks/42/download", "")
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", w.Code, w.Body)
		}
	}
	if _, err := os.Stat(filepath.Join(blobDir, "exports")); !os.IsNotExist(err) {
		t.Errorf("exports directory exists after downloads: %v", err)
	}
}
