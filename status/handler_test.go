package status

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/carebridge/synckit/conflict"
	"github.com/carebridge/synckit/connection"
	"github.com/carebridge/synckit/coordinator"
	"github.com/carebridge/synckit/offline"
)

func newRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h.Register(r)
	return r
}

func doRequest(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestStatusAggregatesComponents(t *testing.T) {
	tracker := connection.NewTracker()
	tracker.MarkConnected()

	queue := offline.NewQueue(offline.Config{})
	queue.SetOnline(context.Background(), false)
	if _, err := queue.Add("appointments", map[string]any{"id": "a1"}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	resolver := conflict.NewResolver(conflict.Config{})
	if _, err := resolver.Add("patient", conflict.Record{"name": "Ann"}, conflict.Record{"name": "Anne"}); err != nil {
		t.Fatalf("Add conflict failed: %v", err)
	}

	coord := coordinator.New()
	coord.SetLoading("appointments", true)

	h := NewHandler(
		WithTracker(tracker),
		WithQueue(queue),
		WithResolver(resolver),
		WithCoordinator(coord),
	)
	w := doRequest(t, newRouter(h), http.MethodGet, "/sync/status", "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct {
		Data StatusReport `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if resp.Data.Connection != "connected" {
		t.Errorf("expected connection 'connected', got %q", resp.Data.Connection)
	}
	if resp.Data.Online == nil || *resp.Data.Online {
		t.Error("expected online=false")
	}
	if resp.Data.QueueDepth == nil || *resp.Data.QueueDepth != 1 {
		t.Errorf("expected queue depth 1, got %v", resp.Data.QueueDepth)
	}
	if resp.Data.OpenConflicts == nil || *resp.Data.OpenConflicts != 1 {
		t.Errorf("expected 1 open conflict, got %v", resp.Data.OpenConflicts)
	}
	if len(resp.Data.LoadingSections) != 1 || resp.Data.LoadingSections[0] != "appointments" {
		t.Errorf("expected loading sections [appointments], got %v", resp.Data.LoadingSections)
	}
}

func TestStatusWithNoComponents(t *testing.T) {
	w := doRequest(t, newRouter(NewHandler()), http.MethodGet, "/sync/status", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestReconnectTransitionsTracker(t *testing.T) {
	tracker := connection.NewTracker(connection.WithDialer(func(ctx context.Context) error {
		return nil
	}))
	tracker.MarkConnected()
	tracker.MarkDisconnected()

	h := NewHandler(WithTracker(tracker))
	w := doRequest(t, newRouter(h), http.MethodPost, "/sync/reconnect", "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body %s)", w.Code, w.Body.String())
	}
	if got := tracker.Status(); got != connection.StatusConnected {
		t.Errorf("expected connected after reconnect, got %s", got)
	}
}

func TestReconnectWithoutTrackerReturns404(t *testing.T) {
	w := doRequest(t, newRouter(NewHandler()), http.MethodPost, "/sync/reconnect", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestRefreshDoesNotChangeStatus(t *testing.T) {
	refreshed := false
	tracker := connection.NewTracker(connection.WithRefresher(func(ctx context.Context) error {
		refreshed = true
		return nil
	}))
	tracker.MarkConnected()

	h := NewHandler(WithTracker(tracker))
	w := doRequest(t, newRouter(h), http.MethodPost, "/sync/refresh", "")

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", w.Code)
	}
	if !refreshed {
		t.Error("expected refresher to be invoked")
	}
	if got := tracker.Status(); got != connection.StatusConnected {
		t.Errorf("expected status unchanged, got %s", got)
	}
}

func TestResolveConflictEndpoint(t *testing.T) {
	resolver := conflict.NewResolver(conflict.Config{},
		conflict.WithWriter(conflict.WriterFunc(func(ctx context.Context, entity string, record conflict.Record) error {
			return nil
		})),
	)
	dc, err := resolver.Add("patient", conflict.Record{"name": "Ann"}, conflict.Record{"name": "Anne"})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	h := NewHandler(WithResolver(resolver))
	r := newRouter(h)

	t.Run("invalid strategy rejected", func(t *testing.T) {
		w := doRequest(t, r, http.MethodPost, "/sync/conflicts/"+dc.ID+"/resolve", `{"strategy":"newest"}`)
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
		if len(resolver.Conflicts()) != 1 {
			t.Error("conflict should remain open after invalid strategy")
		}
	})

	t.Run("missing body rejected", func(t *testing.T) {
		w := doRequest(t, r, http.MethodPost, "/sync/conflicts/"+dc.ID+"/resolve", "")
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})

	t.Run("local strategy resolves", func(t *testing.T) {
		w := doRequest(t, r, http.MethodPost, "/sync/conflicts/"+dc.ID+"/resolve", `{"strategy":"local"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d (body %s)", w.Code, w.Body.String())
		}
		if len(resolver.Conflicts()) != 0 {
			t.Error("conflict should be closed after resolution")
		}
	})

	t.Run("unknown conflict id", func(t *testing.T) {
		w := doRequest(t, r, http.MethodPost, "/sync/conflicts/nope/resolve", `{"strategy":"local"}`)
		if w.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", w.Code)
		}
	})
}

func TestQueueEndpoints(t *testing.T) {
	queue := offline.NewQueue(offline.Config{})
	queue.SetOnline(context.Background(), false)
	action, err := queue.Add("medications", map[string]any{"dose": "5mg"})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	h := NewHandler(WithQueue(queue))
	r := newRouter(h)

	t.Run("list", func(t *testing.T) {
		w := doRequest(t, r, http.MethodGet, "/sync/queue", "")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		if !strings.Contains(w.Body.String(), action.ID) {
			t.Error("expected pending action in response")
		}
	})

	t.Run("discard", func(t *testing.T) {
		w := doRequest(t, r, http.MethodDelete, "/sync/queue/"+action.ID, "")
		if w.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", w.Code)
		}
		if len(queue.Pending()) != 0 {
			t.Error("expected queue to be empty after discard")
		}
	})

	t.Run("discard unknown id", func(t *testing.T) {
		w := doRequest(t, r, http.MethodDelete, "/sync/queue/nope", "")
		if w.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", w.Code)
		}
	})
}
