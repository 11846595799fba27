package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mercator-hq/autopublish/internal/testutil"
	"mercator-hq/autopublish/pkg/autopublish"
	"mercator-hq/autopublish/pkg/config"
	"mercator-hq/autopublish/pkg/content"
	"mercator-hq/autopublish/pkg/history"
	"mercator-hq/autopublish/pkg/telemetry"
	"mercator-hq/autopublish/pkg/telemetry/health"
	"mercator-hq/autopublish/pkg/workflow"
)

type fixture struct {
	server  *httptest.Server
	catalog content.Catalog
	history history.Store
	lock    *autopublish.RunLock
}

func newFixture(t *testing.T, items ...*content.Item) *fixture {
	t.Helper()

	cfg := config.NewDefaultConfig()
	tel, err := telemetry.New(&cfg.Telemetry, health.VersionInfo{Version: "test"}, telemetry.WithLogWriter(io.Discard))
	testutil.AssertNoError(t, err)

	catalog := testutil.NewCatalog(t, items...)
	engine := workflow.NewEngine(nil, catalog)
	store := history.NewMemoryStore()
	lock := autopublish.NewRunLock("")
	settings := &autopublish.Settings{
		PublishActions: []autopublish.ActionRule{
			{PortalTypes: []string{"Document"}, InitialStates: []string{"private"}, Transition: "publish"},
		},
	}
	scanner := autopublish.NewScanner(catalog, engine,
		autopublish.WithSettings(autopublish.StaticSettings(settings)),
		autopublish.WithHistory(store),
		autopublish.WithLock(lock),
		autopublish.WithRecorder(tel.Metrics()),
	)
	scheduler := autopublish.NewScheduler(scanner, nil, autopublish.SchedulerConfig{Schedule: cfg.Autopublish.Schedule})

	srv := NewServer(&cfg.Server, Deps{
		Catalog:   catalog,
		Engine:    engine,
		Runner:    scheduler,
		History:   store,
		Telemetry: tel,
	})

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &fixture{server: ts, catalog: catalog, history: store, lock: lock}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		testutil.AssertNoError(t, err)
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, f.server.URL+path, r)
	testutil.AssertNoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	testutil.AssertNoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return v
}

func TestServer_Probes(t *testing.T) {
	f := newFixture(t)

	for _, path := range []string{"/health", "/ready", "/version", "/metrics"} {
		t.Run(path, func(t *testing.T) {
			resp := f.do(t, http.MethodGet, path, nil)
			if resp.StatusCode != http.StatusOK {
				t.Errorf("status = %d, want 200", resp.StatusCode)
			}
		})
	}
}

func TestServer_Items(t *testing.T) {
	f := newFixture(t,
		testutil.TestItem("news", "published", testutil.Hours(-1), nil),
		testutil.TestItem("draft", "private", nil, nil),
	)

	t.Run("list", func(t *testing.T) {
		resp := f.do(t, http.MethodGet, "/v1/items", nil)
		list := decode[ItemList](t, resp)
		if list.Count != 2 {
			t.Errorf("count = %d, want 2", list.Count)
		}
	})

	t.Run("list filtered by state", func(t *testing.T) {
		resp := f.do(t, http.MethodGet, "/v1/items?state=private", nil)
		list := decode[ItemList](t, resp)
		if list.Count != 1 || list.Items[0].ID != "draft" {
			t.Errorf("unexpected items: %+v", list.Items)
		}
	})

	t.Run("invalid filter", func(t *testing.T) {
		resp := f.do(t, http.MethodGet, "/v1/items?autopublish=maybe", nil)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
	})

	t.Run("show", func(t *testing.T) {
		resp := f.do(t, http.MethodGet, "/v1/items/draft", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d", resp.StatusCode)
		}
		view := decode[map[string]any](t, resp)
		if view["path"] != "/site/draft" {
			t.Errorf("path = %v", view["path"])
		}
		transitions, _ := view["transitions"].([]any)
		if len(transitions) == 0 {
			t.Error("expected available transitions")
		}
	})

	t.Run("missing", func(t *testing.T) {
		resp := f.do(t, http.MethodGet, "/v1/items/nope", nil)
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("status = %d, want 404", resp.StatusCode)
		}
		errResp := decode[ErrorResponse](t, resp)
		if errResp.Error.Type != ErrorTypeNotFound {
			t.Errorf("error type = %q", errResp.Error.Type)
		}
	})

	t.Run("put", func(t *testing.T) {
		resp := f.do(t, http.MethodPut, "/v1/items/event", map[string]any{
			"path":                  "/site/event",
			"title":                 "Event",
			"portal_type":           "Event",
			"enable_autopublishing": true,
		})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d", resp.StatusCode)
		}
		stored := testutil.MustGet(t, f.catalog, "event")
		if stored.ReviewState != "private" {
			t.Errorf("new item state = %q, want workflow initial state", stored.ReviewState)
		}
	})

	t.Run("put with mismatched id", func(t *testing.T) {
		resp := f.do(t, http.MethodPut, "/v1/items/event", map[string]any{"id": "other", "path": "/x", "portal_type": "Event"})
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
	})

	t.Run("put invalid item", func(t *testing.T) {
		resp := f.do(t, http.MethodPut, "/v1/items/broken", map[string]any{"title": "No path"})
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
	})
}

func TestServer_Transition(t *testing.T) {
	f := newFixture(t, testutil.TestItem("news", "published", testutil.Hours(-1), nil))

	resp := f.do(t, http.MethodPost, "/v1/items/news/transitions/submit", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("forbidden transition status = %d, want 409", resp.StatusCode)
	}

	resp = f.do(t, http.MethodPost, "/v1/items/news/transitions/retract", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("retract status = %d", resp.StatusCode)
	}
	if got := testutil.MustGet(t, f.catalog, "news").ReviewState; got != "private" {
		t.Errorf("state = %q, want private", got)
	}

	resp = f.do(t, http.MethodPost, "/v1/items/nope/transitions/retract", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing item status = %d, want 404", resp.StatusCode)
	}
}

func TestServer_Runs(t *testing.T) {
	due := testutil.TestItem("due", "private", testutil.TimePtr(time.Now().Add(-time.Hour)), nil)
	f := newFixture(t, due)

	resp := f.do(t, http.MethodPost, "/v1/runs?dry_run=true", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	result := decode[autopublish.RunResult](t, resp)
	if !result.DryRun || result.Publish == nil || result.Publish.Found != 1 {
		t.Errorf("unexpected result: %+v", result)
	}
	if got := testutil.MustGet(t, f.catalog, "due").ReviewState; got != "private" {
		t.Errorf("dry run changed state to %q", got)
	}

	resp = f.do(t, http.MethodPost, "/v1/runs", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := testutil.MustGet(t, f.catalog, "due").ReviewState; got != "published" {
		t.Errorf("state = %q, want published", got)
	}

	resp = f.do(t, http.MethodGet, "/v1/runs?limit=1", nil)
	runs := decode[RunList](t, resp)
	if runs.Count != 1 || runs.Runs[0].DryRun {
		t.Errorf("expected the latest non-dry run, got %+v", runs.Runs)
	}

	resp = f.do(t, http.MethodPost, "/v1/runs?dry_run=perhaps", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid dry_run status = %d, want 400", resp.StatusCode)
	}

	resp = f.do(t, http.MethodGet, "/v1/runs?limit=-1", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid limit status = %d, want 400", resp.StatusCode)
	}
}

func TestServer_RunInProgress(t *testing.T) {
	f := newFixture(t)

	testutil.AssertNoError(t, f.lock.TryLock())
	defer f.lock.Unlock()

	resp := f.do(t, http.MethodPost, "/v1/runs", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want 409", resp.StatusCode)
	}
}

func TestServer_RequestIDAndMetrics(t *testing.T) {
	f := newFixture(t, testutil.TestItem("news", "published", nil, nil))

	req, _ := http.NewRequest(http.MethodGet, f.server.URL+"/v1/items/news", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	resp, err := http.DefaultClient.Do(req)
	testutil.AssertNoError(t, err)
	resp.Body.Close()
	if got := resp.Header.Get(RequestIDHeader); got != "req-123" {
		t.Errorf("request id = %q, want req-123", got)
	}

	resp = f.do(t, http.MethodGet, "/v1/items", nil)
	if resp.Header.Get(RequestIDHeader) == "" {
		t.Error("expected a generated request id")
	}

	resp = f.do(t, http.MethodGet, "/metrics", nil)
	body, _ := io.ReadAll(resp.Body)
	testutil.AssertContains(t, string(body), `route="GET /v1/items/{id}"`)
}

func TestServer_StartShutdown(t *testing.T) {
	cfg := config.NewDefaultConfig().Server
	cfg.ListenAddress = "127.0.0.1:0"
	srv := NewServer(&cfg, Deps{Catalog: testutil.NewCatalog(t)})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	testutil.WaitForCondition(t, 2*time.Second, srv.IsRunning, "server to start")

	resp, err := http.Get("http://" + srv.Addr() + "/v1/items")
	testutil.AssertNoError(t, err)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		testutil.AssertNoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
	if srv.IsRunning() {
		t.Error("server still running after shutdown")
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := RecoveryMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("test panic")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if !strings.Contains(w.Body.String(), ErrorTypeServer) {
		t.Errorf("unexpected body %q", w.Body.String())
	}
}

func TestServer_APITokens(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Server.APIToken = "admin-token-0123456789"
	tel, err := telemetry.New(&cfg.Telemetry, health.VersionInfo{Version: "test"}, telemetry.WithLogWriter(io.Discard))
	testutil.AssertNoError(t, err)

	srv := NewServer(&cfg.Server, Deps{
		Catalog:   testutil.NewCatalog(t, testutil.TestItem("news", "published", nil, nil)),
		Telemetry: tel,
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	get := func(path, token string) int {
		t.Helper()
		req, err := http.NewRequest(http.MethodGet, ts.URL+path, nil)
		testutil.AssertNoError(t, err)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := http.DefaultClient.Do(req)
		testutil.AssertNoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}

	if code := get("/health", ""); code != http.StatusOK {
		t.Errorf("/health without token = %d, want 200", code)
	}
	if code := get("/v1/items/news", ""); code != http.StatusUnauthorized {
		t.Errorf("/v1/items/news without token = %d, want 401", code)
	}
	if code := get("/v1/items/news", "admin-token-0123456789"); code != http.StatusOK {
		t.Errorf("/v1/items/news with token = %d, want 200", code)
	}
}
