package api

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/smazurov/mpvnode/internal/api/models"
	"github.com/smazurov/mpvnode/internal/events"
	"github.com/smazurov/mpvnode/internal/logging"
	"github.com/smazurov/mpvnode/internal/metrics"
	"github.com/smazurov/mpvnode/internal/mpv"
	"github.com/smazurov/mpvnode/internal/player"
	"github.com/smazurov/mpvnode/internal/process"
)

// mockPlayer is a test implementation of player.Player.
type mockPlayer struct {
	mu       sync.Mutex
	info     player.Info
	requests []player.Request
	startErr error
	cmdErr   error
	waitCode int
	waitErr  error
	waitHold bool // Wait blocks until its context ends
	stops    int
}

func (m *mockPlayer) Start(_ context.Context, req player.Request) (player.Info, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if m.startErr != nil {
		return player.Info{}, m.startErr
	}
	target := req.Target
	if target == "" {
		target = "ytdl://" + req.VideoID
	}
	state := player.StatePlaying
	if req.Paused {
		state = player.StatePaused
	}
	m.info = player.Info{PlaybackID: "pb-1", Target: target, State: state, PID: 4242}
	return m.info, nil
}

func (m *mockPlayer) setState(s player.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cmdErr != nil {
		return m.cmdErr
	}
	if m.info.PlaybackID == "" {
		return player.ErrIdle
	}
	m.info.State = s
	return nil
}

func (m *mockPlayer) Play() error  { return m.setState(player.StatePlaying) }
func (m *mockPlayer) Pause() error { return m.setState(player.StatePaused) }

func (m *mockPlayer) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops++
	code := 0
	m.info = player.Info{State: player.StateIdle, LastExitCode: &code}
	return nil
}

func (m *mockPlayer) Status() player.Info {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.info.State == "" {
		return player.Info{State: player.StateIdle}
	}
	return m.info
}

func (m *mockPlayer) Wait(ctx context.Context) (int, error) {
	if m.waitHold {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	return m.waitCode, m.waitErr
}

func (m *mockPlayer) Close() error { return nil }

// fakeOptions is a test implementation of OptionsSource.
type fakeOptions struct {
	opts mpv.Options
}

func (f fakeOptions) Options() mpv.Options { return f.opts }
func (f fakeOptions) Executable() string   { return "/usr/bin/mpv" }
func (f fakeOptions) Dir() string          { return "/var/cache/mpvnode/mpv" }

// newTestAPI registers the routes on a humatest API, without middleware.
func newTestAPI(t *testing.T, opts *Options) humatest.TestAPI {
	t.Helper()
	_, api := humatest.New(t, huma.DefaultConfig("mpvnode API", "test"))
	s := newServer(api, opts)
	s.registerRoutes()
	return api
}

func decode[T any](t *testing.T, body string) T {
	t.Helper()
	var v T
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		t.Fatalf("decode %q: %v", body, err)
	}
	return v
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t, &Options{Player: &mockPlayer{}})

	resp := api.Get("/api/health")
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d", resp.Code)
	}
	body := decode[map[string]any](t, resp.Body.String())
	if body["status"] != "ok" {
		t.Errorf("unexpected body %v", body)
	}

	if resp := api.Get("/api/version"); resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), "go_version") {
		t.Errorf("version: %d %s", resp.Code, resp.Body.String())
	}
}

func TestPlaybackLifecycle(t *testing.T) {
	p := &mockPlayer{}
	api := newTestAPI(t, &Options{Player: p})

	if resp := api.Get("/api/playback"); !strings.Contains(resp.Body.String(), `"state":"idle"`) {
		t.Errorf("idle status: %s", resp.Body.String())
	}

	resp := api.Post("/api/playback", map[string]any{"video_id": "abc123", "paused": true})
	if resp.Code != http.StatusCreated {
		t.Fatalf("start status = %d: %s", resp.Code, resp.Body.String())
	}
	info := decode[player.Info](t, resp.Body.String())
	if info.Target != "ytdl://abc123" || info.State != player.StatePaused || info.PID != 4242 {
		t.Errorf("unexpected info %+v", info)
	}
	if len(p.requests) != 1 || p.requests[0].VideoID != "abc123" || !p.requests[0].Paused {
		t.Errorf("unexpected requests %+v", p.requests)
	}

	resp = api.Post("/api/playback/play")
	if resp.Code != http.StatusOK || decode[player.Info](t, resp.Body.String()).State != player.StatePlaying {
		t.Errorf("play: %d %s", resp.Code, resp.Body.String())
	}
	resp = api.Post("/api/playback/pause")
	if resp.Code != http.StatusOK || decode[player.Info](t, resp.Body.String()).State != player.StatePaused {
		t.Errorf("pause: %d %s", resp.Code, resp.Body.String())
	}

	resp = api.Delete("/api/playback")
	if resp.Code != http.StatusOK {
		t.Fatalf("stop status = %d", resp.Code)
	}
	info = decode[player.Info](t, resp.Body.String())
	if info.State != player.StateIdle || info.LastExitCode == nil || *info.LastExitCode != 0 {
		t.Errorf("unexpected status after stop %+v", info)
	}
	if p.stops != 1 {
		t.Errorf("stops = %d", p.stops)
	}
}

func TestPlaybackErrors(t *testing.T) {
	notFound := &mpv.Error{Code: mpv.ErrCodeTargetNotFound, Message: "target not found", Cause: fs.ErrNotExist}

	tests := []struct {
		name   string
		player *mockPlayer
		do     func(api humatest.TestAPI) *httptest.ResponseRecorder
		want   int
	}{
		{
			name:   "empty start body",
			player: &mockPlayer{},
			do: func(api humatest.TestAPI) *httptest.ResponseRecorder {
				return api.Post("/api/playback", map[string]any{})
			},
			want: http.StatusBadRequest,
		},
		{
			name:   "missing target",
			player: &mockPlayer{startErr: fmt.Errorf("failed to create playback: %w", notFound)},
			do: func(api humatest.TestAPI) *httptest.ResponseRecorder {
				return api.Post("/api/playback", map[string]any{"target": "/nope.mkv"})
			},
			want: http.StatusNotFound,
		},
		{
			name:   "play while idle",
			player: &mockPlayer{},
			do: func(api humatest.TestAPI) *httptest.ResponseRecorder {
				return api.Post("/api/playback/play")
			},
			want: http.StatusConflict,
		},
		{
			name:   "pause while closing",
			player: &mockPlayer{cmdErr: fmt.Errorf("send: %w", process.ErrClosed)},
			do: func(api humatest.TestAPI) *httptest.ResponseRecorder {
				return api.Post("/api/playback/pause")
			},
			want: http.StatusConflict,
		},
		{
			name:   "wait while idle",
			player: &mockPlayer{waitErr: player.ErrIdle},
			do: func(api humatest.TestAPI) *httptest.ResponseRecorder {
				return api.Get("/api/playback/wait")
			},
			want: http.StatusConflict,
		},
		{
			name:   "wait timeout",
			player: &mockPlayer{waitHold: true},
			do: func(api humatest.TestAPI) *httptest.ResponseRecorder {
				return api.Get("/api/playback/wait?timeout_ms=20")
			},
			want: http.StatusRequestTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t, &Options{Player: tt.player})
			resp := tt.do(api)
			if resp.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", resp.Code, tt.want, resp.Body.String())
			}
		})
	}
}

func TestPlaybackWait(t *testing.T) {
	api := newTestAPI(t, &Options{Player: &mockPlayer{waitCode: 3}})

	resp := api.Get("/api/playback/wait?timeout_ms=1000")
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.Code, resp.Body.String())
	}
	if got := decode[map[string]int](t, resp.Body.String())["exit_code"]; got != 3 {
		t.Errorf("exit_code = %d, want 3", got)
	}
}

func TestToHTTPError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&mpv.Error{Code: mpv.ErrCodeTargetNotFound}, http.StatusNotFound},
		{&mpv.Error{Code: mpv.ErrCodeInvalidOptions}, http.StatusBadRequest},
		{&mpv.Error{Code: mpv.ErrCodeNotInitialized}, http.StatusServiceUnavailable},
		{&mpv.Error{Code: mpv.ErrCodeInitFailed}, http.StatusInternalServerError},
		{player.ErrIdle, http.StatusConflict},
		{player.ErrClosed, http.StatusConflict},
		{player.ErrNoTarget, http.StatusBadRequest},
		{process.ErrClosed, http.StatusConflict},
		{process.ErrInvalidCommand, http.StatusBadRequest},
		{errors.New("pipe broke"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		var se huma.StatusError
		if !errors.As(toHTTPError(tt.err), &se) {
			t.Fatalf("toHTTPError(%v) is not a StatusError", tt.err)
		}
		if se.GetStatus() != tt.want {
			t.Errorf("toHTTPError(%v) = %d, want %d", tt.err, se.GetStatus(), tt.want)
		}
	}
}

func TestPlayerOptions(t *testing.T) {
	api := newTestAPI(t, &Options{Player: &mockPlayer{}})
	if resp := api.Get("/api/options"); resp.Code != http.StatusServiceUnavailable {
		t.Errorf("without factory: status = %d", resp.Code)
	}

	opts := mpv.DefaultOptions()
	opts.Screen = 2
	api = newTestAPI(t, &Options{Player: &mockPlayer{}, Factory: fakeOptions{opts: opts}})
	resp := api.Get("/api/options")
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d", resp.Code)
	}
	body := decode[map[string]any](t, resp.Body.String())
	if body["executable"] != "/usr/bin/mpv" || body["screen"] != float64(2) || body["shutdown_timeout"] != "5s" || body["channel"] != "auto" {
		t.Errorf("unexpected options %v", body)
	}
}

func TestMetricsSnapshot(t *testing.T) {
	api := newTestAPI(t, &Options{Player: &mockPlayer{}})
	metrics.RecordCommand("set pause no", nil)

	resp := api.Get("/api/metrics")
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d", resp.Code)
	}
	if got := decode[metrics.PlaybackStats](t, resp.Body.String()); got.Commands < 1 {
		t.Errorf("commands = %d, want at least 1", got.Commands)
	}
}

func TestLogs(t *testing.T) {
	logging.Initialize(logging.Config{Level: "debug", BufferSize: 50})
	bus := events.New()
	PublishLogs(bus)
	t.Cleanup(func() { logging.SetLogCallback(nil) })

	received := make(chan events.LogEntryEvent, 8)
	unsub := bus.Subscribe(func(e events.LogEntryEvent) {
		if e.Module == "player" {
			received <- e
		}
	})
	defer unsub()

	logging.GetLogger("player").Warn("Playback crashed", "exit_code", 3)
	logging.GetLogger("process").Debug("Process ended")

	select {
	case e := <-received:
		if e.Message != "Playback crashed" || e.Seq == 0 {
			t.Errorf("unexpected log event %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("log entry not published on the bus")
	}

	api := newTestAPI(t, &Options{Player: &mockPlayer{}, EventBus: bus})

	resp := api.Get("/api/logs?module=player&level=warn")
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d", resp.Code)
	}
	body := decode[models.LogsData](t, resp.Body.String())
	if body.Count == 0 || body.Count != len(body.Entries) {
		t.Fatalf("unexpected log response %s", resp.Body.String())
	}
	for _, e := range body.Entries {
		if e.Module != "player" || e.Level == "debug" || e.Level == "info" {
			t.Errorf("filter let through %+v", e)
		}
	}

	last := body.Entries[len(body.Entries)-1].Seq
	resp = api.Get(fmt.Sprintf("/api/logs?since=%d&module=player", last))
	if !strings.Contains(resp.Body.String(), `"count":0`) {
		t.Errorf("since filter: %s", resp.Body.String())
	}

	if resp := api.Get("/api/logs?level=loud"); resp.Code != http.StatusBadRequest {
		t.Errorf("unknown level: status = %d", resp.Code)
	}
}

func basicAuth(user, pass string) string {
	return base64.StdEncoding.EncodeToString([]byte(user + ":" + pass))
}

func TestBasicAuth(t *testing.T) {
	server := NewServer(&Options{
		AuthUsername:      "admin",
		AuthPassword:      "secret",
		Player:            &mockPlayer{},
		PrometheusHandler: metrics.HTTPHandler(),
	})
	ts := httptest.NewServer(server.GetMux())
	defer ts.Close()

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"health is public", "/api/health", "", http.StatusOK},
		{"metrics is public", "/metrics", "", http.StatusOK},
		{"no credentials", "/api/playback", "", http.StatusUnauthorized},
		{"wrong scheme", "/api/playback", "Bearer abc", http.StatusUnauthorized},
		{"bad encoding", "/api/playback", "Basic !!!", http.StatusUnauthorized},
		{"wrong password", "/api/playback", "Basic " + basicAuth("admin", "nope"), http.StatusUnauthorized},
		{"valid", "/api/playback", "Basic " + basicAuth("admin", "secret"), http.StatusOK},
		{"query credentials", "/api/playback?auth=" + basicAuth("admin", "secret"), "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, ts.URL+tt.path, nil)
			if err != nil {
				t.Fatal(err)
			}
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatal(err)
			}
			resp.Body.Close()

			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
			if tt.want == http.StatusUnauthorized && resp.Header.Get("WWW-Authenticate") != authRealm {
				t.Errorf("missing WWW-Authenticate header")
			}
		})
	}
}

func TestRequestIDAndCORS(t *testing.T) {
	server := NewServer(&Options{Player: &mockPlayer{}, CORSOrigin: "https://panel.local"})
	ts := httptest.NewServer(server.GetMux())
	defer ts.Close()

	const id = "6f1c1f8e-9a3b-4f7e-8d3a-2b1c0e4d5f6a"
	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/playback", nil)
	req.Header.Set(RequestIDHeader, id)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get(RequestIDHeader); got != id {
		t.Errorf("request id = %q, want %q", got, id)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "https://panel.local" {
		t.Errorf("allow origin = %q", got)
	}

	resp, err = http.Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get(RequestIDHeader); got == "" || got == id {
		t.Errorf("expected a generated request id, got %q", got)
	}

	req, _ = http.NewRequest(http.MethodOptions, ts.URL+"/api/playback", nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("preflight status = %d", resp.StatusCode)
	}
}

func TestEventsStream(t *testing.T) {
	bus := events.New()
	server := NewServer(&Options{Player: &mockPlayer{}, EventBus: bus})
	ts := httptest.NewServer(server.GetMux())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/events", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("Content-Type = %q", ct)
	}

	lines := make(chan string, 64)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	waitFor := func(prefix string) string {
		t.Helper()
		for {
			select {
			case line, ok := <-lines:
				if !ok {
					t.Fatalf("stream ended before %q", prefix)
				}
				if strings.HasPrefix(line, prefix) {
					return line
				}
			case <-ctx.Done():
				t.Fatalf("timeout waiting for %q", prefix)
			}
		}
	}

	waitFor("event: status")
	if data := waitFor("data:"); !strings.Contains(data, `"state":"idle"`) {
		t.Errorf("unexpected status data %q", data)
	}

	// The subscription is live once the status has been sent.
	bus.Publish(events.PlaybackStartedEvent{PlaybackID: "pb-9", Target: "/srv/a.mkv", PID: 7})
	waitFor("event: playback-started")
	if data := waitFor("data:"); !strings.Contains(data, `"playback_id":"pb-9"`) {
		t.Errorf("unexpected event data %q", data)
	}
}

func TestNewServerRequiresPlayer(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic without a player")
		}
	}()
	NewServer(&Options{})
}
