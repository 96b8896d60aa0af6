package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dokzlo13/remoctl/internal/climate"
	"github.com/dokzlo13/remoctl/internal/config"
	"github.com/dokzlo13/remoctl/internal/ledger"
)

// fakeRemo serves a tiny slice of the cloud API
type fakeRemo struct {
	mu    sync.Mutex
	forms []string
}

func (f *fakeRemo) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer test-token" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	switch r.URL.Path {
	case "/1/devices":
		io.WriteString(w, `[{"id":"sensor","newest_events":{"te":{"val":24}}}]`)
	case "/1/appliances":
		io.WriteString(w, `[{"id":"aircon","type":"AC","settings":{"temp":"20","mode":"cool","button":""}}]`)
	case "/1/appliances/aircon/aircon_settings":
		r.ParseForm()
		f.mu.Lock()
		f.forms = append(f.forms, r.PostForm.Encode())
		f.mu.Unlock()
		io.WriteString(w, `{}`)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func testConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte(`
remo:
  base_url: ` + baseURL + `/1/
  token: test-token
  rate_limit_rps: 1000
climate:
  sensor_device_id: sensor
  appliance_id: aircon
poller:
  interval: 1h
`))
	require.NoError(t, err)
	return cfg
}

func TestAppLifecycle(t *testing.T) {
	remoSrv := &fakeRemo{}
	srv := httptest.NewServer(remoSrv)
	t.Cleanup(srv.Close)

	a, err := New(testConfig(t, srv.URL))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, a.Start(ctx))

	// The poller synchronizes immediately
	require.Eventually(t, func() bool { return !a.Session().State().Loading }, 2*time.Second, 10*time.Millisecond)
	st := a.Session().State()
	assert.Equal(t, 24.0, st.RoomTemperature)
	assert.Equal(t, climate.ModeCool, st.Mode)
	assert.Equal(t, 20.0, st.TargetTemperature)
	assert.Empty(t, st.SyncError)

	require.NoError(t, a.Commander().SetMode(ctx, climate.ModeAuto))
	remoSrv.mu.Lock()
	assert.Equal(t, []string{"button=power-on&operation_mode=auto&temperature=2"}, remoSrv.forms)
	remoSrv.mu.Unlock()

	entries, err := a.History(10)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, ledger.EventCommandCompleted, entries[0].Type)
	assert.Equal(t, "command", entries[0].Source)
	assert.NotEmpty(t, entries[0].CommandID)

	require.NoError(t, a.Stop())
	a.Wait()
}

func TestStopWaitsForInFlightSync(t *testing.T) {
	entered := make(chan struct{}, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case entered <- struct{}{}:
		default:
		}
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)

	a, err := New(testConfig(t, srv.URL))
	require.NoError(t, err)
	require.NoError(t, a.Start(context.Background()))

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not start a sync")
	}

	require.NoError(t, a.Stop())

	select {
	case <-a.services.Climate.Done():
	default:
		t.Fatal("database closed while a sync was still running")
	}
	assert.NotEmpty(t, a.Session().State().SyncError)
}

func TestStatusHandler(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")
	session := climate.NewSession()
	h := NewStatusService(cfg, session).Handler()

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	assert.Equal(t, http.StatusOK, get("/health").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get("/ready").Code)

	session.ApplySnapshot(climate.Snapshot{
		RoomTemperature:   22.5,
		Power:             climate.PowerOn,
		Mode:              climate.ModeWarm,
		TargetTemperature: 24,
	}, time.Now())

	assert.Equal(t, http.StatusOK, get("/ready").Code)

	rec := get("/state")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 22.5, body["room_temperature"])
	assert.Equal(t, "on", body["power"])
	assert.Equal(t, "warm", body["mode"])
	assert.Equal(t, 24.0, body["target_temperature"])
	assert.Equal(t, false, body["loading"])
	assert.NotContains(t, body, "sync_error")
	assert.Contains(t, body, "synced_at")
}
