package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/kelvinworks/cryo-core/internal/history"
	"github.com/kelvinworks/cryo-core/internal/infrastructure/config"
	"github.com/kelvinworks/cryo-core/internal/infrastructure/logging"
	"github.com/kelvinworks/cryo-core/internal/infrastructure/tsdb"
	"github.com/kelvinworks/cryo-core/internal/itc"
)

// scriptedTransport is an in-memory instrument link with canned responses
// keyed by full request line. Unscripted requests fail the exchange.
type scriptedTransport struct {
	mu        sync.Mutex
	responses map[string]string
	pending   string
}

func newScriptedTransport(extra map[string]string) *scriptedTransport {
	responses := map[string]string{
		"READ:SYS:CAT": "STAT:DEV:MB0.H1:HTR:DEV:MB1.T1:TEMP",
	}
	for k, v := range extra {
		responses[k] = v
	}
	return &scriptedTransport{responses: responses}
}

func (t *scriptedTransport) WriteLine(line string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending = line
	return nil
}

func (t *scriptedTransport) ReadLine() (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	response, ok := t.responses[t.pending]
	if !ok {
		return "", itc.ErrTimeout
	}
	return response, nil
}

func (t *scriptedTransport) Clear() error { return nil }
func (t *scriptedTransport) Close() error { return nil }

// stubStore is a canned history store for handler tests.
type stubStore struct {
	readings []history.ReadingEntry
	alarms   []history.AlarmEntry
	lastUID  string
	lastSig  string
	lastLim  int
}

func (s *stubStore) RecordReading(context.Context, string, string, float64, string) error {
	return nil
}

func (s *stubStore) Readings(_ context.Context, uid, signal string, limit int) ([]history.ReadingEntry, error) {
	s.lastUID, s.lastSig, s.lastLim = uid, signal, limit
	return s.readings, nil
}

func (s *stubStore) RecordAlarm(context.Context, string, string) error { return nil }

func (s *stubStore) Alarms(_ context.Context, uid string, limit int) ([]history.AlarmEntry, error) {
	s.lastUID, s.lastLim = uid, limit
	return s.alarms, nil
}

func testLogger() *logging.Logger {
	return logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stderr"}, "test")
}

// newTestServer builds a server over a scripted instrument link and
// returns its router for httptest-driven requests.
func newTestServer(t *testing.T, extra map[string]string, store history.Store) (http.Handler, *scriptedTransport) {
	t.Helper()
	transport := newScriptedTransport(extra)
	driver, err := itc.Connect(transport)
	if err != nil {
		t.Fatalf("Connect() unexpected error: %v", err)
	}

	server, err := New(Deps{
		Config:  config.APIConfig{Host: "127.0.0.1", Port: 0},
		Logger:  testLogger(),
		Driver:  driver,
		History: store,
		Version: "test",
	})
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}
	return server.buildRouter(), transport
}

// doRequest performs one request against the router and decodes the JSON
// response body into out (when non-nil).
func doRequest(t *testing.T, router http.Handler, method, path, body string, out any) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if out != nil && rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("decoding %s %s response: %v\nbody: %s", method, path, err, rec.Body.String())
		}
	}
	return rec
}

// === Health and metrics ===

func TestHealth(t *testing.T) {
	router, _ := newTestServer(t, nil, nil)

	var resp map[string]any
	rec := doRequest(t, router, http.MethodGet, "/api/v1/health", "", &resp)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if resp["status"] != "ok" {
		t.Errorf("status field = %v, want ok", resp["status"])
	}
	if resp["instrument"] != "connected" {
		t.Errorf("instrument field = %v, want connected", resp["instrument"])
	}
}

func TestMetrics(t *testing.T) {
	router, _ := newTestServer(t, nil, nil)

	var resp metricsResponse
	rec := doRequest(t, router, http.MethodGet, "/api/v1/metrics", "", &resp)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if resp.Instrument.Status != "connected" {
		t.Errorf("instrument status = %q, want connected", resp.Instrument.Status)
	}
	if resp.Instrument.ModuleCount != 2 {
		t.Errorf("module count = %d, want 2", resp.Instrument.ModuleCount)
	}
	if resp.Runtime.Goroutines == 0 {
		t.Error("goroutine count should be non-zero")
	}
}

// === System endpoints ===

func TestGetSystem(t *testing.T) {
	router, _ := newTestServer(t, map[string]string{
		"READ:SYS:MAN:SERL": "STAT:SYS:MAN:SERL:183650052",
		"READ:SYS:MAN:FVER": "STAT:SYS:MAN:FVER:2.6.0",
		"READ:SYS:MAN:HVER": "STAT:SYS:MAN:HVER:1.02",
		"READ:SYS:FLSH":     "STAT:SYS:FLSH:1024",
	}, nil)

	var resp systemResponse
	rec := doRequest(t, router, http.MethodGet, "/api/v1/system", "", &resp)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\nbody: %s", rec.Code, rec.Body.String())
	}
	if resp.SerialNumber != "183650052" {
		t.Errorf("serial = %q, want 183650052", resp.SerialNumber)
	}
	if resp.FirmwareVersion != "2.6.0" {
		t.Errorf("firmware = %q, want 2.6.0", resp.FirmwareVersion)
	}
	if resp.FlashFreeKB != 1024 {
		t.Errorf("flash free = %v, want 1024", resp.FlashFreeKB)
	}
}

func TestUpdateDisplay(t *testing.T) {
	router, _ := newTestServer(t, map[string]string{
		"SET:SYS:DISP:BRIG:50.000000": "STAT:SET:SYS:DISP:BRIG:50.000000:VALID",
		"READ:SYS:DISP:DIMA":          "STAT:SYS:DISP:DIMA:OFF",
		"READ:SYS:DISP:DIMT":          "STAT:SYS:DISP:DIMT:10",
	}, nil)

	var resp displayResponse
	rec := doRequest(t, router, http.MethodPatch, "/api/v1/system/display",
		`{"brightness": 50}`, &resp)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\nbody: %s", rec.Code, rec.Body.String())
	}
	// The echoed settings come from the device-confirmed cache.
	if resp.Brightness != 50 {
		t.Errorf("brightness = %v, want 50", resp.Brightness)
	}
	if resp.AutoDim != "OFF" {
		t.Errorf("auto_dim = %q, want OFF", resp.AutoDim)
	}
}

func TestUpdateDisplayRejectsOutOfRange(t *testing.T) {
	router, _ := newTestServer(t, nil, nil)

	var resp Error
	rec := doRequest(t, router, http.MethodPatch, "/api/v1/system/display",
		`{"brightness": 150}`, &resp)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	if resp.Code != ErrCodeValidation {
		t.Errorf("error code = %q, want %q", resp.Code, ErrCodeValidation)
	}
}

func TestUpdateDisplayRequiresField(t *testing.T) {
	router, _ := newTestServer(t, nil, nil)

	rec := doRequest(t, router, http.MethodPatch, "/api/v1/system/display", `{}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSetClockRejectsInvalidTime(t *testing.T) {
	router, _ := newTestServer(t, nil, nil)

	rec := doRequest(t, router, http.MethodPut, "/api/v1/system/clock",
		`{"time": "25:00:00"}`, nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422\nbody: %s", rec.Code, rec.Body.String())
	}
}

func TestResetRequiresConfirmation(t *testing.T) {
	router, _ := newTestServer(t, map[string]string{
		"SET:SYS:RST": "STAT:SET:SYS:RST:VALID",
	}, nil)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/system/reset",
		`{"confirm": "yes please"}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("wrong phrase: status = %d, want 400", rec.Code)
	}

	rec = doRequest(t, router, http.MethodPost, "/api/v1/system/reset",
		`{"confirm": "RESET CONTROLLER"}`, nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202\nbody: %s", rec.Code, rec.Body.String())
	}
}

// === Module endpoints ===

func TestListModules(t *testing.T) {
	router, _ := newTestServer(t, map[string]string{
		"READ:DEV:MB0.H1:HTR:NICK":  "STAT:DEV:MB0.H1:HTR:NICK:MainHeater",
		"READ:DEV:MB1.T1:TEMP:NICK": "STAT:DEV:MB1.T1:TEMP:NICK:Probe",
	}, nil)

	var resp struct {
		Modules []moduleSummary `json:"modules"`
		Count   int             `json:"count"`
	}
	rec := doRequest(t, router, http.MethodGet, "/api/v1/modules", "", &resp)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if resp.Count != 2 {
		t.Fatalf("count = %d, want 2", resp.Count)
	}
	if resp.Modules[0].UID != "MB0.H1" || resp.Modules[0].Class != "HTR" {
		t.Errorf("module 0 = %+v, want MB0.H1/HTR", resp.Modules[0])
	}
	if resp.Modules[1].Nick != "Probe" {
		t.Errorf("module 1 nick = %q, want Probe", resp.Modules[1].Nick)
	}
}

func TestGetModuleUnknownUID(t *testing.T) {
	router, _ := newTestServer(t, nil, nil)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/modules/MB9.X9", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestReadAttribute(t *testing.T) {
	router, _ := newTestServer(t, map[string]string{
		"READ:DEV:MB1.T1:TEMP:SIG:TEMP": "STAT:DEV:MB1.T1:TEMP:SIG:TEMP:4.2K",
	}, nil)

	var resp attributeValueResponse
	rec := doRequest(t, router, http.MethodGet,
		"/api/v1/modules/MB1.T1/attributes/SIG:TEMP", "", &resp)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\nbody: %s", rec.Code, rec.Body.String())
	}
	if resp.Value != "4.2K" {
		t.Errorf("value = %q, want 4.2K", resp.Value)
	}
}

func TestReadAttributeUnknownToken(t *testing.T) {
	router, _ := newTestServer(t, nil, nil)

	rec := doRequest(t, router, http.MethodGet,
		"/api/v1/modules/MB1.T1/attributes/NOPE", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestWriteAttribute(t *testing.T) {
	router, _ := newTestServer(t, map[string]string{
		"SET:DEV:MB1.T1:TEMP:NICK:Probe2": "STAT:SET:DEV:MB1.T1:TEMP:NICK:Probe2:VALID",
	}, nil)

	var resp attributeValueResponse
	rec := doRequest(t, router, http.MethodPut,
		"/api/v1/modules/MB1.T1/attributes/NICK", `{"value": "Probe2"}`, &resp)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\nbody: %s", rec.Code, rec.Body.String())
	}
	// Confirmed value is served from the write-through cache.
	if resp.Value != "Probe2" {
		t.Errorf("value = %q, want Probe2", resp.Value)
	}
}

func TestWriteAttributeReadOnly(t *testing.T) {
	router, _ := newTestServer(t, nil, nil)

	rec := doRequest(t, router, http.MethodPut,
		"/api/v1/modules/MB1.T1/attributes/MAN:SERL", `{"value": "x"}`, nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405\nbody: %s", rec.Code, rec.Body.String())
	}
}

func TestModuleSignals(t *testing.T) {
	router, _ := newTestServer(t, map[string]string{
		"READ:DEV:MB1.T1:TEMP:SIG:TEMP": "STAT:DEV:MB1.T1:TEMP:SIG:TEMP:4.2K",
		"READ:DEV:MB1.T1:TEMP:SIG:VOLT": "STAT:DEV:MB1.T1:TEMP:SIG:VOLT:0.003V",
		"READ:DEV:MB1.T1:TEMP:SIG:RES":  "STAT:DEV:MB1.T1:TEMP:SIG:RES:100.5Ohm",
		"READ:DEV:MB1.T1:TEMP:SIG:SLOP": "STAT:DEV:MB1.T1:TEMP:SIG:SLOP:19.061mK/min",
	}, nil)

	var resp struct {
		Class   string                 `json:"class"`
		Signals map[string]itc.Reading `json:"signals"`
		Errors  map[string]string      `json:"errors"`
	}
	rec := doRequest(t, router, http.MethodGet, "/api/v1/modules/MB1.T1/signals", "", &resp)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\nbody: %s", rec.Code, rec.Body.String())
	}
	if resp.Class != "TEMP" {
		t.Errorf("class = %q, want TEMP", resp.Class)
	}
	if len(resp.Signals) != 4 {
		t.Fatalf("signals = %d, want 4", len(resp.Signals))
	}
	if got := resp.Signals["SIG:TEMP"]; got.Value != 4.2 || got.Unit != "K" {
		t.Errorf("SIG:TEMP = %+v, want {4.2 K}", got)
	}
	if got := resp.Signals["SIG:SLOP"]; got.Unit != "mK/min" {
		t.Errorf("SIG:SLOP unit = %q, want mK/min", got.Unit)
	}
	if len(resp.Errors) != 0 {
		t.Errorf("errors = %v, want none", resp.Errors)
	}
}

func TestModuleSignalsPartialFailure(t *testing.T) {
	// Heater voltage is scripted; current is not, so it times out and
	// lands in the errors map without failing the snapshot.
	router, _ := newTestServer(t, map[string]string{
		"READ:DEV:MB0.H1:HTR:SIG:VOLT": "STAT:DEV:MB0.H1:HTR:SIG:VOLT:2.50V",
	}, nil)

	var resp struct {
		Signals map[string]itc.Reading `json:"signals"`
		Errors  map[string]string      `json:"errors"`
	}
	rec := doRequest(t, router, http.MethodGet, "/api/v1/modules/MB0.H1/signals", "", &resp)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\nbody: %s", rec.Code, rec.Body.String())
	}
	if got := resp.Signals["SIG:VOLT"]; got.Value != 2.5 {
		t.Errorf("SIG:VOLT = %+v, want value 2.5", got)
	}
	if _, ok := resp.Errors["SIG:CURR"]; !ok {
		t.Error("expected SIG:CURR in errors map")
	}
}

func TestInvalidateClearsCache(t *testing.T) {
	router, _ := newTestServer(t, map[string]string{
		"READ:DEV:MB1.T1:TEMP:NICK": "STAT:DEV:MB1.T1:TEMP:NICK:Probe",
	}, nil)

	rec := doRequest(t, router, http.MethodPost,
		"/api/v1/modules/MB1.T1/invalidate", `{"tokens": ["NICK"]}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	rec = doRequest(t, router, http.MethodPost,
		"/api/v1/modules/MB1.T1/invalidate", `{}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("clear-all status = %d, want 200", rec.Code)
	}
}

// === History endpoints ===

func TestModuleReadings(t *testing.T) {
	store := &stubStore{
		readings: []history.ReadingEntry{
			{ID: 2, Module: "MB1.T1", Signal: "SIG:TEMP", Value: 4.2, Unit: "K"},
			{ID: 1, Module: "MB1.T1", Signal: "SIG:TEMP", Value: 4.3, Unit: "K"},
		},
	}
	router, _ := newTestServer(t, nil, store)

	var resp struct {
		Readings []history.ReadingEntry `json:"readings"`
		Count    int                    `json:"count"`
	}
	rec := doRequest(t, router, http.MethodGet,
		"/api/v1/modules/MB1.T1/readings?signal=SIG:TEMP&limit=10", "", &resp)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\nbody: %s", rec.Code, rec.Body.String())
	}
	if resp.Count != 2 {
		t.Errorf("count = %d, want 2", resp.Count)
	}
	if store.lastUID != "MB1.T1" || store.lastSig != "SIG:TEMP" || store.lastLim != 10 {
		t.Errorf("store query = (%q, %q, %d), want (MB1.T1, SIG:TEMP, 10)",
			store.lastUID, store.lastSig, store.lastLim)
	}
}

func TestModuleReadingsBadLimit(t *testing.T) {
	router, _ := newTestServer(t, nil, &stubStore{})

	for _, limit := range []string{"abc", "-1", "0", "9999"} {
		rec := doRequest(t, router, http.MethodGet,
			"/api/v1/modules/MB1.T1/readings?limit="+limit, "", nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("limit=%s: status = %d, want 400", limit, rec.Code)
		}
	}
}

func TestModuleReadingsWithoutStore(t *testing.T) {
	router, _ := newTestServer(t, nil, nil)

	rec := doRequest(t, router, http.MethodGet,
		"/api/v1/modules/MB1.T1/readings", "", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestLiveAlarms(t *testing.T) {
	router, _ := newTestServer(t, map[string]string{
		"READ:SYS:ALRM": "STAT:SYS:ALRM:MB0.H1\topen circuit;MB1.T1\tover temperature;",
	}, nil)

	var resp struct {
		Alarms map[string]string `json:"alarms"`
		Count  int               `json:"count"`
	}
	rec := doRequest(t, router, http.MethodGet, "/api/v1/alarms", "", &resp)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\nbody: %s", rec.Code, rec.Body.String())
	}
	if resp.Count != 2 {
		t.Fatalf("count = %d, want 2", resp.Count)
	}
	if resp.Alarms["MB0.H1"] != "open circuit" {
		t.Errorf("MB0.H1 alarm = %q, want open circuit", resp.Alarms["MB0.H1"])
	}
}

func TestAlarmHistory(t *testing.T) {
	store := &stubStore{
		alarms: []history.AlarmEntry{
			{ID: 1, Module: "MB0.H1", Message: "open circuit"},
		},
	}
	router, _ := newTestServer(t, nil, store)

	var resp struct {
		Count int `json:"count"`
	}
	rec := doRequest(t, router, http.MethodGet,
		"/api/v1/alarms/history?module=MB0.H1", "", &resp)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\nbody: %s", rec.Code, rec.Body.String())
	}
	if resp.Count != 1 {
		t.Errorf("count = %d, want 1", resp.Count)
	}
	if store.lastUID != "MB0.H1" {
		t.Errorf("store query module = %q, want MB0.H1", store.lastUID)
	}
}

// === Attribute write policies over REST ===

func TestWriteAttributeHeaterVoltagePolicy(t *testing.T) {
	router, _ := newTestServer(t, map[string]string{
		"READ:DEV:MB0.H1:HTR:VLIM": "STAT:DEV:MB0.H1:HTR:VLIM:10.0000",
	}, nil)

	// Above the live limit: rejected by validation, never a wire write
	// (an attempted SET would be unscripted and surface as 504).
	rec := doRequest(t, router, http.MethodPut,
		"/api/v1/modules/MB0.H1/attributes/SIG:VOLT", `{"value":"12"}`, nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422\nbody: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, router, http.MethodPut,
		"/api/v1/modules/MB0.H1/attributes/SIG:VOLT", `{"value":"junk"}`, nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422 for non-numeric value\nbody: %s", rec.Code, rec.Body.String())
	}
}

// === Reading series ===

// newSeriesBackend stands in for VictoriaMetrics, capturing the PromQL
// the handler sends.
func newSeriesBackend(t *testing.T, gotQuery *string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			w.WriteHeader(http.StatusOK)
		case "/api/v1/query_range":
			*gotQuery = r.URL.Query().Get("query")
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"success","data":{"result":[]}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

// newTestServerWithTSDB builds a server whose series endpoint is backed
// by the stub VictoriaMetrics server.
func newTestServerWithTSDB(t *testing.T, backend *httptest.Server) http.Handler {
	t.Helper()
	transport := newScriptedTransport(nil)
	driver, err := itc.Connect(transport)
	if err != nil {
		t.Fatalf("Connect() unexpected error: %v", err)
	}
	client, err := tsdb.Connect(context.Background(), config.TSDBConfig{Enabled: true, URL: backend.URL})
	if err != nil {
		t.Fatalf("tsdb.Connect() unexpected error: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	server, err := New(Deps{
		Config:  config.APIConfig{Host: "127.0.0.1", Port: 0},
		Logger:  testLogger(),
		Driver:  driver,
		TSDB:    client,
		Version: "test",
	})
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}
	return server.buildRouter()
}

func TestReadingSeries(t *testing.T) {
	var gotQuery string
	backend := newSeriesBackend(t, &gotQuery)
	defer backend.Close()
	router := newTestServerWithTSDB(t, backend)

	var resp struct {
		UID    string          `json:"uid"`
		Signal string          `json:"signal"`
		Series json.RawMessage `json:"series"`
	}
	rec := doRequest(t, router, http.MethodGet,
		"/api/v1/modules/MB1.T1/readings/series?signal=SIG:TEMP&window=2h&step=5m", "", &resp)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\nbody: %s", rec.Code, rec.Body.String())
	}
	if resp.UID != "MB1.T1" || resp.Signal != "SIG:TEMP" {
		t.Errorf("response identifies %s/%s, want MB1.T1/SIG:TEMP", resp.UID, resp.Signal)
	}
	for _, label := range []string{`module="MB1.T1"`, `signal="SIG:TEMP"`} {
		if !strings.Contains(gotQuery, label) {
			t.Errorf("query %q does not select %s", gotQuery, label)
		}
	}
	if len(resp.Series) == 0 {
		t.Error("series payload is empty")
	}
}

func TestReadingSeriesRequiresSignal(t *testing.T) {
	var gotQuery string
	backend := newSeriesBackend(t, &gotQuery)
	defer backend.Close()
	router := newTestServerWithTSDB(t, backend)

	rec := doRequest(t, router, http.MethodGet,
		"/api/v1/modules/MB1.T1/readings/series", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	rec = doRequest(t, router, http.MethodGet,
		"/api/v1/modules/MB1.T1/readings/series?signal=SIG:TEMP&window=soon", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for malformed window", rec.Code)
	}
}

func TestReadingSeriesWithoutTSDB(t *testing.T) {
	router, _ := newTestServer(t, nil, nil)

	rec := doRequest(t, router, http.MethodGet,
		"/api/v1/modules/MB1.T1/readings/series?signal=SIG:TEMP", "", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

// === Dependency validation ===

func TestNewRequiresDriver(t *testing.T) {
	_, err := New(Deps{Logger: testLogger()})
	if err == nil {
		t.Fatal("New() without driver should fail")
	}
}

func TestNewRequiresLogger(t *testing.T) {
	transport := newScriptedTransport(nil)
	driver, err := itc.Connect(transport)
	if err != nil {
		t.Fatalf("Connect() unexpected error: %v", err)
	}
	if _, err := New(Deps{Driver: driver}); err == nil {
		t.Fatal("New() without logger should fail")
	}
}
