package climate

import (
	"context"
	"sync"

	"github.com/dokzlo13/remoctl/internal/ledger"
	"github.com/dokzlo13/remoctl/internal/remo"
)

// fakeAPI serves canned snapshots and records commands.
// Setting gate makes UpdateAirconSettings block until a value is sent on it.
type fakeAPI struct {
	mu         sync.Mutex
	devices    []remo.Device
	appliances []remo.Appliance
	devicesErr    error
	appliancesErr error
	updateErr     error
	requests   []remo.AirconSettingsRequest

	gate    chan struct{}
	entered chan struct{}
}

func newFakeAPI(room float64, settings remo.AirconSettings) *fakeAPI {
	return &fakeAPI{
		devices: []remo.Device{
			{ID: "hall", NewestEvents: map[string]remo.SensorValue{"te": {Value: 10}}},
			{ID: "living", NewestEvents: map[string]remo.SensorValue{"te": {Value: room}}},
		},
		appliances: []remo.Appliance{
			{ID: "tv", Type: "TV"},
			{ID: "aircon", Type: "AC", Settings: &settings},
		},
	}
}

func (f *fakeAPI) Devices(ctx context.Context) ([]remo.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.devicesErr != nil {
		return nil, f.devicesErr
	}
	return append([]remo.Device(nil), f.devices...), nil
}

func (f *fakeAPI) Appliances(ctx context.Context) ([]remo.Appliance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appliancesErr != nil {
		return nil, f.appliancesErr
	}
	return append([]remo.Appliance(nil), f.appliances...), nil
}

func (f *fakeAPI) UpdateAirconSettings(ctx context.Context, applianceID string, settings remo.AirconSettingsRequest) error {
	f.mu.Lock()
	f.requests = append(f.requests, settings)
	gate, entered, err := f.gate, f.entered, f.updateErr
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (f *fakeAPI) setDevicesErr(err error) {
	f.mu.Lock()
	f.devicesErr = err
	f.mu.Unlock()
}

func (f *fakeAPI) lastRequest() remo.AirconSettingsRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return remo.AirconSettingsRequest{}
	}
	return f.requests[len(f.requests)-1]
}

type recordedEvent struct {
	eventType ledger.EventType
	commandID string
	source    string
}

type fakeRecorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *fakeRecorder) Append(rec ledger.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{eventType: rec.Type, commandID: rec.CommandID, source: rec.Source})
	return nil
}

func (r *fakeRecorder) types() []ledger.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ledger.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.eventType)
	}
	return out
}

var testTarget = Target{SensorDeviceID: "living", ApplianceID: "aircon"}

func newTestCommander(api API, rec Recorder, policy StepPolicy) (*Commander, *Session) {
	session := NewSession()
	syncer := NewSynchronizer(api, session, testTarget, rec)
	cmd := NewCommander(api, session, syncer, CommanderConfig{
		ApplianceID: testTarget.ApplianceID,
		StepPolicy:  policy,
	}, rec)
	return cmd, session
}
