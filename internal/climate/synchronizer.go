package climate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/remoctl/internal/ledger"
	"github.com/dokzlo13/remoctl/internal/remo"
)

// API is the remote appliance service used by the synchronizer and the commander
type API interface {
	Devices(ctx context.Context) ([]remo.Device, error)
	Appliances(ctx context.Context) ([]remo.Appliance, error)
	UpdateAirconSettings(ctx context.Context, applianceID string, settings remo.AirconSettingsRequest) error
}

// Recorder receives sync and command outcomes for auditing
type Recorder interface {
	Append(r ledger.Record) error
}

// Target identifies the sensor device and aircon appliance of one installation
type Target struct {
	SensorDeviceID string
	ApplianceID    string
	SensorType     string // newest_events key holding the room temperature
}

// Synchronizer projects remote snapshots into the session
type Synchronizer struct {
	api      API
	session  *Session
	target   Target
	recorder Recorder
	now      func() time.Time
}

// NewSynchronizer creates a new Synchronizer. recorder may be nil.
func NewSynchronizer(api API, session *Session, target Target, recorder Recorder) *Synchronizer {
	if target.SensorType == "" {
		target.SensorType = remo.SensorTemperature
	}
	return &Synchronizer{
		api:      api,
		session:  session,
		target:   target,
		recorder: recorder,
		now:      time.Now,
	}
}

// Synchronize fetches sensor and appliance snapshots and applies them to the session.
// On failure the last-known values stay in place and the session carries the error message.
// Loading is cleared either way.
func (s *Synchronizer) Synchronize(ctx context.Context) (Snapshot, error) {
	snap, err := s.fetch(ctx)
	if err != nil {
		s.session.FailSync(describeSyncError(err))
		s.record(ledger.EventSyncFailed, map[string]any{"error": err.Error()})
		log.Warn().Err(err).Str("appliance", s.target.ApplianceID).Msg("Synchronization failed")
		return Snapshot{}, err
	}

	s.session.ApplySnapshot(snap, s.now())
	s.record(ledger.EventSyncSucceeded, map[string]any{
		"room_temperature":   snap.RoomTemperature,
		"power":              string(snap.Power),
		"mode":               string(snap.Mode),
		"target_temperature": snap.TargetTemperature,
	})

	log.Debug().
		Float64("room", snap.RoomTemperature).
		Str("power", string(snap.Power)).
		Str("mode", string(snap.Mode)).
		Float64("target", snap.TargetTemperature).
		Msg("Synchronized")

	return snap, nil
}

func (s *Synchronizer) fetch(ctx context.Context) (Snapshot, error) {
	devices, err := s.api.Devices(ctx)
	if err != nil {
		return Snapshot{}, &SyncError{Stage: StageFetchDevices, Err: err}
	}

	appliances, err := s.api.Appliances(ctx)
	if err != nil {
		return Snapshot{}, &SyncError{Stage: StageFetchAppliances, Err: err}
	}

	device, err := remo.FindDevice(devices, s.target.SensorDeviceID)
	if err != nil {
		return Snapshot{}, &SyncError{Stage: StageSelect, Err: err}
	}
	appliance, err := remo.FindAppliance(appliances, s.target.ApplianceID)
	if err != nil {
		return Snapshot{}, &SyncError{Stage: StageSelect, Err: err}
	}

	snap, err := parseSnapshot(device, appliance, s.target.SensorType)
	if err != nil {
		return Snapshot{}, &SyncError{Stage: StageParse, Err: err}
	}
	return snap, nil
}

func parseSnapshot(device *remo.Device, appliance *remo.Appliance, sensorType string) (Snapshot, error) {
	event, ok := device.NewestEvents[sensorType]
	if !ok {
		return Snapshot{}, fmt.Errorf("device %s has no %q event", device.ID, sensorType)
	}
	if appliance.Settings == nil {
		return Snapshot{}, fmt.Errorf("appliance %s has no aircon settings", appliance.ID)
	}

	mode, err := ParseMode(appliance.Settings.Mode)
	if err != nil {
		return Snapshot{}, err
	}
	target, err := ParseTemperature(appliance.Settings.Temperature)
	if err != nil {
		return Snapshot{}, err
	}

	return Snapshot{
		RoomTemperature:   event.Value,
		Power:             ParsePower(appliance.Settings.Button),
		Mode:              mode,
		TargetTemperature: target,
	}, nil
}

func describeSyncError(err error) string {
	summary, cause := "synchronization failed", err
	var syncErr *SyncError
	if errors.As(err, &syncErr) {
		summary, cause = syncErr.Summary(), syncErr.Err
	}

	var statusErr *remo.StatusError
	switch {
	case errors.As(cause, &statusErr) && statusErr.StatusCode == http.StatusUnauthorized:
		return summary + ": unauthorized, check the API token"
	case errors.Is(cause, context.DeadlineExceeded):
		return summary + ": request timed out"
	default:
		return summary + ": " + cause.Error()
	}
}

func (s *Synchronizer) record(eventType ledger.EventType, payload map[string]any) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Append(ledger.Record{
		Type:     eventType,
		Source:   "sync",
		TargetID: s.target.ApplianceID,
		Payload:  payload,
	}); err != nil {
		log.Warn().Err(err).Str("event", string(eventType)).Msg("Failed to record event")
	}
}
