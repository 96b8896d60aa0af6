package climate

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/remoctl/internal/ledger"
	"github.com/dokzlo13/remoctl/internal/remo"
)

// StepPolicy decides what happens to an optimistic target when the step command fails
type StepPolicy int

const (
	// StepKeep leaves the optimistic target in place until the next sync
	StepKeep StepPolicy = iota
	// StepRollback restores the previous target
	StepRollback
)

// ParseStepPolicy parses "keep" or "rollback"
func ParseStepPolicy(s string) (StepPolicy, error) {
	switch s {
	case "", "keep":
		return StepKeep, nil
	case "rollback":
		return StepRollback, nil
	default:
		return StepKeep, fmt.Errorf("unknown step policy %q", s)
	}
}

func (p StepPolicy) String() string {
	if p == StepRollback {
		return "rollback"
	}
	return "keep"
}

// CommanderConfig holds the installation-specific command settings
type CommanderConfig struct {
	ApplianceID        string
	DefaultTemperature float64 // Absolute target used when leaving auto with the 0 sentinel
	Step               float64 // Stepper increment
	StepPolicy         StepPolicy
}

// Commander turns user intents into aircon settings commands
type Commander struct {
	api      API
	session  *Session
	sync     *Synchronizer
	cfg      CommanderConfig
	recorder Recorder
}

// NewCommander creates a new Commander. recorder may be nil.
func NewCommander(api API, session *Session, sync *Synchronizer, cfg CommanderConfig, recorder Recorder) *Commander {
	if cfg.DefaultTemperature == 0 {
		cfg.DefaultTemperature = 27
	}
	if cfg.Step == 0 {
		cfg.Step = 0.5
	}
	return &Commander{
		api:      api,
		session:  session,
		sync:     sync,
		cfg:      cfg,
		recorder: recorder,
	}
}

// PowerOff turns the aircon off. The session shows off only after the API confirms.
func (c *Commander) PowerOff(ctx context.Context) error {
	req := remo.AirconSettingsRequest{Button: remo.ButtonPowerOff}
	if err := c.send(ctx, "power_off", req); err != nil {
		return err
	}
	c.session.SetPower(PowerOff)
	return nil
}

// SetMode switches the operating mode and powers the aircon on.
// The temperature sent follows ModeTemperature; it is not written back to the
// session target, which the next sync reconciles from the server.
func (c *Commander) SetMode(ctx context.Context, mode Mode) error {
	st := c.session.State()
	temp := ModeTemperature(mode, st.RoomTemperature, st.TargetTemperature, c.cfg.DefaultTemperature)

	req := remo.AirconSettingsRequest{
		Button:        remo.ButtonPowerOn,
		OperationMode: string(mode),
		Temperature:   FormatTemperature(temp),
	}
	if err := c.send(ctx, "set_mode", req); err != nil {
		return err
	}
	c.session.SetMode(mode)
	return nil
}

// StepTemperature sets a new absolute target. The session is updated before the
// command is sent; on failure the step policy decides whether it is rolled back.
func (c *Commander) StepTemperature(ctx context.Context, temp float64) error {
	temp = SnapHalf(temp)
	prev := c.session.SetTarget(temp)

	req := remo.AirconSettingsRequest{
		Button:      remo.ButtonPowerOn,
		Temperature: FormatTemperature(temp),
	}
	err := c.send(ctx, "step_temperature", req)
	if err == nil {
		c.session.SetCommandError("")
		return nil
	}

	if c.cfg.StepPolicy == StepRollback && c.session.RestoreTarget(prev, temp) {
		log.Info().
			Float64("target", prev).
			Float64("rejected", temp).
			Msg("Rolled back optimistic target")
	}
	return err
}

// StepUp raises the current target by one step
func (c *Commander) StepUp(ctx context.Context) error {
	return c.StepTemperature(ctx, c.session.State().TargetTemperature+c.cfg.Step)
}

// StepDown lowers the current target by one step
func (c *Commander) StepDown(ctx context.Context) error {
	return c.StepTemperature(ctx, c.session.State().TargetTemperature-c.cfg.Step)
}

// Refresh runs a synchronization on demand, independent of the poller
func (c *Commander) Refresh(ctx context.Context) error {
	_, err := c.sync.Synchronize(ctx)
	return err
}

func (c *Commander) send(ctx context.Context, command string, req remo.AirconSettingsRequest) error {
	id := uuid.NewString()
	form := req.Form()
	payload := map[string]any{"command": command, "form": form.Encode()}

	logger := log.With().
		Str("command", command).
		Str("command_id", id).
		Str("appliance", c.cfg.ApplianceID).
		Logger()

	if err := c.api.UpdateAirconSettings(ctx, c.cfg.ApplianceID, req); err != nil {
		cmdErr := newCommandError(command, err)
		c.session.SetCommandError(cmdErr.Error())

		payload["error"] = err.Error()
		payload["status"] = cmdErr.StatusCode
		c.record(ledger.EventCommandFailed, id, payload)

		logger.Error().Err(err).Int("status", cmdErr.StatusCode).Msg("Command failed")
		return cmdErr
	}

	c.record(ledger.EventCommandCompleted, id, payload)
	logger.Info().Str("form", form.Encode()).Msg("Command sent")
	return nil
}

func (c *Commander) record(eventType ledger.EventType, id string, payload map[string]any) {
	if c.recorder == nil {
		return
	}
	if err := c.recorder.Append(ledger.Record{
		Type:      eventType,
		Source:    "command",
		TargetID:  c.cfg.ApplianceID,
		CommandID: id,
		Payload:   payload,
	}); err != nil {
		log.Warn().Err(err).Str("event", string(eventType)).Msg("Failed to record event")
	}
}
