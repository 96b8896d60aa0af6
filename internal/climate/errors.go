package climate

import (
	"errors"
	"fmt"

	"github.com/dokzlo13/remoctl/internal/remo"
)

// Synchronization stages
const (
	StageFetchDevices    = "fetch_devices"
	StageFetchAppliances = "fetch_appliances"
	StageSelect          = "select"
	StageParse           = "parse"
)

var stageSummaries = map[string]string{
	StageFetchDevices:    "failed to fetch devices",
	StageFetchAppliances: "failed to fetch appliances",
	StageSelect:          "configured sensor or aircon not found",
	StageParse:           "unexpected aircon snapshot",
}

// SyncError reports a failed synchronization: transport, authentication or a malformed snapshot
type SyncError struct {
	Stage string
	Err   error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync failed at %s: %v", e.Stage, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// Summary is the user facing prefix for the failed stage
func (e *SyncError) Summary() string {
	if s, ok := stageSummaries[e.Stage]; ok {
		return s
	}
	return "synchronization failed"
}

// CommandError reports a failed command post: non-200 response or transport failure
type CommandError struct {
	Command    string
	StatusCode int // 0 for transport failures
	Err        error
}

func (e *CommandError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("command %s rejected with status %d: %v", e.Command, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("command %s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

func newCommandError(command string, err error) *CommandError {
	cmdErr := &CommandError{Command: command, Err: err}
	var statusErr *remo.StatusError
	if errors.As(err, &statusErr) {
		cmdErr.StatusCode = statusErr.StatusCode
	}
	return cmdErr
}
