// Package audit records who moved which entity into which state. Recording is
// best-effort: callers log failures and carry on.
package audit

import (
	"context"
	"errors"
	"time"
)

const (
	ActionCreate     = "create"
	ActionApprove    = "approve"
	ActionRelease    = "release"
	ActionRegenerate = "regenerate"
	ActionSupersede  = "supersede"
	ActionDelete     = "delete"
	ActionShutdown   = "shutdown"
)

type Entry struct {
	EntityType string
	EntityID   string
	CompanyID  string
	Action     string
	ActorID    string
	Details    map[string]any
	OccurredAt time.Time
}

//go:generate mockgen -source=recorder.go -destination=mock/recorder_mock.go -package=mock
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

type multiRecorder struct {
	recorders []Recorder
}

// NewMultiRecorder fans an entry out to every recorder and joins their errors.
func NewMultiRecorder(recorders ...Recorder) Recorder {
	return &multiRecorder{recorders: recorders}
}

func (m *multiRecorder) Record(ctx context.Context, entry Entry) error {
	var errs []error
	for _, r := range m.recorders {
		if err := r.Record(ctx, entry); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
