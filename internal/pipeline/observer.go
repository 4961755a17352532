package pipeline

import (
	"time"

	"github.com/KaramelBytes/dqcheck-cli/internal/quality"
)

// EventType names a pipeline stage transition.
type EventType string

const (
	EventRunStart   EventType = "run_start"
	EventLoaded     EventType = "loaded"
	EventProfiled   EventType = "profiled"
	EventValidated  EventType = "validated"
	EventSchema     EventType = "schema_inferred"
	EventReported   EventType = "reported"
	EventRunFailed  EventType = "run_failed"
	EventRunSkipped EventType = "run_skipped"

	EventCatalogSkipped EventType = "catalog_skipped"
)

// Event is emitted at each stage of a run.
type Event struct {
	Type      EventType
	RunID     string
	Dataset   string
	Timestamp time.Time
	Data      any // stage-specific payload (shape, metrics, error)
}

// Observer receives pipeline events. Observers shared by a batch run are
// called from several goroutines.
type Observer interface {
	OnEvent(event Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnEvent(e Event) { f(e) }

// Observers fans an event out in order.
type Observers []Observer

func (obs Observers) OnEvent(e Event) {
	for _, o := range obs {
		if o != nil {
			o.OnEvent(e)
		}
	}
}

// Shape is the payload of EventLoaded.
type Shape struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

// Summary is the payload of EventReported.
type Summary struct {
	Metrics         quality.Metrics
	Issues          int
	Recommendations int
	Rows, Cols      int
	Duration        time.Duration
}
