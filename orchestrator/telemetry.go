package orchestrator

import "github.com/rs/zerolog"

// Telemetry event names emitted by the orchestrator.
const (
	EventPrefetch       = "cache.prefetch"
	EventPrefetchFailed = "cache.prefetch_failed"
	EventInvalidate     = "cache.invalidate"
	EventOptimisticSet  = "cache.optimistic_insert"
	EventRollback       = "cache.optimistic_rollback"
	EventReconcile      = "cache.optimistic_reconcile"
	EventSweep          = "cache.memory_optimized"
)

// Recorder is the telemetry sink capability. Every cache operation with
// business significance emits one named event with a structured payload.
// Implementations must not block; the orchestrator fires and forgets, and a
// sink failure is never treated as an error.
type Recorder interface {
	Record(event string, fields map[string]any)
}

// NopRecorder discards every event. It is the default sink so callers that
// do not care about telemetry never need nil checks.
type NopRecorder struct{}

// Record implements Recorder.
func (NopRecorder) Record(string, map[string]any) {}

// LogRecorder forwards events to a zerolog logger at debug level.
type LogRecorder struct {
	Logger zerolog.Logger
}

// Record implements Recorder.
func (r LogRecorder) Record(event string, fields map[string]any) {
	r.Logger.Debug().Fields(fields).Msg(event)
}
