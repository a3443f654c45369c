package recorder

import "context"

// NoopRecorder is a no-op implementation used when no database is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordAlert(_ context.Context, _ AlertRecord) error           { return nil }
func (n *NoopRecorder) RecordTransition(_ context.Context, _ TransitionRecord) error { return nil }
func (n *NoopRecorder) RecordScan(_ context.Context, _ ScanRecord) error             { return nil }
func (n *NoopRecorder) RecentAlerts(_ context.Context, _ int) ([]AlertRecord, error) {
	return nil, nil
}
func (n *NoopRecorder) Close() error { return nil }
