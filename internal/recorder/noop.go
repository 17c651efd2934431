package recorder

import "context"

// NoopRecorder is used when recording is disabled.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) Record(_ context.Context, _ Run) error { return nil }
func (n *NoopRecorder) Close() error                          { return nil }
