package recorder

import "TickerPacket/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordRun(_ *PacketRun) error                    { return nil }
func (n *NoopRecorder) RecordBars(_, _ string, _ []model.HourBar) error { return nil }
func (n *NoopRecorder) Close() error                                    { return nil }
