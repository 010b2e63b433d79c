package observability

import (
	"context"

	gu "github.com/xraph/go-utils/metrics"

	"github.com/xraph/admitq/ext"
	"github.com/xraph/admitq/id"
	"github.com/xraph/admitq/token"
)

// Compile-time interface checks.
var (
	_ ext.Extension          = (*MetricsExtension)(nil)
	_ ext.TokenAdmitted      = (*MetricsExtension)(nil)
	_ ext.TokenReprioritized = (*MetricsExtension)(nil)
	_ ext.TokenCompleted     = (*MetricsExtension)(nil)
	_ ext.TokenCancelled     = (*MetricsExtension)(nil)
	_ ext.QueueChanged       = (*MetricsExtension)(nil)
)

// MetricsExtension records queue lifecycle metrics via go-utils MetricFactory.
// Register it as an admitq extension to automatically track admission
// rates, reprioritizations, completions, cancellations, and queue churn.
type MetricsExtension struct {
	TokenAdmitted      gu.Counter
	TokenReprioritized gu.Counter
	TokenCompleted     gu.Counter
	TokenCancelled     gu.Counter
	QueueChanged       gu.Counter
}

// NewMetricsExtension creates a MetricsExtension using a default metrics collector.
func NewMetricsExtension() *MetricsExtension {
	return NewMetricsExtensionWithFactory(gu.NewMetricsCollector("admitq/observability"))
}

// NewMetricsExtensionWithFactory creates a MetricsExtension with the provided MetricFactory.
func NewMetricsExtensionWithFactory(factory gu.MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		TokenAdmitted:      factory.Counter("admitq.token.admitted"),
		TokenReprioritized: factory.Counter("admitq.token.reprioritized"),
		TokenCompleted:     factory.Counter("admitq.token.completed"),
		TokenCancelled:     factory.Counter("admitq.token.cancelled"),
		QueueChanged:       factory.Counter("admitq.queue.changed"),
	}
}

// Name implements ext.Extension.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// ── Token lifecycle hooks ───────────────────────────

// OnTokenAdmitted implements ext.TokenAdmitted.
func (m *MetricsExtension) OnTokenAdmitted(_ context.Context, _ *token.Token) error {
	m.TokenAdmitted.Inc()
	return nil
}

// OnTokenReprioritized implements ext.TokenReprioritized.
func (m *MetricsExtension) OnTokenReprioritized(_ context.Context, _ *token.Token, _ token.PriorityClass) error {
	m.TokenReprioritized.Inc()
	return nil
}

// OnTokenCompleted implements ext.TokenCompleted.
func (m *MetricsExtension) OnTokenCompleted(_ context.Context, _ id.TokenID) error {
	m.TokenCompleted.Inc()
	return nil
}

// OnTokenCancelled implements ext.TokenCancelled.
func (m *MetricsExtension) OnTokenCancelled(_ context.Context, _ id.TokenID) error {
	m.TokenCancelled.Inc()
	return nil
}

// ── Queue hooks ─────────────────────────────────────

// OnQueueChanged implements ext.QueueChanged.
func (m *MetricsExtension) OnQueueChanged(_ context.Context, _ *token.Snapshot) error {
	m.QueueChanged.Inc()
	return nil
}
