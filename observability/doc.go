// Package observability provides a metrics extension for admitq. The
// MetricsExtension implements lifecycle hooks to record system-wide
// counters for admissions, reprioritizations, completions, cancellations,
// and queue changes.
package observability
