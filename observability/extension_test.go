package observability_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	gu "github.com/xraph/go-utils/metrics"

	"github.com/xraph/admitq/ext"
	"github.com/xraph/admitq/id"
	"github.com/xraph/admitq/observability"
	"github.com/xraph/admitq/token"
)

func newTestExtension() *observability.MetricsExtension {
	return observability.NewMetricsExtensionWithFactory(gu.NewMetricsCollector("test"))
}

func newTestToken() *token.Token {
	return &token.Token{
		ID:        id.NewTokenID(),
		Number:    "H-001-010925",
		PatientID: "patient-1",
		Class:     token.PriorityHigh,
		Status:    token.StatusActive,
		Rank:      1,
	}
}

func TestMetricsExtension_Name(t *testing.T) {
	e := newTestExtension()
	if e.Name() != "observability-metrics" {
		t.Errorf("expected name %q, got %q", "observability-metrics", e.Name())
	}
}

func TestMetricsExtension_TokenAdmitted(t *testing.T) {
	e := newTestExtension()
	if err := e.OnTokenAdmitted(context.Background(), newTestToken()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.TokenAdmitted.Value() != 1 {
		t.Errorf("TokenAdmitted: want 1, got %v", e.TokenAdmitted.Value())
	}
}

func TestMetricsExtension_TokenReprioritized(t *testing.T) {
	e := newTestExtension()
	if err := e.OnTokenReprioritized(context.Background(), newTestToken(), token.PriorityMediumLow); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.TokenReprioritized.Value() != 1 {
		t.Errorf("TokenReprioritized: want 1, got %v", e.TokenReprioritized.Value())
	}
}

func TestMetricsExtension_TokenCompleted(t *testing.T) {
	e := newTestExtension()
	if err := e.OnTokenCompleted(context.Background(), id.NewTokenID()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.TokenCompleted.Value() != 1 {
		t.Errorf("TokenCompleted: want 1, got %v", e.TokenCompleted.Value())
	}
}

func TestMetricsExtension_TokenCancelled(t *testing.T) {
	e := newTestExtension()
	if err := e.OnTokenCancelled(context.Background(), id.NewTokenID()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.TokenCancelled.Value() != 1 {
		t.Errorf("TokenCancelled: want 1, got %v", e.TokenCancelled.Value())
	}
}

func TestMetricsExtension_QueueChanged(t *testing.T) {
	e := newTestExtension()
	snap := &token.Snapshot{At: time.Now()}
	if err := e.OnQueueChanged(context.Background(), snap); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.QueueChanged.Value() != 1 {
		t.Errorf("QueueChanged: want 1, got %v", e.QueueChanged.Value())
	}
}

func TestMetricsExtension_ViaRegistry(t *testing.T) {
	e := newTestExtension()
	logger := slog.Default()

	reg := ext.NewRegistry(logger)
	reg.Register(e)

	ctx := context.Background()
	tok := newTestToken()

	reg.EmitTokenAdmitted(ctx, tok)
	reg.EmitTokenReprioritized(ctx, tok, token.PriorityMediumLow)
	reg.EmitTokenCompleted(ctx, tok.ID)
	reg.EmitTokenCancelled(ctx, tok.ID)
	reg.EmitQueueChanged(ctx, &token.Snapshot{At: time.Now()})

	checks := []struct {
		name  string
		value float64
	}{
		{"TokenAdmitted", e.TokenAdmitted.Value()},
		{"TokenReprioritized", e.TokenReprioritized.Value()},
		{"TokenCompleted", e.TokenCompleted.Value()},
		{"TokenCancelled", e.TokenCancelled.Value()},
		{"QueueChanged", e.QueueChanged.Value()},
	}

	for _, c := range checks {
		if c.value != 1 {
			t.Errorf("%s: want 1, got %v", c.name, c.value)
		}
	}
}
