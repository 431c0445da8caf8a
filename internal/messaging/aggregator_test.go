package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"drivermon/internal/fault"
	"drivermon/internal/logging"
)

func mustValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := NewValidator()
	if err != nil {
		t.Fatalf("NewValidator: %v", err)
	}
	return v
}

func mustEnvelope(t *testing.T, topic string, ts int64, payload any) Envelope {
	t.Helper()
	env, err := NewEnvelope(topic, ts, payload)
	if err != nil {
		t.Fatalf("NewEnvelope: %v", err)
	}
	return env
}

func sampleDriverState() DriverState {
	return DriverState{
		FaceOrientation:    []float64{0.1, 0.2, 0.0},
		FaceOrientationStd: []float64{0.05, 0.05, 0.05},
		FacePosition:       []float64{0.0, 0.1},
		FacePositionStd:    []float64{0.01, 0.01},
		FaceProb:           0.9,
	}
}

func newTestAggregator(t *testing.T) (*Aggregator, *MemoryBus) {
	t.Helper()
	bus := NewMemoryBus(16)
	return NewAggregator(bus, mustValidator(t), InboundTopics(), logging.NewNop()), bus
}

func TestAggregatorDefaults(t *testing.T) {
	agg, _ := newTestAggregator(t)
	if agg.LiveCalibration().CalStatus != CalStatusInvalid {
		t.Fatal("calibration should start invalid")
	}
	cs := agg.CarState()
	if !cs.Standstill || cs.CruiseState.Enabled || cs.CruiseState.Speed != 0 || cs.VEgo != 0 {
		t.Fatalf("unexpected default car state %+v", cs)
	}
}

func TestAggregatorReturnsAllQueuedTopics(t *testing.T) {
	agg, bus := newTestAggregator(t)
	ctx := context.Background()
	_ = bus.Send(ctx, mustEnvelope(t, TopicCarState, 10, CarState{VEgo: 20, CruiseState: CruiseState{Enabled: true, Speed: 25}}))
	_ = bus.Send(ctx, mustEnvelope(t, TopicDriverState, 11, sampleDriverState()))

	updated, err := agg.Update(ctx)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !updated.Has(TopicCarState) || !updated.Has(TopicDriverState) || updated.Has(TopicGPSLocation) {
		t.Fatalf("unexpected updated set %v", updated)
	}
	if agg.CarState().CruiseState.Speed != 25 || agg.DriverState().FaceProb != 0.9 {
		t.Fatal("payloads not stored")
	}
	if ts, ok := agg.LogMonoTime(TopicDriverState); !ok || ts != 11 {
		t.Fatalf("unexpected timestamp %d", ts)
	}
	if !agg.Valid(TopicDriverState) {
		t.Fatal("expected valid flag")
	}
}

func TestAggregatorDropsInvalidAndStaleMessages(t *testing.T) {
	agg, bus := newTestAggregator(t)
	ctx := context.Background()

	bad := sampleDriverState()
	bad.FaceOrientation = []float64{0.1}
	_ = bus.Send(ctx, mustEnvelope(t, TopicDriverState, 5, bad))
	_ = bus.Send(ctx, Envelope{Topic: "radarState", LogMonoTime: 6, Valid: true, Data: json.RawMessage(`{}`)})
	_ = bus.Send(ctx, mustEnvelope(t, TopicModel, 7, ModelData{Meta: ModelMeta{EngagedProb: 0.5}}))
	_ = bus.Send(ctx, mustEnvelope(t, TopicModel, 7, ModelData{Meta: ModelMeta{EngagedProb: 0.9}}))
	_ = bus.Send(ctx, mustEnvelope(t, TopicModel, 3, ModelData{Meta: ModelMeta{EngagedProb: 0.1}}))

	updated, err := agg.Update(ctx)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(updated) != 1 || !updated.Has(TopicModel) {
		t.Fatalf("unexpected updated set %v", updated)
	}
	if agg.Model().Meta.EngagedProb != 0.5 {
		t.Fatalf("stale message overwrote newer one: %v", agg.Model().Meta.EngagedProb)
	}
	stats := agg.Stats()
	if stats.Dropped[DropInvalid] != 1 || stats.Dropped[DropUnknown] != 1 || stats.Dropped[DropOutOfOrder] != 2 {
		t.Fatalf("unexpected drop counters %+v", stats.Dropped)
	}
	if stats.Received[TopicModel] != 1 {
		t.Fatalf("unexpected received counters %+v", stats.Received)
	}
}

func TestAggregatorUpdateBlocksUntilAcceptedMessage(t *testing.T) {
	agg, bus := newTestAggregator(t)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_ = bus.Send(context.Background(), Envelope{Topic: TopicCarState, LogMonoTime: 1, Data: json.RawMessage(`{"vEgo": "fast"}`)})
	if _, err := agg.Update(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline after only invalid input, got %v", err)
	}
}

func TestAggregatorReportsClosedSource(t *testing.T) {
	agg, bus := newTestAggregator(t)
	bus.Close()
	bus.Close()
	if _, err := agg.Update(context.Background()); !errors.Is(err, fault.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestGPSLocationHasFix(t *testing.T) {
	if (GPSLocation{Flags: 0}).HasFix() || !(GPSLocation{Flags: 1}).HasFix() || !(GPSLocation{Flags: 3}).HasFix() {
		t.Fatal("unexpected fix flag interpretation")
	}
}
