package feed

import (
	"context"
	"image"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"parking-gate-service/internal/domain/parking"
	"parking-gate-service/internal/service"
	"parking-gate-service/internal/store"
	"parking-gate-service/internal/tracking"
	"parking-gate-service/internal/vision"
)

// gateStore stubs the few store calls the entry loop reaches. The
// embedded interface is nil; touching anything else panics the test.
type gateStore struct {
	store.Store
	entries    []parking.Entry
	activeCars []parking.ActiveCar
	gateEvents []parking.GateEvent
}

func (s *gateStore) InTx(_ context.Context, fn func(store.Store) error) error {
	return fn(s)
}

func (s *gateStore) LastEntryTime(_ context.Context, plate string) (*time.Time, error) {
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].Plate == plate {
			t := s.entries[i].TimestampIn
			return &t, nil
		}
	}
	return nil, nil
}

func (s *gateStore) CreateEntry(_ context.Context, e *parking.Entry) error {
	e.ID = int64(len(s.entries) + 1)
	s.entries = append(s.entries, *e)
	return nil
}

func (s *gateStore) CreateActiveCar(_ context.Context, ac *parking.ActiveCar) error {
	s.activeCars = append(s.activeCars, *ac)
	return nil
}

func (s *gateStore) CreateGateEvent(_ context.Context, ev *parking.GateEvent) error {
	ev.ID = int64(len(s.gateEvents) + 1)
	s.gateEvents = append(s.gateEvents, *ev)
	return nil
}

// plateDetector answers every frame with one plate at a fixed position
// reading "12ب34567".
type plateDetector struct{}

func (plateDetector) DetectPlates(image.Image) ([]vision.Detection, error) {
	return []vision.Detection{{
		Box:        vision.Box{X1: 100, Y1: 100, X2: 200, Y2: 150},
		Confidence: 0.92,
	}}, nil
}

func (plateDetector) RecognizeChars(image.Image) ([]vision.Detection, error) {
	classes := []int{1, 2, 11, 3, 4, 5, 6, 7}
	dets := make([]vision.Detection, 0, len(classes))
	for i, class := range classes {
		dets = append(dets, vision.Detection{
			Box:        vision.Box{X1: i * 12, Y1: 0, X2: i*12 + 10, Y2: 20},
			Confidence: 0.9,
			ClassID:    class,
		})
	}
	return dets, nil
}

func (plateDetector) Close() error { return nil }

// replaySource serves a fixed number of frames then ends the feed.
type replaySource struct {
	frames int
	served int
	start  time.Time
}

func (s *replaySource) Next() (Frame, error) {
	if s.served >= s.frames {
		return Frame{}, io.EOF
	}
	f := Frame{
		Image: image.NewRGBA(image.Rect(0, 0, 640, 480)),
		Time:  s.start.Add(time.Duration(s.served) * 33 * time.Millisecond),
	}
	s.served++
	return f, nil
}

func (s *replaySource) Close() error { return nil }

func TestEntryLoopConfirmsAndRegisters(t *testing.T) {
	st := &gateStore{}
	log := zerolog.Nop()
	parkingSvc := service.NewParkingService(st, service.NewSettlementEngine(log), 5*time.Minute, log)

	loop := NewLoop(
		"entry-cam", parking.DirectionEntry,
		&replaySource{frames: 20, start: time.Now()},
		plateDetector{},
		tracking.NewManager(tracking.DefaultConfig()),
		parkingSvc,
		nil,
		0.5,
		t.TempDir(),
		log,
	)

	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(st.entries) != 1 {
		t.Fatalf("entries = %d, want exactly one confirmed registration", len(st.entries))
	}
	if st.entries[0].Plate != "12 ب 345 67" {
		t.Errorf("registered plate %q", st.entries[0].Plate)
	}
	if st.entries[0].ImageIn == "" {
		t.Error("capture path not recorded")
	}
	if len(st.activeCars) != 1 || st.activeCars[0].EntryID != st.entries[0].ID {
		t.Error("active car row missing or unlinked")
	}

	if len(st.gateEvents) != 1 {
		t.Fatalf("gate events = %d, want 1", len(st.gateEvents))
	}
	ev := st.gateEvents[0]
	if ev.Direction != parking.DirectionEntry || ev.CameraID != "entry-cam" {
		t.Errorf("gate event = %+v", ev)
	}
	if ev.Votes["12 ب 345 67"] < 15 {
		t.Errorf("vote breakdown = %v, want majority of at least 15", ev.Votes)
	}
}

func TestLoopStopsOnContextCancel(t *testing.T) {
	st := &gateStore{}
	log := zerolog.Nop()
	parkingSvc := service.NewParkingService(st, service.NewSettlementEngine(log), 5*time.Minute, log)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	loop := NewLoop(
		"entry-cam", parking.DirectionEntry,
		&replaySource{frames: 1000, start: time.Now()},
		plateDetector{},
		tracking.NewManager(tracking.DefaultConfig()),
		parkingSvc,
		nil,
		0.5,
		"",
		log,
	)

	if err := loop.Run(ctx); err != context.Canceled {
		t.Errorf("Run returned %v, want context.Canceled", err)
	}
}
