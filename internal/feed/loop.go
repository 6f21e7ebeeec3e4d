// Package feed runs one camera's frame loop: detection, track update,
// vote-sweep, executed sequentially per frame. Entry and exit feeds are
// independent loops sharing nothing but the persisted ledger.
package feed

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"parking-gate-service/internal/domain/parking"
	"parking-gate-service/internal/service"
	"parking-gate-service/internal/tracking"
	"parking-gate-service/internal/vision"
	"parking-gate-service/internal/ws"
)

// Frame is one grabbed camera image with its wall-clock time.
type Frame struct {
	Image image.Image
	Time  time.Time
}

// FrameSource abstracts the acquisition layer. Next blocks until a frame
// is available and returns io.EOF when the feed ends.
type FrameSource interface {
	Next() (Frame, error)
	Close() error
}

type Loop struct {
	cameraID   string
	direction  string
	source     FrameSource
	detector   vision.Detector
	tracks     *tracking.Manager
	parking    *service.ParkingService
	hub        *ws.Hub
	confidence float64
	saveDir    string
	log        zerolog.Logger
}

// NewLoop wires one feed. direction is parking.DirectionEntry or
// parking.DirectionExit; hub may be nil when no display is attached.
func NewLoop(
	cameraID, direction string,
	source FrameSource,
	detector vision.Detector,
	tracks *tracking.Manager,
	parkingSvc *service.ParkingService,
	hub *ws.Hub,
	confidence float64,
	saveDir string,
	log zerolog.Logger,
) *Loop {
	return &Loop{
		cameraID:   cameraID,
		direction:  direction,
		source:     source,
		detector:   detector,
		tracks:     tracks,
		parking:    parkingSvc,
		hub:        hub,
		confidence: confidence,
		saveDir:    saveDir,
		log:        log.With().Str("camera_id", cameraID).Str("direction", direction).Logger(),
	}
}

// Run drives the loop until the context is cancelled or the source ends.
// The loop is single-threaded; it only blocks waiting for the next frame
// or for the detector call to return.
func (l *Loop) Run(ctx context.Context) error {
	l.log.Info().Msg("camera feed active")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		frame, err := l.source.Next()
		if err == io.EOF {
			l.log.Info().Msg("camera feed ended")
			return nil
		}
		if err != nil {
			return fmt.Errorf("next frame: %w", err)
		}

		l.processFrame(ctx, frame)
	}
}

func (l *Loop) processFrame(ctx context.Context, frame Frame) {
	dets, err := l.detector.DetectPlates(frame.Image)
	if err != nil {
		l.log.Error().Err(err).Msg("plate detection failed")
		return
	}

	for _, det := range dets {
		if det.Confidence < l.confidence {
			continue
		}

		cx, cy := det.Box.Center()
		id := l.tracks.Assign(cx, cy)

		text := ""
		if crop := cropBox(frame.Image, det.Box, 2); crop != nil {
			text, err = vision.DecodePlate(l.detector, crop, l.confidence)
			if err != nil {
				l.log.Error().Err(err).Int("track_id", id).Msg("character recognition failed")
			}
		}

		l.tracks.Update(id, det.Box, text, frame.Time)
	}

	l.tracks.Sweep(frame.Time)

	for _, id := range l.tracks.IDs() {
		if conf, ok := l.tracks.Vote(id); ok {
			l.confirm(ctx, id, conf, frame)
		}
	}
}

func (l *Loop) confirm(ctx context.Context, trackID int, conf tracking.Confirmation, frame Frame) {
	l.log.Info().
		Int("track_id", trackID).
		Str("plate", conf.Plate).
		Msg("plate confirmed")

	imagePath := l.saveCapture(frame, conf.Plate)

	event := &parking.GateEvent{
		CameraID:  l.cameraID,
		Direction: l.direction,
		Plate:     conf.Plate,
		Region:    vision.FreeZoneRegion(conf.Plate),
		Votes:     conf.Votes,
		EventTime: frame.Time,
	}
	if err := l.parking.RecordGateEvent(ctx, event); err == nil && l.hub != nil {
		l.hub.Broadcast(event)
	}

	switch l.direction {
	case parking.DirectionEntry:
		res, err := l.parking.RegisterEntry(ctx, conf.Plate, imagePath)
		switch {
		case errors.Is(err, service.ErrConflict):
			l.log.Info().Str("plate", conf.Plate).Msg("entry rejected, recent duplicate")
		case err != nil:
			l.log.Error().Err(err).Str("plate", conf.Plate).Msg("entry registration failed")
		default:
			if l.hub != nil {
				l.hub.Broadcast(res)
			}
		}
	case parking.DirectionExit:
		res, err := l.parking.RegisterExit(ctx, conf.Plate, imagePath)
		switch {
		case errors.Is(err, service.ErrNotFound):
			l.log.Warn().Str("plate", conf.Plate).Msg("exit for plate with no active session")
		case err != nil:
			l.log.Error().Err(err).Str("plate", conf.Plate).Msg("exit registration failed")
		default:
			if l.hub != nil {
				l.hub.Broadcast(res)
			}
		}
	}
}

// saveCapture writes the full frame as the session image and returns its
// path, or "" when captures are disabled or the write fails.
func (l *Loop) saveCapture(frame Frame, plate string) string {
	if l.saveDir == "" || frame.Image == nil {
		return ""
	}

	name := fmt.Sprintf("%s_%s.jpg",
		strings.ReplaceAll(plate, " ", "-"),
		frame.Time.Format("20060102_150405"))
	path := filepath.Join(l.saveDir, name)

	f, err := os.Create(path)
	if err != nil {
		l.log.Warn().Err(err).Str("path", path).Msg("failed to save capture")
		return ""
	}
	defer f.Close()

	if err := jpeg.Encode(f, frame.Image, nil); err != nil {
		l.log.Warn().Err(err).Str("path", path).Msg("failed to encode capture")
		return ""
	}
	return path
}

// cropBox extracts the padded plate region when the underlying image
// supports sub-imaging; otherwise the full frame is used.
func cropBox(img image.Image, box vision.Box, pad int) image.Image {
	type subImager interface {
		SubImage(r image.Rectangle) image.Image
	}

	si, ok := img.(subImager)
	if !ok {
		return img
	}

	bounds := img.Bounds()
	r := image.Rect(box.X1-pad, box.Y1-pad, box.X2+pad, box.Y2+pad).Intersect(bounds)
	if r.Empty() {
		return nil
	}
	return si.SubImage(r)
}
