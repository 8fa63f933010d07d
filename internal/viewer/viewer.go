// Package viewer drives the per-frame loop: clock sample, field update,
// camera update, then a terminal draw.
package viewer

import (
	"context"
	"log/slog"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/star/debrisview/internal/camera"
	"github.com/star/debrisview/internal/debris"
	"github.com/star/debrisview/internal/input"
	"github.com/star/debrisview/internal/metrics"
	"github.com/star/debrisview/internal/scene"
	"github.com/star/debrisview/internal/simclock"
)

// cellWidthPx is the nominal pixel width of a terminal cell. Drag distance
// is converted to pixels so camera speeds read the same as with a real
// pointer.
const cellWidthPx = 8

// Viewer owns the frame state. All methods run on the frame loop goroutine.
type Viewer struct {
	clock     *simclock.Clock
	field     *debris.Field
	positions *scene.Transforms
	rig       *camera.Rig
	settings  *camera.Settings
	acc       *input.Accumulator
	store     *debris.Store
	config    Config
	logger    *slog.Logger

	frame  uint64
	sample simclock.Sample
	stats  debris.Stats
	sun    mgl32.Vec3 // world-space light direction
}

// New creates a viewer for field. store may be nil.
func New(clock *simclock.Clock, field *debris.Field, rig *camera.Rig, settings *camera.Settings, store *debris.Store, config Config, logger *slog.Logger) *Viewer {
	metrics.SetTimeScale(clock.TimeScale())
	return &Viewer{
		clock:     clock,
		field:     field,
		positions: scene.NewTransforms(field.Len()),
		rig:       rig,
		settings:  settings,
		acc:       input.NewAccumulator(cellWidthPx, float32(cellWidthPx*config.CellAspect)),
		store:     store,
		config:    config,
		logger:    logger,
		sample:    clock.Base(),
		sun:       field.SunDirection(clock.Base()),
	}
}

// Positions exposes the render-side position arena.
func (v *Viewer) Positions() *scene.Transforms {
	return v.positions
}

// Rig returns the camera rig.
func (v *Viewer) Rig() *camera.Rig {
	return v.rig
}

// Sample returns the simulated date of the last frame.
func (v *Viewer) Sample() simclock.Sample {
	return v.sample
}

// HandleEvent folds one terminal event into the pending frame. It returns
// false when the event asks to quit.
func (v *Viewer) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if quitKey(ev.Key(), ev.Rune()) {
			return false
		}
	case *tcell.EventMouse:
		v.acc.HandleMouse(ev)
	}
	return true
}

func quitKey(key tcell.Key, r rune) bool {
	switch key {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyRune:
		return r == 'q' || r == 'Q'
	}
	return false
}

// Step advances one frame to elapsedSeconds of wall-clock time since start.
func (v *Viewer) Step(elapsedSeconds float64) debris.Stats {
	v.sample = v.clock.At(elapsedSeconds)
	v.stats = v.field.UpdateAll(v.sample, v.positions)
	v.sun = v.field.SunDirection(v.sample)
	v.rig.Update(v.acc.Take(), v.settings)
	v.frame++

	if v.store != nil {
		v.store.Set(debris.NewSnapshot(v.frame, v.field, v.sample, v.stats, v.positions))
	}
	return v.stats
}

// Screen is the part of tcell.Screen the frame loop uses.
type Screen interface {
	Canvas
	Clear()
	Show()
	Sync()
	PollEvent() tcell.Event
}

// Run drives frames on screen until ctx is done or a quit key arrives.
// Events are read on a separate goroutine and handed to the loop over a
// channel, so input and frame ticks are serialized.
func (v *Viewer) Run(ctx context.Context, screen Screen) error {
	ticker := time.NewTicker(time.Second / time.Duration(v.config.FPS))
	defer ticker.Stop()

	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return // screen finalized
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	start := time.Now()
	v.logger.Info("viewer started", "fps", v.config.FPS, "bodies", v.field.Len())

	for {
		select {
		case <-ctx.Done():
			v.logger.Info("viewer stopped", "frames", v.frame, "reason", ctx.Err())
			return nil

		case ev := <-events:
			if !v.HandleEvent(ev) {
				v.logger.Info("viewer stopped", "frames", v.frame, "reason", "quit key")
				return nil
			}
			if _, ok := ev.(*tcell.EventResize); ok {
				screen.Sync()
			}

		case now := <-ticker.C:
			v.Step(now.Sub(start).Seconds())
			screen.Clear()
			v.Draw(screen)
			screen.Show()
			metrics.RecordFrame(time.Since(now))
		}
	}
}
