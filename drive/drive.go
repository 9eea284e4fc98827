// Package drive synthesizes an endless driving pattern without a
// trajectory file: steering and speed follow a fixed keyframe table,
// cosine-eased between keyframes and looped, so the vehicle can be
// exercised indefinitely on a test stand.
package drive

import (
	"context"
	"math"
	"time"

	"github.com/frmini/drivelink/canframe"
	"github.com/frmini/drivelink/playback"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Keyframe anchors the drive pattern at one point in the cycle. Between
// keyframes both channels are interpolated with a cosine ease so speed and
// steering never step abruptly.
type Keyframe struct {
	At          time.Duration
	SteeringDeg float64
	SpeedMMS    float64
}

// defaultKeyframes trace a varied lap: fast straights, progressively
// tighter left turns, then a sweeping right.
var defaultKeyframes = []Keyframe{
	{0 * time.Second, 0, 1500},
	{5 * time.Second, 0, 3000},
	{12 * time.Second, 10, 2000},
	{22 * time.Second, 18, 2000},
	{24 * time.Second, 12, 1800},
	{29 * time.Second, 5, 1600},
	{31 * time.Second, 0, 1500},
	{36 * time.Second, 0, 2000},
	{39 * time.Second, -5, 2500},
	{49 * time.Second, -2, 3000},
	{52 * time.Second, 0, 1400},
	{62 * time.Second, 5, 1600},
	{70 * time.Second, 15, 2500},
	{84 * time.Second, 10, 2500},
	{86 * time.Second, 5, 2000},
	{100 * time.Second, 0, 1500},
	{110 * time.Second, 0, 1500},
}

// Generator evaluates the drive pattern at a point in time.
type Generator struct {
	keyframes []Keyframe
	cycle     time.Duration
}

// NewGenerator returns a generator over the built-in keyframe table.
func NewGenerator() *Generator {
	return NewGeneratorWithKeyframes(defaultKeyframes)
}

// NewGeneratorWithKeyframes builds a generator from a custom table. The
// keyframes must be in ascending time order; the last keyframe closes the
// cycle.
func NewGeneratorWithKeyframes(keyframes []Keyframe) *Generator {
	return &Generator{
		keyframes: keyframes,
		cycle:     keyframes[len(keyframes)-1].At,
	}
}

// At returns the control vector for the given elapsed time, wrapping at the
// cycle boundary.
func (g *Generator) At(elapsed time.Duration) canframe.ControlVector {
	t := elapsed % g.cycle

	steeringDeg := 0.0
	speed := 1000.0
	for i := 0; i < len(g.keyframes)-1; i++ {
		k1 := g.keyframes[i]
		k2 := g.keyframes[i+1]
		if t < k1.At || t >= k2.At {
			continue
		}
		progress := float64(t-k1.At) / float64(k2.At-k1.At)
		ease := 0.5 * (1.0 - math.Cos(progress*math.Pi))
		steeringDeg = k1.SteeringDeg + (k2.SteeringDeg-k1.SteeringDeg)*ease
		speed = k1.SpeedMMS + (k2.SpeedMMS-k1.SpeedMMS)*ease
		break
	}

	return canframe.ControlVector{
		LinearVelocityMMS: int32(speed),
		SteeringAngle:     steeringDeg * math.Pi / 180,
		Gear:              gearFor(speed),
	}
}

func gearFor(speed float64) canframe.Gear {
	switch {
	case speed > 0:
		return canframe.GearDrive
	case speed < 0:
		return canframe.GearReverse
	default:
		return canframe.GearPark
	}
}

// Options configure a synthetic drive run.
type Options struct {
	// Interval between frames. Defaults to 20ms (50Hz).
	Interval time.Duration
	// FrameID overrides the layout's default bus ID.
	FrameID string
	Sink    playback.Sink
	// OnProgress fires after each sent frame.
	OnProgress func(canframe.ControlVector)
}

const defaultInterval = 20 * time.Millisecond

// Run streams generated control frames to the sink until the context is
// cancelled, then sends a zeroed stop frame so the vehicle is never left
// holding the last command.
func (g *Generator) Run(ctx context.Context, opts Options) error {
	if opts.Sink == nil {
		return errors.New("drive requires a sink")
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = defaultInterval
	}

	log.WithField("interval", interval).Info("starting synthetic drive")
	start := time.Now()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := g.sendStop(opts); err != nil {
				log.WithField("err", err).Error("unable to send stop frame")
			}
			log.Info("synthetic drive stopped")
			return ctx.Err()
		case <-ticker.C:
		}

		cv := g.At(time.Since(start))
		if err := g.send(cv, opts); err != nil {
			log.WithField("err", err).Error("unable to send drive frame")
			continue
		}
		if opts.OnProgress != nil {
			opts.OnProgress(cv)
		}
	}
}

func (g *Generator) sendStop(opts Options) error {
	return g.send(canframe.ControlVector{Gear: canframe.GearPark}, opts)
}

func (g *Generator) send(cv canframe.ControlVector, opts Options) error {
	frame, err := canframe.Encode(canframe.FourByteControl, cv, 0)
	if err != nil {
		return err
	}
	frameID := opts.FrameID
	if frameID == "" {
		frameID = frame.ID
	}
	return opts.Sink.Send(frameID, frame.Data)
}
