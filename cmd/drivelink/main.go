package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/frmini/drivelink/canframe"
	"github.com/frmini/drivelink/drive"
	"github.com/frmini/drivelink/forwarder"
	"github.com/frmini/drivelink/kinematics"
	"github.com/frmini/drivelink/playback"
	"github.com/frmini/drivelink/transport"
	log "github.com/sirupsen/logrus"
)

func main() {
	log.SetLevel(log.InfoLevel)

	configFile := flag.String("config", "drivelink.toml", "configuration file")
	flag.Parse()

	cfg, err := loadConfig(*configFile)
	if err != nil {
		log.Fatal("unable to load configuration: ", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg); err != nil && err != context.Canceled {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cfg config) error {
	lnk := newLink(cfg)
	if err := lnk.Open(); err != nil {
		return err
	}
	go func() {
		_ = transport.Retry(ctx, lnk)
	}()

	var fwd *forwarder.UDPForwarder
	if cfg.Forwarder.Enabled {
		var err error
		fwd, err = forwarder.NewUDPForwarderWithConfig(&forwarder.UDPConfig{
			Server: cfg.Forwarder.Server,
			Port:   cfg.Forwarder.Port,
		})
		if err != nil {
			return err
		}
		defer fwd.Close()
		go func() {
			_ = fwd.Start(ctx)
		}()
	}

	switch cfg.Mode {
	case modeDrive:
		return runDrive(ctx, cfg, lnk, fwd)
	default:
		return runPlayback(ctx, cfg, lnk, fwd)
	}
}

func newLink(cfg config) link {
	statusLayout, _ := canframe.ParseLayout(cfg.Status.Layout)
	cb := transport.Callbacks{
		Status: func(cv canframe.ControlVector) {
			log.WithField("velocity", cv.LinearVelocityMMS).
				WithField("angle", cv.SteeringAngle).
				WithField("gear", cv.Gear).
				Info("vehicle status")
		},
	}

	if cfg.Transport == transportCANBus {
		return &busLink{
			iface:        cfg.CANBus.Interface,
			statusID:     cfg.Status.FrameID,
			statusLayout: statusLayout,
			cb:           cb,
		}
	}
	return &serialLink{
		cfg: transport.SerialConfig{
			Port:          cfg.Serial.Port,
			BaudRate:      cfg.Serial.BaudRate,
			CAN:           cfg.adapterConfig(),
			StatusFrameID: cfg.Status.FrameID,
			StatusLayout:  statusLayout,
		},
		cb: cb,
	}
}

// progressTracker integrates the played-back commands into a pose and
// fans each snapshot out to the UDP forwarder. Playback emits from a single
// goroutine, so no locking is needed.
type progressTracker struct {
	pose      kinematics.Pose
	index     uint32
	dtSeconds float64
	wheelbase float64
	fwd       *forwarder.UDPForwarder
}

func (p *progressTracker) observe(cv canframe.ControlVector) {
	p.pose = kinematics.Integrate(p.pose, cv, p.dtSeconds, p.wheelbase)
	p.index++
	if p.fwd == nil {
		return
	}
	_ = p.fwd.Forward(&forwarder.Progress{
		RecordIndex:       p.index,
		LinearVelocityMMS: cv.LinearVelocityMMS,
		SteeringAngle:     cv.SteeringAngle,
		Gear:              uint8(cv.Gear),
		BodyYaw:           p.pose.BodyYaw,
	})
}

func runPlayback(ctx context.Context, cfg config, lnk link, fwd *forwarder.UDPForwarder) error {
	file, err := os.Open(cfg.Playback.File)
	if err != nil {
		return err
	}
	defer file.Close()

	tracker := &progressTracker{
		pose:      kinematics.Reset(),
		dtSeconds: cfg.playbackInterval().Seconds(),
		wheelbase: cfg.WheelbaseM,
		fwd:       fwd,
	}

	completeChan := make(chan struct{})
	scheduler := playback.NewScheduler()
	session, err := scheduler.StartRows(file, cfg.loadOptions(), playback.Options{
		Interval:   cfg.playbackInterval(),
		Sink:       lnk,
		OnProgress: tracker.observe,
		OnComplete: func() {
			close(completeChan)
		},
		OnError: func(err error) {
			log.WithField("err", err).Error("unable to send frame")
		},
	})
	if err != nil {
		return err
	}

	log.WithField("file", cfg.Playback.File).Info("playback started")
	select {
	case <-ctx.Done():
		session.Cancel()
		return ctx.Err()
	case <-completeChan:
	}

	log.WithField("records", tracker.index).Info("playback complete")
	if fwd != nil {
		if err := fwd.Completion(); err != nil {
			log.WithField("err", err).Warn("unable to send completion datagram")
		}
	}
	return nil
}

func runDrive(ctx context.Context, cfg config, lnk link, fwd *forwarder.UDPForwarder) error {
	tracker := &progressTracker{
		pose:      kinematics.Reset(),
		dtSeconds: cfg.driveInterval().Seconds(),
		wheelbase: cfg.WheelbaseM,
		fwd:       fwd,
	}

	return drive.NewGenerator().Run(ctx, drive.Options{
		Interval:   cfg.driveInterval(),
		FrameID:    cfg.Drive.FrameID,
		Sink:       lnk,
		OnProgress: tracker.observe,
	})
}
