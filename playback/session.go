package playback

import (
	"sync"
	"time"

	"github.com/frmini/drivelink/trajectory"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const minInterval = time.Millisecond

type State int

const (
	StateIdle State = iota
	StatePreloading
	StateRunning
	StateCompleted
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePreloading:
		return "preloading"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	}
	return "invalid"
}

// Session is one replay of a recording. Records are read-only once the
// session holds them; emission is strictly in index order.
type Session struct {
	mu      sync.Mutex
	state   State
	records []trajectory.Record
	cursor  int
	opts    Options
	prev    <-chan struct{}
	done    chan struct{}
}

func (sess *Session) State() State {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.state
}

// Done is closed once the session's goroutine, including its completion
// callback, has finished.
func (sess *Session) Done() <-chan struct{} {
	return sess.done
}

// Cancel stops the session. No emissions or callbacks occur after Cancel
// returns, and the completion callback is never invoked for a cancelled
// session. Cancelling a session that already completed is a no-op. Cancel
// blocks until any in-flight emission finishes, so it must not be called
// from inside the session's own callbacks.
func (sess *Session) Cancel() {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.state == StatePreloading || sess.state == StateRunning {
		sess.state = StateCancelled
	}
}

func (sess *Session) busy() bool {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.state == StatePreloading || sess.state == StateRunning
}

func (sess *Session) launch(records []trajectory.Record) {
	sess.mu.Lock()
	if sess.state != StatePreloading {
		// cancelled while preloading
		sess.mu.Unlock()
		close(sess.done)
		return
	}
	sess.records = records
	sess.state = StateRunning
	sess.mu.Unlock()
	go sess.run()
}

func (sess *Session) abort() {
	sess.mu.Lock()
	sess.state = StateCancelled
	sess.mu.Unlock()
	close(sess.done)
}

func (sess *Session) run() {
	defer close(sess.done)

	// the prior session's completion callback runs to completion before our
	// first tick
	if sess.prev != nil {
		<-sess.prev
	}

	sess.mu.Lock()
	total := len(sess.records)
	interval := sess.opts.Interval
	sess.mu.Unlock()

	if total > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			if !sess.emitNext() {
				break
			}
		}
	}

	sess.mu.Lock()
	if sess.state != StateRunning {
		sess.mu.Unlock()
		log.Info("playback cancelled")
		return
	}
	sess.state = StateCompleted
	onComplete := sess.opts.OnComplete
	sess.mu.Unlock()

	log.WithField("records", total).Info("playback completed")
	if onComplete != nil {
		onComplete()
	}
}

// emitNext sends the record under the cursor and reports whether the loop
// should keep ticking. Emission and the cancel flag share the session mutex
// so a returned Cancel means no further emission can start.
func (sess *Session) emitNext() bool {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.state != StateRunning || sess.cursor >= len(sess.records) {
		return false
	}

	rec := sess.records[sess.cursor]
	sess.cursor++

	if err := sess.opts.Sink.Send(rec.FrameID, rec.Data); err != nil {
		log.WithField("row", rec.Index).WithField("err", err).Error("transport send failed")
		if sess.opts.OnError != nil {
			sess.opts.OnError(errors.Wrapf(err, "row %d", rec.Index))
		}
	}
	if rec.Control != nil && sess.opts.OnProgress != nil {
		sess.opts.OnProgress(*rec.Control)
	}
	return sess.cursor < len(sess.records)
}
