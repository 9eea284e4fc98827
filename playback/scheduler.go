package playback

import (
	"io"
	"sync"

	"github.com/frmini/drivelink/trajectory"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Scheduler runs at most one playback session at a time. Starting a second
// session while one is running fails with ErrAlreadyRunning; the caller must
// cancel the active session first.
type Scheduler struct {
	mu       sync.Mutex
	active   *Session
	prevDone chan struct{}
}

func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Start begins replaying preloaded records. It returns the session handle
// the caller uses to cancel or observe the run. If a prior session's
// completion callback is still executing, the new session's ticks wait for
// it to return.
func (s *Scheduler) Start(records []trajectory.Record, opts Options) (*Session, error) {
	if records == nil {
		records = []trajectory.Record{}
	}
	return s.start(records, opts)
}

// StartRows preloads a raw recording and then replays it. Preloading happens
// on the caller's goroutine so load errors are returned synchronously.
func (s *Scheduler) StartRows(r io.Reader, loadOpts trajectory.Options, opts Options) (*Session, error) {
	sess, err := s.start(nil, opts)
	if err != nil {
		return nil, err
	}

	records, stats, err := trajectory.Load(r, loadOpts)
	if err != nil {
		sess.abort()
		return nil, err
	}
	if stats.Malformed > 0 {
		log.WithField("malformed", stats.Malformed).Warn("recording has undecodable rows")
	}
	sess.launch(records)
	return sess, nil
}

func (s *Scheduler) start(records []trajectory.Record, opts Options) (*Session, error) {
	if opts.Interval < minInterval {
		return nil, ErrInvalidInterval
	}
	if opts.Sink == nil {
		return nil, errors.New("playback: sink is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil && s.active.busy() {
		return nil, ErrAlreadyRunning
	}

	sess := &Session{
		state: StatePreloading,
		opts:  opts,
		prev:  s.prevDone,
		done:  make(chan struct{}),
	}
	s.active = sess
	s.prevDone = sess.done

	if records != nil {
		sess.launch(records)
	}
	return sess, nil
}

// Active returns the current session, which may already be completed or
// cancelled.
func (s *Scheduler) Active() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}
