package probe

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/randomizedcoder/go-pidlimit-probe/internal/process"
)

// =============================================================================
// Fake children and spawners for testing
// =============================================================================

// fakeChild records Terminate calls and returns a configurable error.
type fakeChild struct {
	pid          int
	terminateErr error
	panicOn      bool
	log          *terminateLog

	mu    sync.Mutex
	calls int
}

func (c *fakeChild) PID() int { return c.pid }

func (c *fakeChild) Terminate() error {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	if c.log != nil {
		c.log.add(c.pid)
	}
	if c.panicOn {
		panic("terminate exploded")
	}
	return c.terminateErr
}

func (c *fakeChild) terminateCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// terminateLog records the order in which children were terminated.
type terminateLog struct {
	mu   sync.Mutex
	pids []int
}

func (l *terminateLog) add(pid int) {
	l.mu.Lock()
	l.pids = append(l.pids, pid)
	l.mu.Unlock()
}

func (l *terminateLog) order() []int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]int(nil), l.pids...)
}

// fakeSpawner hands out fakeChildren. It fails from attempt failAt onwards
// (1-based, 0 means never) with failErr.
type fakeSpawner struct {
	failAt   int
	failErr  error
	panicAt  int
	delay    time.Duration
	onSpawn  func(attempt int)
	childErr func(pid int) error
	log      *terminateLog

	mu       sync.Mutex
	attempts int
	children []*fakeChild
}

func (s *fakeSpawner) Name() string { return "fake" }

func (s *fakeSpawner) Spawn() (process.Child, error) {
	s.mu.Lock()
	s.attempts++
	attempt := s.attempts
	s.mu.Unlock()

	if s.onSpawn != nil {
		s.onSpawn(attempt)
	}
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.panicAt > 0 && attempt == s.panicAt {
		panic("spawn exploded")
	}
	if s.failAt > 0 && attempt >= s.failAt {
		return nil, s.failErr
	}

	pid := 1000 + attempt
	c := &fakeChild{pid: pid, log: s.log}
	if s.childErr != nil {
		c.terminateErr = s.childErr(pid)
	}

	s.mu.Lock()
	s.children = append(s.children, c)
	s.mu.Unlock()
	return c, nil
}

func (s *fakeSpawner) attemptCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts
}

func (s *fakeSpawner) spawned() []*fakeChild {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*fakeChild(nil), s.children...)
}

// exhaustedErr is what the real spawner returns when a PID quota is hit.
func exhaustedErr() error {
	return &process.SpawnError{Kind: process.KindResourceExhausted, Err: unix.EAGAIN}
}

// otherSpawnErr is a spawn failure unrelated to PID quotas.
func otherSpawnErr() error {
	return &process.SpawnError{Kind: process.KindOther, Err: errors.New("exec: permission denied")}
}

// =============================================================================
// Recording Recorder
// =============================================================================

type recordingRecorder struct {
	mu        sync.Mutex
	attempts  int
	failures  int
	outcomes  map[CleanupOutcome]int
	finished  int
	spawned   int
	exhausted bool
}

func newRecordingRecorder() *recordingRecorder {
	return &recordingRecorder{outcomes: make(map[CleanupOutcome]int)}
}

func (r *recordingRecorder) SpawnAttempt(_ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts++
	if err != nil {
		r.failures++
	}
}

func (r *recordingRecorder) CleanupResult(outcome CleanupOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes[outcome]++
}

func (r *recordingRecorder) RunFinished(spawned int, exhausted bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished++
	r.spawned = spawned
	r.exhausted = exhausted
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
