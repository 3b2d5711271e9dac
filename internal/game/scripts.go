package game

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"chosenoffset.com/emberfall/internal/logging"
	"chosenoffset.com/emberfall/internal/quill"
)

// maxScriptHistory bounds the finished runs kept for the debug server.
const maxScriptHistory = 32

// Scheduler runs every active script, one Interpreter each, once per frame.
type Scheduler struct {
	opts quill.Options
	dir  string
	log  *zap.Logger

	active  []*quill.Interpreter
	pending []*quill.Interpreter // Started during Tick, joined afterwards

	mu        sync.Mutex
	snapshots []quill.Snapshot
	history   []quill.Snapshot
}

// NewScheduler creates a scheduler. Relative script paths resolve under dir.
func NewScheduler(opts quill.Options, dir string, log *zap.Logger) *Scheduler {
	return &Scheduler{
		opts: opts,
		dir:  dir,
		log:  logging.OrNop(log),
	}
}

// Start runs src as a new script.
func (s *Scheduler) Start(name string, src []byte) error {
	in := quill.New(s.opts, s.log)
	if err := in.RunScript(name, src); err != nil {
		s.retire(in)
		return fmt.Errorf("failed to start script %s: %w", name, err)
	}
	s.pending = append(s.pending, in)
	s.log.Info("script started", zap.String("script", name))
	return nil
}

// StartFile loads and starts a script file.
func (s *Scheduler) StartFile(path string) error {
	if !filepath.IsAbs(path) && s.dir != "" {
		path = filepath.Join(s.dir, path)
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read script %s: %w", path, err)
	}
	return s.Start(filepath.Base(path), src)
}

// Tick gives every script one slice of execution with the current engine
// symbols. Finished scripts are closed and moved to the history.
func (s *Scheduler) Tick(ctx context.Context, now time.Time, externals map[string]string) {
	s.join()
	still := s.active[:0]
	for _, in := range s.active {
		in.SetExternals(externals)
		if status := in.Tick(ctx, now); status.Done() {
			s.retire(in)
			continue
		}
		still = append(still, in)
	}
	for i := len(still); i < len(s.active); i++ {
		s.active[i] = nil
	}
	s.active = still
	s.join()
	s.publish()
}

func (s *Scheduler) join() {
	s.active = append(s.active, s.pending...)
	s.pending = nil
}

func (s *Scheduler) retire(in *quill.Interpreter) {
	snap := in.Snapshot()
	in.Close()
	s.log.Debug("script retired", zap.String("script", snap.Script), zap.String("status", snap.Status))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, snap)
	if len(s.history) > maxScriptHistory {
		s.history = s.history[len(s.history)-maxScriptHistory:]
	}
}

func (s *Scheduler) publish() {
	snaps := make([]quill.Snapshot, len(s.active))
	for i, in := range s.active {
		snaps[i] = in.Snapshot()
	}
	s.mu.Lock()
	s.snapshots = snaps
	s.mu.Unlock()
}

// StopAll aborts and closes every script.
func (s *Scheduler) StopAll() {
	s.join()
	for _, in := range s.active {
		in.Abort()
		s.retire(in)
	}
	s.active = nil
	s.publish()
}

// Running returns the number of live scripts.
func (s *Scheduler) Running() int {
	return len(s.active) + len(s.pending)
}

// Snapshots returns the state of the live scripts as of the last Tick.
// Safe to call from other goroutines.
func (s *Scheduler) Snapshots() []quill.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]quill.Snapshot(nil), s.snapshots...)
}

// History returns recently finished runs, oldest first.
// Safe to call from other goroutines.
func (s *Scheduler) History() []quill.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]quill.Snapshot(nil), s.history...)
}
