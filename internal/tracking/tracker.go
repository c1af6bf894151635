// Package tracking records training runs: a step history, a last-write-wins
// summary and the run configuration. Runs are persisted under a local
// directory and the summary can be mirrored to a Prometheus Pushgateway.
package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrRunFinished signals a write to a finished run.
var ErrRunFinished = errors.New("run already finished")

// SummaryPublisher receives every summary update of a run.
type SummaryPublisher interface {
	PublishSummary(ctx context.Context, run RunInfo, summary map[string]float64) error
}

// RunOptions describe a run being started.
type RunOptions struct {
	Project string
	Name    string
	Group   string
	Model   string
	Config  map[string]string
}

// RunInfo identifies a started run.
type RunInfo struct {
	ID        string            `json:"id"`
	Project   string            `json:"project"`
	Name      string            `json:"name"`
	Group     string            `json:"group"`
	Model     string            `json:"model"`
	Config    map[string]string `json:"config"`
	StartedAt time.Time         `json:"started_at"`
}

// Tracker creates runs under a root directory.
type Tracker struct {
	root      string
	publisher SummaryPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithPublisher mirrors summaries to p.
func WithPublisher(p SummaryPublisher) Option {
	return func(t *Tracker) { t.publisher = p }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// NewTracker creates a Tracker writing runs below root.
func NewTracker(root string, logger *zap.Logger, opts ...Option) *Tracker {
	t := &Tracker{root: root, logger: logger, now: time.Now}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Start creates the run directory, writes config.json and opens the history.
// An empty Group gets a fresh uuid.
func (t *Tracker) Start(_ context.Context, opts RunOptions) (*Run, error) {
	info := RunInfo{
		ID:        uuid.NewString(),
		Project:   opts.Project,
		Name:      opts.Name,
		Group:     opts.Group,
		Model:     opts.Model,
		Config:    opts.Config,
		StartedAt: t.now().UTC(),
	}
	if info.Group == "" {
		info.Group = uuid.NewString()
	}

	dir := filepath.Join(t.root, "runs", info.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create run dir: %w", err)
	}
	if err := writeJSON(filepath.Join(dir, "config.json"), info); err != nil {
		return nil, err
	}
	history, err := os.OpenFile(filepath.Join(dir, "history.jsonl"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}

	t.logger.Info("Tracking run started",
		zap.String("run_id", info.ID),
		zap.String("name", info.Name),
		zap.String("group", info.Group),
		zap.String("dir", dir),
	)
	return &Run{
		info:      info,
		dir:       dir,
		history:   history,
		summary:   make(map[string]float64),
		publisher: t.publisher,
		logger:    t.logger.With(zap.String("run_id", info.ID)),
		now:       t.now,
	}, nil
}

// Run is a single tracked run. Methods are safe for concurrent use.
type Run struct {
	info      RunInfo
	dir       string
	publisher SummaryPublisher
	logger    *zap.Logger
	now       func() time.Time

	mu       sync.Mutex
	history  *os.File
	step     int
	summary  map[string]float64
	finished bool
}

// Info returns the run identity.
func (r *Run) Info() RunInfo { return r.info }

// Dir returns the run directory.
func (r *Run) Dir() string { return r.dir }

// Log appends one timestamped entry to the history.
func (r *Run) Log(values map[string]float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finished {
		return ErrRunFinished
	}

	entry := make(map[string]any, len(values)+2)
	for k, v := range values {
		entry[k] = v
	}
	entry["_step"] = r.step
	entry["_timestamp"] = r.now().UTC().Format(time.RFC3339Nano)

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal history entry: %w", err)
	}
	if _, err := r.history.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	r.step++
	return nil
}

// UpdateSummary overwrites the given summary keys. No history is kept.
func (r *Run) UpdateSummary(ctx context.Context, values map[string]float64) error {
	r.mu.Lock()
	if r.finished {
		r.mu.Unlock()
		return ErrRunFinished
	}
	maps.Copy(r.summary, values)
	snapshot := maps.Clone(r.summary)
	r.mu.Unlock()

	if r.publisher == nil {
		return nil
	}
	if err := r.publisher.PublishSummary(ctx, r.info, snapshot); err != nil {
		r.logger.Warn("Summary publish failed", zap.Error(err))
	}
	return nil
}

// Summary returns a copy of the current summary.
func (r *Run) Summary() map[string]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return maps.Clone(r.summary)
}

// Finish writes summary.json and closes the history. Calling it twice is a no-op.
func (r *Run) Finish(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finished {
		return nil
	}
	r.finished = true

	var errs []error
	if err := writeJSON(filepath.Join(r.dir, "summary.json"), r.summary); err != nil {
		errs = append(errs, err)
	}
	if err := r.history.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close history: %w", err))
	}
	r.logger.Info("Tracking run finished", zap.Int("steps", r.step))
	return errors.Join(errs...)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
