package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/competitive-radar/backend/internal/agents/categorize"
	"github.com/competitive-radar/backend/internal/agents/prioritize"
	"github.com/competitive-radar/backend/internal/agents/research"
	"github.com/competitive-radar/backend/internal/agents/summarize"
	"github.com/competitive-radar/backend/internal/demo"
	"github.com/competitive-radar/backend/internal/llm"
	"github.com/competitive-radar/backend/internal/metrics"
	"github.com/competitive-radar/backend/internal/storage/models"
	"github.com/competitive-radar/backend/pkg/logger"
	"github.com/competitive-radar/backend/pkg/utils"
)

var (
	ErrNoSource = errors.New("pipeline has no input source")
	// ErrNoInsights means research dropped every record of a non-empty batch.
	ErrNoInsights = errors.New("no update could be analyzed")
)

type Source interface {
	Load() ([]models.RawUpdate, string, error)
}

type DigestStore interface {
	SaveDigest(ctx context.Context, digest *models.Digest) error
}

// RunHistory is the durable record of past runs.
type RunHistory interface {
	DigestStore
	LatestRun(ctx context.Context, persona string) (*models.RunRecord, error)
}

type DigestCache interface {
	DigestStore
	LatestDigest(ctx context.Context, persona string) (*models.Digest, error)
	IncrementMetric(ctx context.Context, metricName string) error
	GetMetric(ctx context.Context, metricName string) (int64, error)
}

const runCounterPrefix = "runs:"

type Config struct {
	Offline bool
	Persona string
}

// Deps are the collaborators of an Orchestrator. Output is required;
// History and Cache are optional and must be left nil when disabled.
type Deps struct {
	Client  llm.Completer
	Source  Source
	Output  DigestStore
	History RunHistory
	Cache   DigestCache
	Now     func() time.Time
}

type RunOptions struct {
	// Persona overrides the configured persona for this run.
	Persona  string
	Progress func(StageEvent)
}

// Orchestrator runs the four agent stages and persists the result. Runs are
// serialized because every run overwrites the same output file.
type Orchestrator struct {
	mu sync.Mutex

	offline bool
	persona string

	source  Source
	output  DigestStore
	history RunHistory
	cache   DigestCache
	now     func() time.Time

	lastMu sync.RWMutex
	last   map[string]*models.Digest

	research   *research.Agent
	categorize *categorize.Agent
	prioritize *prioritize.Agent
}

func New(cfg Config, deps Deps) *Orchestrator {
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	return &Orchestrator{
		offline:    cfg.Offline,
		persona:    cfg.Persona,
		source:     deps.Source,
		output:     deps.Output,
		history:    deps.History,
		cache:      deps.Cache,
		now:        now,
		last:       make(map[string]*models.Digest),
		research:   research.New(deps.Client),
		categorize: categorize.New(deps.Client),
		prioritize: prioritize.New(deps.Client),
	}
}

// Mode is the mode a successful run produces.
func (o *Orchestrator) Mode() models.DigestMode {
	if o.offline {
		return models.ModeOffline
	}
	return models.ModeLive
}

func (o *Orchestrator) Persona() string {
	return o.persona
}

// RunFromSource loads the input and runs the pipeline on it. A load failure
// is returned to the caller; no fallback digest is produced for it.
func (o *Orchestrator) RunFromSource(ctx context.Context, opts RunOptions) (*models.Digest, error) {
	if o.source == nil {
		return nil, ErrNoSource
	}

	emit := emitter(opts.Progress)
	emit(StageEvent{Stage: StageLoad, Status: StatusStarted})

	updates, path, err := o.source.Load()
	if err != nil {
		emit(StageEvent{Stage: StageLoad, Status: StatusFailed, Message: err.Error()})
		return nil, fmt.Errorf("failed to load competitor updates: %w", err)
	}
	emit(StageEvent{Stage: StageLoad, Status: StatusFinished, Count: len(updates), Message: path})

	return o.Run(ctx, updates, opts)
}

// Run produces a digest for updates. In live mode any stage failure or
// panic yields the static fallback digest instead of an error; only a
// failure to write the output file is returned.
func (o *Orchestrator) Run(ctx context.Context, updates []models.RawUpdate, opts RunOptions) (*models.Digest, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	start := o.now()
	emit := emitter(opts.Progress)

	persona := opts.Persona
	if persona == "" {
		persona = o.persona
	}

	fingerprint, err := utils.Fingerprint(updates)
	if err != nil {
		logger.Warn("Failed to fingerprint input", zap.Error(err))
	}

	digest := &models.Digest{
		ID:               uuid.New().String(),
		Persona:          persona,
		InputCount:       len(updates),
		InputFingerprint: fingerprint,
	}

	logger.Info("Pipeline run started",
		zap.String("run_id", digest.ID),
		zap.String("mode", string(o.Mode())),
		zap.Int("updates", len(updates)),
	)

	if o.offline {
		digest.Mode = models.ModeOffline
		digest.Top = o.runOffline(updates, emit)
	} else {
		top, err := o.runLive(ctx, updates, emit)
		if err != nil {
			logger.Warn("Live pipeline failed, serving fallback digest",
				zap.String("run_id", digest.ID),
				zap.Error(err),
			)
			emit(StageEvent{Stage: StageFallback, Status: StatusFinished, Message: err.Error()})
			digest.Mode = models.ModeFallback
			digest.Top = demo.TopInsights()
			digest.Content = demo.Digest
		} else {
			digest.Mode = models.ModeLive
			digest.Top = top
		}
	}

	digest.GeneratedAt = o.now()
	if digest.Mode != models.ModeFallback {
		emit(StageEvent{Stage: StageSummarize, Status: StatusStarted, Count: len(digest.Top)})
		digest.Content = summarize.Render(digest.Top, persona, digest.GeneratedAt)
		emit(StageEvent{Stage: StageSummarize, Status: StatusFinished, Count: len(digest.Top)})
	}
	digest.LatencyMS = int(digest.GeneratedAt.Sub(start).Milliseconds())

	if err := o.persist(ctx, digest, emit); err != nil {
		return nil, err
	}

	metrics.PipelineRuns.WithLabelValues(string(digest.Mode)).Inc()
	metrics.PipelineDuration.WithLabelValues(string(digest.Mode)).Observe(o.now().Sub(start).Seconds())

	logger.Info("Pipeline run complete",
		zap.String("run_id", digest.ID),
		zap.String("mode", string(digest.Mode)),
		zap.Int("top", len(digest.Top)),
		zap.Int("latency_ms", digest.LatencyMS),
	)
	return digest, nil
}

func (o *Orchestrator) runLive(ctx context.Context, updates []models.RawUpdate, emit func(StageEvent)) (top []models.RankedInsight, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pipeline panic: %v", r)
		}
	}()

	emit(StageEvent{Stage: StageResearch, Status: StatusStarted, Count: len(updates)})
	insights, err := o.research.Run(ctx, updates)
	if err != nil {
		return nil, err
	}
	if len(updates) > 0 && len(insights) == 0 {
		return nil, fmt.Errorf("%w: all %d dropped", ErrNoInsights, len(updates))
	}
	emit(StageEvent{Stage: StageResearch, Status: StatusFinished, Count: len(insights)})

	emit(StageEvent{Stage: StageCategorize, Status: StatusStarted, Count: len(insights)})
	categorized, err := o.categorize.Run(ctx, insights)
	if err != nil {
		return nil, err
	}
	emit(StageEvent{Stage: StageCategorize, Status: StatusFinished, Count: len(categorized)})

	emit(StageEvent{Stage: StagePrioritize, Status: StatusStarted, Count: len(categorized)})
	top, err = o.prioritize.Run(ctx, categorized)
	if err != nil {
		return nil, err
	}
	emit(StageEvent{Stage: StagePrioritize, Status: StatusFinished, Count: len(top)})

	return top, nil
}

func (o *Orchestrator) runOffline(updates []models.RawUpdate, emit func(StageEvent)) []models.RankedInsight {
	emit(StageEvent{Stage: StageResearch, Status: StatusStarted, Count: len(updates)})
	insights := research.Static(updates)
	emit(StageEvent{Stage: StageResearch, Status: StatusFinished, Count: len(insights)})

	emit(StageEvent{Stage: StageCategorize, Status: StatusStarted, Count: len(insights)})
	categorized := categorize.Keyword(insights)
	emit(StageEvent{Stage: StageCategorize, Status: StatusFinished, Count: len(categorized)})

	emit(StageEvent{Stage: StagePrioritize, Status: StatusStarted, Count: len(categorized)})
	top := prioritize.PassThrough(categorized)
	emit(StageEvent{Stage: StagePrioritize, Status: StatusFinished, Count: len(top)})

	return top
}

// persist writes the Markdown file, then the optional stores. Only the
// Markdown write can fail the run.
func (o *Orchestrator) persist(ctx context.Context, digest *models.Digest, emit func(StageEvent)) error {
	emit(StageEvent{Stage: StagePersist, Status: StatusStarted})

	if o.output != nil {
		if err := o.output.SaveDigest(ctx, digest); err != nil {
			emit(StageEvent{Stage: StagePersist, Status: StatusFailed, Message: err.Error()})
			return fmt.Errorf("failed to save digest: %w", err)
		}
	}

	// a cancelled request must not lose the history row
	bg := context.WithoutCancel(ctx)
	if o.history != nil {
		if err := o.history.SaveDigest(bg, digest); err != nil {
			logger.Warn("Failed to record digest run", zap.String("run_id", digest.ID), zap.Error(err))
		}
	}
	if o.cache != nil {
		if err := o.cache.SaveDigest(bg, digest); err != nil {
			logger.Warn("Failed to cache digest", zap.String("run_id", digest.ID), zap.Error(err))
		}
		if err := o.cache.IncrementMetric(bg, runCounterPrefix+string(digest.Mode)); err != nil {
			logger.Warn("Failed to count run", zap.String("mode", string(digest.Mode)), zap.Error(err))
		}
	}

	o.lastMu.Lock()
	o.last[digest.Persona] = digest
	o.lastMu.Unlock()

	emit(StageEvent{Stage: StagePersist, Status: StatusFinished})
	return nil
}

// Latest returns the most recent digest prepared for persona: from the
// cache, this process, or the run history. Otherwise the pipeline runs.
func (o *Orchestrator) Latest(ctx context.Context, persona string) (*models.Digest, error) {
	if persona == "" {
		persona = o.persona
	}

	if o.cache != nil {
		digest, err := o.cache.LatestDigest(ctx, persona)
		if err != nil {
			logger.Warn("Digest cache lookup failed", zap.Error(err))
		} else if digest != nil {
			return digest, nil
		}
	}

	o.lastMu.RLock()
	digest := o.last[persona]
	o.lastMu.RUnlock()
	if digest != nil {
		return digest, nil
	}

	if o.history != nil {
		record, err := o.history.LatestRun(ctx, persona)
		if err != nil {
			logger.Warn("Run history lookup failed", zap.Error(err))
		} else if record != nil && record.Content != "" {
			return &models.Digest{
				ID:               record.ID,
				Persona:          record.Persona,
				Mode:             record.Mode,
				Content:          record.Content,
				InputCount:       record.InputCount,
				InputFingerprint: record.InputFingerprint,
				LatencyMS:        record.LatencyMS,
				GeneratedAt:      record.CreatedAt,
			}, nil
		}
	}

	return o.RunFromSource(ctx, RunOptions{Persona: persona})
}

// RunCounts reports how many runs finished in each mode. It is nil when no
// cache is configured.
func (o *Orchestrator) RunCounts(ctx context.Context) (map[models.DigestMode]int64, error) {
	if o.cache == nil {
		return nil, nil
	}

	counts := make(map[models.DigestMode]int64, 3)
	for _, mode := range []models.DigestMode{models.ModeLive, models.ModeOffline, models.ModeFallback} {
		n, err := o.cache.GetMetric(ctx, runCounterPrefix+string(mode))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s run count: %w", mode, err)
		}
		counts[mode] = n
	}
	return counts, nil
}
