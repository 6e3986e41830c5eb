package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/cursor2d/cursor2d/pkg/cache"
	"github.com/cursor2d/cursor2d/pkg/errors"
	"github.com/cursor2d/cursor2d/pkg/jobs"
	"github.com/cursor2d/cursor2d/pkg/observability"
	"github.com/cursor2d/cursor2d/pkg/target"
)

// Runner encapsulates pipeline execution with caching and job records.
//
// The Runner holds no per-run state. Multiple goroutines can safely use the
// same Runner; each Execute drives at most one engine run.
type Runner struct {
	Cache   cache.Cache
	Keyer   cache.Keyer
	Jobs    jobs.Store
	Engines map[target.Target]Engine
	NewID   func() string
	Logger  *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
// Engines and Jobs are set by the caller; without Jobs nothing is recorded.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Runner{
		Cache:   c,
		Keyer:   keyer,
		Engines: make(map[target.Target]Engine),
		NewID:   uuid.NewString,
		Logger:  logger,
	}
}

// cachedRender is the cache payload for a finished render.
type cachedRender struct {
	URL          string `json:"url"`
	ArtifactPath string `json:"artifact_path"`
}

// Execute runs sanitize, normalize, validate and render for one script.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)
	t := opts.target

	engine, ok := r.Engines[t]
	if !ok {
		return nil, errors.New(errors.ErrCodeUnsupported, "no engine configured for %q", t)
	}

	id := opts.JobID
	if id == "" {
		id = r.NewID()
	}
	rec := &jobs.Record{
		ID:        id,
		Target:    t.String(),
		Status:    jobs.StatusRunning,
		Script:    opts.Script,
		ExitCode:  -1,
		CreatedAt: start,
	}
	r.record(ctx, rec)

	fail := func(err error) (*Result, error) {
		rec.Fail(err)
		r.record(ctx, rec)
		opts.Logger.Warn("pipeline failed", "job", id, "code", errors.GetCode(err))
		return nil, err
	}

	// Stages 1 and 2: Repair
	repaired, err := Repair(t, opts.Script)
	if err != nil {
		return fail(err)
	}
	rec.NormalizedScript = repaired.Normalized
	observability.Pipeline().OnSanitize(ctx, t.String(), repaired.Fired)

	result := &Result{
		JobID:      id,
		Target:     t,
		Normalized: repaired.Normalized,
		Fired:      repaired.Fired,
	}
	result.Stats.RepairTime = time.Since(start)
	opts.Logger.Debug("repaired script", "job", id, "rules", repaired.Fired, "duration", result.Stats.RepairTime)

	// Stage 3: Validate
	err = Check(t, repaired.Normalized)
	observability.Pipeline().OnValidate(ctx, t.String(), err)
	if err != nil {
		return fail(err)
	}

	// Stage 4: Render
	key := r.Keyer.RenderKey(t.String(), cache.Hash([]byte(repaired.Normalized)), engine.Fingerprint())
	result.CacheInfo.Key = key

	if !opts.Refresh {
		if hit, ok := r.lookup(ctx, key); ok {
			result.URL = hit.URL
			result.ArtifactPath = hit.ArtifactPath
			result.CacheInfo.RenderHit = true
			result.Stats.TotalTime = time.Since(start)
			rec.ExitCode = 0
			rec.Succeed(hit.URL, hit.ArtifactPath, true)
			r.record(ctx, rec)
			opts.Logger.Info("render cache hit", "job", id, "url", hit.URL)
			return result, nil
		}
	}

	renderStart := time.Now()
	observability.Pipeline().OnRenderStart(ctx, t.String(), id)
	art, err := engine.Run(ctx, id, repaired.Normalized)
	result.Stats.RenderTime = time.Since(renderStart)
	observability.Pipeline().OnRenderComplete(ctx, t.String(), id, result.Stats.RenderTime, err)
	if err != nil {
		return fail(err)
	}

	result.URL = art.URL
	result.ArtifactPath = art.Path
	result.Stats.TotalTime = time.Since(start)
	r.store(ctx, key, cachedRender{URL: art.URL, ArtifactPath: art.Path})

	rec.Stderr = art.Stderr
	rec.ExitCode = art.ExitCode
	rec.Succeed(art.URL, art.Path, false)
	r.record(ctx, rec)

	opts.Logger.Info("rendered",
		"job", id,
		"target", t,
		"url", art.URL,
		"duration", result.Stats.RenderTime)
	return result, nil
}

// Repair runs only the repair stages and the validator gate. The returned
// result has no URL.
func (r *Runner) Repair(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	repaired, err := Repair(opts.target, opts.Script)
	if err != nil {
		return nil, err
	}
	observability.Pipeline().OnSanitize(ctx, opts.Target, repaired.Fired)

	result := &Result{
		Target:     opts.target,
		Normalized: repaired.Normalized,
		Fired:      repaired.Fired,
	}
	result.Stats.RepairTime = time.Since(start)
	result.Stats.TotalTime = result.Stats.RepairTime

	err = Check(opts.target, repaired.Normalized)
	observability.Pipeline().OnValidate(ctx, opts.Target, err)
	return result, err
}

// lookup returns the cached render for key if its artifact is still on disk.
func (r *Runner) lookup(ctx context.Context, key string) (cachedRender, bool) {
	var hit cachedRender
	data, ok, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache get failed", "err", err)
	}
	if err != nil || !ok {
		observability.Cache().OnCacheMiss(ctx, "render")
		return hit, false
	}
	if err := json.Unmarshal(data, &hit); err != nil || hit.URL == "" {
		observability.Cache().OnCacheMiss(ctx, "render")
		return hit, false
	}
	if _, err := os.Stat(hit.ArtifactPath); err != nil {
		r.Logger.Debug("cached artifact gone", "path", hit.ArtifactPath)
		_ = r.Cache.Delete(ctx, key)
		observability.Cache().OnCacheMiss(ctx, "render")
		return hit, false
	}
	observability.Cache().OnCacheHit(ctx, "render")
	return hit, true
}

func (r *Runner) store(ctx context.Context, key string, v cachedRender) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := r.Cache.Set(ctx, key, data, cache.TTLRender); err != nil {
		r.Logger.Warn("cache set failed", "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, "render", len(data))
}

// record stores rec. A failing job store never fails the run.
func (r *Runner) record(ctx context.Context, rec *jobs.Record) {
	if r.Jobs == nil {
		return
	}
	if err := r.Jobs.Put(context.WithoutCancel(ctx), rec); err != nil {
		r.Logger.Warn("job record not stored", "job", rec.ID, "err", err)
	}
}

// Close releases resources held by the runner (cache and job store).
func (r *Runner) Close() error {
	var cacheErr, jobsErr error
	if r.Cache != nil {
		cacheErr = r.Cache.Close()
	}
	if r.Jobs != nil {
		jobsErr = r.Jobs.Close()
	}
	if cacheErr != nil {
		return fmt.Errorf("close cache: %w", cacheErr)
	}
	if jobsErr != nil {
		return fmt.Errorf("close jobs: %w", jobsErr)
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
