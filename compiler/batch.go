package compiler

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/promptc-ai/promptc/config"
	"github.com/promptc-ai/promptc/providers"
	"github.com/promptc-ai/promptc/utils"
)

// BatchTarget names one destination for a batch compilation.
type BatchTarget struct {
	Model    string
	Provider string
}

// BatchResult pairs a target with its run outcome. Err is only ever a
// *ConfigError or *DecompileError; in-loop failures land in Result.History.
type BatchResult struct {
	Target BatchTarget
	Result *Result
	Err    error
}

// BatchCompiler compiles one source prompt for several targets
// concurrently. Each target gets its own Pipeline because pipelines hold
// per-run client state; a shared limiter paces run starts so provider rate
// limits are not tripped by the fan-out.
type BatchCompiler struct {
	cfg       *config.Config
	providers *providers.ProviderRegistry
	logger    utils.Logger
	limiter   *rate.Limiter
	opts      []Option
}

// NewBatchCompiler builds a batch compiler with a default pacing of one run
// start every three seconds.
func NewBatchCompiler(cfg *config.Config, registry *providers.ProviderRegistry, logger utils.Logger, opts ...Option) *BatchCompiler {
	return &BatchCompiler{
		cfg:       cfg,
		providers: registry,
		logger:    logger,
		limiter:   rate.NewLimiter(rate.Every(3*time.Second), 1),
		opts:      opts,
	}
}

// SetRateLimit replaces the pacing limiter.
func (b *BatchCompiler) SetRateLimit(limit rate.Limit, burst int) {
	b.limiter = rate.NewLimiter(limit, burst)
}

// Compile runs the request against every target and returns one result per
// target, in target order. A cancelled context stops runs that have not
// started; runs in flight finish with StatusCancelled.
func (b *BatchCompiler) Compile(ctx context.Context, req Request, targets []BatchTarget) []BatchResult {
	results := make([]BatchResult, len(targets))

	var wg sync.WaitGroup
	for i, target := range targets {
		if err := b.limiter.Wait(ctx); err != nil {
			results[i] = BatchResult{Target: target, Err: err}
			continue
		}

		wg.Add(1)
		go func(i int, target BatchTarget) {
			defer wg.Done()
			results[i] = b.compileOne(ctx, req, target)
		}(i, target)
	}
	wg.Wait()

	return results
}

func (b *BatchCompiler) compileOne(ctx context.Context, req Request, target BatchTarget) BatchResult {
	runReq := req
	runReq.TargetModel = target.Model
	runReq.TargetProvider = target.Provider

	pipeline, err := New(b.cfg, b.providers, b.logger, b.opts...)
	if err != nil {
		return BatchResult{Target: target, Err: err}
	}

	b.logger.Info("Batch target starting", "model", target.Model, "provider", target.Provider)
	result, err := pipeline.Run(ctx, runReq)
	return BatchResult{Target: target, Result: result, Err: err}
}
