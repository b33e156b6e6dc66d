// Package pipeline runs one SEO analysis: scrape the page, ask the model for
// a structured report and assemble the result.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/seo-dashboard/internal/generate"
	"github.com/sells-group/seo-dashboard/internal/model"
	"github.com/sells-group/seo-dashboard/internal/schema"
	"github.com/sells-group/seo-dashboard/internal/scrape"
	"github.com/sells-group/seo-dashboard/internal/store"
)

// ErrAnalysisFailed matches every error returned by Pipeline.Run and
// Pipeline.Analyze.
var ErrAnalysisFailed = eris.New("pipeline: analysis failed")

// Stage names used in logs and errors.
const (
	StageScrape   = "scrape"
	StageGenerate = "generate"
	StageDecode   = "decode"
)

// timestampLayout is ISO-8601 with millisecond precision, e.g.
// 2025-01-02T15:04:05.000Z.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// AnalysisError reports the stage that stopped an analysis. RunID is the run
// log entry recording the failure, empty when the run log is unavailable.
type AnalysisError struct {
	Stage string
	RunID string
	Err   error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("pipeline: analysis failed at %s: %v", e.Stage, e.Err)
}

func (e *AnalysisError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrAnalysisFailed) true for every AnalysisError.
func (e *AnalysisError) Is(target error) bool {
	return target == ErrAnalysisFailed
}

// Request identifies who asked for an analysis. Only URL is required.
type Request struct {
	URL       string
	SessionID string
	Email     string
}

// Outcome is a successful analysis and the run log entry that recorded it.
type Outcome struct {
	RunID string
	Data  *model.AnalysisData
}

// Pipeline orchestrates the scrape and generate stages. Stages run in order
// and are never retried.
type Pipeline struct {
	scraper      scrape.Scraper
	generator    generate.Generator
	store        store.Store
	schema       *schema.Node
	contentLimit int
	genTimeout   time.Duration
	now          func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithContentLimit sets how many characters of page content go into the
// prompt. Non-positive values keep DefaultContentLimit.
func WithContentLimit(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.contentLimit = n
		}
	}
}

// WithGenerateTimeout bounds the generate stage. Zero means no bound beyond
// the caller's context.
func WithGenerateTimeout(d time.Duration) Option {
	return func(p *Pipeline) { p.genTimeout = d }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New creates a Pipeline. A nil store disables the run log.
func New(scraper scrape.Scraper, generator generate.Generator, st store.Store, opts ...Option) *Pipeline {
	if st == nil {
		st = store.NopStore{}
	}
	p := &Pipeline{
		scraper:      scraper,
		generator:    generator,
		store:        st,
		schema:       schema.SEOAnalysis(),
		contentLimit: DefaultContentLimit,
		now:          time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Analyze runs one analysis for an already validated URL.
func (p *Pipeline) Analyze(ctx context.Context, validatedURL string) (*model.AnalysisData, error) {
	out, err := p.Run(ctx, Request{URL: validatedURL})
	if err != nil {
		return nil, err
	}
	return out.Data, nil
}

// Run executes the scrape, prompt, generate and assembly stages. On any
// failure it returns an *AnalysisError and no data.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Outcome, error) {
	log := zap.L().With(zap.String("url", req.URL))
	start := time.Now()

	runID := p.createRun(ctx, req, log)
	log = log.With(zap.String("run_id", runID))
	log.Info("pipeline: starting analysis")

	fail := func(stage, scraper string, err error) (*Outcome, error) {
		log.Error("pipeline: stage failed",
			zap.String("stage", stage),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		if runID != "" {
			if logErr := p.store.FailRun(context.WithoutCancel(ctx), runID, scraper, err.Error()); logErr != nil {
				log.Warn("pipeline: record failed run", zap.Error(logErr))
			}
		}
		return nil, &AnalysisError{Stage: stage, RunID: runID, Err: err}
	}

	// Stage 1: scrape.
	stageStart := time.Now()
	scraped, err := p.scraper.Scrape(ctx, req.URL)
	if err != nil {
		return fail(StageScrape, "", err)
	}
	content := scraped.Content()
	metadata := scraped.MetadataOrEmpty()
	log.Info("pipeline: scraped",
		zap.String("source", scraped.Source),
		zap.Int("content_chars", len(content)),
		zap.Int("metadata_keys", len(metadata)),
		zap.Duration("duration", time.Since(stageStart)),
	)

	// Stage 2: prompt.
	prompt := buildPrompt(req.URL, metadata, content, p.contentLimit, p.schema)

	// Stage 3: generate.
	stageStart = time.Now()
	genCtx, cancel := ctx, context.CancelFunc(func() {})
	if p.genTimeout > 0 {
		genCtx, cancel = context.WithTimeout(ctx, p.genTimeout)
	}
	raw, err := p.generator.Generate(genCtx, generate.Request{
		Name:   schema.SEOAnalysisName,
		Prompt: prompt,
		Schema: p.schema,
	})
	cancel()
	if err != nil {
		return fail(StageGenerate, scraped.Source, err)
	}
	log.Info("pipeline: generated",
		zap.String("provider", p.generator.Name()),
		zap.Int("bytes", len(raw)),
		zap.Duration("duration", time.Since(stageStart)),
	)

	var analysis model.SEOAnalysis
	if err := json.Unmarshal(raw, &analysis); err != nil {
		return fail(StageDecode, scraped.Source, eris.Wrap(err, "pipeline: decode analysis"))
	}

	// Stage 4: assemble. The timestamp is taken once generation returned.
	data := &model.AnalysisData{
		URL:         req.URL,
		Timestamp:   p.now().UTC().Format(timestampLayout),
		Metadata:    metadata,
		ScrapeData:  scraped,
		SEOAnalysis: analysis,
	}

	if runID != "" {
		if err := p.store.CompleteRun(context.WithoutCancel(ctx), runID, scraped.Source, analysis.OverallScore); err != nil {
			log.Warn("pipeline: record complete run", zap.Error(err))
		}
	}
	log.Info("pipeline: analysis complete",
		zap.Float64("overall_score", analysis.OverallScore),
		zap.Duration("elapsed", time.Since(start)),
	)
	return &Outcome{RunID: runID, Data: data}, nil
}

// Supersede marks a finished run as replaced by a newer request. Errors are
// logged only.
func (p *Pipeline) Supersede(ctx context.Context, runID string) {
	if runID == "" {
		return
	}
	if err := p.store.SupersedeRun(ctx, runID); err != nil {
		zap.L().Warn("pipeline: record superseded run", zap.String("run_id", runID), zap.Error(err))
	}
}

// createRun opens a run log entry. The run log is an audit trail, so a
// failure here is logged and the analysis goes on without a run id.
func (p *Pipeline) createRun(ctx context.Context, req Request, log *zap.Logger) string {
	run, err := p.store.CreateRun(ctx, store.NewRun{
		SessionID: req.SessionID,
		Email:     req.Email,
		URL:       req.URL,
	})
	if err != nil {
		log.Warn("pipeline: create run", zap.Error(err))
		return ""
	}
	return run.ID
}
