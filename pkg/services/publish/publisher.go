package publish

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/de-tools/job-pulse/pkg/models/domain"
	"github.com/de-tools/job-pulse/pkg/models/store"
	"github.com/de-tools/job-pulse/pkg/render/markup"
	"github.com/de-tools/job-pulse/pkg/services/aggregate"
	"github.com/de-tools/job-pulse/pkg/services/peaks"
	"github.com/de-tools/job-pulse/pkg/services/report"
	"github.com/de-tools/job-pulse/pkg/services/runmode"
	"github.com/de-tools/job-pulse/pkg/store/source"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type State string

const (
	StateInit            State = "INIT"
	StateSourcesLoaded   State = "SOURCES_LOADED"
	StateModeClassified  State = "MODE_CLASSIFIED"
	StateContentRendered State = "CONTENT_RENDERED"
	StateSimulated       State = "SIMULATED"
	StateLookupDone      State = "LOOKUP_DONE"
	StateCreated         State = "CREATED"
	StateUpdated         State = "UPDATED"
	StateDone            State = "DONE"
	StateFailed          State = "FAILED"
)

type Action string

const (
	ActionNone     Action = "none"
	ActionSimulate Action = "simulate"
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
)

// DocumentStore is the remote side of a publish
type DocumentStore interface {
	Find(ctx context.Context, title, space string) (*domain.DocumentRef, error)
	Create(ctx context.Context, doc domain.RemoteDocument) (*domain.DocumentRef, error)
	Update(ctx context.Context, doc domain.RemoteDocument) (*domain.DocumentRef, error)
}

type HistoryRecorder interface {
	Record(ctx context.Context, record store.PublishRecord) error
}

type Metrics interface {
	ObservePublish(mode, action, outcome string, elapsed time.Duration)
	AddRenderFailures(n int)
	SourceDropped(source, reason string)
	AddSkippedRows(source string, n int)
}

type Request struct {
	Title    string
	Space    string
	Sources  []domain.SourceSpec
	Baseline float64
	TopN     int
	// Year and Month pin the peaks month; zero values infer it from the data
	Year  int
	Month time.Month
	// Simulate renders the document without touching the document store
	Simulate bool
	// GeneratedAt stamps the rendered report; zero renders it unstamped
	GeneratedAt time.Time
	GeneratedBy string
	// Timeout bounds the whole publish, zero means no limit
	Timeout time.Duration
}

type Result struct {
	RunID     string
	States    []State
	Mode      domain.RunMode
	Action    Action
	Report    domain.Report
	Body      string
	Document  *domain.DocumentRef
	Aggregate *aggregate.Result
}

func (r *Result) State() State {
	if len(r.States) == 0 {
		return ""
	}
	return r.States[len(r.States)-1]
}

func (r *Result) visit(s State) {
	r.States = append(r.States, s)
}

type Option func(*Publisher)

func WithHistory(history HistoryRecorder) Option {
	return func(p *Publisher) {
		p.history = history
	}
}

func WithMetrics(metrics Metrics) Option {
	return func(p *Publisher) {
		p.metrics = metrics
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *Publisher) {
		if now != nil {
			p.now = now
		}
	}
}

// Publisher runs one publish end to end. It holds no state between calls;
// concurrent publishes of the same title are only protected by the
// document store's version check.
type Publisher struct {
	loader    source.Loader
	documents DocumentStore
	history   HistoryRecorder
	metrics   Metrics
	now       func() time.Time
}

// NewPublisher builds a publisher. documents may be nil when only
// simulated runs are performed.
func NewPublisher(loader source.Loader, documents DocumentStore, opts ...Option) (*Publisher, error) {
	if loader == nil {
		return nil, fmt.Errorf("source loader is nil")
	}
	p := &Publisher{
		loader:    loader,
		documents: documents,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Publish loads, renders and writes the report. The returned result is
// never nil and lists every state visited, ending in DONE or FAILED.
func (p *Publisher) Publish(ctx context.Context, req Request) (*Result, error) {
	started := p.now()
	res := &Result{RunID: uuid.NewString(), Action: ActionNone}
	res.visit(StateInit)

	logger := zerolog.Ctx(ctx).With().
		Str("run_id", res.RunID).
		Str("title", req.Title).
		Str("space", req.Space).
		Logger()
	ctx = logger.WithContext(ctx)
	recordCtx := ctx

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	err := p.run(ctx, req, res)
	if err != nil {
		res.visit(StateFailed)
		logger.Error().Err(err).Strs("states", states(res.States)).Msg("publish failed")
	} else {
		res.visit(StateDone)
		logger.Info().
			Str("action", string(res.Action)).
			Str("mode", res.Mode.String()).
			Msg("publish finished")
	}

	p.observe(recordCtx, req, res, started, err)
	return res, err
}

func (p *Publisher) run(ctx context.Context, req Request, res *Result) error {
	logger := zerolog.Ctx(ctx)

	if req.Title == "" {
		return fmt.Errorf("title is required")
	}

	// sources
	loaded := make([]aggregate.Loaded, 0, len(req.Sources))
	for _, spec := range req.Sources {
		frame, err := p.loader.Load(ctx, spec)
		if err != nil {
			p.sourceDropped(spec.Tag, "load")
		} else {
			p.skippedRows(spec.Tag, frame.Skipped)
		}
		loaded = append(loaded, aggregate.Loaded{Tag: spec.Tag, Frame: frame, Err: err})
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("loading sources: %w", err)
	}

	agg, err := aggregate.Combine(ctx, loaded)
	if err != nil {
		return err
	}
	for _, tag := range agg.Empty {
		p.sourceDropped(tag, "empty")
	}
	res.Aggregate = agg
	res.visit(StateSourcesLoaded)

	// mode
	res.Mode = runmode.Classify(req.Title)
	res.visit(StateModeClassified)
	logger.Debug().Str("mode", res.Mode.String()).Strs("sources", agg.Tags()).Msg("run classified")

	// content
	topN := req.TopN
	if topN == 0 {
		topN = peaks.DefaultTopN
	}
	res.Report = report.Render(ctx, report.Input{
		Title:       req.Title,
		Mode:        res.Mode,
		Combined:    agg.Combined,
		PerSource:   agg.PerSource,
		Baseline:    req.Baseline,
		TopN:        topN,
		Year:        req.Year,
		Month:       req.Month,
		GeneratedAt: req.GeneratedAt,
		GeneratedBy: req.GeneratedBy,
	})
	if p.metrics != nil {
		p.metrics.AddRenderFailures(countRenderErrors(res.Report))
	}

	res.Body, err = markup.Render(res.Report)
	if err != nil {
		return fmt.Errorf("%w: document body: %w", domain.ErrRender, err)
	}
	res.visit(StateContentRendered)

	if req.Simulate {
		res.Action = ActionSimulate
		res.visit(StateSimulated)
		logger.Info().Int("body_bytes", len(res.Body)).Msg("simulated publish, nothing written")
		return nil
	}

	if p.documents == nil {
		return fmt.Errorf("%w: no document store configured", domain.ErrLookup)
	}

	// lookup
	existing, err := p.documents.Find(ctx, req.Title, req.Space)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrLookup, err)
	}
	res.visit(StateLookupDone)

	// write
	doc := domain.RemoteDocument{Title: req.Title, Space: req.Space, Body: res.Body}
	if existing == nil {
		res.Action = ActionCreate
		logger.Info().Msg("document not found, creating")
		res.Document, err = p.documents.Create(ctx, doc)
	} else {
		res.Action = ActionUpdate
		doc.ID = existing.ID
		doc.Version = existing.Version + 1
		logger.Info().
			Str("document_id", doc.ID).
			Int("version", doc.Version).
			Msg("document found, updating")
		res.Document, err = p.documents.Update(ctx, doc)
	}
	if err != nil {
		return fmt.Errorf("%w: %s %q: %w", domain.ErrWrite, res.Action, req.Title, err)
	}

	if res.Action == ActionCreate {
		res.visit(StateCreated)
	} else {
		res.visit(StateUpdated)
	}
	return nil
}

func (p *Publisher) observe(ctx context.Context, req Request, res *Result, started time.Time, runErr error) {
	outcome := "success"
	if runErr != nil {
		outcome = "failure"
	}
	if p.metrics != nil {
		p.metrics.ObservePublish(res.Mode.String(), string(res.Action), outcome, p.now().Sub(started))
	}

	if p.history == nil {
		return
	}

	record := store.PublishRecord{
		RunID:       res.RunID,
		Title:       req.Title,
		Space:       req.Space,
		Mode:        res.Mode.String(),
		Action:      string(res.Action),
		Status:      historyStatus(res, runErr),
		PublishedAt: p.now().UTC(),
	}
	if res.Document != nil {
		record.DocumentID = &res.Document.ID
		record.Version = &res.Document.Version
	}
	if runErr != nil {
		msg := runErr.Error()
		record.Error = &msg
	}

	if err := p.history.Record(ctx, record); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to record publish history")
	}
}

func (p *Publisher) sourceDropped(tag, reason string) {
	if p.metrics != nil {
		p.metrics.SourceDropped(tag, reason)
	}
}

func (p *Publisher) skippedRows(tag string, n int) {
	if p.metrics != nil {
		p.metrics.AddSkippedRows(tag, n)
	}
}

func historyStatus(res *Result, err error) string {
	switch {
	case err != nil && errors.Is(err, domain.ErrVersionConflict):
		return "conflict"
	case err != nil:
		return "failed"
	case res.Action == ActionSimulate:
		return "simulated"
	default:
		return "published"
	}
}

func countRenderErrors(r domain.Report) int {
	n := 0
	for _, s := range r.Sections {
		if s.Placeholder != nil && s.Placeholder.Marker == domain.MarkerRenderError {
			n++
		}
	}
	return n
}

func states(in []State) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = string(s)
	}
	return out
}
