package curriculum

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Mode selects whether a publish call writes a version.
type Mode string

const (
	ModePublish Mode = "publish"
	ModeDryRun  Mode = "dryRun"
)

// PublishRequest is the input of Publish.
type PublishRequest struct {
	GraphID string `json:"questGraphId"`
	Title   string `json:"publishTitle,omitempty"`
	Mode    Mode   `json:"mode"`
}

// PublishResult reports the outcome of a publish or dry run. Counts and
// warnings are always present; version fields only on a successful publish.
type PublishResult struct {
	Success       bool       `json:"success"`
	VersionID     string     `json:"versionId,omitempty"`
	VersionNumber int        `json:"versionNumber,omitempty"`
	PublishedAt   *time.Time `json:"publishedAt,omitempty"`
	Counts        Counts     `json:"counts"`
	Warnings      []Issue    `json:"warnings"`
	Errors        []Issue    `json:"errors,omitempty"`
}

// MarkPublishedWarning is appended to a successful result whose status flag
// could not be flipped.
const MarkPublishedWarning = "version left in publishing status; reconciliation required"

// Publisher validates, transforms and writes curriculum graphs as versions.
// It holds no per-call state and is safe for concurrent use.
type Publisher struct {
	graphs         GraphSource
	store          VersionStore
	notifier       Notifier
	log            logr.Logger
	tracer         trace.Tracer
	now            func() time.Time
	versionRetries int
}

// NewPublisher creates a Publisher reading graphs from graphs and writing
// versions to store.
func NewPublisher(graphs GraphSource, store VersionStore, opts ...Option) *Publisher {
	p := &Publisher{
		graphs:         graphs,
		store:          store,
		log:            logr.Discard(),
		tracer:         defaultTracer(),
		now:            time.Now,
		versionRetries: 3,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Check loads and validates a graph without transforming or writing it.
func (p *Publisher) Check(ctx context.Context, graphID string) (Result, error) {
	g, err := p.graphs.LoadGraph(ctx, graphID)
	if err != nil {
		return Result{}, err
	}
	return Validate(g), nil
}

// Publish runs the pipeline for one source graph. In dry-run mode nothing is
// written and validation errors are reported without an error return. In
// publish mode a graph with validation errors yields ErrValidationFailed, and
// a failed write yields a *StoreWriteError after the attempted steps have
// been undone.
func (p *Publisher) Publish(ctx context.Context, req PublishRequest) (*PublishResult, error) {
	if req.GraphID == "" {
		return nil, fmt.Errorf("%w: questGraphId is required", ErrInvalidRequest)
	}
	if req.Mode != ModePublish && req.Mode != ModeDryRun {
		return nil, fmt.Errorf("%w: unknown mode %q", ErrInvalidRequest, req.Mode)
	}

	ctx, span := p.tracer.Start(ctx, "publish", trace.WithAttributes(
		attribute.String("curriculum.graph_id", req.GraphID),
		attribute.String("curriculum.mode", string(req.Mode)),
	))
	defer span.End()

	log := p.log.WithValues("graphId", req.GraphID, "mode", req.Mode)

	g, err := p.graphs.LoadGraph(ctx, req.GraphID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load graph")
		return nil, err
	}

	vres := Validate(g)
	doc := Transform(g)
	res := &PublishResult{
		Counts:   doc.Counts(),
		Warnings: nonNil(vres.Warnings),
		Errors:   vres.Errors,
	}
	span.SetAttributes(
		attribute.Int("curriculum.errors", len(vres.Errors)),
		attribute.Int("curriculum.warnings", len(vres.Warnings)),
	)

	if req.Mode == ModeDryRun {
		res.Success = !vres.HasErrors()
		log.V(1).Info("dry run finished", "errors", len(vres.Errors), "warnings", len(vres.Warnings))
		return res, nil
	}
	if vres.HasErrors() {
		log.Info("publish rejected by validation", "errors", len(vres.Errors))
		span.SetStatus(codes.Error, "validation failed")
		return res, ErrValidationFailed
	}

	v, err := p.write(ctx, log, req, doc)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "write failed")
		return res, err
	}

	res.Success = true
	res.VersionID = v.ID
	res.VersionNumber = v.VersionNumber
	res.PublishedAt = v.PublishedAt
	if v.Status != StatusPublished {
		res.Warnings = append(res.Warnings, Issue{Type: IssueMarkPublishedFailed, Message: MarkPublishedWarning})
	}
	span.SetAttributes(
		attribute.String("curriculum.version_id", v.ID),
		attribute.Int("curriculum.version_number", v.VersionNumber),
	)
	return res, nil
}

// write performs the sequenced, compensating write of a new version.
func (p *Publisher) write(ctx context.Context, log logr.Logger, req PublishRequest, doc *RuntimeDocument) (*Version, error) {
	export, err := doc.ExportJSON()
	if err != nil {
		return nil, &StoreWriteError{Step: StepInsertExport, Err: err}
	}

	v, err := p.createVersion(ctx, req)
	if err != nil {
		return nil, err
	}
	log = log.WithValues("versionId", v.ID, "versionNumber", v.VersionNumber)

	var undo []compensation
	undo = append(undo, compensation{"delete_version", p.store.DeleteVersion})

	steps := []struct {
		step Step
		run  func(context.Context) error
		undo compensation
	}{
		{StepInsertNodes, func(ctx context.Context) error { return p.store.InsertNodes(ctx, v.ID, doc.Nodes) }, compensation{"delete_nodes", p.store.DeleteNodes}},
		{StepInsertEdges, func(ctx context.Context) error { return p.store.InsertEdges(ctx, v.ID, doc.Edges) }, compensation{"delete_edges", p.store.DeleteEdges}},
		{StepInsertExport, func(ctx context.Context) error { return p.store.InsertExport(ctx, v.ID, export) }, compensation{"delete_export", p.store.DeleteExport}},
	}

	for _, s := range steps {
		// A step may fail after committing part of its batch, so its own
		// delete runs on rollback as well.
		undo = append(undo, s.undo)
		err := p.runStep(ctx, s.step, s.run)
		if err != nil {
			log.Error(err, "publish step failed, rolling back", "step", s.step)
			rbErr := p.rollback(ctx, log, v.ID, s.step, err, undo)
			return nil, &StoreWriteError{Step: s.step, Err: err, Rollback: rbErr}
		}
	}

	at := p.now().UTC()
	if err := p.runStep(ctx, StepMarkPublished, func(ctx context.Context) error {
		return p.store.MarkPublished(ctx, v.ID, at)
	}); err != nil {
		log.Error(err, "version written but status update failed; left for reconciliation")
	} else {
		v.Status = StatusPublished
		v.PublishedAt = &at
	}

	log.Info("version published", "nodes", len(doc.Nodes), "edges", len(doc.Edges))

	if p.notifier != nil && v.Status == StatusPublished {
		if err := p.notifier.NotifyPublished(context.WithoutCancel(ctx), *v); err != nil {
			log.Error(err, "publish notification failed")
		}
	}
	return v, nil
}

// createVersion numbers and inserts the version row, re-reading the number
// when a concurrent publish took it first.
func (p *Publisher) createVersion(ctx context.Context, req PublishRequest) (*Version, error) {
	var lastErr error
	for attempt := 0; attempt < p.versionRetries; attempt++ {
		var n int
		if err := p.runStep(ctx, StepNumberVersion, func(ctx context.Context) error {
			var err error
			n, err = p.store.NextVersionNumber(ctx, req.GraphID)
			return err
		}); err != nil {
			return nil, &StoreWriteError{Step: StepNumberVersion, Err: err}
		}

		title := req.Title
		if title == "" {
			title = fmt.Sprintf("%s v%d", req.GraphID, n)
		}
		v := &Version{
			ID:            uuid.NewString(),
			SourceGraphID: req.GraphID,
			VersionNumber: n,
			Title:         title,
			Status:        StatusPublishing,
			CreatedAt:     p.now().UTC(),
		}

		err := p.runStep(ctx, StepCreateVersion, func(ctx context.Context) error {
			return p.store.CreateVersion(ctx, v)
		})
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, ErrVersionConflict) {
			return nil, &StoreWriteError{Step: StepCreateVersion, Err: err}
		}
		p.log.V(1).Info("version number taken, retrying", "graphId", req.GraphID, "versionNumber", n, "attempt", attempt+1)
		lastErr = err
	}
	return nil, &StoreWriteError{Step: StepCreateVersion, Err: lastErr}
}

// runStep executes one store round trip in its own span. A context that is
// already done counts as a failure of the step.
func (p *Publisher) runStep(ctx context.Context, step Step, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ctx, span := p.tracer.Start(ctx, "publish."+string(step))
	defer span.End()
	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(step))
		return err
	}
	return nil
}

type compensation struct {
	name string
	run  func(ctx context.Context, versionID string) error
}

// rollback records the version as orphaned, then undoes the attempted steps
// in reverse order. It runs on a context detached from the caller so a
// cancelled request still cleans up after itself. The first failed
// compensation stops the ladder, leaving the version row in place for
// Reconcile.
func (p *Publisher) rollback(ctx context.Context, log logr.Logger, versionID string, failed Step, cause error, undo []compensation) error {
	ctx = context.WithoutCancel(ctx)
	ctx, span := p.tracer.Start(ctx, "publish.rollback", trace.WithAttributes(
		attribute.String("curriculum.failed_step", string(failed)),
	))
	defer span.End()

	reason := fmt.Sprintf("%s: %v", failed, cause)
	orphanRecorded := true
	if err := p.store.RecordOrphan(ctx, versionID, reason); err != nil {
		orphanRecorded = false
		log.Error(err, "could not record orphaned version before cleanup")
	}

	for i := len(undo) - 1; i >= 0; i-- {
		c := undo[i]
		if err := c.run(ctx, versionID); err != nil {
			log.Error(err, "compensation failed, leaving version for reconciliation", "compensation", c.name)
			err = fmt.Errorf("%s: %w", c.name, err)
			span.RecordError(err)
			span.SetStatus(codes.Error, "rollback incomplete")
			return err
		}
	}

	if orphanRecorded {
		if err := p.store.ClearOrphan(ctx, versionID); err != nil {
			log.Error(err, "could not clear orphan record after cleanup")
		}
	}
	log.Info("rolled back failed publish", "failedStep", failed)
	return nil
}

func nonNil(issues []Issue) []Issue {
	if issues == nil {
		return []Issue{}
	}
	return issues
}
