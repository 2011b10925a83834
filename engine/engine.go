// Package engine sequences decode, build and persist for conversion and
// merge operations, with duplicate detection up front and a
// partial-failure policy for merges.
package engine

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"docforge/fingerprint"
	"docforge/observability"
	"docforge/raster"
	"docforge/store"
	"docforge/writer"
)

var (
	// ErrInsufficientValidSources covers both a request below the
	// operation's minimum input count and a merge left with zero valid
	// pages after skips.
	ErrInsufficientValidSources = errors.New("engine: not enough valid sources")
	// ErrPersistFailed wraps a storage write failure. The store discards
	// the whole artifact; nothing partial survives.
	ErrPersistFailed = errors.New("engine: persist failed")
)

// Progress receives a monotonically non-decreasing fraction in [0,1].
// The persist step always completes at 1. Smoothing is a presentation
// concern; the engine reports true work done.
type Progress func(fraction float64)

// Result describes a finished operation.
type Result struct {
	ArtifactID string
	// Duplicate is set when an equivalent artifact already existed; no
	// new artifact was created and ArtifactID names the existing one.
	Duplicate bool
	Pages     int
	// SkippedSourceIDs lists merge sources dropped after decode or
	// encode failures. Always empty for conversions.
	SkippedSourceIDs []string
	State            State
}

// Engine owns no shared mutable state; independent operations may run
// concurrently on the same Engine.
type Engine struct {
	store  store.Store
	log    observability.Logger
	tracer observability.Tracer
}

type Option func(*Engine)

func WithLogger(l observability.Logger) Option { return func(e *Engine) { e.log = l } }
func WithTracer(t observability.Tracer) Option { return func(e *Engine) { e.tracer = t } }

func New(st store.Store, opts ...Option) *Engine {
	e := &Engine{store: st, log: observability.NopLogger{}, tracer: observability.NopTracer()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Convert produces a one-page PDF from a single source image. A decode
// failure is fatal: there is no other source to fall back on.
func (e *Engine) Convert(ctx context.Context, sourceID string, progress Progress) (*Result, error) {
	ctx, span := e.tracer.StartSpan(ctx, "engine.convert")
	defer span.Finish()
	start := time.Now()
	res, err := e.run(ctx, store.KindConversion, []string{sourceID}, progress)
	e.finish(span, observability.MetricConvertTime, start, res, err)
	return res, err
}

// Merge produces an N-page PDF from two or more sources, in
// caller-supplied order. A single source's failure is recorded as a
// skip; the merge fails only when no valid source remains.
func (e *Engine) Merge(ctx context.Context, sourceIDs []string, progress Progress) (*Result, error) {
	ctx, span := e.tracer.StartSpan(ctx, "engine.merge")
	defer span.Finish()
	start := time.Now()
	res, err := e.run(ctx, store.KindMerge, sourceIDs, progress)
	e.finish(span, observability.MetricMergeTime, start, res, err)
	return res, err
}

func (e *Engine) finish(span observability.Span, metric string, start time.Time, res *Result, err error) {
	span.SetTag(metric, time.Since(start).Seconds())
	if res != nil {
		span.SetTag(observability.MetricPageCount, res.Pages)
		span.SetTag(observability.MetricSkippedCount, len(res.SkippedSourceIDs))
	}
	if err != nil {
		span.SetError(err)
	}
}

func (e *Engine) run(ctx context.Context, kind store.Kind, sourceIDs []string, progress Progress) (*Result, error) {
	op := newOperation()
	report := func(f float64) {
		if progress != nil {
			progress(f)
		}
	}

	if err := op.to(StateValidating); err != nil {
		return nil, err
	}
	minSources := 1
	if kind == store.KindMerge {
		minSources = 2
	}
	if len(sourceIDs) < minSources {
		op.fail()
		return e.failed(op, fmt.Errorf("%w: got %d, need %d", ErrInsufficientValidSources, len(sourceIDs), minSources))
	}

	assets := make([]*store.Asset, 0, len(sourceIDs))
	for _, id := range sourceIDs {
		a, err := e.store.Get(ctx, id)
		if err != nil {
			op.fail()
			return e.failed(op, err)
		}
		if !raster.Supported(a.MimeType) {
			op.fail()
			return e.failed(op, fmt.Errorf("%w: %s (%s)", raster.ErrUnsupportedSourceFormat, a.Name, a.MimeType))
		}
		assets = append(assets, a)
	}

	// Duplicate detection runs before any decode work so it stays cheap
	// and side-effect free.
	fp := fingerprint.Compute(sourceIDs)
	existing, err := e.store.List(ctx)
	if err != nil {
		op.fail()
		return e.failed(op, err)
	}
	var dup *store.ArtifactMeta
	var found bool
	if kind == store.KindConversion {
		dup, found = fingerprint.FindConversion(sourceIDs[0], existing)
	} else {
		dup, found = fingerprint.FindDuplicate(fp, existing)
	}
	if found {
		if err := op.to(StateSkipped); err != nil {
			return nil, err
		}
		e.log.Info("duplicate artifact found, skipping",
			observability.String("artifact", dup.ID),
			observability.String("fingerprint", fp.Digest))
		report(1)
		return &Result{ArtifactID: dup.ID, Duplicate: true, State: op.state}, nil
	}

	if err := op.to(StateDecoding); err != nil {
		return nil, err
	}
	var (
		encoded []*raster.Encoded
		skipped []string
	)
	total := len(assets)
	for i, a := range assets {
		if err := ctx.Err(); err != nil {
			op.fail()
			return e.failed(op, err)
		}
		enc, err := decodeAndEncode(a)
		if err != nil {
			if kind == store.KindConversion {
				op.fail()
				return e.failed(op, err)
			}
			skipped = append(skipped, a.ID)
			e.log.Warn("source skipped",
				observability.String("source", a.ID),
				observability.String("name", a.Name),
				observability.Error("reason", err))
		} else {
			encoded = append(encoded, enc)
		}
		report(float64(i+1) / float64(total+1))
	}
	if len(encoded) == 0 {
		op.fail()
		return e.failed(op, fmt.Errorf("%w: all %d sources failed to decode", ErrInsufficientValidSources, total))
	}

	if err := op.to(StateBuilding); err != nil {
		return nil, err
	}
	doc, err := writer.Assemble(encoded)
	if err != nil {
		op.fail()
		return e.failed(op, err)
	}

	// No storage mutation has happened yet; a cancellation up to here
	// needs no cleanup.
	if err := ctx.Err(); err != nil {
		op.fail()
		return e.failed(op, err)
	}
	if err := op.to(StatePersisting); err != nil {
		return nil, err
	}
	meta := store.ArtifactMeta{
		Name:        artifactName(kind, assets),
		Generated:   true,
		Kind:        kind,
		SourceIDs:   append([]string(nil), sourceIDs...),
		Fingerprint: fp.Digest,
		GeneratedAt: time.Now(),
	}
	id, err := e.store.Put(ctx, doc, meta)
	if err != nil {
		op.fail()
		return e.failed(op, fmt.Errorf("%w: %v", ErrPersistFailed, err))
	}
	if err := op.to(StateDone); err != nil {
		return nil, err
	}
	report(1)

	e.log.Info("artifact created",
		observability.String("artifact", id),
		observability.String("kind", string(kind)),
		observability.Int("pages", len(encoded)),
		observability.Int("bytes", len(doc)),
		observability.Strings("skipped", skipped))
	return &Result{
		ArtifactID:       id,
		Pages:            len(encoded),
		SkippedSourceIDs: skipped,
		State:            op.state,
	}, nil
}

func (e *Engine) failed(op *operation, err error) (*Result, error) {
	e.log.Error("operation failed", observability.Error("error", err))
	return &Result{State: op.state}, err
}

func decodeAndEncode(a *store.Asset) (*raster.Encoded, error) {
	d, err := raster.Decode(a.Data, a.MimeType)
	if err != nil {
		return nil, err
	}
	return raster.Encode(d, raster.FormatJPEG)
}

func artifactName(kind store.Kind, assets []*store.Asset) string {
	if kind == store.KindConversion {
		base := assets[0].Name
		base = strings.TrimSuffix(base, path.Ext(base))
		if base == "" {
			base = "document"
		}
		return base + ".pdf"
	}
	return fmt.Sprintf("merge-%d-files.pdf", len(assets))
}
