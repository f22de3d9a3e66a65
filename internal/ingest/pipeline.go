package ingest

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"photo-ingest/internal/catalog"
	"photo-ingest/internal/enumerate"
	"photo-ingest/internal/exifdata"
	"photo-ingest/internal/filesystem"
	"photo-ingest/internal/fingerprint"
	"photo-ingest/internal/logging"
	"photo-ingest/internal/mediatypes"
	"photo-ingest/internal/metrics"
	"photo-ingest/internal/progress"
	"photo-ingest/internal/render"
)

// CatalogStore is the slice of catalog behavior the pipeline needs.
// *catalog.Catalog satisfies it; tests substitute failing implementations.
type CatalogStore interface {
	HasFingerprint(ctx context.Context, collectionID, fp string) (bool, error)
	InsertItem(ctx context.Context, item *catalog.Item) error
	Reserve(ctx context.Context, owner string, delta int64) error
	Release(ctx context.Context, owner string, delta int64) error
}

// BlobStore is the upload surface. *blob.Store satisfies it.
type BlobStore interface {
	Put(ctx context.Context, collectionID, fingerprint, ext string, data []byte) error
	RelPath(collectionID, fingerprint, ext string) string
}

// Item carries one candidate through the commit sequence. Owned by exactly
// one worker; never shared.
type Item struct {
	Candidate   enumerate.Candidate
	Stage       Stage
	Fingerprint string
	CapturedAt  *time.Time
	Width       int
	Height      int
	Err         *ItemError
}

// Outcome is the terminal result for one candidate.
type Outcome struct {
	Path  string
	Stage Stage
	Err   *ItemError
}

// Summary aggregates a run's outcomes.
type Summary struct {
	Cataloged    int
	Skipped      int
	Failed       int
	FirstFailure string
	ByKind       map[Kind]int
}

// Pipeline wires the stores and renderer together and runs candidates
// through the commit sequence.
type Pipeline struct {
	Catalog      CatalogStore
	Blobs        BlobStore
	Renderer     *render.Renderer
	Tracker      *progress.Tracker
	CollectionID string
	Owner        string
	Workers      int
}

// Run processes all candidates and returns the aggregated summary. One
// item's failure never aborts the run; the error return is non-nil only
// when the context was cancelled before every candidate was scheduled.
//
// With Workers > 1 completion order is unspecified, but progress counters
// and quota accounting remain exact.
func (p *Pipeline) Run(ctx context.Context, candidates []enumerate.Candidate) (*Summary, error) {
	n := p.Workers
	if n < 1 {
		n = 1
	}
	if n > len(candidates) && len(candidates) > 0 {
		n = len(candidates)
	}

	if p.Tracker != nil {
		p.Tracker.AddSeen(int64(len(candidates)), enumerate.TotalBytes(candidates))
	}

	metrics.PipelineRunning.Set(1)
	defer metrics.PipelineRunning.Set(0)

	logging.Info("Starting ingestion of %d candidates with %d workers", len(candidates), n)

	type job struct {
		index     int
		candidate enumerate.Candidate
	}

	jobs := make(chan job)
	outcomes := make([]*Outcome, len(candidates))

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				outcomes[j.index] = p.processItem(ctx, j.candidate)
			}
		}()
	}

	var cancelled bool
	for i, c := range candidates {
		if ctx.Err() != nil {
			cancelled = true
			break
		}
		select {
		case jobs <- job{index: i, candidate: c}:
		case <-ctx.Done():
			cancelled = true
		}
		if cancelled {
			break
		}
	}
	close(jobs)
	wg.Wait()

	summary := &Summary{ByKind: make(map[Kind]int)}
	for _, o := range outcomes {
		if o == nil {
			continue // never scheduled
		}
		switch o.Stage {
		case StageCataloged:
			summary.Cataloged++
		case StageSkipped:
			summary.Skipped++
		case StageFailed:
			summary.Failed++
			summary.ByKind[o.Err.Kind]++
			if summary.FirstFailure == "" {
				summary.FirstFailure = o.Path
			}
		}
	}

	logging.Info("Ingestion finished: %d cataloged, %d skipped, %d failed",
		summary.Cataloged, summary.Skipped, summary.Failed)

	if cancelled {
		return summary, ctx.Err()
	}
	return summary, nil
}

// processItem runs one candidate to a terminal state. Every return path
// goes through finish so the tracker sees exactly one terminal transition
// per item.
func (p *Pipeline) processItem(ctx context.Context, c enumerate.Candidate) *Outcome {
	item := &Item{Candidate: c, Stage: StagePending}

	// Hash. Streamed, so a duplicate that the dedup check is about to
	// reject never loads fully into memory.
	start := time.Now()
	fp, err := fingerprint.File(c.Path)
	if err != nil {
		return p.fail(item, KindHash, err)
	}
	item.Fingerprint = fp
	item.Stage = StageHashed
	observeStage("hash", start)

	// Dedup pre-check. A hit is a successful outcome, not an error.
	start = time.Now()
	dup, err := p.Catalog.HasFingerprint(ctx, p.CollectionID, item.Fingerprint)
	observeStage("dedup", start)
	if err != nil {
		return p.fail(item, KindCatalog, err)
	}
	if dup {
		return p.skip(item, "already cataloged")
	}
	item.Stage = StageDedupChecked

	// Metadata. The source is read once here; EXIF and render work from
	// the same buffer. Capture time is best effort; missing or broken
	// EXIF means a nil timestamp, never a failure. Dimensions come from
	// the image header, so an undecodable source fails here rather than
	// mid-render.
	start = time.Now()
	src, err := filesystem.ReadFileWithRetry(c.Path, filesystem.DefaultRetryConfig())
	if err != nil {
		return p.fail(item, KindHash, err)
	}
	item.CapturedAt = exifdata.Capture(src)
	item.Width, item.Height, err = exifdata.Dimensions(src)
	observeStage("metadata", start)
	if err != nil {
		return p.fail(item, KindDecode, err)
	}
	item.Stage = StageMetadataDone

	// Render.
	start = time.Now()
	rend, err := p.Renderer.Render(src)
	observeStage("render", start)
	src = nil
	if err != nil {
		kind := KindDecode
		if errors.Is(err, render.ErrEncode) {
			kind = KindEncode
		}
		return p.fail(item, kind, err)
	}
	item.Width = rend.Width
	item.Height = rend.Height
	item.Stage = StageRendered

	// Reserve quota for the rendition, not the source: the rendition is
	// what the blob store will hold.
	delta := rend.Size()
	start = time.Now()
	err = p.Catalog.Reserve(ctx, p.Owner, delta)
	observeStage("reserve", start)
	if errors.Is(err, catalog.ErrQuotaExceeded) {
		return p.fail(item, KindQuota, err)
	}
	if err != nil {
		return p.fail(item, KindCatalog, err)
	}
	item.Stage = StageQuotaReserved

	// Upload.
	start = time.Now()
	err = p.Blobs.Put(ctx, p.CollectionID, item.Fingerprint, render.Ext, rend.Data)
	observeStage("upload", start)
	if err != nil {
		p.release(ctx, delta)
		return p.fail(item, KindUpload, err)
	}
	item.Stage = StageUploaded

	// Commit. Losing the commit race to another session is a dedup skip;
	// either way the reservation is handed back.
	modified := c.ModTime
	row := &catalog.Item{
		CollectionID:  p.CollectionID,
		Owner:         p.Owner,
		Fingerprint:   item.Fingerprint,
		FileName:      filepath.Base(c.Path),
		MimeType:      mediatypes.GetMimeType(c.Ext()),
		SizeBytes:     delta,
		ModifiedAt:    &modified,
		CapturedAt:    item.CapturedAt,
		Width:         item.Width,
		Height:        item.Height,
		RenditionPath: p.Blobs.RelPath(p.CollectionID, item.Fingerprint, render.Ext),
	}
	start = time.Now()
	err = p.Catalog.InsertItem(ctx, row)
	observeStage("commit", start)
	if errors.Is(err, catalog.ErrDuplicate) {
		p.release(ctx, delta)
		return p.skip(item, "lost commit race")
	}
	if err != nil {
		p.release(ctx, delta)
		return p.fail(item, KindCatalog, err)
	}

	rend.Data = nil
	item.Stage = StageCataloged
	logging.Debug("Cataloged %s as %s", c.RelPath, item.Fingerprint)
	return p.finish(item)
}

// release hands a reservation back after a post-reserve failure. It runs
// detached from the item's context so a cancelled run still settles its
// accounting; a release failure is logged, not propagated, since the item
// already has a more specific error to report.
func (p *Pipeline) release(ctx context.Context, delta int64) {
	if err := p.Catalog.Release(context.WithoutCancel(ctx), p.Owner, delta); err != nil {
		logging.Error("Failed to release %d reserved bytes for %s: %v", delta, p.Owner, err)
	}
}

func (p *Pipeline) fail(item *Item, kind Kind, err error) *Outcome {
	item.Stage = StageFailed
	item.Err = itemErr(kind, item.Candidate.RelPath, err)
	logging.Warn("Ingestion failed for %s: %v", item.Candidate.RelPath, item.Err)
	return p.finish(item)
}

func (p *Pipeline) skip(item *Item, reason string) *Outcome {
	item.Stage = StageSkipped
	logging.Debug("Skipping %s: %s", item.Candidate.RelPath, reason)
	return p.finish(item)
}

func (p *Pipeline) finish(item *Item) *Outcome {
	if p.Tracker != nil {
		e := progress.OutcomeEvent{
			Path:    item.Candidate.RelPath,
			Outcome: outcomeLabel(item.Stage),
			Bytes:   item.Candidate.Size,
		}
		if item.Err != nil {
			e.Kind = string(item.Err.Kind)
		}
		p.Tracker.MarkDone(e)
	}
	return &Outcome{Path: item.Candidate.RelPath, Stage: item.Stage, Err: item.Err}
}

func outcomeLabel(s Stage) string {
	switch s {
	case StageCataloged:
		return "cataloged"
	case StageSkipped:
		return "skipped"
	default:
		return "failed"
	}
}

func observeStage(stage string, start time.Time) {
	metrics.PipelineStageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
