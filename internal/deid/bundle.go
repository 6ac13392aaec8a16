package deid

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Document is one member of a scrub bundle.
type Document struct {
	ID   string
	Text string
	Meta DocumentMeta
}

// BundleResult pairs a document ID with its scrub output.
type BundleResult struct {
	ID     string
	Result ScrubResult
	Audit  *AuditReport
}

// ScrubBundle scrubs documents concurrently, one worker per document up to
// the given limit. Documents are independent; results come back in input
// order but no cross-document processing order is guaranteed. Cancellation
// is honored between documents only, never mid-cascade, so a canceled
// bundle never contains a half-redacted result. Any scrub error fails the
// whole bundle.
func ScrubBundle(ctx context.Context, s *Scrubber, docs []Document, workers int) ([]BundleResult, error) {
	if s == nil {
		return nil, fmt.Errorf("deid: bundle requires a scrubber")
	}
	if workers <= 0 {
		workers = 4
	}

	results := make([]BundleResult, len(docs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, doc := range docs {
		i, doc := i, doc
		g.Go(func() error {
			// Cancellation boundary: before the document, not inside it.
			if err := ctx.Err(); err != nil {
				return err
			}
			result, audit, err := s.ScrubWithAudit(ctx, doc.Text, doc.Meta)
			if err != nil {
				return fmt.Errorf("deid: document %s: %w", doc.ID, err)
			}
			results[i] = BundleResult{ID: doc.ID, Result: result, Audit: audit}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
