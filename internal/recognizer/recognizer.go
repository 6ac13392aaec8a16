// Package recognizer provides the statistical entity-recognition backends
// for the de-identification pipeline. The pipeline only consumes the
// deid.Detector contract; everything backend-specific stays behind the
// adapter in this package.
package recognizer

import (
	"context"
	"fmt"

	"github.com/wolfman30/phi-scrubber/internal/deid"
)

// InitError reports a missing or misconfigured backend dependency at
// construction time. Callers may respond by choosing StubDetector
// explicitly; the pipeline itself never falls back silently.
type InitError struct {
	Dependency string
	Err        error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("recognizer: %s unavailable: %v", e.Dependency, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// StubDetector is a no-op backend for degraded operation: deterministic
// pattern detectors still run, statistical detection is skipped.
type StubDetector struct{}

// DetectEntities always returns an empty candidate set.
func (StubDetector) DetectEntities(ctx context.Context, text string) ([]deid.Detection, error) {
	return nil, nil
}
