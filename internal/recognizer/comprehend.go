package recognizer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/comprehendmedical"
	cmtypes "github.com/aws/aws-sdk-go-v2/service/comprehendmedical/types"

	"github.com/wolfman30/phi-scrubber/internal/deid"
)

// detectPHIAPI is the subset of the Comprehend Medical client used by the
// adapter.
type detectPHIAPI interface {
	DetectPHI(ctx context.Context, params *comprehendmedical.DetectPHIInput, optFns ...func(*comprehendmedical.Options)) (*comprehendmedical.DetectPHIOutput, error)
}

// ComprehendDetector adapts AWS Comprehend Medical DetectPHI output into the
// pipeline's Detection contract: backend categories are mapped to pipeline
// entity types, malformed spans are dropped, and spans crossing a newline
// are truncated to their first line.
type ComprehendDetector struct {
	api detectPHIAPI
}

// NewComprehendDetector wraps an existing Comprehend Medical client.
func NewComprehendDetector(api detectPHIAPI) *ComprehendDetector {
	if api == nil {
		panic("recognizer: comprehend medical client cannot be nil")
	}
	return &ComprehendDetector{api: api}
}

// NewFromEnv builds a ComprehendDetector from ambient AWS configuration.
// A missing region or unloadable credential chain yields an *InitError so
// callers can decide between failing and substituting StubDetector.
func NewFromEnv(ctx context.Context, region, endpointOverride string) (*ComprehendDetector, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, &InitError{Dependency: "aws comprehend medical", Err: err}
	}
	if cfg.Region == "" {
		return nil, &InitError{
			Dependency: "aws comprehend medical",
			Err:        errors.New("no AWS region configured"),
		}
	}

	client := comprehendmedical.NewFromConfig(cfg, func(o *comprehendmedical.Options) {
		if endpointOverride != "" {
			o.BaseEndpoint = aws.String(endpointOverride)
		}
	})
	return NewComprehendDetector(client), nil
}

// entityTypeFor maps a Comprehend Medical PHI subtype onto a pipeline
// entity type. Unmapped subtypes return "" and are skipped.
func entityTypeFor(sub cmtypes.EntitySubType) string {
	switch sub {
	case cmtypes.EntitySubTypeName:
		return deid.EntityPerson
	case cmtypes.EntitySubTypeDate:
		return deid.EntityDateTime
	case cmtypes.EntitySubTypeAddress:
		return deid.EntityLocation
	case cmtypes.EntitySubTypeId:
		return deid.EntityMRN
	case cmtypes.EntitySubTypePhoneOrFax:
		return deid.EntityPhone
	case cmtypes.EntitySubTypeEmail:
		return deid.EntityEmail
	case cmtypes.EntitySubTypeAge:
		return deid.EntityAge
	case cmtypes.EntitySubTypeUrl:
		return deid.EntityURL
	default:
		return ""
	}
}

// DetectEntities calls DetectPHI and normalizes the response.
func (d *ComprehendDetector) DetectEntities(ctx context.Context, text string) ([]deid.Detection, error) {
	out, err := d.api.DetectPHI(ctx, &comprehendmedical.DetectPHIInput{
		Text: aws.String(text),
	})
	if err != nil {
		return nil, fmt.Errorf("recognizer: detect phi: %w", err)
	}

	dets := make([]deid.Detection, 0, len(out.Entities))
	for _, e := range out.Entities {
		entityType := entityTypeFor(e.Type)
		if entityType == "" {
			continue
		}

		start := int(aws.ToInt32(e.BeginOffset))
		end := int(aws.ToInt32(e.EndOffset))
		if start < 0 || start >= end || end > len(text) {
			continue
		}
		// Never let one placeholder swallow the next line's content.
		if idx := strings.IndexByte(text[start:end], '\n'); idx >= 0 {
			if idx == 0 {
				continue
			}
			end = start + idx
		}

		dets = append(dets, deid.Detection{
			EntityType: entityType,
			Start:      start,
			End:        end,
			Score:      float64(aws.ToFloat32(e.Score)),
			Source:     "comprehend_medical",
		})
	}
	return dets, nil
}
