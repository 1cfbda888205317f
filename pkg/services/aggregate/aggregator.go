package aggregate

import (
	"context"
	"fmt"
	"sort"

	"github.com/de-tools/job-pulse/pkg/models/domain"
	"github.com/rs/zerolog"
)

// Loaded is the outcome of loading one tagged source
type Loaded struct {
	Tag   string
	Frame domain.Frame
	Err   error
}

// Result holds the cross-source frame and the surviving per-source frames
type Result struct {
	Combined  domain.Frame
	PerSource map[string]domain.Frame
	Failed    []string
	Empty     []string
}

// Tags returns the surviving source tags in ascending order.
func (r *Result) Tags() []string {
	tags := make([]string, 0, len(r.PerSource))
	for tag := range r.PerSource {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Combine merges per-source frames into one frame tagged by source.
// Sources that failed to load or hold no rows are dropped with a warning.
// Rows reported by several sources for the same date are all kept.
// A dataset whose rows carry their own region is split into one source per
// region, see RegionTag.
func Combine(ctx context.Context, sources []Loaded) (*Result, error) {
	logger := zerolog.Ctx(ctx)

	res := &Result{PerSource: make(map[string]domain.Frame)}
	loaded := 0

	ordered := append([]Loaded(nil), sources...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Tag < ordered[j].Tag
	})

	for _, src := range ordered {
		if src.Err != nil {
			logger.Warn().Err(src.Err).Str("source", src.Tag).Msg("dropping source that failed to load")
			res.Failed = append(res.Failed, src.Tag)
			continue
		}
		loaded++

		if src.Frame.Empty() {
			logger.Warn().
				Str("source", src.Tag).
				Int("skipped_rows", src.Frame.Skipped).
				Msg("dropping source without usable rows")
			res.Empty = append(res.Empty, src.Tag)
			continue
		}

		for _, part := range splitRegions(src.Tag, src.Frame) {
			if _, exists := res.PerSource[part.tag]; exists {
				return nil, fmt.Errorf("duplicate source tag: %s", part.tag)
			}
			res.PerSource[part.tag] = part.frame
			res.Combined = res.Combined.Append(part.frame.Retag(part.tag))
		}
	}

	if loaded == 0 {
		return nil, fmt.Errorf("%w: %d of %d sources failed", domain.ErrSourceLoad, len(res.Failed), len(sources))
	}
	if res.Combined.Empty() {
		return nil, fmt.Errorf("%w: %d sources loaded", domain.ErrNoValidSourceData, loaded)
	}

	return res, nil
}

// RegionTag names the source a row belongs to. Rows without a region, or
// whose region matches the dataset tag, stay under the dataset tag; any other
// region becomes "<dataset>/<region>".
func RegionTag(dataset, region string) string {
	if region == "" || region == dataset {
		return dataset
	}
	return dataset + "/" + region
}

type regionFrame struct {
	tag   string
	frame domain.Frame
}

func splitRegions(dataset string, frame domain.Frame) []regionFrame {
	byTag := make(map[string]*domain.Frame)
	var tags []string
	for _, p := range frame.Points {
		tag := RegionTag(dataset, p.SourceTag)
		part, ok := byTag[tag]
		if !ok {
			part = &domain.Frame{}
			byTag[tag] = part
			tags = append(tags, tag)
		}
		part.Points = append(part.Points, p)
	}

	if len(tags) == 1 && tags[0] == dataset {
		return []regionFrame{{tag: dataset, frame: frame}}
	}

	sort.Strings(tags)
	parts := make([]regionFrame, 0, len(tags))
	for i, tag := range tags {
		part := *byTag[tag]
		// skipped rows have no region, keep the count on one part only
		if i == 0 {
			part.Skipped = frame.Skipped
		}
		parts = append(parts, regionFrame{tag: tag, frame: part})
	}
	return parts
}
