package lowercase

import (
	"context"
	"fmt"

	"github.com/pkordes/labelcase/internal/domain"
	"github.com/pkordes/labelcase/internal/normalize"
)

// LabelStatus pairs a label with whether its name is already folded.
type LabelStatus struct {
	Label      domain.Label
	Normalized bool
}

// Stats is the read-only overview shown on the admin page.
type Stats struct {
	Total  int64
	Labels []LabelStatus
}

// Pending returns how many of the sampled labels still need folding.
func (s Stats) Pending() int {
	n := 0
	for _, l := range s.Labels {
		if !l.Normalized {
			n++
		}
	}
	return n
}

// Stats returns the total label count and the first limit labels by name.
func (p *Plugin) Stats(ctx context.Context, limit int) (Stats, error) {
	total, err := p.labels.Count(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("lowercase.Plugin.Stats: %w", err)
	}
	sample, err := p.labels.Sample(ctx, limit)
	if err != nil {
		return Stats{}, fmt.Errorf("lowercase.Plugin.Stats: %w", err)
	}

	out := Stats{Total: total, Labels: make([]LabelStatus, 0, len(sample))}
	for _, l := range sample {
		out.Labels = append(out.Labels, LabelStatus{Label: l, Normalized: normalize.IsNormalized(l.Name)})
	}
	return out, nil
}
