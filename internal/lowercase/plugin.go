// Package lowercase keeps label names in their case-folded form.
//
// The plugin attaches to the host through hooks.Registry: it folds label
// candidates before the host stores them, re-checks labels after they were
// stored, folds the label sets of saved items and raw form fields, and adds a
// "Convert to lowercase" bulk action. The administrative operations
// (ConvertAll, ConvertOne, Stats) are called by the admin handlers and the CLI.
//
// Every corrective write is preceded by a comparison with the folded form, so
// an already folded label is never written. The host fires its update hooks
// on a corrective write; the re-entrant check then finds nothing to do.
package lowercase

import (
	"context"
	"log/slog"
	"maps"

	"github.com/google/uuid"

	"github.com/pkordes/labelcase/internal/domain"
	"github.com/pkordes/labelcase/internal/hooks"
	"github.com/pkordes/labelcase/internal/metrics"
	"github.com/pkordes/labelcase/internal/normalize"
)

// Trigger values recorded in logs and metrics.
const (
	TriggerPostPersist = "post_persist"
	TriggerBulk        = "bulk"
	TriggerBulkAction  = "bulk_action"
	TriggerSingle      = "single"
	TriggerItem        = "item"
)

// BulkActionName is the machine name of the label-list bulk action.
const BulkActionName = "convert_to_lowercase"

// ResultParam is the redirect query parameter carrying a conversion count.
const ResultParam = "converted_lowercase"

// LabelStore is the part of the host label API the plugin needs.
// *service.LabelService satisfies it.
type LabelStore interface {
	GetByID(ctx context.Context, id int64) (domain.Label, error)
	ListAfter(ctx context.Context, afterID int64, limit int) ([]domain.Label, error)
	Update(ctx context.Context, id int64, payload any) (domain.Label, error)
	Sample(ctx context.Context, limit int) ([]domain.Label, error)
	Count(ctx context.Context) (int64, error)
}

// ItemStore is the part of the host item API the plugin needs.
// *service.ItemService satisfies it.
type ItemStore interface {
	LabelNames(ctx context.Context, id uuid.UUID) ([]string, error)
	SetLabels(ctx context.Context, id uuid.UUID, names []string) error
}

// Translator maps a message format to its localized form.
type Translator func(msg string) string

// MessageTable returns a Translator backed by msgs. Formats without an entry,
// or with an empty one, are returned unchanged.
func MessageTable(msgs map[string]string) Translator {
	return func(msg string) string {
		if t := msgs[msg]; t != "" {
			return t
		}
		return msg
	}
}

// Plugin holds configuration only; it keeps no state between calls.
type Plugin struct {
	labels     LabelStore
	items      ItemStore
	log        *slog.Logger
	metrics    *metrics.Metrics
	translate  Translator
	pageSize   int
	formFields map[string]bool
}

// Option configures a Plugin.
type Option func(*Plugin)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Plugin) { p.log = l }
}

// WithMetrics sets the counters conversions are recorded on.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Plugin) { p.metrics = m }
}

// WithTranslator sets the function user-facing messages pass through.
func WithTranslator(t Translator) Option {
	return func(p *Plugin) { p.translate = t }
}

// WithPageSize sets how many labels ConvertAll reads per page.
// Values below 1 are ignored.
func WithPageSize(n int) Option {
	return func(p *Plugin) {
		if n > 0 {
			p.pageSize = n
		}
	}
}

// WithFormFields replaces the set of form fields that hold label names.
func WithFormFields(names ...string) Option {
	return func(p *Plugin) {
		p.formFields = make(map[string]bool, len(names))
		for _, n := range names {
			p.formFields[n] = true
		}
	}
}

// DefaultPageSize is the ConvertAll page size when none is configured.
const DefaultPageSize = 100

// New returns a Plugin working through labels and items.
func New(labels LabelStore, items ItemStore, opts ...Option) *Plugin {
	p := &Plugin{
		labels:    labels,
		items:     items,
		log:       slog.Default(),
		translate: func(msg string) string { return msg },
		pageSize:  DefaultPageSize,
		formFields: map[string]bool{
			"name":       true,
			"tag-name":   true,
			"label-name": true,
		},
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Register attaches every interception point to reg.
func (p *Plugin) Register(reg *hooks.Registry) error {
	reg.OnLabelPrePersist(p.FilterCandidate)
	reg.OnLabelCreated(p.OnLabelSaved)
	reg.OnLabelUpdated(p.OnLabelSaved)
	reg.OnItemSaved(p.OnItemSaved)
	reg.OnFormField(p.FilterFormField)
	return reg.RegisterBulkAction(hooks.BulkAction{
		Name:        BulkActionName,
		Title:       p.T(MsgBulkActionTitle),
		ResultParam: ResultParam,
		Run:         p.ConvertSelected,
	})
}

// T returns the localized form of msg.
func (p *Plugin) T(msg string) string {
	return p.translate(msg)
}

// FilterCandidate folds the name carried by a label candidate.
//
// A bare string is folded. A domain.LabelInput is returned as a folded copy;
// a *domain.LabelInput is rewritten in place. Maps with a string "name" key
// are copied with the name folded. Anything else is returned untouched so
// the host can reject it.
func (p *Plugin) FilterCandidate(_ context.Context, payload any) any {
	switch v := payload.(type) {
	case string:
		return normalize.Normalize(v)
	case domain.LabelInput:
		v.Name = normalize.Normalize(v.Name)
		return v
	case *domain.LabelInput:
		if v != nil {
			v.Name = normalize.Normalize(v.Name)
		}
		return v
	case map[string]any:
		name, ok := v["name"].(string)
		if !ok {
			return v
		}
		out := maps.Clone(v)
		out["name"] = normalize.Normalize(name)
		return out
	case map[string]string:
		name, ok := v["name"]
		if !ok {
			return v
		}
		out := maps.Clone(v)
		out["name"] = normalize.Normalize(name)
		return out
	default:
		return payload
	}
}

// FilterFormField folds value when field holds a label name.
func (p *Plugin) FilterFormField(field, value string) string {
	if !p.formFields[field] {
		return value
	}
	return normalize.Normalize(value)
}

// OnLabelSaved re-reads a stored label and corrects its name when it is not
// folded. Failures are logged and counted, never returned: the host has
// already committed the original write.
func (p *Plugin) OnLabelSaved(ctx context.Context, labelID int64) {
	l, err := p.labels.GetByID(ctx, labelID)
	if err != nil {
		p.metrics.Conversion(TriggerPostPersist, metrics.OutcomeFailed)
		p.log.WarnContext(ctx, "lowercase: read label", "label_id", labelID, "trigger", TriggerPostPersist, "error", err)
		return
	}
	_, _, _ = p.correct(ctx, l, TriggerPostPersist)
}

// OnItemSaved folds and de-duplicates the names of an item's labels. When
// anything changed the item's label set is replaced by the folded names,
// which the host resolves by exact name. The host fires item-saved again for
// that write and the second pass finds the set already folded.
func (p *Plugin) OnItemSaved(ctx context.Context, itemID uuid.UUID) {
	names, err := p.items.LabelNames(ctx, itemID)
	if err != nil {
		p.metrics.Conversion(TriggerItem, metrics.OutcomeFailed)
		p.log.WarnContext(ctx, "lowercase: read item labels", "item_id", itemID, "trigger", TriggerItem, "error", err)
		return
	}

	folded, changed := foldSet(names)
	if !changed {
		p.metrics.Conversion(TriggerItem, metrics.OutcomeSkipped)
		return
	}

	if err := p.items.SetLabels(ctx, itemID, folded); err != nil {
		p.metrics.Conversion(TriggerItem, metrics.OutcomeFailed)
		p.log.WarnContext(ctx, "lowercase: replace item labels", "item_id", itemID, "trigger", TriggerItem, "error", err)
		return
	}
	p.metrics.Conversion(TriggerItem, metrics.OutcomeUpdated)
	p.log.InfoContext(ctx, "lowercase: item labels folded", "item_id", itemID, "trigger", TriggerItem, "labels", folded)
}

// foldSet folds every name and drops duplicates, keeping first-seen order.
// changed reports whether the result differs from names.
func foldSet(names []string) (folded []string, changed bool) {
	folded = make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		f := normalize.Normalize(n)
		if f != n {
			changed = true
		}
		if seen[f] {
			changed = true
			continue
		}
		seen[f] = true
		folded = append(folded, f)
	}
	return folded, changed
}

// correct writes the folded name of l when it differs from the stored one.
// The host regenerates the slug from the new name. It reports whether a
// write happened.
func (p *Plugin) correct(ctx context.Context, l domain.Label, trigger string) (domain.Label, bool, error) {
	folded := normalize.Normalize(l.Name)
	if folded == l.Name {
		p.metrics.Conversion(trigger, metrics.OutcomeSkipped)
		return l, false, nil
	}

	updated, err := p.labels.Update(ctx, l.ID, domain.LabelInput{Name: folded})
	if err != nil {
		p.metrics.Conversion(trigger, metrics.OutcomeFailed)
		p.log.WarnContext(ctx, "lowercase: corrective update failed",
			"label_id", l.ID, "trigger", trigger, "name", l.Name, "error", err)
		return l, false, err
	}

	p.metrics.Conversion(trigger, metrics.OutcomeUpdated)
	p.log.InfoContext(ctx, "lowercase: label folded",
		"label_id", l.ID, "trigger", trigger, "from", l.Name, "to", updated.Name)
	return updated, true, nil
}
