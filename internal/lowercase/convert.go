package lowercase

import (
	"context"
	"fmt"
)

// User-facing message formats. They pass through the Translator before use.
const (
	MsgBulkActionTitle  = "Convert to lowercase"
	MsgConverted        = "Label \"%s\" converted to lowercase successfully."
	MsgAlreadyLowercase = "Label \"%s\" is already lowercase."
	MsgConvertError     = "Error converting the label."
	MsgUnauthorized     = "Unauthorized"
	MsgBulkDone         = "Successfully converted %d labels to lowercase."
)

// Result describes a single-label conversion.
type Result struct {
	LabelID int64
	Name    string
	Changed bool
	Message string
}

// ConvertAll walks every label in id order and folds each name that is not
// folded yet. It returns how many labels were actually written.
//
// A label whose corrective update fails is logged and skipped. When listing
// fails or ctx is cancelled, the writes already made stay committed and the
// partial count is returned with the error.
func (p *Plugin) ConvertAll(ctx context.Context) (int, error) {
	var (
		converted int
		afterID   int64
	)
	for {
		if err := ctx.Err(); err != nil {
			p.metrics.BulkRun(err)
			return converted, fmt.Errorf("lowercase.Plugin.ConvertAll: %w", err)
		}

		page, err := p.labels.ListAfter(ctx, afterID, p.pageSize)
		if err != nil {
			p.metrics.BulkRun(err)
			return converted, fmt.Errorf("lowercase.Plugin.ConvertAll: %w", err)
		}

		for _, l := range page {
			afterID = l.ID
			if _, changed, err := p.correct(ctx, l, TriggerBulk); err == nil && changed {
				converted++
			}
		}
		if len(page) < p.pageSize {
			break
		}
	}

	p.metrics.BulkRun(nil)
	p.log.InfoContext(ctx, "lowercase: bulk conversion finished", "trigger", TriggerBulk, "converted", converted)
	return converted, nil
}

// ConvertSelected folds the labels with the given ids and returns how many
// were written. Missing labels and failed writes are logged and skipped.
// It backs the label-list bulk action.
func (p *Plugin) ConvertSelected(ctx context.Context, ids []int64) (int, error) {
	converted := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return converted, fmt.Errorf("lowercase.Plugin.ConvertSelected: %w", err)
		}
		l, err := p.labels.GetByID(ctx, id)
		if err != nil {
			p.log.WarnContext(ctx, "lowercase: read label", "label_id", id, "trigger", TriggerBulkAction, "error", err)
			continue
		}
		if _, changed, err := p.correct(ctx, l, TriggerBulkAction); err == nil && changed {
			converted++
		}
	}
	return converted, nil
}

// ConvertOne folds a single label. A label that is already folded is a
// success with nothing written. A missing label returns domain.ErrNotFound.
func (p *Plugin) ConvertOne(ctx context.Context, id int64) (Result, error) {
	l, err := p.labels.GetByID(ctx, id)
	if err != nil {
		return Result{LabelID: id}, fmt.Errorf("lowercase.Plugin.ConvertOne: %w", err)
	}

	updated, changed, err := p.correct(ctx, l, TriggerSingle)
	if err != nil {
		return Result{LabelID: id, Name: l.Name}, fmt.Errorf("lowercase.Plugin.ConvertOne: %w", err)
	}

	msg := fmt.Sprintf(p.T(MsgAlreadyLowercase), updated.Name)
	if changed {
		msg = fmt.Sprintf(p.T(MsgConverted), updated.Name)
	}
	return Result{LabelID: id, Name: updated.Name, Changed: changed, Message: msg}, nil
}
