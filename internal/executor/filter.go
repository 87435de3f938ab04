package executor

import (
	"context"
	"encoding/json"
	"strings"

	"easel-ai/internal/domain"
)

// objectFilter selects canvas objects by attribute criteria. Providers send
// it instead of explicit ids on large canvases, where the prompt carries
// aggregate statistics rather than a per-object id inventory.
type objectFilter struct {
	Type    string  `json:"type,omitempty"`
	Fill    string  `json:"fill,omitempty"`
	MinSize float64 `json:"min_size,omitempty"`
	MaxSize float64 `json:"max_size,omitempty"`
}

func (f objectFilter) empty() bool {
	return f.Type == "" && f.Fill == "" && f.MinSize == 0 && f.MaxSize == 0
}

// matches reports whether o satisfies every set criterion. Size bounds
// compare against the larger of the object's two dimensions.
func (f objectFilter) matches(o domain.ObjectRef) bool {
	if f.Type != "" && !strings.EqualFold(f.Type, o.Type) {
		return false
	}
	if f.Fill != "" && !strings.EqualFold(f.Fill, o.Fill) {
		return false
	}
	size := max(o.Width(), o.Height())
	if f.MinSize > 0 && size < f.MinSize {
		return false
	}
	if f.MaxSize > 0 && size > f.MaxSize {
		return false
	}
	return true
}

// filterObjects resolves a tool-call filter input against the canvas
// inventory. An empty or unmatched filter is an error: a layout that would
// silently apply to nothing hides the miss from the user.
func (e *Executor) filterObjects(ctx context.Context, canvasID int64, v any) ([]domain.ObjectRef, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, domain.NewDomainError("Executor.filterObjects", domain.ErrObjectNotFound, "invalid filter: "+err.Error())
	}
	var f objectFilter
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, domain.NewDomainError("Executor.filterObjects", domain.ErrObjectNotFound, "invalid filter: "+err.Error())
	}
	if f.empty() {
		return nil, domain.NewDomainError("Executor.filterObjects", domain.ErrObjectNotFound, "filter has no criteria")
	}

	all, err := e.store.ListObjects(ctx, canvasID)
	if err != nil {
		return nil, err
	}
	matched := make([]domain.ObjectRef, 0, len(all))
	for _, o := range all {
		if f.matches(o) {
			matched = append(matched, o)
		}
	}
	if len(matched) == 0 {
		return nil, domain.NewDomainError("Executor.filterObjects", domain.ErrObjectNotFound, "no objects match filter")
	}
	return matched, nil
}
