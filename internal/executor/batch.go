package executor

import (
	"context"
	"encoding/json"
	"fmt"

	"easel-ai/internal/domain"
)

// autoSpacingFactor is the stride between auto-placed siblings, as a
// multiple of the base dimension, when a create call asks for count > 1
// without explicit spacing.
const autoSpacingFactor = 1.5

// callKey identifies a create call for result re-association. Two calls
// with the same tool name and identical input share a key; assignment is
// FIFO, so positional correspondence still holds.
func callKey(call domain.ToolCall) string {
	// encoding/json sorts map keys, so the serialization is canonical.
	raw, err := json.Marshal(call.Input)
	if err != nil {
		raw = []byte(fmt.Sprintf("%v", call.Input))
	}
	return call.Name + "|" + string(raw)
}

// expandCreate turns one create call into its attribute records. A count
// greater than one yields count sibling records auto-spaced along the x
// axis; every record carries the concrete object type.
func expandCreate(call domain.ToolCall) []domain.ObjectAttrs {
	base := domain.ObjectAttrs{}
	for k, v := range call.Input {
		if k == "count" || k == "spacing" {
			continue
		}
		base[k] = v
	}

	switch call.Name {
	case ToolCreateShape:
		if t, ok := base["shape_type"].(string); ok {
			base["type"] = t
			delete(base, "shape_type")
		}
	case ToolCreateText:
		base["type"] = "text"
	}

	count := 1
	if c, ok := asInt64(call.Input["count"]); ok && c > 1 {
		count = int(c)
	}
	if count == 1 {
		return []domain.ObjectAttrs{base}
	}

	width := domain.DefaultObjectSize
	if w, ok := asFloat64(base["width"]); ok && w > 0 {
		width = w
	}
	stride := width * autoSpacingFactor
	if s, ok := asFloat64(call.Input["spacing"]); ok && s > 0 {
		stride = s
	}

	x := 0.0
	if v, ok := asFloat64(base["x"]); ok {
		x = v
	}

	records := make([]domain.ObjectAttrs, 0, count)
	for i := 0; i < count; i++ {
		rec := domain.ObjectAttrs{}
		for k, v := range base {
			rec[k] = v
		}
		rec["x"] = x + float64(i)*stride
		records = append(records, rec)
	}
	return records
}

// executeCreates merges every create call into one atomic bulk insert and
// writes each call's result into results at its original index. Partial
// failure rolls back the whole batch; every originating call then carries
// the identical batch failure.
func (e *Executor) executeCreates(ctx context.Context, canvasID int64, calls []domain.ToolCall, indexes []int, results []domain.ToolResult) {
	if len(indexes) == 0 {
		return
	}

	type owner struct {
		index   int
		records int
	}

	var allRecords []domain.ObjectAttrs
	owners := make(map[string][]owner)
	ownerKeys := make([]string, 0, len(indexes))

	for _, idx := range indexes {
		call := calls[idx]
		records := expandCreate(call)
		key := callKey(call)
		owners[key] = append(owners[key], owner{index: idx, records: len(records)})
		ownerKeys = append(ownerKeys, key)
		allRecords = append(allRecords, records...)
	}

	refs, err := e.store.CreateObjectsBatch(ctx, canvasID, allRecords)
	if err != nil {
		msg := domain.NewDomainError("Executor.executeCreates", domain.ErrBatchCreate, err.Error()).Error()
		for _, idx := range indexes {
			results[idx] = domain.ToolResult{
				Tool:  calls[idx].Name,
				Input: calls[idx].Input,
				Error: msg,
			}
		}
		return
	}

	// Re-associate refs to originating calls by key, FIFO within a key.
	pos := 0
	for _, key := range ownerKeys {
		o := owners[key][0]
		owners[key] = owners[key][1:]

		created := refs[pos : pos+o.records]
		pos += o.records

		results[o.index] = domain.ToolResult{
			Tool:   calls[o.index].Name,
			Input:  calls[o.index].Input,
			Result: created,
		}
		for i := range created {
			e.publish(ctx, canvasID, domain.ObjectEvent{Type: "object_created", Object: &created[i]})
		}
	}

	e.logger.Debug("batch create completed",
		"canvas_id", canvasID,
		"calls", len(indexes),
		"objects", len(refs),
	)
}
