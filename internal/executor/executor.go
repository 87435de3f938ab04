// Package executor turns canonical tool calls into object-store mutations.
// Creates are merged into one atomic batch insert; everything else executes
// individually; the result list always matches the call list in length and
// order.
package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"easel-ai/internal/domain"
	"easel-ai/internal/layout"
)

// Executor executes normalized tool calls against the object store.
type Executor struct {
	store     domain.ObjectStore
	publisher domain.Publisher
	logger    *slog.Logger
}

// New creates an executor. publisher may be nil when no realtime fanout is
// configured.
func New(store domain.ObjectStore, publisher domain.Publisher, logger *slog.Logger) *Executor {
	return &Executor{store: store, publisher: publisher, logger: logger}
}

func (e *Executor) publish(ctx context.Context, canvasID int64, event domain.ObjectEvent) {
	if e.publisher == nil {
		return
	}
	e.publisher.Publish(ctx, canvasID, event)
}

// Execute runs every tool call and returns exactly one result per call, in
// the original call order. Tool-level failures are scoped to their own
// result and never abort sibling operations.
func (e *Executor) Execute(ctx context.Context, canvasID int64, calls []domain.ToolCall, selectedIDs []int64) []domain.ToolResult {
	results := make([]domain.ToolResult, len(calls))

	var createIndexes []int
	for i := range calls {
		calls[i].Input = NormalizeInput(calls[i].Input)
		injectSelection(&calls[i], selectedIDs)

		if isCreateTool(calls[i].Name) {
			createIndexes = append(createIndexes, i)
			continue
		}

		payload, err := e.executeOne(ctx, canvasID, calls[i])
		results[i] = domain.ToolResult{Tool: calls[i].Name, Input: calls[i].Input, Result: payload}
		if err != nil {
			results[i].Result = nil
			results[i].Error = err.Error()
		}
	}

	e.executeCreates(ctx, canvasID, calls, createIndexes, results)
	return results
}

// injectSelection fills a layout call's missing object_ids from the current
// selection so "arrange these in a grid" works without explicit ids. A call
// carrying a filter keeps it: the model chose criteria deliberately.
func injectSelection(call *domain.ToolCall, selectedIDs []int64) {
	if call.Name != ToolArrange || len(selectedIDs) == 0 {
		return
	}
	if len(idList(call.Input["object_ids"])) > 0 || call.Input["filter"] != nil {
		return
	}
	ids := make([]any, len(selectedIDs))
	for i, id := range selectedIDs {
		ids[i] = id
	}
	if call.Input == nil {
		call.Input = map[string]any{}
	}
	call.Input["object_ids"] = ids
}

func (e *Executor) executeOne(ctx context.Context, canvasID int64, call domain.ToolCall) (any, error) {
	switch call.Name {
	case ToolMoveObject:
		return e.updateObject(ctx, call, "x", "y")
	case ToolResizeObject:
		return e.updateObject(ctx, call, "width", "height")
	case ToolUpdateObject:
		return e.updateObject(ctx, call, "fill", "text")
	case ToolDeleteObject:
		return e.deleteObject(ctx, canvasID, call)
	case ToolArrange:
		return e.arrange(ctx, canvasID, call)
	case ToolBringFront:
		return e.reorder(ctx, call, e.store.BringToFront)
	case ToolSendBack:
		return e.reorder(ctx, call, e.store.SendToBack)
	case ToolMoveForward:
		return e.reorder(ctx, call, e.store.MoveForward)
	case ToolMoveBackward:
		return e.reorder(ctx, call, e.store.MoveBackward)
	default:
		return nil, domain.NewDomainError("Executor.executeOne", domain.ErrUnknownTool, call.Name)
	}
}

func requireObjectID(call domain.ToolCall) (int64, error) {
	id, ok := asInt64(call.Input["object_id"])
	if !ok {
		return 0, domain.NewDomainError("Executor", domain.ErrObjectNotFound,
			fmt.Sprintf("%s: missing or invalid object_id", call.Name))
	}
	return id, nil
}

func (e *Executor) updateObject(ctx context.Context, call domain.ToolCall, fields ...string) (any, error) {
	id, err := requireObjectID(call)
	if err != nil {
		return nil, err
	}

	attrs := domain.ObjectAttrs{}
	for _, f := range fields {
		if v, ok := call.Input[f]; ok {
			attrs[f] = v
		}
	}

	ref, err := e.store.UpdateObject(ctx, id, attrs)
	if err != nil {
		return nil, err
	}
	e.publish(ctx, ref.CanvasID, domain.ObjectEvent{Type: "object_updated", Object: ref})
	return ref, nil
}

func (e *Executor) deleteObject(ctx context.Context, canvasID int64, call domain.ToolCall) (any, error) {
	id, err := requireObjectID(call)
	if err != nil {
		return nil, err
	}
	if err := e.store.DeleteObject(ctx, id); err != nil {
		return nil, err
	}
	e.publish(ctx, canvasID, domain.ObjectEvent{Type: "object_deleted", Object: &domain.ObjectRef{ID: id, CanvasID: canvasID}})
	return map[string]any{"deleted": id}, nil
}

func (e *Executor) reorder(ctx context.Context, call domain.ToolCall, op func(context.Context, int64) error) (any, error) {
	id, err := requireObjectID(call)
	if err != nil {
		return nil, err
	}
	if err := op(ctx, id); err != nil {
		return nil, err
	}
	ref, err := e.store.GetObject(ctx, id)
	if err != nil {
		return nil, err
	}
	e.publish(ctx, ref.CanvasID, domain.ObjectEvent{Type: "object_updated", Object: ref})
	return ref, nil
}

// arrange resolves a layout spec against its target objects and writes the
// recomputed positions back to the store.
func (e *Executor) arrange(ctx context.Context, canvasID int64, call domain.ToolCall) (any, error) {
	spec, err := decodeLayoutSpec(call.Input["layout"])
	if err != nil {
		return nil, err
	}

	objects, err := e.arrangeTargets(ctx, canvasID, call)
	if err != nil {
		return nil, err
	}

	updates, err := layout.Apply(objects, spec)
	if err != nil {
		return nil, err
	}

	for _, u := range updates {
		ref, err := e.store.UpdateObject(ctx, u.ID, domain.ObjectAttrs{"x": u.Position.X, "y": u.Position.Y})
		if err != nil {
			return nil, err
		}
		e.publish(ctx, ref.CanvasID, domain.ObjectEvent{Type: "object_updated", Object: ref})
	}
	return updates, nil
}

// arrangeTargets resolves which objects a layout call applies to: explicit
// object_ids win (the selection was injected into them earlier when present),
// then a criteria filter evaluated against the canvas inventory.
func (e *Executor) arrangeTargets(ctx context.Context, canvasID int64, call domain.ToolCall) ([]domain.ObjectRef, error) {
	if ids := idList(call.Input["object_ids"]); len(ids) > 0 {
		objects := make([]domain.ObjectRef, 0, len(ids))
		for _, id := range ids {
			ref, err := e.store.GetObject(ctx, id)
			if err != nil {
				return nil, err
			}
			objects = append(objects, *ref)
		}
		return objects, nil
	}

	if call.Input["filter"] != nil {
		return e.filterObjects(ctx, canvasID, call.Input["filter"])
	}

	return nil, domain.NewDomainError("Executor.arrange", domain.ErrObjectNotFound, "no object ids, filter, or selection")
}

// decodeLayoutSpec converts the tool-call's layout object into a typed spec
// via a JSON round-trip, mirroring how the value arrived on the wire.
func decodeLayoutSpec(v any) (domain.LayoutSpec, error) {
	var spec domain.LayoutSpec
	raw, err := json.Marshal(v)
	if err != nil {
		return spec, domain.NewDomainError("Executor.arrange", domain.ErrUnknownLayout, err.Error())
	}
	if err := json.Unmarshal(raw, &spec); err != nil {
		return spec, domain.NewDomainError("Executor.arrange", domain.ErrUnknownLayout, err.Error())
	}
	if spec.Type == "" {
		return spec, domain.NewDomainError("Executor.arrange", domain.ErrUnknownLayout, "layout type is required")
	}
	return spec, nil
}
