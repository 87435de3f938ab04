package executor

import (
	"encoding/json"

	"easel-ai/internal/domain"
)

// Tool names understood by the executor. Creates are batched (see batch.go);
// everything else executes individually.
const (
	ToolCreateShape  = "create_shape"
	ToolCreateText   = "create_text"
	ToolMoveObject   = "move_object"
	ToolResizeObject = "resize_object"
	ToolUpdateObject = "update_object"
	ToolDeleteObject = "delete_object"
	ToolArrange      = "arrange_layout"
	ToolBringFront   = "bring_to_front"
	ToolSendBack     = "send_to_back"
	ToolMoveForward  = "move_forward"
	ToolMoveBackward = "move_backward"
)

func isCreateTool(name string) bool {
	return name == ToolCreateShape || name == ToolCreateText
}

// Schemas returns the shared tool schema advertised to every provider.
// Adapters re-nest these into their vendor's wire format; the declared
// input shapes are what the normalizer defends.
func Schemas() []domain.ToolSchema {
	return []domain.ToolSchema{
		{
			Name:        ToolCreateShape,
			Description: "Create one or more shapes on the canvas. Use count for multiple identical shapes.",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"shape_type": {"type": "string", "enum": ["rectangle", "circle", "ellipse", "triangle", "line", "star"]},
					"x": {"type": "number"},
					"y": {"type": "number"},
					"width": {"type": "number"},
					"height": {"type": "number"},
					"fill": {"type": "string"},
					"count": {"type": "integer", "minimum": 1},
					"spacing": {"type": "number"}
				},
				"required": ["shape_type", "x", "y"]
			}`),
		},
		{
			Name:        ToolCreateText,
			Description: "Create a text object on the canvas.",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"text": {"type": "string"},
					"x": {"type": "number"},
					"y": {"type": "number"},
					"font_size": {"type": "number"},
					"fill": {"type": "string"}
				},
				"required": ["text", "x", "y"]
			}`),
		},
		{
			Name:        ToolMoveObject,
			Description: "Move an object to an absolute position.",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"object_id": {"type": "integer"},
					"x": {"type": "number"},
					"y": {"type": "number"}
				},
				"required": ["object_id", "x", "y"]
			}`),
		},
		{
			Name:        ToolResizeObject,
			Description: "Resize an object to absolute dimensions.",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"object_id": {"type": "integer"},
					"width": {"type": "number"},
					"height": {"type": "number"}
				},
				"required": ["object_id", "width", "height"]
			}`),
		},
		{
			Name:        ToolUpdateObject,
			Description: "Update an object's visual attributes (fill, text, ...).",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"object_id": {"type": "integer"},
					"fill": {"type": "string"},
					"text": {"type": "string"}
				},
				"required": ["object_id"]
			}`),
		},
		{
			Name:        ToolDeleteObject,
			Description: "Delete an object from the canvas.",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"object_id": {"type": "integer"}
				},
				"required": ["object_id"]
			}`),
		},
		{
			Name:        ToolArrange,
			Description: "Arrange objects in a layout: horizontal, vertical, grid, circular, stack, star, pattern, path, or relationship constraints. Omit object_ids to arrange the current selection, or pass filter instead of ids to target objects by criteria.",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"object_ids": {"type": "array", "items": {"type": "integer"}},
					"filter": {
						"type": "object",
						"description": "Selects canvas objects by criteria when object_ids are unknown (e.g. on large canvases).",
						"properties": {
							"type": {"type": "string"},
							"fill": {"type": "string"},
							"min_size": {"type": "number"},
							"max_size": {"type": "number"}
						}
					},
					"layout": {
						"type": "object",
						"properties": {
							"type": {"type": "string", "enum": ["horizontal", "vertical", "grid", "circular", "stack", "star", "pattern", "path", "relationships"]},
							"spacing": {"type": "number"},
							"columns": {"type": "integer"},
							"radius": {"type": "number"},
							"points": {"type": "integer"},
							"outer_radius": {"type": "number"},
							"inner_radius": {"type": "number"},
							"path": {"type": "object"},
							"pattern": {"type": "object"},
							"relationships": {
								"type": "array",
								"items": {
									"type": "object",
									"properties": {
										"subject_id": {"type": "integer"},
										"relation": {"type": "string", "enum": ["above", "below", "left_of", "right_of", "aligned_h", "aligned_v", "centered_between", "same_spacing"]},
										"reference_id": {"type": "integer"},
										"reference_id_2": {"type": "integer"},
										"spacing": {"type": "number"}
									},
									"required": ["subject_id", "relation", "reference_id"]
								}
							}
						},
						"required": ["type"]
					}
				},
				"required": ["layout"]
			}`),
		},
		{
			Name:        ToolBringFront,
			Description: "Bring an object to the front of the z-order.",
			InputSchema: objectIDOnlySchema,
		},
		{
			Name:        ToolSendBack,
			Description: "Send an object to the back of the z-order.",
			InputSchema: objectIDOnlySchema,
		},
		{
			Name:        ToolMoveForward,
			Description: "Move an object one step forward in the z-order.",
			InputSchema: objectIDOnlySchema,
		},
		{
			Name:        ToolMoveBackward,
			Description: "Move an object one step backward in the z-order.",
			InputSchema: objectIDOnlySchema,
		},
	}
}

var objectIDOnlySchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"object_id": {"type": "integer"}
	},
	"required": ["object_id"]
}`)
