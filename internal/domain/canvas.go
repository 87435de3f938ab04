package domain

import (
	"context"
	"time"
)

// Position is a point on the canvas in pixels.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Dimensions is an object's bounding-box size in pixels.
type Dimensions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DefaultObjectSize is assumed when an object has no recorded dimensions.
const DefaultObjectSize = 50.0

// Canvas is the metadata of one collaborative canvas.
type Canvas struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// ObjectRef is the minimal projection of a canvas object this core reads and
// recomputes. Objects are owned by the external store; refs are never mutated
// in place.
type ObjectRef struct {
	ID         int64      `json:"id"`
	CanvasID   int64      `json:"canvas_id"`
	Type       string     `json:"type"`
	Position   Position   `json:"position"`
	Dimensions Dimensions `json:"dimensions"`
	Fill       string     `json:"fill,omitempty"`
	Text       string     `json:"text,omitempty"`
	ZIndex     int        `json:"z_index"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Width returns the object's width, falling back to DefaultObjectSize.
func (r ObjectRef) Width() float64 {
	if r.Dimensions.Width > 0 {
		return r.Dimensions.Width
	}
	return DefaultObjectSize
}

// Height returns the object's height, falling back to DefaultObjectSize.
func (r ObjectRef) Height() float64 {
	if r.Dimensions.Height > 0 {
		return r.Dimensions.Height
	}
	return DefaultObjectSize
}

// ObjectAttrs is the attribute record for creating or updating an object.
// Keys mirror tool-call input fields: "type", "x", "y", "width", "height",
// "fill", "text", ...
type ObjectAttrs map[string]any

// ObjectStore is the external object collaborator. Implementations own
// per-object update semantics (last-write-wins); this core never locks objects.
type ObjectStore interface {
	GetCanvas(ctx context.Context, id int64) (*Canvas, error)
	GetObject(ctx context.Context, id int64) (*ObjectRef, error)
	// ListObjects returns the canvas's objects in creation order.
	ListObjects(ctx context.Context, canvasID int64) ([]ObjectRef, error)
	CreateObject(ctx context.Context, canvasID int64, objType string, attrs ObjectAttrs) (*ObjectRef, error)
	// CreateObjectsBatch inserts all records atomically: on any failure no
	// object is created. Each record carries its own "type" key.
	CreateObjectsBatch(ctx context.Context, canvasID int64, records []ObjectAttrs) ([]ObjectRef, error)
	UpdateObject(ctx context.Context, id int64, attrs ObjectAttrs) (*ObjectRef, error)
	DeleteObject(ctx context.Context, id int64) error
	BringToFront(ctx context.Context, id int64) error
	SendToBack(ctx context.Context, id int64) error
	MoveForward(ctx context.Context, id int64) error
	MoveBackward(ctx context.Context, id int64) error
}

// ObjectEvent is broadcast to realtime collaborators after a mutation.
type ObjectEvent struct {
	Type   string     `json:"type"`
	Object *ObjectRef `json:"object,omitempty"`
}

// Publisher delivers fire-and-forget object events to a canvas topic.
// Delivery failures are logged by implementations, never surfaced to callers.
type Publisher interface {
	Publish(ctx context.Context, canvasID int64, event ObjectEvent)
}
