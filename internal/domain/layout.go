package domain

// LayoutType tags the LayoutSpec union.
type LayoutType string

const (
	LayoutHorizontal    LayoutType = "horizontal"
	LayoutVertical      LayoutType = "vertical"
	LayoutGrid          LayoutType = "grid"
	LayoutCircular      LayoutType = "circular"
	LayoutStack         LayoutType = "stack"
	LayoutStar          LayoutType = "star"
	LayoutPattern       LayoutType = "pattern"
	LayoutPath          LayoutType = "path"
	LayoutRelationships LayoutType = "relationships"
)

// PathKind selects the curve a path layout places objects along.
type PathKind string

const (
	PathLine   PathKind = "line"
	PathArc    PathKind = "arc"
	PathBezier PathKind = "bezier"
	PathSpiral PathKind = "spiral"
)

// PatternKind selects the repeating arrangement of a pattern layout.
type PatternKind string

const (
	PatternLine     PatternKind = "line"
	PatternDiagonal PatternKind = "diagonal"
	PatternWave     PatternKind = "wave"
	PatternArc      PatternKind = "arc"
)

// RelationKind is a declarative spatial rule between two (or three) objects.
type RelationKind string

const (
	RelationAbove           RelationKind = "above"
	RelationBelow           RelationKind = "below"
	RelationLeftOf          RelationKind = "left_of"
	RelationRightOf         RelationKind = "right_of"
	RelationAlignedH        RelationKind = "aligned_h"
	RelationAlignedV        RelationKind = "aligned_v"
	RelationCenteredBetween RelationKind = "centered_between"
	RelationSameSpacing     RelationKind = "same_spacing"
)

// Relationship is one constraint resolved into absolute coordinates.
// ReferenceID2 is only used by centered_between and same_spacing.
type Relationship struct {
	SubjectID    int64        `json:"subject_id"`
	Relation     RelationKind `json:"relation"`
	ReferenceID  int64        `json:"reference_id"`
	ReferenceID2 int64        `json:"reference_id_2,omitempty"`
	Spacing      float64      `json:"spacing,omitempty"`
}

// PathSpec parametrizes a path layout. Fields are interpreted per Kind:
// line uses Start/End; arc uses Center/Radius/StartAngle/EndAngle (radians);
// bezier uses Start/Control1/Control2/End; spiral uses Center, StartRadius,
// EndRadius and Rotations.
type PathSpec struct {
	Kind        PathKind `json:"kind"`
	Start       Position `json:"start"`
	End         Position `json:"end"`
	Control1    Position `json:"control1"`
	Control2    Position `json:"control2"`
	Center      Position `json:"center"`
	Radius      float64  `json:"radius"`
	StartAngle  float64  `json:"start_angle"`
	EndAngle    float64  `json:"end_angle"`
	StartRadius float64  `json:"start_radius"`
	EndRadius   float64  `json:"end_radius"`
	Rotations   float64  `json:"rotations"`
}

// PatternSpec parametrizes a pattern layout. SortBy optionally pre-sorts the
// input objects by "x", "y", "size" or "id" before placement.
type PatternSpec struct {
	Kind      PatternKind `json:"kind"`
	Start     Position    `json:"start"`
	Spacing   float64     `json:"spacing"`
	Amplitude float64     `json:"amplitude"`
	Frequency float64     `json:"frequency"`
	SortBy    string      `json:"sort_by,omitempty"`
}

// LayoutSpec is the tagged union over every supported arrangement. Exactly
// the fields relevant to Type are read; the rest are ignored.
type LayoutSpec struct {
	Type LayoutType `json:"type"`

	// Distribution (horizontal/vertical/stack). Spacing nil means even
	// distribution over the current span.
	Spacing *float64 `json:"spacing,omitempty"`

	// Grid.
	Columns int `json:"columns,omitempty"`

	// Circular.
	Radius float64 `json:"radius,omitempty"`

	// Star.
	Points      int     `json:"points,omitempty"`
	OuterRadius float64 `json:"outer_radius,omitempty"`
	InnerRadius float64 `json:"inner_radius,omitempty"`

	Path          *PathSpec      `json:"path,omitempty"`
	Pattern       *PatternSpec   `json:"pattern,omitempty"`
	Relationships []Relationship `json:"relationships,omitempty"`
}

// PositionUpdate is one recomputed object position. Every layout application
// yields exactly one update per input object id.
type PositionUpdate struct {
	ID       int64    `json:"id"`
	Position Position `json:"position"`
}
