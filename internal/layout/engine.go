// Package layout maps {objects, layout spec} to new positions. Everything
// here is pure synchronous computation: intermediate math in float64, final
// coordinates rounded to the nearest pixel, exactly one update per input
// object id.
package layout

import (
	"math"
	"sort"

	"easel-ai/internal/domain"
)

// Default geometry applied when the spec leaves a knob unset.
const (
	defaultCircleRadius = 100.0
	defaultOuterRadius  = 120.0
	innerRadiusRatio    = 0.4
	defaultGapSpacing   = 20.0
)

// Apply computes new positions for objects according to spec. The update
// set's ids equal the input objects' ids exactly: no duplicates, no
// omissions, order-independent.
func Apply(objects []domain.ObjectRef, spec domain.LayoutSpec) ([]domain.PositionUpdate, error) {
	if len(objects) == 0 {
		return []domain.PositionUpdate{}, nil
	}

	switch spec.Type {
	case domain.LayoutHorizontal:
		return distribute(objects, spec.Spacing, true), nil
	case domain.LayoutVertical:
		return distribute(objects, spec.Spacing, false), nil
	case domain.LayoutStack:
		return stack(objects, spec.Spacing), nil
	case domain.LayoutGrid:
		return grid(objects, spec.Columns, spacingOr(spec.Spacing, defaultGapSpacing)), nil
	case domain.LayoutCircular:
		return circular(objects, spec.Radius), nil
	case domain.LayoutStar:
		return star(objects, spec.Points, spec.OuterRadius, spec.InnerRadius), nil
	case domain.LayoutPath:
		if spec.Path == nil {
			return nil, domain.NewDomainError("layout.Apply", domain.ErrUnknownLayout, "path layout without path spec")
		}
		return alongPath(objects, *spec.Path)
	case domain.LayoutPattern:
		if spec.Pattern == nil {
			return nil, domain.NewDomainError("layout.Apply", domain.ErrUnknownLayout, "pattern layout without pattern spec")
		}
		return pattern(objects, *spec.Pattern)
	case domain.LayoutRelationships:
		return relationships(objects, spec.Relationships), nil
	default:
		return nil, domain.NewDomainError("layout.Apply", domain.ErrUnknownLayout, string(spec.Type))
	}
}

func spacingOr(spacing *float64, fallback float64) float64 {
	if spacing == nil {
		return fallback
	}
	return *spacing
}

func round(p domain.Position) domain.Position {
	return domain.Position{X: math.Round(p.X), Y: math.Round(p.Y)}
}

func center(o domain.ObjectRef) domain.Position {
	return domain.Position{
		X: o.Position.X + o.Width()/2,
		Y: o.Position.Y + o.Height()/2,
	}
}

// centroid is the mean of the objects' centers.
func centroid(objects []domain.ObjectRef) domain.Position {
	var sx, sy float64
	for _, o := range objects {
		c := center(o)
		sx += c.X
		sy += c.Y
	}
	n := float64(len(objects))
	return domain.Position{X: sx / n, Y: sy / n}
}

// distribute lays objects out along one axis. Sorting is by the primary
// axis; nil spacing means even distribution over the current span. The
// cross-axis coordinate is re-centered to the mean of the inputs' cross-axis
// coordinates, not preserved per object.
func distribute(objects []domain.ObjectRef, spacing *float64, horizontal bool) []domain.PositionUpdate {
	sorted := make([]domain.ObjectRef, len(objects))
	copy(sorted, objects)
	sort.SliceStable(sorted, func(i, j int) bool {
		if horizontal {
			return sorted[i].Position.X < sorted[j].Position.X
		}
		return sorted[i].Position.Y < sorted[j].Position.Y
	})

	primary := func(o domain.ObjectRef) float64 {
		if horizontal {
			return o.Position.X
		}
		return o.Position.Y
	}
	size := func(o domain.ObjectRef) float64 {
		if horizontal {
			return o.Width()
		}
		return o.Height()
	}

	var crossSum float64
	for _, o := range objects {
		if horizontal {
			crossSum += o.Position.Y
		} else {
			crossSum += o.Position.X
		}
	}
	crossMean := crossSum / float64(len(objects))

	gap := 0.0
	switch {
	case spacing != nil:
		gap = *spacing
	case len(sorted) > 1:
		first, last := sorted[0], sorted[len(sorted)-1]
		span := primary(last) + size(last) - primary(first)
		var total float64
		for _, o := range sorted {
			total += size(o)
		}
		gap = (span - total) / float64(len(sorted)-1)
	}

	updates := make([]domain.PositionUpdate, 0, len(sorted))
	cursor := primary(sorted[0])
	for _, o := range sorted {
		pos := domain.Position{X: cursor, Y: crossMean}
		if !horizontal {
			pos = domain.Position{X: crossMean, Y: cursor}
		}
		updates = append(updates, domain.PositionUpdate{ID: o.ID, Position: round(pos)})
		cursor += size(o) + gap
	}
	return updates
}

// stack places objects flush on top of each other vertically (default gap 0),
// horizontally re-centered like the distributions.
func stack(objects []domain.ObjectRef, spacing *float64) []domain.PositionUpdate {
	zero := 0.0
	if spacing == nil {
		spacing = &zero
	}
	return distribute(objects, spacing, false)
}

// grid arranges objects row-major. The cell is uniform: max width and max
// height across all objects; the origin is the first object's position in
// input order.
func grid(objects []domain.ObjectRef, columns int, spacing float64) []domain.PositionUpdate {
	if columns <= 0 {
		columns = int(math.Ceil(math.Sqrt(float64(len(objects)))))
	}

	var cellW, cellH float64
	for _, o := range objects {
		cellW = math.Max(cellW, o.Width())
		cellH = math.Max(cellH, o.Height())
	}

	origin := objects[0].Position
	updates := make([]domain.PositionUpdate, 0, len(objects))
	for i, o := range objects {
		row := i / columns
		col := i % columns
		updates = append(updates, domain.PositionUpdate{
			ID: o.ID,
			Position: round(domain.Position{
				X: origin.X + float64(col)*(cellW+spacing),
				Y: origin.Y + float64(row)*(cellH+spacing),
			}),
		})
	}
	return updates
}

// circular places object centers exactly on a circle of the given radius
// around the inputs' centroid.
func circular(objects []domain.ObjectRef, radius float64) []domain.PositionUpdate {
	if radius <= 0 {
		radius = defaultCircleRadius
	}

	c := centroid(objects)
	step := 2 * math.Pi / float64(len(objects))

	updates := make([]domain.PositionUpdate, 0, len(objects))
	for i, o := range objects {
		angle := float64(i) * step
		updates = append(updates, domain.PositionUpdate{
			ID: o.ID,
			Position: round(domain.Position{
				X: c.X + radius*math.Cos(angle) - o.Width()/2,
				Y: c.Y + radius*math.Sin(angle) - o.Height()/2,
			}),
		})
	}
	return updates
}

// star alternates object centers between an outer and inner radius by index
// parity, starting at the top (-π/2).
func star(objects []domain.ObjectRef, points int, outer, inner float64) []domain.PositionUpdate {
	if points <= 0 {
		points = (len(objects) + 1) / 2
		if points == 0 {
			points = 1
		}
	}
	if outer <= 0 {
		outer = defaultOuterRadius
	}
	if inner <= 0 {
		inner = outer * innerRadiusRatio
	}

	c := centroid(objects)
	step := math.Pi / float64(points)

	updates := make([]domain.PositionUpdate, 0, len(objects))
	for i, o := range objects {
		r := outer
		if i%2 == 1 {
			r = inner
		}
		angle := -math.Pi/2 + float64(i)*step
		updates = append(updates, domain.PositionUpdate{
			ID: o.ID,
			Position: round(domain.Position{
				X: c.X + r*math.Cos(angle) - o.Width()/2,
				Y: c.Y + r*math.Sin(angle) - o.Height()/2,
			}),
		})
	}
	return updates
}
