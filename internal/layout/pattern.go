package layout

import (
	"math"
	"sort"

	"easel-ai/internal/domain"
)

// Pattern placement defaults.
const (
	defaultPatternSpacing   = 1.5 * domain.DefaultObjectSize
	defaultPatternAmplitude = 50.0
	defaultPatternFrequency = 1.0
)

// pattern places objects along a repeating arrangement, optionally
// pre-sorting the inputs by x, y, size or id.
func pattern(objects []domain.ObjectRef, spec domain.PatternSpec) ([]domain.PositionUpdate, error) {
	ordered := make([]domain.ObjectRef, len(objects))
	copy(ordered, objects)

	switch spec.SortBy {
	case "x":
		sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Position.X < ordered[j].Position.X })
	case "y":
		sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Position.Y < ordered[j].Position.Y })
	case "size":
		sort.SliceStable(ordered, func(i, j int) bool {
			return ordered[i].Width()*ordered[i].Height() < ordered[j].Width()*ordered[j].Height()
		})
	case "id":
		sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })
	case "":
		// keep input order
	default:
		return nil, domain.NewDomainError("layout.pattern", domain.ErrUnknownLayout, "sort_by "+spec.SortBy)
	}

	spacing := spec.Spacing
	if spacing <= 0 {
		spacing = defaultPatternSpacing
	}
	amplitude := spec.Amplitude
	if amplitude <= 0 {
		amplitude = defaultPatternAmplitude
	}
	frequency := spec.Frequency
	if frequency <= 0 {
		frequency = defaultPatternFrequency
	}

	n := len(ordered)
	updates := make([]domain.PositionUpdate, 0, n)
	for i, o := range ordered {
		t := 0.5
		if n > 1 {
			t = float64(i) / float64(n-1)
		}
		x := spec.Start.X + float64(i)*spacing
		y := spec.Start.Y

		switch spec.Kind {
		case domain.PatternLine:
			// y stays on the baseline
		case domain.PatternDiagonal:
			y = spec.Start.Y + float64(i)*spacing
		case domain.PatternWave:
			y = spec.Start.Y + amplitude*math.Sin(frequency*t*2*math.Pi)
		case domain.PatternArc:
			// Parabolic arch peaking at the midpoint.
			d := 2*t - 1
			y = spec.Start.Y - amplitude*(1-d*d)
		default:
			return nil, domain.NewDomainError("layout.pattern", domain.ErrUnknownLayout, string(spec.Kind))
		}

		updates = append(updates, domain.PositionUpdate{
			ID:       o.ID,
			Position: round(domain.Position{X: x, Y: y}),
		})
	}
	return updates, nil
}
