package layout

import (
	"math"

	"easel-ai/internal/domain"
)

const defaultSpiralRotations = 2.0

// alongPath places object centers on a parametrized curve at
// t_i = i/(n-1), or t = 0.5 for a single object.
func alongPath(objects []domain.ObjectRef, spec domain.PathSpec) ([]domain.PositionUpdate, error) {
	var point func(t float64) domain.Position

	switch spec.Kind {
	case domain.PathLine:
		point = func(t float64) domain.Position {
			return domain.Position{
				X: spec.Start.X + t*(spec.End.X-spec.Start.X),
				Y: spec.Start.Y + t*(spec.End.Y-spec.Start.Y),
			}
		}
	case domain.PathArc:
		point = func(t float64) domain.Position {
			angle := spec.StartAngle + t*(spec.EndAngle-spec.StartAngle)
			return domain.Position{
				X: spec.Center.X + spec.Radius*math.Cos(angle),
				Y: spec.Center.Y + spec.Radius*math.Sin(angle),
			}
		}
	case domain.PathBezier:
		point = func(t float64) domain.Position {
			// Cubic Bézier: (1-t)³P0 + 3(1-t)²tP1 + 3(1-t)t²P2 + t³P3.
			u := 1 - t
			b0 := u * u * u
			b1 := 3 * u * u * t
			b2 := 3 * u * t * t
			b3 := t * t * t
			return domain.Position{
				X: b0*spec.Start.X + b1*spec.Control1.X + b2*spec.Control2.X + b3*spec.End.X,
				Y: b0*spec.Start.Y + b1*spec.Control1.Y + b2*spec.Control2.Y + b3*spec.End.Y,
			}
		}
	case domain.PathSpiral:
		rotations := spec.Rotations
		if rotations == 0 {
			rotations = defaultSpiralRotations
		}
		point = func(t float64) domain.Position {
			r := spec.StartRadius + t*(spec.EndRadius-spec.StartRadius)
			angle := t * rotations * 2 * math.Pi
			return domain.Position{
				X: spec.Center.X + r*math.Cos(angle),
				Y: spec.Center.Y + r*math.Sin(angle),
			}
		}
	default:
		return nil, domain.NewDomainError("layout.alongPath", domain.ErrUnknownLayout, string(spec.Kind))
	}

	updates := make([]domain.PositionUpdate, 0, len(objects))
	for i, o := range objects {
		t := 0.5
		if len(objects) > 1 {
			t = float64(i) / float64(len(objects)-1)
		}
		p := point(t)
		updates = append(updates, domain.PositionUpdate{
			ID: o.ID,
			Position: round(domain.Position{
				X: p.X - o.Width()/2,
				Y: p.Y - o.Height()/2,
			}),
		})
	}
	return updates, nil
}
