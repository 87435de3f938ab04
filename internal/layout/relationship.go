package layout

import (
	"easel-ai/internal/domain"
)

// relationships applies declarative spatial constraints sequentially in
// input order. This is best-effort, order-sensitive resolution, not a
// solver: later constraints read the resolved output of earlier ones
// (which is what makes chained shapes like pyramids work), and cyclic or
// contradictory constraint sets are not detected.
func relationships(objects []domain.ObjectRef, constraints []domain.Relationship) []domain.PositionUpdate {
	type box struct {
		pos  domain.Position
		w, h float64
	}

	boxes := make(map[int64]*box, len(objects))
	order := make([]int64, 0, len(objects))
	for _, o := range objects {
		boxes[o.ID] = &box{pos: o.Position, w: o.Width(), h: o.Height()}
		order = append(order, o.ID)
	}

	centerOf := func(b *box) domain.Position {
		return domain.Position{X: b.pos.X + b.w/2, Y: b.pos.Y + b.h/2}
	}
	setCenter := func(b *box, c domain.Position) {
		b.pos = domain.Position{X: c.X - b.w/2, Y: c.Y - b.h/2}
	}

	for _, r := range constraints {
		subject, ok := boxes[r.SubjectID]
		if !ok {
			continue
		}
		ref, ok := boxes[r.ReferenceID]
		if !ok {
			continue
		}

		spacing := r.Spacing
		if spacing == 0 {
			spacing = defaultGapSpacing
		}

		switch r.Relation {
		case domain.RelationAbove:
			subject.pos.Y = ref.pos.Y - spacing - subject.h
			subject.pos.X = centerOf(ref).X - subject.w/2
		case domain.RelationBelow:
			subject.pos.Y = ref.pos.Y + ref.h + spacing
			subject.pos.X = centerOf(ref).X - subject.w/2
		case domain.RelationLeftOf:
			subject.pos.X = ref.pos.X - spacing - subject.w
			subject.pos.Y = centerOf(ref).Y - subject.h/2
		case domain.RelationRightOf:
			subject.pos.X = ref.pos.X + ref.w + spacing
			subject.pos.Y = centerOf(ref).Y - subject.h/2
		case domain.RelationAlignedH, "aligned_horizontal":
			subject.pos.Y = centerOf(ref).Y - subject.h/2
		case domain.RelationAlignedV, "aligned_vertical":
			subject.pos.X = centerOf(ref).X - subject.w/2
		case domain.RelationCenteredBetween:
			ref2, ok := boxes[r.ReferenceID2]
			if !ok {
				continue
			}
			c1, c2 := centerOf(ref), centerOf(ref2)
			setCenter(subject, domain.Position{X: (c1.X + c2.X) / 2, Y: (c1.Y + c2.Y) / 2})
		case domain.RelationSameSpacing:
			// Continue the ref→ref2 stride: subject lands one step past ref2.
			ref2, ok := boxes[r.ReferenceID2]
			if !ok {
				continue
			}
			c1, c2 := centerOf(ref), centerOf(ref2)
			setCenter(subject, domain.Position{X: c2.X + (c2.X - c1.X), Y: c2.Y + (c2.Y - c1.Y)})
		default:
			// Unknown relation leaves the subject unmoved.
		}
	}

	updates := make([]domain.PositionUpdate, 0, len(order))
	for _, id := range order {
		updates = append(updates, domain.PositionUpdate{ID: id, Position: round(boxes[id].pos)})
	}
	return updates
}
