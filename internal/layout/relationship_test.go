package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"easel-ai/internal/domain"
)

func applyRelationships(t *testing.T, objects []domain.ObjectRef, constraints []domain.Relationship) map[int64]domain.Position {
	t.Helper()
	updates, err := Apply(objects, domain.LayoutSpec{
		Type:          domain.LayoutRelationships,
		Relationships: constraints,
	})
	require.NoError(t, err)
	require.Len(t, updates, len(objects))
	return positions(updates)
}

func TestRelationshipBelow(t *testing.T) {
	objects := []domain.ObjectRef{
		obj(1, 100, 100, 50, 50),
		obj(2, 0, 0, 50, 50),
	}

	got := applyRelationships(t, objects, []domain.Relationship{
		{SubjectID: 2, Relation: domain.RelationBelow, ReferenceID: 1, Spacing: 10},
	})

	// Directly below the reference, horizontally centered on it.
	assert.Equal(t, domain.Position{X: 100, Y: 160}, got[2])
	// Reference stays put.
	assert.Equal(t, domain.Position{X: 100, Y: 100}, got[1])
}

func TestRelationshipAboveDefaultSpacing(t *testing.T) {
	objects := []domain.ObjectRef{
		obj(1, 100, 100, 50, 50),
		obj(2, 0, 0, 50, 50),
	}

	got := applyRelationships(t, objects, []domain.Relationship{
		{SubjectID: 2, Relation: domain.RelationAbove, ReferenceID: 1},
	})

	// Default 20px gap: 100 - 20 - 50 = 30.
	assert.Equal(t, domain.Position{X: 100, Y: 30}, got[2])
}

func TestRelationshipLeftRightOf(t *testing.T) {
	objects := []domain.ObjectRef{
		obj(1, 200, 200, 60, 40),
		obj(2, 0, 0, 50, 50),
		obj(3, 0, 0, 50, 50),
	}

	got := applyRelationships(t, objects, []domain.Relationship{
		{SubjectID: 2, Relation: domain.RelationLeftOf, ReferenceID: 1, Spacing: 10},
		{SubjectID: 3, Relation: domain.RelationRightOf, ReferenceID: 1, Spacing: 10},
	})

	// Left: 200 - 10 - 50 = 140; vertically centered on ref center y=220.
	assert.Equal(t, domain.Position{X: 140, Y: 195}, got[2])
	// Right: 200 + 60 + 10 = 270.
	assert.Equal(t, domain.Position{X: 270, Y: 195}, got[3])
}

func TestRelationshipAlignment(t *testing.T) {
	objects := []domain.ObjectRef{
		obj(1, 100, 100, 50, 50),
		obj(2, 300, 0, 50, 50),
		obj(3, 0, 300, 50, 50),
	}

	got := applyRelationships(t, objects, []domain.Relationship{
		{SubjectID: 2, Relation: domain.RelationAlignedH, ReferenceID: 1},
		{SubjectID: 3, Relation: domain.RelationAlignedV, ReferenceID: 1},
	})

	// Horizontal alignment fixes y only.
	assert.Equal(t, domain.Position{X: 300, Y: 100}, got[2])
	// Vertical alignment fixes x only.
	assert.Equal(t, domain.Position{X: 100, Y: 300}, got[3])
}

// Alignment tokens arrive from providers as literal strings; the short forms
// are canonical and the verbose spellings are accepted as aliases.
func TestRelationshipAlignmentWireTokens(t *testing.T) {
	tests := []struct {
		relation domain.RelationKind
		want     domain.Position
	}{
		{"aligned_h", domain.Position{X: 300, Y: 100}},
		{"aligned_v", domain.Position{X: 100, Y: 300}},
		{"aligned_horizontal", domain.Position{X: 300, Y: 100}},
		{"aligned_vertical", domain.Position{X: 100, Y: 300}},
	}
	for _, tt := range tests {
		t.Run(string(tt.relation), func(t *testing.T) {
			objects := []domain.ObjectRef{
				obj(1, 100, 100, 50, 50),
				obj(2, 300, 300, 50, 50),
			}
			got := applyRelationships(t, objects, []domain.Relationship{
				{SubjectID: 2, Relation: tt.relation, ReferenceID: 1},
			})
			assert.Equal(t, tt.want, got[2])
		})
	}
}

func TestRelationshipCenteredBetween(t *testing.T) {
	objects := []domain.ObjectRef{
		obj(1, 0, 0, 50, 50),
		obj(2, 200, 0, 50, 50),
		obj(3, 500, 500, 50, 50),
	}

	got := applyRelationships(t, objects, []domain.Relationship{
		{SubjectID: 3, Relation: domain.RelationCenteredBetween, ReferenceID: 1, ReferenceID2: 2},
	})

	// Midpoint of centers (25,25) and (225,25) is (125,25).
	assert.Equal(t, domain.Position{X: 100, Y: 0}, got[3])
}

func TestRelationshipSameSpacing(t *testing.T) {
	objects := []domain.ObjectRef{
		obj(1, 0, 0, 50, 50),
		obj(2, 100, 0, 50, 50),
		obj(3, 500, 500, 50, 50),
	}

	got := applyRelationships(t, objects, []domain.Relationship{
		{SubjectID: 3, Relation: domain.RelationSameSpacing, ReferenceID: 1, ReferenceID2: 2},
	})

	// Stride between centers is 100 along x; subject lands one step past ref2.
	assert.Equal(t, domain.Position{X: 200, Y: 0}, got[3])
}

// Chained constraints resolve sequentially: a pyramid builds row by row, each
// row positioned off the already-resolved previous row.
func TestRelationshipChaining(t *testing.T) {
	objects := []domain.ObjectRef{
		obj(1, 100, 100, 50, 50), // top
		obj(2, 0, 0, 50, 50),    // bottom left
		obj(3, 0, 0, 50, 50),    // bottom right
	}

	got := applyRelationships(t, objects, []domain.Relationship{
		{SubjectID: 2, Relation: domain.RelationBelow, ReferenceID: 1, Spacing: 10},
		{SubjectID: 3, Relation: domain.RelationRightOf, ReferenceID: 2, Spacing: 10},
	})

	assert.Equal(t, domain.Position{X: 100, Y: 160}, got[2])
	// Positioned off object 2's resolved position, not its original one.
	assert.Equal(t, domain.Position{X: 160, Y: 160}, got[3])
}

func TestRelationshipUnknownRelationLeavesSubject(t *testing.T) {
	objects := []domain.ObjectRef{
		obj(1, 100, 100, 50, 50),
		obj(2, 40, 40, 50, 50),
	}

	got := applyRelationships(t, objects, []domain.Relationship{
		{SubjectID: 2, Relation: "orbiting", ReferenceID: 1},
	})

	assert.Equal(t, domain.Position{X: 40, Y: 40}, got[2])
}

func TestRelationshipMissingReferenceSkipped(t *testing.T) {
	objects := []domain.ObjectRef{
		obj(2, 40, 40, 50, 50),
	}

	got := applyRelationships(t, objects, []domain.Relationship{
		{SubjectID: 2, Relation: domain.RelationBelow, ReferenceID: 99},
	})

	assert.Equal(t, domain.Position{X: 40, Y: 40}, got[2])
}
