package blocks

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssemble_DenseOrderStartingAtOne(t *testing.T) {
	out := Assemble(Artifact{
		Title:     "Strategy",
		Narrative: "Narrative text",
		VenueGroups: []VenueGroup{
			{Name: "Venue A", Rationale: "close by", ListItems: []string{"hours: 9-5"}, CTALabel: "Go", CTAAction: "navigate:a"},
			{Name: "Venue B", Rationale: "busy area"},
		},
	})

	for i, b := range out {
		assert.Equal(t, i+1, b.Order)
	}
}

func TestAssemble_FixedSkeletonOrder(t *testing.T) {
	out := Assemble(Artifact{Title: "T", Narrative: "N"})

	assert.Len(t, out, 3)
	assert.Equal(t, TypeHeader, out[0].Type)
	assert.Equal(t, TypeParagraph, out[1].Type)
	assert.Equal(t, TypeDivider, out[2].Type)
}

func TestAssemble_PerVenueBlocksAndOptionalCTA(t *testing.T) {
	out := Assemble(Artifact{
		Title:     "T",
		Narrative: "N",
		VenueGroups: []VenueGroup{
			{Name: "Venue A", Rationale: "R", ListItems: []string{"a", "b"}, CTALabel: "Go", CTAAction: "navigate:a"},
			{Name: "Venue B", Rationale: "R2"}, // no list items, no cta
		},
	})

	// header, paragraph, divider, [venueA: header, paragraph, list, cta], [venueB: header, paragraph], divider
	assert.Len(t, out, 3+4+2+1)

	venueATypes := []Type{out[3].Type, out[4].Type, out[5].Type, out[6].Type}
	assert.Equal(t, []Type{TypeHeader, TypeParagraph, TypeList, TypeCTA}, venueATypes)

	venueBTypes := []Type{out[7].Type, out[8].Type}
	assert.Equal(t, []Type{TypeHeader, TypeParagraph}, venueBTypes)

	assert.Equal(t, TypeDivider, out[len(out)-1].Type)
}

func TestAssemble_NormalizesToNFC(t *testing.T) {
	// "é" as a decomposed e + combining acute accent (NFD form).
	decomposed := "café"
	out := Assemble(Artifact{Title: decomposed, Narrative: "N"})

	assert.Equal(t, "café", out[0].Header.Text)
}

func TestAssemble_ExactlyOneVariantFieldPopulated(t *testing.T) {
	out := Assemble(Artifact{
		Title:     "T",
		Narrative: "N",
		VenueGroups: []VenueGroup{
			{Name: "Venue A", Rationale: "R", CTALabel: "Go", CTAAction: "navigate:a"},
		},
	})

	for _, b := range out {
		populated := 0
		for _, f := range []interface{}{b.Header, b.Paragraph, b.List, b.Image, b.Quote, b.CTA} {
			if !isNilInterface(f) {
				populated++
			}
		}
		if b.Type == TypeDivider {
			assert.Equal(t, 0, populated, "divider carries no variant fields")
		} else {
			assert.Equal(t, 1, populated, "exactly one variant field per non-divider block")
		}
	}
}

func isNilInterface(v interface{}) bool {
	switch x := v.(type) {
	case *HeaderFields:
		return x == nil
	case *ParagraphFields:
		return x == nil
	case *ListFields:
		return x == nil
	case *ImageFields:
		return x == nil
	case *QuoteFields:
		return x == nil
	case *CTAFields:
		return x == nil
	default:
		return true
	}
}
