package validate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ridewave/triad/pkg/blocks"
)

func TestApplyFreshness_DropsExpiredEventsClosedBoundary(t *testing.T) {
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	drafts := []VenueDraft{
		{
			Name: "Venue",
			EventItems: []EventItem{
				{Text: "expired", EndTime: &past},
				{Text: "exactly now", EndTime: &now}, // closed on the past: counts as expired
				{Text: "still running", EndTime: &future},
				{Text: "no end time", EndTime: nil},
			},
		},
	}

	out := ApplyFreshness(drafts, now)
	assert.Len(t, out[0].EventItems, 2)
	assert.Equal(t, "still running", out[0].EventItems[0].Text)
	assert.Equal(t, "no end time", out[0].EventItems[1].Text)
}

func TestApplyFreshness_EmptyEventItemsUntouched(t *testing.T) {
	now := time.Now()
	drafts := []VenueDraft{{Name: "Venue", StaticLines: []string{"hours: 9-5"}}}
	out := ApplyFreshness(drafts, now)
	assert.Empty(t, out[0].EventItems)
	assert.Equal(t, []string{"hours: 9-5"}, out[0].StaticLines)
}

func TestToVenueGroups_OmitsListWhenEverythingDropped(t *testing.T) {
	drafts := []VenueDraft{{Name: "Venue", Rationale: "R"}}
	groups := ToVenueGroups(drafts)
	assert.Empty(t, groups[0].ListItems)
}

func TestToVenueGroups_FlattensStaticAndEventLines(t *testing.T) {
	drafts := []VenueDraft{{
		Name:        "Venue",
		StaticLines: []string{"hours: 9-5", "drive time: 12 min"},
		EventItems:  []EventItem{{Text: "trivia night until 9pm"}},
	}}
	groups := ToVenueGroups(drafts)
	assert.Equal(t, []string{"hours: 9-5", "drive time: 12 min", "trivia night until 9pm"}, groups[0].ListItems)
}

func TestValidateArtifact_AcceptsWellFormedSequence(t *testing.T) {
	bs := blocks.Assemble(blocks.Artifact{
		Title:     "T",
		Narrative: "N",
		VenueGroups: []blocks.VenueGroup{
			{Name: "Venue", Rationale: "R", ListItems: []string{"a"}, CTALabel: "Go", CTAAction: "navigate:a"},
		},
	})
	assert.NoError(t, ValidateArtifact(bs))
}

func TestValidateArtifact_RejectsDualPopulatedVariant(t *testing.T) {
	bs := []blocks.Block{
		{ID: "x", Type: blocks.TypeHeader, Order: 1,
			Header:    &blocks.HeaderFields{Text: "H"},
			Paragraph: &blocks.ParagraphFields{Text: "P"}, // illegal: two variants populated
		},
	}
	err := ValidateArtifact(bs)
	assert.Error(t, err)
}

func TestValidateArtifact_RejectsMissingDeclaredPayload(t *testing.T) {
	bs := []blocks.Block{{ID: "x", Type: blocks.TypeHeader, Order: 1}}
	assert.Error(t, ValidateArtifact(bs))
}

func TestValidateArtifact_RejectsNonDenseOrder(t *testing.T) {
	bs := []blocks.Block{
		{ID: "a", Type: blocks.TypeHeader, Order: 1, Header: &blocks.HeaderFields{Text: "H"}},
		{ID: "b", Type: blocks.TypeDivider, Order: 3}, // skips 2
	}
	assert.Error(t, ValidateArtifact(bs))
}

func TestValidateArtifact_RejectsDuplicateOrder(t *testing.T) {
	bs := []blocks.Block{
		{ID: "a", Type: blocks.TypeHeader, Order: 1, Header: &blocks.HeaderFields{Text: "H"}},
		{ID: "b", Type: blocks.TypeDivider, Order: 1},
	}
	assert.Error(t, ValidateArtifact(bs))
}

func TestValidateArtifact_RejectsInvalidVariantField(t *testing.T) {
	bs := []blocks.Block{
		{ID: "a", Type: blocks.TypeList, Order: 1, List: &blocks.ListFields{Items: nil}}, // required,min=1
	}
	assert.Error(t, ValidateArtifact(bs))
}
