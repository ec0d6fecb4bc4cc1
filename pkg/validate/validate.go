// Package validate implements the Validation Gate (spec.md C9): two
// independent checks run before a Phase 3 artifact is persisted —
// structural conformance of every Block to its variant schema, and
// freshness of any event-like list item. Grounded on the teacher's
// validator usage pattern (struct tags + go-playground/validator/v10),
// supplemented with handwritten discriminated-union logic since struct
// tags alone cannot express "exactly one of these fields, selected by a
// sibling field."
package validate

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ridewave/triad/internal/xerrors"
	"github.com/ridewave/triad/pkg/blocks"
)

var validate = validator.New()

// EventItem is a single candidate line for a venue's list block that
// carries a real-world end time (e.g. "live music until 11pm"). Items
// without an EndTime are never subject to the freshness rule.
type EventItem struct {
	Text    string
	EndTime *time.Time
}

// VenueDraft is the Planner's pre-validation output for one venue,
// before enrichment text is folded into plain list lines.
type VenueDraft struct {
	Name         string
	Rationale    string
	StaticLines  []string // hours / drive time / earnings hint: never filtered
	EventItems   []EventItem
	CTALabel     string
	CTAAction    string
}

// ApplyFreshness drops any EventItem whose EndTime is not strictly in the
// future relative to now (spec.md §4.9, §8: "an event whose end time ≤
// 'now in snapshot tz' is dropped"; the boundary is closed on the past,
// so an end time exactly equal to now counts as expired). now and the
// EventItem times must already be in the snapshot's timezone.
func ApplyFreshness(drafts []VenueDraft, now time.Time) []VenueDraft {
	out := make([]VenueDraft, len(drafts))
	for i, d := range drafts {
		kept := d
		kept.EventItems = nil
		for _, item := range d.EventItems {
			if item.EndTime == nil || item.EndTime.After(now) {
				kept.EventItems = append(kept.EventItems, item)
			}
		}
		out[i] = kept
	}
	return out
}

// ToVenueGroups flattens a freshness-filtered VenueDraft into the plain
// string list the Block Assembler consumes. If every event item was
// dropped and there were no static lines either, the resulting
// blocks.VenueGroup has an empty ListItems slice, and Assemble correctly
// omits the list block entirely (spec.md §4.9: "if dropping leaves an
// empty list block, the list block itself is omitted").
func ToVenueGroups(drafts []VenueDraft) []blocks.VenueGroup {
	groups := make([]blocks.VenueGroup, len(drafts))
	for i, d := range drafts {
		items := append([]string{}, d.StaticLines...)
		for _, e := range d.EventItems {
			items = append(items, e.Text)
		}
		groups[i] = blocks.VenueGroup{
			Name:      d.Name,
			Rationale: d.Rationale,
			ListItems: items,
			CTALabel:  d.CTALabel,
			CTAAction: d.CTAAction,
		}
	}
	return groups
}

// ValidateArtifact runs the structural check over every Block. It returns
// on the first failing rule, per spec.md §4.9 ("include the first failing
// rule in the error").
func ValidateArtifact(bs []blocks.Block) error {
	seenOrders := make(map[int]bool)
	for i, b := range bs {
		if err := validateDiscriminant(b); err != nil {
			return xerrors.Wrap(xerrors.ValidationFailed, "validate.artifact", fmt.Sprintf("block %d (%s): %s", i, b.ID, err), err)
		}
		if err := validateVariant(b); err != nil {
			return xerrors.Wrap(xerrors.ValidationFailed, "validate.artifact", fmt.Sprintf("block %d (%s): %s", i, b.ID, err), err)
		}
		if b.Order < 1 || seenOrders[b.Order] {
			return xerrors.New(xerrors.ValidationFailed, "validate.artifact", fmt.Sprintf("block %d (%s): order %d is not dense/unique", i, b.ID, b.Order))
		}
		seenOrders[b.Order] = true
	}

	for order := 1; order <= len(bs); order++ {
		if !seenOrders[order] {
			return xerrors.New(xerrors.ValidationFailed, "validate.artifact", fmt.Sprintf("order sequence has a gap at %d: expected 1..%d with no gaps", order, len(bs)))
		}
	}
	return nil
}

// validateDiscriminant checks that exactly the field matching b.Type is
// populated, and no other variant field is.
func validateDiscriminant(b blocks.Block) error {
	populated := map[blocks.Type]bool{
		blocks.TypeHeader:    b.Header != nil,
		blocks.TypeParagraph: b.Paragraph != nil,
		blocks.TypeList:      b.List != nil,
		blocks.TypeImage:     b.Image != nil,
		blocks.TypeQuote:     b.Quote != nil,
		blocks.TypeCTA:       b.CTA != nil,
	}

	for typ, isSet := range populated {
		if typ == b.Type && !isSet {
			return fmt.Errorf("type %q declared but its payload is nil", b.Type)
		}
		if typ != b.Type && isSet {
			return fmt.Errorf("type %q declared but %q payload is also populated", b.Type, typ)
		}
	}

	if b.Type == blocks.TypeDivider {
		return nil
	}
	if _, known := populated[b.Type]; !known {
		return fmt.Errorf("unknown block type %q", b.Type)
	}
	return nil
}

// validateVariant runs go-playground/validator struct tags on whichever
// payload is populated.
func validateVariant(b blocks.Block) error {
	switch b.Type {
	case blocks.TypeHeader:
		return validate.Struct(b.Header)
	case blocks.TypeParagraph:
		return validate.Struct(b.Paragraph)
	case blocks.TypeList:
		return validate.Struct(b.List)
	case blocks.TypeImage:
		return validate.Struct(b.Image)
	case blocks.TypeQuote:
		return validate.Struct(b.Quote)
	case blocks.TypeCTA:
		return validate.Struct(b.CTA)
	case blocks.TypeDivider:
		return nil
	default:
		return fmt.Errorf("unknown block type %q", b.Type)
	}
}
