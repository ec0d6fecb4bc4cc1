// Package blocks implements the Block Assembler (spec.md C8): a
// deterministic — not LLM-driven — transform from the Planner's validated
// JSON plus enriched venue metadata into the ordered Block sequence of
// spec.md §6. Grounded on the teacher's plain struct-per-variant style
// (no interface{} payloads), with UTF-8 NFC normalization via
// golang.org/x/text/unicode/norm.
package blocks

import (
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// Type identifies a Block variant.
type Type string

const (
	TypeHeader    Type = "header"
	TypeParagraph Type = "paragraph"
	TypeList      Type = "list"
	TypeImage     Type = "image"
	TypeQuote     Type = "quote"
	TypeCTA       Type = "cta"
	TypeDivider   Type = "divider"
)

// Block is a single element of the rendered artifact. Exactly one of the
// variant-specific fields is populated, selected by Type (spec.md §6).
type Block struct {
	ID    string `json:"id"`
	Type  Type   `json:"type"`
	Order int    `json:"order"`

	Header    *HeaderFields    `json:"header,omitempty"`
	Paragraph *ParagraphFields `json:"paragraph,omitempty"`
	List      *ListFields      `json:"list,omitempty"`
	Image     *ImageFields     `json:"image,omitempty"`
	Quote     *QuoteFields     `json:"quote,omitempty"`
	CTA       *CTAFields       `json:"cta,omitempty"`
}

type HeaderFields struct {
	Text  string `json:"text" validate:"required"`
	Level int    `json:"level,omitempty" validate:"omitempty,min=1,max=3"`
}

type ParagraphFields struct {
	Text string `json:"text" validate:"required"`
}

type ListFields struct {
	Items []string `json:"items" validate:"required,min=1"`
	Style string   `json:"style,omitempty" validate:"omitempty,oneof=bullet number"`
}

type ImageFields struct {
	URL     string `json:"url" validate:"required"`
	Caption string `json:"caption,omitempty"`
}

type QuoteFields struct {
	Text   string `json:"text" validate:"required"`
	Author string `json:"author" validate:"required"`
}

type CTAFields struct {
	Label   string `json:"label" validate:"required"`
	Action  string `json:"action" validate:"required"`
	Variant string `json:"variant,omitempty" validate:"omitempty,oneof=primary secondary"`
}

// VenueGroup is the Planner+enrichment material for one recommended venue,
// already validated and freshness-filtered by pkg/validate before it
// reaches the Assembler.
type VenueGroup struct {
	Name          string
	Rationale     string
	ListItems     []string // hours + drive time + earnings hint, pre-rendered
	CTALabel      string   // empty means no cta block for this venue
	CTAAction     string
}

// Artifact is the Planner+Strategist material the Assembler turns into a
// Block sequence.
type Artifact struct {
	Title       string
	Narrative   string
	VenueGroups []VenueGroup
}

// idSeq generates a stable-within-one-artifact id. Blocks are immutable
// once the Job is terminal, so ids only need to be unique per artifact,
// not globally.
type idSeq struct{ n int }

func (s *idSeq) next(prefix string) string {
	s.n++
	return fmt.Sprintf("%s-%d", prefix, s.n)
}

// Assemble builds the Block sequence in the fixed order spec.md §4.8
// mandates: header, narrative paragraph, divider, then per-venue
// {header, paragraph, list, optional cta}, closed by a terminal divider.
// order is assigned densely starting at 1; all text is normalized to
// UTF-8 NFC.
func Assemble(a Artifact) []Block {
	var out []Block
	ids := &idSeq{}
	order := 1

	emit := func(b Block) {
		b.Order = order
		order++
		out = append(out, b)
	}

	emit(Block{ID: ids.next("header"), Type: TypeHeader, Header: &HeaderFields{Text: nfc(a.Title), Level: 1}})
	emit(Block{ID: ids.next("paragraph"), Type: TypeParagraph, Paragraph: &ParagraphFields{Text: nfc(a.Narrative)}})
	emit(Block{ID: ids.next("divider"), Type: TypeDivider})

	for _, vg := range a.VenueGroups {
		emit(Block{ID: ids.next("header"), Type: TypeHeader, Header: &HeaderFields{Text: nfc(vg.Name), Level: 3}})
		emit(Block{ID: ids.next("paragraph"), Type: TypeParagraph, Paragraph: &ParagraphFields{Text: nfc(vg.Rationale)}})

		if len(vg.ListItems) > 0 {
			items := make([]string, len(vg.ListItems))
			for i, it := range vg.ListItems {
				items[i] = nfc(it)
			}
			emit(Block{ID: ids.next("list"), Type: TypeList, List: &ListFields{Items: items, Style: "bullet"}})
		}

		if vg.CTALabel != "" {
			emit(Block{ID: ids.next("cta"), Type: TypeCTA, CTA: &CTAFields{Label: nfc(vg.CTALabel), Action: vg.CTAAction, Variant: "primary"}})
		}
	}

	emit(Block{ID: ids.next("divider"), Type: TypeDivider})

	return out
}

// nfc normalizes text to UTF-8 NFC, preserving newlines and emitting no
// HTML (spec.md §4.8).
func nfc(s string) string {
	return norm.NFC.String(s)
}
