package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoOp_StartSpanNeverPanics(t *testing.T) {
	p := NoOp()
	assert.NotPanics(t, func() {
		ctx, span := p.StartSpan(context.Background(), "triad.run")
		span.End()
		_ = ctx
	})
}

func TestNoOp_RecordJobOutcomeNeverPanics(t *testing.T) {
	p := NoOp()
	assert.NotPanics(t, func() {
		p.RecordJobOutcome(context.Background(), "succeeded")
	})
}
