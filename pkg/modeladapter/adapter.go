// Package modeladapter implements the Model Adapter Layer (spec.md C3): a
// single call(role, request) contract over three distinct provider
// families, so the Orchestrator never branches on provider identity.
package modeladapter

import (
	"context"
	"time"

	"github.com/ridewave/triad/internal/xerrors"
)

// Role identifies which of the three LLM seats a call fills. Each role is
// bound to exactly one provider family — there is no fallback chain
// between roles or providers (spec.md §4.3, Non-goals).
type Role string

const (
	RoleStrategist Role = "strategist"
	RolePlanner    Role = "planner"
	RoleValidator  Role = "validator"
)

// Budget returns the per-role timeout spec.md §4.6 allocates within its
// phase deadline.
func (r Role) Budget() time.Duration {
	switch r {
	case RoleStrategist:
		return 12 * time.Second
	case RolePlanner:
		return 45 * time.Second
	case RoleValidator:
		return 15 * time.Second
	default:
		return 10 * time.Second
	}
}

// Request is the uniform input to every provider call.
type Request struct {
	System      string
	User        string
	Constraints map[string]interface{}
}

// Usage mirrors the teacher's core.TokenUsage shape.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Response is the uniform output of every provider call.
type Response struct {
	Text      string
	Usage     Usage
	ModelID   string
	LatencyMS int64
}

// Client is implemented once per provider family and bound to exactly one
// Role by the Orchestrator's wiring, never chosen dynamically at call time.
type Client interface {
	Role() Role
	Call(ctx context.Context, req Request) (*Response, error)
}

// CheckModel guards against a provider silently routing a call to a model
// other than the one configured — spec.md §7 classifies this as
// model_mismatch, distinct from a provider-side failure.
func CheckModel(op string, want, got string) error {
	if want != "" && got != "" && want != got {
		return xerrors.New(xerrors.ModelMismatch, op, "provider returned model "+got+", expected "+want)
	}
	return nil
}

// WrapRoleError maps a raw provider error onto the role-specific taxonomy
// code from spec.md §7 (strategist_failed / planner_failed /
// validator_failed), preserving the underlying error for unwrapping.
func WrapRoleError(role Role, op string, err error) error {
	switch role {
	case RoleStrategist:
		return xerrors.Wrap(xerrors.StrategistFailed, op, "strategist call failed", err)
	case RolePlanner:
		return xerrors.Wrap(xerrors.PlannerFailed, op, "planner call failed", err)
	case RoleValidator:
		return xerrors.Wrap(xerrors.ValidatorFailed, op, "validator call failed", err)
	default:
		return xerrors.Wrap(xerrors.PlannerFailed, op, "model call failed", err)
	}
}
