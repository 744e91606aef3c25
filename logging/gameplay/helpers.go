package gameplay

import (
	"context"

	"roomforge/logging"
)

const (
	// EventCommandRejected is emitted when a gameplay command is rejected by simulate_step.
	EventCommandRejected logging.EventType = "gameplay.command_rejected"
	// EventCombatantDefeated is emitted when a combatant's health reaches zero.
	EventCombatantDefeated logging.EventType = "gameplay.combatant_defeated"
)

// RejectedPayload captures why a gameplay command or step was rejected.
type RejectedPayload struct {
	CommandIndex *int   `json:"commandIndex,omitempty"`
	Reason       string `json:"reason"`
}

// CommandRejected publishes a warning when a gameplay command is rejected.
func CommandRejected(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload RejectedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventCommandRejected,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityWarn,
		Category: "gameplay",
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// DefeatedPayload captures a combatant's final blow.
type DefeatedPayload struct {
	TargetID string `json:"targetId"`
}

// CombatantDefeated publishes an info event when a combatant's health reaches zero.
func CombatantDefeated(ctx context.Context, pub logging.Publisher, tick uint64, payload DefeatedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventCombatantDefeated,
		Tick:     tick,
		Severity: logging.SeverityInfo,
		Category: "gameplay",
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}
