package room

import (
	"context"
	"encoding/json"
	"time"

	"roomforge/internal/gameplay"
	"roomforge/internal/proto"
)

var validResourceKinds = map[gameplay.ResourceKind]struct{}{
	gameplay.ResourceIronOre:     {},
	gameplay.ResourceCopperOre:   {},
	gameplay.ResourceCoal:        {},
	gameplay.ResourceStone:       {},
	gameplay.ResourceIronPlate:   {},
	gameplay.ResourceCopperPlate: {},
	gameplay.ResourceGear:        {},
}

var validRecipeKinds = map[gameplay.RecipeKind]struct{}{
	gameplay.RecipeSmeltIronPlate:   {},
	gameplay.RecipeSmeltCopperPlate: {},
	gameplay.RecipeCraftGear:        {},
}

var validPlaceableKinds = map[gameplay.PlaceableKind]struct{}{
	gameplay.PlaceableBurnerDrill:  {},
	gameplay.PlaceableStoneFurnace: {},
	gameplay.PlaceableWoodenChest:  {},
	gameplay.PlaceableAssemblerMk1: {},
}

type grantResourcePayload struct {
	Resource gameplay.ResourceKind `json:"resource"`
	Amount   uint32                `json:"amount"`
}

type queueCraftPayload struct {
	Recipe gameplay.RecipeKind `json:"recipe"`
	Count  uint16              `json:"count"`
}

type registerCombatantPayload struct {
	MaxHealth   uint16 `json:"maxHealth"`
	AttackPower uint16 `json:"attackPower"`
	Armor       uint16 `json:"armor"`
}

type dealDamagePayload struct {
	TargetID     string `json:"targetId"`
	DamageAmount uint16 `json:"damageAmount"`
}

type placeEntityPayload struct {
	Kind  gameplay.PlaceableKind `json:"kind"`
	TileX int32                  `json:"tileX"`
	TileY int32                  `json:"tileY"`
}

// handleGameplayLocked validates and enqueues one gameplay command. Unlike
// the movement/build/projectile handlers, it never mutates gameplayState
// directly: the command is appended to the bounded pending buffer and the
// actual effect (and any rejection) surfaces from the next tick's
// gameplay.Simulate drain. It therefore always reports changed=false here,
// mirroring the same "apply now, surface later" split already used for
// input_batch.
func (r *Room) handleGameplayLocked(ctx context.Context, att *attachment, envelope proto.ClientEnvelope, now time.Time) (bool, error) {
	switch envelope.Action {
	case "grant_resource":
		var payload grantResourcePayload
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
			return false, errMalformedPayload(err)
		}
		if _, ok := validResourceKinds[payload.Resource]; !ok {
			return false, errInvalidResourceKind(payload.Resource)
		}
		r.enqueueGameplayCommand(ctx, now, gameplay.Command{
			Type: gameplay.CommandGrantResource, ActorID: att.playerID,
			Resource: payload.Resource, Amount: payload.Amount,
		})
		return false, nil

	case "queue_craft":
		var payload queueCraftPayload
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
			return false, errMalformedPayload(err)
		}
		if _, ok := validRecipeKinds[payload.Recipe]; !ok {
			return false, errInvalidRecipeKind(payload.Recipe)
		}
		r.enqueueGameplayCommand(ctx, now, gameplay.Command{
			Type: gameplay.CommandQueueCraft, ActorID: att.playerID,
			Recipe: payload.Recipe, Count: payload.Count,
		})
		return false, nil

	case "register_combatant":
		var payload registerCombatantPayload
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
			return false, errMalformedPayload(err)
		}
		r.enqueueGameplayCommand(ctx, now, gameplay.Command{
			Type: gameplay.CommandRegisterCombatant, ActorID: att.playerID,
			Stats: gameplay.NewCombatStats(payload.MaxHealth, payload.AttackPower, payload.Armor),
		})
		return false, nil

	case "deal_damage":
		var payload dealDamagePayload
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
			return false, errMalformedPayload(err)
		}
		r.enqueueGameplayCommand(ctx, now, gameplay.Command{
			Type: gameplay.CommandDealDamage, ActorID: att.playerID,
			TargetID: payload.TargetID, DamageAmount: payload.DamageAmount,
		})
		return false, nil

	case "place_entity":
		var payload placeEntityPayload
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
			return false, errMalformedPayload(err)
		}
		if _, ok := validPlaceableKinds[payload.Kind]; !ok {
			return false, errInvalidPlaceableKind(payload.Kind)
		}
		r.enqueueGameplayCommand(ctx, now, gameplay.Command{
			Type: gameplay.CommandPlaceEntity, ActorID: att.playerID,
			Kind: payload.Kind, TileX: payload.TileX, TileY: payload.TileY,
		})
		return false, nil

	default:
		return false, errUnknownAction(envelope.Action)
	}
}

type invalidResourceKindError struct{ kind gameplay.ResourceKind }

func (e invalidResourceKindError) Error() string { return "invalid resource kind: " + string(e.kind) }

func errInvalidResourceKind(kind gameplay.ResourceKind) error {
	return invalidResourceKindError{kind: kind}
}

type invalidRecipeKindError struct{ kind gameplay.RecipeKind }

func (e invalidRecipeKindError) Error() string { return "invalid recipe kind: " + string(e.kind) }

func errInvalidRecipeKind(kind gameplay.RecipeKind) error {
	return invalidRecipeKindError{kind: kind}
}

type invalidPlaceableKindError struct{ kind gameplay.PlaceableKind }

func (e invalidPlaceableKindError) Error() string {
	return "invalid placeable kind: " + string(e.kind)
}

func errInvalidPlaceableKind(kind gameplay.PlaceableKind) error {
	return invalidPlaceableKindError{kind: kind}
}
