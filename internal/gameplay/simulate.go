package gameplay

// CommandType discriminates the SimulationCommand union.
type CommandType string

const (
	CommandGrantResource     CommandType = "grant_resource"
	CommandQueueCraft        CommandType = "queue_craft"
	CommandRegisterCombatant CommandType = "register_combatant"
	CommandDealDamage        CommandType = "deal_damage"
	CommandPlaceEntity       CommandType = "place_entity"
)

// Command is a single gameplay action submitted for one simulation step.
// It is a flat tagged union: only the fields relevant to Type are populated.
type Command struct {
	Type CommandType `json:"type"`

	ActorID  string       `json:"actorId,omitempty"`
	Resource ResourceKind `json:"resource,omitempty"`
	Amount   uint32       `json:"amount,omitempty"`

	Recipe RecipeKind `json:"recipe,omitempty"`
	Count  uint16     `json:"count,omitempty"`

	Stats CombatStats `json:"stats,omitempty"`

	TargetID     string `json:"targetId,omitempty"`
	DamageAmount uint16 `json:"damageAmount,omitempty"`

	Kind  PlaceableKind `json:"kind,omitempty"`
	TileX int32         `json:"tileX,omitempty"`
	TileY int32         `json:"tileY,omitempty"`
}

// Input is the argument to Simulate: the tick being advanced to and the
// ordered commands to apply at that tick.
type Input struct {
	SchemaVersion uint32    `json:"schemaVersion"`
	Tick          uint64    `json:"tick"`
	Commands      []Command `json:"commands"`
}

// EventType discriminates the SimulationEvent union.
type EventType string

const (
	EventResourceGranted     EventType = "resource_granted"
	EventCraftQueued         EventType = "craft_queued"
	EventCraftStarted        EventType = "craft_started"
	EventCraftCompleted      EventType = "craft_completed"
	EventPlaceablePlaced     EventType = "placeable_placed"
	EventCombatantRegistered EventType = "combatant_registered"
	EventDamageApplied       EventType = "damage_applied"
	EventRejected            EventType = "rejected"
)

// RejectReasonKind discriminates why a command or step was rejected.
type RejectReasonKind string

const (
	RejectSchemaVersionMismatch RejectReasonKind = "schema_version_mismatch"
	RejectTickNotAdvancing      RejectReasonKind = "tick_not_advancing"
	RejectInvalidAmount         RejectReasonKind = "invalid_amount"
	RejectInventoryNoFreeSlot   RejectReasonKind = "inventory_no_free_slot"
	RejectInsufficientResource  RejectReasonKind = "insufficient_resource"
	RejectOccupiedTile          RejectReasonKind = "occupied_tile"
	RejectUnknownCombatant      RejectReasonKind = "unknown_combatant"
)

// RejectReason explains a Rejected event; only the fields relevant to Kind
// are populated.
type RejectReason struct {
	Kind RejectReasonKind `json:"kind"`

	Expected     uint32 `json:"expected,omitempty"`
	Received     uint32 `json:"received,omitempty"`
	LastTick     uint64 `json:"lastTick,omitempty"`
	ReceivedTick uint64 `json:"receivedTick,omitempty"`

	ActorID   string       `json:"actorId,omitempty"`
	Resource  ResourceKind `json:"resource,omitempty"`
	Required  uint32       `json:"required,omitempty"`
	Available uint32       `json:"available,omitempty"`

	TileX int32 `json:"tileX,omitempty"`
	TileY int32 `json:"tileY,omitempty"`

	TargetID string `json:"targetId,omitempty"`
}

// Event is a single outcome of processing one step; only the fields
// relevant to Type are populated.
type Event struct {
	Type EventType `json:"type"`

	ActorID  string       `json:"actorId,omitempty"`
	Resource ResourceKind `json:"resource,omitempty"`
	Amount   uint32       `json:"amount,omitempty"`

	Recipe         RecipeKind `json:"recipe,omitempty"`
	Count          uint16     `json:"count,omitempty"`
	RemainingTicks uint16     `json:"remainingTicks,omitempty"`

	PlaceableID uint64        `json:"placeableId,omitempty"`
	OwnerID     string        `json:"ownerId,omitempty"`
	Kind        PlaceableKind `json:"kind,omitempty"`
	TileX       int32         `json:"tileX,omitempty"`
	TileY       int32         `json:"tileY,omitempty"`

	TargetID        string `json:"targetId,omitempty"`
	Applied         uint16 `json:"applied,omitempty"`
	RemainingHealth uint16 `json:"remainingHealth,omitempty"`
	Defeated        bool   `json:"defeated,omitempty"`

	CommandIndex *int          `json:"commandIndex,omitempty"`
	Reason       *RejectReason `json:"reason,omitempty"`
}

// Output is the result of one Simulate call: the tick it ran at and the
// ordered events it produced.
type Output struct {
	SchemaVersion uint32  `json:"schemaVersion"`
	Tick          uint64  `json:"tick"`
	Events        []Event `json:"events"`
}

func rejected(index *int, reason RejectReason) Event {
	return Event{Type: EventRejected, CommandIndex: index, Reason: &reason}
}

// Simulate advances state to input.Tick and applies input.Commands in order,
// then resolves crafting once across all actors in sorted-id order. It
// mutates state in place and returns the events produced. A schema mismatch
// or non-advancing tick rejects the whole step and leaves state unchanged.
func Simulate(state *State, input Input) Output {
	var events []Event

	if state.SchemaVersion != SchemaVersion {
		events = append(events, rejected(nil, RejectReason{
			Kind: RejectSchemaVersionMismatch, Expected: SchemaVersion, Received: state.SchemaVersion,
		}))
		return Output{SchemaVersion: SchemaVersion, Tick: state.Tick, Events: events}
	}
	if input.SchemaVersion != SchemaVersion {
		events = append(events, rejected(nil, RejectReason{
			Kind: RejectSchemaVersionMismatch, Expected: SchemaVersion, Received: input.SchemaVersion,
		}))
		return Output{SchemaVersion: SchemaVersion, Tick: state.Tick, Events: events}
	}
	if input.Tick <= state.Tick {
		events = append(events, rejected(nil, RejectReason{
			Kind: RejectTickNotAdvancing, LastTick: state.Tick, ReceivedTick: input.Tick,
		}))
		return Output{SchemaVersion: SchemaVersion, Tick: state.Tick, Events: events}
	}

	state.Tick = input.Tick

	for i, cmd := range input.Commands {
		idx := i
		switch cmd.Type {
		case CommandGrantResource:
			inv := state.inventoryFor(cmd.ActorID)
			err := inv.AddResource(cmd.Resource, cmd.Amount)
			switch e := err.(type) {
			case nil:
				events = append(events, Event{Type: EventResourceGranted, ActorID: cmd.ActorID, Resource: cmd.Resource, Amount: cmd.Amount})
			case *InventoryError:
				if e.Kind == InvNoFreeSlot {
					events = append(events, rejected(&idx, RejectReason{Kind: RejectInventoryNoFreeSlot, ActorID: cmd.ActorID}))
				} else {
					// AddResource never reports InsufficientResource; anything
					// else here is an invalid amount.
					events = append(events, rejected(&idx, RejectReason{Kind: RejectInvalidAmount}))
				}
			}

		case CommandQueueCraft:
			if cmd.Count == 0 {
				events = append(events, rejected(&idx, RejectReason{Kind: RejectInvalidAmount}))
				continue
			}
			queue := state.craftQueueFor(cmd.ActorID)
			queue.Pending = append(queue.Pending, &QueuedCraft{Recipe: cmd.Recipe, Count: cmd.Count})
			events = append(events, Event{Type: EventCraftQueued, ActorID: cmd.ActorID, Recipe: cmd.Recipe, Count: cmd.Count})

		case CommandRegisterCombatant:
			stats := cmd.Stats
			state.Combatants[cmd.ActorID] = &stats
			events = append(events, Event{Type: EventCombatantRegistered, ActorID: cmd.ActorID})

		case CommandDealDamage:
			if cmd.DamageAmount == 0 {
				events = append(events, rejected(&idx, RejectReason{Kind: RejectInvalidAmount}))
				continue
			}
			stats, ok := state.Combatants[cmd.TargetID]
			if !ok {
				events = append(events, rejected(&idx, RejectReason{Kind: RejectUnknownCombatant, TargetID: cmd.TargetID}))
				continue
			}
			outcome := stats.ApplyDamage(cmd.DamageAmount)
			events = append(events, Event{
				Type: EventDamageApplied, TargetID: cmd.TargetID,
				Applied: outcome.Applied, RemainingHealth: outcome.RemainingHealth, Defeated: outcome.Defeated,
			})

		case CommandPlaceEntity:
			if state.isTileOccupied(cmd.TileX, cmd.TileY) {
				events = append(events, rejected(&idx, RejectReason{Kind: RejectOccupiedTile, TileX: cmd.TileX, TileY: cmd.TileY}))
				continue
			}
			cost := PlaceableBuildCost(cmd.Kind)
			inv := state.inventoryFor(cmd.ActorID)
			if err := inv.ConsumeRequirements(cost); err != nil {
				events = append(events, rejected(&idx, inventoryErrorToRejectReason(err.(*InventoryError), cmd.ActorID)))
				continue
			}
			placeableID := state.NextPlaceableID
			state.NextPlaceableID++
			maxHealth := PlaceableMaxHealth(cmd.Kind)
			state.Placeables[placeableID] = &PlaceableEntity{
				ID: placeableID, OwnerID: cmd.ActorID, Kind: cmd.Kind,
				TileX: cmd.TileX, TileY: cmd.TileY, MaxHealth: maxHealth, Health: maxHealth,
			}
			events = append(events, Event{
				Type: EventPlaceablePlaced, PlaceableID: placeableID, OwnerID: cmd.ActorID,
				Kind: cmd.Kind, TileX: cmd.TileX, TileY: cmd.TileY,
			})
		}
	}

	resolveCrafting(state, &events)

	return Output{SchemaVersion: SchemaVersion, Tick: state.Tick, Events: events}
}

func resolveCrafting(state *State, events *[]Event) {
	for _, actorID := range sortedCraftQueueActorIDs(state.CraftQueues) {
		startPendingCraft(state, actorID, events)

		queue := state.CraftQueues[actorID]
		active := queue.Active
		if active == nil {
			continue
		}
		if active.RemainingTicks > 0 {
			active.RemainingTicks--
		}
		if active.RemainingTicks != 0 {
			continue
		}

		recipe := active.Recipe
		queue.Active = nil

		definition := RecipeDefinitionFor(recipe)
		inv := state.inventoryFor(actorID)
		var outputErr error
		for _, output := range definition.Outputs {
			if err := inv.AddResource(output.Resource, output.Amount); err != nil {
				outputErr = err
				break
			}
		}
		if outputErr != nil {
			*events = append(*events, rejected(nil, inventoryErrorToRejectReason(outputErr.(*InventoryError), actorID)))
			continue
		}
		*events = append(*events, Event{Type: EventCraftCompleted, ActorID: actorID, Recipe: recipe})
	}
}

func startPendingCraft(state *State, actorID string, events *[]Event) {
	queue := state.CraftQueues[actorID]
	if queue == nil || queue.Active != nil {
		return
	}
	recipe, ok := queue.peekRecipe()
	if !ok {
		return
	}

	definition := RecipeDefinitionFor(recipe)
	inv := state.inventoryFor(actorID)
	if !inv.CanAfford(definition.Inputs) {
		return
	}
	if err := inv.ConsumeRequirements(definition.Inputs); err != nil {
		return
	}

	if queue.Active != nil {
		return
	}
	consumedRecipe, ok := queue.consumeOnePending()
	if !ok {
		return
	}

	remainingTicks := definition.CraftTicks
	if remainingTicks < 1 {
		remainingTicks = 1
	}
	queue.Active = &ActiveCraft{Recipe: consumedRecipe, RemainingTicks: remainingTicks}
	*events = append(*events, Event{Type: EventCraftStarted, ActorID: actorID, Recipe: consumedRecipe, RemainingTicks: remainingTicks})
}

func inventoryErrorToRejectReason(err *InventoryError, actorID string) RejectReason {
	switch err.Kind {
	case InvNoFreeSlot:
		return RejectReason{Kind: RejectInventoryNoFreeSlot, ActorID: actorID}
	case InvInsufficientResource:
		return RejectReason{Kind: RejectInsufficientResource, ActorID: actorID, Resource: err.Resource, Required: err.Required, Available: err.Available}
	default:
		return RejectReason{Kind: RejectInvalidAmount}
	}
}
