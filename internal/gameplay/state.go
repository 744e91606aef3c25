package gameplay

import "sort"

// PlaceableEntity is a persistent built object: a drill, furnace, chest, or
// assembler with position and health.
type PlaceableEntity struct {
	ID        uint64        `json:"id"`
	OwnerID   string        `json:"ownerId"`
	Kind      PlaceableKind `json:"kind"`
	TileX     int32         `json:"tileX"`
	TileY     int32         `json:"tileY"`
	MaxHealth uint16        `json:"maxHealth"`
	Health    uint16        `json:"health"`
}

// State is the gameplay subsystem's full, schema-versioned record. Keys are
// actor ids for the three per-actor maps; placeables are keyed by their
// minted numeric id. Iteration that affects outcomes (crafting resolution)
// must go through sortedCraftQueueActorIDs rather than Go's randomized map order.
type State struct {
	SchemaVersion   uint32                      `json:"schemaVersion"`
	Tick            uint64                      `json:"tick"`
	Inventories     map[string]*InventoryState  `json:"inventories"`
	CraftQueues     map[string]*CraftQueueState `json:"craftQueues"`
	Combatants      map[string]*CombatStats     `json:"combatants"`
	Placeables      map[uint64]*PlaceableEntity `json:"placeables"`
	NextPlaceableID uint64                      `json:"nextPlaceableId"`
}

// NewState returns a fresh gameplay state at the current schema version.
func NewState() *State {
	return &State{
		SchemaVersion:   SchemaVersion,
		Inventories:     make(map[string]*InventoryState),
		CraftQueues:     make(map[string]*CraftQueueState),
		Combatants:      make(map[string]*CombatStats),
		Placeables:      make(map[uint64]*PlaceableEntity),
		NextPlaceableID: 1,
	}
}

func (s *State) inventoryFor(actorID string) *InventoryState {
	inv, ok := s.Inventories[actorID]
	if !ok {
		inv = defaultInventory()
		s.Inventories[actorID] = inv
	}
	return inv
}

func (s *State) craftQueueFor(actorID string) *CraftQueueState {
	queue, ok := s.CraftQueues[actorID]
	if !ok {
		queue = &CraftQueueState{}
		s.CraftQueues[actorID] = queue
	}
	return queue
}

func (s *State) isTileOccupied(tileX, tileY int32) bool {
	for _, p := range s.Placeables {
		if p.TileX == tileX && p.TileY == tileY {
			return true
		}
	}
	return false
}

// sortedCraftQueueActorIDs returns craft-queue actor ids in ascending order,
// so crafting resolution never depends on Go's randomized map order.
func sortedCraftQueueActorIDs(m map[string]*CraftQueueState) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
