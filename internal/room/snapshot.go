package room

import (
	"context"
	"time"

	"roomforge/internal/gameplay"
	"roomforge/internal/sim"
)

// Snapshot is the full picture of room-visible state broadcast to every
// attached socket. Only full snapshots are ever sent; delta compression is
// explicitly out of scope.
type Snapshot struct {
	RoomCode       string   `json:"roomCode"`
	ServerTick     uint64   `json:"serverTick"`
	SimRateHz      int      `json:"simRateHz"`
	SnapshotRateHz int      `json:"snapshotRateHz"`
	ServerTime     int64    `json:"serverTime"`
	Features       Features `json:"features"`
}

// Features groups every feature's slice of the snapshot.
type Features struct {
	Presence   PresenceFeature   `json:"presence"`
	Movement   MovementFeature   `json:"movement"`
	Build      BuildFeature      `json:"build"`
	Projectile ProjectileFeature `json:"projectile"`
	Gameplay   GameplayFeature   `json:"gameplay"`
}

// PresenceFeature lists connected players.
type PresenceFeature struct {
	Online      []string `json:"online"`
	OnlineCount int      `json:"onlineCount"`
}

// MovementPlayer is one connected player's position, velocity, and
// connection flag (always true: only connected players are listed).
type MovementPlayer struct {
	ID        string  `json:"id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	VX        float64 `json:"vx"`
	VY        float64 `json:"vy"`
	Connected bool    `json:"connected"`
}

// MovementFeature lists connected players' movement state and every
// player's last accepted input sequence.
type MovementFeature struct {
	Players   []MovementPlayer  `json:"players"`
	InputAcks map[string]uint32 `json:"inputAcks"`
	Speed     float64           `json:"speed"`
}

// Structure is one placed build structure.
type Structure struct {
	ID      string  `json:"id"`
	OwnerID string  `json:"ownerId"`
	Kind    string  `json:"kind"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

// BuildFeature lists the most recently created structures. StructureCount is
// the returned page size (bounded by the query LIMIT), not the true table
// count.
type BuildFeature struct {
	Structures     []Structure `json:"structures"`
	StructureCount int         `json:"structureCount"`
}

// Projectile is one in-flight projectile.
type Projectile struct {
	ID                 string  `json:"id"`
	OwnerID            string  `json:"ownerId"`
	X                  float64 `json:"x"`
	Y                  float64 `json:"y"`
	VX                 float64 `json:"vx"`
	VY                 float64 `json:"vy"`
	ClientProjectileID string  `json:"clientProjectileId,omitempty"`
}

// ProjectileFeature lists active projectiles. ProjectileCount is likewise
// the returned page size, not the true table count.
type ProjectileFeature struct {
	Projectiles     []Projectile `json:"projectiles"`
	ProjectileCount int          `json:"projectileCount"`
}

// GameplayFeature carries the events produced since the previous broadcast,
// bounded to the most recent maxSnapshotGameplayEvents.
type GameplayFeature struct {
	Events []gameplay.Event `json:"events"`
	Tick   uint64           `json:"tick"`
}

func (r *Room) buildSnapshotLocked(ctx context.Context, now time.Time) (Snapshot, error) {
	connected, err := r.store.ConnectedPlayerIDs(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	connectedSet := make(map[string]struct{}, len(connected))
	for _, id := range connected {
		connectedSet[id] = struct{}{}
	}

	movementRows, err := r.store.AllMovement(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	players := make([]MovementPlayer, 0, len(movementRows))
	for _, row := range movementRows {
		if _, ok := connectedSet[row.PlayerID]; !ok {
			continue
		}
		players = append(players, MovementPlayer{ID: row.PlayerID, X: row.X, Y: row.Y, VX: row.VX, VY: row.VY, Connected: true})
	}

	inputAcks, err := r.store.AllInputAcks(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	structureRows, err := r.store.RecentStructures(ctx, sim.MaxStructures)
	if err != nil {
		return Snapshot{}, err
	}
	structures := make([]Structure, 0, len(structureRows))
	for _, row := range structureRows {
		structures = append(structures, Structure{ID: row.StructureID, OwnerID: row.OwnerID, Kind: row.Kind, X: row.X, Y: row.Y})
	}

	projectileRows, err := r.store.ActiveProjectiles(ctx, now.UnixMilli(), sim.MaxProjectiles)
	if err != nil {
		return Snapshot{}, err
	}
	projectiles := make([]Projectile, 0, len(projectileRows))
	for _, row := range projectileRows {
		projectiles = append(projectiles, Projectile{
			ID: row.ProjectileID, OwnerID: row.OwnerID, X: row.X, Y: row.Y, VX: row.VX, VY: row.VY,
			ClientProjectileID: row.ClientProjectileID,
		})
	}

	events := r.gameplayEvents
	if len(events) > maxSnapshotGameplayEvents {
		events = events[len(events)-maxSnapshotGameplayEvents:]
	}

	return Snapshot{
		RoomCode:       r.code,
		ServerTick:     r.tick,
		SimRateHz:      sim.RateHz,
		SnapshotRateHz: sim.SnapshotRateHz,
		ServerTime:     now.UnixMilli(),
		Features: Features{
			Presence: PresenceFeature{Online: connected, OnlineCount: len(connected)},
			Movement: MovementFeature{Players: players, InputAcks: inputAcks, Speed: sim.MoveSpeed},
			Build:    BuildFeature{Structures: structures, StructureCount: len(structureRows)},
			Projectile: ProjectileFeature{
				Projectiles:     projectiles,
				ProjectileCount: len(projectileRows),
			},
			Gameplay: GameplayFeature{Events: events, Tick: r.gameplayState.Tick},
		},
	}, nil
}
