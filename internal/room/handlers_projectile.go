package room

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"roomforge/internal/ids"
	"roomforge/internal/proto"
	"roomforge/internal/sim"
	"roomforge/internal/store"
)

type projectileFirePayload struct {
	X                  float64 `json:"x"`
	Y                  float64 `json:"y"`
	VX                 float64 `json:"vx"`
	VY                 float64 `json:"vy"`
	ClientProjectileID string  `json:"clientProjectileId,omitempty"`
}

func (r *Room) handleProjectileLocked(ctx context.Context, att *attachment, envelope proto.ClientEnvelope, now time.Time) (bool, error) {
	switch envelope.Action {
	case "fire":
		var payload projectileFirePayload
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
			return false, errMalformedPayload(err)
		}

		vx, vy := clampProjectileVelocity(payload.VX, payload.VY)
		row := store.ProjectileRow{
			ProjectileID:       ids.NewProjectileID(),
			OwnerID:            att.playerID,
			X:                  payload.X,
			Y:                  payload.Y,
			VX:                 vx,
			VY:                 vy,
			ExpiresAt:          now.UnixMilli() + sim.ProjectileTTLMS,
			ClientProjectileID: payload.ClientProjectileID,
		}
		if err := r.store.InsertProjectile(ctx, row, now.UnixMilli()); err != nil {
			return false, err
		}
		if err := r.store.EvictOldestProjectiles(ctx, sim.MaxProjectiles); err != nil {
			return false, err
		}
		return true, nil

	default:
		return false, errUnknownAction(envelope.Action)
	}
}

// clampProjectileVelocity scales the velocity vector down to
// sim.ProjectileMaxSpeed if its magnitude exceeds it, preserving direction.
func clampProjectileVelocity(vx, vy float64) (float64, float64) {
	speed := math.Hypot(vx, vy)
	if speed <= sim.ProjectileMaxSpeed || speed == 0 {
		return vx, vy
	}
	scale := sim.ProjectileMaxSpeed / speed
	return vx * scale, vy * scale
}
