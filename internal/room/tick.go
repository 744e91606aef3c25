package room

import (
	"context"
	"time"

	"roomforge/internal/gameplay"
	"roomforge/internal/sim"
	"roomforge/internal/store"
	"roomforge/logging"
	gameplaylog "roomforge/logging/gameplay"
	simlog "roomforge/logging/simulation"
)

// A catch-up pass that keeps blowing its budget (or blows it badly enough
// in one pass) escalates into an alarm that forces a fresh full snapshot to
// every socket.
const (
	tickBudgetAlarmMinStreak = 3
	tickBudgetAlarmMinRatio  = 2.0
)

// runUntilNowLocked advances the scheduler to now, running every catch-up
// step's movement, projectile, and gameplay ticks, and broadcasts a
// snapshot on the configured cadence or whenever a step left state dirty.
func (r *Room) runUntilNowLocked(ctx context.Context, now time.Time) {
	start := time.Now()
	steps := r.sched.Advance(now, &r.tick, func(tick uint64) {
		movementChanged := r.tickMovementLocked(ctx, now)
		projectileChanged := r.tickProjectilesLocked(ctx, now)
		gameplayChanged := r.tickGameplayLocked(ctx, tick, now)

		if movementChanged || projectileChanged || gameplayChanged {
			r.dirty = true
		}
		if tick%r.snapshotEvery == 0 || r.dirty {
			r.broadcastSnapshotLocked(ctx, now)
			r.dirty = false
		}
	})
	if steps == 0 {
		return
	}
	budget := time.Second / time.Duration(sim.RateHz) * time.Duration(steps)
	elapsed := time.Since(start)
	if elapsed <= budget {
		r.overrunStreak = 0
		r.budgetAlarmFired = false
		return
	}

	ratio := float64(elapsed) / float64(budget)
	r.overrunStreak++
	simlog.TickBudgetOverrun(ctx, r.publisher, r.tick, simlog.TickBudgetOverrunPayload{
		DurationMillis: elapsed.Milliseconds(),
		BudgetMillis:   budget.Milliseconds(),
		Ratio:          ratio,
		Streak:         r.overrunStreak,
	}, nil)

	if (ratio >= tickBudgetAlarmMinRatio || r.overrunStreak >= tickBudgetAlarmMinStreak) && !r.budgetAlarmFired {
		r.budgetAlarmFired = true
		r.broadcastSnapshotLocked(ctx, now)
		r.dirty = false
		simlog.TickBudgetAlarm(ctx, r.publisher, r.tick, simlog.TickBudgetAlarmPayload{
			DurationMillis:  elapsed.Milliseconds(),
			BudgetMillis:    budget.Milliseconds(),
			Ratio:           ratio,
			Streak:          r.overrunStreak,
			ResyncScheduled: true,
			ThresholdRatio:  tickBudgetAlarmMinRatio,
			ThresholdStreak: tickBudgetAlarmMinStreak,
		}, nil)
	}
}

// tickMovementLocked advances every connected player's position by one
// fixed step. It reports true whenever any player is connected, even if no
// position actually changed; the dirty signal tracks connection count, not
// a per-position delta.
func (r *Room) tickMovementLocked(ctx context.Context, now time.Time) bool {
	rows, err := r.store.AllMovement(ctx)
	if err != nil {
		r.logError(ctx, now, "load movement for tick", err)
		return false
	}

	connected, err := r.store.ConnectedPlayerIDs(ctx)
	if err != nil {
		r.logError(ctx, now, "load connected players for tick", err)
		return false
	}
	connectedSet := make(map[string]struct{}, len(connected))
	for _, id := range connected {
		connectedSet[id] = struct{}{}
	}

	for _, row := range rows {
		if _, ok := connectedSet[row.PlayerID]; !ok {
			continue
		}
		input, err := r.store.LoadInput(ctx, row.PlayerID)
		if err != nil {
			r.logError(ctx, now, "load input for tick", err)
			continue
		}
		step := sim.Move(row.X, row.Y, sim.Input{Up: input.Up, Down: input.Down, Left: input.Left, Right: input.Right},
			sim.DTSeconds, sim.MoveSpeed, sim.MovementMapLimit)
		if err := r.store.UpsertMovement(ctx, store.MovementRow{
			PlayerID: row.PlayerID, X: step.X, Y: step.Y, VX: step.VX, VY: step.VY,
		}, now.UnixMilli()); err != nil {
			r.logError(ctx, now, "persist movement for tick", err)
		}
	}

	return len(connected) > 0
}

// tickProjectilesLocked walks every projectile present at tick start,
// deleting the expired ones and stepping the rest. It reports true whenever
// any projectile was present, even if all of them expired this tick, so the
// final expiry still forces a snapshot broadcast.
func (r *Room) tickProjectilesLocked(ctx context.Context, now time.Time) bool {
	rows, err := r.store.AllProjectiles(ctx)
	if err != nil {
		r.logError(ctx, now, "load projectiles for tick", err)
		return false
	}
	if len(rows) == 0 {
		return false
	}

	nowMS := now.UnixMilli()
	for _, row := range rows {
		if row.ExpiresAt <= nowMS {
			if err := r.store.DeleteProjectile(ctx, row.ProjectileID); err != nil {
				r.logError(ctx, now, "delete expired projectile", err)
			}
			continue
		}
		nx, ny := sim.ProjectileStep(row.X, row.Y, row.VX, row.VY, sim.DTSeconds, sim.ProjectileMapLimit)
		if err := r.store.UpdateProjectilePosition(ctx, row.ProjectileID, nx, ny, nowMS); err != nil {
			r.logError(ctx, now, "persist projectile position", err)
		}
	}

	return true
}

// tickGameplayLocked drains the pending gameplay command buffer through a
// single Simulate call, persists the resulting state, and appends the
// produced events to the broadcast buffer. It reports changed only when at
// least one event was produced, so gameplay-idle ticks never force a
// snapshot broadcast on their own.
func (r *Room) tickGameplayLocked(ctx context.Context, tick uint64, now time.Time) bool {
	commands := r.pendingGameplay
	r.pendingGameplay = nil

	output := gameplay.Simulate(r.gameplayState, gameplay.Input{
		SchemaVersion: gameplay.SchemaVersion,
		Tick:          r.gameplayState.Tick + 1,
		Commands:      commands,
	})

	if err := r.persistGameplayStateLocked(ctx, now); err != nil {
		r.logError(ctx, now, "persist gameplay state", err)
	}

	for _, event := range output.Events {
		if event.Type != gameplay.EventRejected || event.Reason == nil {
			continue
		}
		actorID := event.Reason.ActorID
		gameplaylog.CommandRejected(ctx, r.publisher, tick, logging.EntityRef{ID: actorID, Kind: "actor"}, gameplaylog.RejectedPayload{
			CommandIndex: event.CommandIndex,
			Reason:       string(event.Reason.Kind),
		}, nil)
	}
	for _, event := range output.Events {
		if event.Type == gameplay.EventDamageApplied && event.Defeated {
			gameplaylog.CombatantDefeated(ctx, r.publisher, tick, gameplaylog.DefeatedPayload{TargetID: event.TargetID}, nil)
		}
	}

	r.gameplayEvents = append(r.gameplayEvents, output.Events...)
	if len(r.gameplayEvents) > maxSnapshotGameplayEvents {
		r.gameplayEvents = r.gameplayEvents[len(r.gameplayEvents)-maxSnapshotGameplayEvents:]
	}

	return len(output.Events) > 0
}
