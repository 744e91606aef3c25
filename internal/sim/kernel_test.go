package sim

import (
	"math"
	"testing"
)

func TestMovementVelocityZeroWhenNoInput(t *testing.T) {
	v := MovementVelocity(Input{}, MoveSpeed)
	if v.X != 0 || v.Y != 0 {
		t.Fatalf("expected zero velocity, got %+v", v)
	}
}

func TestMovementVelocityDiagonalIsNormalized(t *testing.T) {
	v := MovementVelocity(Input{Up: true, Right: true}, MoveSpeed)
	magnitude := math.Hypot(v.X, v.Y)
	if math.Abs(magnitude-MoveSpeed) > 1e-3 {
		t.Fatalf("expected magnitude %v, got %v", MoveSpeed, magnitude)
	}
	if v.X <= 0 || v.Y <= 0 {
		t.Fatalf("expected positive x and y components, got %+v", v)
	}
}

func TestMoveClampsToMapLimit(t *testing.T) {
	step := Move(MovementMapLimit-1, 0, Input{Right: true}, 10, MoveSpeed, MovementMapLimit)
	if step.X != MovementMapLimit {
		t.Fatalf("expected x clamped to %v, got %v", MovementMapLimit, step.X)
	}
	if step.X > MovementMapLimit || step.X < -MovementMapLimit {
		t.Fatalf("x out of bounds: %v", step.X)
	}
}

func TestProjectileStepClamps(t *testing.T) {
	x, y := ProjectileStep(ProjectileMapLimit-1, -ProjectileMapLimit+1, 10000, -10000, 1, ProjectileMapLimit)
	if x != ProjectileMapLimit {
		t.Fatalf("expected x clamped to %v, got %v", ProjectileMapLimit, x)
	}
	if y != -ProjectileMapLimit {
		t.Fatalf("expected y clamped to %v, got %v", -ProjectileMapLimit, y)
	}
}
