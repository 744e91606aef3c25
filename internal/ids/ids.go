// Package ids sanitizes and mints the identifiers used throughout a room:
// room codes, player ids, and the stable ids minted for structures and
// projectiles when a client does not supply its own.
package ids

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// RoomCodeMaxLen bounds a sanitized room code.
	RoomCodeMaxLen = 24
	// PlayerIDMinLen and PlayerIDMaxLen bound a sanitized player id.
	PlayerIDMinLen = 3
	PlayerIDMaxLen = 120
)

// SanitizeRoomCode trims, upper-cases, and validates a candidate room code.
// Valid codes are 1-24 ASCII alphanumerics, underscores, or hyphens.
func SanitizeRoomCode(input string) (string, bool) {
	candidate := strings.ToUpper(strings.TrimSpace(input))
	if candidate == "" || len(candidate) > RoomCodeMaxLen {
		return "", false
	}
	if !isValidIdentifier(candidate) {
		return "", false
	}
	return candidate, true
}

// SanitizePlayerID trims and validates a candidate player id. Valid ids are
// 3-120 ASCII alphanumerics, underscores, or hyphens.
func SanitizePlayerID(input string) (string, bool) {
	candidate := strings.TrimSpace(input)
	if len(candidate) < PlayerIDMinLen || len(candidate) > PlayerIDMaxLen {
		return "", false
	}
	if !isValidIdentifier(candidate) {
		return "", false
	}
	return candidate, true
}

func isValidIdentifier(s string) bool {
	for _, ch := range s {
		switch {
		case ch >= 'a' && ch <= 'z':
		case ch >= 'A' && ch <= 'Z':
		case ch >= '0' && ch <= '9':
		case ch == '_' || ch == '-':
		default:
			return false
		}
	}
	return true
}

// ParseRoomCodeFromPath extracts and sanitizes the room code from a path of
// the shape "/api/rooms/{room}/ws".
func ParseRoomCodeFromPath(path string) (string, bool) {
	parts := strings.Split(path, "/")
	if len(parts) != 5 {
		return "", false
	}
	if parts[1] != "api" || parts[2] != "rooms" || parts[4] != "ws" {
		return "", false
	}
	return SanitizeRoomCode(parts[3])
}

// RandomPlayerID mints an anonymous player id in the shape "anon_<uuid>".
func RandomPlayerID() string {
	return "anon_" + uuid.NewString()
}

// NewStructureID mints a stable structure id when a client does not supply
// its own clientBuildId.
func NewStructureID() string {
	return "build_" + randomSuffix()
}

// NewProjectileID mints a stable projectile id.
func NewProjectileID() string {
	return "proj_" + randomSuffix()
}

func randomSuffix() string {
	return fmt.Sprintf("%d_%s", time.Now().UnixMilli(), uuid.NewString())
}
