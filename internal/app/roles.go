package app

import (
	"encoding/json"
	"strings"

	"github.com/dkeye/voice-gateway/internal/domain"
)

type roleMetadata struct {
	Role domain.Role `json:"role"`
}

// ResolveRole derives a participant's role. Structured metadata wins; a
// missing or malformed blob falls back to the identity prefix, and anything
// still unclear resolves to human, the least-privileged role. Never fails.
func ResolveRole(identity, metadata string) domain.Role {
	if metadata != "" {
		var m roleMetadata
		if err := json.Unmarshal([]byte(metadata), &m); err == nil {
			if domain.ValidRole(m.Role) {
				return m.Role
			}
			return domain.RoleHuman
		}
		return domain.RoleHuman
	}

	switch {
	case strings.HasPrefix(identity, "driver"):
		return domain.RoleDriver
	case strings.HasPrefix(identity, "bot"):
		return domain.RoleBot
	}
	return domain.RoleHuman
}

// EncodeRoleMetadata is the blob persisted on the participant at join time,
// so later events reuse the resolved role instead of re-deriving it.
func EncodeRoleMetadata(role domain.Role) string {
	b, _ := json.Marshal(roleMetadata{Role: role})
	return string(b)
}
