package middlewares

import (
	"os"
	"strings"

	"QuickBill305/internal/feeimport"
	"QuickBill305/internal/validation"
)

// IsAdminOverrideEnabled reports whether ENABLE_ADMIN_OVERRIDE=true. When it
// is, users listed in ADMIN_USER_IDS or holding a role in ADMIN_ROLES get the
// import permission regardless of role_permissions.
func IsAdminOverrideEnabled() bool {
	return strings.ToLower(strings.TrimSpace(os.Getenv("ENABLE_ADMIN_OVERRIDE"))) == "true"
}

// IsAdminUser checks ADMIN_USER_IDS (comma separated).
func IsAdminUser(userID string) bool {
	if userID == "" {
		return false
	}
	for _, id := range envList("ADMIN_USER_IDS", false) {
		if id == userID {
			return true
		}
	}
	return false
}

// IsRoleAdminName checks ADMIN_ROLES (comma separated, case-insensitive).
func IsRoleAdminName(role string) bool {
	rn := strings.ToLower(strings.TrimSpace(role))
	if rn == "" {
		return false
	}
	for _, v := range envList("ADMIN_ROLES", true) {
		if v == rn {
			return true
		}
	}
	return false
}

// applyAdminOverride adds the import permission for override users. It
// reports whether anything was granted.
func applyAdminOverride(res *validation.ValidationResult) bool {
	if res == nil || !IsAdminOverrideEnabled() {
		return false
	}
	if !IsAdminUser(res.UserID) && !IsRoleAdminName(res.Role) {
		return false
	}
	for _, p := range res.Permissions {
		if p == feeimport.PermissionImport {
			return false
		}
	}
	res.Permissions = append(res.Permissions, feeimport.PermissionImport)
	return true
}

func envList(key string, lower bool) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if lower {
			t = strings.ToLower(t)
		}
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
