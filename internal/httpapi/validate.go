package httpapi

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/perseusdefend/perseus/pkg/idx"
	"github.com/perseusdefend/perseus/pkg/tokenx"
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const minPasswordLength = 8

func validEmail(s string) bool {
	return s != "" && len(s) <= 254 && emailRe.MatchString(s)
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// requireEmail normalizes and validates an address, writing a 400 on
// failure.
func requireEmail(w http.ResponseWriter, raw string) (string, bool) {
	email := normalizeEmail(raw)
	if !validEmail(email) {
		respondError(w, http.StatusBadRequest, "A valid email address is required")
		return "", false
	}
	return email, true
}

func requirePassword(w http.ResponseWriter, password string) bool {
	if len(password) < minPasswordLength {
		respondError(w, http.StatusBadRequest, "Password must be at least 8 characters")
		return false
	}
	return true
}

func requireRole(w http.ResponseWriter, raw string) (tokenx.Role, bool) {
	role := tokenx.Role(raw)
	if raw == "" {
		role = tokenx.RoleUser
	}
	if !role.Valid() {
		respondError(w, http.StatusBadRequest, "Unknown role")
		return "", false
	}
	return role, true
}

// pathID parses the {id} path value, writing a 400 on garbage.
func pathID(w http.ResponseWriter, r *http.Request) (idx.ID, bool) {
	id, err := idx.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid id")
		return idx.Zero, false
	}
	return id, true
}
