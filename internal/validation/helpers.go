package validation

import (
	"errors"
	"net/http"
	"strings"

	"QuickBill305/api/auth"
	"QuickBill305/internal/session"
)

// SessionHeader carries the session id issued by /auth/login.
const SessionHeader = "X-Session-ID"

var ErrNoSessionID = errors.New("session_id not found in request")

// ExtractSessionID reads the session id from the X-Session-ID header, falling
// back to the session_id form field. Parsed forms stay cached on r, so
// handlers can still read fields and files afterwards.
func ExtractSessionID(r *http.Request, maxMemory int64) (string, error) {
	if id := strings.TrimSpace(r.Header.Get(SessionHeader)); id != "" {
		return id, nil
	}

	ct := strings.ToLower(r.Header.Get("Content-Type"))
	if strings.Contains(ct, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxMemory); err != nil {
			return "", err
		}
	} else if err := r.ParseForm(); err != nil {
		return "", err
	}
	if id := strings.TrimSpace(r.FormValue("session_id")); id != "" {
		return id, nil
	}
	return "", ErrNoSessionID
}

// ValidateSession checks the in-memory session table (no DB).
func ValidateSession(sessionID string) (session.Session, bool) {
	return auth.GetSession(sessionID)
}
