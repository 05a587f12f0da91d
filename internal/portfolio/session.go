package portfolio

import (
	"os"
	"path/filepath"
	"time"

	"valutatrade/internal/storage"
)

// Session remembers the logged-in user between CLI invocations.
type Session struct {
	UserID     string    `json:"user_id"`
	Username   string    `json:"username"`
	LoggedInAt time.Time `json:"logged_in_at"`
}

func sessionPath(dataDir string) string {
	return filepath.Join(dataDir, "session.json")
}

// SaveSession writes the session file atomically.
func SaveSession(dataDir string, sess Session) error {
	return storage.WriteJSONAtomic(sessionPath(dataDir), sess)
}

// LoadSession returns the current session, or ok=false when nobody is
// logged in.
func LoadSession(dataDir string) (Session, bool) {
	var sess Session
	if err := storage.ReadJSON(sessionPath(dataDir), &sess); err != nil {
		return Session{}, false
	}
	return sess, sess.UserID != ""
}

// ClearSession logs the user out.
func ClearSession(dataDir string) error {
	err := os.Remove(sessionPath(dataDir))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
