package utils

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// SessionInstanceID returns the ID that tags this bot's websocket broadcasts
// when they are relayed through Valkey. It is created once per session folder.
func SessionInstanceID(override, sessionDir string) string {
	if override = strings.TrimSpace(override); override != "" {
		return override
	}

	idFile := filepath.Join(sessionDir, ".instance_id")
	if data, err := os.ReadFile(idFile); err == nil {
		if id := strings.TrimSpace(string(data)); id != "" {
			return id
		}
	}

	id := "azbot-" + uuid.NewString()[:8]
	_ = WriteFileAtomic(idFile, []byte(id))
	return id
}
