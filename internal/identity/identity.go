// Package identity manages the durable opaque device ID that ties a
// display instance to its device record across restarts.
package identity

import (
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const idFileName = "device_id"

// Load returns the persisted device ID from stateDir, generating and
// persisting a new one on first run. Wiping the state dir yields a brand
// new identity and a fresh pairing cycle.
func Load(stateDir, deviceInfo string) (string, error) {
	path := filepath.Join(stateDir, idFileName)

	raw, err := os.ReadFile(path)
	if err == nil {
		id := strings.TrimSpace(string(raw))
		if id != "" {
			return id, nil
		}
	}

	id := generate(deviceInfo)
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return "", fmt.Errorf("could not create state dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(id+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("could not persist device id: %w", err)
	}
	log.Info().Str("deviceID", id).Msg("generated new device identity")
	return id, nil
}

// generate hashes host characteristics plus the current time into an
// opaque ID, falling back to a random UUID when the hostname is
// unavailable.
func generate(deviceInfo string) string {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		return uuid.NewString()
	}
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%d", hostname, deviceInfo, time.Now().UnixNano())
	return fmt.Sprintf("display-%016x", h.Sum64())
}
