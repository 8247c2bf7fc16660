// Package store is the document store the playback core runs against:
// get/put/subscribe of a handful of JSON documents with push notification
// on change. Persistence is Postgres; change fan-out goes through a
// Notifier (Redis pub/sub or MQTT).
package store

import (
	"context"
	"errors"
)

// Document keys consumed by the core.
const (
	// ContentKey holds the display-content document (all playlists).
	ContentKey = "content"
	// SettingsKey holds the display-settings document (appearance, feeds).
	SettingsKey = "settings"
)

func DeviceKey(deviceID string) string { return "device/" + deviceID }

func CommandKey(deviceID string) string { return "command/" + deviceID }

func PairingKey(code string) string { return "pairing/" + code }

// Typed pairing-consumption failures, surfaced verbatim in the admin UI.
var (
	ErrCodeNotFound = errors.New("pairing code not found")
	ErrCodeUsed     = errors.New("pairing code already used")
	ErrCodeExpired  = errors.New("pairing code expired")
)

// OnChange receives the full current document, or ok=false when the
// document is absent or has been deleted.
type OnChange func(doc []byte, ok bool)

// Store is the contract both binaries consume. Put with merge enabled has
// last-write-wins shallow-merge semantics; there are no transactions except
// the atomic pairing-code consumption.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, doc []byte, merge bool) error
	Delete(ctx context.Context, key string) error

	// List returns all documents whose key starts with prefix, ordered by
	// key. Used by the admin device listing.
	List(ctx context.Context, prefix string) ([][]byte, error)

	// Subscribe invokes onChange once with the current document, then on
	// every subsequent change until the returned unsubscribe is called.
	Subscribe(ctx context.Context, key string, onChange OnChange) (func(), error)

	// ConsumePairingCode atomically marks the code used and returns it.
	// Fails with ErrCodeNotFound, ErrCodeUsed or ErrCodeExpired.
	ConsumePairingCode(ctx context.Context, code string) ([]byte, error)
}
