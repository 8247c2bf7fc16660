package model

import "time"

// OnlineWindow is how recent a heartbeat must be for a paired device to
// count as online.
const OnlineWindow = 5 * time.Minute

// Device represents a display instance. Unpairing flips the flags but keeps
// the record, so the custom name survives a re-pair.
type Device struct {
	ID                 string    `json:"id"`
	CustomName         string    `json:"customName,omitempty"`
	IsLinked           bool      `json:"isLinked"`
	IsPaired           bool      `json:"isPaired"`
	LastSeen           time.Time `json:"lastSeen"`
	DeviceInfo         string    `json:"deviceInfo,omitempty"`
	DisplayPairingCode string    `json:"displayPairingCode,omitempty"`
}

// Online reports whether the device is paired and has sent a heartbeat
// within the online window.
func (d Device) Online(now time.Time) bool {
	return d.IsPaired && now.Sub(d.LastSeen) < OnlineWindow
}

// PairingCodeTTL is how long a displayed pairing code stays valid.
const PairingCodeTTL = 30 * time.Second

// PairingCode binds a short numeric code to a device. One-time use: Claim
// consumes it atomically.
type PairingCode struct {
	Code      string    `json:"code"`
	DeviceID  string    `json:"deviceId"`
	IsUsed    bool      `json:"isUsed"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the code's TTL has passed.
func (p PairingCode) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}
