package model

import "time"

// Known remote commands. Anything else is logged and ignored by the
// listener.
const (
	CommandRefresh       = "refresh"
	CommandRestartSlides = "restart_slides"
)

// DeviceCommand is the single-slot command mailbox for one device. Sending
// a new command overwrites the previous one regardless of its processed
// state; it is not a queue.
type DeviceCommand struct {
	Command   string    `json:"command"`
	Action    string    `json:"action,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Processed bool      `json:"processed"`
}
