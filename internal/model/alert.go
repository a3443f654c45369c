package model

import "time"

// AlertEvent is emitted when a ticker completes its final confirmation stage.
// At most one event is produced per ticker per trading day.
type AlertEvent struct {
	ID      string
	Ticker  string
	Stage   int
	Variant string
	Status  string
	FiredAt time.Time
}
