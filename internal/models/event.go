package models

import "time"

const EventPinDropped = "pin.dropped"

// PinEvent is the message published on the pin topic after a pin is saved.
type PinEvent struct {
	Type       string    `json:"type"`
	PinID      string    `json:"pin_id"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewPinDropped(p Pin) PinEvent {
	return PinEvent{
		Type:       EventPinDropped,
		PinID:      p.ID,
		Latitude:   p.Latitude,
		Longitude:  p.Longitude,
		OccurredAt: time.Now().UTC(),
	}
}
