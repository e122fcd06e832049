package models

import "time"

// UnnamedLocation is the display name given to a pin whose coordinate
// resolved to a place without a usable name.
const UnnamedLocation = "Unnamed Location"

// Pin is a user-placed map location. It owns zero or more photos.
type Pin struct {
	ID        string    `json:"id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Name      *string   `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// DisplayName returns the pin name, or an empty string when the pin has none.
func (p Pin) DisplayName() string {
	if p.Name == nil {
		return ""
	}
	return *p.Name
}
