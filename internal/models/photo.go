package models

import "time"

// Photo is an image record attached to a pin. A photo carries a remote URL,
// cached bytes, or both. A placeholder photo has bytes and no URL.
type Photo struct {
	ID        string    `json:"id"`
	PinID     string    `json:"pin_id"`
	URL       *string   `json:"url,omitempty"`
	Image     []byte    `json:"-"`
	ObjectKey string    `json:"-"`
	HasImage  bool      `json:"has_image"`
	CreatedAt time.Time `json:"created_at"`
}

func (p Photo) IsPlaceholder() bool {
	return p.URL == nil
}

func (p Photo) RemoteURL() string {
	if p.URL == nil {
		return ""
	}
	return *p.URL
}
