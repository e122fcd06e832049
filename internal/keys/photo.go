package keys

import (
	"fmt"
	"strings"

	"virtualtourist/internal/models"
)

const photoPrefix = "photos/"

// sanitizeKey lowercases the string and replaces spaces and slashes with hyphens.
func sanitizeKey(s string) string {
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "/", "-")
	return strings.ToLower(s)
}

// Photo returns the canonical S3 key for a photo's image bytes.
func Photo(p models.Photo) string {
	return fmt.Sprintf("%s%s.jpg", PinPrefix(p.PinID), sanitizeKey(p.ID))
}

// PinPrefix returns the key prefix under which all photos of a pin live.
func PinPrefix(pinID string) string {
	return photoPrefix + sanitizeKey(pinID) + "/"
}

// AllPhotos is the prefix shared by every photo object.
func AllPhotos() string {
	return photoPrefix
}
