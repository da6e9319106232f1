package model

import "time"

// StoredFile describes an upload persisted under a server-generated name.
// The public URL is not part of it; it is derived per request from the origin.
type StoredFile struct {
	StoredName   string    `json:"stored_name"`
	OriginalName string    `json:"original_name"`
	Extension    string    `json:"extension"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"content_type"`
	CreatedAt    time.Time `json:"created_at"`
}
