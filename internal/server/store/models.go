package store

import "time"

// Attribution is optional display metadata supplied by the uploader.
// Either field may be set without the other; neither is validated.
type Attribution struct {
	Name    string
	IconURL string
}

// IsZero reports whether no attribution was supplied.
func (a Attribution) IsZero() bool {
	return a.Name == "" && a.IconURL == ""
}

// StoredFile is a shared file. It is never modified after insertion.
type StoredFile struct {
	ID        string
	Name      string
	MimeType  string
	SizeBytes int64
	Content   string // data URL: data:<mime>;base64,<payload>
	CreatedAt time.Time
	Author    Attribution
}

// NewFile carries everything Put needs except the identifier and timestamp.
type NewFile struct {
	Name      string
	MimeType  string
	SizeBytes int64
	Content   string
	Author    Attribution
}
