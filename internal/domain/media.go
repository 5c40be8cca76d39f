package domain

import "io"

const MaxUploadSize = 10 << 20

// Object store prefixes.
const (
	PrefixAvatars  = "avatars"
	PrefixPhotos   = "photos"
	PrefixEvidence = "evidence"
)

// Upload describes a file received from a client.
type Upload struct {
	FileName string
	Size     int64
	MimeType string
	Reader   io.Reader
}

type StoredObject struct {
	Path string `json:"path"`
	URL  string `json:"url"`
}
