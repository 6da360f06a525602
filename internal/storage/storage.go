// Package storage abstracts where uploaded attachment bytes live. The
// service layer depends on the BlobStore interface, so tests can swap in a
// temp directory or an in-memory fake.
package storage

// SavedBlob describes a stored payload: the path-stripped display name, a
// URL the HTTP layer can serve, and the payload size in bytes.
type SavedBlob struct {
	Name string
	URL  string
	Size int64
}

// BlobStore persists opaque binary payloads. suggestedName is advisory; the
// store derives a safe display name from its basename and guarantees a
// collision-free storage location.
type BlobStore interface {
	Save(data []byte, suggestedName string) (SavedBlob, error)
}
