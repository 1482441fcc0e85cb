package mediastore

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Payload is a binary payload bound for the media store. Callers are
// responsible for rejecting empty or wrong-typed payloads before Upload;
// the store performs no validation of its own.
type Payload struct {
	Content     []byte
	Filename    string
	ContentType string
	Folder      string // logical namespace, e.g. "hajj" or "knowledge"
}

// Object is the result of a successful upload: a permanent retrieval URL
// and the key used to delete the object later.
type Object struct {
	URL      string
	RemoteID string
}

// Store uploads and deletes binary objects on a hosted media service.
// Upload is not idempotent-safe: retrying a failed call creates a
// duplicate remote object, so callers must not blindly retry.
type Store interface {
	Upload(ctx context.Context, p Payload) (*Object, error)
	Delete(ctx context.Context, remoteID string) error
}

// BuildKey generates a collision-free object key under the payload's
// folder. Filenames are lowercased and spaces replaced so keys stay
// URL-friendly.
func BuildKey(folder, filename string) string {
	name := strings.ToLower(filename)
	name = strings.ReplaceAll(name, " ", "_")
	return fmt.Sprintf("%s/%s_%s", folder, uuid.New().String(), name)
}
