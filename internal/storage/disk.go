package storage

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rs/xid"
)

// filesSubdir groups uploads under the media root.
const filesSubdir = "component_files"

var _ BlobStore = (*DiskStore)(nil)

// DiskStore writes blobs under root and resolves URLs under baseURL.
// The server exposes root at baseURL via a file server, so the URL for a
// stored blob is baseURL + "/component_files/" + stored name.
type DiskStore struct {
	root    string
	baseURL string
}

// NewDiskStore creates the upload directory if needed.
func NewDiskStore(root, baseURL string) (*DiskStore, error) {
	dir := filepath.Join(root, filesSubdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: creating upload dir %s: %w", dir, err)
	}
	return &DiskStore{
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Save writes data to disk under a unique name and returns its display name,
// URL, and size. The suggested name is reduced to its basename so clients
// cannot steer the write outside the upload directory; a fresh xid prefix
// keeps repeated uploads of the same filename from colliding.
func (s *DiskStore) Save(data []byte, suggestedName string) (SavedBlob, error) {
	name := baseName(suggestedName)
	stored := xid.New().String() + "_" + name

	dst := filepath.Join(s.root, filesSubdir, stored)
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return SavedBlob{}, fmt.Errorf("storage: writing %s: %w", dst, err)
	}

	return SavedBlob{
		Name: name,
		URL:  s.baseURL + "/" + filesSubdir + "/" + stored,
		Size: int64(len(data)),
	}, nil
}

// baseName strips any directory part from a client-supplied filename,
// handling both slash conventions, and falls back to "upload" when nothing
// usable remains.
func baseName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)
	if name == "." || name == "/" || name == "" {
		return "upload"
	}
	return name
}
