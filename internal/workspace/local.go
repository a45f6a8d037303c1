package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// LocalStore implements Store on the local filesystem. Folder identity is
// the path relative to the root, so find-or-create is a plain existence
// check.
type LocalStore struct {
	root   string
	logger *zap.Logger
}

// NewLocalStore creates a LocalStore rooted at the given directory.
func NewLocalStore(root string, logger *zap.Logger) (*LocalStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage root: %w", err)
	}
	return &LocalStore{root: abs, logger: logger}, nil
}

func (s *LocalStore) abs(id string) string {
	return filepath.Join(s.root, filepath.FromSlash(id))
}

func (s *LocalStore) ref(id string) Ref {
	return Ref{ID: id, URL: "file://" + s.abs(id)}
}

// EnsureFolder finds or creates the named folder under the parent.
func (s *LocalStore) EnsureFolder(ctx context.Context, parentID, name string) (Ref, error) {
	id := joinID(parentID, name)
	path := s.abs(id)
	if info, err := os.Stat(path); err == nil {
		if !info.IsDir() {
			return Ref{}, fmt.Errorf("%s exists and is not a folder", id)
		}
		return s.ref(id), nil
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return Ref{}, fmt.Errorf("failed to create folder %s: %w", id, err)
	}
	s.logger.Debug("folder created", zap.String("id", id))
	return s.ref(id), nil
}

// CreateDocument writes the body as a markdown document under the parent.
func (s *LocalStore) CreateDocument(ctx context.Context, parentID, title, body string) (Ref, error) {
	name := slugify(title)
	if name == "" {
		name = "document"
	}
	return s.CreateFile(ctx, parentID, name+".md", "text/markdown", []byte(body))
}

// ExportDocument returns the document's bytes. Format is accepted for
// interface parity; the local store keeps one rendition.
func (s *LocalStore) ExportDocument(ctx context.Context, id, format string) ([]byte, error) {
	data, err := os.ReadFile(s.abs(id))
	if err != nil {
		return nil, fmt.Errorf("failed to export %s: %w", id, err)
	}
	return data, nil
}

// CreateFile stores raw bytes under the parent.
func (s *LocalStore) CreateFile(ctx context.Context, parentID, name, mime string, data []byte) (Ref, error) {
	id := joinID(parentID, name)
	path := s.abs(id)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return Ref{}, fmt.Errorf("failed to create parent of %s: %w", id, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return Ref{}, fmt.Errorf("failed to write %s: %w", id, err)
	}
	return s.ref(id), nil
}

// CopyFile copies an object to a new name under the parent.
func (s *LocalStore) CopyFile(ctx context.Context, id, newName, parentID string) (Ref, error) {
	data, err := os.ReadFile(s.abs(id))
	if err != nil {
		return Ref{}, fmt.Errorf("failed to read %s: %w", id, err)
	}
	return s.CreateFile(ctx, parentID, newName, "", data)
}

// List returns refs under the parent whose names contain query.
func (s *LocalStore) List(ctx context.Context, parentID, query string) ([]Ref, error) {
	entries, err := os.ReadDir(s.abs(parentID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list %s: %w", parentID, err)
	}

	var refs []Ref
	for _, e := range entries {
		if query != "" && !strings.Contains(strings.ToLower(e.Name()), strings.ToLower(query)) {
			continue
		}
		refs = append(refs, s.ref(joinID(parentID, e.Name())))
	}
	return refs, nil
}

func joinID(parentID, name string) string {
	if parentID == "" {
		return name
	}
	return parentID + "/" + name
}
