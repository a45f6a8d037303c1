// Package workspace abstracts the object/document store that holds the
// produced artifacts. The contract is find-by-name-under-parent else
// create, which is what makes whole-pipeline retries safe against
// duplicate containers.
package workspace

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Ref identifies a stored object.
type Ref struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Store is the object/document store collaborator.
type Store interface {
	// EnsureFolder returns the folder named name under parentID,
	// creating it when absent. Repeated calls return the same identity.
	EnsureFolder(ctx context.Context, parentID, name string) (Ref, error)

	// CreateDocument creates a titled document with the given body.
	CreateDocument(ctx context.Context, parentID, title, body string) (Ref, error)

	// ExportDocument exports a document's bytes in the given format.
	ExportDocument(ctx context.Context, id, format string) ([]byte, error)

	// CreateFile stores raw bytes under the parent.
	CreateFile(ctx context.Context, parentID, name, mime string, data []byte) (Ref, error)

	// CopyFile copies an existing object to a new name under the parent.
	CopyFile(ctx context.Context, id, newName, parentID string) (Ref, error)

	// List returns object refs under the parent whose names contain
	// query. Empty query lists everything.
	List(ctx context.Context, parentID, query string) ([]Ref, error)
}

// Identity derives the deterministic per-order workspace name, scoped by
// customer and date so a retry re-derives the same folder instead of
// creating a duplicate namespace.
func Identity(customerEmail string, day time.Time) string {
	local := customerEmail
	if at := strings.Index(local, "@"); at >= 0 {
		local = local[:at]
	}
	slug := slugify(local)
	if slug == "" {
		slug = "customer"
	}
	return fmt.Sprintf("%s-%s", day.Format("2006-01-02"), slug)
}

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	lastDash := true
	for _, r := range s {
		switch {
		case 'a' <= r && r <= 'z' || '0' <= r && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}
	return strings.Trim(b.String(), "-")
}
