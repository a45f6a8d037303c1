package workspace

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocal(t *testing.T) *LocalStore {
	t.Helper()
	s, err := NewLocalStore(t.TempDir(), nil)
	require.NoError(t, err)
	return s
}

func TestIdentity(t *testing.T) {
	day := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, "2026-03-15-maria-garcia", Identity("Maria.Garcia@example.com", day))
	assert.Equal(t, "2026-03-15-customer", Identity("", day))
	assert.Equal(t, "2026-03-15-customer", Identity("@example.com", day))
}

func TestEnsureFolder_Idempotent(t *testing.T) {
	s := newLocal(t)
	ctx := context.Background()

	first, err := s.EnsureFolder(ctx, "", "2026-03-15-maria")
	require.NoError(t, err)

	second, err := s.EnsureFolder(ctx, "", "2026-03-15-maria")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "repeated calls resolve the same folder")
	assert.Equal(t, first.URL, second.URL)
}

func TestEnsureFolder_Nested(t *testing.T) {
	s := newLocal(t)
	ctx := context.Background()

	parent, err := s.EnsureFolder(ctx, "", "order")
	require.NoError(t, err)

	child, err := s.EnsureFolder(ctx, parent.ID, "icons")
	require.NoError(t, err)
	assert.Equal(t, "order/icons", child.ID)
}

func TestCreateDocumentAndExport(t *testing.T) {
	s := newLocal(t)
	ctx := context.Background()

	folder, err := s.EnsureFolder(ctx, "", "order")
	require.NoError(t, err)

	doc, err := s.CreateDocument(ctx, folder.ID, "Routine Blueprint", "Start slow.")
	require.NoError(t, err)
	assert.Contains(t, doc.URL, "file://")

	data, err := s.ExportDocument(ctx, doc.ID, "md")
	require.NoError(t, err)
	assert.Contains(t, string(data), "Start slow.")
}

func TestCreateFileAndList(t *testing.T) {
	s := newLocal(t)
	ctx := context.Background()

	folder, err := s.EnsureFolder(ctx, "", "order")
	require.NoError(t, err)

	_, err = s.CreateFile(ctx, folder.ID, "wake-up.json", "application/json", []byte(`{}`))
	require.NoError(t, err)
	_, err = s.CreateFile(ctx, folder.ID, "meal-time.json", "application/json", []byte(`{}`))
	require.NoError(t, err)

	all, err := s.List(ctx, folder.ID, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	matched, err := s.List(ctx, folder.ID, "wake")
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, "order/wake-up.json", matched[0].ID)
}

func TestCopyFile(t *testing.T) {
	s := newLocal(t)
	ctx := context.Background()

	src, err := s.EnsureFolder(ctx, "", "src")
	require.NoError(t, err)
	dst, err := s.EnsureFolder(ctx, "", "dst")
	require.NoError(t, err)

	orig, err := s.CreateFile(ctx, src.ID, "a.txt", "text/plain", []byte("hello"))
	require.NoError(t, err)

	copied, err := s.CopyFile(ctx, orig.ID, "b.txt", dst.ID)
	require.NoError(t, err)
	assert.Equal(t, "dst/b.txt", copied.ID)

	data, err := s.ExportDocument(ctx, copied.ID, "txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}
