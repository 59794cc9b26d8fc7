package archive

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestLocalFS_ImplementsStorage(t *testing.T) {
	var _ Storage = (*LocalFS)(nil)
}

func newLocalFS(t *testing.T) *LocalFS {
	t.Helper()
	fs, err := NewLocalFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalFS: %v", err)
	}
	return fs
}

func TestLocalFS_WriteRead(t *testing.T) {
	fs := newLocalFS(t)
	ctx := context.Background()
	data := []byte(`{"total_value":2100}`)

	if err := fs.Write(ctx, "analysis/run-1/analysis.json", data); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := fs.Read(ctx, "analysis/run-1/analysis.json")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("got %q, want %q", got, data)
	}
}

func TestLocalFS_ReadMissing(t *testing.T) {
	fs := newLocalFS(t)
	_, err := fs.Read(context.Background(), "nope.json")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLocalFS_Exists(t *testing.T) {
	fs := newLocalFS(t)
	ctx := context.Background()

	exists, _ := fs.Exists(ctx, "nonexistent.txt")
	if exists {
		t.Error("expected false for nonexistent file")
	}

	fs.Write(ctx, "exists.txt", []byte("data"))
	exists, _ = fs.Exists(ctx, "exists.txt")
	if !exists {
		t.Error("expected true for existing file")
	}
}

func TestLocalFS_List(t *testing.T) {
	fs := newLocalFS(t)
	ctx := context.Background()

	fs.Write(ctx, "analysis/run-1/MSFT.csv", []byte("b"))
	fs.Write(ctx, "analysis/run-1/AAPL.csv", []byte("a"))
	fs.Write(ctx, "analysis/run-2/analysis.json", []byte("c"))

	paths, err := fs.List(ctx, "analysis/run-1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	want := []string{"analysis/run-1/AAPL.csv", "analysis/run-1/MSFT.csv"}
	if !reflect.DeepEqual(paths, want) {
		t.Errorf("List = %v, want %v", paths, want)
	}

	empty, err := fs.List(ctx, "missing")
	if err != nil || len(empty) != 0 {
		t.Errorf("expected empty list for missing prefix, got %v, %v", empty, err)
	}
}

func TestLocalFS_Delete(t *testing.T) {
	fs := newLocalFS(t)
	ctx := context.Background()

	fs.Write(ctx, "delete.txt", []byte("data"))
	if err := fs.Delete(ctx, "delete.txt"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	exists, _ := fs.Exists(ctx, "delete.txt")
	if exists {
		t.Error("file should be deleted")
	}
}

func TestLocalFS_RejectsEscape(t *testing.T) {
	fs := newLocalFS(t)
	if err := fs.Write(context.Background(), "../outside.txt", []byte("x")); err == nil {
		t.Error("expected error for path outside base")
	}
}

func TestNew(t *testing.T) {
	s, err := New(Config{Type: "localfs", Path: t.TempDir()})
	if err != nil {
		t.Fatalf("New localfs: %v", err)
	}
	if _, ok := s.(*LocalFS); !ok {
		t.Errorf("expected *LocalFS, got %T", s)
	}

	s, err = New(Config{Type: "s3", S3: S3Config{Bucket: "reports", Region: "us-east-1"}})
	if err != nil {
		t.Fatalf("New s3: %v", err)
	}
	if _, ok := s.(*S3Storage); !ok {
		t.Errorf("expected *S3Storage, got %T", s)
	}

	if _, err := New(Config{Type: "ftp"}); err == nil {
		t.Error("expected error for unknown type")
	}
}
