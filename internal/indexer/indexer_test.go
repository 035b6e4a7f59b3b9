package indexer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/philippgille/chromem-go"
)

type fakeEmbedder struct {
	err   error
	calls int
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []float32{1, 0}, nil
}

type fakeIndex struct {
	docs    []chromem.Document
	addErr  error
	cleared int
}

func (f *fakeIndex) Add(ctx context.Context, docs []chromem.Document) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.docs = append(f.docs, docs...)
	return nil
}

func (f *fakeIndex) Clear(ctx context.Context) error {
	f.cleared++
	f.docs = nil
	return nil
}

func writeUpload(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestIndexFileStoresChunksAndRemovesSource(t *testing.T) {
	embedder := &fakeEmbedder{}
	index := &fakeIndex{}
	ix := New(embedder, index, 2048, 32)

	path := writeUpload(t, "doc.txt", "retrieval augmented generation")
	if err := ix.IndexFile(context.Background(), path); err != nil {
		t.Fatalf("index file: %v", err)
	}

	if len(index.docs) != 1 {
		t.Fatalf("expected 1 stored chunk, got %d", len(index.docs))
	}
	if embedder.calls != 1 {
		t.Fatalf("expected 1 embedding call, got %d", embedder.calls)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("expected uploaded file to be removed on success")
	}
}

func TestIndexFileRemovesSourceOnFailure(t *testing.T) {
	ix := New(&fakeEmbedder{}, &fakeIndex{}, 2048, 32)

	path := writeUpload(t, "doc.bin", "not a supported format")
	err := ix.IndexFile(context.Background(), path)
	if err == nil {
		t.Fatal("expected error for unsupported format")
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Fatal("expected uploaded file to be removed on failure")
	}
}

func TestIndexFileEmbeddingFailure(t *testing.T) {
	index := &fakeIndex{}
	ix := New(&fakeEmbedder{err: errors.New("embedding service down")}, index, 2048, 32)

	path := writeUpload(t, "doc.txt", "some content")
	if err := ix.IndexFile(context.Background(), path); err == nil {
		t.Fatal("expected embedding error to be returned")
	}
	if len(index.docs) != 0 {
		t.Fatal("no chunks should be stored when embedding fails")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("expected uploaded file to be removed despite failure")
	}
}

func TestIndexFileDeterministicIDs(t *testing.T) {
	index := &fakeIndex{}
	ix := New(&fakeEmbedder{}, index, 2048, 32)

	path := writeUpload(t, "report.txt", "stable content")
	if err := ix.IndexFile(context.Background(), path); err != nil {
		t.Fatalf("first index: %v", err)
	}
	first := index.docs[0].ID

	path = writeUpload(t, "report.txt", "stable content")
	if err := ix.IndexFile(context.Background(), path); err != nil {
		t.Fatalf("second index: %v", err)
	}
	second := index.docs[1].ID

	if first != second {
		t.Fatalf("expected identical IDs for re-uploaded file, got %q and %q", first, second)
	}
	if first != "report.txt-p1-c1" {
		t.Fatalf("unexpected chunk ID: %q", first)
	}
}

func TestClearDelegatesToIndex(t *testing.T) {
	index := &fakeIndex{}
	ix := New(&fakeEmbedder{}, index, 2048, 32)

	if err := ix.Clear(context.Background()); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if index.cleared != 1 {
		t.Fatalf("expected 1 clear call, got %d", index.cleared)
	}
}
