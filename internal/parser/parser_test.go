package parser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestChunkContentReconstructsOriginal(t *testing.T) {
	content := strings.Repeat("abcdefghij", 1000) // 10000 chars
	maxChars, overlap := 2048, 32

	chunks := chunkContent(content, maxChars, overlap)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	var rebuilt strings.Builder
	for i, c := range chunks {
		if i == 0 {
			rebuilt.WriteString(c)
			continue
		}
		if len(c) > overlap {
			rebuilt.WriteString(c[overlap:])
		}
	}
	if rebuilt.String() != content {
		t.Fatalf("reconstructed content differs from original (got %d chars, want %d)", rebuilt.Len(), len(content))
	}
}

func TestChunkContentMaxSize(t *testing.T) {
	content := strings.Repeat("x", 5000)
	for _, c := range chunkContent(content, 2048, 32) {
		if len(c) > 2048 {
			t.Fatalf("chunk of %d chars exceeds max size", len(c))
		}
	}
}

func TestChunkContentOverlapShared(t *testing.T) {
	content := strings.Repeat("0123456789", 100)
	maxChars, overlap := 300, 30

	chunks := chunkContent(content, maxChars, overlap)
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1]
		tail := prev[len(prev)-overlap:]
		if !strings.HasPrefix(chunks[i], tail) {
			t.Fatalf("chunk %d does not start with the previous chunk's overlap", i)
		}
	}
}

func TestChunkContentShortInput(t *testing.T) {
	chunks := chunkContent("short text", 2048, 32)
	if len(chunks) != 1 || chunks[0] != "short text" {
		t.Fatalf("expected single chunk with original content, got %v", chunks)
	}
}

func TestChunkContentEmptyInput(t *testing.T) {
	if chunks := chunkContent("", 2048, 32); chunks != nil {
		t.Fatalf("expected no chunks for empty content, got %v", chunks)
	}
}

func TestParseUnsupportedExtension(t *testing.T) {
	_, err := Parse("document.bin", 2048, 32)
	if err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}

func TestParseText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("hello retrieval"), 0o644); err != nil {
		t.Fatal(err)
	}

	chunks, err := Parse(path, 2048, 32)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(chunks) != 1 || chunks[0].Content != "hello retrieval" {
		t.Fatalf("unexpected chunks: %+v", chunks)
	}
	if chunks[0].PageNumber != 1 || chunks[0].ChunkID != 1 {
		t.Fatalf("unexpected chunk metadata: %+v", chunks[0])
	}
}

func TestParseMarkdownStripsFormatting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "guide.md")
	md := "# Title\n\nSome *emphasised* words and a [link](https://example.com).\n"
	if err := os.WriteFile(path, []byte(md), 0o644); err != nil {
		t.Fatal(err)
	}

	chunks, err := Parse(path, 2048, 32)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(chunks) == 0 {
		t.Fatal("expected chunks from markdown")
	}
	text := chunks[0].Content
	for _, marker := range []string{"#", "*", "](", "https://example.com"} {
		if strings.Contains(text, marker) {
			t.Fatalf("markdown marker %q leaked into extracted text: %q", marker, text)
		}
	}
	if !strings.Contains(text, "Title") || !strings.Contains(text, "emphasised") || !strings.Contains(text, "link") {
		t.Fatalf("extracted text missing content: %q", text)
	}
}

func TestSupported(t *testing.T) {
	if !Supported("a.pdf") || !Supported("b.TXT") || Supported("c.bin") {
		t.Fatal("unexpected Supported results")
	}
}
