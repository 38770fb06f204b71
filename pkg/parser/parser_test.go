package parser

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readAll(t *testing.T, source LogSource) []*LogLine {
	t.Helper()
	ctx := context.Background()
	var lines []*LogLine
	for {
		line, err := source.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		lines = append(lines, line)
	}
	return lines
}

func TestFileSource_Next(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "2024.3.9.log")
	content := "08:00:00:First line\nnot an event\n08:00:02:Third line\n"
	if err := os.WriteFile(logFile, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	source := NewFileSource([]string{logFile}, EncodingLatin1)
	defer source.Close()

	lines := readAll(t, source)

	// Raw lines are all delivered; event filtering happens downstream
	if len(lines) != 3 {
		t.Fatalf("Got %d lines, want 3", len(lines))
	}
	if lines[0].LineNum != 1 {
		t.Errorf("LineNum = %d, want 1", lines[0].LineNum)
	}
	if lines[0].Source != logFile {
		t.Errorf("Source = %q, want %q", lines[0].Source, logFile)
	}
	if lines[2].Content != "08:00:02:Third line" {
		t.Errorf("Content = %q", lines[2].Content)
	}
}

func TestFileSource_Latin1(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "2024.3.9.log")
	// 0xB0 is the degree sign in latin-1 and an invalid UTF-8 start byte
	content := []byte("08:00:00:Temp 25\xb0C\n")
	if err := os.WriteFile(logFile, content, 0644); err != nil {
		t.Fatal(err)
	}

	source := NewFileSource([]string{logFile}, EncodingLatin1)
	defer source.Close()

	lines := readAll(t, source)
	if len(lines) != 1 {
		t.Fatalf("Got %d lines, want 1", len(lines))
	}
	if lines[0].Content != "08:00:00:Temp 25°C" {
		t.Errorf("Content = %q, want decoded degree sign", lines[0].Content)
	}
}

func TestFileSource_UTF8ReplacesInvalidBytes(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "2024.3.9.log")
	content := []byte("08:00:00:bad \xff byte\n08:00:01:next\n")
	if err := os.WriteFile(logFile, content, 0644); err != nil {
		t.Fatal(err)
	}

	source := NewFileSource([]string{logFile}, EncodingUTF8)
	defer source.Close()

	lines := readAll(t, source)
	if len(lines) != 2 {
		t.Fatalf("Got %d lines, want 2", len(lines))
	}
	if !strings.Contains(lines[0].Content, "�") {
		t.Errorf("Content = %q, want replacement character", lines[0].Content)
	}
}

func TestFileSource_MultipleFiles(t *testing.T) {
	dir := t.TempDir()

	files := []struct {
		name    string
		content string
	}{
		{"2024.3.9.log", "08:00:00:File A\n"},
		{"2024.3.10.log", ""},
		{"2024.3.11.log", "08:00:01:File C\n"},
	}

	var paths []string
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if err := os.WriteFile(path, []byte(f.content), 0644); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, path)
	}

	source := NewFileSource(paths, "")
	defer source.Close()

	lines := readAll(t, source)
	if len(lines) != 2 {
		t.Fatalf("Got %d lines, want 2", len(lines))
	}
	if lines[1].Source != paths[2] {
		t.Errorf("Source = %q, want %q", lines[1].Source, paths[2])
	}
	if lines[1].LineNum != 1 {
		t.Errorf("LineNum = %d, want 1 (reset per file)", lines[1].LineNum)
	}
}

func TestFileSource_FileNotFound(t *testing.T) {
	source := NewFileSource([]string{"/nonexistent/2024.1.1.log"}, "")
	defer source.Close()

	_, err := source.Next(context.Background())
	if err == nil || err == io.EOF {
		t.Errorf("Next() error = %v, want open error", err)
	}
}

func TestFileSource_UnknownEncoding(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "2024.3.9.log")
	if err := os.WriteFile(logFile, []byte("08:00:00:x\n"), 0644); err != nil {
		t.Fatal(err)
	}

	source := NewFileSource([]string{logFile}, "ebcdic")
	defer source.Close()

	if _, err := source.Next(context.Background()); err == nil {
		t.Error("Next() expected error for unknown encoding")
	}
}

func TestFileSource_ContextCancellation(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "2024.3.9.log")
	if err := os.WriteFile(logFile, []byte("08:00:00:line\n"), 0644); err != nil {
		t.Fatal(err)
	}

	source := NewFileSource([]string{logFile}, "")
	defer source.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := source.Next(ctx)
	if err != context.Canceled {
		t.Errorf("Next() error = %v, want context.Canceled", err)
	}
}

func TestMemorySource_Next(t *testing.T) {
	source := NewMemorySource().
		Add("2024.3.9", "08:00:00:a", "08:00:01:b").
		Add("2024.3.10").
		Add("2024.3.11", "08:00:00:c")

	lines := readAll(t, source)
	if len(lines) != 3 {
		t.Fatalf("Got %d lines, want 3", len(lines))
	}
	if lines[2].Source != "2024.3.11" || lines[2].LineNum != 1 {
		t.Errorf("line = %+v, want 2024.3.11:1", lines[2])
	}
	if err := source.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
