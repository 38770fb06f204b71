package parser

import (
	"context"
	"io"
)

// MemoryFile is an in-memory log file.
type MemoryFile struct {
	Name  string
	Lines []string
}

// MemorySource implements LogSource over in-memory files, delivered in the
// order they were added.
type MemorySource struct {
	files   []MemoryFile
	fileIdx int
	lineIdx int
}

// NewMemorySource creates a LogSource over the given files.
func NewMemorySource(files ...MemoryFile) *MemorySource {
	return &MemorySource{files: files}
}

// Add appends a file to the source.
func (s *MemorySource) Add(name string, lines ...string) *MemorySource {
	s.files = append(s.files, MemoryFile{Name: name, Lines: lines})
	return s
}

// Next returns the next line. Returns io.EOF when all files are exhausted.
func (s *MemorySource) Next(ctx context.Context) (*LogLine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for s.fileIdx < len(s.files) {
		f := s.files[s.fileIdx]
		if s.lineIdx < len(f.Lines) {
			s.lineIdx++
			return &LogLine{
				Content: f.Lines[s.lineIdx-1],
				Source:  f.Name,
				LineNum: s.lineIdx,
			}, nil
		}
		s.fileIdx++
		s.lineIdx = 0
	}

	return nil, io.EOF
}

// Close is a no-op.
func (s *MemorySource) Close() error {
	return nil
}
