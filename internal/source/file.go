package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

// File reads an energy rows payload from disk on every fetch.
type File struct {
	path   string
	logger *slog.Logger
}

// NewFile creates a file source for path.
func NewFile(path string, logger *slog.Logger) *File {
	return &File{path: path, logger: logger}
}

// Name identifies the source in logs, metrics and events.
func (f *File) Name() string {
	return "file"
}

// Path returns the watched file.
func (f *File) Path() string {
	return f.path
}

// Fetch parses the current file contents.
func (f *File) Fetch(ctx context.Context) ([]Reading, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows file: %w", err)
	}
	return ParseRows(data, f.logger)
}
