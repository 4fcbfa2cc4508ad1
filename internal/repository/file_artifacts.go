package repository

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"StoreMonitor/internal/domain/repository"
)

// FileArtifactStore keeps report files under a single directory. Writes go to
// a temp file that is renamed into place, so readers never see a partial CSV.
type FileArtifactStore struct {
	dir string
}

// NewFileArtifactStore creates a FileArtifactStore rooted at dir, creating dir if needed.
func NewFileArtifactStore(dir string) (*FileArtifactStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}
	return &FileArtifactStore{dir: dir}, nil
}

// ArtifactName is the file name served for a report.
func ArtifactName(reportID string) string {
	return "report_" + reportID + ".csv"
}

func (s *FileArtifactStore) Save(_ context.Context, reportID string, data []byte) (string, error) {
	if reportID == "" || strings.ContainsAny(reportID, `/\`) {
		return "", fmt.Errorf("invalid report id %q", reportID)
	}

	tmp, err := os.CreateTemp(s.dir, ".report-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp artifact: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close artifact: %w", err)
	}

	dst := filepath.Join(s.dir, ArtifactName(reportID))
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", fmt.Errorf("publish artifact: %w", err)
	}
	return dst, nil
}

func (s *FileArtifactStore) Open(_ context.Context, location string) (io.ReadCloser, error) {
	clean := filepath.Clean(location)
	if filepath.Dir(clean) != filepath.Clean(s.dir) {
		return nil, fmt.Errorf("artifact %q is outside %s", location, s.dir)
	}
	f, err := os.Open(clean)
	if err != nil {
		return nil, fmt.Errorf("open artifact: %w", err)
	}
	return f, nil
}

var _ repository.ArtifactStore = (*FileArtifactStore)(nil)
