package dataset

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/soocke/annotator-go/domain/annotation"
)

// LabelStore reads and writes per-image label files.
type LabelStore struct {
	Table  annotation.ClassTable
	logger *slog.Logger
}

// NewLabelStore returns a store using table for class ids.
func NewLabelStore(table annotation.ClassTable, logger *slog.Logger) *LabelStore {
	return &LabelStore{Table: table, logger: logger}
}

// ReadLabelFile returns the raw label text; a missing file wraps ErrMissingLabelFile.
func ReadLabelFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrMissingLabelFile, path)
		}
		return "", err
	}
	return string(b), nil
}

// Load returns the AnnotationSet of an image. A missing label file yields an
// empty set. Malformed lines are skipped and returned as warnings.
func (s *LabelStore) Load(imagePath string) (*annotation.AnnotationSet, []error, error) {
	path := LabelPath(imagePath)
	text, err := ReadLabelFile(path)
	if err != nil {
		if errors.Is(err, ErrMissingLabelFile) {
			return annotation.NewAnnotationSet(), nil, nil
		}
		return annotation.NewAnnotationSet(), nil, err
	}
	set, warnings := annotation.Deserialize(text, s.Table)
	if s.logger != nil {
		for _, w := range warnings {
			s.logger.Warn("label line skipped", "file", path, "error", w)
		}
	}
	return set, warnings, nil
}

// Save writes the set next to the image's label path, creating the labels
// folder when needed. The file is replaced atomically.
func (s *LabelStore) Save(imagePath string, set *annotation.AnnotationSet) error {
	path := LabelPath(imagePath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrDatasetRoot, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".label-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatasetRoot, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(annotation.Serialize(set, s.Table)); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: %v", ErrDatasetRoot, err)
	}
	set.MarkClean()
	if s.logger != nil {
		s.logger.Debug("labels saved", "file", path, "boxes", set.Len())
	}
	return nil
}
