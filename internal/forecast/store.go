package forecast

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"github.com/yungbote/remission-backend/internal/platform/gcp"
)

var ErrModelNotFound = errors.New("forecast: model not found")

var modelNameRe = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,63}$`)

type ModelStore interface {
	Save(ctx context.Context, name string, m *Model) error
	Load(ctx context.Context, name string) (*Model, error)
}

func modelFile(name string) (string, error) {
	if !modelNameRe.MatchString(name) {
		return "", fmt.Errorf("forecast: invalid model name %q", name)
	}
	return name + ".json", nil
}

func encodeModel(w io.Writer, m *Model) error {
	enc := json.NewEncoder(w)
	return enc.Encode(m)
}

func decodeModel(r io.Reader) (*Model, error) {
	var m Model
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("forecast: decode model: %w", err)
	}
	if err := m.check(); err != nil {
		return nil, err
	}
	return &m, nil
}

// FileStore keeps models as JSON files under Dir.
type FileStore struct {
	Dir string
}

func (s FileStore) Save(ctx context.Context, name string, m *Model) error {
	file, err := modelFile(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return err
	}
	// Write then rename so readers never see a partial model.
	tmp, err := os.CreateTemp(s.Dir, file+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if err := encodeModel(tmp, m); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(s.Dir, file))
}

func (s FileStore) Load(ctx context.Context, name string) (*Model, error) {
	file, err := modelFile(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.Dir, file))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decodeModel(f)
}

// BucketStore keeps models in object storage.
type BucketStore struct {
	Bucket gcp.ArtifactBucket
}

func (s BucketStore) Save(ctx context.Context, name string, m *Model) error {
	file, err := modelFile(name)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := encodeModel(&buf, m); err != nil {
		return err
	}
	return s.Bucket.Upload(ctx, file, &buf)
}

func (s BucketStore) Load(ctx context.Context, name string) (*Model, error) {
	file, err := modelFile(name)
	if err != nil {
		return nil, err
	}
	rc, err := s.Bucket.Download(ctx, file)
	if errors.Is(err, gcp.ErrObjectNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return decodeModel(rc)
}
