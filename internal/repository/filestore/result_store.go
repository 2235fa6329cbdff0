package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"stats-service/internal/entity"
)

// ResultStore keeps one JSON file per job under dir: <dir>/<id>.json.
// Writes go through a uniquely named temp file and a rename, so a reader
// sees either no file or the complete result.
type ResultStore struct {
	dir string
}

func NewResultStore(dir string) (*ResultStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create results dir: %w", err)
	}
	return &ResultStore{dir: dir}, nil
}

func (s *ResultStore) Dir() string { return s.dir }

func (s *ResultStore) path(id entity.JobID) string {
	return filepath.Join(s.dir, id.String()+".json")
}

func (s *ResultStore) Put(ctx context.Context, id entity.JobID, result any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result %d: %w", id, err)
	}

	tmp := filepath.Join(s.dir, "."+id.String()+"."+uuid.NewString()+".tmp")
	if err := writeFileSync(tmp, data); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write result %d: %w", id, err)
	}
	if err := os.Rename(tmp, s.path(id)); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("commit result %d: %w", id, err)
	}
	return nil
}

func (s *ResultStore) Get(ctx context.Context, id entity.JobID) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, entity.ErrNotFound
		}
		return nil, fmt.Errorf("read result %d: %w", id, err)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("read result %d: corrupt json", id)
	}
	return json.RawMessage(data), nil
}

func writeFileSync(name string, data []byte) error {
	f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
