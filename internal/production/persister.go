// Package production provides production integrations: snapshot persistence,
// focus event publishing and chart visualization.
package production

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/comalice/focusx"
)

// Persister saves and restores dispatcher snapshots by ID.
type Persister interface {
	Save(ctx context.Context, snapshot focusx.Snapshot) error
	Load(ctx context.Context, id string) (focusx.Snapshot, error)
}

// JSONPersister is a file-based persister using JSON serialization.
type JSONPersister struct {
	dir string
}

// NewJSONPersister creates a JSONPersister, ensuring the directory exists.
func NewJSONPersister(dir string) (*JSONPersister, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &JSONPersister{dir: dir}, nil
}

func (p *JSONPersister) Save(ctx context.Context, snapshot focusx.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	return writeSnapshot(p.dir, snapshot.ID, ".json", data)
}

func (p *JSONPersister) Load(ctx context.Context, id string) (focusx.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return focusx.Snapshot{}, err
	}
	data, err := readSnapshot(p.dir, id, ".json")
	if err != nil {
		return focusx.Snapshot{}, err
	}

	var snapshot focusx.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return focusx.Snapshot{}, fmt.Errorf("json unmarshal: %w", err)
	}
	snapshot.ID = id // Ensure ID
	return snapshot, nil
}

// YAMLPersister is a file-based persister using YAML serialization.
type YAMLPersister struct {
	dir string
}

// NewYAMLPersister creates a YAMLPersister, ensuring the directory exists.
func NewYAMLPersister(dir string) (*YAMLPersister, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &YAMLPersister{dir: dir}, nil
}

func (p *YAMLPersister) Save(ctx context.Context, snapshot focusx.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := yaml.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("yaml marshal: %w", err)
	}
	return writeSnapshot(p.dir, snapshot.ID, ".yaml", data)
}

func (p *YAMLPersister) Load(ctx context.Context, id string) (focusx.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return focusx.Snapshot{}, err
	}
	data, err := readSnapshot(p.dir, id, ".yaml")
	if err != nil {
		return focusx.Snapshot{}, err
	}

	var snapshot focusx.Snapshot
	if err := yaml.Unmarshal(data, &snapshot); err != nil {
		return focusx.Snapshot{}, fmt.Errorf("yaml unmarshal: %w", err)
	}
	snapshot.ID = id
	if snapshot.Threshold < 0 {
		return focusx.Snapshot{}, fmt.Errorf("snapshot %q: negative threshold %d", id, snapshot.Threshold)
	}
	return snapshot, nil
}

// NewPersister picks a persister by format name ("json" or "yaml").
func NewPersister(format, dir string) (Persister, error) {
	switch format {
	case "json":
		return NewJSONPersister(dir)
	case "yaml", "yml":
		return NewYAMLPersister(dir)
	}
	return nil, fmt.Errorf("unknown snapshot format %q", format)
}

func writeSnapshot(dir, id, ext string, data []byte) error {
	if id == "" {
		return errors.New("snapshot has no ID")
	}
	fn := filepath.Join(dir, id+ext)
	if err := os.WriteFile(fn, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", fn, err)
	}
	return nil
}

func readSnapshot(dir, id, ext string) ([]byte, error) {
	fn := filepath.Join(dir, id+ext)
	data, err := os.ReadFile(fn)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("snapshot %q: %w", id, os.ErrNotExist)
		}
		return nil, fmt.Errorf("read %s: %w", fn, err)
	}
	return data, nil
}
