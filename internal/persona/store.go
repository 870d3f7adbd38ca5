package persona

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Store is the read-only persona store.
type Store interface {
	// Document returns nil and no error when the persona has no document.
	Document(name Name) (*Document, error)
	// Awakening returns an empty string when no script exists.
	Awakening(name Name) (string, error)
	Memory(name Name) (Memory, error)
}

// FileStore reads persona files from a directory:
// <name>_persona.{json,yaml,yml}, <name>_awakening.json and <name>_memory.json.
// yaml.v3 decodes both the JSON and YAML variants.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure persona dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Document(name Name) (*Document, error) {
	for _, ext := range []string{".json", ".yaml", ".yml"} {
		var doc Document
		found, err := s.decode(string(name)+"_persona"+ext, &doc)
		if err != nil {
			return nil, err
		}
		if found {
			return &doc, nil
		}
	}
	return nil, nil
}

func (s *FileStore) Awakening(name Name) (string, error) {
	var data struct {
		Script string `yaml:"awakening_script"`
	}
	if _, err := s.decode(string(name)+"_awakening.json", &data); err != nil {
		return "", err
	}
	return data.Script, nil
}

func (s *FileStore) Memory(name Name) (Memory, error) {
	mem := defaultMemory()
	if _, err := s.decode(string(name)+"_memory.json", &mem); err != nil {
		return defaultMemory(), err
	}
	return mem, nil
}

func (s *FileStore) decode(file string, out any) (bool, error) {
	b, err := os.ReadFile(filepath.Join(s.dir, file))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", file, err)
	}
	if err := yaml.Unmarshal(b, out); err != nil {
		return false, fmt.Errorf("decode %s: %w", file, err)
	}
	return true, nil
}
