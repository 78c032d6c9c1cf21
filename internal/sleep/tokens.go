package sleep

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// FileTokenStore persists per-source OAuth tokens in a single YAML file.
// The journal is single-user, so a file beats a credential service here;
// the file is created with owner-only permissions.
type FileTokenStore struct {
	path string
	mu   sync.Mutex
}

func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: os.ExpandEnv(path)}
}

func (store *FileTokenStore) Load(source string) (*Tokens, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	all, err := store.read()
	if err != nil {
		return nil, err
	}
	tokens, ok := all[source]
	if !ok {
		return nil, nil
	}
	return &tokens, nil
}

func (store *FileTokenStore) Save(source string, tokens Tokens) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	all, err := store.read()
	if err != nil {
		return err
	}
	all[source] = tokens
	return store.write(all)
}

// Delete removes a source's tokens. Deleting a source that was never
// authenticated is a no-op.
func (store *FileTokenStore) Delete(source string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	all, err := store.read()
	if err != nil {
		return err
	}
	if _, ok := all[source]; !ok {
		return nil
	}
	delete(all, source)
	return store.write(all)
}

func (store *FileTokenStore) read() (map[string]Tokens, error) {
	contents, err := os.ReadFile(store.path)
	if os.IsNotExist(err) {
		return map[string]Tokens{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("os.ReadFile(%s) > %w", store.path, err)
	}

	all := map[string]Tokens{}
	if err := yaml.Unmarshal(contents, &all); err != nil {
		return nil, fmt.Errorf("yaml.Unmarshal(%s) > %w", store.path, err)
	}
	return all, nil
}

func (store *FileTokenStore) write(all map[string]Tokens) error {
	contents, err := yaml.Marshal(all)
	if err != nil {
		return fmt.Errorf("yaml.Marshal > %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(store.path), 0o700); err != nil {
		return fmt.Errorf("os.MkdirAll(%s) > %w", filepath.Dir(store.path), err)
	}
	if err := os.WriteFile(store.path, contents, 0o600); err != nil {
		return fmt.Errorf("os.WriteFile(%s) > %w", store.path, err)
	}
	return nil
}
