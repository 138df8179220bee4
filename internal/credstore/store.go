package credstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"stream-history-client/internal/models"
)

// FileStore persists the identity and its opaque backend token as a JSON
// file with owner-only permissions. Logout removes the file entirely.
type FileStore struct {
	path string
}

// persisted is the on-disk shape. The token is opaque to the client; it
// is stored and replayed verbatim.
type persisted struct {
	User  models.Identity `json:"user"`
	Token string          `json:"token"`
}

// NewFileStore creates a store rooted at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultPath places the credential file under the user config dir,
// falling back to the working directory when none is available.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".stream-history-credentials.json"
	}
	return filepath.Join(dir, "stream-history", "credentials.json")
}

// Save writes the identity and token, creating parent directories as
// needed. Guest identities are never persisted.
func (s *FileStore) Save(identity *models.Identity, token string) error {
	if identity == nil || identity.Guest {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create credential directory: %w", err)
	}
	data, err := json.Marshal(persisted{User: *identity, Token: token})
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	return nil
}

// Load reads the persisted identity and token. A missing file is not an
// error: it returns (nil, "", nil).
func (s *FileStore) Load() (*models.Identity, string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", nil
		}
		return nil, "", fmt.Errorf("failed to read credentials: %w", err)
	}
	var p persisted
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, "", fmt.Errorf("failed to parse credentials: %w", err)
	}
	if p.User.DisplayName == "" {
		return nil, "", nil
	}
	identity := p.User
	return &identity, p.Token, nil
}

// Clear removes the credential file. Clearing an absent file is a no-op.
func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove credentials: %w", err)
	}
	return nil
}
