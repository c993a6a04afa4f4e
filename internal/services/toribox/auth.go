package toribox

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/toribox/toriadmin/internal/config"
)

// ErrNoCredentials is returned when nobody is logged in
var ErrNoCredentials = errors.New("no stored credentials")

// TokenStore defines the interface for storing and retrieving admin credentials
type TokenStore interface {
	GetCredentials() (*Credentials, error)
	SaveCredentials(creds *Credentials) error
	Clear() error
}

// Credentials are the stored admin session
type Credentials struct {
	Token   string    `json:"token"`
	Email   string    `json:"email"`
	SavedAt time.Time `json:"saved_at"`
}

// FileTokenStore implements TokenStore using a JSON file
type FileTokenStore struct {
	filepath string
}

// NewFileTokenStore creates a new file-based token store
func NewFileTokenStore(filepath string) *FileTokenStore {
	return &FileTokenStore{filepath: filepath}
}

// GetCredentials retrieves the credentials from the file
func (s *FileTokenStore) GetCredentials() (*Credentials, error) {
	data, err := os.ReadFile(s.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoCredentials
		}
		return nil, err
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("failed to decode credentials: %w", err)
	}
	if creds.Token == "" {
		return nil, ErrNoCredentials
	}

	return &creds, nil
}

// SaveCredentials saves the credentials to the file
func (s *FileTokenStore) SaveCredentials(creds *Credentials) error {
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.filepath, data, 0600)
}

// Clear removes the stored credentials
func (s *FileTokenStore) Clear() error {
	if err := os.Remove(s.filepath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Token returns the stored admin token, or "" when nobody is logged in
func Token(store TokenStore) string {
	creds, err := store.GetCredentials()
	if err != nil {
		return ""
	}
	return creds.Token
}

// Login checks email and password against the configured admin account and
// stores the configured API token for later commands
func Login(store TokenStore, cfg *config.Config, email, password string) (*Credentials, error) {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil, fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD must be configured")
	}
	if cfg.AdminToken == "" {
		return nil, fmt.Errorf("TORIBOX_ADMIN_TOKEN must be configured")
	}

	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(cfg.AdminEmail)) == 1
	passwordOK := subtle.ConstantTimeCompare([]byte(password), []byte(cfg.AdminPassword)) == 1
	if !emailOK || !passwordOK {
		return nil, fmt.Errorf("invalid login")
	}

	creds := &Credentials{
		Token:   cfg.AdminToken,
		Email:   email,
		SavedAt: time.Now(),
	}
	if err := store.SaveCredentials(creds); err != nil {
		return nil, fmt.Errorf("failed to save credentials: %w", err)
	}

	return creds, nil
}
