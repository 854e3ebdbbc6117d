package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/qrsentry/qrsentry/internal/validate"
)

// Record is one classified scan persisted to disk.
type Record struct {
	Payload   string    `json:"payload"`
	Message   string    `json:"message"`
	ScannedAt time.Time `json:"scanned_at"`
}

// Data represents the structure of the storage file.
type Data struct {
	History []Record `json:"history,omitempty"`
	// Allowlist maps an entry type (currently only "payload") to trusted
	// payload prefixes that skip remote classification.
	Allowlist map[string][]string `json:"allowlist"`
	HostUUID  string              `json:"host_uuid,omitempty" validate:"omitempty,uuid4"`
}

// Storage handles the loading and saving of the storage file.
type Storage struct {
	Path string `validate:"required,filepath"`
	Data Data
}

// NewStorage creates a new Storage instance.
func NewStorage(path string) (*Storage, error) {
	expandedPath, err := expandTilde(path)
	if err != nil {
		return nil, err
	}

	s := &Storage{
		Path: expandedPath,
		Data: Data{
			Allowlist: make(map[string][]string),
		},
	}

	if err := s.Load(); err != nil {
		// If the file doesn't exist, we can ignore the error.
		if !os.IsNotExist(err) {
			return nil, err
		}
	}

	// Ensure HostUUID present so backend requests carry a stable identity.
	if s.Data.HostUUID == "" {
		s.Data.HostUUID = uuid.NewString()
	}

	return s, nil
}

// NewOrExistingStorage returns existing storage if the file exists, or creates a new one otherwise.
// When creating a new storage, it writes the initial structure to disk immediately.
func NewOrExistingStorage(path string) (*Storage, error) {
	expandedPath, err := expandTilde(path)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(expandedPath); err == nil {
		return NewStorage(path)
	} else if os.IsNotExist(err) {
		s, err := NewStorage(path)
		if err != nil {
			return nil, err
		}
		// Persist initial storage (history scaffold and identity) to disk.
		if err := s.Save(); err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, err
}

func (s *Storage) Load() error {
	logrus.Debug("Loading storage file from: ", s.Path)
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, &s.Data); err != nil {
		return err
	}
	if s.Data.Allowlist == nil {
		s.Data.Allowlist = make(map[string][]string)
	}

	// Validate loaded data and self-heal when possible.
	if err := validate.Struct(s.Data); err != nil {
		if s.Data.HostUUID == "" || validate.Var(s.Data.HostUUID, "uuid4") != nil {
			logrus.Warn("Invalid host_uuid found in storage; regenerating.")
			s.Data.HostUUID = uuid.NewString()
			if err := s.Save(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Save writes the storage data to the file.
func (s *Storage) Save() error {
	logrus.Debug("Saving storage file to: ", s.Path)
	// Ensure parent directory exists.
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s.Data, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.Path, data, 0o600)
}

// AppendRecord records one classified payload in the scan history and persists it.
func (s *Storage) AppendRecord(payload, message string) error {
	s.Data.History = append(s.Data.History, Record{
		Payload:   payload,
		Message:   message,
		ScannedAt: time.Now(),
	})
	return s.Save()
}

// expandTilde expands the tilde in a path to the user's home directory.
func expandTilde(path string) (string, error) {
	if len(path) == 0 || path[0] != '~' {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(home, path[1:]), nil
}
