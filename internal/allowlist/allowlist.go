package allowlist

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/qrsentry/qrsentry/internal/storage"
)

// entryType keys the storage allowlist. Only payload prefixes exist today.
const entryType = "payload"

// Verifier handles the logic for the allowlist commands and for local trust
// decisions during scanning. Trusted payloads are classified locally and never
// reach the backend.
type Verifier struct {
	Storage *storage.Storage
}

// NewVerifier creates a new Verifier instance.
func NewVerifier(storagePath string) (*Verifier, error) {
	s, err := storage.NewStorage(storagePath)
	if err != nil {
		return nil, err
	}

	return &Verifier{Storage: s}, nil
}

// Trusted reports whether payload matches a known-trusted prefix.
func (v *Verifier) Trusted(payload string) bool {
	if payload == "" {
		return false
	}
	for _, prefix := range v.Storage.Data.Allowlist[entryType] {
		if strings.HasPrefix(payload, prefix) {
			return true
		}
	}
	return false
}

// ViewAllowlist prints the current allowlist to the provided writer.
func (v *Verifier) ViewAllowlist(w io.Writer) {
	entries := v.Storage.Data.Allowlist[entryType]
	if len(entries) == 0 {
		fmt.Fprintln(w, "Allowlist is empty.")
		return
	}

	for _, prefix := range entries {
		fmt.Fprintf(w, "  - %s\n", prefix)
	}
}

// AddToAllowlist adds a trusted payload prefix to the allowlist.
func (v *Verifier) AddToAllowlist(prefix string) error {
	if prefix == "" {
		return fmt.Errorf("allowlist prefix must not be empty")
	}
	logrus.Debugf("Adding to allowlist: prefix=%s", prefix)
	v.Storage.Data.Allowlist[entryType] = append(v.Storage.Data.Allowlist[entryType], prefix)
	return v.Storage.Save()
}

// ResetAllowlist resets the allowlist.
func (v *Verifier) ResetAllowlist() error {
	logrus.Debug("Resetting allowlist")
	v.Storage.Data.Allowlist = make(map[string][]string)
	return v.Storage.Save()
}
