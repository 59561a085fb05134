package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// LoadContactsFile reads a contact collection from the flat JSON seed format.
// A missing or empty file yields an empty collection. Malformed JSON also
// yields an empty collection with a warning rather than failing, matching
// how the tracking pipeline treats a corrupt snapshot.
func LoadContactsFile(path string, logger *slog.Logger) ([]*Contact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read contacts file: %w", err)
	}

	if strings.TrimSpace(string(data)) == "" {
		return nil, nil
	}

	var contacts []*Contact
	if err := json.Unmarshal(data, &contacts); err != nil {
		if logger != nil {
			logger.Warn("contacts file is malformed, treating as empty", "path", path, "error", err)
		}
		return nil, nil
	}

	for _, c := range contacts {
		if c.Status == "" {
			c.Status = StatusPending
		}
	}

	return contacts, nil
}

// ImportContactsFile loads the seed file and stores every contact.
// Returns the number of contacts imported.
func (s *Store) ImportContactsFile(path string, logger *slog.Logger) (int, error) {
	contacts, err := LoadContactsFile(path, logger)
	if err != nil {
		return 0, err
	}
	if len(contacts) == 0 {
		return 0, nil
	}
	if err := s.PutContacts(contacts); err != nil {
		return 0, err
	}
	return len(contacts), nil
}

// ExportContactsFile writes all contacts to path in the seed format
func (s *Store) ExportContactsFile(path string) (int, error) {
	contacts, err := s.ListContacts()
	if err != nil {
		return 0, err
	}
	if contacts == nil {
		contacts = []*Contact{}
	}

	data, err := json.MarshalIndent(contacts, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("failed to marshal contacts: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return 0, fmt.Errorf("failed to write contacts file: %w", err)
	}
	return len(contacts), nil
}
