// utils/reveal_store.go
package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"rps-arena/models"
)

// RevealStore keeps reveal payloads that could not be handed to the bot relay
// on disk, one JSON file per round (reveal_<id>.json). The payload must
// survive a restart: it is the only copy of the nonce, and without it the
// committed choice can never be revealed.
type RevealStore struct {
	dir string
}

func NewRevealStore(dir string) (*RevealStore, error) {
	if dir == "" {
		dir = "reveals"
	}
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create reveal store dir %s: %w", dir, err)
	}
	return &RevealStore{dir: dir}, nil
}

func (s *RevealStore) path(roundID uint64) string {
	return filepath.Join(s.dir, fmt.Sprintf("reveal_%d.json", roundID))
}

func (s *RevealStore) Save(pc *models.PendingCommitment) error {
	data, err := json.MarshalIndent(pc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path(pc.RoundID), data, 0o600)
}

func (s *RevealStore) Load(roundID uint64) (*models.PendingCommitment, bool, error) {
	data, err := os.ReadFile(s.path(roundID))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var pc models.PendingCommitment
	if err := json.Unmarshal(data, &pc); err != nil {
		return nil, false, err
	}
	return &pc, true, nil
}

func (s *RevealStore) Delete(roundID uint64) error {
	err := os.Remove(s.path(roundID))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// List returns every stored payload, for re-relaying after the bot comes back.
func (s *RevealStore) List() ([]*models.PendingCommitment, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var out []*models.PendingCommitment
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), "reveal_") || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, e.Name()))
		if err != nil {
			return nil, err
		}
		var pc models.PendingCommitment
		if err := json.Unmarshal(data, &pc); err != nil {
			// Corrupt file: skip, don't break the whole listing.
			continue
		}
		out = append(out, &pc)
	}
	return out, nil
}
