package utils

import (
	"os"
	"path/filepath"
	"testing"

	"rps-arena/models"
)

func TestRevealStoreRoundTrip(t *testing.T) {
	store, err := NewRevealStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewRevealStore: %v", err)
	}

	pc := &models.PendingCommitment{
		RoundID:    7,
		Choice:     models.ChoiceScissors,
		Nonce:      "987654321",
		Account:    "0x1111111111111111111111111111111111111111",
		CommitHash: "0xab",
	}
	if err := store.Save(pc); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, found, err := store.Load(7)
	if err != nil || !found {
		t.Fatalf("Load: found=%v err=%v", found, err)
	}
	if got.RoundID != pc.RoundID || got.Choice != pc.Choice || got.Nonce != pc.Nonce {
		t.Errorf("loaded commitment mismatch: %+v", got)
	}

	if err := store.Delete(7); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, found, _ := store.Load(7); found {
		t.Error("commitment should be gone after Delete")
	}
	if err := store.Delete(7); err != nil {
		t.Errorf("Delete of missing file must be a no-op, got %v", err)
	}
}

func TestRevealStoreListSkipsCorruptFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewRevealStore(dir)
	if err != nil {
		t.Fatalf("NewRevealStore: %v", err)
	}

	if err := store.Save(&models.PendingCommitment{RoundID: 1}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Save(&models.PendingCommitment{RoundID: 2}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "reveal_3.json"), []byte("{not json"), 0o600); err != nil {
		t.Fatalf("writing corrupt file: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "unrelated.txt"), []byte("x"), 0o600); err != nil {
		t.Fatalf("writing unrelated file: %v", err)
	}

	out, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("List returned %d entries, want 2", len(out))
	}
}
