package sharestore

import (
	"os"
	"sync"
	"testing"

	"github.com/mpc-2p/twoparty-mpc/internal/wire"
)

func TestNewShareIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewShareID()
		if seen[id] {
			t.Fatalf("NewShareID produced a duplicate: %s", id)
		}
		seen[id] = true
	}
}

func testShare(id string) *SavedShare {
	return &SavedShare{
		IdentityID:      "identity-1",
		ShareID:         id,
		Scope:           wire.ScopeSecp256k1,
		Party:           2,
		UncompressedPub: []byte{0x04, 0x01, 0x02},
		ShareDetail:     []byte(`{"x2":"abc"}`),
	}
}

func TestFileStoreSaveLoadDelete(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	share := testShare(NewShareID())
	if err := fs.Save(share); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := fs.Load(share.ShareID)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.IdentityID != share.IdentityID || loaded.ShareID != share.ShareID {
		t.Fatalf("loaded share does not match saved share: %+v vs %+v", loaded, share)
	}

	if err := fs.Delete(share.ShareID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := fs.Load(share.ShareID); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestFileStoreLoadMissingReturnsErrNotFound(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	if _, err := fs.Load("does-not-exist"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFileStoreSaveRejectsMissingShareID(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	if err := fs.Save(&SavedShare{}); err == nil {
		t.Fatal("expected an error saving a share with an empty ShareID")
	}
}

func TestFileStoreSaveLeavesNoTempFilesBehind(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	share := testShare(NewShareID())
	if err := fs.Save(share); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading dir failed: %v", err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if len(name) >= 4 && name[len(name)-4:] == ".tmp" {
			t.Fatalf("temp file left behind after Save: %s", name)
		}
	}
}

func TestInMemoryStoreSaveLoadDelete(t *testing.T) {
	store := NewInMemoryStore()
	share := testShare(NewShareID())

	if err := store.Save(share); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := store.Load(share.ShareID)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded == share {
		t.Fatal("Load expected to return a defensive copy, not the original pointer")
	}
	if loaded.ShareID != share.ShareID {
		t.Fatal("loaded share ID mismatch")
	}

	if err := store.Delete(share.ShareID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Load(share.ShareID); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestInMemoryStoreConcurrentAccess(t *testing.T) {
	store := NewInMemoryStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := NewShareID()
			share := testShare(id)
			if err := store.Save(share); err != nil {
				t.Errorf("Save failed: %v", err)
				return
			}
			if _, err := store.Load(id); err != nil {
				t.Errorf("Load failed: %v", err)
			}
		}(i)
	}
	wg.Wait()
}
