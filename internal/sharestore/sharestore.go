// Package sharestore implements the persisted-share schema and storage
// backends of §3 "SavedShare" and §6 "Persistence layout": a SavedShare
// record keyed by a UUIDv4 share_id, a file-backed Store that writes one
// JSON document per share with an atomic write-then-rename, and an
// in-memory Store for tests.
package sharestore

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/mpc-2p/twoparty-mpc/internal/wire"
)

// SavedShare is the persisted record for one party's half of a completed
// Keygen or Rotate, per §3. ShareDetail holds the protocol-specific,
// curve-specific share fields (Party1Share/Party2Share/Share) as raw JSON
// so this package never needs to import the protocol packages.
type SavedShare struct {
	IdentityID      string          `json:"identity_id"`
	ShareID         string          `json:"share_id"`
	Scope           wire.Scope      `json:"scope"`
	Party           uint8           `json:"party"`
	UncompressedPub []byte          `json:"uncompressed_pub"`
	ShareDetail     json.RawMessage `json:"share_detail"`
}

// Store persists and retrieves SavedShares by share_id.
type Store interface {
	Save(share *SavedShare) error
	Load(shareID string) (*SavedShare, error)
	Delete(shareID string) error
}

// NewShareID returns a fresh UUIDv4 in simple form (32 hex digits, no
// hyphens), assigned by Party-2 on Keygen/Rotate completion per §6.
func NewShareID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// ErrNotFound is returned by Load/Delete when no share exists with the
// given ID, surfaced by the session engine as StateNotFound (404).
var ErrNotFound = errors.New("sharestore: share not found")
