package matrix

import (
	"context"

	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/id"
)

const (
	syncFilterID  = "filter_id"
	syncNextBatch = "next_batch"
)

// SyncState stores named sync values per Matrix user. store.Store
// implements it.
type SyncState interface {
	SyncValue(ctx context.Context, userID, name string) (string, error)
	SetSyncValue(ctx context.Context, userID, name, value string) error
}

var _ mautrix.SyncStore = (*SyncPosition)(nil)

// SyncPosition remembers where the /sync stream stopped so that a restart
// does not answer the same report requests twice.
type SyncPosition struct {
	state SyncState
}

// NewSyncPosition returns a mautrix sync store kept in state.
func NewSyncPosition(state SyncState) *SyncPosition {
	return &SyncPosition{state: state}
}

func (p *SyncPosition) SaveFilterID(ctx context.Context, userID id.UserID, filterID string) error {
	return p.state.SetSyncValue(ctx, string(userID), syncFilterID, filterID)
}

func (p *SyncPosition) LoadFilterID(ctx context.Context, userID id.UserID) (string, error) {
	return p.state.SyncValue(ctx, string(userID), syncFilterID)
}

func (p *SyncPosition) SaveNextBatch(ctx context.Context, userID id.UserID, token string) error {
	return p.state.SetSyncValue(ctx, string(userID), syncNextBatch, token)
}

// LoadNextBatch returns "" before the first completed sync.
func (p *SyncPosition) LoadNextBatch(ctx context.Context, userID id.UserID) (string, error) {
	return p.state.SyncValue(ctx, string(userID), syncNextBatch)
}
