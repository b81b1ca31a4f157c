package models

import "time"

// Notice kinds.
const (
	NoticeCacheReset           = "CACHE_RESET"
	NoticePrefsReset           = "PREFS_RESET"
	NoticeConnectivityLost     = "CONNECTIVITY_LOST"
	NoticeConnectivityRestored = "CONNECTIVITY_RESTORED"
	NoticePurge                = "PURGE"
)

// Notice is a user-visible record of a degraded or destructive event.
type Notice struct {
	ID         string    `json:"id"`
	OccurredAt time.Time `json:"occurred_at"`
	Kind       string    `json:"kind"`    // CACHE_RESET | PREFS_RESET | CONNECTIVITY_LOST | ...
	Message    string    `json:"message"` // human-readable
	Metadata   any       `json:"metadata,omitempty"`
}
