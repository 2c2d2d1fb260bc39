package types

import (
	"fmt"
	"time"
)

// PlaceholderName synthesizes a display name for entries whose reverse
// name lookup failed or was skipped. An add never fails solely because
// the directory could not produce a name.
func PlaceholderName(userID int64) string {
	return fmt.Sprintf("User_%d", userID)
}

// Sources identify which front-end produced a whitelist entry.
const (
	SourceChat = "chat"
	SourceAPI  = "api"
	SourceWeb  = "web"
)

// ActorAPI is the recorded approver for automated grants that arrive
// without a human actor attached (e.g. a game-server webhook).
const ActorAPI = "API"

// WhitelistEntry is one admitted player. Its presence in the registry is
// the sole truth of admission; there is no separate enabled flag.
type WhitelistEntry struct {
	// UserID is the canonical Roblox user id, the registry key.
	UserID int64 `json:"user_id"`
	// Username is the resolved display name at the time of admission.
	Username string `json:"username"`
	// AddedBy is the approver that granted access, or ActorAPI.
	AddedBy string `json:"added_by"`
	// AddedAt is set when the entry is created and never mutated.
	AddedAt time.Time `json:"added_at"`
	// Source records which front-end produced the entry.
	Source string `json:"source"`
}

// CheckResult is the admission status reported to game servers.
type CheckResult struct {
	Whitelisted bool   `json:"whitelisted"`
	UserID      int64  `json:"user_id"`
	Username    string `json:"username"`
	AddedBy     string `json:"added_by,omitempty"`
}

// VerificationRequest is the transient payload handed to the approval
// notifier. It is consumed once and never stored or retried.
type VerificationRequest struct {
	UserID     int64
	Username   string
	Requester  string
	ProfileURL string
}
