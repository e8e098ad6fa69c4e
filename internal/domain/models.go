// Package domain defines the core entities of the request-and-voting bot:
// pending song requests, the artist-to-role mapping used for reminder
// mentions, resolved leaderboard entries, and the SQLite archive model for
// requests that have finished their voting window.
package domain

import (
	"time"

	"golang.org/x/text/cases"
)

// Request is a pending community request awaiting votes. It is the sole
// entity held by the ledger and persisted to the JSON store.
//
// Fields:
//   - Artist: free-form artist name as typed by the submitter. The display
//     form is preserved; case-insensitive matching happens only at role
//     lookup time (see RoleTable.Lookup).
//   - Name: the requested song/item.
//   - Link: opaque URL (Spotify, YouTube, SoundCloud, ...).
//   - MessageID: platform identifier of the vote message. Set exactly once
//     when the message is posted and never changed; it is the identity used
//     to remove requests from the ledger.
//   - CreatedAt: unix seconds at submission time; used solely to decide
//     when the request has matured.
//   - RequestedBy: display identity of the submitter, informational only.
//
// The JSON field names match the pre-existing store format and must stay
// stable for backward compatibility.
type Request struct {
	Artist      string `json:"artist"`
	Name        string `json:"name"`
	Link        string `json:"link"`
	MessageID   string `json:"message_id"`
	CreatedAt   int64  `json:"created_at"`
	RequestedBy string `json:"requested_by"`
}

// Age returns how long the request has been open at the given instant.
func (r Request) Age(now time.Time) time.Duration {
	return time.Duration(now.Unix()-r.CreatedAt) * time.Second
}

// Matured reports whether the request has been open for at least the
// voting window. The boundary is inclusive: a request exactly as old as
// the window is eligible for resolution.
func (r Request) Matured(now time.Time, window time.Duration) bool {
	return r.Age(now) >= window
}

// User identifies the member invoking a command. ID is the platform user
// id (used for mentions), Name the human-readable form stored alongside
// the request.
type User struct {
	ID   string
	Name string
}

// Mention renders the platform mention syntax for the user.
func (u User) Mention() string { return "<@" + u.ID + ">" }

// RoleMention renders the platform mention syntax for a role group id.
func RoleMention(roleID string) string { return "<@&" + roleID + ">" }

// LeaderboardEntry is one row of the post-window vote report: a resolved
// request together with its bias-corrected vote count.
type LeaderboardEntry struct {
	Artist string
	Name   string
	Link   string
	Votes  int
}

// ResolvedRequest is the archive row written when a request finishes its
// voting window. The ledger drops resolved requests; this table keeps the
// history of past leaderboards for auditing.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - MessageID: the vote message id of the original request; indexed so a
//     request can be traced back from its platform message.
//   - Artist / Name / Link / RequestedBy: copied from the request.
//   - Votes: final bias-corrected tally.
//   - SubmittedAt: original creation time of the request.
//   - ResolvedAt: when the sweep resolved it.
type ResolvedRequest struct {
	ID          string    `json:"id"           gorm:"type:char(36);primaryKey"`
	MessageID   string    `json:"message_id"   gorm:"type:varchar(32);not null;index:idx_resolved_message"`
	Artist      string    `json:"artist"       gorm:"type:varchar(255);not null"`
	Name        string    `json:"name"         gorm:"type:varchar(255);not null"`
	Link        string    `json:"link"         gorm:"type:text;not null"`
	RequestedBy string    `json:"requested_by" gorm:"type:varchar(255);not null"`
	Votes       int       `json:"votes"        gorm:"not null"`
	SubmittedAt time.Time `json:"submitted_at"`
	ResolvedAt  time.Time `json:"resolved_at"  gorm:"index"`
}

// TableName returns the database table name for ResolvedRequest.
func (ResolvedRequest) TableName() string { return "resolved_requests" }

// folder performs Unicode-correct case folding for artist keys so that
// "Ken Carson", "ken carson", and "KEN CARSON" all hit the same role.
var folder = cases.Fold()

// FoldArtist normalizes an artist name for role lookup. The folded form is
// never stored or displayed.
func FoldArtist(artist string) string { return folder.String(artist) }

// RoleTable maps recognized artist names (case-folded) to the role-group
// identifier that should be mentioned in vote reminders. Unrecognized
// artists fall back to the "other" group.
type RoleTable struct {
	roles    map[string]string
	fallback string
}

// NewRoleTable builds a RoleTable from a name→roleID map. Keys are folded
// on insertion. fallback is the role id used for unrecognized artists.
func NewRoleTable(roles map[string]string, fallback string) RoleTable {
	folded := make(map[string]string, len(roles))
	for name, id := range roles {
		folded[FoldArtist(name)] = id
	}
	return RoleTable{roles: folded, fallback: fallback}
}

// Lookup returns the role id for an artist, falling back to the default
// group when the artist is not recognized.
func (t RoleTable) Lookup(artist string) string {
	if id, ok := t.roles[FoldArtist(artist)]; ok {
		return id
	}
	return t.fallback
}

// RoleIDs returns every configured role id (fallback included, last),
// in no particular order among the named groups. Used by the reminder
// broadcaster to mention all groups.
func (t RoleTable) RoleIDs() []string {
	ids := make([]string, 0, len(t.roles)+1)
	seen := map[string]struct{}{}
	for _, id := range t.roles {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if _, dup := seen[t.fallback]; !dup && t.fallback != "" {
		ids = append(ids, t.fallback)
	}
	return ids
}
