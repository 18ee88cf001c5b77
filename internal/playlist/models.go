package playlist

import (
	"fmt"
	"strings"
	"time"
)

// Role governs what a member may do with a playlist. It is a closed set:
// anything read from the outside world goes through ParseRole.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleOwner:
		return RoleOwner, nil
	case RoleEditor:
		return RoleEditor, nil
	case RoleViewer:
		return RoleViewer, nil
	}
	return "", fmt.Errorf("invalid role %q", s)
}

func (r Role) rank() int {
	switch r {
	case RoleOwner:
		return 3
	case RoleEditor:
		return 2
	case RoleViewer:
		return 1
	}
	return 0
}

// AtLeast reports whether r grants everything min grants.
func (r Role) AtLeast(min Role) bool {
	return r.rank() >= min.rank()
}

const (
	VisibilityPrivate = "private"
	VisibilityShared  = "shared"
	VisibilityPublic  = "public"
)

func validVisibility(v string) bool {
	return v == VisibilityPrivate || v == VisibilityShared || v == VisibilityPublic
}

// Playlist metadata. Tracks and members are modelled separately.
type Playlist struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Visibility  string    `json:"visibility"` // "private" | "shared" | "public"
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Member is a (user, playlist) pairing with the role that gates operations.
type Member struct {
	UserID   string    `json:"userId"`
	Role     Role      `json:"role"`
	JoinedAt time.Time `json:"joinedAt"`
}

// PlaylistTrack records a catalog track's membership in a playlist.
// Votes is derived from the vote rows, never stored as its own counter.
type PlaylistTrack struct {
	ID           string    `json:"id"`
	PlaylistID   string    `json:"playlistId"`
	TrackID      string    `json:"trackId"`
	Title        string    `json:"title"`
	Artist       string    `json:"artist"`
	Album        string    `json:"album,omitempty"`
	DurationSecs int       `json:"durationSecs"`
	CoverURL     string    `json:"coverUrl,omitempty"`
	AddedBy      string    `json:"addedBy"`
	AddedAt      time.Time `json:"addedAt"`
	Votes        int       `json:"votes"`
	Voted        bool      `json:"voted,omitempty"` // whether the requesting user voted
}

// Invite is a redeemable code granting Role on a playlist. Codes are
// multi-use and do not expire; redeeming never invalidates them.
type Invite struct {
	Code       string    `json:"code"`
	PlaylistID string    `json:"playlistId"`
	Role       Role      `json:"role"` // "editor" | "viewer", never "owner"
	CreatedBy  string    `json:"createdBy"`
	CreatedAt  time.Time `json:"createdAt"`
}
