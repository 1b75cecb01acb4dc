package store

import (
	"context"
	"time"
)

const (
	AdminRole      = "admin"
	SuperAdminRole = "superadmin"
)

type Participant struct {
	ID    string `json:"id"`
	Admin string `json:"admin,omitempty"`
}

type GroupMetadata struct {
	ID           string        `json:"id"`
	Subject      string        `json:"subject"`
	Owner        string        `json:"owner,omitempty"`
	Desc         string        `json:"desc,omitempty"`
	Creation     int64         `json:"creation,omitempty"`
	Announce     bool          `json:"announce"`
	Restrict     bool          `json:"restrict"`
	Participants []Participant `json:"participants"`
}

// IsAdmin reports whether jid is an admin or superadmin of the group.
func (g GroupMetadata) IsAdmin(jid string) bool {
	for _, p := range g.Participants {
		if p.ID == jid {
			return p.Admin == AdminRole || p.Admin == SuperAdminRole
		}
	}
	return false
}

func (g GroupMetadata) Admins() []string {
	var out []string
	for _, p := range g.Participants {
		if p.Admin != "" {
			out = append(out, p.ID)
		}
	}
	return out
}

// Clone returns a copy that shares no slices with g.
func (g GroupMetadata) Clone() GroupMetadata {
	g.Participants = append([]Participant(nil), g.Participants...)
	return g
}

type Contact struct {
	ID           string `json:"id"`
	Name         string `json:"name,omitempty"`
	Notify       string `json:"notify,omitempty"`
	VerifiedName string `json:"verifiedName,omitempty"`
}

// DisplayName picks the best known name for the contact.
func (c Contact) DisplayName() string {
	switch {
	case c.Name != "":
		return c.Name
	case c.VerifiedName != "":
		return c.VerifiedName
	default:
		return c.Notify
	}
}

// GroupPatch carries a partial group update. Nil fields are left untouched.
type GroupPatch struct {
	Subject  *string
	Desc     *string
	Announce *bool
	Restrict *bool
	Join     []string
	Leave    []string
	Promote  []string
	Demote   []string
}

type Snapshot struct {
	GroupMetadata map[string]GroupMetadata `json:"groupMetadata"`
	Contacts      map[string]Contact       `json:"contacts"`
	SavedAt       time.Time                `json:"savedAt"`
}

// FetchGroupsFunc loads every group the account participates in.
type FetchGroupsFunc func(ctx context.Context) (map[string]GroupMetadata, error)

type IStore interface {
	Group(jid string) (GroupMetadata, bool)
	Groups() map[string]GroupMetadata
	GroupCount() int
	Contact(jid string) (Contact, bool)
	Contacts() map[string]Contact
	ContactCount() int

	EnsureGroups(ctx context.Context, fetch FetchGroupsFunc) error
	PutGroup(meta GroupMetadata)
	PatchGroup(jid string, patch GroupPatch) bool
	RemoveGroup(jid string)
	PutContact(contact Contact)
	SetContactName(jid, notify string)

	Reset()
	Load(groupPath, contactPath string) error
	Snapshot() Snapshot
}
