package model

import "time"

type WorkspaceType string

const (
	WorkspacePersonal WorkspaceType = "Personal"
	WorkspaceTeam     WorkspaceType = "Team"
)

type Role string

const (
	RoleOwner  Role = "Owner"
	RoleAdmin  Role = "Admin"
	RoleMember Role = "Member"
)

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "Pending"
	InvitationAccepted InvitationStatus = "Accepted"
	InvitationRejected InvitationStatus = "Rejected"
	InvitationRevoked  InvitationStatus = "Revoked"
)

type NoteType string

const (
	NoteMarkdown NoteType = "Markdown"
	NoteCanvas   NoteType = "Canvas"
	NoteMindMap  NoteType = "MindMap"
	NoteRichText NoteType = "RichText"
)

type User struct {
	ID           uint64    `gorm:"primaryKey"`
	Username     string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
}

type Workspace struct {
	ID          uint64        `gorm:"primaryKey"`
	Name        string        `gorm:"not null"`
	Type        WorkspaceType `gorm:"type:text;not null"`
	OwnerUserID uint64        `gorm:"index;not null"`
	CreatedAt   time.Time     `gorm:"not null"`
}

// WorkspaceMember keys on (workspace, user). Every workspace has exactly one
// Owner row, created together with the workspace itself.
type WorkspaceMember struct {
	WorkspaceID uint64    `gorm:"primaryKey"`
	UserID      uint64    `gorm:"primaryKey;index"`
	Role        Role      `gorm:"type:text;not null"`
	CanEdit     bool      `gorm:"not null;default:false"`
	CanShare    bool      `gorm:"not null;default:false"`
	JoinedAt    time.Time `gorm:"not null"`
}

type WorkspaceInvitation struct {
	ID            uint64           `gorm:"primaryKey"`
	WorkspaceID   uint64           `gorm:"index;not null"`
	InviterUserID uint64           `gorm:"not null"`
	InviteeUserID uint64           `gorm:"index;not null"`
	CanEdit       bool             `gorm:"not null;default:false"`
	CanShare      bool             `gorm:"not null;default:false"`
	Message       string           `gorm:"type:text;not null;default:''"`
	Status        InvitationStatus `gorm:"type:text;not null"`
	CreatedAt     time.Time        `gorm:"not null"`
	RespondedAt   *time.Time
}

// Note lives in exactly one workspace for its lifetime. IsDeleted marks the
// recycle bin; a purged note has no row at all.
type Note struct {
	ID          uint64   `gorm:"primaryKey"`
	WorkspaceID uint64   `gorm:"index;not null"`
	Title       string   `gorm:"not null"`
	Type        NoteType `gorm:"type:text;not null"`
	Content     string   `gorm:"type:text;not null"`
	CategoryID  *uint64  `gorm:"index"`
	IsDeleted   bool     `gorm:"index;not null;default:false"`
	DeletedTime *time.Time
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"index;not null"`
}

type Category struct {
	ID        uint64    `gorm:"primaryKey"`
	UserID    uint64    `gorm:"index;not null"`
	Name      string    `gorm:"not null"`
	Color     *string   `gorm:"type:text"`
	SortOrder int       `gorm:"not null;default:0"`
	CreatedAt time.Time `gorm:"not null"`
}

type Tag struct {
	ID        uint64    `gorm:"primaryKey"`
	UserID    uint64    `gorm:"index;not null"`
	Name      string    `gorm:"not null"`
	Color     *string   `gorm:"type:text"`
	CreatedAt time.Time `gorm:"not null"`
}

// NoteTag is the note/tag junction; rows are replaced wholesale when a note's
// tag set changes.
type NoteTag struct {
	NoteID uint64 `gorm:"primaryKey"`
	TagID  uint64 `gorm:"primaryKey;index"`
}

// DefaultContent returns the type-specific payload a fresh note starts with.
func DefaultContent(t NoteType) string {
	switch t {
	case NoteMarkdown:
		return `{"md": "", "html": ""}`
	case NoteCanvas:
		return `{"elements": []}`
	case NoteMindMap:
		return `{"nodes": [], "edges": []}`
	case NoteRichText:
		return `{"content": ""}`
	default:
		return `{}`
	}
}
