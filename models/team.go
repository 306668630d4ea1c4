package models

import (
	"time"

	"gorm.io/gorm"
)

// TeamMember is a named participant of a team inside a tenant.
type TeamMember struct {
	gorm.Model
	CompanyID uint   `gorm:"not null;index" json:"company_id"`
	Email     string `gorm:"not null;index" json:"email"`
	Name      string `json:"name"`
	Role      string `gorm:"default:'member'" json:"role"` // owner, manager, member

	// Relations
	Company Company `json:"-"`
}

// TeamMembership joins user profiles to team members.
type TeamMembership struct {
	gorm.Model
	CompanyID     uint `gorm:"not null;index" json:"company_id"`
	TeamMemberID  uint `gorm:"not null;index" json:"team_member_id"`
	UserProfileID uint `gorm:"not null;index" json:"user_profile_id"`
}

// TeamInvitation is a pending request for someone to join a team,
// separate from assessment invitations.
type TeamInvitation struct {
	gorm.Model
	CompanyID uint       `gorm:"not null;index" json:"company_id"`
	Email     string     `gorm:"not null;index" json:"email"`
	InvitedBy uint       `json:"invited_by"`
	ExpiresAt *time.Time `json:"expires_at"`
	Accepted  bool       `gorm:"default:false" json:"accepted"`
}
