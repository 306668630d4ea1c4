package models

import "gorm.io/gorm"

// User types carried on a profile. The campaign type derivation keys
// off these at campaign creation time.
const (
	UserTypeAdmin      = "ADMIN"
	UserTypeManager    = "MANAGER"
	UserTypeTeamMember = "TEAM_MEMBER"
)

// UserProfile is an authenticated member record, distinct from the
// legacy Admin credential record. ExternalID carries the identity
// provider's user id from the migrated system.
type UserProfile struct {
	gorm.Model
	ExternalID string `gorm:"uniqueIndex" json:"external_id"`
	Email      string `gorm:"not null;index" json:"email"`
	Name       string `json:"name"`
	UserType   string `gorm:"default:'TEAM_MEMBER'" json:"user_type"` // ADMIN, MANAGER, TEAM_MEMBER
	CompanyID  uint   `gorm:"not null;index" json:"company_id"`

	// Free-form team metadata
	TeamName    string `json:"team_name"`
	TeamPurpose string `json:"team_purpose"`
	TeamEmoji   string `json:"team_emoji"`
	TeamSize    int    `gorm:"default:0" json:"team_size"`

	// Relations
	Company Company `json:"-"`
}
