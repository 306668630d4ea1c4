package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	CampaignStatusActive = "ACTIVE"

	CampaignTypeHR        = "HR_CAMPAIGN"
	CampaignTypeTeamShare = "TEAM_SHARE"
)

// Campaign groups invitations under a shared tool and deadline window.
type Campaign struct {
	gorm.Model
	CampaignCode string `gorm:"not null;uniqueIndex" json:"campaign_code"`
	Name         string `gorm:"not null" json:"name"`
	Status       string `gorm:"default:'ACTIVE'" json:"status"`

	// CampaignType is derived once from the creator's role and never
	// re-derived when the role changes later.
	CampaignType string `gorm:"not null" json:"campaign_type"` // HR_CAMPAIGN, TEAM_SHARE

	CompanyID uint `gorm:"not null;index" json:"company_id"`

	// The end date is advisory; nothing transitions the campaign when
	// it passes.
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`

	// Tool routing
	ToolID   string `json:"tool_id"`
	ToolPath string `json:"tool_path"`
	ToolName string `json:"tool_name"`

	// Description holds free text, optionally JSON metadata.
	Description string `json:"description"`

	// Relations
	Company     Company      `json:"-"`
	Invitations []Invitation `gorm:"foreignKey:CampaignID" json:"invitations,omitempty"`
}

// DeriveCampaignType maps the creator's role to the campaign type.
// ADMIN creators produce HR campaigns, everyone else a team share.
func DeriveCampaignType(creatorRole string) string {
	if creatorRole == UserTypeAdmin {
		return CampaignTypeHR
	}
	return CampaignTypeTeamShare
}
