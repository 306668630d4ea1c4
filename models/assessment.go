package models

import "gorm.io/gorm"

// AssessmentResult records the outcome of a completed assessment,
// linked to the invitation it was submitted against. The payload is
// opaque to the platform.
type AssessmentResult struct {
	gorm.Model
	InvitationID uint   `gorm:"not null;index" json:"invitation_id"`
	ToolName     string `json:"tool_name"`

	Payload map[string]interface{} `gorm:"type:jsonb;serializer:json" json:"payload"`

	// Relations
	Invitation Invitation `json:"-"`
}
