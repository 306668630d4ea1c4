package models

import (
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	InvitationStatusPending   = "PENDING"
	InvitationStatusSent      = "SENT"
	InvitationStatusCompleted = "COMPLETED"
)

// Invitation tracks a single participant's progress through an
// assessment: PENDING → SENT → COMPLETED, with a reconciliation path
// forcing COMPLETED back to PENDING when no result was ever recorded.
type Invitation struct {
	gorm.Model
	InviteCode string `gorm:"not null;uniqueIndex" json:"invite_code"`

	// One invitation per (email, campaign). Invitations without a
	// campaign are not deduplicated against each other.
	Email      string `gorm:"not null;uniqueIndex:idx_invitations_email_campaign" json:"email"`
	CampaignID *uint  `gorm:"uniqueIndex:idx_invitations_email_campaign" json:"campaign_id"`

	Name      string `json:"name"`
	Status    string `gorm:"default:'PENDING'" json:"status"` // PENDING, SENT, COMPLETED
	CompanyID uint   `gorm:"not null;index" json:"company_id"`

	CompletedAt     *time.Time `json:"completed_at"`
	InviteURL       string     `json:"invite_url"`
	PersonalMessage string     `json:"personal_message"`

	// Relations
	Company  Company              `json:"-"`
	Campaign *Campaign            `json:"-"`
	Results  []AssessmentResult   `gorm:"foreignKey:InvitationID" json:"results,omitempty"`
	Metadata []InvitationMetadata `gorm:"foreignKey:InvitationID" json:"metadata,omitempty"`
}

// InvitationMetadata holds per-invitation key/value annotations.
type InvitationMetadata struct {
	gorm.Model
	InvitationID uint   `gorm:"not null;index" json:"invitation_id"`
	Key          string `gorm:"not null" json:"key"`
	Value        string `json:"value"`
}

// ReconcileEmptyCompletions resets every COMPLETED invitation with no
// linked AssessmentResult back to PENDING and clears its completion
// timestamp. Invitations with at least one result are untouched.
// Per-row failures are logged and skipped; the returned count covers
// rows actually reset.
func ReconcileEmptyCompletions(db *gorm.DB) (int64, error) {
	var completed []Invitation
	if err := db.Where("status = ?", InvitationStatusCompleted).Find(&completed).Error; err != nil {
		return 0, err
	}

	var reset int64
	for _, inv := range completed {
		var results int64
		if err := db.Model(&AssessmentResult{}).
			Where("invitation_id = ?", inv.ID).
			Count(&results).Error; err != nil {
			logrus.WithFields(logrus.Fields{
				"invitation_id": inv.ID,
				"error":         err,
			}).Warn("reconcile: failed to count results, skipping")
			continue
		}
		if results > 0 {
			continue
		}

		if err := db.Model(&Invitation{}).
			Where("id = ?", inv.ID).
			Updates(map[string]interface{}{
				"status":       InvitationStatusPending,
				"completed_at": nil,
			}).Error; err != nil {
			logrus.WithFields(logrus.Fields{
				"invitation_id": inv.ID,
				"error":         err,
			}).Warn("reconcile: failed to reset invitation, skipping")
			continue
		}
		reset++
	}

	return reset, nil
}
