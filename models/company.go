package models

import "gorm.io/gorm"

// Company is the tenant root. Every other entity holds a non-owning
// reference to it; removal goes through the transactional cascade in
// the company controller, never through database-level cascades.
type Company struct {
	gorm.Model
	Name    string  `gorm:"not null;uniqueIndex" json:"name"`
	LogoURL *string `json:"logo_url"`

	// ExternalOrgID links the tenant to an external organization
	// record where one exists.
	ExternalOrgID *string `gorm:"index" json:"external_org_id"`

	// ApprovedDomains lists email domains allowed to self-register
	// under this tenant.
	ApprovedDomains []string `gorm:"type:jsonb;serializer:json" json:"approved_domains"`

	// Relations
	Admins    []Admin    `gorm:"foreignKey:CompanyID" json:"admins,omitempty"`
	Campaigns []Campaign `gorm:"foreignKey:CompanyID" json:"campaigns,omitempty"`
}
