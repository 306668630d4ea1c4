package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeriveCampaignType(t *testing.T) {
	require.Equal(t, CampaignTypeHR, DeriveCampaignType(UserTypeAdmin))
	require.Equal(t, CampaignTypeTeamShare, DeriveCampaignType(UserTypeManager))
	require.Equal(t, CampaignTypeTeamShare, DeriveCampaignType(UserTypeTeamMember))
	require.Equal(t, CampaignTypeTeamShare, DeriveCampaignType("anything else"))
}
