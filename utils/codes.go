package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"net/url"
)

// GenerateInviteCode returns a random external-facing invite token in
// the format XXXX-XXXX-XXXX. Collisions are handled by the caller
// regenerating.
func GenerateInviteCode() (string, error) {
	bytes := make([]byte, 6)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	encoded := hex.EncodeToString(bytes)
	return fmt.Sprintf("%s-%s-%s", encoded[0:4], encoded[4:8], encoded[8:12]), nil
}

// Ambiguous characters (0/O, 1/I) are excluded since campaign codes
// get typed by hand.
const campaignCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateCampaignCode returns an 8-character shareable campaign code.
func GenerateCampaignCode() (string, error) {
	code := make([]byte, 8)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(campaignCodeAlphabet))))
		if err != nil {
			return "", fmt.Errorf("failed to generate random index: %w", err)
		}
		code[i] = campaignCodeAlphabet[n.Int64()]
	}
	return string(code), nil
}

// BuildInviteURL composes the participant-facing delivery URL for an
// invite code.
func BuildInviteURL(baseURL, inviteCode string) string {
	return fmt.Sprintf("%s/assessment/invite/%s", baseURL, url.PathEscape(inviteCode))
}
