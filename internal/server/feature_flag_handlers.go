package server

import (
	"maps"

	"ngelmak/internal/featureflags"

	"github.com/gofiber/fiber/v2"
)

// FeatureFlagsResponse pairs the configured rollout values with their result for the caller.
type FeatureFlagsResponse struct {
	Raw       map[string]string `json:"raw"`
	Evaluated map[string]bool   `json:"evaluated"`
}

// knownFlags are always reported, switched off unless configured.
var knownFlags = []string{featureflags.AttachmentPreviews, featureflags.Realtime}

// GetFeatureFlags handles GET /api/feature-flags
// @Summary Feature flags with their evaluation for the caller
// @Description Percentage rollouts are evaluated per account owner, so two users may see different values.
// @Tags feature-flags
// @Security BearerAuth
// @Produce json
// @Success 200 {object} FeatureFlagsResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /feature-flags [get]
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	userID := currentUserID(c)
	resp := FeatureFlagsResponse{
		Raw:       map[string]string{},
		Evaluated: make(map[string]bool, len(knownFlags)),
	}
	for _, name := range knownFlags {
		resp.Evaluated[name] = s.featureFlags.Enabled(name, userID)
	}
	if s.featureFlags != nil {
		maps.Copy(resp.Raw, s.featureFlags.Raw())
		maps.Copy(resp.Evaluated, s.featureFlags.Snapshot(userID))
	}
	return c.JSON(resp)
}
