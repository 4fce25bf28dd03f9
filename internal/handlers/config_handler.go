package handlers

import (
	"net/http"

	"iris/internal/config"
	"iris/internal/workflow"
)

// ConfigHandler exposes the public portal configuration
type ConfigHandler struct {
	config *config.Config
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(cfg *config.Config) *ConfigHandler {
	return &ConfigHandler{
		config: cfg,
	}
}

// AppConfig is the public configuration the frontend adapts to
type AppConfig struct {
	Name                 string `json:"name"`
	Version              string `json:"version"`
	SearchEnabled        bool   `json:"search_enabled"`
	UploadsEnabled       bool   `json:"uploads_enabled"`
	ConfidentialEnabled  bool   `json:"confidential_enabled"`
	IdeaSubmissionPoints int    `json:"idea_submission_points"`
	MaxRound1Panels      int    `json:"max_round1_panels"`
	MaxRound2Panels      int    `json:"max_round2_panels"`
}

// GetAppConfig returns the public app configuration for the frontend
// @Summary Get app configuration
// @Description Feature switches and workflow limits of this portal instance
// @Tags Configuration
// @Produce json
// @Success 200 {object} AppConfig
// @Router /config/app [get]
func (h *ConfigHandler) GetAppConfig(w http.ResponseWriter, r *http.Request) {
	JSONResponse(w, http.StatusOK, AppConfig{
		Name:                 h.config.App.Name,
		Version:              h.config.App.Version,
		SearchEnabled:        h.config.Search.Enabled,
		UploadsEnabled:       h.config.Storage.Enabled,
		ConfidentialEnabled:  h.config.Vault.Enabled,
		IdeaSubmissionPoints: h.config.Reward.IdeaSubmissionPoints,
		MaxRound1Panels:      workflow.MaxRound1Panels,
		MaxRound2Panels:      workflow.MaxRound2Panels,
	})
}
