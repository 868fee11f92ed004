package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("INACTIVITY_DAYS", "")

	cfg := Load()

	assert.Equal(t, "Asia/Ho_Chi_Minh", cfg.Stats.Timezone)
	assert.False(t, cfg.Stats.LegacyMidnightShift)
	assert.True(t, cfg.Features.ApprovalMode)
	assert.Equal(t, 72*time.Hour, cfg.Features.InactivityWindow)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STATS_LEGACY_MIDNIGHT_SHIFT", "true")
	t.Setenv("APPROVAL_MODE", "false")
	t.Setenv("INACTIVITY_DAYS", "5")
	t.Setenv("SUPERUSER_EMAILS", " Lead@Example.com, ,ops@example.com")

	cfg := Load()

	assert.True(t, cfg.Stats.LegacyMidnightShift)
	assert.False(t, cfg.Features.ApprovalMode)
	assert.Equal(t, 5*24*time.Hour, cfg.Features.InactivityWindow)
	assert.Equal(t, []string{"lead@example.com", "ops@example.com"}, cfg.Auth.SuperuserEmails)
}

func TestGetEnvAsBoolFallback(t *testing.T) {
	t.Setenv("SOME_FLAG", "not-a-bool")
	assert.True(t, getEnvAsBool("SOME_FLAG", true))
}
