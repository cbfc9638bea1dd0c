package config_test

import (
	"strings"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/tartampluch/go-wishes/internal/config"
)

// TestConstants_Integrity guards constants other packages cannot work without.
func TestConstants_Integrity(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"AppName", config.AppName},
		{"AppID", config.AppID},
		{"AppDirName", config.AppDirName},
		{"Version", config.Version},
		{"UserAgent", config.UserAgent},
		{"ICalProdid", config.ICalProdid},
		{"NamePlaceholder", config.NamePlaceholder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEmpty(t, tt.value, "constant %s should not be empty", tt.name)
		})
	}
}

func TestDefaults_Sanity(t *testing.T) {
	assert.Positive(t, config.DefaultHorizonDays)
	assert.Positive(t, config.DefaultSendDelay)
	assert.Positive(t, config.DefaultFontSize)
	assert.GreaterOrEqual(t, config.DefaultFontSize, float64(config.MinFontSize))
	assert.Equal(t, "2000", config.LeapYearText, "parsing year-less dates needs a leap year")
	assert.NoError(t, config.ValidatePort(config.DefaultPort))

	_, err := cron.ParseStandard(config.DefaultSchedule)
	assert.NoError(t, err, "default schedule must be a valid cron spec")
}

func TestUserAgent_Format(t *testing.T) {
	assert.True(t, strings.HasPrefix(config.UserAgent, "Go-Wishes/"))
}

func TestTimeoutsAndLimits(t *testing.T) {
	t.Parallel()

	assert.Greater(t, config.HTTPTimeout, 0*time.Second)
	assert.LessOrEqual(t, config.HTTPTimeout, 2*time.Minute)
	assert.Greater(t, config.ShutdownTimeout, 0*time.Second)
	assert.Greater(t, config.WatchDebounce, 0*time.Second)

	// vCard exports with photos can be large, unbounded streams are not.
	assert.GreaterOrEqual(t, int64(config.MaxHTTPResponseSize), int64(50*1024*1024))
	assert.Less(t, int64(config.MaxHTTPResponseSize), int64(1*1024*1024*1024))
}
