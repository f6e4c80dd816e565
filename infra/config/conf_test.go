package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("TEST_STRING", "value")
	assert.Equal(t, "value", GetEnv("TEST_STRING", "default"))
	assert.Equal(t, "default", GetEnv("TEST_STRING_MISSING", "default"))
}

func TestGetBoolEnv(t *testing.T) {
	t.Setenv("TEST_BOOL", "true")
	assert.True(t, GetBoolEnv("TEST_BOOL", false))

	t.Setenv("TEST_BOOL_BAD", "not-a-bool")
	assert.True(t, GetBoolEnv("TEST_BOOL_BAD", true))

	assert.False(t, GetBoolEnv("TEST_BOOL_MISSING", false))
}

func TestGetIntEnv(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	assert.Equal(t, 42, GetIntEnv("TEST_INT", 7))

	t.Setenv("TEST_INT_BAD", "forty-two")
	assert.Equal(t, 7, GetIntEnv("TEST_INT_BAD", 7))
}

func TestGetDurationEnv(t *testing.T) {
	t.Setenv("TEST_DURATION", "90s")
	assert.Equal(t, 90*time.Second, GetDurationEnv("TEST_DURATION", time.Minute))

	assert.Equal(t, time.Minute, GetDurationEnv("TEST_DURATION_MISSING", time.Minute))
}

func TestFromEnv(t *testing.T) {
	t.Setenv("MPESA_CONSUMER_KEY", "key")
	t.Setenv("MPESA_CONSUMER_SECRET", "secret")
	t.Setenv("MPESA_PASSKEY", "passkey")
	t.Setenv("MPESA_SHORTCODE", "174379")
	t.Setenv("MPESA_ENVIRONMENT", "production")

	cfg := FromEnv()
	assert.Equal(t, "key", cfg.ConsumerKey)
	assert.Equal(t, "174379", cfg.ShortCode)
	assert.Equal(t, "production", cfg.Environment)
	assert.NoError(t, cfg.Validate())
}
