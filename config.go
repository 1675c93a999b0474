package main

import (
	"time"

	"badgekiosk/auth"
	"badgekiosk/directory"
	"badgekiosk/mqtt"
	"badgekiosk/reader"
)

// Config is the main configuration structure for a badge kiosk station.
type Config struct {
	// Station identity, used in MQTT topics and the broker client id
	StationID string `yaml:"station_id"`

	// MQTT broker settings
	MQTT mqtt.Config `yaml:"mqtt"`

	// Employee directory backend
	Directory directory.Config `yaml:"directory"`

	// Badge reader configuration
	Reader reader.Config `yaml:"reader"`

	// Authentication policy
	Auth AuthConfig `yaml:"auth"`
}

// AuthConfig holds the lockout and session policy. Zero values fall back
// to the service defaults.
type AuthConfig struct {
	MaxAttempts           int `yaml:"max_attempts"`
	LockoutMinutes        int `yaml:"lockout_minutes"`
	SessionTimeoutMinutes int `yaml:"session_timeout_minutes"`
}

func (c AuthConfig) options() auth.Options {
	return auth.Options{
		MaxAttempts:    c.MaxAttempts,
		LockoutWindow:  time.Duration(c.LockoutMinutes) * time.Minute,
		SessionTimeout: time.Duration(c.SessionTimeoutMinutes) * time.Minute,
	}
}
