package config

import "time"

// Server defaults
const (
	DefaultPort            = "8080"
	DefaultShutdownTimeout = 15 * time.Second
)

// Model defaults
const (
	// DefaultModelProvider selects the Anthropic Messages API.
	DefaultModelProvider = "anthropic"
)

// Schedule defaults, interpreted in TZ_NAME
const (
	DefaultMorningCron = "0 8 * * *"
	DefaultEveningCron = "0 20 * * *"
	DefaultTimezone    = "UTC"
)

// Feed defaults
const (
	// DefaultFetchTimeout bounds one attempt against one mirror candidate.
	DefaultFetchTimeout = 10 * time.Second
)

// Replica defaults
const (
	DefaultKafkaTopic   = "newsbrief-triggers"
	DefaultKafkaGroupID = "newsbrief"
	DefaultRedisKey     = "newsbrief:latest"
)
