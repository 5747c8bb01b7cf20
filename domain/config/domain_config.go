package config

import (
	"fmt"
	"time"
)

// CircleCapacity is the fixed number of participants a circle can hold.
const CircleCapacity = 7

// DomainConfig holds all configurable business rules and constraints
type DomainConfig struct {
	// Circle constraints
	MaxParticipants int
	// DefaultDay is the day a newly created circle starts on
	DefaultDay int

	// Allocation
	JoinMaxAttempts  int
	JoinRetryBackoff time.Duration

	// Query limits
	MaxMessagesPerQuery     int
	MaxStatusChecksPerQuery int

	// Message validation
	RequireMembership bool
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		MaxParticipants: CircleCapacity,
		DefaultDay:      1,

		JoinMaxAttempts:  5,
		JoinRetryBackoff: 10 * time.Millisecond,

		MaxMessagesPerQuery:     1000,
		MaxStatusChecksPerQuery: 1000,

		RequireMembership: false,
	}
}

// ProductionDomainConfig returns production-specific configuration
func ProductionDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	// More headroom for contended joins across instances
	config.JoinMaxAttempts = 8

	return config
}

// DevelopmentDomainConfig returns development-specific configuration
func DevelopmentDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()
	config.JoinRetryBackoff = time.Millisecond
	return config
}

// LoadDomainConfig loads domain configuration based on environment
func LoadDomainConfig(environment string) *DomainConfig {
	switch environment {
	case "production":
		return ProductionDomainConfig()
	case "development":
		return DevelopmentDomainConfig()
	default:
		return DefaultDomainConfig()
	}
}

// Validate checks if the configuration is valid
func (c *DomainConfig) Validate() error {
	if c.MaxParticipants != CircleCapacity {
		return fmt.Errorf("circle capacity is fixed at %d, got %d", CircleCapacity, c.MaxParticipants)
	}
	if c.DefaultDay < 1 {
		return fmt.Errorf("default day must be at least 1, got %d", c.DefaultDay)
	}
	if c.JoinMaxAttempts < 1 {
		return fmt.Errorf("join attempts must be at least 1, got %d", c.JoinMaxAttempts)
	}
	if c.JoinRetryBackoff < 0 {
		return fmt.Errorf("join retry backoff cannot be negative")
	}
	if c.MaxMessagesPerQuery < 1 || c.MaxStatusChecksPerQuery < 1 {
		return fmt.Errorf("query limits must be positive")
	}
	return nil
}
