// Package config defines the explicitly constructed configuration passed
// into the orchestrator, handlers, and inbox poller. There is no ambient
// global settings object; main builds one Config from flags and
// environment and hands it down.
package config

import (
	"fmt"
	"time"
)

const (
	// DefaultPort is the default HTTP server port.
	DefaultPort = "8080"

	// DefaultDatabaseURL is empty; must be provided via flag or environment.
	DefaultDatabaseURL = ""

	// DefaultIMAPPort is the standard IMAPS port.
	DefaultIMAPPort = 993

	// DefaultFetchLimit bounds one poll to the most recent unread messages.
	DefaultFetchLimit = 20

	// DefaultInboxWorkers bounds concurrent ingestion of fetched messages.
	DefaultInboxWorkers = 4

	// DefaultPollTimeout bounds one whole poll cycle, dial included.
	DefaultPollTimeout = 30 * time.Second
)

// Config holds all runtime configuration.
type Config struct {
	Port        string
	DatabaseURL string
	IMAP        IMAPConfig
}

// IMAPConfig holds the pull-based email channel settings.
type IMAPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	PollTimeout time.Duration
	FetchLimit  int
	Workers     int
}

// Configured reports whether inbox polling can run at all.
func (c IMAPConfig) Configured() bool {
	return c.Host != "" && c.Username != "" && c.Password != ""
}

// Addr returns the host:port dial address.
func (c IMAPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
