package env

import (
	"os"
	"strings"
)

// Get returns the trimmed value of key, or fallback when it is unset or blank.
func Get(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

// Instance names the running process for logs and lock ownership. Platform
// dyno names win over the container hostname.
func Instance() string {
	for _, key := range []string{"DYNO", "INSTANCE_ID", "HOSTNAME"} {
		if id := Get(key, ""); id != "" {
			return id
		}
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
