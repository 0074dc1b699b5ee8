package instance

import (
	"os"
	"strings"
)

// ID names the running process for logs and lock ownership. Heroku-style
// DYNO wins, then INSTANCE_ID, then the host name.
func ID() string {
	for _, key := range []string{"DYNO", "INSTANCE_ID"} {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
