package instance

import "os"

// EnvInstanceID overrides the detected worker identity.
const EnvInstanceID = "LEDGER_INSTANCE_ID"

// GetID returns the worker instance identifier: the override, the host name,
// or "worker-0".
func GetID() string {
	if id := os.Getenv(EnvInstanceID); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "worker-0"
}
