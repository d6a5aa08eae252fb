// Separate package is workaround to import cycles.
package remote_config

type Config struct {
	BaseURL    string `hcl:"base_url"`
	TimeoutSec int    `hcl:"timeout_sec"`
	LogDebug   bool   `hcl:"log_debug"`
}
