package tele_config

type Config struct { //nolint:maligned
	Enabled        bool   `hcl:"enable"`
	KioskId        string `hcl:"kiosk_id"`
	LogDebug       bool   `hcl:"log_debug"`
	MqttBroker     string `hcl:"mqtt_broker"`
	MqttPassword   string `hcl:"mqtt_password"`
	KeepaliveSec   int    `hcl:"keepalive_sec"`
	PingTimeoutSec int    `hcl:"ping_timeout_sec"`
	StorePath      string `hcl:"store_path"`

	BuildVersion string `hcl:"-"`
}
