package config

// ServeFlags carries the serve command's flag overrides (--api-key,
// --address-url, --http-port, --logs-stderr, --experimental,
// --inside-container, --ping-message), applied on top of whatever the
// YAML file declared: flags win over config-file values.
type ServeFlags struct {
	APIKey          string
	AddressURL      string
	HTTPPort        int
	LogsStderr      bool
	Experimental    bool
	InsideContainer bool
	PingMessage     string
}

// ApplyServeFlags overlays non-zero flag values onto cfg in place.
func (c *Config) ApplyServeFlags(f ServeFlags) {
	if f.APIKey != "" {
		c.Server.APIKey = f.APIKey
	}
	if f.AddressURL != "" {
		c.LLM.CapsPath = f.AddressURL
	}
	if f.HTTPPort != 0 {
		c.Server.HTTPPort = f.HTTPPort
	}
	if f.LogsStderr {
		c.Server.LogsStderr = true
	}
	if f.Experimental {
		c.Server.Experimental = true
	}
	if f.InsideContainer {
		c.Server.InsideContainer = true
	}
	if f.PingMessage != "" {
		c.Server.PingMessage = f.PingMessage
	}
}
