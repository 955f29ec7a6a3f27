package config

import "fmt"

// ServerConfig configures the editor-facing HTTP surface: /v1/chat,
// /v1/tools, /v1/at-command-*, /v1/patch-single-file-from-ticket.
// Mirrors a gateway ServerConfig's Host/HTTPPort shape with the gRPC and
// metrics ports dropped, since this daemon speaks one protocol to one
// kind of caller.
type ServerConfig struct {
	Host            string `yaml:"host"`
	HTTPPort        int    `yaml:"http_port"`
	APIKey          string `yaml:"api_key"`
	JWTSecret       string `yaml:"jwt_secret"`
	InsideContainer bool   `yaml:"inside_container"`
	PingMessage     string `yaml:"ping_message"`
	LogsStderr      bool   `yaml:"logs_stderr"`
	Experimental    bool   `yaml:"experimental"`
}

func (s *ServerConfig) applyDefaults() {
	if s.Host == "" {
		s.Host = "127.0.0.1"
	}
	if s.HTTPPort == 0 {
		s.HTTPPort = 8001
	}
	if s.PingMessage == "" {
		s.PingMessage = "nexus-lsp"
	}
}

func (s *ServerConfig) validate() []string {
	var issues []string
	if s.HTTPPort <= 0 || s.HTTPPort > 65535 {
		issues = append(issues, fmt.Sprintf("server.http_port %d is out of range", s.HTTPPort))
	}
	return issues
}
