package config

// LoggingConfig controls the log/slog handler the daemon installs at
// startup, matching internal/config/config_observability.go's
// LoggingConfig (Level/Format) one-for-one.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func (l *LoggingConfig) applyDefaults() {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "json"
	}
}
