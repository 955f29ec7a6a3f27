package config

import "time"

// ToolsConfig declares which tools are wired into the toolregistry.Registry
// at startup and the base policy gating them, splitting per-integration
// connection settings from the access-control policy itself.
type ToolsConfig struct {
	WorkspaceRoots []string `yaml:"workspace_roots"`

	Policy ToolPolicyConfig `yaml:"policy"`

	Docker  DockerToolConfig  `yaml:"docker"`
	Postgres SQLToolConfig    `yaml:"postgres"`
	MySQL   SQLToolConfig     `yaml:"mysql"`
	GitHub  TokenToolConfig   `yaml:"github"`
	GitLab  GitLabToolConfig  `yaml:"gitlab"`
	Chrome  ChromeToolConfig  `yaml:"chrome"`
}

// ToolPolicyConfig is the YAML-facing shape of tools/policy.Policy: a
// profile name plus explicit allow/deny/ask_user overrides.
type ToolPolicyConfig struct {
	Profile string   `yaml:"profile"`
	Allow   []string `yaml:"allow"`
	Deny    []string `yaml:"deny"`
	AskUser []string `yaml:"ask_user"`
}

// DockerToolConfig configures chattools.NewDockerTool.
type DockerToolConfig struct {
	Enabled     bool   `yaml:"enabled"`
	FilterImage string `yaml:"filter_image"`
}

// SQLToolConfig configures chattools.NewPostgresTool / NewMySQLTool.
type SQLToolConfig struct {
	Enabled bool   `yaml:"enabled"`
	DSN     string `yaml:"dsn"`
}

// TokenToolConfig configures chattools.NewGitHubTool (a bearer token read
// via golang.org/x/oauth2's static token source).
type TokenToolConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
}

// GitLabToolConfig configures chattools.NewGitLabTool, which additionally
// needs a base URL for self-hosted GitLab instances.
type GitLabToolConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
	BaseURL string `yaml:"base_url"`
}

// ChromeToolConfig configures chattools.NewChromeTool's headless-render
// timeout.
type ChromeToolConfig struct {
	Enabled bool          `yaml:"enabled"`
	Timeout time.Duration `yaml:"timeout"`
}
