package chattools

import (
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/docker/docker/api/types/container"
	dockerclient "github.com/docker/docker/client"

	"github.com/nexuslang/nexus-lsp/pkg/chatmsg"
)

// DockerTool runs a command inside a named container and returns its
// combined output, or lists running containers when no command is given.
// github.com/docker/docker appears only as a transitive dependency
// elsewhere in this codebase's lineage (no prior art calls its client API
// directly), so this is built from the package's documented
// NewClientWithOpts/ContainerExecCreate/ContainerExecAttach flow.
type DockerTool struct {
	client      *dockerclient.Client
	filterImage string
}

func NewDockerTool(filterImage string) (*DockerTool, error) {
	cli, err := dockerclient.NewClientWithOpts(dockerclient.FromEnv, dockerclient.WithAPIVersionNegotiation())
	if err != nil {
		return nil, err
	}
	return &DockerTool{client: cli, filterImage: filterImage}, nil
}

func (t *DockerTool) Name() string        { return "docker" }
func (t *DockerTool) Description() string { return "Run a command inside a container, or list running containers." }
func (t *DockerTool) Confirm() []string   { return []string{"*"} }
func (t *DockerTool) Deny() []string      { return nil }
func (t *DockerTool) AskUser() []string   { return nil }

func (t *DockerTool) Schema() json.RawMessage {
	return mustSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"container": map[string]any{"type": "string"},
			"command":   map[string]any{"type": "string"},
		},
	})
}

func (t *DockerTool) Execute(ctx context.Context, params json.RawMessage) (*chatmsg.ToolResult, error) {
	if t.client == nil {
		return toolError("docker: client unavailable"), nil
	}
	var input struct {
		Container string `json:"container"`
		Command   string `json:"command"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return toolError("invalid parameters: " + err.Error()), nil
	}

	if strings.TrimSpace(input.Container) == "" {
		containers, err := t.client.ContainerList(ctx, container.ListOptions{})
		if err != nil {
			return toolError(err.Error()), nil
		}
		return toolJSON(containers), nil
	}

	command := strings.Fields(input.Command)
	if len(command) == 0 {
		return toolError("command is required when a container is given"), nil
	}

	execID, err := t.client.ContainerExecCreate(ctx, input.Container, container.ExecOptions{
		Cmd:          command,
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return toolError(err.Error()), nil
	}

	attach, err := t.client.ContainerExecAttach(ctx, execID.ID, container.ExecAttachOptions{})
	if err != nil {
		return toolError(err.Error()), nil
	}
	defer attach.Close()

	output, err := io.ReadAll(io.LimitReader(attach.Reader, maxIntegrationBody))
	if err != nil {
		return toolError(err.Error()), nil
	}
	return &chatmsg.ToolResult{Content: string(output)}, nil
}
