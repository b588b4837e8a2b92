package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"

	"github.com/hamed0406/uptimeengine/internal/domain"
)

// ContainerInspector is the slice of the Docker Engine API the probe needs.
type ContainerInspector interface {
	ContainerInspect(ctx context.Context, container string) (types.ContainerJSON, error)
}

type DockerChecker struct {
	Inspector ContainerInspector
	// InitErr is reported on every probe when the client could not be built.
	InitErr error
}

// NewDockerChecker connects using the standard DOCKER_HOST environment.
// A client error does not fail startup; docker monitors just report down.
func NewDockerChecker() *DockerChecker {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return &DockerChecker{InitErr: fmt.Errorf("docker client: %w", err)}
	}
	return &DockerChecker{Inspector: cli}
}

func (d *DockerChecker) Probe(ctx context.Context, m *domain.Monitor) domain.ProbeResult {
	if d.Inspector == nil {
		msg := "docker client unavailable"
		if d.InitErr != nil {
			msg = d.InitErr.Error()
		}
		return down(domain.CodeNoResponse, msg, 0)
	}
	ref := m.ContainerRef
	if ref == "" {
		ref = m.URL
	}

	start := time.Now()
	info, err := d.Inspector.ContainerInspect(ctx, ref)
	elapsed := time.Since(start)
	switch {
	case errdefs.IsNotFound(err):
		return down(domain.CodeContainerNotFound, fmt.Sprintf("container %q not found", ref), elapsed)
	case err != nil:
		return down(domain.CodeNoResponse, err.Error(), elapsed)
	case info.ContainerJSONBase == nil || info.State == nil:
		return down(domain.CodeUnexpectedPayload, "container state unavailable", elapsed)
	}

	res := domain.ProbeResult{
		Status:       info.State.Running,
		Code:         domain.CodeOK,
		Message:      info.State.Status,
		ResponseTime: ms(elapsed),
		Payload:      info.State,
	}
	if !info.State.Running {
		res.Code = domain.CodeContainerStopped
	}
	return res
}
