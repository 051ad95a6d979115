package docker

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/sirupsen/logrus"

	"github.com/melih/unbound-panel/internal/core/domain"
	"github.com/melih/unbound-panel/internal/core/ports"
	"github.com/melih/unbound-panel/internal/core/stats"
)

var (
	DefaultStatusCommand = []string{"unbound-control", "status"}
	DefaultStatsCommand  = []string{"unbound-control", "stats_noreset"}
)

// engineAPI is the subset of the Docker client the adapter relies on.
type engineAPI interface {
	ContainerInspect(ctx context.Context, containerID string) (types.ContainerJSON, error)
	ContainerRestart(ctx context.Context, containerID string, options container.StopOptions) error
	ContainerExecCreate(ctx context.Context, containerID string, config types.ExecConfig) (types.IDResponse, error)
	ContainerExecAttach(ctx context.Context, execID string, config types.ExecStartCheck) (types.HijackedResponse, error)
	ContainerExecInspect(ctx context.Context, execID string) (types.ContainerExecInspect, error)
}

// Options configures the adapter.
type Options struct {
	ContainerName string
	StatusCommand []string
	StatsCommand  []string
	Log           logrus.FieldLogger
}

// Adapter implements ports.ResolverService using the Docker SDK.
type Adapter struct {
	cli           engineAPI
	name          string
	statusCommand []string
	statsCommand  []string
	log           logrus.FieldLogger
}

// NewAdapter creates a new Docker adapter talking to the daemon configured
// in the environment (DOCKER_HOST, usually the mounted socket).
func NewAdapter(opts Options) (*Adapter, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return newAdapter(cli, opts), nil
}

func newAdapter(cli engineAPI, opts Options) *Adapter {
	a := &Adapter{
		cli:           cli,
		name:          opts.ContainerName,
		statusCommand: opts.StatusCommand,
		statsCommand:  opts.StatsCommand,
		log:           opts.Log,
	}
	if len(a.statusCommand) == 0 {
		a.statusCommand = DefaultStatusCommand
	}
	if len(a.statsCommand) == 0 {
		a.statsCommand = DefaultStatsCommand
	}
	if a.log == nil {
		a.log = logrus.StandardLogger()
	}
	a.log = a.log.WithField("container", a.name)
	return a
}

// Status inspects the resolver container and collects its stats. It never
// returns an error: every failure degrades to a stopped snapshot.
func (a *Adapter) Status(ctx context.Context) domain.Status {
	info, err := a.inspect(ctx)
	if err != nil {
		a.log.WithError(err).Warn("resolver lookup failed")
		return domain.Stopped()
	}
	if info.State == nil || !info.State.Running {
		return domain.Stopped()
	}

	if _, code, err := a.exec(ctx, info.ID, a.statusCommand); err != nil {
		a.log.WithError(err).Warn("status command failed")
		return domain.Stopped()
	} else if code != 0 {
		a.log.WithField("exit_code", code).Warn("resolver reports not running")
		return domain.Stopped()
	}

	status := domain.Status{State: domain.StateRunning, IP: firstNetworkIP(info)}
	if status.IP == nil {
		a.log.Warn("no network address found for resolver container")
	}

	out, code, err := a.exec(ctx, info.ID, a.statsCommand)
	switch {
	case err != nil:
		a.log.WithError(err).Warn("stats command failed")
	case code != 0:
		a.log.WithField("exit_code", code).Warn("stats command exited non-zero")
	default:
		status.Stats = stats.Parse(out)
	}

	return status
}

// Restart restarts the resolver container.
func (a *Adapter) Restart(ctx context.Context) error {
	info, err := a.inspect(ctx)
	if err != nil {
		return err
	}
	if err := a.cli.ContainerRestart(ctx, info.ID, container.StopOptions{}); err != nil {
		return fmt.Errorf("failed to restart container: %w", err)
	}
	a.log.Info("resolver container restarted")
	return nil
}

func (a *Adapter) inspect(ctx context.Context) (types.ContainerJSON, error) {
	info, err := a.cli.ContainerInspect(ctx, a.name)
	if err != nil {
		if client.IsErrNotFound(err) {
			return info, fmt.Errorf("%w: %s", ports.ErrContainerNotFound, a.name)
		}
		return info, fmt.Errorf("failed to inspect container: %w", err)
	}
	if info.ContainerJSONBase == nil {
		return info, fmt.Errorf("%w: %s", ports.ErrContainerNotFound, a.name)
	}
	return info, nil
}

// exec runs cmd inside the container and returns its stdout and exit code.
func (a *Adapter) exec(ctx context.Context, id string, cmd []string) (string, int, error) {
	created, err := a.cli.ContainerExecCreate(ctx, id, types.ExecConfig{
		Cmd:          cmd,
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return "", 0, fmt.Errorf("failed to create exec: %w", err)
	}

	resp, err := a.cli.ContainerExecAttach(ctx, created.ID, types.ExecStartCheck{})
	if err != nil {
		return "", 0, fmt.Errorf("failed to attach exec: %w", err)
	}
	defer resp.Close()

	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, resp.Reader); err != nil {
		return "", 0, fmt.Errorf("failed to read exec output: %w", err)
	}

	inspect, err := a.cli.ContainerExecInspect(ctx, created.ID)
	if err != nil {
		return "", 0, fmt.Errorf("failed to inspect exec: %w", err)
	}
	return stdout.String(), inspect.ExitCode, nil
}

// firstNetworkIP returns the address on the first attached network, with
// networks ordered by name so the choice is stable.
func firstNetworkIP(info types.ContainerJSON) *string {
	if info.NetworkSettings == nil || len(info.NetworkSettings.Networks) == 0 {
		return nil
	}

	names := make([]string, 0, len(info.NetworkSettings.Networks))
	for name := range info.NetworkSettings.Networks {
		names = append(names, name)
	}
	sort.Strings(names)

	ep := info.NetworkSettings.Networks[names[0]]
	if ep == nil || ep.IPAddress == "" {
		return nil
	}
	ip := ep.IPAddress
	return &ip
}
