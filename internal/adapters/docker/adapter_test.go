package docker

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"testing"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/melih/unbound-panel/internal/core/domain"
	"github.com/melih/unbound-panel/internal/core/ports"
)

type execResult struct {
	stdout   string
	exitCode int
	err      error
}

type fakeEngine struct {
	info       types.ContainerJSON
	inspectErr error
	restartErr error
	restarted  []string

	// keyed by the command's first two words
	results map[string]execResult
	execs   map[string]string
}

func (f *fakeEngine) ContainerInspect(_ context.Context, _ string) (types.ContainerJSON, error) {
	return f.info, f.inspectErr
}

func (f *fakeEngine) ContainerRestart(_ context.Context, id string, _ container.StopOptions) error {
	if f.restartErr != nil {
		return f.restartErr
	}
	f.restarted = append(f.restarted, id)
	return nil
}

func (f *fakeEngine) ContainerExecCreate(_ context.Context, _ string, cfg types.ExecConfig) (types.IDResponse, error) {
	key := strings.Join(cfg.Cmd, " ")
	if r, ok := f.results[key]; ok && r.err != nil {
		return types.IDResponse{}, r.err
	}
	if f.execs == nil {
		f.execs = map[string]string{}
	}
	id := "exec-" + key
	f.execs[id] = key
	return types.IDResponse{ID: id}, nil
}

func (f *fakeEngine) ContainerExecAttach(_ context.Context, execID string, _ types.ExecStartCheck) (types.HijackedResponse, error) {
	var buf bytes.Buffer
	w := stdcopy.NewStdWriter(&buf, stdcopy.Stdout)
	if _, err := w.Write([]byte(f.results[f.execs[execID]].stdout)); err != nil {
		return types.HijackedResponse{}, err
	}

	conn, peer := net.Pipe()
	peer.Close()
	return types.HijackedResponse{Conn: conn, Reader: bufio.NewReader(&buf)}, nil
}

func (f *fakeEngine) ContainerExecInspect(_ context.Context, execID string) (types.ContainerExecInspect, error) {
	return types.ContainerExecInspect{ExecID: execID, ExitCode: f.results[f.execs[execID]].exitCode}, nil
}

func runningContainer(networks map[string]*network.EndpointSettings) types.ContainerJSON {
	return types.ContainerJSON{
		ContainerJSONBase: &types.ContainerJSONBase{
			ID:    "abc123",
			Name:  "/unbound",
			State: &types.ContainerState{Running: true, Status: "running"},
		},
		NetworkSettings: &types.NetworkSettings{Networks: networks},
	}
}

func newTestAdapter(engine *fakeEngine) *Adapter {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return newAdapter(engine, Options{ContainerName: "unbound", Log: log})
}

const statsOutput = "total.num.queries=42\ntotal.num.cachehits=10\ntotal.recursion.time.avg=0.0050\ntime.up=120.0\n"

func TestStatusRunning(t *testing.T) {
	engine := &fakeEngine{
		info: runningContainer(map[string]*network.EndpointSettings{
			"umbrel_main_network": {IPAddress: "10.21.0.5"},
			"app_default":         {IPAddress: "172.18.0.2"},
		}),
		results: map[string]execResult{
			"unbound-control status":        {stdout: "version: 1.19.0\nis running...\n"},
			"unbound-control stats_noreset": {stdout: statsOutput},
		},
	}

	status := newTestAdapter(engine).Status(context.Background())

	assert.Equal(t, domain.StateRunning, status.State)
	require.NotNil(t, status.IP)
	assert.Equal(t, "172.18.0.2", *status.IP)
	assert.Equal(t, domain.Stats{TotalQueries: 42, CacheHits: 10, AvgLatency: 5.0, Uptime: 120.0}, status.Stats)
}

func TestStatusLookupFailure(t *testing.T) {
	engine := &fakeEngine{inspectErr: errors.New("connection refused")}

	status := newTestAdapter(engine).Status(context.Background())

	assert.Equal(t, domain.Stopped(), status)
	assert.Nil(t, status.IP)
}

func TestStatusContainerNotRunning(t *testing.T) {
	info := runningContainer(nil)
	info.State.Running = false
	engine := &fakeEngine{info: info}

	assert.Equal(t, domain.Stopped(), newTestAdapter(engine).Status(context.Background()))
	assert.Empty(t, engine.execs)
}

func TestStatusCommandFails(t *testing.T) {
	engine := &fakeEngine{
		info: runningContainer(map[string]*network.EndpointSettings{"bridge": {IPAddress: "172.17.0.3"}}),
		results: map[string]execResult{
			"unbound-control status": {stdout: "unbound is stopped\n", exitCode: 1},
		},
	}

	assert.Equal(t, domain.Stopped(), newTestAdapter(engine).Status(context.Background()))
}

func TestStatusStatsFailureKeepsRunning(t *testing.T) {
	engine := &fakeEngine{
		info: runningContainer(map[string]*network.EndpointSettings{"bridge": {IPAddress: ""}}),
		results: map[string]execResult{
			"unbound-control status":        {stdout: "is running...\n"},
			"unbound-control stats_noreset": {err: errors.New("exec failed")},
		},
	}

	status := newTestAdapter(engine).Status(context.Background())

	assert.Equal(t, domain.StateRunning, status.State)
	assert.Nil(t, status.IP)
	assert.Equal(t, domain.Stats{}, status.Stats)
}

func TestRestart(t *testing.T) {
	engine := &fakeEngine{info: runningContainer(nil)}

	require.NoError(t, newTestAdapter(engine).Restart(context.Background()))
	assert.Equal(t, []string{"abc123"}, engine.restarted)
}

func TestRestartErrors(t *testing.T) {
	engine := &fakeEngine{info: types.ContainerJSON{}}
	err := newTestAdapter(engine).Restart(context.Background())
	assert.ErrorIs(t, err, ports.ErrContainerNotFound)

	engine = &fakeEngine{info: runningContainer(nil), restartErr: errors.New("daemon busy")}
	err = newTestAdapter(engine).Restart(context.Background())
	assert.ErrorContains(t, err, "daemon busy")
}

func TestNewAdapterDefaultsCommands(t *testing.T) {
	a := newAdapter(&fakeEngine{}, Options{ContainerName: "unbound"})
	assert.Equal(t, DefaultStatusCommand, a.statusCommand)
	assert.Equal(t, DefaultStatsCommand, a.statsCommand)
}
