// Package docker runs experiment jobs inside containers.
package docker

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/moby/moby/api/pkg/stdcopy"
	"github.com/moby/moby/api/types/container"
	"github.com/moby/moby/api/types/mount"
	"github.com/moby/moby/client"
)

// ContainerWorkDir is where RunOpts.WorkDir is mounted inside the container.
const ContainerWorkDir = "/workspace"

// TimeoutExitCode is reported when the job exceeds RunOpts.Timeout.
const TimeoutExitCode = 124

type RunOpts struct {
	Image       string
	Command     []string
	WorkDir     string
	Env         map[string]string
	Timeout     time.Duration
	CPULimit    float64
	MemoryLimit int64
	UserID      string
	// Output receives the container's combined stdout and stderr.
	Output io.Writer
}

type RunResult struct {
	ExitCode int
	TimedOut bool
	Duration time.Duration
}

func envList(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}

func hostConfig(opts *RunOpts) *container.HostConfig {
	initTrue := true
	hostCfg := &container.HostConfig{
		Mounts: []mount.Mount{{
			Type:   mount.TypeBind,
			Source: opts.WorkDir,
			Target: ContainerWorkDir,
		}},
		Init: &initTrue,
	}
	if opts.CPULimit > 0 {
		hostCfg.NanoCPUs = int64(opts.CPULimit * 1e9)
	}
	if opts.MemoryLimit > 0 {
		hostCfg.Memory = opts.MemoryLimit
	}
	return hostCfg
}

func RunContainer(ctx context.Context, opts *RunOpts) (*RunResult, error) {
	if opts.Image == "" {
		return nil, fmt.Errorf("docker image is required")
	}
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("creating docker client: %w", err)
	}
	defer cli.Close()

	containerCfg := &container.Config{
		Image:      opts.Image,
		Cmd:        opts.Command,
		Env:        envList(opts.Env),
		WorkingDir: ContainerWorkDir,
		Labels:     map[string]string{"fedexps": "true"},
	}
	if opts.UserID != "" {
		containerCfg.User = opts.UserID
	}

	createResp, err := cli.ContainerCreate(ctx, client.ContainerCreateOptions{
		Config:     containerCfg,
		HostConfig: hostConfig(opts),
	})
	if err != nil {
		return nil, fmt.Errorf("creating container: %w", err)
	}
	containerID := createResp.ID
	defer func() {
		cli.ContainerRemove(context.Background(), containerID, client.ContainerRemoveOptions{Force: true})
	}()

	start := time.Now()
	if _, err := cli.ContainerStart(ctx, containerID, client.ContainerStartOptions{}); err != nil {
		return nil, fmt.Errorf("starting container: %w", err)
	}

	waitCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	waitResult := cli.ContainerWait(waitCtx, containerID, client.ContainerWaitOptions{
		Condition: container.WaitConditionNotRunning,
	})
	for {
		select {
		case err := <-waitResult.Error:
			if err != nil {
				cli.ContainerKill(context.Background(), containerID, client.ContainerKillOptions{Signal: "SIGKILL"})
				copyLogs(cli, containerID, opts.Output)
				if ctx.Err() != nil {
					return nil, fmt.Errorf("waiting for container: %w", ctx.Err())
				}
				return &RunResult{
					ExitCode: TimeoutExitCode,
					TimedOut: true,
					Duration: time.Since(start),
				}, nil
			}
			// nil error means no error on this channel; wait for result
		case status := <-waitResult.Result:
			if err := copyLogs(cli, containerID, opts.Output); err != nil {
				return nil, err
			}
			return &RunResult{
				ExitCode: int(status.StatusCode),
				Duration: time.Since(start),
			}, nil
		}
	}
}

func copyLogs(cli *client.Client, containerID string, w io.Writer) error {
	if w == nil {
		return nil
	}
	logReader, err := cli.ContainerLogs(context.Background(), containerID, client.ContainerLogsOptions{ShowStdout: true, ShowStderr: true})
	if err != nil {
		return fmt.Errorf("reading container logs: %w", err)
	}
	defer logReader.Close()
	if _, err := stdcopy.StdCopy(w, w, logReader); err != nil {
		return fmt.Errorf("copying container logs: %w", err)
	}
	return nil
}
