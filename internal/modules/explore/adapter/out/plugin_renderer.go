package out

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	hclog "github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"

	pluginrpc "flavorlab/internal/modules/explore/adapter/out/rpc"
	"flavorlab/internal/modules/explore/domain"
	exploreout "flavorlab/internal/modules/explore/port/out"
	apperrors "flavorlab/internal/platform/errors"
)

const (
	defaultStartTimeout = 3 * time.Second
	defaultCallTimeout  = 5 * time.Second
)

// PluginRenderer ships render commands to an out-of-process go-plugin
// renderer over gRPC.
type PluginRenderer struct {
	*QueuedRenderer
	client *plugin.Client
	meta   pluginrpc.Metadata
}

type clientSink struct {
	client pluginrpc.RendererClient
}

func (s clientSink) Apply(ctx context.Context, batch *pluginrpc.ApplyRequest) error {
	if _, err := s.client.Apply(ctx, batch); err != nil {
		return fmt.Errorf("apply batch: %w", err)
	}
	return nil
}

var ErrChecksumMismatch = fmt.Errorf("%w: render plugin checksum mismatch", apperrors.ErrInvalidInput)

// PluginBinary names the plugin executable. SHA256, when set, must match the
// file before it is started.
type PluginBinary struct {
	Path   string
	SHA256 string
}

// StartPluginRenderer launches the plugin, hands it the physics configuration
// and returns a renderer feeding it.
func StartPluginRenderer(ctx context.Context, bin PluginBinary, physics domain.Physics, opts QueueOptions, logger hclog.Logger) (*PluginRenderer, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if bin.SHA256 != "" {
		if err := VerifyChecksum(bin.Path, bin.SHA256); err != nil {
			return nil, err
		}
	}
	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  pluginrpc.HandshakeConfig,
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolGRPC},
		Plugins:          pluginrpc.PluginMap(nil),
		Cmd:              exec.Command(bin.Path),
		Managed:          true,
		StartTimeout:     defaultStartTimeout,
		Logger:           logger.Named("render-plugin"),
	})
	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("start render plugin: %w", err)
	}
	raw, err := rpcClient.Dispense(pluginrpc.PluginMapKey)
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("dispense render plugin: %w", err)
	}
	typed, ok := raw.(pluginrpc.RendererClient)
	if !ok {
		client.Kill()
		return nil, fmt.Errorf("render plugin client type mismatch")
	}

	r, err := connectRenderer(ctx, typed, physics, opts, logger)
	if err != nil {
		client.Kill()
		return nil, err
	}
	r.client = client
	return r, nil
}

func connectRenderer(ctx context.Context, client pluginrpc.RendererClient, physics domain.Physics, opts QueueOptions, logger hclog.Logger) (*PluginRenderer, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	callCtx, cancel := callContext(ctx, defaultCallTimeout)
	defer cancel()
	meta, err := client.GetMetadata(callCtx)
	if err != nil {
		return nil, fmt.Errorf("get render plugin metadata: %w", err)
	}
	if err := client.Configure(callCtx, &pluginrpc.Physics{
		Solver:                  physics.Solver,
		GravitationalConstant:   physics.GravitationalConstant,
		SpringLength:            physics.SpringLength,
		SpringConstant:          physics.SpringConstant,
		Damping:                 physics.Damping,
		StabilizationIterations: physics.StabilizationIterations,
	}); err != nil {
		return nil, fmt.Errorf("configure render plugin: %w", err)
	}
	logger.Info("render plugin ready", "name", meta.Name, "version", meta.Version)
	return &PluginRenderer{
		QueuedRenderer: NewQueuedRenderer(clientSink{client: client}, opts, logger),
		meta:           *meta,
	}, nil
}

func (r *PluginRenderer) Metadata() pluginrpc.Metadata { return r.meta }

func (r *PluginRenderer) Close() error {
	err := r.QueuedRenderer.Close()
	if r.client != nil {
		r.client.Kill()
	}
	return err
}

var _ exploreout.RenderSink = (*PluginRenderer)(nil)

func callContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := parent.Deadline(); ok {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}

// VerifyChecksum compares the SHA-256 of the file at path with expected, a
// hex digest.
func VerifyChecksum(path, expected string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read render plugin: %w", err)
	}
	hash := sha256.Sum256(payload)
	if hex.EncodeToString(hash[:]) != strings.ToLower(strings.TrimSpace(expected)) {
		return fmt.Errorf("%w: %s", ErrChecksumMismatch, filepath.Base(path))
	}
	return nil
}
