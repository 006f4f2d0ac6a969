// Command jsonl-render is a render plugin that appends every drawing command
// as one JSON line to the file named by FLAVORLAB_RENDER_OUT (default
// render.jsonl). A browser or notebook can tail that file to animate the walk.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"sync"

	hclog "github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"

	renderrpc "flavorlab/internal/modules/explore/adapter/out/rpc"
)

const outEnv = "FLAVORLAB_RENDER_OUT"

type line struct {
	Kind    string             `json:"kind"`
	Physics *renderrpc.Physics `json:"physics,omitempty"`
	Command *renderrpc.Command `json:"command,omitempty"`
	Dropped int64              `json:"dropped,omitempty"`
}

type server struct {
	mu     sync.Mutex
	w      *bufio.Writer
	enc    *json.Encoder
	logger hclog.Logger
}

func newServer(f *os.File, logger hclog.Logger) *server {
	w := bufio.NewWriter(f)
	return &server{w: w, enc: json.NewEncoder(w), logger: logger}
}

func (s *server) GetMetadata(context.Context, *renderrpc.Empty) (*renderrpc.Metadata, error) {
	return &renderrpc.Metadata{Name: "jsonl-render", Version: "1.0.0"}, nil
}

func (s *server) Configure(_ context.Context, in *renderrpc.Physics) (*renderrpc.Empty, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(line{Kind: "physics", Physics: in}); err != nil {
		return nil, err
	}
	return &renderrpc.Empty{}, s.w.Flush()
}

func (s *server) Apply(_ context.Context, in *renderrpc.ApplyRequest) (*renderrpc.ApplyResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if in.Dropped > 0 {
		s.logger.Warn("host dropped commands", "count", in.Dropped)
		if err := s.enc.Encode(line{Kind: "dropped", Dropped: in.Dropped}); err != nil {
			return nil, err
		}
	}
	var applied int32
	for i := range in.Commands {
		if err := s.enc.Encode(line{Kind: "command", Command: &in.Commands[i]}); err != nil {
			return &renderrpc.ApplyResponse{Applied: applied}, err
		}
		applied++
	}
	return &renderrpc.ApplyResponse{Applied: applied}, s.w.Flush()
}

func main() {
	logger := hclog.New(&hclog.LoggerOptions{
		Name:       "jsonl-render",
		Level:      hclog.Info,
		Output:     os.Stderr,
		JSONFormat: true,
	})
	path := os.Getenv(outEnv)
	if path == "" {
		path = "render.jsonl"
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		logger.Error("open output", "path", path, "error", err)
		os.Exit(1)
	}
	defer f.Close()

	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: renderrpc.HandshakeConfig,
		Plugins:         renderrpc.PluginMap(newServer(f, logger)),
		GRPCServer:      plugin.DefaultGRPCServer,
		Logger:          logger,
	})
}
