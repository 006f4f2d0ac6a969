package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hashicorp/go-plugin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

const (
	PluginMapKey      = "render"
	serviceName       = "flavorlab.render.v1.Renderer"
	jsonCodecName     = "json"
	methodGetMetadata = "/" + serviceName + "/GetMetadata"
	methodConfigure   = "/" + serviceName + "/Configure"
	methodApply       = "/" + serviceName + "/Apply"
)

var HandshakeConfig = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "FLAVORLAB_RENDER_PLUGIN",
	MagicCookieValue: "flavorlab",
}

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return jsonCodecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type Empty struct{}

type Metadata struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type Physics struct {
	Solver                  string  `json:"solver"`
	GravitationalConstant   float64 `json:"gravitational_constant"`
	SpringLength            float64 `json:"spring_length"`
	SpringConstant          float64 `json:"spring_constant"`
	Damping                 float64 `json:"damping"`
	StabilizationIterations int     `json:"stabilization_iterations"`
}

type Op string

const (
	OpAddNode    Op = "add_node"
	OpOpacity    Op = "update_opacity"
	OpRemoveNode Op = "remove_node"
	OpAddEdge    Op = "add_edge"
	OpRemoveEdge Op = "remove_edge"
)

// Command is one render call. Node ops use ID; edge ops use A and B.
type Command struct {
	Seq    uint64  `json:"seq"`
	Op     Op      `json:"op"`
	ID     string  `json:"id,omitempty"`
	Label  string  `json:"label,omitempty"`
	A      string  `json:"a,omitempty"`
	B      string  `json:"b,omitempty"`
	Value  float64 `json:"value,omitempty"`
	Weight float64 `json:"weight,omitempty"`
}

type ApplyRequest struct {
	Commands []Command `json:"commands"`
	// Dropped counts commands lost to queue overflow since the last batch.
	Dropped int64 `json:"dropped"`
}

type ApplyResponse struct {
	Applied int32 `json:"applied"`
}

type RendererServer interface {
	GetMetadata(ctx context.Context, in *Empty) (*Metadata, error)
	Configure(ctx context.Context, in *Physics) (*Empty, error)
	Apply(ctx context.Context, in *ApplyRequest) (*ApplyResponse, error)
}

type RendererClient interface {
	GetMetadata(ctx context.Context) (*Metadata, error)
	Configure(ctx context.Context, in *Physics) error
	Apply(ctx context.Context, in *ApplyRequest) (*ApplyResponse, error)
}

type rendererClient struct {
	conn *grpc.ClientConn
}

func NewRendererClient(conn *grpc.ClientConn) RendererClient {
	return &rendererClient{conn: conn}
}

func (c *rendererClient) GetMetadata(ctx context.Context) (*Metadata, error) {
	out := &Metadata{}
	if err := c.conn.Invoke(ctx, methodGetMetadata, &Empty{}, out, grpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *rendererClient) Configure(ctx context.Context, in *Physics) error {
	return c.conn.Invoke(ctx, methodConfigure, in, &Empty{}, grpc.CallContentSubtype(jsonCodecName))
}

func (c *rendererClient) Apply(ctx context.Context, in *ApplyRequest) (*ApplyResponse, error) {
	out := &ApplyResponse{}
	if err := c.conn.Invoke(ctx, methodApply, in, out, grpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, err
	}
	return out, nil
}

func unary[In any](method string, newIn func() *In, call func(ctx context.Context, in *In) (any, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := newIn()
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			typed, ok := req.(*In)
			if !ok {
				return nil, fmt.Errorf("invalid request type")
			}
			return call(ctx, typed)
		}
		return interceptor(ctx, in, info, handler)
	}
}

func RegisterRendererServer(server grpc.ServiceRegistrar, impl RendererServer) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: serviceName,
		HandlerType: (*RendererServer)(nil),
		Methods: []grpc.MethodDesc{
			{
				MethodName: "GetMetadata",
				Handler: unary(methodGetMetadata, func() *Empty { return &Empty{} }, func(ctx context.Context, in *Empty) (any, error) {
					return impl.GetMetadata(ctx, in)
				}),
			},
			{
				MethodName: "Configure",
				Handler: unary(methodConfigure, func() *Physics { return &Physics{} }, func(ctx context.Context, in *Physics) (any, error) {
					return impl.Configure(ctx, in)
				}),
			},
			{
				MethodName: "Apply",
				Handler: unary(methodApply, func() *ApplyRequest { return &ApplyRequest{} }, func(ctx context.Context, in *ApplyRequest) (any, error) {
					return impl.Apply(ctx, in)
				}),
			},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "schemas/render-rpc-v1.proto",
	}, impl)
}

type GRPCPlugin struct {
	plugin.NetRPCUnsupportedPlugin
	Impl RendererServer
}

func (p *GRPCPlugin) GRPCServer(_ *plugin.GRPCBroker, server *grpc.Server) error {
	RegisterRendererServer(server, p.Impl)
	return nil
}

func (p *GRPCPlugin) GRPCClient(_ context.Context, _ *plugin.GRPCBroker, conn *grpc.ClientConn) (any, error) {
	return NewRendererClient(conn), nil
}

func PluginMap(impl RendererServer) map[string]plugin.Plugin {
	return map[string]plugin.Plugin{
		PluginMapKey: &GRPCPlugin{Impl: impl},
	}
}
