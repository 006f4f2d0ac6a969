package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	apperrors "flavorlab/internal/platform/errors"
)

const DefaultArtifactPath = "deploy/network_data_hub.json"

type Config struct {
	ArtifactPath string        `yaml:"artifact" validate:"required"`
	Reduce       ReduceConfig  `yaml:"reduce"`
	Explore      ExploreConfig `yaml:"explore"`
	Search       SearchConfig  `yaml:"search"`
	Physics      PhysicsConfig `yaml:"physics"`
	Server       ServerConfig  `yaml:"server"`
	Log          LogConfig     `yaml:"log"`
}

type ReduceConfig struct {
	K        int    `yaml:"k" validate:"gte=1,lte=100"`
	NodesCSV string `yaml:"nodes_csv"`
	EdgesCSV string `yaml:"edges_csv"`
	// EdgeType keeps only edges of this type; empty keeps every edge.
	EdgeType string `yaml:"edge_type"`
	HubOnly  bool   `yaml:"hub_only"`
}

type ExploreConfig struct {
	K               int    `yaml:"k" validate:"gte=1,lte=100"`
	GraceDelayMS    int    `yaml:"grace_delay_ms" validate:"gte=0"`
	FadeDurationMS  int    `yaml:"fade_duration_ms" validate:"gt=0"`
	FadeSteps       int    `yaml:"fade_steps" validate:"gte=1,lte=100"`
	MaxTrailDisplay int    `yaml:"max_trail_display" validate:"gte=1"`
	RenderPlugin    string `yaml:"render_plugin"`
	// RenderPluginSHA256 pins the plugin binary; empty skips the check.
	RenderPluginSHA256 string `yaml:"render_plugin_sha256" validate:"omitempty,len=64,hexadecimal"`
}

type SearchConfig struct {
	MaxResults int `yaml:"max_results" validate:"gte=1,lte=100"`
}

// PhysicsConfig is handed to render adapters as-is; the engine never reads it.
type PhysicsConfig struct {
	Solver                  string  `yaml:"solver" validate:"oneof=barnesHut forceAtlas2Based repulsion"`
	GravitationalConstant   float64 `yaml:"gravitational_constant"`
	SpringLength            float64 `yaml:"spring_length" validate:"gt=0"`
	SpringConstant          float64 `yaml:"spring_constant" validate:"gt=0"`
	Damping                 float64 `yaml:"damping" validate:"gte=0,lte=1"`
	StabilizationIterations int     `yaml:"stabilization_iterations" validate:"gte=0"`
}

type ServerConfig struct {
	Addr           string   `yaml:"addr" validate:"required"`
	StaticDir      string   `yaml:"static_dir"`
	AllowedOrigins []string `yaml:"allowed_origins" validate:"min=1"`
	SearchRPS      float64  `yaml:"search_rps" validate:"gt=0"`
	SearchBurst    int      `yaml:"search_burst" validate:"gte=1"`
	Watch          bool     `yaml:"watch"`
}

type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=trace debug info warn error off"`
	JSON  bool   `yaml:"json"`
	// File receives log output; the TUI discards logs when it is empty.
	File string `yaml:"file"`
}

func Default() Config {
	return Config{
		ArtifactPath: DefaultArtifactPath,
		Reduce: ReduceConfig{
			K:        3,
			NodesCSV: "input/nodes.csv",
			EdgesCSV: "input/edges.csv",
			EdgeType: "ingr-ingr",
			HubOnly:  true,
		},
		Explore: ExploreConfig{
			K:               3,
			GraceDelayMS:    2000,
			FadeDurationMS:  3000,
			FadeSteps:       10,
			MaxTrailDisplay: 12,
		},
		Search: SearchConfig{MaxResults: 10},
		Physics: PhysicsConfig{
			Solver:                  "barnesHut",
			GravitationalConstant:   -8000,
			SpringLength:            120,
			SpringConstant:          0.04,
			Damping:                 0.4,
			StabilizationIterations: 150,
		},
		Server: ServerConfig{
			Addr:           ":8000",
			StaticDir:      "deploy",
			AllowedOrigins: []string{"*"},
			SearchRPS:      20,
			SearchBurst:    40,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load returns the defaults overlaid with the YAML file at path. An empty
// path yields the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	path = strings.TrimSpace(path)
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: parse config %s: %v", apperrors.ErrInvalidInput, path, err)
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("%w: config: %s", apperrors.ErrInvalidInput, strings.Join(msgs, "; "))
}
