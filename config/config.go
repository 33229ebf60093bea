// Package config - Runtime configuration from defaults, file, environment and flags.
package config

import (
	"strings"

	"github.com/nvr-ai/go-pose/export"
	"github.com/nvr-ai/go-pose/images"
	"github.com/nvr-ai/go-pose/inference"
	"github.com/nvr-ai/go-pose/inference/providers"
	"github.com/nvr-ai/go-pose/logging"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. POSE_MODEL_PATH.
const EnvPrefix = "POSE"

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the complete runtime configuration.
type Config struct {
	Model      ModelConfig     `mapstructure:"model" yaml:"model"`
	Image      ImageConfig     `mapstructure:"image" yaml:"image"`
	Thresholds ThresholdConfig `mapstructure:"thresholds" yaml:"thresholds"`
	Render     RenderConfig    `mapstructure:"render" yaml:"render"`
	Runtime    RuntimeConfig   `mapstructure:"runtime" yaml:"runtime"`
	Export     ExportConfig    `mapstructure:"export" yaml:"export"`
	Log        LogConfig       `mapstructure:"log" yaml:"log"`
}

// ModelConfig describes the model file and its tensor geometry.
type ModelConfig struct {
	Path        string `mapstructure:"path" yaml:"path"`
	InputName   string `mapstructure:"input_name" yaml:"input_name"`
	OutputName  string `mapstructure:"output_name" yaml:"output_name"`
	InputHeight int    `mapstructure:"input_height" yaml:"input_height"`
	InputWidth  int    `mapstructure:"input_width" yaml:"input_width"`
	OutputRows  int    `mapstructure:"output_rows" yaml:"output_rows"`
	OutputCols  int    `mapstructure:"output_cols" yaml:"output_cols"`
}

// Spec converts the model section to an inference.ModelSpec.
func (m ModelConfig) Spec() inference.ModelSpec {
	return inference.ModelSpec{
		Path:        m.Path,
		InputName:   m.InputName,
		OutputName:  m.OutputName,
		InputHeight: m.InputHeight,
		InputWidth:  m.InputWidth,
		OutputRows:  m.OutputRows,
		OutputCols:  m.OutputCols,
	}
}

// ImageConfig selects the input image and what happens to the rendered result.
type ImageConfig struct {
	Path    string         `mapstructure:"path" yaml:"path"`
	Decoder images.Decoder `mapstructure:"decoder" yaml:"decoder"`
	Output  string         `mapstructure:"output" yaml:"output"`
	Show    bool           `mapstructure:"show" yaml:"show"`
}

// ThresholdConfig holds the decode, suppression and rendering cutoffs.
type ThresholdConfig struct {
	Confidence float32 `mapstructure:"confidence" yaml:"confidence"`
	Score      float32 `mapstructure:"score" yaml:"score"`
	IoU        float32 `mapstructure:"iou" yaml:"iou"`
	Visibility float32 `mapstructure:"visibility" yaml:"visibility"`
}

// RenderConfig controls keypoint drawing.
type RenderConfig struct {
	Radius       int  `mapstructure:"radius" yaml:"radius"`
	StrictBounds bool `mapstructure:"strict_bounds" yaml:"strict_bounds"`
	FPS          bool `mapstructure:"fps" yaml:"fps"`
}

// RuntimeConfig selects the inference engine and execution provider.
type RuntimeConfig struct {
	Engine   inference.EngineType `mapstructure:"engine" yaml:"engine"`
	Library  string               `mapstructure:"library" yaml:"library"`
	Provider providers.Config     `mapstructure:"provider" yaml:"provider"`
}

// ExportConfig writes the detections to a file.
type ExportConfig struct {
	Path   string        `mapstructure:"path" yaml:"path"`
	Format export.Format `mapstructure:"format" yaml:"format"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string         `mapstructure:"level" yaml:"level"`
	Format logging.Format `mapstructure:"format" yaml:"format"`
}

// New returns a viper instance with defaults and environment lookup.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// SetDefaults registers every default value.
func SetDefaults(v *viper.Viper) {
	spec := inference.DefaultModelSpec("")
	v.SetDefault("model.path", "yolov8n-pose.onnx")
	v.SetDefault("model.input_name", spec.InputName)
	v.SetDefault("model.output_name", spec.OutputName)
	v.SetDefault("model.input_height", spec.InputHeight)
	v.SetDefault("model.input_width", spec.InputWidth)
	v.SetDefault("model.output_rows", spec.OutputRows)
	v.SetDefault("model.output_cols", spec.OutputCols)

	v.SetDefault("image.path", "")
	v.SetDefault("image.decoder", string(images.DecoderOpenCV))
	v.SetDefault("image.output", "")
	v.SetDefault("image.show", false)

	v.SetDefault("thresholds.confidence", 0.3)
	v.SetDefault("thresholds.score", 0.25)
	v.SetDefault("thresholds.iou", 0.45)
	v.SetDefault("thresholds.visibility", 0.5)

	v.SetDefault("render.radius", 5)
	v.SetDefault("render.strict_bounds", false)
	v.SetDefault("render.fps", true)

	p := providers.DefaultConfig()
	v.SetDefault("runtime.engine", string(inference.EngineONNX))
	v.SetDefault("runtime.library", "")
	v.SetDefault("runtime.provider.backend", string(p.Backend))
	v.SetDefault("runtime.provider.openvino.device_type", p.OpenVINO.DeviceType)
	v.SetDefault("runtime.provider.cuda.device_id", p.CUDA.DeviceID)
	v.SetDefault("runtime.provider.cuda.arena_extend_strategy", p.CUDA.ArenaExtendStrategy)
	v.SetDefault("runtime.provider.cuda.cudnn_conv_algo_search", p.CUDA.CudnnConvAlgoSearch)
	v.SetDefault("runtime.provider.cuda.do_copy_in_default_stream", p.CUDA.DoCopyInDefaultStream)

	v.SetDefault("export.path", "")
	v.SetDefault("export.format", string(export.FormatJSON))

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", string(logging.FormatText))
}

// FlagKeys maps command line flag names to configuration keys.
var FlagKeys = map[string]string{
	"model":         "model.path",
	"image":         "image.path",
	"decoder":       "image.decoder",
	"output":        "image.output",
	"show":          "image.show",
	"confidence":    "thresholds.confidence",
	"score":         "thresholds.score",
	"iou":           "thresholds.iou",
	"visibility":    "thresholds.visibility",
	"radius":        "render.radius",
	"strict-bounds": "render.strict_bounds",
	"backend":       "runtime.engine",
	"ort-lib":       "runtime.library",
	"provider":      "runtime.provider.backend",
	"device":        "runtime.provider.openvino.device_type",
	"export":        "export.path",
	"export-format": "export.format",
	"log-level":     "log.level",
	"log-format":    "log.format",
}

// BindFlags binds every flag in FlagKeys that exists in flags.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range FlagKeys {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return errors.Wrapf(err, "error binding flag %q", name)
		}
	}
	return nil
}

// Load reads the optional config file and decodes the merged settings.
//
// Arguments:
//   - v: The viper instance, usually from New with flags bound.
//   - path: A YAML config file. Empty skips file loading.
//
// Returns:
//   - *Config: The decoded configuration. It is not validated.
//   - error: An error if the file cannot be read or decoded.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "error reading config file %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "error decoding configuration")
	}
	return &cfg, nil
}

// Validate checks ranges and enumerations.
//
// Returns:
//   - error: ErrInvalidConfig describing the first problem found.
func (c *Config) Validate() error {
	if c.Model.Path == "" {
		return errors.Wrap(ErrInvalidConfig, "model path is required")
	}
	if c.Image.Path == "" {
		return errors.Wrap(ErrInvalidConfig, "image path is required")
	}
	if c.Model.InputHeight <= 0 || c.Model.InputWidth <= 0 || c.Model.OutputRows <= 0 || c.Model.OutputCols <= 0 {
		return errors.Wrap(ErrInvalidConfig, "model geometry must be positive")
	}

	thresholds := map[string]float32{
		"confidence": c.Thresholds.Confidence,
		"score":      c.Thresholds.Score,
		"iou":        c.Thresholds.IoU,
		"visibility": c.Thresholds.Visibility,
	}
	for name, value := range thresholds {
		if value < 0 || value > 1 {
			return errors.Wrapf(ErrInvalidConfig, "%s threshold %v outside [0, 1]", name, value)
		}
	}

	if c.Render.Radius <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "keypoint radius %d must be positive", c.Render.Radius)
	}
	if !c.Image.Decoder.Valid() {
		return errors.Wrapf(ErrInvalidConfig, "unknown decoder %q", c.Image.Decoder)
	}
	if !c.Runtime.Engine.Valid() {
		return errors.Wrapf(ErrInvalidConfig, "unknown backend %q", c.Runtime.Engine)
	}
	if !c.Runtime.Provider.Backend.Valid() {
		return errors.Wrapf(ErrInvalidConfig, "unknown provider %q", c.Runtime.Provider.Backend)
	}
	if !c.Export.Format.Valid() {
		return errors.Wrapf(ErrInvalidConfig, "unknown export format %q", c.Export.Format)
	}
	if !c.Log.Format.Valid() {
		return errors.Wrapf(ErrInvalidConfig, "unknown log format %q", c.Log.Format)
	}
	return nil
}
