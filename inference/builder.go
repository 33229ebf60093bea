package inference

import (
	"log/slog"

	"github.com/nvr-ai/go-pose/inference/providers"
	"github.com/nvr-ai/go-pose/logging"
	"github.com/pkg/errors"
)

// EngineBuilder assembles an Executor with a fluent API. The first error is
// kept and returned by Build.
type EngineBuilder struct {
	engine   EngineType
	spec     ModelSpec
	provider providers.Config
	libPath  string
	logger   *slog.Logger
	err      error
}

// NewEngineBuilder creates a new engine builder for ONNX Runtime on CPU.
//
// Returns:
//   - *EngineBuilder: The engine builder.
func NewEngineBuilder() *EngineBuilder {
	return &EngineBuilder{
		engine:   EngineONNX,
		provider: providers.DefaultConfig(),
		logger:   slog.Default(),
	}
}

// WithEngine selects the runtime.
func (b *EngineBuilder) WithEngine(engine EngineType) *EngineBuilder {
	if b.HasError() {
		return b
	}
	if !engine.Valid() {
		b.err = errors.Errorf("unsupported engine %q", engine)
		return b
	}
	b.engine = engine
	return b
}

// WithModel sets the model file and geometry.
func (b *EngineBuilder) WithModel(spec ModelSpec) *EngineBuilder {
	if b.HasError() {
		return b
	}
	if spec.Path == "" {
		b.err = errors.Wrap(ErrModelLoad, "model path is required")
		return b
	}
	b.spec = spec
	return b
}

// WithProvider sets the execution provider.
func (b *EngineBuilder) WithProvider(cfg providers.Config) *EngineBuilder {
	if b.HasError() {
		return b
	}
	if cfg.Backend != "" && !cfg.Backend.Valid() {
		b.err = errors.Errorf("unsupported provider %q", cfg.Backend)
		return b
	}
	b.provider = cfg
	return b
}

// WithLibrary sets the ONNX Runtime shared library path.
func (b *EngineBuilder) WithLibrary(path string) *EngineBuilder {
	b.libPath = path
	return b
}

// WithLogger sets the logger passed to the executor.
func (b *EngineBuilder) WithLogger(logger *slog.Logger) *EngineBuilder {
	if logger != nil {
		b.logger = logger
	}
	return b
}

// HasError checks if the engine builder has errors.
func (b *EngineBuilder) HasError() bool {
	return b.err != nil
}

// Build creates the executor.
//
// Returns:
//   - Executor: The executor.
//   - error: The first configuration error, or ErrModelLoad.
func (b *EngineBuilder) Build() (Executor, error) {
	if b.HasError() {
		return nil, b.err
	}
	if b.spec.Path == "" {
		return nil, errors.Wrap(ErrModelLoad, "model not configured")
	}

	logger := logging.Module(b.logger, "inference")

	switch b.engine {
	case EngineOpenCV:
		return NewDNNExecutor(b.spec, b.provider.Backend, logger)
	default:
		provider, err := providers.NewProvider(b.provider)
		if err != nil {
			return nil, err
		}
		return NewORTExecutor(b.spec, provider, b.libPath, logger)
	}
}

// MustBuild builds the executor and panics if there is an error.
func (b *EngineBuilder) MustBuild() Executor {
	e, err := b.Build()
	if err != nil {
		panic(err)
	}
	return e
}
