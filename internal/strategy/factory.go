package strategy

import (
	"fmt"
	"sort"
)

// Config bundles the per-strategy parameter blocks so callers can hydrate all
// of them from one YAML document and build by name.
type Config struct {
	MeanReversion MeanRevConfig    `yaml:"mean_reversion"`
	MomentumRank  MomentumConfig   `yaml:"momentum_rank"`
	Confluence    ConfluenceConfig `yaml:"confluence"`
}

// DefaultConfig returns every strategy's stock parameters.
func DefaultConfig() Config {
	return Config{
		MeanReversion: DefaultMeanRevConfig(),
		MomentumRank:  DefaultMomentumConfig(),
		Confluence:    DefaultConfluenceConfig(),
	}
}

// Builder constructs a strategy from the shared parameter bundle.
type Builder func(cfg Config) (Strategy, error)

// Registry maps strategy names to builders. It is populated by an explicit
// registration call during startup, never by package init side effects.
type Registry struct {
	builders map[string]Builder
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]Builder)}
}

// NewDefaultRegistry returns a registry holding the built-in strategies.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	// registration of built-ins cannot collide in a fresh registry
	_ = r.Register("mean_reversion", func(cfg Config) (Strategy, error) { return NewMeanReversion(cfg.MeanReversion) })
	_ = r.Register("momentum_rank", func(cfg Config) (Strategy, error) { return NewMomentumRank(cfg.MomentumRank) })
	_ = r.Register("confluence", func(cfg Config) (Strategy, error) { return NewConfluence(cfg.Confluence) })
	return r
}

// Register adds a builder under name, rejecting duplicates.
func (r *Registry) Register(name string, builder Builder) error {
	if name == "" || builder == nil {
		return fmt.Errorf("strategy registration requires a name and a builder")
	}
	if _, exists := r.builders[name]; exists {
		return fmt.Errorf("strategy %q already registered", name)
	}
	r.builders[name] = builder
	return nil
}

// Build constructs the named strategy. An unknown name is a programming
// error surfaced immediately, not a data condition.
func (r *Registry) Build(name string, cfg Config) (Strategy, error) {
	builder, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q (registered: %v)", name, r.Names())
	}
	return builder(cfg)
}

// Names lists the registered strategy names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func errConfig(strategy, msg string) error {
	return fmt.Errorf("%s config: %s", strategy, msg)
}
