package cfntheory

import (
	"github.com/theory-cloud/cfntheory/pkg/logger"
	"github.com/theory-cloud/cfntheory/pkg/schema"
	"github.com/theory-cloud/cfntheory/pkg/template"
)

// App is the root of a construct tree.
type App struct {
	node     *Node
	config   Config
	clock    Clock
	ids      IDGenerator
	registry *schema.Registry
}

// Option configures an App.
type Option func(*App)

// NewApp creates an app. Without options it synthesizes JSON in memory;
// use WithConfig(LoadConfig()) or WithOutDir to write an assembly.
func NewApp(opts ...Option) *App {
	a := &App{
		config:   Config{Format: template.FormatJSON, Context: map[string]any{}},
		clock:    RealClock{},
		registry: schema.Default,
	}
	a.node = &Node{host: a}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(a)
	}
	if a.ids == nil {
		a.ids = ULIDGenerator{Clock: a.clock}
	}
	return a
}

// WithConfig replaces the app's configuration. Context values already set by
// earlier options are kept unless cfg overrides them.
func WithConfig(cfg Config) Option {
	return func(a *App) {
		ctx := a.config.Context
		a.config = cfg
		if a.config.Format == "" {
			a.config.Format = template.FormatJSON
		}
		a.config.Context = ctx
		for k, v := range cfg.Context {
			a.config.Context[k] = v
		}
	}
}

func WithOutDir(dir string) Option {
	return func(a *App) {
		a.config.OutDir = dir
	}
}

func WithFormat(f template.Format) Option {
	return func(a *App) {
		a.config.Format = f
	}
}

// WithContext sets one app context value.
func WithContext(key string, value any) Option {
	return func(a *App) {
		a.config.Context[key] = value
	}
}

func WithClock(clock Clock) Option {
	return func(a *App) {
		if clock != nil {
			a.clock = clock
		}
	}
}

func WithIDGenerator(ids IDGenerator) Option {
	return func(a *App) {
		a.ids = ids
	}
}

// WithRegistry resolves resource type names against reg instead of
// schema.Default.
func WithRegistry(reg *schema.Registry) Option {
	return func(a *App) {
		if reg != nil {
			a.registry = reg
		}
	}
}

func (a *App) Node() *Node { return a.node }

func (a *App) Config() Config { return a.config }

func (a *App) Registry() *schema.Registry { return a.registry }

// Context returns the context value for key, or nil.
func (a *App) Context(key string) any {
	return a.config.Context[key]
}

func (a *App) TryGetContext(key string) (any, bool) {
	v, ok := a.config.Context[key]
	return v, ok
}

// Stacks returns the app's stacks in creation order.
func (a *App) Stacks() []*Stack {
	var out []*Stack
	for _, c := range a.node.children {
		if s, ok := c.host.(*Stack); ok {
			out = append(out, s)
		}
	}
	return out
}

// Synth renders every stack. When an output directory is configured the
// assembly is also written there. Synth may be called again after further
// mutation.
func (a *App) Synth() (*Assembly, error) {
	runID := a.ids.NewID()
	log := logger.Logger().WithRunID(runID)

	asm := &Assembly{
		RunID:     runID,
		Directory: a.config.OutDir,
		Format:    a.config.Format,
		CreatedAt: a.clock.Now().UTC(),
	}

	names := make(map[string]bool)
	for _, s := range a.Stacks() {
		if names[s.StackName()] {
			return nil, newError(ErrorCodeSynthesisFailed, "duplicate stack name "+quote(s.StackName()), nil)
		}
		names[s.StackName()] = true

		tmpl, err := s.Template()
		if err != nil {
			log.WithStack(s.StackName()).Error("synthesis failed", map[string]any{"error": err.Error()})
			return nil, err
		}
		body, err := tmpl.Encode(asm.Format)
		if err != nil {
			return nil, newError(ErrorCodeSynthesisFailed, "encode "+quote(s.StackName()), err)
		}
		asm.Stacks = append(asm.Stacks, &StackArtifact{
			StackName:    s.StackName(),
			TemplateFile: s.StackName() + ".template" + asm.Format.Ext(),
			Template:     tmpl,
			Body:         body,
		})
		log.WithStack(s.StackName()).Info("stack synthesized", map[string]any{
			"resources":  tmpl.Resources.Len(),
			"parameters": tmpl.Parameters.Len(),
			"outputs":    tmpl.Outputs.Len(),
		})
	}

	if asm.Directory != "" {
		if err := asm.Write(asm.Directory); err != nil {
			return nil, err
		}
	}
	log.Info("synthesis complete", map[string]any{"stacks": len(asm.Stacks), "outdir": asm.Directory})
	return asm, nil
}
