package vm

// Factory builds interpreters that share one configuration, one jump
// destination cache and one physical stack. A factory serves a single call
// tree on one goroutine; the cache may be shared by many factories.
type Factory struct {
	config Config
	cache  *JumpDestCache
	stack  *Stack
}

// NewFactory returns a factory. A nil cache gets a private one of the
// default size.
func NewFactory(config Config, cache *JumpDestCache) *Factory {
	if cache == nil {
		cache = NewJumpDestCache(DefaultJumpDestCacheSize)
	}
	return &Factory{
		config: config,
		cache:  cache,
		stack:  NewStack(1024),
	}
}

// NewInterpreter returns an interpreter for one frame. Each Run opens a new
// checkpoint on the shared stack and closes it on return.
func (f *Factory) NewInterpreter() *Interpreter {
	return &Interpreter{config: f.config, cache: f.cache, stack: f.stack}
}

// Config returns the configuration handed to every interpreter.
func (f *Factory) Config() Config {
	return f.config
}
