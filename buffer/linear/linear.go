package linear

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/wippyai/dst"
	"github.com/wippyai/dst/buffer"
	"github.com/wippyai/dst/errors"
	"go.uber.org/zap"
)

const (
	// PageSize is the size of a WebAssembly memory page in bytes.
	PageSize = 65536

	// DefaultMaxPages caps growth when WithMaxPages is not given (16 MiB).
	DefaultMaxPages = 256

	// maxPages is the wasm32 address space limit.
	maxPages = 65536

	exportName = "memory"
)

// Option configures a Buffer.
type Option func(*config)

type config struct {
	runtime  wazero.Runtime
	maxPages uint32
}

// WithMaxPages caps the memory at n pages.
func WithMaxPages(n uint32) Option {
	return func(c *config) {
		c.maxPages = n
	}
}

// WithRuntime instantiates the memory in rt instead of a private runtime.
// The runtime's memory limit must admit the page cap. Closing the buffer
// leaves rt open.
func WithRuntime(rt wazero.Runtime) Option {
	return func(c *config) {
		c.runtime = rt
	}
}

// Buffer is a growable buffer backed by a WebAssembly linear memory.
//
// Words aliases the memory that guest code sees, so elements stored by a
// container can be read in place by a module importing it.
type Buffer[W dst.Word] struct {
	runtime     wazero.Runtime
	ownsRuntime bool
	module      api.Module
	mem         api.Memory
	maxPages    uint32
}

// New instantiates a memory large enough for n words.
func New[W dst.Word](ctx context.Context, n int, opts ...Option) (*Buffer[W], error) {
	cfg := config{maxPages: DefaultMaxPages}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.maxPages == 0 || cfg.maxPages > maxPages {
		return nil, errors.InvalidInput(errors.PhaseLinear, "page limit out of range")
	}

	minPages := pagesFor(n * buffer.WordSize[W]())
	if minPages > int(cfg.maxPages) {
		return nil, errors.CapacityExceeded(errors.PhaseLinear, n, wordsIn[W](int(cfg.maxPages)))
	}

	b := &Buffer[W]{
		runtime:  cfg.runtime,
		maxPages: cfg.maxPages,
	}
	if b.runtime == nil {
		rc := wazero.NewRuntimeConfig().WithMemoryLimitPages(cfg.maxPages)
		b.runtime = wazero.NewRuntimeWithConfig(ctx, rc)
		b.ownsRuntime = true
	}

	mod, err := b.runtime.InstantiateWithConfig(ctx, memoryModule(uint32(minPages), cfg.maxPages),
		wazero.NewModuleConfig().WithName("")) // anonymous, so buffers can share a runtime
	if err != nil {
		if b.ownsRuntime {
			_ = b.runtime.Close(ctx)
		}
		return nil, errors.Wrap(errors.PhaseLinear, errors.KindAllocation, err, "instantiate memory module")
	}
	b.module = mod
	b.mem = mod.ExportedMemory(exportName)
	return b, nil
}

func pagesFor(bytes int) int {
	return (bytes + PageSize - 1) / PageSize
}

func wordsIn[W dst.Word](pages int) int {
	return pages * PageSize / buffer.WordSize[W]()
}

// Memory returns the underlying wazero memory, or nil once closed.
func (b *Buffer[W]) Memory() api.Memory { return b.mem }

func (b *Buffer[W]) Words() []W {
	if b.mem == nil {
		return nil
	}
	data, _ := b.mem.Read(0, b.mem.Size())
	return buffer.FromBytes[W](data)
}

// Grow adds pages until minWords fit, doubling the page count when the cap
// allows it.
func (b *Buffer[W]) Grow(minWords int) error {
	if b.mem == nil {
		return errors.InvalidInput(errors.PhaseLinear, "buffer closed")
	}
	cur := int(b.mem.Size() / PageSize)
	if minWords <= wordsIn[W](cur) {
		return nil
	}
	need := pagesFor(minWords * buffer.WordSize[W]())
	limit := int(b.maxPages)
	if need > limit {
		return errors.CapacityExceeded(errors.PhaseLinear, minWords, wordsIn[W](limit))
	}
	target := min(max(need, cur*2), limit)
	if _, ok := b.mem.Grow(uint32(target - cur)); !ok {
		return errors.CapacityExceeded(errors.PhaseLinear, minWords, wordsIn[W](cur))
	}
	if ce := dst.Logger().Check(zap.DebugLevel, "linear memory grown"); ce != nil {
		ce.Write(zap.Int("from_pages", cur), zap.Int("to_pages", target))
	}
	return nil
}

// Close closes the module and, unless WithRuntime was used, the runtime.
// It is idempotent.
func (b *Buffer[W]) Close() error {
	return b.CloseContext(context.Background())
}

// CloseContext is Close with a caller context for the wazero calls.
func (b *Buffer[W]) CloseContext(ctx context.Context) error {
	if b.module == nil {
		return nil
	}
	mod := b.module
	b.module = nil
	b.mem = nil

	err := mod.Close(ctx)
	if b.ownsRuntime {
		if rerr := b.runtime.Close(ctx); err == nil {
			err = rerr
		}
	}
	return err
}
