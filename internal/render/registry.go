package render

import (
	"log/slog"

	"github.com/dgallion1/docsink/internal/doctree"
	"github.com/dgallion1/docsink/internal/sink"
)

// Processor renders one or more node kinds to sink events.
type Processor interface {
	// Applies reports whether the processor handles n.
	Applies(n *doctree.Node) bool
	// Terminal reports whether the processor owns traversal of n's children.
	// The engine does not recurse into the children of terminal nodes.
	Terminal(n *doctree.Node) bool
	// Process emits the events for n.
	Process(n *doctree.Node) error
}

// Factory builds a processor bound to the context of one pass.
type Factory func(c *Context) Processor

// Context is what processors share during one pass: the sink to write to,
// the render options and the dispatch capabilities of the engine.
type Context struct {
	Sink    sink.Sink
	Options Options
	Log     *slog.Logger

	engine *Engine
	doc    *doctree.Node
}

// Visit dispatches n through the registry, as the engine does for children.
func (c *Context) Visit(n *doctree.Node) { c.engine.Visit(n) }

// Apply runs p on n with the engine's failure handling. It is how terminal
// processors hand a child to a specific processor.
func (c *Context) Apply(p Processor, n *doctree.Node) { c.engine.apply(p, n) }

// Document returns the document node of the pass, or nil before the
// document processor ran.
func (c *Context) Document() *doctree.Node { return c.doc }

// docAttr reads a document-level attribute.
func (c *Context) docAttr(key string) string {
	if c.doc == nil {
		return ""
	}
	return c.doc.Attributes.Str(key)
}

// Registry is the ordered processor list of one pass. Resolve returns the
// first processor that applies; when several processors apply to the same
// node, the one registered first wins. Custom processors are registered
// ahead of the built-ins, which is how a built-in is overridden.
type Registry struct {
	processors []Processor
	fallback   Processor

	items *listItemProcessor
	lists []*listProcessor
}

// newRegistry allocates every processor. Cross references are injected by
// wire once the engine exists.
func newRegistry(c *Context, custom []Factory) *Registry {
	items := &listItemProcessor{ctx: c}
	lists := []*listProcessor{
		{ctx: c, kind: doctree.KindUnorderedList, listType: sink.TypeUnordered},
		{ctx: c, kind: doctree.KindOrderedList, listType: sink.TypeOrdered},
		{ctx: c, kind: doctree.KindDescriptionList, listType: sink.TypeDescription},
	}

	r := &Registry{
		fallback: noopProcessor{log: c.Log},
		items:    items,
		lists:    lists,
	}
	for _, f := range custom {
		if p := f(c); p != nil {
			r.processors = append(r.processors, p)
		}
	}
	r.processors = append(r.processors,
		&documentProcessor{ctx: c},
		&preambleProcessor{},
		&sectionProcessor{ctx: c},
		&paragraphProcessor{ctx: c},
		lists[0], lists[1], lists[2],
		items,
		&tableProcessor{ctx: c},
		&listingProcessor{ctx: c},
		&literalProcessor{ctx: c},
		&imageProcessor{ctx: c},
		&exampleProcessor{ctx: c},
	)
	return r
}

// wire injects the shared list item processor into the list containers and
// the visit capability into the item processor.
func (r *Registry) wire(visit func(*doctree.Node)) {
	for _, l := range r.lists {
		l.items = r.items
	}
	r.items.visit = visit
}

// Resolve returns the first processor that applies to n, or the no-op
// fallback.
func (r *Registry) Resolve(n *doctree.Node) Processor {
	for _, p := range r.processors {
		if p.Applies(n) {
			return p
		}
	}
	return r.fallback
}

// Processors returns the registered processors in resolution order.
func (r *Registry) Processors() []Processor {
	return r.processors
}

// noopProcessor handles nodes no processor applies to. It emits nothing and
// lets the engine render the children.
type noopProcessor struct {
	log *slog.Logger
}

func (noopProcessor) Applies(*doctree.Node) bool  { return true }
func (noopProcessor) Terminal(*doctree.Node) bool { return false }

func (p noopProcessor) Process(n *doctree.Node) error {
	p.log.Debug("fallback behaviour for node", "kind", n.KindName())
	return nil
}
