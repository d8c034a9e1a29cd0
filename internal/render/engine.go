// Package render walks a document tree and emits sink events for it.
//
// A pass is one Engine: it owns a Registry of processors, the sink it
// writes to and the recorder it reports failures on. Engines are not safe
// for concurrent use and are not reused across documents.
package render

import (
	"fmt"
	"log/slog"

	"github.com/dgallion1/docsink/internal/diag"
	"github.com/dgallion1/docsink/internal/doctree"
	"github.com/dgallion1/docsink/internal/sink"
)

// Engine is the depth-first traversal over a document tree.
//
// A processor that fails (by returning an error or panicking) only loses its
// own node: every element it opened is closed again, an ERROR record is
// reported, and traversal continues with the next sibling. The failed
// node's children are not rendered.
type Engine struct {
	ctx   *Context
	reg   *Registry
	guard *guardSink
	rec   diag.Recorder
	log   *slog.Logger
}

// New returns an engine writing to s. Processor failures are reported on rec.
func New(s sink.Sink, rec diag.Recorder, logger *slog.Logger, opts Options) *Engine {
	if rec == nil {
		rec = diag.Discard
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	opts = opts.withDefaults()

	g := &guardSink{next: s}
	e := &Engine{guard: g, rec: rec, log: logger}
	e.ctx = &Context{Sink: g, Options: opts, Log: logger, engine: e}
	e.reg = newRegistry(e.ctx, opts.Processors)
	e.reg.wire(e.Visit)
	return e
}

// Registry returns the engine's processor registry.
func (e *Engine) Registry() *Registry { return e.reg }

// Render walks the tree rooted at root.
func (e *Engine) Render(root *doctree.Node) {
	if root == nil {
		return
	}
	if root.Kind == doctree.KindDocument {
		e.ctx.doc = root
	}
	e.Visit(root)
}

// Visit renders n and, unless its processor is terminal, its children.
func (e *Engine) Visit(n *doctree.Node) {
	if n == nil {
		return
	}
	e.apply(e.reg.Resolve(n), n)
}

func (e *Engine) apply(p Processor, n *doctree.Node) {
	if err := e.process(p, n); err != nil {
		e.fail(n, err)
		return
	}
	if p.Terminal(n) {
		return
	}
	for _, c := range n.Children {
		e.Visit(c)
	}
}

func (e *Engine) process(p Processor, n *doctree.Node) (err error) {
	mark := e.guard.depth()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		if err == nil {
			err = e.guard.takeErr()
		}
		if err == nil && e.guard.depth() != mark {
			err = fmt.Errorf("%d element(s) left open", e.guard.depth()-mark)
		}
		if err != nil {
			e.guard.takeErr()
			e.guard.unwind(mark)
		}
	}()
	return p.Process(n)
}

func (e *Engine) fail(n *doctree.Node, err error) {
	msg := fmt.Sprintf("could not process %s node: %v", n.KindName(), err)
	e.log.Error("node processing failed", "kind", n.KindName(), "error", err)
	rec := diag.Record{Severity: diag.SeverityError, Message: msg}
	if n.Pos != nil {
		rec.Cursor = &diag.Cursor{File: n.Pos.File, Line: n.Pos.Line}
	}
	e.rec.Record(rec)
}

// guardSink forwards to the real sink and tracks open elements so a failed
// node can be closed off.
type guardSink struct {
	next  sink.Sink
	stack []sink.Element
	err   error
}

func (g *guardSink) depth() int { return len(g.stack) }

func (g *guardSink) takeErr() error {
	err := g.err
	g.err = nil
	return err
}

// unwind closes every element opened above depth, innermost first.
func (g *guardSink) unwind(depth int) {
	for len(g.stack) > depth {
		el := g.stack[len(g.stack)-1]
		g.stack = g.stack[:len(g.stack)-1]
		g.next.Close(el)
	}
}

func (g *guardSink) Open(el sink.Element, attrs sink.Attributes) {
	g.stack = append(g.stack, el)
	g.next.Open(el, attrs)
}

// Close drops a close that does not match the innermost open element and
// remembers it as the failure of the current node.
func (g *guardSink) Close(el sink.Element) {
	if len(g.stack) == 0 || g.stack[len(g.stack)-1] != el {
		if g.err == nil {
			g.err = fmt.Errorf("close %s does not match the open element", el)
		}
		return
	}
	g.stack = g.stack[:len(g.stack)-1]
	g.next.Close(el)
}

func (g *guardSink) Text(s string)         { g.next.Text(s) }
func (g *guardSink) Raw(markup string)     { g.next.Raw(markup) }
func (g *guardSink) Image(src, alt string) { g.next.Image(src, alt) }
