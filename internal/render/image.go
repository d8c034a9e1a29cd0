package render

import (
	"errors"
	"strings"

	"github.com/dgallion1/docsink/internal/doctree"
	"github.com/dgallion1/docsink/internal/sink"
)

// ErrMissingTarget is returned for image nodes without a target.
var ErrMissingTarget = errors.New("image has no target")

type imageProcessor struct {
	ctx *Context
}

func (p *imageProcessor) Applies(n *doctree.Node) bool { return n.Kind == doctree.KindImage }
func (p *imageProcessor) Terminal(*doctree.Node) bool  { return true }

func (p *imageProcessor) Process(n *doctree.Node) error {
	target := strings.TrimSpace(n.Attr("target"))
	if target == "" {
		return ErrMissingTarget
	}
	dir := n.Attr("imagesdir")
	if dir == "" {
		dir = p.ctx.Options.ImagesDir
	}

	s := p.ctx.Sink
	s.Open(sink.Division, nil)
	s.Image(ImagePath(dir, target), n.Attr("alt"))
	if caption := captionText(n); caption != "" {
		writeCaption(p.ctx, caption)
	}
	s.Close(sink.Division)
	return nil
}

// ImagePath joins dir and target with exactly one separator. Absolute and
// remote targets are returned as is.
func ImagePath(dir, target string) string {
	if dir == "" || strings.HasPrefix(target, "/") || strings.Contains(target, "://") {
		return target
	}
	if strings.HasSuffix(dir, "/") || strings.HasSuffix(dir, `\`) {
		return dir + target
	}
	return dir + "/" + target
}
