package render

// Default styles for caption and example divisions.
const (
	CaptionStyle = "color: #7a2518; margin-bottom: .25em;"
	ExampleStyle = "background: #fffef7; border: 1px solid #e6e6e6; border-color: #e0e0dc; " +
		"box-shadow: 0 1px 4px #e0e0dc; padding: 1.25em;"
)

// Options are the target-format details of one renderer. Every field has a
// default; zero values are replaced by DefaultOptions.
type Options struct {
	// MaxSectionLevel is the deepest heading the target supports. Deeper
	// section headings are clamped to it.
	MaxSectionLevel int `toml:"max_section_level"`
	// SectionNumLevels is the deepest section level that gets a number when
	// numbering is on. The document attribute "sectnumlevels" overrides it.
	SectionNumLevels int    `toml:"sectnumlevels"`
	ImagesDir        string `toml:"imagesdir"`
	CaptionStyle     string `toml:"caption_style"`
	ExampleStyle     string `toml:"example_style"`
	SourceClass      string `toml:"source_class"`
	TableJustify     string `toml:"table_justify"`

	// Processors are registered ahead of the built-in processors, in order.
	Processors []Factory `toml:"-"`
}

// DefaultOptions returns the options used for HTML-like targets.
func DefaultOptions() Options {
	return Options{
		MaxSectionLevel:  6,
		SectionNumLevels: 3,
		CaptionStyle:     CaptionStyle,
		ExampleStyle:     ExampleStyle,
		SourceClass:      "prettyprint",
		TableJustify:     "left",
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MaxSectionLevel <= 0 {
		o.MaxSectionLevel = d.MaxSectionLevel
	}
	if o.SectionNumLevels <= 0 {
		o.SectionNumLevels = d.SectionNumLevels
	}
	if o.CaptionStyle == "" {
		o.CaptionStyle = d.CaptionStyle
	}
	if o.ExampleStyle == "" {
		o.ExampleStyle = d.ExampleStyle
	}
	if o.SourceClass == "" {
		o.SourceClass = d.SourceClass
	}
	if o.TableJustify == "" {
		o.TableJustify = d.TableJustify
	}
	return o
}
