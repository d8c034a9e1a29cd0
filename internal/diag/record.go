package diag

// Cursor is the source location a record refers to.
type Cursor struct {
	File string `json:"file,omitempty"`
	Line int    `json:"line,omitempty"` // 1-based, 0 if unknown
}

// Record is one diagnostic entry produced while parsing or rendering.
type Record struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Cursor   *Cursor  `json:"cursor,omitempty"`
}

// Recorder accepts diagnostic records. Parsers and the render engine report
// through it; *Aggregator is the implementation used by a conversion pass.
type Recorder interface {
	Record(r Record)
}

// Reporter receives formatted diagnostic lines, for console echo and for
// the fail report.
type Reporter interface {
	Accept(message string)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(message string)

// Accept calls f(message).
func (f ReporterFunc) Accept(message string) { f(message) }

// Discard is a Recorder that drops everything.
var Discard Recorder = discard{}

type discard struct{}

func (discard) Record(Record) {}

// Warn records a WARN record at the given cursor on rec.
func Warn(rec Recorder, cur *Cursor, msg string) {
	rec.Record(Record{Severity: SeverityWarn, Message: msg, Cursor: cur})
}
