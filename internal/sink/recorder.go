package sink

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// EventType is the primitive operation an Event records.
type EventType string

const (
	EventOpen  EventType = "open"
	EventClose EventType = "close"
	EventText  EventType = "text"
	EventRaw   EventType = "raw"
	EventImage EventType = "image"
)

// Event is one recorded Sink call.
type Event struct {
	Type    EventType  `json:"type"`
	Element Element    `json:"element,omitempty"`
	Attrs   Attributes `json:"attrs,omitempty"`
	Text    string     `json:"text,omitempty"`
	Alt     string     `json:"alt,omitempty"`
}

// String renders the event on one line, e.g. `open list [type=ordered]`.
func (e Event) String() string {
	switch e.Type {
	case EventOpen:
		if len(e.Attrs) > 0 {
			return fmt.Sprintf("open %s [%s]", e.Element, e.Attrs)
		}
		return "open " + e.Element.String()
	case EventClose:
		return "close " + e.Element.String()
	case EventImage:
		return fmt.Sprintf("image %q alt=%q", e.Text, e.Alt)
	default:
		return fmt.Sprintf("%s %q", e.Type, e.Text)
	}
}

// Recorder is a Sink that keeps every call in order.
type Recorder struct {
	events []Event
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Open(el Element, attrs Attributes) {
	var copied Attributes
	if len(attrs) > 0 {
		copied = make(Attributes, len(attrs))
		for k, v := range attrs {
			copied[k] = v
		}
	}
	r.events = append(r.events, Event{Type: EventOpen, Element: el, Attrs: copied})
}

func (r *Recorder) Close(el Element) {
	r.events = append(r.events, Event{Type: EventClose, Element: el})
}

func (r *Recorder) Text(s string) {
	r.events = append(r.events, Event{Type: EventText, Text: s})
}

func (r *Recorder) Raw(markup string) {
	r.events = append(r.events, Event{Type: EventRaw, Text: markup})
}

func (r *Recorder) Image(src, alt string) {
	r.events = append(r.events, Event{Type: EventImage, Text: src, Alt: alt})
}

// Events returns the recorded events.
func (r *Recorder) Events() []Event {
	return r.events
}

// Len returns the number of recorded calls.
func (r *Recorder) Len() int { return len(r.events) }

// Count returns how many events of type t were recorded for el. el is
// ignored for text, raw and image events.
func (r *Recorder) Count(t EventType, el Element) int {
	n := 0
	for _, e := range r.events {
		if e.Type != t {
			continue
		}
		if (t == EventOpen || t == EventClose) && e.Element != el {
			continue
		}
		n++
	}
	return n
}

// Lines returns one String() line per event.
func (r *Recorder) Lines() []string {
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.String()
	}
	return out
}

// String returns the events one per line.
func (r *Recorder) String() string {
	return strings.Join(r.Lines(), "\n")
}

// Balanced reports an error when closes do not match opens in stack order.
func (r *Recorder) Balanced() error {
	var stack []Element
	for i, e := range r.events {
		switch e.Type {
		case EventOpen:
			stack = append(stack, e.Element)
		case EventClose:
			if len(stack) == 0 {
				return fmt.Errorf("event %d: close %s without open", i, e.Element)
			}
			top := stack[len(stack)-1]
			if top != e.Element {
				return fmt.Errorf("event %d: close %s while %s is open", i, e.Element, top)
			}
			stack = stack[:len(stack)-1]
		}
	}
	if len(stack) > 0 {
		return fmt.Errorf("%d element(s) left open, innermost %s", len(stack), stack[len(stack)-1])
	}
	return nil
}

// WriteJSON encodes the events as an indented JSON array.
func (r *Recorder) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	events := r.events
	if events == nil {
		events = []Event{}
	}
	return enc.Encode(events)
}
