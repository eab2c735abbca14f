package game

import (
	"sync"

	"drawparty-backend/internal/model"
)

// DocEventKind diff notification kind
type DocEventKind int

const (
	DocStrokeAppended DocEventKind = iota
	DocCleared
)

// DocEvent is the diff delivered to subscribers: the newly appended stroke,
// or a clear. Subscribers never receive full resends.
type DocEvent struct {
	Kind   DocEventKind
	Stroke *model.Stroke
}

// StrokeDocument is the append/clear-only shared drawing record of one room.
// Mutations are serialized internally, so the materialized sequence is
// identical for every observer that received the same operations: append
// order is the order the document's lock admitted the calls, and a clear is
// a linearization point after which no pre-clear stroke survives.
type StrokeDocument struct {
	mu       sync.Mutex
	strokes  []model.Stroke
	nextSeq  int64
	version  int64
	subs     map[int]func(DocEvent)
	nextSub  int
}

// NewStrokeDocument creates an empty document.
func NewStrokeDocument() *StrokeDocument {
	return &StrokeDocument{
		subs:    make(map[int]func(DocEvent)),
		nextSeq: 1,
	}
}

// Append adds a stroke, assigns its sequence number and notifies
// subscribers with the appended stroke as a diff. Safe for concurrent use.
func (d *StrokeDocument) Append(stroke model.Stroke) model.Stroke {
	d.mu.Lock()
	defer d.mu.Unlock()

	stroke.Seq = d.nextSeq
	d.nextSeq++
	d.version++
	d.strokes = append(d.strokes, stroke)

	s := stroke
	d.notify(DocEvent{Kind: DocStrokeAppended, Stroke: &s})
	return stroke
}

// Clear removes every stroke and notifies subscribers. Strokes appended
// after the clear get fresh sequence numbers; pre-clear strokes never
// reappear.
func (d *StrokeDocument) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.strokes = nil
	d.version++
	d.notify(DocEvent{Kind: DocCleared})
}

// Snapshot returns a copy of the stroke sequence in document order.
func (d *StrokeDocument) Snapshot() []model.Stroke {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]model.Stroke, len(d.strokes))
	copy(out, d.strokes)
	return out
}

// Len returns the current stroke count.
func (d *StrokeDocument) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.strokes)
}

// Version returns the mutation counter.
func (d *StrokeDocument) Version() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.version
}

// Subscribe registers a diff listener and returns its unsubscribe handle.
// Listeners run under the document lock, so each one observes diffs in
// exactly the order mutations were admitted; they must not block.
func (d *StrokeDocument) Subscribe(fn func(DocEvent)) func() {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := d.nextSub
	d.nextSub++
	d.subs[id] = fn

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.subs, id)
	}
}

func (d *StrokeDocument) notify(ev DocEvent) {
	for _, fn := range d.subs {
		fn(ev)
	}
}
