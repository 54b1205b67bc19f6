// Package draft holds editable working copies of invoices, quotes and
// payment plans. A Draft moves Viewing -> Editing -> Saving -> Viewing;
// a failed save returns to Editing with the edits intact and Cancel
// restores the pre-edit snapshot.
package draft

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/qmuntal/stateless"
)

type State string

const (
	Viewing State = "viewing"
	Editing State = "editing"
	Saving  State = "saving"
)

const (
	triggerEdit          = "edit"
	triggerSave          = "save"
	triggerSaveSucceeded = "save_succeeded"
	triggerSaveFailed    = "save_failed"
	triggerCancel        = "cancel"
)

var (
	ErrNotEditing   = errors.New("draft: not editing")
	ErrSaveInFlight = errors.New("draft: save already in progress")
	ErrDiscarded    = errors.New("draft: discarded")
	ErrOutOfRange   = errors.New("draft: index out of range")
	ErrNotFound     = errors.New("draft: not found")
)

// ValidationError is returned by Save when pre-submit checks fail.
type ValidationError struct {
	Violations map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("draft: %d invalid field(s)", len(e.Violations))
}

// Saver persists a document and returns the canonical version.
type Saver interface {
	Save(ctx context.Context, doc Document) (Document, error)
}

// SaverFunc adapts a function to Saver.
type SaverFunc func(ctx context.Context, doc Document) (Document, error)

func (f SaverFunc) Save(ctx context.Context, doc Document) (Document, error) { return f(ctx, doc) }

// Draft is a working copy of one document. It is safe for concurrent use;
// the lock is never held across a Saver call.
type Draft struct {
	id uuid.UUID

	mu       sync.Mutex
	sm       *stateless.StateMachine
	doc      Document
	snapshot Document
	dirty    bool
	lastErr  error
	gen      uint64
	closed   bool
	touched  time.Time
}

// New opens a draft at rest on an existing document.
func New(doc Document) *Draft {
	doc = doc.Clone()
	doc.recomputeLines()
	return newDraft(doc, Viewing)
}

// NewBlank opens a draft for a record that does not exist yet. It starts in
// Editing; cancelling it leaves an empty document.
func NewBlank(kind Kind) *Draft {
	return newDraft(Document{Kind: kind}, Editing)
}

func newDraft(doc Document, initial State) *Draft {
	d := &Draft{
		id:       uuid.New(),
		doc:      doc,
		snapshot: doc.Clone(),
		touched:  time.Now(),
	}
	sm := stateless.NewStateMachine(initial)
	sm.Configure(Viewing).
		OnEntryFrom(triggerCancel, d.restoreSnapshot).
		Permit(triggerEdit, Editing)
	sm.Configure(Editing).
		OnEntryFrom(triggerEdit, d.takeSnapshot).
		Permit(triggerSave, Saving).
		Permit(triggerCancel, Viewing)
	sm.Configure(Saving).
		Permit(triggerSaveSucceeded, Viewing).
		Permit(triggerSaveFailed, Editing)
	d.sm = sm
	return d
}

func (d *Draft) takeSnapshot(_ context.Context, _ ...any) error {
	d.snapshot = d.doc.Clone()
	d.dirty = false
	d.lastErr = nil
	return nil
}

func (d *Draft) restoreSnapshot(_ context.Context, _ ...any) error {
	d.doc = d.snapshot.Clone()
	d.dirty = false
	d.lastErr = nil
	return nil
}

func (d *Draft) ID() uuid.UUID { return d.id }

func (d *Draft) state() State { return d.sm.MustState().(State) }

// State returns the current state.
func (d *Draft) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state()
}

// Document returns a copy of the working document.
func (d *Draft) Document() Document {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doc.Clone()
}

// Snapshot returns a copy of the document as it was when editing began.
func (d *Draft) Snapshot() Document {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snapshot.Clone()
}

// Err returns the error of the last failed save.
func (d *Draft) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastErr
}

// LastTouched returns the time of the last access.
func (d *Draft) LastTouched() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.touched
}

func (d *Draft) touch() { d.touched = time.Now() }

// Edit enters Editing and snapshots the current document.
func (d *Draft) Edit() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.touch()
	if d.closed {
		return ErrDiscarded
	}
	switch d.state() {
	case Editing:
		return nil
	case Saving:
		return ErrSaveInFlight
	}
	return d.sm.Fire(triggerEdit)
}

// Apply runs fn against a copy of the working document and keeps the
// result only when fn succeeds. Derived totals follow on the next read.
// When fn moves the plan base, installment amounts follow their
// percentages.
func (d *Draft) Apply(fn func(*Document) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.touch()
	if d.closed {
		return ErrDiscarded
	}
	switch d.state() {
	case Saving:
		return ErrSaveInFlight
	case Viewing:
		return ErrNotEditing
	}
	base := d.doc.PlanBase()
	work := d.doc.Clone()
	if err := fn(&work); err != nil {
		return err
	}
	if !work.PlanBase().Equal(base) {
		work.RebasePlan()
	}
	d.doc = work
	d.dirty = true
	return nil
}

// Cancel discards the edits and restores the pre-edit snapshot.
func (d *Draft) Cancel() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.touch()
	switch d.state() {
	case Saving:
		return ErrSaveInFlight
	case Viewing:
		return ErrNotEditing
	}
	return d.sm.Fire(triggerCancel)
}

// Save validates the draft and submits it through s. On success the
// server's document replaces both the working copy and the snapshot. On
// failure the draft goes back to Editing with its edits and the error is
// kept for display.
func (d *Draft) Save(ctx context.Context, s Saver) (Document, error) {
	d.mu.Lock()
	d.touch()
	if d.closed {
		d.mu.Unlock()
		return Document{}, ErrDiscarded
	}
	switch d.state() {
	case Saving:
		d.mu.Unlock()
		return Document{}, ErrSaveInFlight
	case Viewing:
		d.mu.Unlock()
		return Document{}, ErrNotEditing
	}
	if v := d.doc.Validate(); !v.Empty() {
		err := &ValidationError{Violations: v}
		d.lastErr = err
		d.mu.Unlock()
		return Document{}, err
	}
	if err := d.sm.Fire(triggerSave); err != nil {
		d.mu.Unlock()
		return Document{}, err
	}
	d.gen++
	gen := d.gen
	out := d.doc.Clone()
	d.mu.Unlock()

	saved, err := s.Save(ctx, out)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed || gen != d.gen {
		return Document{}, ErrDiscarded
	}
	if err != nil {
		d.lastErr = err
		if ferr := d.sm.Fire(triggerSaveFailed); ferr != nil {
			return Document{}, errors.Join(err, ferr)
		}
		return Document{}, err
	}
	if saved.Kind == "" {
		saved.Kind = out.Kind
	}
	d.doc = saved.Clone()
	d.snapshot = saved.Clone()
	d.dirty = false
	d.lastErr = nil
	if err := d.sm.Fire(triggerSaveSucceeded); err != nil {
		return Document{}, err
	}
	return saved.Clone(), nil
}

// Replace swaps in a fresher server copy while at rest, e.g. after a
// dependent collection was refetched.
func (d *Draft) Replace(doc Document) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state() != Viewing {
		return ErrNotEditing
	}
	d.doc = doc.Clone()
	d.snapshot = doc.Clone()
	return nil
}

// Discard closes the draft. A save still in flight is ignored when its
// response arrives.
func (d *Draft) Discard() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.gen++
}

// View is a read-only picture of a draft for rendering.
type View struct {
	ID       string   `json:"id"`
	State    State    `json:"state"`
	Document Document `json:"document"`
	Totals   Totals   `json:"totals"`
	Dirty    bool     `json:"dirty"`
	Error    string   `json:"error,omitempty"`
	// Violations is set when the last save failed validation.
	Violations map[string]string `json:"violations,omitempty"`
}

// Editable reports whether the form accepts input.
func (v View) Editable() bool { return v.State == Editing }

// View returns the current picture of the draft.
func (d *Draft) View() View {
	d.mu.Lock()
	defer d.mu.Unlock()
	v := View{
		ID:       d.id.String(),
		State:    d.state(),
		Document: d.doc.Clone(),
		Totals:   d.doc.Totals(),
		Dirty:    d.dirty,
	}
	if d.lastErr != nil {
		v.Error = d.lastErr.Error()
		var ve *ValidationError
		if errors.As(d.lastErr, &ve) {
			v.Violations = ve.Violations
		}
	}
	return v
}
