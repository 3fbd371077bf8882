package scan

import (
	"time"
)

// KeyEvent is one keyboard event as seen by the global listener.
type KeyEvent struct {
	// Rune is the printable character, zero for non-printable keys.
	Rune rune
	// Enter terminates a scan burst.
	Enter bool
	// At is when the key was pressed.
	At time.Time
	// FromTextInput marks events targeting a text-entry widget; those are
	// never scanner input and are ignored entirely.
	FromTextInput bool
}

// Char builds a printable key event.
func Char(r rune, at time.Time) KeyEvent {
	return KeyEvent{Rune: r, At: at}
}

// Enter builds an Enter key event.
func Enter(at time.Time) KeyEvent {
	return KeyEvent{Enter: true, At: at}
}

// Detector tells a hardware barcode scanner's keystroke burst apart from
// human typing: scanners emit characters within a few milliseconds of each
// other and finish with Enter. A gap longer than the inter-key tolerance
// means a human is typing and the buffer is discarded.
//
// The discard is evaluated lazily against event timestamps when the next
// event arrives, which behaves identically to a reset timer without one to
// leak. Exactly one Detector should consume the global key stream; two
// instances would both claim the same burst.
type Detector struct {
	tolerance time.Duration
	minLength int

	buffer  []rune
	lastKey time.Time
}

const (
	DefaultTolerance = 100 * time.Millisecond
	DefaultMinLength = 3
)

// New builds a detector. Non-positive arguments fall back to the defaults.
func New(tolerance time.Duration, minLength int) *Detector {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	if minLength <= 0 {
		minLength = DefaultMinLength
	}
	return &Detector{tolerance: tolerance, minLength: minLength}
}

// Feed consumes one key event and reports a completed scan, if any. A scan
// is emitted only on Enter with at least minLength buffered characters;
// shorter bursts make Enter a no-op so a stray Enter never misfires.
func (d *Detector) Feed(ev KeyEvent) (string, bool) {
	if ev.FromTextInput {
		return "", false
	}

	d.discardIfStale(ev.At)

	if ev.Enter {
		if len(d.buffer) >= d.minLength {
			code := string(d.buffer)
			d.buffer = nil
			d.lastKey = time.Time{}
			return code, true
		}
		return "", false
	}

	if ev.Rune == 0 {
		return "", false
	}

	d.buffer = append(d.buffer, ev.Rune)
	d.lastKey = ev.At
	return "", false
}

// Reset drops any buffered characters. Called on teardown.
func (d *Detector) Reset() {
	d.buffer = nil
	d.lastKey = time.Time{}
}

func (d *Detector) discardIfStale(at time.Time) {
	if len(d.buffer) == 0 || d.lastKey.IsZero() {
		return
	}
	if at.Sub(d.lastKey) > d.tolerance {
		d.buffer = nil
	}
}
