// Package fixedwidth builds positional flat-file records from a declared
// field layout. Batch files exchanged between the simulated participants are
// all fixed-width text, so every emitter shares this one formatter instead of
// padding strings inline.
package fixedwidth

import (
	"fmt"
	"strings"
)

type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
)

// Field describes one positional column.
type Field struct {
	Name  string
	Width int
	Align Alignment
	Pad   byte
}

// Left declares a left-aligned, space-padded field.
func Left(name string, width int) Field {
	return Field{Name: name, Width: width, Align: AlignLeft, Pad: ' '}
}

// Right declares a right-aligned, zero-padded field (numeric convention).
func Right(name string, width int) Field {
	return Field{Name: name, Width: width, Align: AlignRight, Pad: '0'}
}

// Layout is an ordered set of fields making up one record type.
type Layout struct {
	fields []Field
}

func NewLayout(fields ...Field) *Layout {
	return &Layout{fields: fields}
}

// Width returns the total record width.
func (l *Layout) Width() int {
	total := 0
	for _, f := range l.fields {
		total += f.Width
	}
	return total
}

// Format renders one record. Values map positionally onto the layout's
// fields; a value longer than its field is an error rather than silent
// truncation, so layout bugs surface in tests.
func (l *Layout) Format(values ...string) (string, error) {
	if len(values) != len(l.fields) {
		return "", fmt.Errorf("layout expects %d values, got %d", len(l.fields), len(values))
	}

	var b strings.Builder
	b.Grow(l.Width())
	for i, f := range l.fields {
		v := values[i]
		if len(v) > f.Width {
			return "", fmt.Errorf("field %q: value %q exceeds width %d", f.Name, v, f.Width)
		}
		padding := strings.Repeat(string(f.Pad), f.Width-len(v))
		if f.Align == AlignRight {
			b.WriteString(padding)
			b.WriteString(v)
		} else {
			b.WriteString(v)
			b.WriteString(padding)
		}
	}
	return b.String(), nil
}
