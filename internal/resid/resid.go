// Package resid models Win32 resource identifiers and their wire encoding.
//
// On the wire an identifier is a single machine word: if every bit above the
// low 16 is zero the word is an ordinal, otherwise it is the address of a
// null-terminated UTF-16 string. A string of the form "#123" is the ordinal
// 123 smuggled through a name-shaped field and is normalized back to an
// ordinal when decoded.
package resid

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"
)

// ID is a resource identifier: either a 16-bit ordinal or a non-empty name.
// The zero value is Ordinal(0). IDs are comparable with ==.
type ID struct {
	name  string
	ord   uint16
	named bool
}

// Ordinal returns the identifier for a numbered resource.
func Ordinal(n uint16) ID {
	return ID{ord: n}
}

// Name returns the identifier for a named resource. The name must be
// non-empty and not of the "#123" ordinal form; use FromString for
// references that may carry the ordinal-as-string convention.
func Name(s string) ID {
	return ID{name: s, named: true}
}

// Ordinal reports the ordinal value if the identifier is an ordinal.
func (id ID) Ordinal() (uint16, bool) {
	if id.named {
		return 0, false
	}
	return id.ord, true
}

// Name reports the name if the identifier is a name.
func (id ID) Name() (string, bool) {
	if !id.named {
		return "", false
	}
	return id.name, true
}

// String renders an ordinal as decimal digits and a name as itself.
func (id ID) String() string {
	if id.named {
		return id.name
	}
	return strconv.FormatUint(uint64(id.ord), 10)
}

// InvalidOrdinalError reports a "#"-prefixed reference whose remainder is not
// a 16-bit unsigned integer.
type InvalidOrdinalError struct {
	Text string
}

func (e *InvalidOrdinalError) Error() string {
	return fmt.Sprintf("invalid ordinal string %q", e.Text)
}

// ErrEmptyName reports a textual reference with no characters; a name must be
// non-empty.
var ErrEmptyName = errors.New("empty resource name")

// FromString converts a textual resource reference into an identifier,
// applying the ordinal-as-string convention: "#" followed by one or more
// ASCII digits in [0, 65535] is an ordinal, any other non-empty text is a
// name. A malformed "#" form fails with *InvalidOrdinalError.
func FromString(s string) (ID, error) {
	if strings.HasPrefix(s, "#") {
		n, err := strconv.ParseUint(s[1:], 10, 16)
		if err != nil {
			return ID{}, &InvalidOrdinalError{Text: s}
		}
		return Ordinal(uint16(n)), nil
	}
	if s == "" {
		return ID{}, ErrEmptyName
	}
	return Name(s), nil
}

// Memory is the address space a name-form wire word points into. ReadUTF16
// returns the 16-bit unit at addr or an error if addr is outside the space.
type Memory interface {
	ReadUTF16(addr uint64) (uint16, error)
}

// Decode converts a wire word into an identifier. Words with all bits above
// the low 16 clear are ordinals. Any other word is read from mem as a
// null-terminated UTF-16 string, one unit per character, then normalized via
// FromString. The string is bounded only by its terminator; a missing
// terminator surfaces as a Memory read error once the walk leaves the space.
func Decode(word uint64, mem Memory) (ID, error) {
	if word>>16 == 0 {
		return Ordinal(uint16(word)), nil
	}
	var b strings.Builder
	for addr := word; ; addr += 2 {
		u, err := mem.ReadUTF16(addr)
		if err != nil {
			return ID{}, fmt.Errorf("read name string at %#x: %w", addr, err)
		}
		if u == 0 {
			break
		}
		b.WriteRune(rune(u))
	}
	return FromString(b.String())
}

// Encode converts an identifier into a wire word. Ordinals encode directly as
// the small-integer form. A name is appended to arena as a null-terminated
// UTF-16 string and its address becomes the word; the word is only valid
// while the arena is alive.
func Encode(id ID, arena *Arena) uint64 {
	if n, ok := id.Ordinal(); ok {
		return uint64(n)
	}
	return arena.place(id.name)
}

// arenaBase keeps arena addresses clear of the ordinal bit pattern.
const arenaBase = 0x10000

// Arena owns the string storage backing name-form wire words produced by
// Encode. It implements Memory for decoding those words back.
type Arena struct {
	units []uint16
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

func (a *Arena) place(s string) uint64 {
	addr := arenaBase + uint64(len(a.units))*2
	a.units = append(a.units, utf16.Encode([]rune(s))...)
	a.units = append(a.units, 0)
	return addr
}

// ReadUTF16 returns the unit at addr or an error if addr falls outside the
// arena.
func (a *Arena) ReadUTF16(addr uint64) (uint16, error) {
	if addr < arenaBase || (addr-arenaBase)/2 >= uint64(len(a.units)) {
		return 0, fmt.Errorf("address %#x outside arena", addr)
	}
	return a.units[(addr-arenaBase)/2], nil
}
