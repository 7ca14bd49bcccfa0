// Package msgtable decodes message-table resource blobs.
//
// A blob starts with a 4-byte block count followed by that many fixed-size
// block descriptors {lowId, highId, offsetToEntries}. Each block covers the
// inclusive ID range [lowId, highId] with one variable-length record per ID,
// packed tightly at offsetToEntries: {length uint16, flags uint16, text}.
// Record positions are derived solely by summing prior record lengths.
package msgtable

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// Encoding is a record's declared text encoding.
type Encoding uint16

const (
	// ANSI text is decoded one byte per character, a legacy
	// byte-for-codepoint passthrough rather than code-page decoding.
	ANSI Encoding = 0
	// Unicode text is UTF-16LE, decoded one 16-bit unit per character.
	Unicode Encoding = 1
)

func (e Encoding) String() string {
	switch e {
	case ANSI:
		return "ANSI"
	case Unicode:
		return "Unicode"
	}
	return fmt.Sprintf("Encoding(%d)", uint16(e))
}

// Entry is one decoded message. Text excludes the terminator and padding
// implied by the record's declared length.
type Entry struct {
	ID       uint32
	Encoding Encoding
	Text     string
}

// ErrTruncated reports a blob whose declared counts, offsets, or record
// lengths reach past the end of the buffer.
var ErrTruncated = errors.New("message table truncated")

// UnknownEncodingError reports a record whose flags value is neither ANSI
// nor Unicode. The blob contradicts its documented layout, so the entire
// decode is abandoned rather than skipping the record or guessing.
type UnknownEncodingError struct {
	Flags uint16
	ID    uint32
}

func (e *UnknownEncodingError) Error() string {
	return fmt.Sprintf("unknown encoding flags %#x in message %#x", e.Flags, e.ID)
}

const (
	countSize  = 4
	blockSize  = 12
	recordSize = 4
)

// Decode converts one message-table blob into its entries: blocks in
// declaration order, ascending ID within a block, duplicate IDs across
// blocks all kept. Every advance is validated against the end of the
// buffer before reading; the first violation fails the whole decode with
// ErrTruncated. Decode never mutates or retains data.
func Decode(data []byte) ([]Entry, error) {
	if len(data) < countSize {
		return nil, fmt.Errorf("block count: %w", ErrTruncated)
	}
	n := binary.LittleEndian.Uint32(data)
	if countSize+uint64(n)*blockSize > uint64(len(data)) {
		return nil, fmt.Errorf("%d block descriptors: %w", n, ErrTruncated)
	}

	var entries []Entry
	for i := uint32(0); i < n; i++ {
		desc := data[countSize+int64(i)*blockSize:]
		low := binary.LittleEndian.Uint32(desc)
		high := binary.LittleEndian.Uint32(desc[4:])
		offset := binary.LittleEndian.Uint32(desc[8:])

		decoded, err := decodeBlock(data, low, high, offset)
		if err != nil {
			return nil, fmt.Errorf("block %d [%#x, %#x]: %w", i, low, high, err)
		}
		entries = append(entries, decoded...)
	}
	return entries, nil
}

// decodeBlock consumes exactly high-low+1 records, never more, never fewer,
// regardless of how many bytes remain after the last one. A descriptor with
// high < low covers no IDs and yields no entries.
func decodeBlock(data []byte, low, high, offset uint32) ([]Entry, error) {
	count := int64(high) - int64(low) + 1
	cursor := uint64(offset)

	var entries []Entry
	for k := int64(0); k < count; k++ {
		id := low + uint32(k)
		if cursor+recordSize > uint64(len(data)) {
			return nil, fmt.Errorf("record %#x at %#x: %w", id, cursor, ErrTruncated)
		}
		length := binary.LittleEndian.Uint16(data[cursor:])
		flags := binary.LittleEndian.Uint16(data[cursor+2:])
		if length < recordSize || cursor+uint64(length) > uint64(len(data)) {
			return nil, fmt.Errorf("record %#x at %#x: %w", id, cursor, ErrTruncated)
		}

		raw := data[cursor+recordSize : cursor+uint64(length)]
		var text string
		switch Encoding(flags) {
		case ANSI:
			text = ansiText(raw)
		case Unicode:
			text = unicodeText(raw)
		default:
			return nil, &UnknownEncodingError{Flags: flags, ID: id}
		}

		entries = append(entries, Entry{ID: id, Encoding: Encoding(flags), Text: text})
		cursor += uint64(length)
	}
	return entries, nil
}

func ansiText(raw []byte) string {
	if i := bytes.IndexByte(raw, 0); i >= 0 {
		raw = raw[:i]
	}
	var b strings.Builder
	b.Grow(len(raw))
	for _, c := range raw {
		b.WriteRune(rune(c))
	}
	return b.String()
}

func unicodeText(raw []byte) string {
	var b strings.Builder
	b.Grow(len(raw) / 2)
	for i := 0; i+1 < len(raw); i += 2 {
		u := binary.LittleEndian.Uint16(raw[i:])
		if u == 0 {
			break
		}
		b.WriteRune(rune(u))
	}
	return b.String()
}
