// Package main demonstrates decoding a message table blob directly.
package main

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/goetzr/dump-msg-tables/internal/msgtable"
)

func main() {
	entries, err := msgtable.Decode(sampleTable())
	if err != nil {
		fmt.Printf("ERROR: %v\n", err)
		os.Exit(1)
	}

	for _, entry := range entries {
		fmt.Println(formatEntry(entry))
	}
}

// sampleTable packs one block of three ANSI messages the way the resource
// compiler lays a message table out: block count, descriptor, then the
// records back to back.
func sampleTable() []byte {
	messages := []string{
		"The operation completed successfully.\r\n",
		"Incorrect function.\r\n",
		"The system cannot find the file specified.\r\n",
	}

	var records []byte
	for _, msg := range messages {
		text := append([]byte(msg), 0)
		record := make([]byte, 4+len(text))
		binary.LittleEndian.PutUint16(record, uint16(len(record)))
		binary.LittleEndian.PutUint16(record[2:], 0)
		copy(record[4:], text)
		records = append(records, record...)
	}

	// Header: one block covering IDs 0 through 2, records directly after.
	table := make([]byte, 16)
	binary.LittleEndian.PutUint32(table, 1)
	binary.LittleEndian.PutUint32(table[4:], 0)
	binary.LittleEndian.PutUint32(table[8:], 2)
	binary.LittleEndian.PutUint32(table[12:], uint32(len(table)))
	return append(table, records...)
}

// formatEntry renders one entry the way the CLI prints it.
func formatEntry(entry msgtable.Entry) string {
	return fmt.Sprintf("%8x: %s", entry.ID, entry.Text)
}
