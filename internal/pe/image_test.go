package pe

import (
	"bytes"
	"debug/pe"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/require"

	"github.com/goetzr/dump-msg-tables/internal/resid"
)

// testResource is one resource to embed in a built image. The override
// fields let corrupt-image tests declare a data entry that lies about its
// location or size; zero means use the real value.
type testResource struct {
	typ  resid.ID
	id   resid.ID
	lang uint16
	data []byte

	declaredSize uint32
	rvaOverride  uint32
}

const testRsrcRVA = 0x1000

// buildResourceSection lays out a resource directory the way a linker does:
// root type level, name level, language level, data entries, name strings,
// then the data blobs. Named identifiers precede ordinal ones at every
// level, matching on-disk convention.
func buildResourceSection(t *testing.T, resources []testResource) []byte {
	t.Helper()

	type group struct {
		typ     resid.ID
		entries []testResource
	}
	var groups []group
	find := func(typ resid.ID) int {
		for i := range groups {
			if groups[i].typ == typ {
				return i
			}
		}
		groups = append(groups, group{typ: typ})
		return len(groups) - 1
	}
	for _, r := range resources {
		if _, ok := r.typ.Name(); ok {
			find(r.typ)
		}
	}
	for _, r := range resources {
		if _, ok := r.typ.Ordinal(); ok {
			find(r.typ)
		}
	}
	for _, r := range resources {
		if _, ok := r.id.Name(); ok {
			gi := find(r.typ)
			groups[gi].entries = append(groups[gi].entries, r)
		}
	}
	for _, r := range resources {
		if _, ok := r.id.Ordinal(); ok {
			gi := find(r.typ)
			groups[gi].entries = append(groups[gi].entries, r)
		}
	}

	// Offset plan, in write order.
	cur := directorySize + directoryEntrySize*len(groups)
	nameDirOff := make([]int, len(groups))
	for gi := range groups {
		nameDirOff[gi] = cur
		cur += directorySize + directoryEntrySize*len(groups[gi].entries)
	}
	langDirOff := make(map[[2]int]int)
	for gi := range groups {
		for ei := range groups[gi].entries {
			langDirOff[[2]int{gi, ei}] = cur
			cur += directorySize + directoryEntrySize
		}
	}
	dataEntryOff := make(map[[2]int]int)
	for gi := range groups {
		for ei := range groups[gi].entries {
			dataEntryOff[[2]int{gi, ei}] = cur
			cur += dataEntrySize
		}
	}
	strOff := make(map[string]int)
	addString := func(id resid.ID) {
		name, ok := id.Name()
		if !ok {
			return
		}
		if _, done := strOff[name]; done {
			return
		}
		strOff[name] = cur
		cur += 2 + 2*len(utf16.Encode([]rune(name)))
	}
	for gi := range groups {
		addString(groups[gi].typ)
		for ei := range groups[gi].entries {
			addString(groups[gi].entries[ei].id)
		}
	}
	blobOff := make(map[[2]int]int)
	for gi := range groups {
		for ei := range groups[gi].entries {
			blobOff[[2]int{gi, ei}] = cur
			cur += len(groups[gi].entries[ei].data)
		}
	}

	var buf bytes.Buffer
	writeU16 := func(v uint16) { binary.Write(&buf, binary.LittleEndian, v) }
	writeU32 := func(v uint32) { binary.Write(&buf, binary.LittleEndian, v) }
	writeDir := func(named, ids int) {
		writeU32(0)
		writeU32(0)
		writeU16(0)
		writeU16(0)
		writeU16(uint16(named))
		writeU16(uint16(ids))
	}
	nameField := func(id resid.ID) uint32 {
		if name, ok := id.Name(); ok {
			return 0x80000000 | uint32(strOff[name])
		}
		n, _ := id.Ordinal()
		return uint32(n)
	}
	countNamed := func(ids []resid.ID) int {
		named := 0
		for _, id := range ids {
			if _, ok := id.Name(); ok {
				named++
			}
		}
		return named
	}

	var typeIDs []resid.ID
	for _, g := range groups {
		typeIDs = append(typeIDs, g.typ)
	}
	writeDir(countNamed(typeIDs), len(groups)-countNamed(typeIDs))
	for gi, g := range groups {
		writeU32(nameField(g.typ))
		writeU32(0x80000000 | uint32(nameDirOff[gi]))
	}

	for gi, g := range groups {
		require.Equal(t, nameDirOff[gi], buf.Len())
		var entryIDs []resid.ID
		for _, e := range g.entries {
			entryIDs = append(entryIDs, e.id)
		}
		writeDir(countNamed(entryIDs), len(g.entries)-countNamed(entryIDs))
		for ei := range g.entries {
			writeU32(nameField(g.entries[ei].id))
			writeU32(0x80000000 | uint32(langDirOff[[2]int{gi, ei}]))
		}
	}

	for gi, g := range groups {
		for ei, e := range g.entries {
			require.Equal(t, langDirOff[[2]int{gi, ei}], buf.Len())
			writeDir(0, 1)
			writeU32(uint32(e.lang))
			writeU32(uint32(dataEntryOff[[2]int{gi, ei}]))
		}
	}

	for gi, g := range groups {
		for ei, e := range g.entries {
			require.Equal(t, dataEntryOff[[2]int{gi, ei}], buf.Len())
			rva := uint32(testRsrcRVA + blobOff[[2]int{gi, ei}])
			if e.rvaOverride != 0 {
				rva = e.rvaOverride
			}
			size := uint32(len(e.data))
			if e.declaredSize != 0 {
				size = e.declaredSize
			}
			writeU32(rva)
			writeU32(size)
			writeU32(0)
			writeU32(0)
		}
	}

	written := make(map[string]bool)
	writeString := func(id resid.ID) {
		name, ok := id.Name()
		if !ok || written[name] {
			return
		}
		written[name] = true
		require.Equal(t, strOff[name], buf.Len())
		units := utf16.Encode([]rune(name))
		writeU16(uint16(len(units)))
		for _, u := range units {
			writeU16(u)
		}
	}
	for gi := range groups {
		writeString(groups[gi].typ)
		for ei := range groups[gi].entries {
			writeString(groups[gi].entries[ei].id)
		}
	}

	for gi, g := range groups {
		for ei, e := range g.entries {
			require.Equal(t, blobOff[[2]int{gi, ei}], buf.Len())
			buf.Write(e.data)
		}
	}

	return buf.Bytes()
}

// writeImage assembles a minimal PE32+ image with one .rsrc section holding
// payload, writes it to a temp file, and returns the path.
func writeImage(t *testing.T, payload []byte, resDir pe.DataDirectory) string {
	t.Helper()

	const (
		peOffset      = 0x80
		sectionOffset = 0x200
	)

	var buf bytes.Buffer

	// DOS header: magic plus the PE signature offset at 0x3c.
	dos := make([]byte, peOffset)
	dos[0], dos[1] = 'M', 'Z'
	binary.LittleEndian.PutUint32(dos[0x3c:], peOffset)
	buf.Write(dos)

	buf.WriteString("PE\x00\x00")

	fh := pe.FileHeader{
		Machine:              pe.IMAGE_FILE_MACHINE_AMD64,
		NumberOfSections:     1,
		SizeOfOptionalHeader: 240,
		Characteristics:      pe.IMAGE_FILE_EXECUTABLE_IMAGE | pe.IMAGE_FILE_LARGE_ADDRESS_AWARE,
	}
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, fh))

	oh := pe.OptionalHeader64{
		Magic:                 0x20b,
		ImageBase:             0x140000000,
		SectionAlignment:      0x1000,
		FileAlignment:         0x200,
		MajorSubsystemVersion: 6,
		SizeOfImage:           0x2000,
		SizeOfHeaders:         sectionOffset,
		Subsystem:             pe.IMAGE_SUBSYSTEM_WINDOWS_CUI,
		NumberOfRvaAndSizes:   16,
	}
	oh.DataDirectory[pe.IMAGE_DIRECTORY_ENTRY_RESOURCE] = resDir
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, oh))

	var name [8]uint8
	copy(name[:], ".rsrc")
	sh := pe.SectionHeader32{
		Name:             name,
		VirtualSize:      uint32(len(payload)),
		VirtualAddress:   testRsrcRVA,
		SizeOfRawData:    uint32(len(payload)),
		PointerToRawData: sectionOffset,
		Characteristics:  0x40000040,
	}
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, sh))

	require.LessOrEqual(t, buf.Len(), sectionOffset)
	buf.Write(make([]byte, sectionOffset-buf.Len()))
	buf.Write(payload)

	path := filepath.Join(t.TempDir(), "module.dll")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

// writeTestImage builds an image embedding the given resources.
func writeTestImage(t *testing.T, resources ...testResource) string {
	t.Helper()
	payload := buildResourceSection(t, resources)
	return writeImage(t, payload, pe.DataDirectory{
		VirtualAddress: testRsrcRVA,
		Size:           uint32(len(payload)),
	})
}
