package pe

import (
	"debug/pe"
	"encoding/binary"
	"fmt"
	"io"
	"unicode/utf16"

	"go.uber.org/zap"

	"github.com/goetzr/dump-msg-tables/internal/resid"
	"github.com/goetzr/dump-msg-tables/internal/winerr"
)

// IMAGE_RESOURCE_DIRECTORY structure.
type resourceDirectory struct {
	Characteristics      uint32
	TimeDateStamp        uint32
	MajorVersion         uint16
	MinorVersion         uint16
	NumberOfNamedEntries uint16
	NumberOfIdEntries    uint16
}

// IMAGE_RESOURCE_DIRECTORY_ENTRY structure.
type resourceDirectoryEntry struct {
	NameOrID                uint32
	OffsetToDataOrDirectory uint32
}

// IMAGE_RESOURCE_DATA_ENTRY structure.
type resourceDataEntry struct {
	OffsetToData uint32
	Size         uint32
	CodePage     uint32
	Reserved     uint32
}

const (
	directorySize      = 16
	directoryEntrySize = 8
	dataEntrySize      = 16

	// Sanity caps so a garbage directory cannot drive unbounded reads.
	maxDirectoryEntries = 4096
	maxNameLength       = 256
)

// typeNames maps well-known ordinal resource types to their SDK names.
var typeNames = map[uint16]string{
	1:  "RT_CURSOR",
	2:  "RT_BITMAP",
	3:  "RT_ICON",
	4:  "RT_MENU",
	5:  "RT_DIALOG",
	6:  "RT_STRING",
	7:  "RT_FONTDIR",
	8:  "RT_FONT",
	9:  "RT_ACCELERATOR",
	10: "RT_RCDATA",
	11: "RT_MESSAGETABLE",
	12: "RT_GROUP_CURSOR",
	14: "RT_GROUP_ICON",
	16: "RT_VERSION",
	17: "RT_DLGINCLUDE",
	19: "RT_PLUGPLAY",
	20: "RT_VXD",
	21: "RT_ANICURSOR",
	22: "RT_ANIICON",
	23: "RT_HTML",
	24: "RT_MANIFEST",
}

// TypeName renders a resource type for display: the SDK name for well-known
// ordinals, otherwise the identifier itself.
func TypeName(typ resid.ID) string {
	if n, ok := typ.Ordinal(); ok {
		if name, ok := typeNames[n]; ok {
			return name
		}
	}
	return typ.String()
}

// TypeCount summarizes one resource type present in a module.
type TypeCount struct {
	Type  resid.ID
	Count int
}

// ResourceIDs lists the identifiers of every resource of the given type, in
// the module's own declaration order (named entries precede ordinal entries,
// as stored in the directory). A module without a resource directory fails
// with code 1812, one without resources of this type with code 1813.
func (m *Module) ResourceIDs(typ resid.ID) ([]resid.ID, error) {
	base, err := m.resourceRoot()
	if err != nil {
		return nil, err
	}

	typeEntry, err := m.findEntry(base, base, typ)
	if err != nil {
		return nil, err
	}
	if typeEntry == nil {
		return nil, winerr.New(winerr.ResourceTypeNotFound)
	}

	nameDir, err := subdirectory(base, typeEntry)
	if err != nil {
		return nil, err
	}
	entries, err := m.readDirectory(nameDir)
	if err != nil {
		return nil, err
	}

	ids := make([]resid.ID, 0, len(entries))
	for i := range entries {
		id, err := m.entryID(base, entries[i])
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	Logger().Debug("enumerated resources",
		zap.String("type", TypeName(typ)),
		zap.Int("count", len(ids)))

	return ids, nil
}

// ResourceData returns the raw bytes of one resource. The lookup runs in
// three phases: find walks the type, name, and language levels down to the
// leaf data entry; load resolves the data RVA to a file offset; lock reads
// the declared byte range out of the file.
func (m *Module) ResourceData(id, typ resid.ID) ([]byte, error) {
	dataEntry, err := m.findResource(id, typ)
	if err != nil {
		return nil, fmt.Errorf("find the resource: %w", err)
	}

	offset, err := rvaToOffset(m.file, dataEntry.OffsetToData)
	if err != nil {
		Logger().Debug("resource data RVA outside all sections",
			zap.Uint32("rva", dataEntry.OffsetToData))
		return nil, fmt.Errorf("load the resource: %w", winerr.New(winerr.InvalidData))
	}

	data := make([]byte, dataEntry.Size)
	if _, err := m.raw.ReadAt(data, int64(offset)); err != nil {
		Logger().Debug("resource data range unreadable",
			zap.Uint32("offset", offset),
			zap.Uint32("size", dataEntry.Size),
			zap.Error(err))
		return nil, fmt.Errorf("lock the resource: %w", winerr.New(winerr.InvalidData))
	}

	Logger().Debug("fetched resource",
		zap.Stringer("id", id),
		zap.String("type", TypeName(typ)),
		zap.Uint32("size", dataEntry.Size))

	return data, nil
}

// ResourceTypes summarizes the resource types present in the module, in
// declaration order, with the number of resources under each.
func (m *Module) ResourceTypes() ([]TypeCount, error) {
	base, err := m.resourceRoot()
	if err != nil {
		return nil, err
	}
	entries, err := m.readDirectory(base)
	if err != nil {
		return nil, err
	}

	counts := make([]TypeCount, 0, len(entries))
	for i := range entries {
		typ, err := m.entryID(base, entries[i])
		if err != nil {
			return nil, err
		}
		count := 0
		if entries[i].OffsetToDataOrDirectory&0x80000000 != 0 {
			sub, err := m.readDirectory(base + int64(entries[i].OffsetToDataOrDirectory&0x7FFFFFFF))
			if err != nil {
				return nil, err
			}
			count = len(sub)
		}
		counts = append(counts, TypeCount{Type: typ, Count: count})
	}
	return counts, nil
}

// resourceRoot locates the resource directory (Data Directory[2]) and
// returns its file offset.
func (m *Module) resourceRoot() (int64, error) {
	var rva, size uint32
	switch oh := m.file.OptionalHeader.(type) {
	case *pe.OptionalHeader32:
		if len(oh.DataDirectory) > pe.IMAGE_DIRECTORY_ENTRY_RESOURCE {
			rva = oh.DataDirectory[pe.IMAGE_DIRECTORY_ENTRY_RESOURCE].VirtualAddress
			size = oh.DataDirectory[pe.IMAGE_DIRECTORY_ENTRY_RESOURCE].Size
		}
	case *pe.OptionalHeader64:
		if len(oh.DataDirectory) > pe.IMAGE_DIRECTORY_ENTRY_RESOURCE {
			rva = oh.DataDirectory[pe.IMAGE_DIRECTORY_ENTRY_RESOURCE].VirtualAddress
			size = oh.DataDirectory[pe.IMAGE_DIRECTORY_ENTRY_RESOURCE].Size
		}
	}
	if rva == 0 || size == 0 {
		return 0, winerr.New(winerr.ResourceDataNotFound)
	}

	offset, err := rvaToOffset(m.file, rva)
	if err != nil {
		return 0, fmt.Errorf("locate resource directory: %w", err)
	}
	return int64(offset), nil
}

// findResource walks the type, name, and language levels to the data entry
// behind one resource. The first language sub-entry wins; localized
// selection is out of scope.
func (m *Module) findResource(id, typ resid.ID) (*resourceDataEntry, error) {
	base, err := m.resourceRoot()
	if err != nil {
		return nil, err
	}

	typeEntry, err := m.findEntry(base, base, typ)
	if err != nil {
		return nil, err
	}
	if typeEntry == nil {
		return nil, winerr.New(winerr.ResourceTypeNotFound)
	}

	nameDir, err := subdirectory(base, typeEntry)
	if err != nil {
		return nil, err
	}
	nameEntry, err := m.findEntry(base, nameDir, id)
	if err != nil {
		return nil, err
	}
	if nameEntry == nil {
		return nil, winerr.New(winerr.ResourceNameNotFound)
	}

	langDir, err := subdirectory(base, nameEntry)
	if err != nil {
		return nil, err
	}
	langEntries, err := m.readDirectory(langDir)
	if err != nil {
		return nil, err
	}
	if len(langEntries) == 0 {
		return nil, winerr.New(winerr.ResourceLangNotFound)
	}

	leaf := langEntries[0]
	if leaf.OffsetToDataOrDirectory&0x80000000 != 0 {
		return nil, fmt.Errorf("language entry leads to another directory: %w",
			winerr.New(winerr.InvalidData))
	}

	var dataEntry resourceDataEntry
	offset := base + int64(leaf.OffsetToDataOrDirectory)
	sr := io.NewSectionReader(m.raw, offset, dataEntrySize)
	if err := binary.Read(sr, binary.LittleEndian, &dataEntry); err != nil {
		return nil, fmt.Errorf("read resource data entry at %#x: %w", offset, err)
	}
	return &dataEntry, nil
}

// readDirectory reads one directory table and all of its entries.
func (m *Module) readDirectory(offset int64) ([]resourceDirectoryEntry, error) {
	var dir resourceDirectory
	sr := io.NewSectionReader(m.raw, offset, directorySize)
	if err := binary.Read(sr, binary.LittleEndian, &dir); err != nil {
		return nil, fmt.Errorf("read resource directory at %#x: %w", offset, err)
	}

	total := int(dir.NumberOfNamedEntries) + int(dir.NumberOfIdEntries)
	if total > maxDirectoryEntries {
		return nil, fmt.Errorf("resource directory at %#x declares %d entries: %w",
			offset, total, winerr.New(winerr.InvalidData))
	}
	if total == 0 {
		return nil, nil
	}

	entries := make([]resourceDirectoryEntry, total)
	sr = io.NewSectionReader(m.raw, offset+directorySize, int64(total)*directoryEntrySize)
	if err := binary.Read(sr, binary.LittleEndian, entries); err != nil {
		return nil, fmt.Errorf("read resource directory entries at %#x: %w", offset, err)
	}
	return entries, nil
}

// findEntry scans one directory level for the entry matching want.
// A nil entry with nil error means the level holds no match.
func (m *Module) findEntry(base, dirOffset int64, want resid.ID) (*resourceDirectoryEntry, error) {
	entries, err := m.readDirectory(dirOffset)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		id, err := m.entryID(base, entries[i])
		if err != nil {
			return nil, err
		}
		if id == want {
			return &entries[i], nil
		}
	}
	return nil, nil
}

// entryID decodes a directory entry's identifier. Directory names of the
// "#123" form normalize to ordinals, so a decoded Name never shadows an
// ordinal identifier.
func (m *Module) entryID(base int64, entry resourceDirectoryEntry) (resid.ID, error) {
	if entry.NameOrID&0x80000000 == 0 {
		return resid.Ordinal(uint16(entry.NameOrID)), nil
	}

	offset := base + int64(entry.NameOrID&0x7FFFFFFF)
	var length uint16
	sr := io.NewSectionReader(m.raw, offset, 2)
	if err := binary.Read(sr, binary.LittleEndian, &length); err != nil {
		return resid.ID{}, fmt.Errorf("read resource name at %#x: %w", offset, err)
	}
	if length == 0 || length > maxNameLength {
		return resid.ID{}, fmt.Errorf("resource name at %#x has length %d: %w",
			offset, length, winerr.New(winerr.InvalidData))
	}

	data := make([]byte, int(length)*2)
	if _, err := m.raw.ReadAt(data, offset+2); err != nil {
		return resid.ID{}, fmt.Errorf("read resource name at %#x: %w", offset, err)
	}
	return resid.FromString(decodeUTF16(data))
}

// subdirectory returns the file offset of the directory a non-leaf entry
// points to.
func subdirectory(base int64, entry *resourceDirectoryEntry) (int64, error) {
	if entry.OffsetToDataOrDirectory&0x80000000 == 0 {
		return 0, fmt.Errorf("directory entry leads to data where a subdirectory was expected: %w",
			winerr.New(winerr.InvalidData))
	}
	return base + int64(entry.OffsetToDataOrDirectory&0x7FFFFFFF), nil
}

// rvaToOffset converts a relative virtual address to a file offset by
// scanning the section table.
func rvaToOffset(f *pe.File, rva uint32) (uint32, error) {
	for _, section := range f.Sections {
		if rva >= section.VirtualAddress && rva < section.VirtualAddress+section.VirtualSize {
			return rva - section.VirtualAddress + section.Offset, nil
		}
	}
	return 0, fmt.Errorf("RVA 0x%X is not inside any section", rva)
}

func decodeUTF16(data []byte) string {
	if len(data)%2 != 0 {
		return ""
	}

	u16 := make([]uint16, len(data)/2)
	for i := 0; i < len(u16); i++ {
		u16[i] = binary.LittleEndian.Uint16(data[i*2:])
	}

	return string(utf16.Decode(u16))
}
