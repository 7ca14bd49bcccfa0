// Package pe opens PE executable and library images and locates the
// resources embedded in them.
package pe

import (
	"debug/pe"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"go.uber.org/zap"

	"github.com/goetzr/dump-msg-tables/internal/winerr"
)

// Module is an opened PE image with additional metadata. The underlying file
// handle stays open so resource data can be read on demand; Close releases
// it, invalidating any byte views fetched from the module.
type Module struct {
	file     *pe.File
	raw      *os.File
	filepath string
	filesize int64
}

// Open loads the PE image at filepath.
func Open(filepath string) (*Module, error) {
	raw, err := os.Open(filepath)
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrNotExist):
			err = winerr.New(winerr.ModNotFound)
		case errors.Is(err, fs.ErrPermission):
			err = winerr.New(winerr.AccessDenied)
		}
		return nil, fmt.Errorf("load the module %s: %w", filepath, err)
	}

	f, err := pe.NewFile(raw)
	if err != nil {
		raw.Close()
		Logger().Debug("image not parseable as PE",
			zap.String("path", filepath),
			zap.Error(err))
		return nil, fmt.Errorf("load the module %s: %w", filepath, winerr.New(winerr.BadExeFormat))
	}

	stat, err := raw.Stat()
	if err != nil {
		raw.Close()
		return nil, fmt.Errorf("load the module %s: %w", filepath, err)
	}

	Logger().Debug("module loaded",
		zap.String("path", filepath),
		zap.Int64("size", stat.Size()),
		zap.Int("sections", len(f.Sections)))

	return &Module{
		file:     f,
		raw:      raw,
		filepath: filepath,
		filesize: stat.Size(),
	}, nil
}

// Close closes the module's file handle.
func (m *Module) Close() error {
	return m.raw.Close()
}

// File returns the parsed debug/pe file.
func (m *Module) File() *pe.File {
	return m.file
}

// RawFile returns the underlying file for raw offset reads.
func (m *Module) RawFile() *os.File {
	return m.raw
}

// Path returns the path the module was loaded from.
func (m *Module) Path() string {
	return m.filepath
}

// Size returns the file size in bytes.
func (m *Module) Size() int64 {
	return m.filesize
}

// Architecture names the machine the image was built for.
func (m *Module) Architecture() string {
	switch m.file.Machine {
	case pe.IMAGE_FILE_MACHINE_I386:
		return "x86"
	case pe.IMAGE_FILE_MACHINE_AMD64:
		return "x64"
	case pe.IMAGE_FILE_MACHINE_ARM:
		return "ARM"
	case pe.IMAGE_FILE_MACHINE_ARM64:
		return "ARM64"
	}
	return fmt.Sprintf("unknown (0x%X)", m.file.Machine)
}
