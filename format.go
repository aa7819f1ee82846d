package vfont

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// Format is an on-disk font representation. Load reads a file or directory into a new Font, Save writes a Font. Formats that cannot be written return ErrInvalidArgument from Save.
type Format interface {
	Name() string
	Load(name string) (*Font, []*ParseWarning, error)
	Save(f *Font, name string) error
}

// Raster is the packed raster format with a VFNT header.
type Raster struct {
	HeightHint uint32
}

func (Raster) Name() string { return "raster" }

func (c Raster) Load(name string) (*Font, []*ParseWarning, error) {
	f, err := LoadRaster(name, c.HeightHint)
	return f, nil, err
}

func (Raster) Save(f *Font, name string) error { return f.SaveRaster(name) }

// RawFNT is the headerless 256 glyph console font. If Codepage is set, its mapping is attached to loaded fonts.
type RawFNT struct {
	HeightHint uint32
	Codepage   *charmap.Charmap
}

func (RawFNT) Name() string { return "fnt" }

func (c RawFNT) Load(name string) (*Font, []*ParseWarning, error) {
	f, err := LoadRawFNT(name, c.HeightHint)
	if err == nil && c.Codepage != nil {
		f.Unicode = CharmapUnicodeMap(c.Codepage)
	}
	return f, nil, err
}

func (RawFNT) Save(f *Font, name string) error { return f.SaveRawFNT(name) }

// Hex is the hex interchange text format.
type Hex struct {
	HexOptions
}

func (Hex) Name() string { return "hex" }

func (c Hex) Load(name string) (*Font, []*ParseWarning, error) {
	return LoadHex(name, c.HexOptions)
}

func (c Hex) Save(f *Font, name string) error { return f.SaveHex(name, c.HexOptions) }

// PSF is the PC screen font format.
type PSF struct {
	PSFOptions
}

func (PSF) Name() string { return "psf" }

func (PSF) Load(name string) (*Font, []*ParseWarning, error) {
	f, err := LoadPSF(name)
	return f, nil, err
}

func (c PSF) Save(f *Font, name string) error { return f.SavePSF(name, c.PSFOptions) }

// CLT is the one-file-per-glyph directory format.
type CLT struct {
	CLTOptions
}

func (CLT) Name() string { return "clt" }

func (CLT) Load(name string) (*Font, []*ParseWarning, error) {
	f, err := LoadCLT(name)
	return f, nil, err
}

func (c CLT) Save(f *Font, name string) error { return f.SaveCLT(name, c.CLTOptions) }

// FormatByName returns the format with default options for a name as returned by Format.Name.
func FormatByName(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "raster", "vfnt":
		return Raster{}, nil
	case "fnt":
		return RawFNT{}, nil
	case "hex":
		return Hex{}, nil
	case "psf", "psf1", "psf2":
		return PSF{}, nil
	case "clt":
		return CLT{}, nil
	}
	return nil, fmt.Errorf("unknown format %q: %w", name, ErrInvalidArgument)
}

// FormatByExtension guesses the format from a file name, ignoring a trailing .gz or .br. Names without an extension are taken to be CLT directories.
func FormatByExtension(name string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == ".gz" || ext == ".br" {
		ext = strings.ToLower(filepath.Ext(strings.TrimSuffix(name, filepath.Ext(name))))
	}
	switch ext {
	case ".vfnt":
		return Raster{}, nil
	case ".fnt":
		return RawFNT{}, nil
	case ".hex":
		return Hex{}, nil
	case ".psf", ".psfu":
		return PSF{}, nil
	case "", ".clt":
		return CLT{}, nil
	}
	return nil, fmt.Errorf("unknown extension %q: %w", ext, ErrInvalidArgument)
}

// DetectFormat returns the format of file data by its magic bytes. Hex and headerless fonts have no magic and are not detected.
func DetectFormat(b []byte) (Format, error) {
	switch {
	case bytes.HasPrefix(b, []byte(rasterMagic)):
		return Raster{}, nil
	case bytes.HasPrefix(b, []byte{psf1Magic0, psf1Magic1}), bytes.HasPrefix(b, []byte(psf2Magic)):
		return PSF{}, nil
	}
	return nil, fmt.Errorf("unknown format: %w", ErrInvalidFontData)
}
