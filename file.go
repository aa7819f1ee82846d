package vfont

import (
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/andybalholm/brotli"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// readFile reads a whole file. Files ending in .gz or .br are decompressed. The file is closed before returning.
func readFile(name string) ([]byte, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, ioError("open", name, err)
	}
	defer f.Close()

	var r io.Reader = f
	switch strings.ToLower(filepath.Ext(name)) {
	case ".gz":
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, ioError("read", name, err)
		}
		defer zr.Close()
		r = zr
	case ".br":
		r = brotli.NewReader(f)
	}

	b, err := io.ReadAll(r)
	if err != nil {
		return nil, ioError("read", name, err)
	}
	return b, nil
}

// writeFile writes b to a temporary file next to name and renames it into place, so that a failed write never leaves a partial file behind. Files ending in .gz or .br are compressed.
func writeFile(name string, b []byte) error {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".gz":
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(b); err != nil {
			return ioError("compress", name, err)
		} else if err := zw.Close(); err != nil {
			return ioError("compress", name, err)
		}
		b = buf.Bytes()
	case ".br":
		var buf bytes.Buffer
		bw := brotli.NewWriterLevel(&buf, brotli.BestCompression)
		if _, err := bw.Write(b); err != nil {
			return ioError("compress", name, err)
		} else if err := bw.Close(); err != nil {
			return ioError("compress", name, err)
		}
		b = buf.Bytes()
	}

	dir, base := filepath.Split(name)
	if dir == "" {
		dir = "."
	}
	f, err := os.CreateTemp(dir, "."+base+".tmp*")
	if err != nil {
		return ioError("create", name, err)
	}
	tmp := f.Name()
	if _, err := f.Write(b); err != nil {
		f.Close()
		os.Remove(tmp)
		return ioError("write", name, err)
	} else if err := f.Close(); err != nil {
		os.Remove(tmp)
		return ioError("write", name, err)
	} else if err := os.Chmod(tmp, 0o644); err != nil {
		os.Remove(tmp)
		return ioError("chmod", name, err)
	} else if err := os.Rename(tmp, name); err != nil {
		os.Remove(tmp)
		return ioError("rename", name, err)
	}
	return nil
}

// decodeText converts text input to UTF-8, honouring a UTF-8 or UTF-16 byte order mark and stripping it.
func decodeText(b []byte) ([]byte, error) {
	b, _, err := transform.Bytes(unicode.BOMOverride(transform.Nop), b)
	if err != nil {
		return nil, err
	}
	return b, nil
}
