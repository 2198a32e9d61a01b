// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"
)

// Entry is one file inside a zip archive.
type Entry struct {
	Name string
	Data []byte
}

// ReadEntries returns all file entries of a zip archive held in memory.
// Directory entries are skipped.
func ReadEntries(data []byte) ([]Entry, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open zip archive: %w", err)
	}

	entries := make([]Entry, 0, len(zr.File))
	for _, file := range zr.File {
		if file.FileInfo().IsDir() || strings.HasSuffix(file.Name, "/") {
			continue
		}
		content, readErr := readZipFile(file)
		if readErr != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file.Name, readErr)
		}
		entries = append(entries, Entry{Name: file.Name, Data: content})
	}
	return entries, nil
}

// WriteEntries builds a zip archive from entries, in order.
func WriteEntries(entries []Entry) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: e.Name, Method: zip.Deflate})
		if err != nil {
			return nil, fmt.Errorf("failed to create ZIP entry %s: %w", e.Name, err)
		}
		if _, err := w.Write(e.Data); err != nil {
			return nil, fmt.Errorf("failed to write ZIP entry %s: %w", e.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize ZIP archive: %w", err)
	}
	return buf.Bytes(), nil
}

// MapEntries rewrites every entry of a zip archive through fn. Returning
// keep=false drops the entry.
func MapEntries(data []byte, fn func(Entry) (out Entry, keep bool, err error)) ([]byte, error) {
	entries, err := ReadEntries(data)
	if err != nil {
		return nil, err
	}
	mapped := make([]Entry, 0, len(entries))
	for _, e := range entries {
		out, keep, fnErr := fn(e)
		if fnErr != nil {
			return nil, fmt.Errorf("%s: %w", e.Name, fnErr)
		}
		if keep {
			mapped = append(mapped, out)
		}
	}
	return WriteEntries(mapped)
}

func readZipFile(file *zip.File) (data []byte, err error) {
	rc, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := rc.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	//nolint:gosec // G110: archives come from the operator's own platform or branch
	return io.ReadAll(rc)
}
