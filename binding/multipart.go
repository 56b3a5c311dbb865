// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package binding

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
)

// MultipartGetter implements [ValueGetter] for multipart form fields and
// additionally gives access to the uploaded files.
//
// Example:
//
//	if err := r.ParseMultipartForm(32 << 20); err != nil {
//	    return err
//	}
//	getter := binding.NewMultipartGetter(r.MultipartForm)
//	avatar, err := getter.File("avatar")
type MultipartGetter struct {
	valuesGetter
	files map[string][]*multipart.FileHeader
}

// NewMultipartGetter creates a [MultipartGetter] from a parsed multipart form.
// A nil form yields an empty getter.
func NewMultipartGetter(form *multipart.Form) *MultipartGetter {
	if form == nil {
		return &MultipartGetter{}
	}

	return &MultipartGetter{
		valuesGetter: valuesGetter{values: form.Value},
		files:        form.File,
	}
}

// File returns the first uploaded file for the given field name.
// Returns [ErrFileNotFound] if no file exists for the field name.
func (m *MultipartGetter) File(name string) (*File, error) {
	headers := m.files[name]
	if len(headers) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrFileNotFound, name)
	}

	return NewFile(headers[0]), nil
}

// Files returns all uploaded files for the given field name.
// Returns [ErrFileNotFound] if no file exists for the field name.
func (m *MultipartGetter) Files(name string) ([]*File, error) {
	headers := m.files[name]
	if len(headers) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrFileNotFound, name)
	}

	files := make([]*File, 0, len(headers))
	for _, h := range headers {
		files = append(files, NewFile(h))
	}

	return files, nil
}

// HasFile reports whether at least one file exists for the field name.
func (m *MultipartGetter) HasFile(name string) bool {
	return len(m.files[name]) > 0
}

// File is an uploaded multipart file.
//
// The content is not read until [File.Open], [File.Bytes] or [File.Save]
// is called.
type File struct {
	Name        string               // Client-provided file name, base name only
	Size        int64                // Size in bytes
	ContentType string               // Content-Type of the part
	Header      textproto.MIMEHeader // All part headers

	fh *multipart.FileHeader
}

// NewFile wraps a multipart file header.
func NewFile(fh *multipart.FileHeader) *File {
	return &File{
		Name:        filepath.Base(fh.Filename),
		Size:        fh.Size,
		ContentType: fh.Header.Get("Content-Type"),
		Header:      fh.Header,
		fh:          fh,
	}
}

// Open opens the file content for reading. The caller closes it.
func (f *File) Open() (multipart.File, error) {
	return f.fh.Open()
}

// Bytes reads the whole file content.
func (f *File) Bytes() ([]byte, error) {
	src, err := f.fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", f.Name, err)
	}
	defer src.Close()

	return io.ReadAll(src)
}

// Save writes the file content to dst, creating parent directories.
//
// Example:
//
//	err := file.Save(filepath.Join(uploadDir, file.Name))
func (f *File) Save(dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return fmt.Errorf("create directory for %q: %w", dst, err)
	}

	src, err := f.fh.Open()
	if err != nil {
		return fmt.Errorf("open %q: %w", f.Name, err)
	}
	defer src.Close()

	out, err := os.Create(filepath.Clean(dst))
	if err != nil {
		return fmt.Errorf("create %q: %w", dst, err)
	}

	if _, err = io.Copy(out, src); err != nil {
		_ = out.Close()
		return fmt.Errorf("write %q: %w", dst, err)
	}

	return out.Close()
}
