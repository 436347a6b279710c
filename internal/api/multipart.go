package api

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"sort"
)

// File is one upload part.
type File struct {
	Name    string
	Content io.Reader
}

// OpenFiles opens local paths as upload parts. The returned func closes them.
func OpenFiles(paths []string) ([]File, func(), error) {
	files := make([]File, 0, len(paths))
	closers := make([]io.Closer, 0, len(paths))
	closeAll := func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}

	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			closeAll()
			return nil, func() {}, fmt.Errorf("failed to open %s: %w", p, err)
		}
		closers = append(closers, f)
		files = append(files, File{Name: filepath.Base(p), Content: f})
	}
	return files, closeAll, nil
}

// multipartRequest builds a form with the plain fields plus one part per
// file, all under fileField.
func multipartRequest(method, route, path string, fields map[string]string, fileField string, files []File) (request, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if fields[k] == "" {
			continue
		}
		if err := w.WriteField(k, fields[k]); err != nil {
			return request{}, fmt.Errorf("failed to write form field %s: %w", k, err)
		}
	}

	for _, f := range files {
		part, err := w.CreateFormFile(fileField, f.Name)
		if err != nil {
			return request{}, fmt.Errorf("failed to create form file %s: %w", f.Name, err)
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return request{}, fmt.Errorf("failed to copy %s: %w", f.Name, err)
		}
	}

	if err := w.Close(); err != nil {
		return request{}, fmt.Errorf("failed to finish form: %w", err)
	}

	return request{
		method:      method,
		route:       route,
		path:        path,
		body:        &buf,
		contentType: w.FormDataContentType(),
	}, nil
}
