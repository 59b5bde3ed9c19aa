package util

import (
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strings"
)

var ErrRequestTooLarge = errors.New("request body too large")

type MultipartFile struct {
	Field  string
	File   multipart.File
	Header *multipart.FileHeader
}

// ContentType returns the part's declared content type, if any.
func (mf *MultipartFile) ContentType() string {
	if mf.Header == nil {
		return ""
	}
	return mf.Header.Header.Get("Content-Type")
}

// ReadAll reads the whole file part. Upload bodies are sent to more than one
// backend, so they are buffered once.
func (mf *MultipartFile) ReadAll() ([]byte, error) {
	if mf.File == nil {
		return nil, fmt.Errorf("file part %q is not open", mf.Field)
	}
	return io.ReadAll(mf.File)
}

type ParsedMultipart struct {
	Values map[string]string
	Files  []MultipartFile
	form   *multipart.Form
}

// Close closes open file parts and removes any temporary files the parser spilled to disk.
func (pm *ParsedMultipart) Close() {
	for _, mf := range pm.Files {
		if mf.File != nil {
			mf.File.Close()
		}
	}
	if pm.form != nil {
		_ = pm.form.RemoveAll()
	}
}

// FileByKey returns the first file uploaded under any of keys, in key order.
func (pm *ParsedMultipart) FileByKey(keys ...string) *MultipartFile {
	for _, key := range keys {
		for i := range pm.Files {
			if pm.Files[i].Field == key {
				return &pm.Files[i]
			}
		}
	}

	return nil
}

// Value returns the trimmed form value for key.
func (pm *ParsedMultipart) Value(key string) string {
	return strings.TrimSpace(pm.Values[key])
}

// ParseMultipart parses a multipart body capped at maxPayload bytes. Files above
// maxFileSize are skipped and logged rather than failing the request.
func ParseMultipart(w http.ResponseWriter, r *http.Request, maxPayload, maxMemory, maxFileSize int64) (*ParsedMultipart, error) {
	if maxPayload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxPayload)
	}

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("%w: limit is %d bytes", ErrRequestTooLarge, tooLarge.Limit)
		}
		return nil, err
	}

	return &ParsedMultipart{
		Values: extractValues(r),
		Files:  extractFiles(r, maxFileSize),
		form:   r.MultipartForm,
	}, nil
}

func extractValues(r *http.Request) map[string]string {
	values := make(map[string]string)

	if r.MultipartForm != nil {
		for key, arr := range r.MultipartForm.Value {
			if len(arr) > 0 {
				values[key] = arr[0]
			}
		}
	}

	return values
}

func extractFiles(r *http.Request, maxFileSize int64) []MultipartFile {
	var filesOut []MultipartFile

	if r.MultipartForm == nil {
		return nil
	}

	for key, fhs := range r.MultipartForm.File {
		for _, fh := range fhs {
			if maxFileSize > 0 && fh.Size > maxFileSize {
				log.Println("skipped too large file:", fh.Filename, fh.Size)
				continue
			}

			f, err := fh.Open()
			if err != nil {
				log.Println("skipped file, could not open:", fh.Filename, err)
				continue
			}

			filesOut = append(filesOut, MultipartFile{Field: key, File: f, Header: fh})
		}
	}

	return filesOut
}
