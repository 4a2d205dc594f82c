package bookapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Body is a request payload the gateway knows how to encode.
type Body interface {
	encode() (io.Reader, string, error)
}

type jsonBody struct {
	value any
}

// JSONBody encodes v as application/json.
func JSONBody(v any) Body {
	return jsonBody{value: v}
}

func (b jsonBody) encode() (io.Reader, string, error) {
	data, err := json.Marshal(b.value)
	if err != nil {
		return nil, "", fmt.Errorf("encode json body: %w", err)
	}
	return bytes.NewReader(data), "application/json", nil
}

// Attachment is a binary file part. Data is held in memory so a failed
// submission can be retried with the same form.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// OpenAttachment reads the file at path and sniffs its content type.
func OpenAttachment(path string) (*Attachment, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, fmt.Errorf("attachment path is empty")
	}
	data, err := os.ReadFile(filepath.Clean(trimmed))
	if err != nil {
		return nil, fmt.Errorf("read attachment: %w", err)
	}
	return NewAttachment(filepath.Base(trimmed), data), nil
}

// NewAttachment wraps in-memory data, detecting the content type.
func NewAttachment(filename string, data []byte) *Attachment {
	return &Attachment{
		Filename:    filename,
		ContentType: mimetype.Detect(data).String(),
		Data:        data,
	}
}

// Form is a multipart payload of text fields and file attachments.
// Absent values are dropped rather than sent empty.
type Form struct {
	parts []formPart
}

type formPart struct {
	name  string
	value string
	file  *Attachment
}

// NewForm returns an empty multipart form.
func NewForm() *Form {
	return &Form{}
}

// Text adds a field that is always sent, even when empty.
func (f *Form) Text(name, value string) *Form {
	f.parts = append(f.parts, formPart{name: name, value: value})
	return f
}

// Field adds an optional field; nil values are omitted.
func (f *Form) Field(name string, value *string) *Form {
	if value == nil {
		return f
	}
	return f.Text(name, *value)
}

// Attach adds an optional file part; nil or empty attachments are omitted.
func (f *Form) Attach(name string, a *Attachment) *Form {
	if a == nil || len(a.Data) == 0 {
		return f
	}
	f.parts = append(f.parts, formPart{name: name, file: a})
	return f
}

// Names lists the part names in order.
func (f *Form) Names() []string {
	names := make([]string, 0, len(f.parts))
	for _, p := range f.parts {
		names = append(names, p.name)
	}
	return names
}

func (f *Form) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, p := range f.parts {
		if p.file == nil {
			if err := w.WriteField(p.name, p.value); err != nil {
				return nil, "", fmt.Errorf("write field %s: %w", p.name, err)
			}
			continue
		}
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, p.name, p.file.Filename))
		contentType := p.file.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header.Set("Content-Type", contentType)
		part, err := w.CreatePart(header)
		if err != nil {
			return nil, "", fmt.Errorf("create part %s: %w", p.name, err)
		}
		if _, err := part.Write(p.file.Data); err != nil {
			return nil, "", fmt.Errorf("write part %s: %w", p.name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
