package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/five82/shelf/internal/bookapi"
)

func TestNewPrinter_Formats(t *testing.T) {
	for _, format := range []string{"", "text", "JSON", " yaml "} {
		if _, err := newPrinter(format, io.Discard); err != nil {
			t.Fatalf("newPrinter(%q) error = %v", format, err)
		}
	}
	if _, err := newPrinter("xml", io.Discard); err == nil {
		t.Fatalf("newPrinter(xml) succeeded, want error")
	}
}

func TestPrinter_TextCallsRenderer(t *testing.T) {
	var buf bytes.Buffer
	p, _ := newPrinter("text", &buf)
	called := false
	err := p.emit(bookapi.Book{ID: 1}, func(w io.Writer) error {
		called = true
		_, err := io.WriteString(w, "rendered\n")
		return err
	})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if !called || buf.String() != "rendered\n" {
		t.Fatalf("output = %q, want renderer output", buf.String())
	}
}

func TestPrinter_JSONUsesWireNames(t *testing.T) {
	var buf bytes.Buffer
	p, _ := newPrinter("json", &buf)
	book := bookapi.Book{ID: 7, Title: "Dune", OwnerName: "Ada"}
	if err := p.emit(book, nil); err != nil {
		t.Fatalf("emit: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["title"] != "Dune" || got["ownerName"] != "Ada" {
		t.Fatalf("json = %v, want title and ownerName keys", got)
	}
}

func TestPrinter_YAMLKeepsJSONKeysInOrder(t *testing.T) {
	var buf bytes.Buffer
	p, _ := newPrinter("yaml", &buf)
	book := bookapi.Book{ID: 7, Title: "Dune", Author: "1965"}
	if err := p.emit(book, nil); err != nil {
		t.Fatalf("emit: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"id: 7", "title: Dune", `author: "1965"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("yaml = %q, want %q", out, want)
		}
	}
	if strings.Index(out, "id:") > strings.Index(out, "title:") {
		t.Fatalf("yaml = %q, want id before title", out)
	}
	if strings.Contains(out, "{") {
		t.Fatalf("yaml = %q, want block style", out)
	}
}

func TestRenderFields_SkipsEmptyValues(t *testing.T) {
	var buf bytes.Buffer
	err := renderFields(&buf, [][2]string{{"Title", "Dune"}, {"Author", ""}, {"ID", "7"}})
	if err != nil {
		t.Fatalf("renderFields: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "Author") {
		t.Fatalf("output = %q, want empty Author skipped", out)
	}
	if got := strings.Count(out, "\n"); got != 2 {
		t.Fatalf("lines = %d, want 2", got)
	}
}

func TestRenderTable_HeadersAndRows(t *testing.T) {
	var buf bytes.Buffer
	err := renderBookTable(&buf, []bookapi.Book{{ID: 3, Title: "Emma", Author: "Austen", CreatedAt: "2024-03-01T10:00:00"}})
	if err != nil {
		t.Fatalf("renderBookTable: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"TITLE", "Emma", "Austen", "2024-03-01"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table = %q, want %q", out, want)
		}
	}
}
