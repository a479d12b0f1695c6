package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kailas-cloud/ekn/internal/shard"
)

func TestPack_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "cat.html"), []byte("<p>meow</p>"), 0o600); err != nil {
		t.Fatal(err)
	}
	manifest := strings.Join([]string{
		`{"id":"ekn://animals/0123456789abcdef","metadata":{"@id":"ekn://animals/0123456789abcdef","title":"Cat"},"data":"cat.html"}`,
		``,
		`{"id":"ekn://animals/fedcba9876543210","metadata":{"@id":"ekn://animals/fedcba9876543210","title":"Dog"}}`,
	}, "\n")

	w, err := readManifest(strings.NewReader(manifest), dir, true)
	if err != nil {
		t.Fatalf("readManifest: %v", err)
	}
	out := filepath.Join(dir, "content.shard")
	if err := writeShardFile(out, w); err != nil {
		t.Fatalf("writeShardFile: %v", err)
	}

	f, err := shard.Open(out)
	if err != nil {
		t.Fatalf("shard.Open: %v", err)
	}
	defer f.Close()
	if f.Len() != 2 {
		t.Fatalf("records = %d", f.Len())
	}

	rec, ok := f.Find("0123456789abcdef")
	if !ok {
		t.Fatal("cat record missing")
	}
	data, ok := rec.Data()
	if !ok {
		t.Fatal("cat data missing")
	}
	if data.ContentType() != "text/html; charset=utf-8" && data.ContentType() != "text/html" {
		t.Errorf("content type = %q", data.ContentType())
	}
	rc, err := data.Open()
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	if string(body) != "<p>meow</p>" {
		t.Errorf("body = %q", body)
	}

	dog, ok := f.Find("fedcba9876543210")
	if !ok {
		t.Fatal("dog record missing")
	}
	if _, ok := dog.Data(); ok {
		t.Error("dog has data")
	}

	leftovers, _ := filepath.Glob(filepath.Join(dir, ".tmp-*"))
	if len(leftovers) != 0 {
		t.Errorf("temp files left: %v", leftovers)
	}
}

func TestReadManifest_Rejects(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"bad json", `{"id":`},
		{"bad id", `{"id":"ekn://animals/xyz","metadata":{"@id":"ekn://animals/xyz"}}`},
		{"id mismatch", `{"id":"ekn://animals/0123456789abcdef","metadata":{"@id":"ekn://animals/fedcba9876543210"}}`},
		{"unknown type", `{"id":"ekn://animals/0123456789abcdef","metadata":{"@id":"ekn://animals/0123456789abcdef","@type":"Podcast"}}`},
		{"missing data", `{"id":"ekn://animals/0123456789abcdef","metadata":{"@id":"ekn://animals/0123456789abcdef"},"data":"nope.html"}`},
		{"empty", ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := readManifest(strings.NewReader(tt.line), t.TempDir(), false); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestReadManifest_DuplicateID(t *testing.T) {
	line := `{"id":"ekn://animals/0123456789abcdef","metadata":{"@id":"ekn://animals/0123456789abcdef"}}`
	_, err := readManifest(strings.NewReader(line+"\n"+line), t.TempDir(), false)
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("error = %v", err)
	}
}
