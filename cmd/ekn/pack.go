package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"

	"github.com/kailas-cloud/ekn/internal/blob"
	"github.com/kailas-cloud/ekn/internal/domain/content"
	"github.com/kailas-cloud/ekn/internal/domain/ekn"
	"github.com/kailas-cloud/ekn/internal/shard"
)

// manifestEntry is one line of a pack manifest.
type manifestEntry struct {
	ID          string          `json:"id"`
	Metadata    json.RawMessage `json:"metadata"`
	Data        string          `json:"data,omitempty"`
	ContentType string          `json:"contentType,omitempty"`
}

func packCommand() *cli.Command {
	return &cli.Command{
		Name:  "pack",
		Usage: "Build a shard file from a JSON lines manifest",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "manifest", Usage: "Manifest path (one JSON object per line)", Required: true},
			&cli.StringFlag{Name: "out", Usage: "Shard file to write", Required: true},
			&cli.BoolFlag{Name: "compress", Usage: "zlib-compress blobs", Value: true},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			manifest := c.String("manifest")
			f, err := os.Open(manifest)
			if err != nil {
				return err
			}
			defer f.Close()

			w, err := readManifest(f, filepath.Dir(manifest), c.Bool("compress"))
			if err != nil {
				return fmt.Errorf("read manifest %s: %w", manifest, err)
			}
			if err := writeShardFile(c.String("out"), w); err != nil {
				return err
			}
			fmt.Printf("Packed %d records into %s\n", w.Len(), c.String("out"))
			return nil
		},
	}
}

// readManifest stages every manifest entry into a shard writer. Data paths
// are relative to baseDir. Metadata must build a valid content model.
func readManifest(r io.Reader, baseDir string, compress bool) (*shard.Writer, error) {
	w := shard.NewWriter()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for line := 1; sc.Scan(); line++ {
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		if err := addEntry(w, raw, baseDir, compress); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if w.Len() == 0 {
		return nil, errors.New("manifest has no entries")
	}
	return w, nil
}

func addEntry(w *shard.Writer, raw []byte, baseDir string, compress bool) error {
	var e manifestEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		return err
	}
	id, err := ekn.Parse(e.ID)
	if err != nil {
		return err
	}

	props, err := content.Decode(e.Metadata)
	if err != nil {
		return err
	}
	m, err := content.New(props, nil)
	if err != nil {
		return err
	}
	if m.ID().String() != id.String() {
		return fmt.Errorf("metadata @id %s does not match %s", m.ID(), id)
	}

	var data []byte
	ct := e.ContentType
	if e.Data != "" {
		p := e.Data
		if !filepath.IsAbs(p) {
			p = filepath.Join(baseDir, p)
		}
		if data, err = os.ReadFile(p); err != nil {
			return err
		}
		if ct == "" {
			ct = blob.GuessType(p)
		}
	}
	return w.Add(id.Hash(), e.Metadata, data, ct, compress)
}

// writeShardFile writes next to out and renames, so readers never see a partial shard.
func writeShardFile(out string, w *shard.Writer) (err error) {
	tmp := filepath.Join(filepath.Dir(out), ".tmp-"+uuid.NewString())
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()

	if _, err = w.WriteTo(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write shard: %w", err)
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, out)
}
