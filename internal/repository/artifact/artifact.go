// Package artifact persists vector spaces as a pair of files per representation mode:
// <mode>_ids.json (document ids in row order) and <mode>_embs.npy (the (n, dim) matrix).
package artifact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/prodsearch/internal/domain"
	"github.com/kailas-cloud/prodsearch/internal/domain/vectorspace"
)

// IDsPath returns the id list path for mode.
func IDsPath(dir, mode string) string { return filepath.Join(dir, mode+"_ids.json") }

// EmbsPath returns the matrix path for mode.
func EmbsPath(dir, mode string) string { return filepath.Join(dir, mode+"_embs.npy") }

// Load reads the artifact pair for mode. The id count must equal the matrix row count.
func Load(dir, mode string) (*vectorspace.Space, error) {
	ids, err := readIDs(IDsPath(dir, mode))
	if err != nil {
		return nil, fmt.Errorf("space %s: %w", mode, err)
	}

	f, err := os.Open(filepath.Clean(EmbsPath(dir, mode)))
	if err != nil {
		return nil, fmt.Errorf("space %s: open embeddings: %w", mode, err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("space %s: stat embeddings: %w", mode, err)
	}
	m, err := readNPY(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("space %s: %w", mode, err)
	}
	if m.rows != len(ids) {
		return nil, fmt.Errorf("space %s: %w: %d ids but %d embedding rows",
			mode, domain.ErrMalformedArtifact, len(ids), m.rows)
	}
	return vectorspace.FromMatrix(mode, ids, m.cols, m.data) //nolint:wrapcheck // already carries the space id
}

// LoadAll loads several modes concurrently, returning spaces in the order of modes.
// Any failure fails the whole load.
func LoadAll(ctx context.Context, dir string, modes []string) ([]*vectorspace.Space, error) {
	spaces := make([]*vectorspace.Space, len(modes))
	g, gctx := errgroup.WithContext(ctx)
	for i, mode := range modes {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err //nolint:wrapcheck // context error
			}
			sp, err := Load(dir, mode)
			if err != nil {
				return err
			}
			spaces[i] = sp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load artifacts from %s: %w", dir, err)
	}
	return spaces, nil
}

// Save writes the artifact pair for sp into dir, creating it if needed.
// Files are written to temporaries and renamed so readers never see half a pair member.
// Empty spaces are refused.
func Save(dir string, sp *vectorspace.Space) error {
	if sp.Len() == 0 || sp.Dim() == 0 {
		return fmt.Errorf("space %s is empty (%d rows, dim %d)", sp.ID(), sp.Len(), sp.Dim())
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}

	ids, err := json.Marshal(sp.IDs())
	if err != nil {
		return fmt.Errorf("marshal ids: %w", err)
	}
	if err := writeAtomic(IDsPath(dir, sp.ID()), func(f *os.File) error {
		_, err := f.Write(ids)
		return err //nolint:wrapcheck // wrapped by writeAtomic
	}); err != nil {
		return err
	}

	data := make([]float32, 0, sp.Len()*sp.Dim())
	for i := 0; i < sp.Len(); i++ {
		data = append(data, sp.Vector(i)...)
	}
	return writeAtomic(EmbsPath(dir, sp.ID()), func(f *os.File) error {
		return writeNPY(f, sp.Len(), sp.Dim(), data)
	})
}

// Exists reports whether both files of the pair for mode are present.
func Exists(dir, mode string) bool {
	for _, p := range []string{IDsPath(dir, mode), EmbsPath(dir, mode)} {
		if _, err := os.Stat(p); err != nil {
			return false
		}
	}
	return true
}

func readIDs(path string) ([]string, error) {
	raw, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read ids: %w", err)
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, fmt.Errorf("%w: ids file %s: %v", domain.ErrMalformedArtifact, filepath.Base(path), err)
	}
	return ids, nil
}

func writeAtomic(path string, write func(f *os.File) error) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", filepath.Base(path), err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if werr := write(tmp); werr != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), werr)
	}
	if cerr := tmp.Close(); cerr != nil {
		return fmt.Errorf("close %s: %w", filepath.Base(path), cerr)
	}
	if rerr := os.Rename(tmp.Name(), path); rerr != nil {
		return fmt.Errorf("rename %s: %w", filepath.Base(path), rerr)
	}
	return nil
}

// IsMissing reports whether err means the artifact files do not exist.
func IsMissing(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
