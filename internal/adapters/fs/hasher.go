package fs

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

var _ ports.Hasher = (*Hasher)(nil)

// hashWorkers bounds how many files HashFiles reads at once.
const hashWorkers = 8

// Hasher computes xxhash content hashes.
type Hasher struct{}

// NewHasher creates a new Hasher.
func NewHasher() *Hasher {
	return &Hasher{}
}

// ComputeFileHash computes the XXHash of a file's content.
func (h *Hasher) ComputeFileHash(path string) (uint64, error) {
	f, err := os.Open(path) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, domain.ErrFileOpenFailed.Error()), "path", path)
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	hasher := xxhash.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return 0, zerr.With(zerr.Wrap(err, domain.ErrFileHashFailed.Error()), "path", path)
	}

	return hasher.Sum64(), nil
}

// HashFile returns the hex content hash of the file at path.
func (h *Hasher) HashFile(path string) (string, error) {
	sum, err := h.ComputeFileHash(path)
	if err != nil {
		return "", err
	}
	return format(sum), nil
}

// HashBytes returns the hex content hash of data.
func (h *Hasher) HashBytes(data []byte) string {
	return format(xxhash.Sum64(data))
}

// HashFiles hashes paths concurrently. The first failure cancels the rest.
func (h *Hasher) HashFiles(ctx context.Context, paths []string) (map[string]string, error) {
	var mu sync.Mutex
	out := make(map[string]string, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(hashWorkers)
	for _, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			sum, err := h.HashFile(p)
			if err != nil {
				return err
			}
			mu.Lock()
			out[p] = sum
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func format(sum uint64) string {
	return fmt.Sprintf("%016x", sum)
}
