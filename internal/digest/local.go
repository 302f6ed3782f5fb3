package digest

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Local computes algo digests of local files, one goroutine per path. Any
// unreadable file fails the whole call. This is the local mirror of
// Verifier.Digest; no fallback is involved.
func Local(algo Algo, paths []string) (map[string]string, error) {
	var (
		mu  sync.Mutex
		res = make(map[string]string, len(paths))
	)
	var g errgroup.Group
	for _, p := range paths {
		p := p
		g.Go(func() error {
			sum, err := fileSum(algo, p)
			if err != nil {
				return err
			}
			mu.Lock()
			res[p] = sum
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}

func fileSum(algo Algo, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("digest: %w", err)
	}
	defer f.Close()
	h := algo.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("digest: read %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
