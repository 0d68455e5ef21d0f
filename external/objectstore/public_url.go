package objectstore

import (
	"fmt"
	"strings"

	"github.com/foxseedlab/fanreel/internal/objectstore"
)

// BlobRoute is where the HTTP service serves objects of stores that have no
// public endpoint of their own (memory, postgres).
const BlobRoute = "/blobs/"

type publicURLs struct {
	base string
}

func newPublicURLs(baseURL string) publicURLs {
	return publicURLs{base: strings.TrimRight(baseURL, "/") + BlobRoute}
}

func (p publicURLs) urlFor(path string) string {
	return p.base + strings.TrimLeft(path, "/")
}

func (p publicURLs) pathFor(url string) (string, error) {
	path, ok := strings.CutPrefix(url, p.base)
	if !ok || path == "" {
		return "", fmt.Errorf("%w: %s is not served by this store", objectstore.ErrNotFound, url)
	}
	return path, nil
}
