package cwa

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
)

// FileFetcher serves recorded API responses from a directory. A query with a
// locationName is looked up as "{dataset}_{locationName}.json" first, then as
// "{dataset}.json". Missing files read as ErrNoData.
type FileFetcher struct {
	dir string
}

// NewFileFetcher creates a fetcher over dir.
func NewFileFetcher(dir string) *FileFetcher {
	return &FileFetcher{dir: dir}
}

func (f *FileFetcher) Fetch(_ context.Context, dataset string, query url.Values) (json.RawMessage, error) {
	var candidates []string
	if loc := query.Get("locationName"); loc != "" {
		candidates = append(candidates, dataset+"_"+loc+".json")
	}
	candidates = append(candidates, dataset+".json")

	for _, name := range candidates {
		body, err := os.ReadFile(filepath.Join(f.dir, name))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read fixture %s: %w", name, err)
		}
		return decodeEnvelope(body)
	}
	return nil, ErrNoData
}
