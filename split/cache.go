package split

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gomlx/gomlx/pkg/support/fsutil"
	"golang.org/x/sync/singleflight"

	"github.com/Noofbiz/mriCohort/cohort"
)

// Paths locates the TSV files of one split iteration. Test is empty for a
// simple split.
type Paths struct {
	Train string
	Valid string
	Test  string
}

func (p Paths) all() []string {
	out := []string{p.Train, p.Valid}
	if p.Test != "" {
		out = append(out, p.Test)
	}
	return out
}

// Get returns the path for role.
func (p Paths) Get(role Role) string {
	switch role {
	case Train:
		return p.Train
	case Valid:
		return p.Valid
	case Test:
		return p.Test
	}
	return ""
}

// setsDir is <dir of source>/<source basename up to the first dot>.
func setsDir(source string) string {
	base, _, _ := strings.Cut(filepath.Base(source), ".")
	return filepath.Join(filepath.Dir(source), base)
}

func formatFraction(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// SimplePaths returns where the two-way split of source is stored:
// <sets>/val_size-<f>/{train,valid}.tsv.
func SimplePaths(source string, valFraction float64) Paths {
	dir := filepath.Join(setsDir(source), "val_size-"+formatFraction(valFraction))
	return Paths{
		Train: filepath.Join(dir, string(Train)+".tsv"),
		Valid: filepath.Join(dir, string(Valid)+".tsv"),
	}
}

// FoldPaths returns where iteration fold of the nSplits-fold split of source
// is stored: <sets>/splits-<n>/val_size-<f>_iteration-<i>_<role>.tsv.
func FoldPaths(source string, nSplits int, valFraction float64, fold int) Paths {
	dir := filepath.Join(setsDir(source), "splits-"+strconv.Itoa(nSplits))
	name := func(role Role) string {
		return filepath.Join(dir, fmt.Sprintf("val_size-%s_iteration-%d_%s.tsv", formatFraction(valFraction), fold, role))
	}
	return Paths{Train: name(Train), Valid: name(Valid), Test: name(Test)}
}

// Cache materializes splits of a source TSV once and hands back the paths on
// later calls. Concurrent callers in one process asking for the same split
// share a single generation. Across processes the first writer is assumed to
// finish before readers start.
type Cache struct {
	Splitter Splitter

	// Manifest, when set, records every file the cache writes.
	Manifest *Manifest

	group singleflight.Group
}

// NewCache returns a Cache using the given splitter and optional manifest.
func NewCache(splitter Splitter, manifest *Manifest) *Cache {
	return &Cache{Splitter: splitter, Manifest: manifest}
}

// Resolve returns the train/valid paths of the two-way split of source,
// generating them if any file is missing. Existing files are never rewritten.
func (c *Cache) Resolve(ctx context.Context, source string, valFraction float64) (Paths, error) {
	if err := checkFraction(valFraction); err != nil {
		return Paths{}, err
	}
	paths := SimplePaths(source, valFraction)
	key := filepath.Dir(paths.Train)
	err := c.ensure(ctx, key, paths, func() error {
		table, err := cohort.Load(source)
		if err != nil {
			return err
		}
		res, err := c.Splitter.Split(table, valFraction)
		if err != nil {
			return err
		}
		return c.write(ctx, source, valFraction, 0, res, paths)
	})
	return paths, err
}

// ResolveFold returns the paths of iteration fold of the nSplits-fold split.
// If any file of this iteration is missing, every iteration is regenerated
// and only the files that do not exist yet are written.
func (c *Cache) ResolveFold(ctx context.Context, source string, nSplits int, valFraction float64, fold int) (Paths, error) {
	if nSplits < 2 {
		return Paths{}, errNSplits(nSplits)
	}
	if fold < 0 || fold >= nSplits {
		return Paths{}, fmt.Errorf("%w: fold %d with n_splits=%d", ErrFoldIndex, fold, nSplits)
	}
	if err := checkFraction(valFraction); err != nil {
		return Paths{}, err
	}
	paths := FoldPaths(source, nSplits, valFraction, fold)
	// Every iteration of one (n_splits, val_size) pair is generated together.
	key := filepath.Dir(paths.Train) + "|" + formatFraction(valFraction)
	err := c.ensure(ctx, key, paths, func() error {
		table, err := cohort.Load(source)
		if err != nil {
			return err
		}
		results, err := c.Splitter.SplitKFold(table, nSplits, valFraction)
		if err != nil {
			return err
		}
		for _, res := range results {
			iterPaths := FoldPaths(source, nSplits, valFraction, res.Iteration)
			if err := c.write(ctx, source, valFraction, nSplits, res, iterPaths); err != nil {
				return err
			}
		}
		return nil
	})
	return paths, err
}

// ensure runs generate once per key unless every path already exists.
func (c *Cache) ensure(ctx context.Context, key string, paths Paths, generate func() error) error {
	present, err := allExist(paths.all())
	if err != nil || present {
		return err
	}
	_, err, _ = c.group.Do(key, func() (any, error) {
		// Another caller may have finished between the check and Do.
		present, err := allExist(paths.all())
		if err != nil || present {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, generate()
	})
	return err
}

func allExist(paths []string) (bool, error) {
	for _, p := range paths {
		ok, err := fsutil.FileExists(p)
		if err != nil {
			return false, fmt.Errorf("stat %s: %w", p, err)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// write stores the tables of res at paths, skipping files that already exist.
func (c *Cache) write(ctx context.Context, source string, valFraction float64, nSplits int, res Result, paths Paths) error {
	for role, table := range res.Tables() {
		path := paths.Get(role)
		present, err := fsutil.FileExists(path)
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}
		if present {
			continue
		}
		if err := table.WriteTSV(path); err != nil {
			return err
		}
		if c.Manifest == nil {
			continue
		}
		err = c.Manifest.Record(ctx, Entry{
			Source:    source,
			ValSize:   valFraction,
			NSplits:   nSplits,
			Iteration: res.Iteration,
			Role:      role,
			Path:      path,
			Subjects:  len(table.Subjects()),
			Rows:      table.Len(),
			CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			return err
		}
	}
	return nil
}
