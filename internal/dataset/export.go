package dataset

import (
	"context"
	"os"
	"path"
	"path/filepath"

	"github.com/rohankatakam/ptmine/internal/errors"
	"github.com/rohankatakam/ptmine/internal/models"
)

// Export writes the four contents of pair into dir as product_old<ext>,
// product_new<ext>, test_old<ext> and test_new<ext> for manual inspection.
// Absent contents are skipped. It returns the files written.
func Export(pair models.CandidatePair, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.FileSystemErrorf(err, "create export directory %s", dir)
	}

	productExt := path.Ext(pair.ProductFilePath)
	testExt := path.Ext(pair.TestFilePath)
	files := []struct {
		name    string
		content *string
	}{
		{"product_old" + productExt, pair.ProductOld},
		{"product_new" + productExt, pair.ProductNew},
		{"test_old" + testExt, pair.TestOld},
		{"test_new" + testExt, pair.TestNew},
	}

	var written []string
	for _, f := range files {
		if f.content == nil {
			continue
		}
		p := filepath.Join(dir, f.name)
		if err := os.WriteFile(p, []byte(*f.content), 0644); err != nil {
			return written, errors.FileSystemErrorf(err, "write %s", p)
		}
		written = append(written, p)
	}
	return written, nil
}

// Nth returns the record at zero-based index n of the JSONL file at path
func Nth(ctx context.Context, path string, n int) (models.CandidatePair, error) {
	var (
		found models.CandidatePair
		i     int
		ok    bool
	)
	errStop := errors.New(errors.ErrorTypeInternal, errors.SeverityLow, "stop")

	err := ReadJSONL(ctx, path, func(p models.CandidatePair) error {
		if i == n {
			found, ok = p, true
			return errStop
		}
		i++
		return nil
	})
	if err != nil && err != errStop {
		return models.CandidatePair{}, err
	}
	if !ok {
		return models.CandidatePair{}, errors.ValidationErrorf("%s has %d records, no index %d", path, i, n)
	}
	return found, nil
}
