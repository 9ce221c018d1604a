package dataset

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/ptmine/internal/errors"
	"github.com/rohankatakam/ptmine/internal/models"
)

// Output formats
const (
	FormatJSONL    = "jsonl"
	FormatSQLite   = "sqlite"
	FormatPostgres = "postgres"
)

// Writer persists pairs. Write is usable directly as a pipeline sink.
type Writer interface {
	Write(ctx context.Context, pair models.CandidatePair) error
	Close() error
}

var (
	_ Writer = (*JSONLWriter)(nil)
	_ Writer = (*SplitWriter)(nil)
	_ Writer = (*SQLStore)(nil)
)

// Options selects and configures the output sink
type Options struct {
	Format string
	// Path is the JSONL file, the split directory, or the sqlite file
	Path       string
	DSN        string
	SplitByTag bool
	RunID      string
}

// Open creates the writer described by opts
func Open(opts Options, logger logrus.FieldLogger) (Writer, error) {
	switch opts.Format {
	case "", FormatJSONL:
		if opts.Path == "" {
			return nil, errors.ConfigError("output.path is required for jsonl output")
		}
		if opts.SplitByTag {
			return OpenSplit(opts.Path)
		}
		return OpenJSONL(opts.Path)

	case FormatSQLite:
		dsn := opts.DSN
		if dsn == "" {
			dsn = opts.Path
		}
		if dsn == "" {
			return nil, errors.ConfigError("output.path or output.dsn is required for sqlite output")
		}
		return OpenSQL(DriverSQLite, dsn, opts.RunID, logger)

	case FormatPostgres:
		if opts.DSN == "" {
			return nil, errors.ConfigError("output.dsn is required for postgres output")
		}
		return OpenSQL(DriverPostgres, opts.DSN, opts.RunID, logger)

	default:
		return nil, errors.ConfigErrorf("unknown output format %q", opts.Format)
	}
}
