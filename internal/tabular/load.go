package tabular

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/reconcile-cli/internal/fetcher"
)

// Load reads the export at location, which may be a local path or an
// http(s)/ftp URL. Locations ending in .xlsx are read as workbooks; anything
// else is parsed as CSV text.
func Load(ctx context.Context, o *fetcher.Opener, location string, opts XLSXOptions) (*Table, error) {
	if isXLSX(location) {
		path, cleanup, err := o.Local(ctx, location, "")
		if err != nil {
			return nil, eris.Wrapf(err, "tabular: fetch %s", location)
		}
		defer cleanup()
		t, err := LoadXLSX(path, opts)
		if err != nil {
			return nil, err
		}
		logLoaded(location, t)
		return t, nil
	}

	rc, err := o.Open(ctx, location)
	if err != nil {
		return nil, eris.Wrapf(err, "tabular: fetch %s", location)
	}
	defer rc.Close() //nolint:errcheck

	t, err := Parse(rc)
	if err != nil {
		return nil, eris.Wrapf(err, "tabular: parse %s", location)
	}
	logLoaded(location, t)
	return t, nil
}

func isXLSX(location string) bool {
	if i := strings.IndexAny(location, "?#"); i >= 0 && fetcher.IsRemote(location) {
		location = location[:i]
	}
	return strings.EqualFold(filepath.Ext(location), ".xlsx")
}

func logLoaded(location string, t *Table) {
	zap.L().Info("tabular: loaded export",
		zap.String("location", location),
		zap.Int("columns", len(t.Header)),
		zap.Int("rows", t.Len()),
	)
}
