package repo

import "github.com/go-sql-driver/mysql"

// WithFoundRows forces CLIENT_FOUND_ROWS on the connection. The repos read
// 0 affected rows as "no matching order"; without this flag MySQL also
// reports 0 for a value-identical update, which would turn an idempotent
// replay (a duplicate webhook re-setting the same payment status) into a
// spurious not-found.
func WithFoundRows(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", err
	}
	cfg.ClientFoundRows = true
	return cfg.FormatDSN(), nil
}
