package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/myrjola/liftcoach/internal/errors"
)

// migrateTo brings the live schema in line with schemaDefinition.
//
// The target schema is created in an attached in-memory database and diffed against sqlite_schema. Removed tables are
// dropped, added tables are created, and changed tables go through the generalized ALTER TABLE procedure in
// https://www.sqlite.org/lang_altertable.html#otheralter. Indexes and triggers are then recreated where they differ.
func (db *Database) migrateTo(ctx context.Context, schemaDefinition string) (err error) {
	start := time.Now()

	detach, err := db.attachTarget(ctx, schemaDefinition)
	if err != nil {
		return errors.Wrap(err, "attach target schema")
	}
	defer detach()

	// Foreign keys can only be toggled outside a transaction.
	if _, err = db.ReadWrite.ExecContext(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
		return errors.Wrap(err, "disable foreign keys")
	}
	defer func() {
		if _, fkErr := db.ReadWrite.ExecContext(ctx, "PRAGMA foreign_keys = ON"); fkErr != nil {
			err = errors.Join(err, errors.Wrap(fkErr, "enable foreign keys"))
		}
	}()

	tx, err := db.ReadWrite.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	defer db.rollback(ctx, tx)

	if err = db.syncTables(ctx, tx); err != nil {
		return errors.Wrap(err, "sync tables")
	}
	for _, kind := range []string{"index", "trigger"} {
		if err = db.syncEntities(ctx, tx, kind); err != nil {
			return errors.Wrap(err, "sync entities", slog.String("kind", kind))
		}
	}

	violations, err := db.queryStrings(ctx, tx, "SELECT \"table\" FROM pragma_foreign_key_check")
	if err != nil {
		return errors.Wrap(err, "foreign key check")
	}
	if len(violations) > 0 {
		return errors.New("foreign key violations after migration",
			slog.String("tables", strings.Join(violations, ",")))
	}

	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "commit")
	}

	db.logger.LogAttrs(ctx, slog.LevelInfo, "migrated database", slog.Duration("duration", time.Since(start)))
	return nil
}

func (db *Database) attachTarget(ctx context.Context, schemaDefinition string) (func(), error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", rand.Text())
	// The target must stay open while attached or the shared in-memory database disappears.
	target, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open target")
	}
	if _, err = target.ExecContext(ctx, schemaDefinition); err != nil {
		return nil, errors.Join(errors.Wrap(err, "create target schema"), target.Close())
	}
	if _, err = db.ReadWrite.ExecContext(ctx, "ATTACH DATABASE ? AS target", dsn); err != nil {
		return nil, errors.Join(errors.Wrap(err, "attach"), target.Close())
	}
	return func() {
		if _, detachErr := db.ReadWrite.ExecContext(ctx, "DETACH DATABASE target"); detachErr != nil {
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to detach target schema",
				errors.SlogError(detachErr))
		}
		if closeErr := target.Close(); closeErr != nil {
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to close target schema",
				errors.SlogError(closeErr))
		}
	}, nil
}

func (db *Database) rollback(ctx context.Context, tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		db.logger.LogAttrs(ctx, slog.LevelError, "failed to roll back", errors.SlogError(err))
	}
}

const (
	removedQuery = `SELECT live.name
FROM main.sqlite_schema AS live
         LEFT JOIN target.sqlite_schema AS t ON t.name = live.name AND t.type = live.type
WHERE live.type = ? AND t.name IS NULL AND live.name NOT LIKE 'sqlite_%'`
	addedQuery = `SELECT t.sql
FROM target.sqlite_schema AS t
         LEFT JOIN main.sqlite_schema AS live ON live.name = t.name AND live.type = t.type
WHERE t.type = ? AND live.name IS NULL AND t.name NOT LIKE 'sqlite_%' AND t.sql IS NOT NULL`
	// ALTER TABLE RENAME quotes the table name so quotes are ignored in the comparison.
	changedQuery = `SELECT t.name, t.sql
FROM target.sqlite_schema AS t
         JOIN main.sqlite_schema AS live ON live.name = t.name AND live.type = t.type
WHERE t.type = ? AND t.name NOT LIKE 'sqlite_%' AND t.sql IS NOT NULL
  AND REPLACE(live.sql, '"', '') <> REPLACE(t.sql, '"', '')`
)

func (db *Database) syncTables(ctx context.Context, tx *sql.Tx) error {
	removed, err := db.queryStrings(ctx, tx, removedQuery, "table")
	if err != nil {
		return errors.Wrap(err, "query removed tables")
	}
	for _, name := range removed {
		if err = db.exec(ctx, tx, fmt.Sprintf("DROP TABLE %q", name)); err != nil {
			return err
		}
	}

	added, err := db.queryStrings(ctx, tx, addedQuery, "table")
	if err != nil {
		return errors.Wrap(err, "query added tables")
	}
	for _, createSQL := range added {
		if err = db.exec(ctx, tx, createSQL); err != nil {
			return err
		}
	}

	changed, err := db.queryPairs(ctx, tx, changedQuery, "table")
	if err != nil {
		return errors.Wrap(err, "query changed tables")
	}
	for _, table := range changed {
		if err = db.rebuildTable(ctx, tx, table.name, table.sql); err != nil {
			return errors.Wrap(err, "rebuild table", slog.String("table", table.name))
		}
	}
	return nil
}

// rebuildTable creates the new definition under a temporary name, copies the shared columns, and swaps it in.
func (db *Database) rebuildTable(ctx context.Context, tx *sql.Tx, name, createSQL string) error {
	tmp := name + "_rebuild"
	tmpSQL := strings.Replace(createSQL, name, tmp, 1)
	if err := db.exec(ctx, tx, tmpSQL); err != nil {
		return err
	}

	columns, err := db.queryStrings(ctx, tx, `SELECT '"' || live.name || '"'
FROM pragma_table_info(?1, 'main') AS live
         JOIN pragma_table_info(?1, 'target') AS t ON t.name = live.name`, name)
	if err != nil {
		return errors.Wrap(err, "query shared columns")
	}
	if len(columns) > 0 {
		cols := strings.Join(columns, ", ")
		//nolint:gosec // identifiers come from sqlite_schema.
		if err = db.exec(ctx, tx, fmt.Sprintf("INSERT INTO %q (%s) SELECT %s FROM %q", tmp, cols, cols, name)); err != nil {
			return err
		}
	}
	if err = db.exec(ctx, tx, fmt.Sprintf("DROP TABLE %q", name)); err != nil {
		return err
	}
	return db.exec(ctx, tx, fmt.Sprintf("ALTER TABLE %q RENAME TO %q", tmp, name))
}

// syncEntities drops and recreates indexes or triggers whose definition differs from the target.
func (db *Database) syncEntities(ctx context.Context, tx *sql.Tx, kind string) error {
	removed, err := db.queryStrings(ctx, tx, removedQuery, kind)
	if err != nil {
		return errors.Wrap(err, "query removed")
	}
	for _, name := range removed {
		if err = db.exec(ctx, tx, fmt.Sprintf("DROP %s IF EXISTS %q", strings.ToUpper(kind), name)); err != nil {
			return err
		}
	}

	changed, err := db.queryPairs(ctx, tx, changedQuery, kind)
	if err != nil {
		return errors.Wrap(err, "query changed")
	}
	for _, entity := range changed {
		if err = db.exec(ctx, tx, fmt.Sprintf("DROP %s IF EXISTS %q", strings.ToUpper(kind), entity.name)); err != nil {
			return err
		}
	}

	// Rebuilt tables lose their indexes and triggers, so anything missing after the table sync is created here.
	added, err := db.queryStrings(ctx, tx, addedQuery, kind)
	if err != nil {
		return errors.Wrap(err, "query added")
	}
	for _, createSQL := range added {
		if err = db.exec(ctx, tx, createSQL); err != nil {
			return err
		}
	}
	return nil
}

func (db *Database) exec(ctx context.Context, tx *sql.Tx, query string) error {
	db.logger.LogAttrs(ctx, slog.LevelInfo, "migration step", slog.String("query", query))
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return errors.Wrap(err, "exec migration step", slog.String("query", query))
	}
	return nil
}

func (db *Database) queryStrings(ctx context.Context, tx *sql.Tx, query string, args ...any) ([]string, error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query")
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var s string
		if err = rows.Scan(&s); err != nil {
			return nil, errors.Wrap(err, "scan")
		}
		out = append(out, s)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "rows")
	}
	return out, nil
}

type schemaEntity struct {
	name string
	sql  string
}

func (db *Database) queryPairs(ctx context.Context, tx *sql.Tx, query string, args ...any) ([]schemaEntity, error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query")
	}
	defer rows.Close()
	var out []schemaEntity
	for rows.Next() {
		var e schemaEntity
		if err = rows.Scan(&e.name, &e.sql); err != nil {
			return nil, errors.Wrap(err, "scan")
		}
		out = append(out, e)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "rows")
	}
	return out, nil
}
