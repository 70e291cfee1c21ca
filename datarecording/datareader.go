package datarecording

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"strings"

	"github.com/fatih/structs"
	"github.com/pkg/errors"
)

// QueryParams narrows and pages a query. Where and OrderBy are SQL fragments
// without their keywords; Args fill the placeholders of Where. A zero Limit
// returns every row.
type QueryParams struct {
	Where   string
	Args    []any
	Limit   int
	Offset  int
	OrderBy string
}

// DataReader reads back the tables written by a DataRecorder.
type DataReader interface {
	// MapTable tells the reader which struct the rows of a table decode
	// into. A table must be mapped before it is queried.
	MapTable(tableName string, sampleEntry any)

	// Query returns the matching rows, as pointers to the mapped struct,
	// together with the number of rows matching before paging.
	Query(ctx context.Context, tableName string, params QueryParams) (
		results []any,
		totalCount int,
		err error,
	)

	Close() error
}

type mappedTable struct {
	entryType reflect.Type
	columns   map[string]bool
}

type sqliteReader struct {
	db     *sql.DB
	tables map[string]mappedTable
}

// NewReader opens a recording for reading.
func NewReader(dbFilename string) DataReader {
	db, err := sql.Open("sqlite3", dbFilename)
	if err != nil {
		panic(err)
	}

	return &sqliteReader{
		db:     db,
		tables: make(map[string]mappedTable),
	}
}

func (r *sqliteReader) MapTable(tableName string, sampleEntry any) {
	t := mappedTable{
		entryType: reflect.TypeOf(sampleEntry),
		columns:   make(map[string]bool),
	}

	for _, name := range structs.Names(sampleEntry) {
		t.columns[name] = true
	}

	r.tables[tableName] = t
}

func (r *sqliteReader) Query(
	ctx context.Context,
	tableName string,
	params QueryParams,
) ([]any, int, error) {
	t, ok := r.tables[tableName]
	if !ok {
		return nil, 0, errors.Errorf("table %s is not mapped", tableName)
	}

	where := ""
	if params.Where != "" {
		where = " WHERE " + params.Where
	}

	var total int

	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM "+tableName+where, params.Args...).Scan(&total)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "counting rows of %s", tableName)
	}

	var q strings.Builder

	q.WriteString("SELECT * FROM " + tableName + where)

	if params.OrderBy != "" {
		q.WriteString(" ORDER BY " + params.OrderBy)
	}

	if params.Limit > 0 {
		fmt.Fprintf(&q, " LIMIT %d OFFSET %d", params.Limit, params.Offset)
	}

	rows, err := r.db.QueryContext(ctx, q.String(), params.Args...)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "querying %s", tableName)
	}
	defer rows.Close()

	results, err := t.decode(rows)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "reading rows of %s", tableName)
	}

	return results, total, nil
}

// decode scans each row into a new entry. Columns without a matching field
// are dropped.
func (t mappedTable) decode(rows *sql.Rows) ([]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var results []any

	for rows.Next() {
		entry := reflect.New(t.entryType)
		targets := make([]any, len(columns))

		for i, col := range columns {
			if !t.columns[col] {
				targets[i] = new(any)
				continue
			}

			targets[i] = entry.Elem().FieldByName(col).Addr().Interface()
		}

		if err := rows.Scan(targets...); err != nil {
			return nil, err
		}

		results = append(results, entry.Interface())
	}

	return results, rows.Err()
}

func (r *sqliteReader) Close() error {
	return r.db.Close()
}
