package reports

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"SisContratacoes/api/constants"
	"SisContratacoes/internal/apperrors"
)

// Filters narrow a custom report. Dates are inclusive calendar days matched
// against the row creation time.
type Filters struct {
	DateStart string           `json:"dateStart" validate:"omitempty,datetime=2006-01-02"`
	DateEnd   string           `json:"dateEnd" validate:"omitempty,datetime=2006-01-02"`
	Status    []string         `json:"status" validate:"omitempty,dive,max=100"`
	MinValue  *decimal.Decimal `json:"minValue"`
	MaxValue  *decimal.Decimal `json:"maxValue"`
	SortBy    string           `json:"sortBy"`
	SortDesc  bool             `json:"sortDesc"`
}

func (f Filters) check() error {
	if f.DateStart != "" && f.DateEnd != "" && f.DateStart > f.DateEnd {
		return apperrors.Validation("dateStart must not be after dateEnd")
	}
	if f.MinValue != nil && f.MaxValue != nil && f.MinValue.GreaterThan(*f.MaxValue) {
		return apperrors.Validation("minValue must not exceed maxValue")
	}
	return nil
}

// Query is a parameterized SELECT over one source.
type Query struct {
	SQL    string
	Args   []interface{}
	Fields []Field
}

// Build renders the SELECT for fields of src. today binds the reference date
// used by derived status columns.
func Build(src *Source, fields []Field, f Filters, today time.Time) (Query, error) {
	if err := f.check(); err != nil {
		return Query{}, err
	}
	var args []interface{}
	bind := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	todayParam := ""
	render := func(expr string) string {
		if !strings.Contains(expr, todayMarker) {
			return expr
		}
		if todayParam == "" {
			todayParam = bind(today.Format("2006-01-02")) + "::date"
		}
		return strings.ReplaceAll(expr, todayMarker, todayParam)
	}
	cols := make([]string, len(fields))
	for i, fd := range fields {
		cols[i] = render(fd.Expr)
	}

	order := src.OrderBy
	if f.SortBy != "" {
		sf, ok := src.field(f.SortBy)
		if !ok {
			return Query{}, apperrors.Validation(constants.ErrUnknownField, f.SortBy, src.Name)
		}
		order = render(sf.Expr)
		if f.SortDesc {
			order += " DESC"
		}
		order += " NULLS LAST"
	}

	var where []string
	if src.Where != "" {
		where = append(where, src.Where)
	}
	if f.DateStart != "" {
		where = append(where, fmt.Sprintf("%s >= %s::date", src.DateColumn, bind(f.DateStart)))
	}
	if f.DateEnd != "" {
		where = append(where, fmt.Sprintf("%s < %s::date + 1", src.DateColumn, bind(f.DateEnd)))
	}
	if len(f.Status) > 0 {
		where = append(where, fmt.Sprintf("%s = ANY(%s::text[])", src.StatusColumn, bind(f.Status)))
	}
	if f.MinValue != nil {
		where = append(where, fmt.Sprintf("%s >= %s", src.ValueColumn, bind(*f.MinValue)))
	}
	if f.MaxValue != nil {
		where = append(where, fmt.Sprintf("%s <= %s", src.ValueColumn, bind(*f.MaxValue)))
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(cols, ", "))
	b.WriteString(" FROM ")
	b.WriteString(src.Table)
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	if order != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(order)
	}
	return Query{SQL: b.String(), Args: args, Fields: fields}, nil
}

// Row holds one value per field: nil, string, decimal.Decimal, time.Time,
// int64 or bool depending on the field kind.
type Row []interface{}

type Fetcher interface {
	Fetch(ctx context.Context, q Query) ([]Row, error)
}

type PgFetcher struct {
	pool *pgxpool.Pool
}

func NewPgFetcher(pool *pgxpool.Pool) *PgFetcher {
	return &PgFetcher{pool: pool}
}

func (p *PgFetcher) Fetch(ctx context.Context, q Query) ([]Row, error) {
	rows, err := p.pool.Query(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, fmt.Errorf("report query: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (Row, error) {
		return scanRow(r, q.Fields)
	})
	if err != nil {
		return nil, fmt.Errorf("report scan: %w", err)
	}
	return out, nil
}

func scanRow(r pgx.CollectableRow, fields []Field) (Row, error) {
	dest := make([]interface{}, len(fields))
	for i, f := range fields {
		switch f.Kind {
		case KindMoney, KindPercent:
			dest[i] = new(decimal.NullDecimal)
		case KindDate:
			dest[i] = new(pgtype.Date)
		case KindTimestamp:
			dest[i] = new(pgtype.Timestamptz)
		case KindInt:
			dest[i] = new(pgtype.Int8)
		case KindBool:
			dest[i] = new(pgtype.Bool)
		default:
			dest[i] = new(pgtype.Text)
		}
	}
	if err := r.Scan(dest...); err != nil {
		return nil, err
	}
	row := make(Row, len(fields))
	for i, d := range dest {
		switch v := d.(type) {
		case *decimal.NullDecimal:
			if v.Valid {
				row[i] = v.Decimal
			}
		case *pgtype.Date:
			if v.Valid {
				row[i] = v.Time
			}
		case *pgtype.Timestamptz:
			if v.Valid {
				row[i] = v.Time
			}
		case *pgtype.Int8:
			if v.Valid {
				row[i] = v.Int64
			}
		case *pgtype.Bool:
			if v.Valid {
				row[i] = v.Bool
			}
		case *pgtype.Text:
			if v.Valid {
				row[i] = v.String
			}
		}
	}
	return row, nil
}
