// Package importer reconciles uploaded plan spreadsheets and CSV exports with
// the stored plan: rows are matched by contract number and created or replaced
// one savepoint at a time, and bad rows are reported instead of failing the
// upload.
package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"SisContratacoes/internal/apperrors"
	"SisContratacoes/internal/config"
)

// Result summarises one import. Errors holds at most the configured number of
// messages; FailedCount counts every rejected row.
type Result struct {
	BatchID      string   `json:"batch_id"`
	TotalRows    int      `json:"total"`
	CreatedCount int      `json:"imported"`
	UpdatedCount int      `json:"updated"`
	FailedCount  int      `json:"failed"`
	Errors       []string `json:"errors"`
	Encoding     string   `json:"encoding,omitempty"`

	maxErrors int
}

func (r *Result) fail(msg string) {
	r.FailedCount++
	if len(r.Errors) < r.maxErrors {
		r.Errors = append(r.Errors, msg)
	}
}

type Reconciler struct {
	store     Store
	encodings []string
	maxErrors int
}

func NewReconciler(store Store, cfg config.ImportConfig) *Reconciler {
	r := &Reconciler{store: store, encodings: cfg.Encodings, maxErrors: cfg.MaxErrors}
	if len(r.encodings) == 0 {
		r.encodings = config.DefaultEncodings
	}
	if r.maxErrors <= 0 {
		r.maxErrors = config.MaxImportErrors
	}
	return r
}

// dataRow is a non-blank row with the file line it came from.
type dataRow struct {
	line  int
	cells []string
}

// layout finds the header, picks the column map and returns the data rows.
// Delimited files whose first row names no known column are read by position.
func layout(t *table, format Format) (columnMap, []dataRow) {
	var rows []dataRow
	for i, cells := range t.rows {
		if !blankRow(cells) {
			rows = append(rows, dataRow{line: t.lines[i], cells: cells})
		}
	}
	if len(rows) == 0 {
		return emptyColumnMap(), nil
	}
	cm, resolved := resolveHeader(rows[0].cells)
	if resolved > 0 {
		return cm, rows[1:]
	}
	if format != FormatDelimitedText {
		return cm, rows[1:]
	}
	cm = positionalColumnMap()
	if looksLikeHeader(cm.cell(rows[0].cells, fieldNumero)) {
		rows = rows[1:]
	}
	return cm, rows
}

// Import reads raw as the given format and upserts every row by contract
// number. Only format problems and a failed final commit are returned as
// errors; row problems are reported in the Result.
func (r *Reconciler) Import(ctx context.Context, raw []byte, format Format, actorID string) (*Result, error) {
	if !format.valid() {
		return nil, ErrUnsupportedFormat
	}
	t, err := readTable(raw, format, r.encodings)
	if err != nil {
		return nil, err
	}
	cm, rows := layout(t, format)
	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}

	res := &Result{
		BatchID:   uuid.NewString(),
		Errors:    []string{},
		Encoding:  t.encoding,
		maxErrors: r.maxErrors,
	}
	logger := log.Ctx(ctx).With().Str("batch_id", res.BatchID).Str("format", string(format)).Logger()

	tx, err := r.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin import: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	seen := make(map[string]int, len(rows))
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res.TotalRows++
		rec := buildRecord(row.cells, cm, t.spreadsheet)
		key := rec.NumeroContratacao
		if key == "" {
			res.fail(fmt.Sprintf("row %d: missing natural key", row.line))
			continue
		}
		if _, dup := seen[key]; dup {
			res.fail(fmt.Sprintf("row %d (%s): duplicate in file", row.line, key))
			continue
		}
		seen[key] = row.line

		created, err := upsertRow(ctx, tx, rec, actorID)
		if err != nil {
			logger.Debug().Err(err).Int("row", row.line).Str("numero", key).Msg("import row rejected")
			res.fail(fmt.Sprintf("row %d (%s): %v", row.line, key, err))
			continue
		}
		if created {
			res.CreatedCount++
		} else {
			res.UpdatedCount++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperrors.Validation("import could not be committed: %v", err).Wrap(err)
	}
	committed = true

	logger.Info().
		Int("total", res.TotalRows).
		Int("created", res.CreatedCount).
		Int("updated", res.UpdatedCount).
		Int("failed", res.FailedCount).
		Msg("plan import finished")
	return res, nil
}

// upsertRow writes one record inside its own savepoint and reports whether it
// created a new entry.
func upsertRow(ctx context.Context, tx Tx, rec *Record, actorID string) (created bool, err error) {
	if err := rec.Validate(); err != nil {
		return false, err
	}
	sp, err := tx.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer func() {
		if err != nil {
			if rbErr := sp.Rollback(ctx); rbErr != nil {
				err = errors.Join(err, rbErr)
			}
		}
	}()

	id, found, err := sp.FindIDByNumero(ctx, rec.NumeroContratacao)
	if err != nil {
		return false, err
	}
	if found {
		err = sp.Update(ctx, id, rec, actorID)
	} else {
		_, err = sp.Create(ctx, rec, actorID)
	}
	if err != nil {
		return false, err
	}
	if err = sp.Commit(ctx); err != nil {
		return false, err
	}
	return !found, nil
}
