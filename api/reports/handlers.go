package reports

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"SisContratacoes/api"
	"SisContratacoes/api/constants"
	"SisContratacoes/internal/apperrors"
	"SisContratacoes/internal/clock"
	"SisContratacoes/internal/logger"
)

const (
	formatExcel = "excel"
	formatJSON  = "json"
)

// CustomRequest is the body of POST /reports/custom.
type CustomRequest struct {
	DataSource     string   `json:"dataSource" validate:"required"`
	SelectedFields []string `json:"selectedFields" validate:"required,min=1,dive,required"`
	Filters        Filters  `json:"filters"`
	// Charts is kept for the client and not rendered server side.
	Charts []string `json:"charts"`
	Format string   `json:"format" validate:"omitempty,oneof=excel json"`
}

func formatParam(r *http.Request) (string, error) {
	f := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	switch f {
	case "", formatExcel:
		return formatExcel, nil
	case formatJSON:
		return formatJSON, nil
	}
	return "", apperrors.Validation(constants.ErrUnknownReportFmt, f)
}

// jsonRows keys each value by its field and renders dates as ISO strings.
func jsonRows(fields []Field, rows []Row) []map[string]interface{} {
	out := make([]map[string]interface{}, len(rows))
	for i, row := range rows {
		m := make(map[string]interface{}, len(fields))
		for c, f := range fields {
			v := row[c]
			if t, ok := v.(time.Time); ok {
				if f.Kind == KindDate {
					v = t.Format("2006-01-02")
				} else {
					v = t.Format(time.RFC3339)
				}
			}
			m[f.Key] = v
		}
		out[i] = m
	}
	return out
}

func respond(w http.ResponseWriter, r *http.Request, name, format string, src *Source, fields []Field, rows []Row, today time.Time) {
	logger.Audit("report %s (%s, %d rows) exported by %s", name, format, len(rows), api.GetUserIDFromCtx(r.Context()))
	var summary *SavingsSummary
	if src.Name == "economia" {
		summary = summarizeSavings(fields, rows)
	}
	if format == formatJSON {
		resp := map[string]interface{}{
			constants.ValueSuccess: true,
			"rows":                 jsonRows(fields, rows),
		}
		if summary != nil {
			resp["summary"] = summary
		}
		api.RespondWithJSON(w, http.StatusOK, resp)
		return
	}

	f, err := Workbook(src.Sheet, fields, rows, summary)
	if err != nil {
		api.RespondWithAppError(w, r, fmt.Errorf("build workbook: %w", err))
		return
	}
	defer f.Close()
	filename := fmt.Sprintf("relatorio_%s_%s.xlsx", name, today.Format("20060102"))
	w.Header().Set(constants.ContentTypeText, constants.ContentTypeXLSX)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if err := f.Write(w); err != nil {
		logger.Audit("report %s: write failed: %v", name, err)
	}
}

// Export serves GET /reports/{name} with the registry's default columns.
func Export(fetcher Fetcher, clk clock.Clock) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := mux.Vars(r)["name"]
		src, err := Lookup(name, false)
		if err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		format, err := formatParam(r)
		if err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		today := clk.Today()
		fields := src.Defaults()
		q, err := Build(src, fields, Filters{}, today)
		if err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		rows, err := fetcher.Fetch(r.Context(), q)
		if err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		respond(w, r, name, format, src, fields, rows, today)
	}
}

// Custom serves POST /reports/custom. An empty result is reported as 404.
func Custom(fetcher Fetcher, clk clock.Clock) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CustomRequest
		if err := api.DecodeJSON(r, &req); err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		src, err := Lookup(req.DataSource, true)
		if err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		fields, err := src.Resolve(req.SelectedFields)
		if err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		today := clk.Today()
		q, err := Build(src, fields, req.Filters, today)
		if err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		rows, err := fetcher.Fetch(r.Context(), q)
		if err != nil {
			api.RespondWithAppError(w, r, err)
			return
		}
		if len(rows) == 0 {
			api.RespondWithAppError(w, r, apperrors.NotFound(constants.ErrNoReportData))
			return
		}
		format := req.Format
		if format == "" {
			format = formatExcel
		}
		respond(w, r, "custom_"+src.Name, format, src, fields, rows, today)
	}
}

// FieldsCatalog serves GET /reports/fields: the selectable columns per source.
func FieldsCatalog() http.HandlerFunc {
	type entry struct {
		Key    string `json:"key"`
		Header string `json:"header"`
		Kind   string `json:"kind"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		out := map[string][]entry{}
		for name, src := range sources {
			if !src.Custom {
				continue
			}
			for _, f := range src.Fields {
				out[name] = append(out[name], entry{Key: f.Key, Header: f.Header, Kind: f.Kind.String()})
			}
		}
		api.RespondWithPayload(w, out)
	}
}
