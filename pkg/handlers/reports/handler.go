package reports

import (
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/helium/etl-extract/pkg/models/domain"
	"github.com/helium/etl-extract/pkg/runtime/terminal/export"
	"github.com/helium/etl-extract/pkg/services/report"
	"github.com/helium/etl-extract/pkg/store/blocks"
	"github.com/rs/zerolog"
)

const (
	defaultSpanDays   = 1
	defaultWindowDays = -1
)

var errBadRequest = errors.New("bad request")

type Handler struct {
	svc report.Reports
}

func NewHandler(svc report.Reports) *Handler {
	return &Handler{svc: svc}
}

// Routes mounts the report endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/blocks/span", h.Span)
	r.Get("/supply", h.Supply)
	r.Get("/accounts/{account}/balance", h.Balance)
	r.Get("/accounts/{account}/rewards", h.AccountRewards)
	r.Get("/rewards/hex", h.HexRewards)
	r.Get("/rewards/network", h.NetworkRewards)
	r.Get("/hotspots", h.Hotspots)
}

func (h *Handler) Span(w http.ResponseWriter, r *http.Request) {
	date, days, err := window(r, defaultSpanDays)
	if err != nil {
		writeError(w, r, err)
		return
	}
	span, err := h.svc.Span(r.Context(), date, days)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, span)
}

func (h *Handler) Supply(w http.ResponseWriter, r *http.Request) {
	format, ends, err := formatAndEnds(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	stream(w, r, format, h.svc.Supply(r.Context(), ends))
}

func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	format, ends, err := formatAndEnds(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	stream(w, r, format, h.svc.Balance(r.Context(), chi.URLParam(r, "account"), ends))
}

func (h *Handler) AccountRewards(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	start, err := requiredDate(r, "start")
	if err != nil {
		writeError(w, r, err)
		return
	}
	end, err := requiredDate(r, "end")
	if err != nil {
		writeError(w, r, err)
		return
	}
	rows, err := h.svc.ValidatorRewards(r.Context(), chi.URLParam(r, "account"), start, end)
	if err != nil {
		writeError(w, r, err)
		return
	}
	stream(w, r, format, rows)
}

func (h *Handler) HexRewards(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	date, days, err := window(r, defaultWindowDays)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rows, err := h.svc.HexRewards(r.Context(), date, days)
	if err != nil {
		writeError(w, r, err)
		return
	}
	stream(w, r, format, rows)
}

func (h *Handler) NetworkRewards(w http.ResponseWriter, r *http.Request) {
	date, days, err := window(r, defaultWindowDays)
	if err != nil {
		writeError(w, r, err)
		return
	}
	summary, err := h.svc.NetworkRewards(r.Context(), date, days)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, summary)
}

func (h *Handler) Hotspots(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	date, days, err := window(r, defaultWindowDays)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rows, err := h.svc.Hotspots(r.Context(), date, days)
	if err != nil {
		writeError(w, r, err)
		return
	}
	stream(w, r, format, rows)
}

func requiredDate(r *http.Request, name string) (domain.Date, error) {
	value := r.URL.Query().Get(name)
	if value == "" {
		return domain.Date{}, fmt.Errorf("%w: missing %s", errBadRequest, name)
	}
	return domain.ParseDate(value)
}

func window(r *http.Request, defaultDays int64) (domain.Date, int64, error) {
	date, err := requiredDate(r, "date")
	if err != nil {
		return domain.Date{}, 0, err
	}
	value := r.URL.Query().Get("days")
	if value == "" {
		return date, defaultDays, nil
	}
	days, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return domain.Date{}, 0, fmt.Errorf("%w: invalid days %q", errBadRequest, value)
	}
	if err := domain.ValidateDays(days); err != nil {
		return domain.Date{}, 0, err
	}
	return date, days, nil
}

func formatAndEnds(r *http.Request) (export.Format, []domain.Date, error) {
	query := r.URL.Query()
	format, err := export.ParseFormat(query.Get("format"))
	if err != nil {
		return format, nil, err
	}
	values := query["end"]
	if len(values) == 0 {
		return format, nil, fmt.Errorf("%w: at least one end date is required", errBadRequest)
	}
	ends, err := domain.ParseDates(values)
	return format, ends, err
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, domain.ErrInvalidDate),
		errors.Is(err, domain.ErrInvalidDays),
		errors.Is(err, export.ErrUnknownFormat):
		return http.StatusBadRequest
	case errors.Is(err, blocks.ErrNoBracketingBlock):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	logger := zerolog.Ctx(r.Context())
	if status == http.StatusInternalServerError {
		logger.Error().Err(err).Msg("report failed")
	} else {
		logger.Debug().Err(err).Int("status", status).Msg("report rejected")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": err.Error()}); err != nil {
		logger.Error().Err(err).Msg("failed to encode error response")
	}
}

func writeJSON[T any](w http.ResponseWriter, r *http.Request, v T) {
	w.Header().Set("Content-Type", export.FormatJSON.ContentType())
	if err := export.WriteOne(export.NewSink(w), export.FormatJSON, v); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to encode response")
	}
}

// stream writes rows as they arrive. Until the first byte is written a
// failure still becomes an error response; after that the body is cut short.
func stream[T any](w http.ResponseWriter, r *http.Request, format export.Format, rows iter.Seq2[T, error]) {
	logger := zerolog.Ctx(r.Context())
	rw := &deferredWriter{w: w, contentType: format.ContentType()}

	n, err := export.Write(export.NewSink(rw), format, rows)
	switch {
	case err == nil:
		rw.commit()
		logger.Debug().Int("records", n).Msg("report streamed")
	case !rw.started:
		var srcErr *export.SourceError
		if errors.As(err, &srcErr) {
			err = srcErr.Err
		}
		writeError(w, r, err)
	default:
		logger.Error().Err(err).Int("records", n).Msg("response truncated")
	}
}

// deferredWriter sends the success status with the first write.
type deferredWriter struct {
	w           http.ResponseWriter
	contentType string
	started     bool
}

func (d *deferredWriter) commit() {
	if d.started {
		return
	}
	d.started = true
	d.w.Header().Set("Content-Type", d.contentType)
	d.w.WriteHeader(http.StatusOK)
}

func (d *deferredWriter) Write(p []byte) (int, error) {
	d.commit()
	return d.w.Write(p)
}
