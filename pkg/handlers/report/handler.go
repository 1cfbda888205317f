package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/de-tools/job-pulse/pkg/adapters"
	"github.com/de-tools/job-pulse/pkg/models/domain"
	"github.com/de-tools/job-pulse/pkg/models/store"
	"github.com/de-tools/job-pulse/pkg/render/chart"
	"github.com/de-tools/job-pulse/pkg/services/publish"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const defaultHistoryLimit = 20

type Previewer interface {
	Title() string
	Preview(ctx context.Context) (*publish.Result, error)
}

type HistoryLister interface {
	List(ctx context.Context, title string, limit int) ([]store.PublishRecord, error)
}

type Handler struct {
	previewer Previewer
	history   HistoryLister
}

// NewHandler builds the preview handler. history may be nil.
func NewHandler(previewer Previewer, history HistoryLister) *Handler {
	return &Handler{
		previewer: previewer,
		history:   history,
	}
}

func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	res, ok := h.preview(w, r)
	if !ok {
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, adapters.MapReportDomainToApi(res.Report))
}

func (h *Handler) GetReportBody(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	res, ok := h.preview(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/xhtml+xml; charset=utf-8")
	if _, err := w.Write([]byte(res.Body)); err != nil {
		logger.Error().Err(err).Msg("failed to write report body")
	}
}

func (h *Handler) GetSectionChart(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "section index must be a number")
		return
	}

	res, ok := h.preview(w, r)
	if !ok {
		return
	}
	if index < 0 || index >= len(res.Report.Sections) {
		writeError(r.Context(), w, http.StatusNotFound, "section not found")
		return
	}

	section := res.Report.Sections[index]
	if section.Kind != domain.SectionKindChart {
		writeError(r.Context(), w, http.StatusUnprocessableEntity, "section is not a chart")
		return
	}

	var buf bytes.Buffer
	if err := chart.RenderSVG(section, &buf); err != nil {
		logger.Error().Err(err).Int("section", index).Msg("failed to render chart")
		if errors.Is(err, chart.ErrNotChart) {
			writeError(r.Context(), w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeError(r.Context(), w, http.StatusInternalServerError, "failed to render chart")
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	if _, err := buf.WriteTo(w); err != nil {
		logger.Error().Err(err).Msg("failed to write chart")
	}
}

func (h *Handler) ListHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	if h.history == nil {
		writeError(ctx, w, http.StatusNotFound, "publish history is not configured")
		return
	}

	title := r.URL.Query().Get("title")
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(ctx, w, http.StatusBadRequest, "limit must be a positive number")
			return
		}
		limit = n
	}

	records, err := h.history.List(ctx, title, limit)
	if err != nil {
		logger.Error().Err(err).Str("title", title).Msg("failed to list publish history")
		writeError(ctx, w, http.StatusInternalServerError, "failed to list publish history")
		return
	}
	writeJSON(ctx, w, http.StatusOK, adapters.MapPublishRecordsStoreToApi(records))
}

func (h *Handler) preview(w http.ResponseWriter, r *http.Request) (*publish.Result, bool) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	res, err := h.previewer.Preview(ctx)
	if err != nil {
		logger.Error().Err(err).Str("title", h.previewer.Title()).Msg("failed to render preview")
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrSourceLoad) || errors.Is(err, domain.ErrNoValidSourceData) {
			status = http.StatusBadGateway
		}
		writeError(ctx, w, status, err.Error())
		return nil, false
	}
	return res, true
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, msg string) {
	writeJSON(ctx, w, status, errorResponse{Error: msg})
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to encode response")
	}
}
