package http

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apperrors "retailcast/internal/errors"
	"retailcast/internal/exporter"
	"retailcast/internal/services"
)

// ForecastHandler handles sales data and forecast HTTP requests with
// RFC 7807 error responses.
type ForecastHandler struct {
	service      *services.ForecastService
	exporter     *exporter.ForecastExporter
	logger       *slog.Logger
	errorHandler *apperrors.ErrorHandler
	validate     *validator.Validate

	maxUploadBytes int64
}

// NewForecastHandler creates a new forecast handler
func NewForecastHandler(
	service *services.ForecastService,
	csvExporter *exporter.ForecastExporter,
	logger *slog.Logger,
	errorHandler *apperrors.ErrorHandler,
	maxUploadBytes int64,
) *ForecastHandler {
	return &ForecastHandler{
		service:        service,
		exporter:       csvExporter,
		logger:         logger.With(slog.String("component", "forecast_handler")),
		errorHandler:   errorHandler,
		validate:       validator.New(),
		maxUploadBytes: maxUploadBytes,
	}
}

// Routes returns the sales and forecast routes
func (h *ForecastHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Route("/sales", func(r chi.Router) {
		r.Post("/data", h.UploadSalesData)
		r.Get("/status", h.GetStatus)
	})

	r.Route("/config", func(r chi.Router) {
		r.Put("/closed-days", h.PutClosedDays)
		r.Put("/special-dates", h.PutSpecialDates)
	})

	r.Route("/forecast", func(r chi.Router) {
		r.Post("/", h.GenerateForecast)
		r.Post("/budget", h.DistributeBudget)
		r.Get("/export", h.ExportForecast)
	})

	return r
}

// closedDaysRequest carries the closed-weekday configuration
type closedDaysRequest struct {
	Days []int `json:"days" validate:"required,dive,gte=0,lte=6"`
}

// specialDatesRequest carries the special-date configuration as ISO dates
type specialDatesRequest struct {
	Dates []string `json:"dates" validate:"required,dive,datetime=2006-01-02"`
}

// forecastRequest selects an optional base year for the trend fit
type forecastRequest struct {
	BaseYear int `json:"base_year" validate:"omitempty,gte=1900,lte=2200"`
}

// budgetRequest carries the yearly budget to distribute
type budgetRequest struct {
	YearlyBudget float64 `json:"yearly_budget" validate:"gte=0"`
}

// forecastResponse wraps the generated forecast table
type forecastResponse struct {
	Rows  interface{} `json:"rows"`
	Count int         `json:"count"`
}

// UploadSalesData handles POST /api/sales/data. The sales table is sent
// either as a multipart "file" part (CSV or XLSX, chosen by extension) or
// as a raw text/csv request body.
func (h *ForecastHandler) UploadSalesData(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	status, err := h.ingest(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "sales data uploaded",
		slog.Int("record_count", status.RecordCount))

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, status)
}

func (h *ForecastHandler) ingest(r *http.Request) (services.DatasetStatus, error) {
	contentType := r.Header.Get("Content-Type")

	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
			return services.DatasetStatus{}, apperrors.NewValidationError(
				"malformed multipart upload")
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			return services.DatasetStatus{}, apperrors.NewValidationError(
				"multipart upload must contain a \"file\" part")
		}
		defer file.Close()

		if strings.EqualFold(filepath.Ext(header.Filename), ".xlsx") {
			return h.ingestWorkbook(r, file, header.Filename)
		}
		return h.service.LoadCSV(r.Context(), file)
	}

	// raw CSV body
	return h.service.LoadCSV(r.Context(), r.Body)
}

// ingestWorkbook spools the uploaded workbook to a temp file, since the
// XLSX reader needs a seekable source.
func (h *ForecastHandler) ingestWorkbook(r *http.Request, file multipart.File, name string) (services.DatasetStatus, error) {
	tmp, err := os.CreateTemp("", "upload-*.xlsx")
	if err != nil {
		return services.DatasetStatus{}, apperrors.NewStorageError(
			"failed to buffer workbook upload", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if _, err := io.Copy(tmp, file); err != nil {
		return services.DatasetStatus{}, apperrors.NewStorageError(
			"failed to buffer workbook upload", err)
	}
	if err := tmp.Close(); err != nil {
		return services.DatasetStatus{}, apperrors.NewStorageError(
			"failed to buffer workbook upload", err)
	}

	h.logger.InfoContext(r.Context(), "ingesting workbook upload",
		slog.String("filename", name))

	return h.service.LoadWorkbook(r.Context(), tmp.Name())
}

// GetStatus handles GET /api/sales/status
func (h *ForecastHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Status(r.Context()))
}

// PutClosedDays handles PUT /api/config/closed-days
func (h *ForecastHandler) PutClosedDays(w http.ResponseWriter, r *http.Request) {
	var req closedDaysRequest
	if err := h.decode(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, h.service.SetClosedDays(r.Context(), req.Days))
}

// PutSpecialDates handles PUT /api/config/special-dates
func (h *ForecastHandler) PutSpecialDates(w http.ResponseWriter, r *http.Request) {
	var req specialDatesRequest
	if err := h.decode(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	dates := make([]time.Time, len(req.Dates))
	for i, raw := range req.Dates {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			h.errorHandler.HandleError(w, r, apperrors.NewValidationError(
				fmt.Sprintf("special date %q is not a valid ISO date", raw)))
			return
		}
		dates[i] = parsed
	}

	render.JSON(w, r, h.service.SetSpecialDates(r.Context(), dates))
}

// GenerateForecast handles POST /api/forecast
func (h *ForecastHandler) GenerateForecast(w http.ResponseWriter, r *http.Request) {
	var req forecastRequest
	if err := h.decode(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	rows, err := h.service.GenerateForecast(r.Context(), req.BaseYear)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, forecastResponse{Rows: rows, Count: len(rows)})
}

// DistributeBudget handles POST /api/forecast/budget
func (h *ForecastHandler) DistributeBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := h.decode(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	rows, err := h.service.DistributeBudget(r.Context(), req.YearlyBudget)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, forecastResponse{Rows: rows, Count: len(rows)})
}

// ExportForecast handles GET /api/forecast/export, streaming the budgeted
// forecast table as a CSV download. The yearly budget is passed as a
// "budget" query parameter; when absent the plain forecast is exported
// with zero budget columns.
func (h *ForecastHandler) ExportForecast(w http.ResponseWriter, r *http.Request) {
	budget := 0.0
	if raw := r.URL.Query().Get("budget"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			h.errorHandler.HandleError(w, r, apperrors.NewValidationError(
				fmt.Sprintf("budget value %q is not a number", raw)))
			return
		}
		budget = parsed
	}

	rows, err := h.service.DistributeBudget(r.Context(), budget)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=forecast_%s.csv", time.Now().Format("2006_01_02")))

	if err := h.exporter.Export(w, rows); err != nil {
		// headers are already out, all we can do is log
		h.logger.ErrorContext(r.Context(), "forecast export failed mid-stream",
			slog.String("error", err.Error()))
	}
}

// decode unmarshals a JSON request body and applies validation tags
func (h *ForecastHandler) decode(r *http.Request, dst interface{}) error {
	// an empty body means "all defaults"
	if err := render.DecodeJSON(r.Body, dst); err != nil && !errors.Is(err, io.EOF) {
		return apperrors.NewValidationError("request body is not valid JSON")
	}
	if err := h.validate.Struct(dst); err != nil {
		return apperrors.NewValidationError(validationDetail(err))
	}
	return nil
}

func validationDetail(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		first := verrs[0]
		return fmt.Sprintf("field %q failed validation rule %q", first.Field(), first.Tag())
	}
	return "request validation failed"
}
