package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/wonny/astrobet/internal/chart"
	"github.com/wonny/astrobet/internal/contracts"
	"github.com/wonny/astrobet/pkg/logger"
)

// maxChartBody bounds the request body
const maxChartBody = 4 << 10

// ChartRenderer computes API-shaped charts
type ChartRenderer interface {
	Render(ctx context.Context, m contracts.Moment, loc contracts.GeoCoordinate) (*chart.Output, error)
}

// ChartRequest is the chart input. Every field is required and must be a JSON
// number; pointers tell a missing field apart from zero.
type ChartRequest struct {
	Year             *int     `json:"year" validate:"required,min=1,max=9999"`
	Month            *int     `json:"month" validate:"required,min=1,max=12"`
	Day              *int     `json:"day" validate:"required,min=1,max=31"`
	Hour             *int     `json:"hour" validate:"required,min=0,max=23"`
	Minute           *int     `json:"minute" validate:"required,min=0,max=59"`
	Latitude         *float64 `json:"latitude" validate:"required,min=-90,max=90"`
	Longitude        *float64 `json:"longitude" validate:"required,min=-180,max=180"`
	UTCOffsetMinutes *int     `json:"utcOffsetMinutes" validate:"required,min=-840,max=840"`
}

// Moment returns the validated request's moment
func (r ChartRequest) Moment() contracts.Moment {
	return contracts.Moment{
		Year:             *r.Year,
		Month:            *r.Month,
		Day:              *r.Day,
		Hour:             *r.Hour,
		Minute:           *r.Minute,
		UTCOffsetMinutes: *r.UTCOffsetMinutes,
	}
}

// Location returns the validated request's coordinates
func (r ChartRequest) Location() contracts.GeoCoordinate {
	return contracts.GeoCoordinate{Latitude: *r.Latitude, Longitude: *r.Longitude}
}

// ChartHandler serves natal charts
// ⭐ SSOT: 차트 API 입력 검증은 여기서만
type ChartHandler struct {
	charts   ChartRenderer
	validate *validator.Validate
	logger   *logger.Logger
}

// NewChartHandler creates a new chart handler
func NewChartHandler(charts ChartRenderer, log *logger.Logger) *ChartHandler {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)

	return &ChartHandler{
		charts:   charts,
		validate: v,
		logger:   log,
	}
}

// Compute returns the chart for the posted moment and place
// POST /api/v1/chart
func (h *ChartHandler) Compute(w http.ResponseWriter, r *http.Request) {
	var req ChartRequest

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChartBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, decodeError(err))
		return
	}
	if dec.More() {
		respondError(w, http.StatusBadRequest, "request body must be a single JSON object")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		respondJSON(w, http.StatusBadRequest, validationResponse(err))
		return
	}

	out, err := h.charts.Render(r.Context(), req.Moment(), req.Location())
	if err != nil {
		var ve *contracts.ValidationError
		if errors.As(err, &ve) {
			respondJSON(w, http.StatusBadRequest, ErrorResponse{
				Error:  ve.Kind.Error(),
				Fields: map[string]string{ve.Field: ve.Message},
			})
			return
		}
		h.logger.WithError(err).Error("Failed to compute chart")
		respondError(w, http.StatusInternalServerError, "Failed to compute chart")
		return
	}

	respondJSON(w, http.StatusOK, out)
}

func decodeError(err error) ErrorResponse {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return ErrorResponse{
			Error:  "invalid request body",
			Fields: map[string]string{typeErr.Field: fmt.Sprintf("must be a %s, got %s", typeErr.Type.String(), typeErr.Value)},
		}
	}

	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return ErrorResponse{Error: "request body too large"}
	}

	msg := err.Error()
	if strings.HasPrefix(msg, "json: unknown field ") {
		field := strings.Trim(strings.TrimPrefix(msg, "json: unknown field "), `"`)
		return ErrorResponse{Error: "invalid request body", Fields: map[string]string{field: "unknown field"}}
	}
	return ErrorResponse{Error: "invalid request body"}
}

func validationResponse(err error) ErrorResponse {
	resp := ErrorResponse{Error: "validation failed", Fields: map[string]string{}}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		resp.Fields["body"] = err.Error()
		return resp
	}

	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			resp.Fields[fe.Field()] = "is required"
		case "min":
			resp.Fields[fe.Field()] = "must be >= " + fe.Param()
		case "max":
			resp.Fields[fe.Field()] = "must be <= " + fe.Param()
		default:
			resp.Fields[fe.Field()] = "failed " + fe.Tag()
		}
	}
	return resp
}

func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}
