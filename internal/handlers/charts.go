package handlers

import (
	"net/http"
	"strings"

	"github.com/AnshRaj112/astravedam-backend/internal/astro"
	"github.com/AnshRaj112/astravedam-backend/internal/middleware"
	"github.com/AnshRaj112/astravedam-backend/internal/models"
	"github.com/AnshRaj112/astravedam-backend/internal/services"
)

type ChartHandler struct {
	charts *services.ChartService
}

func NewChartHandler(charts *services.ChartService) *ChartHandler {
	return &ChartHandler{charts: charts}
}

type CalculateChartRequest struct {
	Name         string `json:"name" validate:"max=200"`
	Date         string `json:"date" validate:"required"`
	Time         string `json:"time" validate:"required"`
	Location     string `json:"location" validate:"required,max=500"`
	UserID       string `json:"userId" validate:"max=200"`
	PersonName   string `json:"personName" validate:"max=200"`
	SetAsPrimary bool   `json:"setAsPrimary"`

	// Pre-geocoded by the client; both must be present to skip geocoding.
	Latitude         *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude        *float64 `json:"longitude" validate:"omitempty,longitude"`
	City             string   `json:"city" validate:"max=200"`
	Country          string   `json:"country" validate:"max=200"`
	FormattedAddress string   `json:"formattedAddress" validate:"max=500"`
}

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type LocationData struct {
	Coordinates      Coordinates `json:"coordinates"`
	Timezone         string      `json:"timezone"`
	FormattedAddress string      `json:"formattedAddress"`
	City             string      `json:"city"`
	Country          string      `json:"country"`
}

type CalculateChartResponse struct {
	Success      bool         `json:"success"`
	Chart        astro.Chart  `json:"chart"`
	ChartID      string       `json:"chartId"`
	IsPrimary    bool         `json:"isPrimary"`
	LocationData LocationData `json:"locationData"`
	Message      string       `json:"message"`
}

type GetChartsResponse struct {
	Success bool                 `json:"success"`
	Charts  []models.ChartRecord `json:"charts"`
	Count   int                  `json:"count"`
	Source  string               `json:"source"`
}

// CalculateChart derives and stores a chart. Auth is optional; a logged-in
// caller always owns the chart, otherwise the body's userId does.
func (h *ChartHandler) CalculateChart(w http.ResponseWriter, r *http.Request) {
	var req CalculateChartRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	identity := services.Identity{
		Account:     middleware.AccountFromContext(r.Context()),
		AnonymousID: strings.TrimSpace(req.UserID),
	}
	res, err := h.charts.Submit(r.Context(), identity, services.SubmitInput{
		Name:             req.Name,
		PersonName:       req.PersonName,
		Date:             req.Date,
		Time:             req.Time,
		Location:         req.Location,
		SetAsPrimary:     req.SetAsPrimary,
		Latitude:         req.Latitude,
		Longitude:        req.Longitude,
		City:             req.City,
		Country:          req.Country,
		FormattedAddress: req.FormattedAddress,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, CalculateChartResponse{
		Success:   true,
		Chart:     res.Chart.ChartData,
		ChartID:   res.Chart.ID.Hex(),
		IsPrimary: res.Chart.IsPrimary,
		LocationData: LocationData{
			Coordinates:      Coordinates{Lat: res.Location.Latitude, Lng: res.Location.Longitude},
			Timezone:         res.Location.Timezone,
			FormattedAddress: res.Location.FormattedAddress,
			City:             res.Location.City,
			Country:          res.Location.Country,
		},
		Message: "Birth chart calculated and saved successfully",
	})
}

// GetCharts lists charts for the caller; see ChartService.List for the rules.
func (h *ChartHandler) GetCharts(w http.ResponseWriter, r *http.Request) {
	identity := services.Identity{
		Account:     middleware.AccountFromContext(r.Context()),
		AnonymousID: strings.TrimSpace(r.URL.Query().Get("userId")),
	}
	res, err := h.charts.List(r.Context(), identity)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, GetChartsResponse{
		Success: true,
		Charts:  res.Charts,
		Count:   len(res.Charts),
		Source:  res.Source,
	})
}
