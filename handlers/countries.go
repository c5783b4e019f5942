package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/Habeeboss/COUNTRIES-CURRENCY-API/models"
	"github.com/Habeeboss/COUNTRIES-CURRENCY-API/services"
	"github.com/gin-gonic/gin"
)

type Refresher interface {
	Refresh(ctx context.Context) (*models.RefreshResult, error)
}

type CountryHandler struct {
	countries *services.CountryService
	refresher Refresher
	imagePath string
	errors    *ErrorResponder
}

func NewCountryHandler(countries *services.CountryService, refresher Refresher, imagePath string, errs *ErrorResponder) *CountryHandler {
	return &CountryHandler{
		countries: countries,
		refresher: refresher,
		imagePath: imagePath,
		errors:    errs,
	}
}

// RefreshCountries handles POST /countries/refresh
func (h *CountryHandler) RefreshCountries(c *gin.Context) {
	result, err := h.refresher.Refresh(c.Request.Context())
	if err != nil {
		h.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListCountries handles GET /countries
func (h *CountryHandler) ListCountries(c *gin.Context) {
	filter := models.CountryFilter{
		Region:        c.Query("region"),
		Currency:      c.Query("currency"),
		MinPopulation: queryInt64(c, "min_population"),
		MaxPopulation: queryInt64(c, "max_population"),
		Sort:          c.Query("sort"),
	}

	countries, err := h.countries.List(c.Request.Context(), filter)
	if err != nil {
		h.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, countries)
}

// GetCountry handles GET /countries/:name
func (h *CountryHandler) GetCountry(c *gin.Context) {
	country, err := h.countries.GetByName(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.errors.Respond(c, err)
		return
	}
	if country == nil {
		h.errors.Respond(c, services.NotFound("Country not found"))
		return
	}
	c.JSON(http.StatusOK, country)
}

// DeleteCountry handles DELETE /countries/:name
func (h *CountryHandler) DeleteCountry(c *gin.Context) {
	name := c.Param("name")
	deleted, err := h.countries.DeleteByName(c.Request.Context(), name)
	if err != nil {
		h.errors.Respond(c, err)
		return
	}
	if !deleted {
		h.errors.Respond(c, services.NotFound("Country not found"))
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: fmt.Sprintf("Country %s deleted successfully", name)})
}

// AddCountry handles POST /countries/add
func (h *CountryHandler) AddCountry(c *gin.Context) {
	var req models.AddCountryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		details := bindingDetails(err, &req)
		// "required" accepts a whitespace-only name
		if _, decodeFailed := details["body"]; !decodeFailed && strings.TrimSpace(req.Name) == "" {
			details["name"] = "is required"
		}
		h.errors.Respond(c, services.ValidationError(details))
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		h.errors.Respond(c, services.ValidationError(map[string]string{"name": "is required"}))
		return
	}

	country, err := h.countries.AddCountry(c.Request.Context(), req)
	if err != nil {
		h.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: fmt.Sprintf("Country %s added/updated successfully", country.Name)})
}

// GetStatus handles GET /countries/status
func (h *CountryHandler) GetStatus(c *gin.Context) {
	status, err := h.countries.Status(c.Request.Context())
	if err != nil {
		h.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// GetSummaryImage handles GET /countries/image
func (h *CountryHandler) GetSummaryImage(c *gin.Context) {
	info, err := os.Stat(h.imagePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			h.errors.Respond(c, services.NotFound("Summary image not found"))
			return
		}
		h.errors.Respond(c, services.Internal(err))
		return
	}
	if info.IsDir() {
		h.errors.Respond(c, services.NotFound("Summary image not found"))
		return
	}

	c.Header("Content-Type", "image/png")
	c.File(h.imagePath)
}

// GetTopCountries handles GET /countries/gdp/top
func (h *CountryHandler) GetTopCountries(c *gin.Context) {
	limit := leadingInt(c.Query("limit"))

	countries, err := h.countries.TopByGDP(c.Request.Context(), limit)
	if err != nil {
		h.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, countries)
}

// queryInt64 returns nil for an absent or non-numeric query value.
func queryInt64(c *gin.Context, key string) *int64 {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

// leadingInt reads the optional sign and leading digits of s, so "3.7" and "3abc"
// give 3. Anything without leading digits gives 0; out-of-range values clamp.
func leadingInt(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}
	n, _ := strconv.Atoi(s[:end])
	return n
}
