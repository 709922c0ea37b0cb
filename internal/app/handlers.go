package app

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"scheduling-service/internal/apperrors"
)

// RegisterRoutes mounts the public booking API and the authenticated host API.
// limit guards the booking write; auth guards host configuration.
func (a *App) RegisterRoutes(api gin.IRouter, auth, limit gin.HandlerFunc) {
	users := api.Group("/users/:username")
	{
		users.GET("/blocked-dates", a.BlockedDatesHandler)
		users.GET("/availability", a.AvailabilityHandler)
		users.GET("/calendar", a.CalendarHandler)
		users.POST("/schedule", limit, a.CreateBookingHandler)

		host := users.Group("", auth)
		host.GET("/time-intervals", a.ListRulesHandler)
		host.PUT("/time-intervals", a.ReplaceRulesHandler)
		host.GET("/bookings", a.ListBookingsHandler)
	}
}

func (a *App) respondError(c *gin.Context, err error) {
	appErr := apperrors.As(err)
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		a.log.Error("Request failed", "route", c.FullPath(), "code", appErr.Code, "error", err)
	}
	body := gin.H{"error": appErr.Message, "code": appErr.Code}
	if appErr.Details != nil {
		body["details"] = appErr.Details
	}
	c.AbortWithStatusJSON(appErr.HTTPStatus, body)
}

// GET /users/:username/blocked-dates?year=YYYY&month=M
func (a *App) BlockedDatesHandler(c *gin.Context) {
	year, month, err := parseYearMonth(c)
	if err != nil {
		a.respondError(c, err)
		return
	}
	blocked, err := a.ComputeBlockedDays(c.Request.Context(), c.Param("username"), year, month)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, blocked)
}

// GET /users/:username/availability?date=YYYY-MM-DD
func (a *App) AvailabilityHandler(c *gin.Context) {
	dateStr := c.Query("date")
	if dateStr == "" {
		a.respondError(c, apperrors.BadRequest("Date not provided."))
		return
	}
	date, err := time.ParseInLocation(time.DateOnly, dateStr, a.loc)
	if err != nil {
		a.respondError(c, apperrors.BadRequest("date must be YYYY-MM-DD"))
		return
	}
	day, err := a.ComputeAvailability(c.Request.Context(), c.Param("username"), date)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, day)
}

// GET /users/:username/calendar?year=YYYY&month=M
func (a *App) CalendarHandler(c *gin.Context) {
	year, month, err := parseYearMonth(c)
	if err != nil {
		a.respondError(c, err)
		return
	}
	grid, err := a.BuildCalendar(c.Request.Context(), c.Param("username"), year, month)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, grid)
}

type createBookingReq struct {
	Name         string `json:"name" binding:"required"`
	Email        string `json:"email" binding:"required,email"`
	Observations string `json:"observations"`
	Date         string `json:"date" binding:"required"` // RFC3339
}

// POST /users/:username/schedule
//
// The host is resolved before the body is read, so an unknown user is a 404
// whatever the payload.
func (a *App) CreateBookingHandler(c *gin.Context) {
	host, err := a.host(c.Request.Context(), c.Param("username"))
	if err != nil {
		a.respondError(c, err)
		return
	}

	var req createBookingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		a.respondError(c, apperrors.BadRequest(err.Error()))
		return
	}
	start, err := time.Parse(time.RFC3339, req.Date)
	if err != nil {
		a.respondError(c, apperrors.BadRequest("date must be an ISO-8601 datetime"))
		return
	}

	booking, err := a.book(c.Request.Context(), host, BookingRequest{
		AttendeeName:  req.Name,
		AttendeeEmail: req.Email,
		Notes:         req.Observations,
		StartAt:       start,
	})
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, booking)
}

// GET /users/:username/time-intervals
func (a *App) ListRulesHandler(c *gin.Context) {
	rules, err := a.ListRules(c.Request.Context(), c.Param("username"))
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rules)
}

type replaceRulesReq struct {
	Intervals []RuleInput `json:"intervals"`
}

// PUT /users/:username/time-intervals
func (a *App) ReplaceRulesHandler(c *gin.Context) {
	var req replaceRulesReq
	if err := c.ShouldBindJSON(&req); err != nil {
		a.respondError(c, apperrors.BadRequest(err.Error()))
		return
	}
	rules, err := a.ReplaceRules(c.Request.Context(), c.Param("username"), req.Intervals)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rules)
}

// GET /users/:username/bookings?from=ISO&to=ISO
func (a *App) ListBookingsHandler(c *gin.Context) {
	fromStr := c.Query("from")
	toStr := c.Query("to")

	var from, to time.Time
	if fromStr != "" || toStr != "" {
		var err error
		if from, err = time.Parse(time.RFC3339, fromStr); err != nil {
			a.respondError(c, apperrors.BadRequest("invalid from"))
			return
		}
		if to, err = time.Parse(time.RFC3339, toStr); err != nil {
			a.respondError(c, apperrors.BadRequest("invalid to"))
			return
		}
		if !from.Before(to) {
			a.respondError(c, apperrors.BadRequest("from must be before to"))
			return
		}
	}

	bookings, err := a.ListBookings(c.Request.Context(), c.Param("username"), from, to)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}

func parseYearMonth(c *gin.Context) (int, time.Month, error) {
	yearStr, monthStr := c.Query("year"), c.Query("month")
	if yearStr == "" || monthStr == "" {
		return 0, 0, apperrors.BadRequest("Year or month not provided.")
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil || year < 1 || year > 9999 {
		return 0, 0, apperrors.BadRequest("invalid year")
	}
	month, err := strconv.Atoi(monthStr)
	if err != nil || month < 1 || month > 12 {
		return 0, 0, apperrors.BadRequest("month must be between 1 and 12")
	}
	return year, time.Month(month), nil
}
