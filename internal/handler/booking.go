package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/skillswap/internal/booking"
	"github.com/iliyamo/skillswap/internal/catalog"
	"github.com/iliyamo/skillswap/internal/metrics"
	"github.com/iliyamo/skillswap/internal/middleware"
	"github.com/iliyamo/skillswap/internal/validate"
)

// BookingHandler accepts booking requests for catalog offerings.  Each
// request runs its own booking.Flow from Idle.
type BookingHandler struct {
	Catalog   *catalog.Catalog
	Sessions  booking.Resolver
	Store     booking.Store
	Submitter booking.Submitter
	Metrics   *metrics.Manager
}

type bookingReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Date     string `json:"date"`
	Location string `json:"location"` // client path to return to after sign-in
}

// Create: POST /v1/skills/:id/bookings.
//
//   - unknown skill          -> 404, nothing stored or sent
//   - invalid form           -> 400 with the field message
//   - no session             -> 401 with next=/login; draft kept for resume
//   - submitted              -> 201 with the request
func (h *BookingHandler) Create(c echo.Context) error {
	skill, err := h.Catalog.FindByID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "skill not found", "id": c.Param("id")})
	}
	var req bookingReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	flow := booking.NewFlow(skill, h.Sessions, h.Store, h.Submitter)
	if err := flow.Draft(req.Name, req.Email, req.Date); err != nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	}
	out, err := flow.Submit(ctx, middleware.DeviceFrom(c), middleware.BearerToken(c), req.Location)
	if err != nil {
		switch {
		case errors.Is(err, validate.ErrValidation):
			h.Metrics.BookingOutcome("invalid")
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid input", "message": validate.Message(err)})
		case errors.Is(err, booking.ErrSubmitFailed):
			h.Metrics.BookingOutcome("failed")
			c.Logger().Errorf("booking submit: %v", err)
			return c.JSON(http.StatusBadGateway, echo.Map{
				"error":   "booking submission failed",
				"state":   out.State.String(),
				"message": "Failed to send booking request. Please try again.",
			})
		}
		h.Metrics.BookingOutcome("error")
		c.Logger().Errorf("booking: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	switch out.State {
	case booking.AwaitingAuth:
		h.Metrics.BookingOutcome("awaiting_auth")
		return c.JSON(http.StatusUnauthorized, echo.Map{
			"state":   out.State.String(),
			"next":    out.Redirect,
			"message": out.Message,
		})
	default:
		h.Metrics.BookingOutcome("submitted")
		return c.JSON(http.StatusCreated, echo.Map{
			"state":   out.State.String(),
			"booking": out.Request,
			"message": out.Message,
		})
	}
}
