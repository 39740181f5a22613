package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/skillswap/internal/authflow"
	"github.com/iliyamo/skillswap/internal/middleware"
	"github.com/iliyamo/skillswap/internal/model"
	"github.com/iliyamo/skillswap/internal/session"
)

// ProfileHandler serves the signed-in user's profile.  Its routes sit
// behind LoadSession and RequireSession.
type ProfileHandler struct {
	Sessions *session.Reconciler
}

type profileReq struct {
	DisplayName string  `json:"displayName"`
	PhotoURL    *string `json:"photoURL"` // omitted keeps, "" clears
}

func profileResp(u model.SessionUser, msg string) echo.Map {
	body := echo.Map{"state": "signed_in", "user": u, "avatar": session.AvatarURL(u)}
	if msg != "" {
		body["message"] = msg
	}
	return body
}

func (h *ProfileHandler) Get(c echo.Context) error {
	u, _ := middleware.SessionFrom(c)
	return c.JSON(http.StatusOK, profileResp(u, ""))
}

// Update edits the display name and photo.  Federated users are written
// through the provider; cached-only users are updated on the device.
func (h *ProfileHandler) Update(c echo.Context) error {
	var req profileReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	current, _ := middleware.SessionFrom(c)
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Sessions.ApplyProfileEdit(ctx, middleware.DeviceFrom(c), middleware.BearerToken(c), current,
		session.ProfileUpdate{DisplayName: req.DisplayName, PhotoURL: req.PhotoURL})
	if err != nil {
		return failure(c, authflow.OpProfile, err)
	}
	return c.JSON(http.StatusOK, profileResp(u, authflow.MsgProfileUpdated))
}
