package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/skillswap/internal/authflow"
	"github.com/iliyamo/skillswap/internal/identity"
	"github.com/iliyamo/skillswap/internal/metrics"
	"github.com/iliyamo/skillswap/internal/middleware"
	"github.com/iliyamo/skillswap/internal/model"
	"github.com/iliyamo/skillswap/internal/session"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Auth    *authflow.Service
	Metrics *metrics.Manager
}

func NewAuthHandler(a *authflow.Service, m *metrics.Manager) *AuthHandler {
	return &AuthHandler{Auth: a, Metrics: m}
}

// ----- DTOs -----

type signInReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type signUpReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Photo    string `json:"photo"`
	Password string `json:"password"`
}
type federatedReq struct {
	Intent string `json:"intent"` // signin | signup
}
type callbackReq struct {
	State     string `json:"state"`
	Assertion string `json:"assertion"`
	Intent    string `json:"intent"`
}
type emailReq struct {
	Email string `json:"email"`
}
type confirmResetReq struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type authResp struct {
	User           *model.SessionUser  `json:"user,omitempty"`
	Avatar         string              `json:"avatar,omitempty"`
	Token          string              `json:"token,omitempty"`
	ExpiresAt      *time.Time          `json:"expires_at,omitempty"`
	Next           string              `json:"next,omitempty"`
	PendingBooking *model.BookingDraft `json:"pending_booking,omitempty"`
	RedirectURL    string              `json:"redirect_url,omitempty"`
	Message        string              `json:"message,omitempty"`
}

func toAuthResp(r authflow.Result) authResp {
	out := authResp{
		User:           r.User,
		Token:          r.Token,
		Next:           r.Next,
		PendingBooking: r.PendingBooking,
		RedirectURL:    r.RedirectURL,
		Message:        r.Message,
	}
	if r.User != nil {
		out.Avatar = session.AvatarURL(*r.User)
	}
	if !r.ExpiresAt.IsZero() {
		exp := r.ExpiresAt
		out.ExpiresAt = &exp
	}
	return out
}

func (h *AuthHandler) fail(c echo.Context, op authflow.Op, err error) error {
	h.Metrics.AuthFailure(string(op), string(identity.CodeOf(err)))
	return failure(c, op, err)
}

func badBody(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
}

// SignIn: email and password.
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req signInReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Auth.SignIn(ctx, middleware.DeviceFrom(c), req.Email, req.Password)
	if err != nil {
		return h.fail(c, authflow.OpSignIn, err)
	}
	return c.JSON(http.StatusOK, toAuthResp(res))
}

// SignUp: create the account and sign it in.
func (h *AuthHandler) SignUp(c echo.Context) error {
	var req signUpReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Auth.SignUp(ctx, middleware.DeviceFrom(c), authflow.SignUpInput{
		Name:     req.Name,
		Email:    req.Email,
		Photo:    req.Photo,
		Password: req.Password,
	})
	if err != nil {
		return h.fail(c, authflow.OpSignUp, err)
	}
	return c.JSON(http.StatusCreated, toAuthResp(res))
}

func federatedOp(intent string) authflow.Op {
	if strings.EqualFold(strings.TrimSpace(intent), "signup") {
		return authflow.OpFederatedSignUp
	}
	return authflow.OpFederatedSignIn
}

// Federated starts a federated sign-in.  When the popup flow is not
// available the response is 202 with the redirect URL to follow.
func (h *AuthHandler) Federated(c echo.Context) error {
	var req federatedReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	op := federatedOp(req.Intent)
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Auth.SignInFederated(ctx, middleware.DeviceFrom(c), op)
	if err != nil {
		return h.fail(c, op, err)
	}
	if res.RedirectURL != "" {
		return c.JSON(http.StatusAccepted, toAuthResp(res))
	}
	return c.JSON(http.StatusOK, toAuthResp(res))
}

// FederatedCallback finishes the redirect flow.
func (h *AuthHandler) FederatedCallback(c echo.Context) error {
	var req callbackReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	op := federatedOp(req.Intent)
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Auth.CompleteFederatedRedirect(ctx, middleware.DeviceFrom(c), req.State, req.Assertion, op)
	if err != nil {
		return h.fail(c, op, err)
	}
	return c.JSON(http.StatusOK, toAuthResp(res))
}

// RememberResetEmail saves the email typed on the login page so the reset
// page can prefill it.
func (h *AuthHandler) RememberResetEmail(c echo.Context) error {
	var req emailReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Auth.RememberResetEmail(ctx, middleware.DeviceFrom(c), req.Email); err != nil {
		c.Logger().Errorf("remember reset email: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save email failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) PrefillEmail(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	email, err := h.Auth.PrefillEmail(ctx, middleware.DeviceFrom(c))
	if err != nil {
		c.Logger().Errorf("prefill email: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load email failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"email": email})
}

func (h *AuthHandler) SendPasswordReset(c echo.Context) error {
	var req emailReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Auth.SendPasswordReset(ctx, middleware.DeviceFrom(c), req.Email)
	if err != nil {
		return h.fail(c, authflow.OpPasswordReset, err)
	}
	return c.JSON(http.StatusOK, toAuthResp(res))
}

func (h *AuthHandler) ConfirmPasswordReset(c echo.Context) error {
	var req confirmResetReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Auth.ConfirmPasswordReset(ctx, req.Token, req.Password)
	if err != nil {
		return h.fail(c, authflow.OpConfirmReset, err)
	}
	return c.JSON(http.StatusOK, toAuthResp(res))
}

// SignOut revokes the bearer token (when present) and clears the device's
// cached session.
func (h *AuthHandler) SignOut(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Auth.SignOut(ctx, middleware.DeviceFrom(c), middleware.BearerToken(c))
	if err != nil {
		return h.fail(c, authflow.OpSignOut, err)
	}
	return c.JSON(http.StatusOK, toAuthResp(res))
}
