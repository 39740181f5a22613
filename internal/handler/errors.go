package handler

import (
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/skillswap/internal/authflow"
    "github.com/iliyamo/skillswap/internal/booking"
    "github.com/iliyamo/skillswap/internal/catalog"
    "github.com/iliyamo/skillswap/internal/identity"
    "github.com/iliyamo/skillswap/internal/session"
    "github.com/iliyamo/skillswap/internal/validate"
)

// StatusFor maps a domain error to its HTTP status.
func StatusFor(err error) int {
    switch {
    case errors.Is(err, validate.ErrValidation):
        return http.StatusBadRequest
    case errors.Is(err, catalog.ErrNotFound):
        return http.StatusNotFound
    case errors.Is(err, session.ErrUpdateFailed), errors.Is(err, booking.ErrSubmitFailed):
        return http.StatusBadGateway
    case errors.Is(err, booking.ErrInvalidState):
        return http.StatusConflict
    }
    switch identity.CodeOf(err) {
    case identity.CodeWrongPassword, identity.CodeUserNotFound,
        identity.CodeInvalidSession, identity.CodeInvalidCredential:
        return http.StatusUnauthorized
    case identity.CodeUserDisabled, identity.CodeOperationNotAllowed:
        return http.StatusForbidden
    case identity.CodeEmailAlreadyInUse:
        return http.StatusConflict
    case identity.CodeInvalidEmail, identity.CodeWeakPassword, identity.CodeInvalidActionCode:
        return http.StatusBadRequest
    case identity.CodeNetworkRequestFailed:
        return http.StatusServiceUnavailable
    case identity.CodePopupBlocked, identity.CodePopupClosedByUser, identity.CodeUnauthorizedDomain,
        identity.CodeOperationNotSupported, identity.CodeBrowserNotSupported, identity.CodeCancelledPopupRequest:
        return http.StatusUnprocessableEntity
    }
    return http.StatusInternalServerError
}

func errorLabel(err error) string {
    switch {
    case errors.Is(err, validate.ErrValidation):
        return "invalid input"
    case errors.Is(err, catalog.ErrNotFound):
        return "skill not found"
    case errors.Is(err, session.ErrUpdateFailed):
        return "profile update failed"
    case errors.Is(err, booking.ErrSubmitFailed):
        return "booking submission failed"
    case errors.Is(err, booking.ErrInvalidState):
        return "invalid booking state"
    }
    if code := identity.CodeOf(err); code != "" {
        return string(code)
    }
    return "internal error"
}

// failure writes the error body: a short machine label, the provider code
// when there is one, and the message for op.
func failure(c echo.Context, op authflow.Op, err error) error {
    body := echo.Map{
        "error":   errorLabel(err),
        "message": authflow.Message(op, err),
    }
    if code := identity.CodeOf(err); code != "" {
        body["code"] = code
    }
    status := StatusFor(err)
    if status >= http.StatusInternalServerError {
        c.Logger().Errorf("%s: %v", op, err)
    }
    return c.JSON(status, body)
}
