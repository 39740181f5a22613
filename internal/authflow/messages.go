package authflow

import (
	"github.com/iliyamo/skillswap/internal/identity"
	"github.com/iliyamo/skillswap/internal/validate"
)

// Op names a user-facing auth operation.  Each one has its own message
// table so the same provider code can read differently on different pages.
type Op string

const (
	OpSignIn          Op = "signin"
	OpSignUp          Op = "signup"
	OpFederatedSignIn Op = "federated_signin"
	OpFederatedSignUp Op = "federated_signup"
	OpPasswordReset   Op = "password_reset"
	OpConfirmReset    Op = "confirm_reset"
	OpProfile         Op = "profile"
	OpSignOut         Op = "signout"
)

const msgNetwork = "Network error. Please check your internet connection."

const msgUnauthorizedDomain = "This domain is not authorized. Please refresh the page after a few minutes, and contact support if the issue persists."

var failureMessages = map[Op]map[identity.Code]string{
	OpSignIn: {
		identity.CodeInvalidEmail:  "Invalid email address",
		identity.CodeUserDisabled:  "This account has been disabled",
		identity.CodeUserNotFound:  "No account found with this email",
		identity.CodeWrongPassword: "Incorrect password",
	},
	OpSignUp: {
		identity.CodeEmailAlreadyInUse:   "An account with this email already exists",
		identity.CodeInvalidEmail:        "Invalid email address",
		identity.CodeOperationNotAllowed: "Email/password accounts are not enabled. Please contact support.",
		identity.CodeWeakPassword:        "Password is too weak. Please choose a stronger password.",
	},
	OpFederatedSignIn: {
		identity.CodeUnauthorizedDomain:  msgUnauthorizedDomain,
		identity.CodePopupBlocked:        "Popup was blocked. Please allow popups for this site.",
		identity.CodePopupClosedByUser:   "Sign-in was cancelled.",
		identity.CodeOperationNotAllowed: "Google sign-in is not enabled. Please contact support.",
		identity.CodeUserDisabled:        "This account has been disabled",
	},
	OpFederatedSignUp: {
		identity.CodeUnauthorizedDomain:  msgUnauthorizedDomain,
		identity.CodePopupBlocked:        "Popup was blocked. Please allow popups for this site.",
		identity.CodePopupClosedByUser:   "Sign-up was cancelled.",
		identity.CodeOperationNotAllowed: "Google sign-in is not enabled. Please contact support.",
		identity.CodeEmailAlreadyInUse:   "An account with this email already exists",
	},
	OpPasswordReset: {
		identity.CodeInvalidEmail: "Invalid email address",
		identity.CodeUserNotFound: "No account found with this email",
		identity.CodeUserDisabled: "This account has been disabled",
	},
	OpConfirmReset: {
		identity.CodeInvalidActionCode: "This reset link is invalid or has expired",
		identity.CodeWeakPassword:      "Password is too weak. Please choose a stronger password.",
	},
	OpProfile: {
		identity.CodeInvalidSession: "Your session has expired. Please sign in again.",
	},
}

var defaultMessages = map[Op]string{
	OpSignIn:          "Failed to sign in. Please try again.",
	OpSignUp:          "Failed to create account. Please try again.",
	OpFederatedSignIn: "Google sign-in failed. Please try again or use email/password.",
	OpFederatedSignUp: "Google sign-up failed. Please try again or use email/password.",
	OpPasswordReset:   "Failed to send reset email. Please try again.",
	OpConfirmReset:    "Failed to reset password. Please try again.",
	OpProfile:         "Failed to update profile. Please try again.",
	OpSignOut:         "Failed to sign out. Please try again.",
}

// Success messages shown after each operation completes.
const (
	MsgSignedIn          = "Welcome back!"
	MsgSignedUp          = "Account created successfully! Welcome to SkillSwap."
	MsgFederatedSignedIn = "Signed in successfully with Google!"
	MsgFederatedSignedUp = "Signed up successfully with Google!"
	MsgResetSent         = "Password reset email sent! Check your inbox."
	MsgPasswordChanged   = "Your password has been reset. Please sign in."
	MsgProfileUpdated    = "Profile updated successfully"
	MsgSignedOut         = "Signed out"
)

// Message returns the user-facing text for a failed op.  Local validation
// errors keep their own text; provider codes without an entry fall through
// to the op's generic message.
func Message(op Op, err error) string {
	if msg := validate.Message(err); msg != "" {
		return msg
	}
	code := identity.CodeOf(err)
	if code == identity.CodeNetworkRequestFailed {
		return msgNetwork
	}
	if msg, ok := failureMessages[op][code]; ok {
		return msg
	}
	if msg, ok := defaultMessages[op]; ok {
		return msg
	}
	return "Something went wrong. Please try again."
}
