package install

import (
	"errors"
	"net/http"

	"shopinstall/internal/embed"
	"shopinstall/internal/nonce"
)

var (
	ErrMissingTenant = errors.New("shop parameter is required")
	// ErrInvalidState is shared with the nonce package so either can be matched.
	ErrInvalidState           = nonce.ErrInvalidState
	ErrNonceUnavailable       = nonce.ErrUnavailable
	ErrGrantExchangeFailed    = errors.New("grant exchange failed")
	ErrInstallationIncomplete = errors.New("installation incomplete")
	ErrInvalidSignature       = errors.New("invalid callback signature")
	ErrInstallBlocked         = errors.New("installation blocked by policy")
	ErrIllegalTransition      = errors.New("illegal install state transition")

	ErrUntrustedRedirectTarget = embed.ErrUntrustedRedirectTarget
)

// StatusFor maps an install error to the HTTP status the merchant's browser gets.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInstallationIncomplete):
		return http.StatusInternalServerError
	case errors.Is(err, ErrGrantExchangeFailed):
		return http.StatusBadGateway
	case errors.Is(err, ErrNonceUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrInstallBlocked):
		return http.StatusForbidden
	case errors.Is(err, ErrMissingTenant),
		errors.Is(err, ErrUntrustedRedirectTarget),
		errors.Is(err, ErrInvalidState),
		errors.Is(err, ErrInvalidSignature):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
