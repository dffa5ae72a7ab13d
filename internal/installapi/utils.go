package installapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"shopinstall/internal/embed"
	"shopinstall/internal/install"
	"shopinstall/pkg/problems"
)

func writeJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders err as problem JSON. Details never carry upstream error text.
func (a *App) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	p := problemFor(err)
	p.Status = status
	p.Instance = r.URL.Path
	problems.Write(w, p)
}

func problemFor(err error) problems.Problem {
	switch {
	case errors.Is(err, install.ErrInstallationIncomplete):
		return problems.Problem{
			Type:   problems.Type("installation-incomplete"),
			Title:  "Installation incomplete",
			Detail: "The app was authorized but could not be saved. Please reinstall the app from your admin.",
		}
	case errors.Is(err, install.ErrGrantExchangeFailed):
		return problems.Problem{Type: problems.Type("installation-failed"), Title: "Installation failed", Detail: "installation failed"}
	case errors.Is(err, install.ErrNonceUnavailable):
		return problems.Problem{Type: problems.Type("temporarily-unavailable"), Title: "Temporarily unavailable", Detail: "Please try again in a moment."}
	case errors.Is(err, install.ErrInstallBlocked):
		return problems.Problem{Type: problems.Type("installation-blocked"), Title: "Installation not allowed", Detail: "This store cannot install the app."}
	case errors.Is(err, install.ErrInvalidState):
		return problems.Problem{Type: problems.Type("invalid-state"), Title: "Invalid or expired request", Detail: "Start the installation again from your admin."}
	case errors.Is(err, install.ErrInvalidSignature):
		return problems.Problem{Type: problems.Type("invalid-signature"), Title: "Invalid signature"}
	case errors.Is(err, install.ErrMissingTenant):
		return problems.Problem{Type: problems.Type("missing-shop"), Title: "Missing shop", Detail: "The shop parameter is required."}
	case errors.Is(err, embed.ErrUntrustedRedirectTarget):
		return problems.Problem{Type: problems.Type("untrusted-redirect"), Title: "Untrusted redirect target"}
	case errors.Is(err, embed.ErrInvalidSessionToken):
		return problems.Problem{Type: problems.Type("invalid-session-token"), Title: "Invalid session token"}
	default:
		return problems.Problem{Type: problems.Type("internal"), Title: "Internal error"}
	}
}
