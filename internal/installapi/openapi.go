package installapi

import "shopinstall/pkg/openapi"

func describe() *openapi.Registry {
	reg := openapi.NewRegistry()
	reg.Register(openapi.Operation{
		Method:    "GET",
		Path:      "/auth",
		Summary:   "Begin installation for a shop",
		Tags:      []string{"install"},
		Query:     map[string]bool{"shop": true, "embedded": false, "host": false},
		Responses: map[string]string{"302": "Redirect to the consent page or out of the admin iframe", "400": "Missing or untrusted shop", "403": "Blocked by install policy", "503": "State store unavailable"},
	})
	reg.Register(openapi.Operation{
		Method:  "GET",
		Path:    "/auth/callback",
		Summary: "Complete installation",
		Tags:    []string{"install"},
		Query: map[string]bool{
			"shop": true, "state": true, "code": true, "host": false, "hmac": false, "timestamp": false,
		},
		Responses: map[string]string{
			"302": "Redirect into the admin",
			"400": "Invalid state, signature or redirect target",
			"500": "Authorized but not saved; reinstall",
			"502": "Grant exchange failed",
			"503": "State store unavailable",
		},
	})
	reg.Register(openapi.Operation{
		Method:    "GET",
		Path:      "/exitiframe",
		Summary:   "Leave the admin iframe",
		Tags:      []string{"embed"},
		Query:     map[string]bool{"shop": false, "host": false, "redirectUri": false, "id_token": false},
		Responses: map[string]string{"200": "HTML page navigating the top window", "400": "Missing shop or untrusted redirect", "401": "Invalid session token"},
	})
	reg.Register(openapi.Operation{Method: "GET", Path: "/healthz", Summary: "Liveness", Responses: map[string]string{"200": "ok"}})
	return reg
}
