package shops

import "time"

// Credential is the offline access token held for one shop.
type Credential struct {
	TenantDomain string    // foo.myshopify.com, unique
	AccessToken  string    // never logged
	Scope        string    // as granted by the provider, comma separated
	CreatedAt    time.Time // set on first insert only
	UpdatedAt    time.Time
}
