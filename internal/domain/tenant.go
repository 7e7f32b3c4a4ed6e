package domain

import "time"

// Tenant is one onboarded shop whose data is isolated from every other tenant.
// AccessToken holds the stored value, which is normally an encrypted "iv:ciphertext" pair.
type Tenant struct {
	TenantID      string    `json:"tenant_id"`
	ShopDomain    string    `json:"shop_domain"`
	ShopName      string    `json:"shop_name,omitempty"`
	AccessToken   string    `json:"-"`
	WebhookSecret string    `json:"-"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
