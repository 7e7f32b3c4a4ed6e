package domain

// WebhookEvent is a verified upstream webhook addressed to one tenant
type WebhookEvent struct {
	TenantID string
	Topic    string
	Shop     string
	Payload  []byte
	Verified bool
}
