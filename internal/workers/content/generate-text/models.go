// internal/workers/content/generate-text/models.go
package generatetext

type Input struct {
	Prompt       string `json:"prompt"`
	LeadMagnetID string `json:"lead_magnet_id,omitempty"`
}

type Output struct {
	LeadMagnetID string `json:"lead_magnet_id,omitempty"`
	Text         string `json:"text"`
	RequestID    string `json:"request_id"`
	GeneratedAt  string `json:"generated_at"`
}
