// internal/workers/content/generate-lead-magnet/models.go
package generateleadmagnet

type Input struct {
	UserAnswers  map[string]interface{} `json:"user_answers"`
	FirmProfile  map[string]interface{} `json:"firm_profile"`
	LeadMagnetID string                 `json:"lead_magnet_id,omitempty"`
}

type Output struct {
	LeadMagnetID string                 `json:"lead_magnet_id,omitempty"`
	Content      map[string]interface{} `json:"content"`
	RequestID    string                 `json:"request_id"`
	GeneratedAt  string                 `json:"generated_at"`
}
