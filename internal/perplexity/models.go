// internal/perplexity/models.go
package perplexity

// Mode selects which preset and which response handling a request uses.
type Mode string

const (
	ModeStructured Mode = "structured"
	ModeFreeform   Mode = "freeform"
)

// GenerationRequest is either structured (UserAnswers + FirmProfile) or
// freeform (Prompt), as selected by Mode.
type GenerationRequest struct {
	Mode        Mode
	UserAnswers map[string]interface{}
	FirmProfile map[string]interface{}
	Prompt      string
}

func NewStructuredRequest(userAnswers, firmProfile map[string]interface{}) GenerationRequest {
	return GenerationRequest{
		Mode:        ModeStructured,
		UserAnswers: userAnswers,
		FirmProfile: firmProfile,
	}
}

func NewFreeformRequest(prompt string) GenerationRequest {
	return GenerationRequest{
		Mode:   ModeFreeform,
		Prompt: prompt,
	}
}

// GenerationResult carries Data for structured requests and Text for freeform ones.
type GenerationResult struct {
	Mode Mode
	Data map[string]interface{}
	Text string
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// firstContent reports the first choice's content and whether a choice exists.
func (r *chatResponse) firstContent() (string, bool) {
	if len(r.Choices) == 0 {
		return "", false
	}
	return r.Choices[0].Message.Content, true
}
