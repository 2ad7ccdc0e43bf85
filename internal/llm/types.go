package llm

// ChatMessage is a single turn in a conversation, OpenAI role conventions.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest describes one completion call.
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

// ChatChoice wraps a returned message, OpenAI-style.
type ChatChoice struct {
	Message ChatMessage `json:"message"`
}

// ChatResponse is the normalized completion result. Regardless of whether
// the upstream spoke the Ollama or the OpenAI dialect, callers always see
// the OpenAI shape: choices[0].message.content.
type ChatResponse struct {
	Model    string       `json:"model"`
	Choices  []ChatChoice `json:"choices"`
	Provider string       `json:"provider"` // "ollama" or "openai"
}

// Text returns the first choice's content, or empty.
func (r *ChatResponse) Text() string {
	if r == nil || len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}

// ollamaChatRequest is the native /api/chat payload.
type ollamaChatRequest struct {
	Model    string            `json:"model"`
	Messages []ChatMessage     `json:"messages"`
	Stream   bool              `json:"stream"`
	Options  ollamaChatOptions `json:"options,omitempty"`
}

type ollamaChatOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

// ollamaChatResponse is the native /api/chat result.
type ollamaChatResponse struct {
	Model   string      `json:"model"`
	Message ChatMessage `json:"message"`
	Done    bool        `json:"done"`
}

// ollamaTagsResponse lists locally available models.
type ollamaTagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// openaiModelsResponse lists models on OpenAI-compatible endpoints.
type openaiModelsResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}
