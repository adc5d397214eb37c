// Package extraction turns an uploaded document into text by trying a
// configured chain of adapters in order.
package extraction

// Method identifies the adapter that produced a Result.
type Method string

const (
	MethodLLMVision     Method = "llm-vision"
	MethodHostedOCR     Method = "hosted-ocr"
	MethodPDFDirectText Method = "pdf-direct-text"
	MethodPlainText     Method = "plain-text"
	MethodNone          Method = "none"
)

// ParseMethod maps a configured name to a Method. ok is false for unknown
// names and for "none", which is never a chain entry.
func ParseMethod(name string) (Method, bool) {
	switch m := Method(name); m {
	case MethodLLMVision, MethodHostedOCR, MethodPDFDirectText, MethodPlainText:
		return m, true
	default:
		return "", false
	}
}

// Result is the outcome of one orchestration.
// Text is non-empty exactly when Method is not MethodNone.
type Result struct {
	Text       string `json:"text"`
	Method     Method `json:"method"`
	Diagnostic string `json:"diagnostic,omitempty"`
}

// Credentials are the per-request keys available to adapters.
type Credentials struct {
	// LLMKeys maps provider name (openai, gemini) to the user's API key.
	LLMKeys map[string]string
}

// HasLLMKey reports whether any non-blank provider key is present.
func (c Credentials) HasLLMKey() bool {
	for _, v := range c.LLMKeys {
		if v != "" {
			return true
		}
	}
	return false
}
