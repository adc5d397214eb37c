package extraction

import (
	"fmt"

	"letter-backend/internal/llm"
)

// ChainDeps holds what the adapters need to be built.
type ChainDeps struct {
	Vision *llm.Registry
	// VisionProviders orders the vision adapter only. Empty keeps registry order.
	VisionProviders []string
	OCR             Recognizer
}

// BuildChain returns adapters in the configured order. Unknown or repeated
// names are an error so a typo in the chain file fails at startup.
func BuildChain(order []string, deps ChainDeps) ([]Adapter, error) {
	seen := make(map[Method]bool)
	var out []Adapter
	for _, name := range order {
		method, ok := ParseMethod(name)
		if !ok {
			return nil, fmt.Errorf("unknown extraction method %q", name)
		}
		if seen[method] {
			return nil, fmt.Errorf("extraction method %q listed twice", name)
		}
		seen[method] = true

		switch method {
		case MethodLLMVision:
			out = append(out, &Vision{Registry: deps.Vision, Providers: deps.VisionProviders})
		case MethodHostedOCR:
			out = append(out, &HostedOCR{Client: deps.OCR})
		case MethodPDFDirectText:
			out = append(out, PDFText{})
		case MethodPlainText:
			out = append(out, PlainText{})
		}
	}
	return out, nil
}
