package llm

import (
	_ "embed"
	"strings"
)

// PromptVersion identifies the prompt templates below; it is stored with every record.
const PromptVersion = "v1"

var (
	//go:embed prompts/analysis_v1.txt
	analysisPromptV1 string
	//go:embed prompts/transcribe_v1.txt
	transcribePromptV1 string
)

var languageNames = map[string]string{
	"ar": "Arabic",
	"de": "German",
	"en": "English",
	"es": "Spanish",
	"fa": "Persian",
	"fr": "French",
	"it": "Italian",
	"pl": "Polish",
	"ro": "Romanian",
	"ru": "Russian",
	"tr": "Turkish",
	"uk": "Ukrainian",
}

// AnalysisSystemPrompt returns the analysis instructions for the target language.
func AnalysisSystemPrompt(targetLanguage string) string {
	return strings.NewReplacer(
		"{{TARGET_LANGUAGE}}", LanguageName(targetLanguage),
	).Replace(analysisPromptV1)
}

// AnalysisUserPrompt wraps the extracted letter text.
func AnalysisUserPrompt(text string) string {
	return "Letter text:\n<<<\n" + text + "\n>>>"
}

// TranscribePrompt returns the instructions for vision transcription.
func TranscribePrompt() string {
	return transcribePromptV1
}

// LanguageName maps an ISO 639-1 code to an English language name.
// Unknown values are returned unchanged so callers may pass full names.
func LanguageName(code string) string {
	clean := strings.ToLower(strings.TrimSpace(code))
	if name, ok := languageNames[clean]; ok {
		return name
	}
	if clean == "" {
		return "English"
	}
	return strings.TrimSpace(code)
}
