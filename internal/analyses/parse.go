package analyses

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Parsed is the result of reading a model answer: either Structured or Unstructured.
type Parsed interface {
	parsed()
}

// Structured is an answer whose fields could be located, as JSON or as labelled sections.
type Structured struct {
	DocumentLanguage string
	Urgency          Urgency
	Summary          string
	Fields           Fields
	// Warnings lists schema violations that were tolerated.
	Warnings []string
}

// Unstructured is an answer without any recognisable structure.
type Unstructured struct {
	RawText string
}

func (Structured) parsed()   {}
func (Unstructured) parsed() {}

// ParseResponse reads a model answer. It never fails: an answer that is
// neither JSON nor labelled sections comes back as Unstructured.
func ParseResponse(raw string) Parsed {
	text := strings.TrimSpace(raw)
	if s, ok := parseJSON(text); ok {
		return s
	}
	if s, ok := parseSections(text); ok {
		return s
	}
	return Unstructured{RawText: text}
}

var fencePattern = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")

func parseJSON(text string) (Structured, bool) {
	if m := fencePattern.FindStringSubmatch(text); m != nil {
		text = m[1]
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return Structured{}, false
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(text[start:end+1]), &doc); err != nil {
		return Structured{}, false
	}

	s := Structured{
		DocumentLanguage: strings.ToLower(stringValue(doc["document_language"])),
		Urgency:          NormalizeUrgency(stringValue(doc["urgency"])),
		Summary:          stringValue(doc["summary"]),
		Fields: Fields{
			Sender:         stringValue(doc["sender"]),
			Recipient:      stringValue(doc["recipient"]),
			Topic:          stringValue(doc["topic"]),
			KeyFacts:       stringList(doc["key_facts"]),
			Actions:        actionList(doc["required_actions"]),
			Dates:          dateList(doc["dates"]),
			ContactInfo:    stringValue(doc["contact_info"]),
			SuggestedReply: stringValue(doc["suggested_reply"]),
		},
	}
	if s.Summary == "" && s.Fields.Sender == "" && s.Fields.Topic == "" && len(s.Fields.KeyFacts) == 0 && len(s.Fields.Actions) == 0 {
		// Valid JSON, but not an analysis.
		return Structured{}, false
	}
	s.Warnings = schemaWarnings(doc)
	return s, true
}

func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case []any:
		return strings.Join(stringList(t), "\n")
	case map[string]any:
		parts := make([]string, 0, len(t))
		for _, key := range sortedKeys(t) {
			if s := stringValue(t[key]); s != "" {
				parts = append(parts, key+": "+s)
			}
		}
		return strings.Join(parts, "\n")
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

func stringList(v any) []string {
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s := stringValue(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		return splitItems(t)
	default:
		return nil
	}
}

func actionList(v any) []Action {
	items, ok := v.([]any)
	if !ok {
		var out []Action
		for _, line := range stringList(v) {
			out = append(out, actionFromLine(line))
		}
		return out
	}
	out := make([]Action, 0, len(items))
	for _, item := range items {
		switch t := item.(type) {
		case map[string]any:
			desc := firstString(t, "action", "description", "task")
			if desc == "" {
				continue
			}
			out = append(out, Action{Description: desc, Deadline: firstString(t, "deadline", "due", "date")})
		default:
			if s := stringValue(t); s != "" {
				out = append(out, actionFromLine(s))
			}
		}
	}
	return out
}

func dateList(v any) []KeyDate {
	items, ok := v.([]any)
	if !ok {
		var out []KeyDate
		for _, line := range stringList(v) {
			if d, ok := dateFromLine(line); ok {
				out = append(out, d)
			}
		}
		return out
	}
	out := make([]KeyDate, 0, len(items))
	for _, item := range items {
		switch t := item.(type) {
		case map[string]any:
			date := firstString(t, "date", "when")
			if date == "" {
				continue
			}
			out = append(out, KeyDate{Date: date, Description: firstString(t, "description", "event", "what")})
		default:
			if d, ok := dateFromLine(stringValue(t)); ok {
				out = append(out, d)
			}
		}
	}
	return out
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := stringValue(m[k]); s != "" {
			return s
		}
	}
	return ""
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type section int

const (
	secNone section = iota
	secLanguage
	secSummary
	secUrgency
	secSender
	secRecipient
	secTopic
	secKeyFacts
	secActions
	secDates
	secContact
	secReply
)

var sectionLabels = map[string]section{
	"language":            secLanguage,
	"document language":   secLanguage,
	"summary":             secSummary,
	"urgency":             secUrgency,
	"urgency level":       secUrgency,
	"sender":              secSender,
	"from":                secSender,
	"recipient":           secRecipient,
	"to":                  secRecipient,
	"topic":               secTopic,
	"subject":             secTopic,
	"key facts":           secKeyFacts,
	"facts":               secKeyFacts,
	"required actions":    secActions,
	"actions":             secActions,
	"next steps":          secActions,
	"dates":               secDates,
	"important dates":     secDates,
	"deadlines":           secDates,
	"contact":             secContact,
	"contact info":        secContact,
	"contact information": secContact,
	"suggested reply":     secReply,
	"reply":               secReply,
	"suggested response":  secReply,
}

var (
	// "Summary: text", "**Sender:** text", "## Urgency: high"
	labelLine = regexp.MustCompile(`^(?:#{1,6}\s*)?(?:\*\*|__)?\s*([A-Za-z][A-Za-z ]{0,24}?)\s*(?:\*\*|__)?\s*:\s*(?:\*\*|__)?\s*(.*)$`)
	// "## Key facts" on its own line
	headingLine = regexp.MustCompile(`^#{1,6}\s*(?:\*\*|__)?\s*([A-Za-z][A-Za-z ]{0,24}?)\s*(?:\*\*|__)?\s*$`)

	bulletPrefix = regexp.MustCompile(`^(?:[-*•]|\d{1,2}[.)])\s+`)
	isoDate      = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)
	germanDate   = regexp.MustCompile(`\b\d{1,2}\.\d{1,2}\.\d{4}\b`)
)

func matchHeader(line string) (section, string, bool) {
	trimmed := strings.TrimSpace(line)
	if m := headingLine.FindStringSubmatch(trimmed); m != nil {
		if sec, ok := sectionLabels[normalizeLabel(m[1])]; ok {
			return sec, "", true
		}
	}
	if m := labelLine.FindStringSubmatch(trimmed); m != nil {
		if sec, ok := sectionLabels[normalizeLabel(m[1])]; ok {
			return sec, strings.TrimSpace(m[2]), true
		}
	}
	return secNone, "", false
}

func normalizeLabel(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func parseSections(text string) (Structured, bool) {
	bodies := make(map[section][]string)
	var preamble []string
	current := secNone
	found := false
	for _, line := range strings.Split(text, "\n") {
		if sec, rest, ok := matchHeader(line); ok {
			current = sec
			found = true
			if rest != "" {
				bodies[sec] = append(bodies[sec], rest)
			}
			continue
		}
		if current != secNone {
			bodies[current] = append(bodies[current], line)
		} else {
			preamble = append(preamble, line)
		}
	}
	if !found {
		return Structured{}, false
	}

	block := func(sec section) string {
		return strings.TrimSpace(strings.Join(bodies[sec], "\n"))
	}
	s := Structured{
		DocumentLanguage: strings.ToLower(block(secLanguage)),
		Urgency:          NormalizeUrgency(block(secUrgency)),
		Summary:          block(secSummary),
		Fields: Fields{
			Sender:         block(secSender),
			Recipient:      block(secRecipient),
			Topic:          block(secTopic),
			KeyFacts:       splitItems(block(secKeyFacts)),
			ContactInfo:    block(secContact),
			SuggestedReply: block(secReply),
		},
	}
	// Prose before the first label is the summary when none is labelled.
	if s.Summary == "" {
		s.Summary = strings.TrimSpace(strings.Join(preamble, "\n"))
	}
	if s.Summary == "" {
		s.Summary = text
	}
	for _, line := range splitItems(block(secActions)) {
		s.Fields.Actions = append(s.Fields.Actions, actionFromLine(line))
	}
	for _, line := range splitItems(block(secDates)) {
		if d, ok := dateFromLine(line); ok {
			s.Fields.Dates = append(s.Fields.Dates, d)
		}
	}
	return s, true
}

// splitItems turns a bulleted or line-separated block into items.
func splitItems(block string) []string {
	var out []string
	for _, line := range strings.Split(block, "\n") {
		item := strings.TrimSpace(bulletPrefix.ReplaceAllString(strings.TrimSpace(line), ""))
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

func findDate(line string) string {
	if d := isoDate.FindString(line); d != "" {
		return d
	}
	return germanDate.FindString(line)
}

func actionFromLine(line string) Action {
	return Action{Description: line, Deadline: findDate(line)}
}

func dateFromLine(line string) (KeyDate, bool) {
	date := findDate(line)
	if date == "" {
		return KeyDate{}, false
	}
	desc := strings.TrimSpace(strings.Replace(line, date, "", 1))
	desc = strings.Trim(desc, " :-\u2013\u2014,")
	return KeyDate{Date: date, Description: desc}, true
}
