package prompts

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"text/template"
	"unicode/utf8"

	"github.com/pavelanni/testprep/internal/assessment"
)

//go:embed *.txt
var templatesFS embed.FS

var userMessageRegex = regexp.MustCompile(`(?i)</?\s*user-message\b[^>]*>`)

const maxMessageRunes = 2000

// Style represents an explanation prompt variant.
type Style string

const (
	// StyleBrief names the answer and one reason.
	StyleBrief Style = "brief"
	// StyleStandard is the default explanation.
	StyleStandard Style = "standard"
	// StyleDetailed walks through every option.
	StyleDetailed Style = "detailed"
)

var validStyles = map[Style]bool{
	StyleBrief:    true,
	StyleStandard: true,
	StyleDetailed: true,
}

// IsValidStyle checks if an explanation style name is valid.
func IsValidStyle(s string) bool {
	return validStyles[Style(s)]
}

// Set holds the parsed chat and explanation templates.
type Set struct {
	chat    string
	explain map[Style]*template.Template
}

// Option is one labelled answer choice in an explanation prompt.
type Option struct {
	Label string
	Text  string
}

// ExplainData holds template data for explanation prompts.
type ExplainData struct {
	Prompt       string
	Options      []Option
	CorrectLabel string
	ChosenLabel  string
	Wrong        bool
}

var (
	defaultOnce sync.Once
	defaultSet  *Set
	defaultErr  error
)

// Default returns the templates embedded in the binary, parsed once.
func Default() (*Set, error) {
	defaultOnce.Do(func() {
		defaultSet, defaultErr = Load(templatesFS)
	})
	return defaultSet, defaultErr
}

// Load reads chat.txt and explain_<style>.txt from fsys.
func Load(fsys fs.FS) (*Set, error) {
	chat, err := fs.ReadFile(fsys, "chat.txt")
	if err != nil {
		return nil, errors.New("failed to read prompt file chat.txt: " + err.Error())
	}
	set := &Set{
		chat:    strings.TrimSpace(string(chat)),
		explain: make(map[Style]*template.Template),
	}
	for _, s := range []Style{StyleBrief, StyleStandard, StyleDetailed} {
		file := "explain_" + string(s) + ".txt"
		content, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, errors.New("failed to read prompt file " + file + ": " + err.Error())
		}
		tmpl, err := template.New(file).Option("missingkey=error").Parse(string(content))
		if err != nil {
			return nil, errors.New("failed to parse prompt template " + file + ": " + err.Error())
		}
		set.explain[s] = tmpl
	}
	return set, nil
}

// ChatSystemPrompt returns the support-assistant system prompt.
func (s *Set) ChatSystemPrompt() string {
	return s.chat
}

// BuildExplainPrompt renders the explanation prompt for an item. chosen is
// nil when the student left the item unanswered.
func (s *Set) BuildExplainPrompt(style Style, item assessment.Item, chosen *int) (string, error) {
	tmpl, ok := s.explain[style]
	if !ok {
		return "", fmt.Errorf("invalid explanation style: %q", style)
	}

	data := ExplainData{
		Prompt:       item.Prompt,
		CorrectLabel: OptionLabel(item.Correct),
	}
	for i, text := range item.Options {
		data.Options = append(data.Options, Option{Label: OptionLabel(i), Text: text})
	}
	if chosen != nil {
		data.ChosenLabel = OptionLabel(*chosen)
		data.Wrong = *chosen != item.Correct
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// WrapUserMessage strips tag look-alikes from a chat message, truncates it,
// and wraps it in <user-message> tags.
func WrapUserMessage(message string) string {
	return "<user-message>\n" + sanitizeMessage(message) + "\n</user-message>"
}

// OptionLabel returns A, B, C... for option indices, falling back to the
// 1-based number past Z.
func OptionLabel(i int) string {
	if i >= 0 && i < 26 {
		return string(rune('A' + i))
	}
	return strconv.Itoa(i + 1)
}

func sanitizeMessage(message string) string {
	message = userMessageRegex.ReplaceAllString(message, "")
	message = strings.TrimSpace(message)

	if message == "" {
		return "[Empty message]"
	}

	if utf8.RuneCountInString(message) > maxMessageRunes {
		runes := []rune(message)
		message = string(runes[:maxMessageRunes]) + "\n\n[Message truncated due to length]"
	}

	return message
}
