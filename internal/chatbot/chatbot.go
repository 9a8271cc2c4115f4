// Package chatbot answers support questions with canned keyword replies and
// hands anything else to an optional fallback responder.
package chatbot

import (
	"context"
	"log/slog"
	"strings"
)

// Source tells where a reply came from.
type Source string

const (
	SourceKeyword  Source = "keyword"
	SourceLLM      Source = "llm"
	SourceDefault  Source = "default"
	SourceGreeting Source = "greeting"
)

const (
	// Greeting opens every chat.
	Greeting = "Hi! I'm your Think Plus Education assistant. How can I help you today?"

	DefaultReply = "Thank you for your question! For detailed information, please contact our support team or explore our courses section. Is there anything specific I can help you with?"
)

// Rule maps a keyword to a canned reply.
type Rule struct {
	Keyword string
	Reply   string
}

// DefaultRules is the built-in keyword table, checked in order.
var DefaultRules = []Rule{
	{
		Keyword: "course information",
		Reply:   "We offer comprehensive courses for CAT, IPMAT, CLAT, and other competitive exams. Each course includes video lectures, study materials, weekly tests, and personalized guidance.",
	},
	{
		Keyword: "fee structure",
		Reply:   "Our courses range from ₹14,999 to ₹39,999 depending on the program. We also offer combo packages at discounted rates. Would you like details on a specific course?",
	},
	{
		Keyword: "study materials",
		Reply:   "All enrolled students get access to comprehensive study materials including video lectures, PDF notes, practice questions, and mock tests. Materials are available 24/7 on our platform.",
	},
	{
		Keyword: "contact support",
		Reply:   "You can reach our support team at support@thinkplus.edu or call us at +91-XXXX-XXXXXX. We're available Monday to Saturday, 9 AM to 6 PM.",
	},
}

// Responder produces a free-form reply for messages no rule matches.
type Responder interface {
	Reply(ctx context.Context, message string) (string, error)
}

// Reply is a chatbot answer.
type Reply struct {
	Text   string `json:"reply"`
	Source Source `json:"source"`
}

// Bot matches messages against its rules.
type Bot struct {
	rules    []Rule
	fallback Responder
}

// New returns a Bot with the default rules. fallback may be nil.
func New(fallback Responder) *Bot {
	return NewWithRules(DefaultRules, fallback)
}

// NewWithRules returns a Bot that checks rules in order. Keywords are
// matched case-insensitively.
func NewWithRules(rules []Rule, fallback Responder) *Bot {
	rs := make([]Rule, len(rules))
	for i, r := range rules {
		rs[i] = Rule{Keyword: strings.ToLower(r.Keyword), Reply: r.Reply}
	}
	return &Bot{rules: rs, fallback: fallback}
}

// Respond answers message. The first rule whose keyword occurs in the message
// wins; otherwise the fallback is asked, and the default reply is used when
// there is no fallback or it fails.
func (b *Bot) Respond(ctx context.Context, message string) Reply {
	lower := strings.ToLower(message)
	for _, r := range b.rules {
		if strings.Contains(lower, r.Keyword) {
			return Reply{Text: r.Reply, Source: SourceKeyword}
		}
	}

	if b.fallback != nil && strings.TrimSpace(message) != "" {
		text, err := b.fallback.Reply(ctx, message)
		if err == nil && strings.TrimSpace(text) != "" {
			return Reply{Text: strings.TrimSpace(text), Source: SourceLLM}
		}
		if err != nil {
			slog.Warn("chat fallback failed", "error", err)
		}
	}
	return Reply{Text: DefaultReply, Source: SourceDefault}
}
