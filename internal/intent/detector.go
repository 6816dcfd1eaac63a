// Package intent decides whether an inbound group message should get an
// automated answer. Detection is pure: same message and config always yield
// the same decision.
package intent

import (
	"strings"

	"communibot/internal/model"
)

// Message carries the trigger-decision inputs supplied by the message router.
type Message struct {
	Text         string
	IsMention    bool
	IsAskCommand bool
}

// Detector is the swappable trigger classifier. Implementations must be free
// of side effects.
type Detector interface {
	ShouldRespond(cfg *model.GroupAIConfig, msg Message) bool
}

// questionLeads are interrogative sentence openers for "all" mode.
var questionLeads = []string{
	"how", "what", "why", "when", "where", "who", "whom", "which",
	"can", "could", "should", "would", "is", "are", "do", "does", "did",
}

// questionMarkers trigger "all" mode anywhere in the text.
var questionMarkers = []string{
	"?", "？",
	"吗", "怎么", "什么", "为什么", "如何", "哪", "几",
	"请问", "想问", "能告诉",
}

// Heuristic is the default rule-based detector.
type Heuristic struct{}

func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

// ShouldRespond applies the group's trigger mode. Explicit ask commands and
// mentions always trigger regardless of mode.
func (*Heuristic) ShouldRespond(cfg *model.GroupAIConfig, msg Message) bool {
	if msg.IsAskCommand || msg.IsMention {
		return true
	}
	if cfg == nil {
		return false
	}

	text := strings.ToLower(strings.TrimSpace(msg.Text))
	if text == "" {
		return false
	}

	mode := cfg.TriggerMode
	if mode == "" {
		mode = model.TriggerModeAll
	}

	switch mode {
	case model.TriggerModeMention:
		return false // mention already handled above
	case model.TriggerModeKeyword:
		for _, kw := range cfg.Keywords() {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" && strings.Contains(text, kw) {
				return true
			}
		}
		return false
	case model.TriggerModeAll:
		return looksLikeQuestion(text)
	}
	return false
}

// looksLikeQuestion is a heuristic, not a guarantee: a lowercased message is
// a candidate question when it contains a question marker or opens with an
// interrogative lead word.
func looksLikeQuestion(text string) bool {
	for _, marker := range questionMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return false
	}
	first := strings.Trim(fields[0], ",.:;!")
	for _, lead := range questionLeads {
		if first == lead {
			return true
		}
	}
	return false
}
