package chat

import (
	"fmt"
	"strings"
)

// PromptFormat selects how turns are flattened into a single prompt.
type PromptFormat string

const (
	// FormatPlain starts with the system content followed by labelled lines.
	FormatPlain PromptFormat = "plain"
	// FormatMistral prefixes the plain body with the [INST] marker.
	FormatMistral PromptFormat = "mistral"
	// FormatChatML uses <|im_start|> role blocks.
	FormatChatML PromptFormat = "chatml"
)

// ParsePromptFormat maps a config value to a PromptFormat. Empty means plain.
func ParsePromptFormat(s string) (PromptFormat, error) {
	switch f := PromptFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatPlain, nil
	case FormatPlain, FormatMistral, FormatChatML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown prompt format %q", s)
	}
}

// Labels name the speakers in plain and mistral prompts.
type Labels struct {
	User      string
	Assistant string
}

// DefaultLabels returns User/Doctor.
func DefaultLabels() Labels { return Labels{User: "User", Assistant: "Doctor"} }

func (l Labels) orDefault() Labels {
	d := DefaultLabels()
	if strings.TrimSpace(l.User) == "" {
		l.User = d.User
	}
	if strings.TrimSpace(l.Assistant) == "" {
		l.Assistant = d.Assistant
	}
	return l
}

func (l Labels) forRole(r Role) string {
	if r == RoleAssistant {
		return l.Assistant
	}
	return l.User
}

const mistralMarker = "<s>[INST] "

// BuildPrompt flattens turns into one prompt ending with the assistant cue.
// System turns after the first are ignored.
func BuildPrompt(turns []Turn, format PromptFormat, labels Labels) string {
	labels = labels.orDefault()
	system := ""
	if len(turns) > 0 && turns[0].Role == RoleSystem {
		system = turns[0].Content
		turns = turns[1:]
	}
	var b strings.Builder
	switch format {
	case FormatChatML:
		writeChatML(&b, "system", system)
		for _, t := range turns {
			switch t.Role {
			case RoleUser:
				writeChatML(&b, "user", t.Content)
			case RoleAssistant:
				writeChatML(&b, "assistant", t.Content)
			}
		}
		b.WriteString("<|im_start|>assistant\n")
		return b.String()
	case FormatMistral:
		b.WriteString(mistralMarker)
	}
	b.WriteString(system)
	b.WriteString("\n\n")
	for _, t := range turns {
		if t.Role == RoleSystem {
			continue
		}
		b.WriteString(labels.forRole(t.Role))
		b.WriteString(": ")
		b.WriteString(t.Content)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(labels.Assistant)
	b.WriteString(":")
	return b.String()
}

func writeChatML(b *strings.Builder, role, content string) {
	b.WriteString("<|im_start|>")
	b.WriteString(role)
	b.WriteString("\n")
	b.WriteString(content)
	b.WriteString("<|im_end|>\n")
}
