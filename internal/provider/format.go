package provider

import "strings"

// Format names accepted by provider configuration.
const (
	FormatOpenAI    = "openai"
	FormatAnthropic = "anthropic"
	FormatAlpaca    = "alpaca"
	FormatVicuna    = "vicuna"
	FormatChatML    = "chatml"
	FormatLlama2    = "llama2"
	FormatOrca2     = "orca2"
)

// Format frames prompts for backends without a chat-message API. The system
// and user templates wrap the respective message; First frames the opening
// turn of a transcript; Stops are sequences the backend should halt on.
type Format struct {
	System string
	User   string
	First  string
	Stops  []string
}

var formats = map[string]Format{
	FormatOpenAI: {
		System: "{system_message}",
		User:   "{user_message}",
		First:  "{system}",
	},
	FormatAnthropic: {
		System: "{system_message}",
		User:   "\n\nHuman: {user_message}\n\nAssistant:",
		First:  "{system}{user}",
		Stops:  []string{"Human:"},
	},
	FormatAlpaca: {
		System: "{system_message}",
		User:   "### Instruction: {user_message}\n\n### Response:",
		First:  "{system}\n\n{user}",
		Stops:  []string{"### Instruction:"},
	},
	FormatVicuna: {
		System: "{system_message}",
		User:   "USER:\n{user_message}\nASSISTANT:",
		First:  "{system}\n\n{user}",
		Stops:  []string{"USER:"},
	},
	FormatChatML: {
		System: "<|im_start|>system\n{system_message}<|im_end|>",
		User:   "<|im_start|>user\n{user_message}<|im_end|>\n<|im_start|>assistant\n",
		First:  "{system}\n{user}",
		Stops:  []string{"<|im_end|>"},
	},
	FormatLlama2: {
		System: "<<SYS>>\n{system_message}\n<</SYS>>",
		User:   "<s>[INST] {user_message} [/INST]",
		First:  "<s>[INST] {system}\n\n{user_message} [/INST]",
		Stops:  []string{"</s>"},
	},
	FormatOrca2: {
		System: "### System:\n{system_message}",
		User:   "### User:\n{user_message}\n\n### Response:\n",
		First:  "{system}\n\n{user}",
		Stops:  []string{"### User:"},
	},
}

// LookupFormat returns the named format, falling back to Alpaca framing for
// unknown names so misconfigured local backends still get a workable prompt.
func LookupFormat(name string) Format {
	if f, ok := formats[name]; ok {
		return f
	}
	return formats[FormatAlpaca]
}

// FramedTurn is one formatted prompt turn.
type FramedTurn struct {
	System string
	User   string
	First  string
}

// Apply substitutes the system and user messages into the format templates.
func (f Format) Apply(system, message string) FramedTurn {
	sys := strings.Replace(f.System, "{system_message}", system, 1)
	user := strings.Replace(f.User, "{user_message}", message, 1)
	first := f.First
	first = strings.Replace(first, "{system}", sys, 1)
	first = strings.Replace(first, "{user}", user, 1)
	first = strings.Replace(first, "{user_message}", message, 1)
	return FramedTurn{System: sys, User: user, First: first}
}
