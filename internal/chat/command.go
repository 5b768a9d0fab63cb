package chat

import (
	"errors"
	"fmt"
	"strings"

	"github.com/neexbeast/relocation/internal/view"
)

var (
	// ErrUnknownTool is returned for a tool name outside the fixed set.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrInvalidArgument is returned when a tool argument has the wrong type.
	ErrInvalidArgument = errors.New("invalid tool argument")
)

// Tool names a chat action the assistant may invoke.
type Tool string

const (
	ToolShowDestination    Tool = "show_destination"
	ToolSavePreferences    Tool = "save_preferences"
	ToolGenerateCustomView Tool = "generate_custom_view"
)

// Tools lists every supported tool.
var Tools = []Tool{ToolShowDestination, ToolSavePreferences, ToolGenerateCustomView}

// Command is a parsed, validated tool invocation.
type Command interface {
	Tool() Tool
	isCommand()
}

// ShowDestination renders the dashboard for one country.
type ShowDestination struct {
	Country string
}

// SavePreferences merges non-empty fields into the session preferences.
type SavePreferences struct {
	Budget  string
	Climate string
	Purpose string
}

// GenerateCustomView renders a comparison, cost breakdown, pros/cons or analysis view.
type GenerateCustomView struct {
	view.Request
}

func (ShowDestination) Tool() Tool    { return ToolShowDestination }
func (SavePreferences) Tool() Tool    { return ToolSavePreferences }
func (GenerateCustomView) Tool() Tool { return ToolGenerateCustomView }

func (ShowDestination) isCommand()    {}
func (SavePreferences) isCommand()    {}
func (GenerateCustomView) isCommand() {}

// ParseToolCall validates a raw tool invocation. Parameters are optional;
// missing ones are left empty and handled downstream. A present parameter
// must be a string or null. Unrecognised parameters are ignored.
func ParseToolCall(name string, args map[string]any) (Command, error) {
	a := argReader{tool: name, args: args}

	var cmd Command
	switch Tool(strings.TrimSpace(name)) {
	case ToolShowDestination:
		cmd = ShowDestination{Country: a.str("country")}
	case ToolSavePreferences:
		cmd = SavePreferences{
			Budget:  a.str("budget"),
			Climate: a.str("climate"),
			Purpose: a.str("purpose"),
		}
	case ToolGenerateCustomView:
		cmd = GenerateCustomView{Request: view.Request{
			ViewType:  a.str("view_type"),
			Countries: a.str("countries"),
			Focus:     a.str("focus"),
			Title:     a.str("title"),
			Subtitle:  a.str("subtitle"),
		}}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}

	if a.err != nil {
		return nil, a.err
	}
	return cmd, nil
}

// argReader extracts trimmed string parameters, recording the first type error.
type argReader struct {
	tool string
	args map[string]any
	err  error
}

func (a *argReader) str(key string) string {
	v, ok := a.args[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		if a.err == nil {
			a.err = fmt.Errorf("%w: %s.%s must be a string, got %T", ErrInvalidArgument, a.tool, key, v)
		}
		return ""
	}
	return strings.TrimSpace(s)
}
