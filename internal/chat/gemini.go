package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/neexbeast/relocation/internal/destination"
)

// ErrRuntimeNotConfigured is returned when no LLM API key is set.
var ErrRuntimeNotConfigured = errors.New("chat runtime not configured")

const (
	DefaultModel  = "gemini-2.5-flash-lite"
	maxToolRounds = 5
)

// Catalog lists the destinations the assistant may talk about.
type Catalog interface {
	ListEnabled(ctx context.Context) ([]*destination.Destination, error)
}

// Conversation is one multi-turn exchange with the model.
// *genai.ChatSession satisfies this interface.
type Conversation interface {
	SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// GeminiRuntime forwards user messages to Gemini and executes the tool
// calls it returns through a Dispatcher.
type GeminiRuntime struct {
	client     *genai.Client
	dispatcher *Dispatcher
	catalog    Catalog
	log        *slog.Logger
	start      func(instruction string) Conversation
}

// NewGeminiRuntime connects to the Gemini API.
func NewGeminiRuntime(ctx context.Context, apiKey, model string, dispatcher *Dispatcher, catalog Catalog, log *slog.Logger) (*GeminiRuntime, error) {
	if apiKey == "" {
		return nil, ErrRuntimeNotConfigured
	}
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	r := NewGeminiRuntimeWithStarter(dispatcher, catalog, log, func(instruction string) Conversation {
		m := client.GenerativeModel(model)
		m.SystemInstruction = genai.NewUserContent(genai.Text(instruction))
		m.Tools = []*genai.Tool{{FunctionDeclarations: FunctionDeclarations()}}
		m.SetTemperature(0.7)
		return m.StartChat()
	})
	r.client = client
	return r, nil
}

// NewGeminiRuntimeWithStarter constructs a runtime over a custom conversation factory (for tests).
func NewGeminiRuntimeWithStarter(dispatcher *Dispatcher, catalog Catalog, log *slog.Logger, start func(instruction string) Conversation) *GeminiRuntime {
	return &GeminiRuntime{dispatcher: dispatcher, catalog: catalog, log: log, start: start}
}

// Close releases the underlying client.
func (r *GeminiRuntime) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}

// Reply sends message to the model, runs any requested tools against st and
// returns the model's final text. Each request starts a fresh conversation.
func (r *GeminiRuntime) Reply(ctx context.Context, st *State, message string) (string, error) {
	conv := r.start(SystemInstruction(r.availableCountries(ctx)))

	resp, err := conv.SendMessage(ctx, genai.Text(message))
	if err != nil {
		return "", fmt.Errorf("sending chat message: %w", err)
	}

	for round := 0; ; round++ {
		calls, text := splitResponse(resp)
		if len(calls) == 0 {
			return text, nil
		}
		if round == maxToolRounds {
			r.log.Warn("chat tool rounds exhausted", "session", st.ID, "rounds", round)
			return text, nil
		}

		results := make([]genai.Part, 0, len(calls))
		for _, fc := range calls {
			results = append(results, genai.FunctionResponse{
				Name:     fc.Name,
				Response: map[string]any{"result": r.runTool(ctx, st, fc)},
			})
		}

		resp, err = conv.SendMessage(ctx, results...)
		if err != nil {
			return "", fmt.Errorf("sending tool results: %w", err)
		}
	}
}

func (r *GeminiRuntime) runTool(ctx context.Context, st *State, fc genai.FunctionCall) string {
	cmd, err := ParseToolCall(fc.Name, fc.Args)
	if err != nil {
		r.log.Warn("rejected tool call", "session", st.ID, "tool", fc.Name, "err", err)
		return err.Error()
	}
	r.log.Info("dispatching tool call", "session", st.ID, "tool", fc.Name)
	return r.dispatcher.Dispatch(ctx, st, cmd)
}

func (r *GeminiRuntime) availableCountries(ctx context.Context) []string {
	dests, err := r.catalog.ListEnabled(ctx)
	if err != nil {
		r.log.Warn("listing destinations for chat instruction", "err", err)
		return nil
	}
	names := make([]string, 0, len(dests))
	for _, d := range dests {
		names = append(names, d.CountryName)
	}
	return names
}

// splitResponse separates function calls from text in the first candidate.
func splitResponse(resp *genai.GenerateContentResponse) ([]genai.FunctionCall, string) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, ""
	}

	var calls []genai.FunctionCall
	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		switch p := part.(type) {
		case genai.FunctionCall:
			calls = append(calls, p)
		case genai.Text:
			text.WriteString(string(p))
		}
	}
	return calls, text.String()
}

func stringProp(desc string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Description: desc}
}

// FunctionDeclarations describes the three tools to the model.
func FunctionDeclarations() []*genai.FunctionDeclaration {
	return []*genai.FunctionDeclaration{
		{
			Name:        string(ToolShowDestination),
			Description: "Show destination details when the user asks about a single country.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"country": stringProp("Country name or slug, e.g. 'Portugal' or 'new-zealand'."),
				},
				Required: []string{"country"},
			},
		},
		{
			Name:        string(ToolSavePreferences),
			Description: "Save the user's relocation preferences when they mention budget, climate or purpose.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"budget":  stringProp("Monthly budget range."),
					"climate": stringProp("Climate preference."),
					"purpose": stringProp("Purpose of relocation."),
				},
			},
		},
		{
			Name:        string(ToolGenerateCustomView),
			Description: "Generate a comparison, cost breakdown, pros and cons or analysis view.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"title":     stringProp("Title for the view."),
					"subtitle":  stringProp("Optional subtitle."),
					"view_type": stringProp("One of 'comparison', 'cost_breakdown', 'pros_cons', 'analysis'."),
					"countries": stringProp("Comma-separated country names."),
					"focus":     stringProp("One of 'visa', 'cost', 'lifestyle', 'all'."),
				},
				Required: []string{"view_type", "countries"},
			},
		},
	}
}

// SystemInstruction is the assistant persona with the tool routing rules.
func SystemInstruction(countries []string) string {
	available := "none yet"
	if len(countries) > 0 {
		available = strings.Join(countries, ", ")
	}

	return `You are ATLAS, a warm and knowledgeable relocation advisor.

Rules:
1. When the user mentions one country, call show_destination.
   "Tell me about Portugal" -> show_destination(country: "Portugal")
2. When the user wants to compare countries, call generate_custom_view.
   "Compare Portugal vs Spain" -> generate_custom_view(view_type: "comparison", countries: "Portugal, Spain", focus: "all")
   "Which is cheaper, Thailand or Vietnam?" -> generate_custom_view(view_type: "comparison", countries: "Thailand, Vietnam", focus: "cost")
3. For detailed costs use view_type "cost_breakdown".
   "Show me cost breakdown for Lisbon" -> generate_custom_view(view_type: "cost_breakdown", countries: "Portugal", focus: "cost")
4. For advantages and disadvantages use view_type "pros_cons".
   "What are pros and cons of moving to Spain?" -> generate_custom_view(view_type: "pros_cons", countries: "Spain", focus: "lifestyle")
5. Call save_preferences when the user mentions budget, climate or purpose.

Keep replies to two or three sentences and end with a follow-up question.

Available countries: ` + available
}
