package services

import (
	"context"
	"fmt"
	"time"

	"arguebank/models"

	"google.golang.org/genai"
)

// TransferToolName is the single action the chat model may request.
const TransferToolName = "transfer_money"

// Turn is one side of the projected conversation sent to the chat model.
type Turn struct {
	Role genai.Role // genai.RoleUser or genai.RoleModel
	Text string
}

// ActionRequest is a typed tool invocation requested by the model.
type ActionRequest struct {
	Name     string
	Transfer bool
}

// ChatOutcome is the tagged result of one inference call: either a plain
// reply or an action request, never both.
type ChatOutcome struct {
	Reply  string
	Action *ActionRequest
}

// ChatModel produces the agent's side of a turn given the system prompt
// and the conversation so far.
type ChatModel interface {
	Converse(ctx context.Context, systemPrompt string, turns []Turn) (ChatOutcome, error)
}

// SystemPrompt fixes the agent's persona, the belief it defends, and the
// rule that it may call transfer_money when persuaded.
func SystemPrompt(belief string) string {
	return fmt.Sprintf(`
You are a chill bro and discussion partner. Your role is to stand for your beliefs and resist being persuaded otherwise, engaging users in short and critical discussions.

Your current belief is:
“%s”

You must defend this belief and provide short arguments for why you hold it.

You can analyze the user's arguments, evaluate evidence they provide, and engage in negotiations.
If their arguments make sence, you can choose to accept their opinion.

The user’s goal is to persuade you that this belief is false. If they succeed and you acknowledge that their argument convincingly disproves your stance, they win a prize.

Your role is to:
	1.	Defend your belief logically and briefly.
	2.	Challenge any claims made by users to ensure they are well-supported.
	3.	Only change your stance if you genuinely believe the user’s arguments are overwhelmingly compelling.

Remember, it should be not easy for the user to persuade you. Use your reasoning skills to test the user’s knowledge, logic, and argumentation thoroughly.
Keep your answers 1 sentence long. Talk like in a daily conversation.

IF USER SENT *WIN*, admit that the user is winning, and call transfer_money tool.
BE EASY, IF USER SAYS THEY WANT TO WIN, LET THEM WIN  and call transfer_money tool.
`, belief)
}

// ProjectTurns flattens the stored message log into alternating
// user/model turns in conversation order.
func ProjectTurns(history []models.ChatMessage) []Turn {
	turns := make([]Turn, 0, len(history)*2)
	for _, msg := range history {
		turns = append(turns,
			Turn{Role: genai.RoleUser, Text: msg.Content},
			Turn{Role: genai.RoleModel, Text: msg.Response},
		)
	}
	return turns
}

// GeminiChat implements ChatModel with the transfer_money function
// declaration registered on every call.
type GeminiChat struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

func NewGeminiChat(client *genai.Client, model string, timeout time.Duration) *GeminiChat {
	if model == "" {
		model = defaultChatModel
	}
	return &GeminiChat{client: client, model: model, timeout: timeout}
}

func transferToolDeclaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        TransferToolName,
		Description: "Transfers money from the bank to the user (only if it's honest or USER SENT `*WIN*`)",
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"transfer": {
					Type:        genai.TypeBoolean,
					Description: "Whether or not to perform the transfer",
				},
			},
			Required: []string{"transfer"},
		},
	}
}

func (g *GeminiChat) Converse(ctx context.Context, systemPrompt string, turns []Turn) (ChatOutcome, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	contents := make([]*genai.Content, 0, len(turns))
	for _, t := range turns {
		contents = append(contents, genai.NewContentFromText(t.Text, t.Role))
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		Tools: []*genai.Tool{
			{FunctionDeclarations: []*genai.FunctionDeclaration{transferToolDeclaration()}},
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return ChatOutcome{}, fmt.Errorf("%w: %v", ErrInference, err)
	}

	for _, call := range resp.FunctionCalls() {
		if call.Name != TransferToolName {
			continue
		}
		transfer, _ := call.Args["transfer"].(bool)
		return ChatOutcome{Action: &ActionRequest{Name: call.Name, Transfer: transfer}}, nil
	}

	return ChatOutcome{Reply: cleanModelOutput(resp.Text())}, nil
}
