package assistant

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/gearvault/gearvault-backend/pkg/db/models"
	"github.com/gearvault/gearvault-backend/pkg/enums"
	pkgerrors "github.com/gearvault/gearvault-backend/pkg/errors"
	"github.com/gearvault/gearvault-backend/pkg/llm"
	"github.com/gearvault/gearvault-backend/pkg/logger"
)

const systemPrompt = `You are the PC-building assistant for a gaming hardware store.
Answer the customer's question concisely. Respond with a JSON object of the
form {"reply": string, "product_ids": [string]}. Only include product_ids you
were explicitly given in the conversation; never invent identifiers.`

type completer interface {
	Complete(ctx context.Context, messages []llm.Message) (string, error)
}

// ModelEngine forwards the conversation to a hosted completion API and
// resolves any product ids the model echoes back. Every failure path falls
// back to the rule engine so the chat never hard-errors on upstream trouble.
type ModelEngine struct {
	client   completer
	catalog  catalogReader
	fallback Engine
	logg     *logger.Logger
}

// NewModelEngine wires the hosted-model engine.
func NewModelEngine(client completer, catalog catalogReader, fallback Engine, logg *logger.Logger) (*ModelEngine, error) {
	if client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "completion client required")
	}
	if catalog == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "catalog reader required")
	}
	if fallback == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "fallback engine required")
	}
	return &ModelEngine{client: client, catalog: catalog, fallback: fallback, logg: logg}, nil
}

type modelReply struct {
	Reply      string   `json:"reply"`
	ProductIDs []string `json:"product_ids"`
}

func (e *ModelEngine) Reply(ctx context.Context, history []models.AssistantMessage, userMessage string) (*EngineReply, error) {
	conversation := make([]llm.Message, 0, len(history)+2)
	conversation = append(conversation, llm.Message{Role: "system", Content: systemPrompt})
	for _, msg := range history {
		role := "user"
		if msg.Role == enums.ChatRoleAssistant {
			role = "assistant"
		}
		conversation = append(conversation, llm.Message{Role: role, Content: msg.Content})
	}
	conversation = append(conversation, llm.Message{Role: "user", Content: userMessage})

	raw, err := e.client.Complete(ctx, conversation)
	if err != nil {
		return e.fallbackReply(ctx, history, userMessage, "completion call failed", err)
	}

	var parsed modelReply
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return e.fallbackReply(ctx, history, userMessage, "unparseable completion payload", err)
	}
	if strings.TrimSpace(parsed.Reply) == "" {
		return e.fallbackReply(ctx, history, userMessage, "empty completion reply", nil)
	}

	products, err := e.resolveProducts(ctx, parsed.ProductIDs)
	if err != nil {
		return nil, err
	}
	return &EngineReply{Text: parsed.Reply, Products: products}, nil
}

// resolveProducts keeps only ids that parse and exist. Hallucinated ids are
// dropped silently.
func (e *ModelEngine) resolveProducts(ctx context.Context, raw []string) ([]models.Product, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, candidate := range raw {
		id, err := uuid.Parse(strings.TrimSpace(candidate))
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	products, err := e.catalog.FindProductsByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve recommended products")
	}
	return products, nil
}

func (e *ModelEngine) fallbackReply(ctx context.Context, history []models.AssistantMessage, userMessage, reason string, cause error) (*EngineReply, error) {
	if e.logg != nil {
		fields := map[string]any{"reason": reason}
		if cause != nil {
			fields["error"] = cause.Error()
		}
		e.logg.Warn(e.logg.WithFields(ctx, fields), "assistant.model_fallback")
	}
	return e.fallback.Reply(ctx, history, userMessage)
}
