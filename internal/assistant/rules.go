package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/gearvault/gearvault-backend/pkg/db/models"
	pkgerrors "github.com/gearvault/gearvault-backend/pkg/errors"
)

// Engine produces the assistant side of a conversation turn.
type Engine interface {
	Reply(ctx context.Context, history []models.AssistantMessage, userMessage string) (*EngineReply, error)
}

// EngineReply is one assistant turn with any recommended products attached.
type EngineReply struct {
	Text     string
	Products []models.Product
}

// catalogReader is the slice of the catalog repository the engines need.
type catalogReader interface {
	FindCategoriesBySlugs(ctx context.Context, slugs []string) ([]models.Category, error)
	FindProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	ListInStockByCategory(ctx context.Context, categoryID uuid.UUID, limit int) ([]models.Product, error)
}

// intent maps trigger keywords to the category slugs it recommends from.
type intent struct {
	keywords []string
	slugs    []string
	reply    string
}

// Ordered so the most specific intents win over the full-build catch-all.
var ruleIntents = []intent{
	{
		keywords: []string{"gpu", "graphics card", "video card"},
		slugs:    []string{"graphics-cards"},
		reply:    "For graphics, these cards are in stock right now:",
	},
	{
		keywords: []string{"cpu", "processor"},
		slugs:    []string{"processors"},
		reply:    "These processors are available:",
	},
	{
		keywords: []string{"ram", "memory"},
		slugs:    []string{"memory"},
		reply:    "Memory kits currently in stock:",
	},
	{
		keywords: []string{"storage", "ssd", "hard drive", "nvme"},
		slugs:    []string{"storage"},
		reply:    "Storage options I can recommend:",
	},
	{
		keywords: []string{"monitor", "display", "screen"},
		slugs:    []string{"monitors"},
		reply:    "Monitors worth a look:",
	},
	{
		keywords: []string{"budget", "cheap", "affordable"},
		slugs:    []string{"graphics-cards", "processors", "memory"},
		reply:    "Sticking to a budget, the most affordable picks per category are:",
	},
	{
		keywords: []string{"full build", "complete build", "whole pc", "entire pc", "build a pc"},
		slugs:    []string{"graphics-cards", "processors", "memory", "storage", "monitors"},
		reply:    "For a complete build, here is one pick from each category:",
	},
}

// RuleEngine is the deterministic fallback: keyword matching over the user
// message, recommendations pulled straight from catalog stock.
type RuleEngine struct {
	catalog catalogReader
}

// NewRuleEngine wires the rule engine.
func NewRuleEngine(catalog catalogReader) (*RuleEngine, error) {
	if catalog == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "catalog reader required")
	}
	return &RuleEngine{catalog: catalog}, nil
}

func (e *RuleEngine) Reply(ctx context.Context, _ []models.AssistantMessage, userMessage string) (*EngineReply, error) {
	normalized := strings.ToLower(userMessage)

	matched := matchIntent(normalized)
	if matched == nil {
		return &EngineReply{
			Text: "I can help you pick parts. Ask me about graphics cards, processors, memory, storage, monitors, budget picks, or a full build.",
		}, nil
	}

	products, err := e.recommend(ctx, matched)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return &EngineReply{
			Text: "Everything matching that is out of stock at the moment. Check back soon or ask about another category.",
		}, nil
	}

	var sb strings.Builder
	sb.WriteString(matched.reply)
	for _, product := range products {
		fmt.Fprintf(&sb, "\n- %s %s ($%.2f)", product.Brand, product.Name, float64(product.PriceCents)/100)
	}

	return &EngineReply{Text: sb.String(), Products: products}, nil
}

func matchIntent(message string) *intent {
	for i := range ruleIntents {
		for _, keyword := range ruleIntents[i].keywords {
			if strings.Contains(message, keyword) {
				return &ruleIntents[i]
			}
		}
	}
	return nil
}

// recommend returns up to one product per slug for multi-category intents,
// up to three for single-category ones.
func (e *RuleEngine) recommend(ctx context.Context, matched *intent) ([]models.Product, error) {
	categories, err := e.catalog.FindCategoriesBySlugs(ctx, matched.slugs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve categories")
	}

	perCategory := 3
	if len(matched.slugs) > 1 {
		perCategory = 1
	}

	var products []models.Product
	for _, category := range categories {
		rows, err := e.catalog.ListInStockByCategory(ctx, category.ID, perCategory)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stock")
		}
		products = append(products, rows...)
	}
	return products, nil
}
