package extract

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/genai"
)

const extractionPrompt = `You are an assistant that extracts structured expense information from a natural language sentence.

Task:
- Extract exactly the following fields: category, amount, type, description.
- Return **ONLY a JSON object** with these keys, nothing else.
- category: type of expense (food, groceries, cab fare, flight, lend, etc.)
- amount: a float representing the user's share of the expense. If there is a mathematical expression like 750/4, evaluate it.
- type: either "debit" or "credit".
- description: place or other details about the expense.

Rules:
1. Always return valid JSON.
2. Never add extra fields.
3. Round the amount to two decimal places.
4. If any field is missing or unclear, return null for that field.

Examples:

Input: "add 750/4 in category food, type is debit, description is north adda"
Output: {"category": "food", "amount": 187.5, "type": "debit", "description": "north adda"}

Input: "spent 1200 on groceries, debit, from local market"
Output: {"category": "groceries", "amount": 1200.0, "type": "debit", "description": "local market"}

Input: "got 500 from friend, credit, repayment"
Output: {"category": "lend", "amount": 500.0, "type": "credit", "description": "repayment"}

Now extract the fields for this sentence:
`

// GeminiExtractor calls the Gemini API with the extraction prompt.
type GeminiExtractor struct {
	client *genai.Client
	model  string
}

// NewGeminiExtractor builds an extractor. Credentials come from the
// environment (GEMINI_API_KEY), which is how the genai SDK resolves them.
func NewGeminiExtractor(ctx context.Context, model string) (*GeminiExtractor, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiExtractor{client: client, model: model}, nil
}

// Extract sends the sentence to the model and returns the parsed fields.
// Validation is left to the caller so it can report per-field problems.
func (g *GeminiExtractor) Extract(ctx context.Context, userText string) (Fields, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		genai.Text(extractionPrompt+"\n\nUser message: "+userText), nil)
	if err != nil {
		return Fields{}, fmt.Errorf("generate content: %w", err)
	}

	raw := resp.Text()
	slog.DebugContext(ctx, "Extraction response received", "model", g.model, "length", len(raw))

	return ParseResponse(raw)
}
