package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/yourusername/pc-builder/internal/domain/entity"
	"github.com/yourusername/pc-builder/internal/domain/repository"
)

// batchSize listings sent per request
const batchSize = 40

const systemPrompt = `You normalize PC component listings from retailer price sheets.
For every input line "<index>\t<title>" return one JSON object with:
  "i": the index,
  "manufacturer": the brand that makes the part (e.g. "AMD", "ASUS", "Corsair"),
  "model": the model name without the brand, marketing words, capacity bundles or colors
           (e.g. "Ryzen 7 7800X3D", "ROG Strix B650E-I Gaming WiFi", "SF750"),
  "category": one of CPU, GPU, Motherboard, RAM, PSU, Cooler, Case, SSD, Other.
Answer with a JSON array only. Use "" for anything you cannot tell.`

type normalized struct {
	Index        int    `json:"i"`
	Manufacturer string `json:"manufacturer"`
	Model        string `json:"model"`
	Category     string `json:"category"`
}

type geminiNormalizer struct {
	client *genai.Client
	model  *genai.GenerativeModel
	sem    chan struct{}
	mu     sync.Mutex
	last   time.Time
	delay  time.Duration
}

// NewGeminiNormalizer listing normalizer backed by Gemini. The returned value
// also implements io.Closer.
func NewGeminiNormalizer(ctx context.Context, apiKey string) (repository.ListingNormalizer, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel("gemini-2.0-flash-exp")

	// deterministic extraction
	model.SetTemperature(0)
	model.SetTopK(20)
	model.SetTopP(0.9)
	model.SetMaxOutputTokens(4096)
	model.ResponseMIMEType = "application/json"
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPrompt)},
	}

	return &geminiNormalizer{
		client: client,
		model:  model,
		sem:    make(chan struct{}, 3),
		delay:  350 * time.Millisecond,
	}, nil
}

// Normalize fills missing manufacturer, model and category fields
func (g *geminiNormalizer) Normalize(ctx context.Context, listings []entity.Listing) ([]entity.Listing, error) {
	out := make([]entity.Listing, len(listings))
	copy(out, listings)

	for start := 0; start < len(out); start += batchSize {
		end := min(start+batchSize, len(out))
		if err := g.normalizeBatch(ctx, out[start:end]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (g *geminiNormalizer) normalizeBatch(ctx context.Context, batch []entity.Listing) error {
	var prompt strings.Builder
	for i, l := range batch {
		fmt.Fprintf(&prompt, "%d\t%s\n", i, strings.ReplaceAll(l.Name, "\t", " "))
	}

	release, err := g.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt.String()))
	if err != nil {
		return fmt.Errorf("failed to generate response: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return fmt.Errorf("no response candidates")
	}

	items, err := decodeItems(extractText(resp))
	if err != nil {
		return err
	}
	for _, it := range items {
		if it.Index < 0 || it.Index >= len(batch) {
			continue
		}
		applyNormalized(&batch[it.Index], it)
	}
	return nil
}

// decodeItems parses the model answer, tolerating a fenced code block
func decodeItems(text string) ([]normalized, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	var items []normalized
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &items); err != nil {
		return nil, fmt.Errorf("failed to decode normalizer answer: %w", err)
	}
	return items, nil
}

// applyNormalized only fills fields the sheet left empty
func applyNormalized(l *entity.Listing, it normalized) {
	if l.Manufacturer == "" {
		l.Manufacturer = strings.TrimSpace(it.Manufacturer)
	}
	if l.Model == "" {
		l.Model = strings.TrimSpace(it.Model)
	}
	if l.Category == "" || entity.KindForCategory(l.Category) == entity.KindOther {
		if c := strings.TrimSpace(it.Category); c != "" && entity.KindForCategory(c) != entity.KindOther {
			l.Category = c
		}
	}
}

// extractText joins the text parts of every candidate
func extractText(resp *genai.GenerateContentResponse) string {
	var result strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					result.WriteString(string(t))
				}
			}
		}
	}
	return result.String()
}

// acquire limits concurrency and spaces requests by g.delay
func (g *geminiNormalizer) acquire(ctx context.Context) (func(), error) {
	select {
	case g.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now()
	if !g.last.IsZero() {
		if sleep := g.delay - now.Sub(g.last); sleep > 0 {
			time.Sleep(sleep)
			now = time.Now()
		}
	}
	g.last = now

	return func() { <-g.sem }, nil
}

// Close closes the client
func (g *geminiNormalizer) Close() error {
	return g.client.Close()
}
