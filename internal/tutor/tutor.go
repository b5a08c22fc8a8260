// Package tutor answers learner questions through a text-generation API.
// Every call returns a reply; failures fall back to canned messages.
package tutor

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"learnerportal/internal/models"
)

// Canned replies.
const (
	DemoReply    = "🤖 Modo Demo: Para respuestas reales de IA, por favor configura tu API KEY de Google Gemini. Mientras tanto: ¡Esa es una excelente pregunta sobre el curso! Te recomiendo revisar la clase del Martes de la Semana 1."
	EmptyReply   = "Lo siento, no pude generar una respuesta en este momento."
	FailureReply = "Tuve un problema conectando con mi cerebro digital. Por favor intenta de nuevo."
	Greeting     = "¡Hola! Soy tu tutor IA de SimpleData. ¿En qué puedo ayudarte hoy?"
)

const (
	systemInstruction = "Eres un tutor experto y amigable del programa de educación 'SimpleData'. Ayudas a los estudiantes a entender conceptos de IA, Python, y Automatización. Tus respuestas son concisas, motivadoras y usan emojis ocasionalmente."

	// historyTurns is how many earlier turns are sent as context.
	historyTurns = 5

	DefaultEndpoint = "https://generativelanguage.googleapis.com"
	DefaultModel    = "gemini-3-flash-preview"
)

// Client calls the generateContent endpoint.
type Client struct {
	model string
	genai *genai.Client
}

// NewClient creates a tutor client. Without an API key it only returns the
// demo reply.
func NewClient(ctx context.Context, apiKey, model, endpoint string, timeout time.Duration) (*Client, error) {
	if model == "" {
		model = DefaultModel
	}
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	c := &Client{model: model}
	if apiKey == "" {
		return c, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  &http.Client{Timeout: timeout},
		HTTPOptions: genai.HTTPOptions{BaseURL: strings.TrimRight(endpoint, "/") + "/"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	c.genai = client
	return c, nil
}

// BuildPrompt renders the last few turns followed by the new message.
func BuildPrompt(history []models.ChatTurn, message string) string {
	if len(history) > historyTurns {
		history = history[len(history)-historyTurns:]
	}
	lines := make([]string, 0, len(history)+1)
	for _, turn := range history {
		lines = append(lines, turn.Role+": "+turn.Text)
	}
	lines = append(lines, "user: "+message)
	return strings.Join(lines, "\n")
}

// Reply answers message given the conversation so far.
func (c *Client) Reply(ctx context.Context, history []models.ChatTurn, message string) string {
	if c.genai == nil {
		return DemoReply
	}

	resp, err := c.genai.Models.GenerateContent(ctx, c.model, genai.Text(BuildPrompt(history, message)), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
	})
	if err != nil {
		log.Printf("Tutor API error: %v", err)
		return FailureReply
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return EmptyReply
	}
	return text
}
