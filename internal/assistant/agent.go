package assistant

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/tmc/langchaingo/llms"
)

const systemPrompt = `You are a friendly assistant for a restaurant. You help
customers view the menu, search for dishes, and place orders. Always be
polite. Repeat the order details the tools report; never invent items,
prices, or order ids.`

// Agent is the thin conversational wrapper around the assistant. Intent
// routing and order mechanics are deterministic tool calls; the language
// model, when configured, only phrases the reply. With no model configured
// the rendered tool output is returned as-is, so the core works offline.
type Agent struct {
	assistant *Assistant
	sessions  *SessionManager
	model     llms.Model
}

// NewAgent creates an agent. The model may be nil.
func NewAgent(a *Assistant, sessions *SessionManager, model llms.Model) *Agent {
	return &Agent{assistant: a, sessions: sessions, model: model}
}

// Sessions exposes the session manager to the transport layer.
func (ag *Agent) Sessions() *SessionManager {
	return ag.sessions
}

// Respond handles one customer message within a session and returns the
// assistant's reply.
func (ag *Agent) Respond(ctx context.Context, sessionID, message string) (string, error) {
	session, err := ag.sessions.Get(sessionID)
	if err != nil {
		return "", err
	}
	if err := ag.sessions.AppendTurn(sessionID, "user", message); err != nil {
		return "", err
	}

	reply, err := ag.route(ctx, session, message)
	if err != nil {
		return "", err
	}
	if ag.model != nil {
		reply = ag.phrase(ctx, message, reply)
	}

	if err := ag.sessions.AppendTurn(sessionID, "assistant", reply); err != nil {
		return "", err
	}
	return reply, nil
}

// route picks and runs the tool for the message. The session is a
// snapshot; pending-parse changes go back through the manager.
func (ag *Agent) route(ctx context.Context, session Session, message string) (string, error) {
	lower := strings.ToLower(message)

	if session.Pending != nil && isConfirmation(lower) {
		pending := *session.Pending
		result, err := ag.assistant.Dispatch(ctx, CreateOrderRequest(session.CustomerName, pending))
		if err != nil {
			return "", err
		}
		if err := ag.sessions.SetPending(session.ID, nil); err != nil {
			return "", err
		}
		return result, nil
	}

	switch {
	case strings.Contains(lower, "menu"):
		return ag.assistant.Dispatch(ctx, GetMenuRequest())

	case strings.Contains(lower, "popular") || strings.Contains(lower, "analytics"):
		return ag.assistant.Dispatch(ctx, AnalyticsRequest())
	}

	parsed := ag.assistant.ParseOrder(ctx, message)
	if len(parsed.Lines) > 0 {
		if err := ag.sessions.SetPending(session.ID, &parsed); err != nil {
			return "", err
		}
		return renderParsed(parsed) + "\nReply \"confirm\" to place this order.", nil
	}
	if len(parsed.Unresolved) > 0 {
		return renderParsed(parsed), nil
	}

	// Nothing order-shaped in the message; treat it as a menu question.
	return ag.assistant.Dispatch(ctx, SearchMenuRequest(message))
}

// phrase asks the model to word the reply, grounded on the menu items
// closest to the customer's message. The tool result stays authoritative:
// on any model failure the rendered result is returned.
func (ag *Agent) phrase(ctx context.Context, message, toolResult string) string {
	prompt := fmt.Sprintf("%s\n\nCustomer message: %s\n\nTool result:\n%s\n\nReply to the customer using only the facts in the tool result.",
		systemPrompt, message, toolResult)
	if menuContext := ag.assistant.MenuContext(ctx, message); menuContext != "" {
		prompt = fmt.Sprintf("%s\n\n%s", prompt, menuContext)
	}
	out, err := llms.GenerateFromSinglePrompt(ctx, ag.model, prompt,
		llms.WithTemperature(0.7), llms.WithMaxTokens(512))
	if err != nil {
		log.Printf("model call failed, returning tool output directly: %v", err)
		return toolResult
	}
	if strings.TrimSpace(out) == "" {
		return toolResult
	}
	return out
}

func isConfirmation(lower string) bool {
	for _, word := range []string{"confirm", "yes", "yep", "place the order", "place it", "sounds good"} {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

// Greeting is the first assistant turn of a new session.
func Greeting(customerName string) string {
	return fmt.Sprintf("Hello %s! Welcome to our restaurant. How can I help you today? You can ask to see our menu or place an order.", customerName)
}
