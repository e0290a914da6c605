// Package chat drives the question/answer conversation and the context
// panel.
package chat

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ashureev/docqa/internal/api"
	"github.com/ashureev/docqa/internal/backend"
	"github.com/ashureev/docqa/internal/domain"
)

// Texts shown in place of an answer or in the context panel.
const (
	TextErrorOccurred = "Error occurred"
	TextNetworkError  = "Network error"
	TextNoContext     = "No context"
)

// DefaultSamples are offered when no sample questions are configured.
var DefaultSamples = []string{
	"What is this document about?",
	"Summarize the key points.",
	"What are the main conclusions?",
}

// Querier asks the backend a question.
type Querier interface {
	Query(ctx context.Context, question string) (*api.QueryResponse, error)
}

// Panel is the context side panel.
type Panel struct {
	Open        bool
	Entries     []domain.ContextEntry
	Placeholder bool // show TextNoContext instead of entries
}

// Outcome is the result of a finished query. ScrollToEnd and Refocus are
// always set.
type Outcome struct {
	Failed      bool
	Reply       domain.Message
	ScrollToEnd bool
	Refocus     bool
}

// Controller owns the message list, the question field and the context
// panel. Callers serialize access.
type Controller struct {
	input    string
	messages []domain.Message
	welcome  bool
	loading  bool
	panel    Panel
	samples  []string
}

// New creates a controller showing the welcome placeholder.
func New(samples []string) *Controller {
	if len(samples) == 0 {
		samples = DefaultSamples
	}
	return &Controller{welcome: true, samples: samples}
}

// SetInput replaces the question field.
func (c *Controller) SetInput(s string) { c.input = s }

// Input returns the question field.
func (c *Controller) Input() string { return c.input }

// Messages returns a copy of the message list.
func (c *Controller) Messages() []domain.Message {
	out := make([]domain.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Welcome reports whether the welcome placeholder is still shown.
func (c *Controller) Welcome() bool { return c.welcome }

// Loading reports whether a query is in flight.
func (c *Controller) Loading() bool { return c.loading }

// Samples returns the sample questions.
func (c *Controller) Samples() []string { return c.samples }

// Panel returns the context panel state.
func (c *Controller) Panel() Panel { return c.panel }

// CloseContext hides the context panel.
func (c *Controller) CloseContext() { c.panel.Open = false }

// ToggleContext flips the context panel visibility.
func (c *Controller) ToggleContext() { c.panel.Open = !c.panel.Open }

// Begin starts a query from the question field. It returns false without
// touching any state when the trimmed input is empty or a query is already
// in flight.
func (c *Controller) Begin() (string, bool) {
	q := strings.TrimSpace(c.input)
	if q == "" || c.loading {
		return "", false
	}
	c.input = ""
	c.welcome = false
	c.messages = append(c.messages, domain.NewUserMessage(q))
	c.loading = true
	return q, true
}

// Sample fills the question field with the i-th sample and begins a query.
func (c *Controller) Sample(i int) (string, bool) {
	if i < 0 || i >= len(c.samples) || c.loading {
		return "", false
	}
	c.input = c.samples[i]
	return c.Begin()
}

// Finish records the response of the in-flight query.
func (c *Controller) Finish(resp *api.QueryResponse, err error) (out Outcome) {
	defer func() {
		c.loading = false
		out.ScrollToEnd = true
		out.Refocus = true
	}()

	switch {
	case err != nil && backend.IsTransport(err):
		slog.Warn("Query failed to reach backend", "error", err)
		out.Failed = true
		out.Reply = c.reply(TextNetworkError, nil, "")
	case err != nil:
		slog.Info("Query rejected", "error", err)
		out.Failed = true
		out.Reply = c.reply(domain.CleanText(backend.MessageOf(err, TextErrorOccurred)), nil, "")
	case resp == nil || !resp.Success:
		msg := TextErrorOccurred
		if resp != nil && resp.Error != "" {
			msg = domain.CleanText(resp.Error)
		}
		out.Failed = true
		out.Reply = c.reply(msg, nil, "")
	default:
		sources := make([]string, 0, len(resp.Sources))
		for _, s := range resp.Sources {
			sources = append(sources, domain.CleanText(s))
		}
		out.Reply = c.reply(domain.CleanText(resp.Answer), sources, domain.CleanText(resp.Model))
		c.showContext(resp.Entries())
	}
	return out
}

func (c *Controller) reply(text string, sources []string, model string) domain.Message {
	m := domain.NewAssistantMessage(text, sources, model)
	c.messages = append(c.messages, m)
	return m
}

// showContext replaces the panel content. An empty set leaves the
// visibility alone.
func (c *Controller) showContext(entries []domain.ContextEntry) {
	if len(entries) == 0 {
		c.panel.Entries = nil
		c.panel.Placeholder = true
		return
	}
	for i := range entries {
		entries[i].Source = domain.CleanText(entries[i].Source)
		entries[i].Text = domain.CleanText(entries[i].Text)
	}
	c.panel = Panel{Open: true, Entries: entries}
}

// Ask runs a whole query for question synchronously. It reports false when
// the question is empty.
func (c *Controller) Ask(ctx context.Context, q Querier, question string) (Outcome, bool) {
	c.SetInput(question)
	text, ok := c.Begin()
	if !ok {
		return Outcome{}, false
	}
	resp, err := q.Query(ctx, text)
	return c.Finish(resp, err), true
}
