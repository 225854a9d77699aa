package coordinator

import (
	"context"
	"fmt"
	"strings"

	"github.com/onoo-labs/marketing-assistant/internal/generation"
	"github.com/onoo-labs/marketing-assistant/internal/logging"
	"github.com/onoo-labs/marketing-assistant/internal/project/domain"
)

const (
	msgChatFailed = "عذراً، حدث خطأ. يرجى المحاولة مرة أخرى."
	msgChatEmpty  = "يرجى كتابة رسالة."
)

// Chat is the grounded marketing-expert conversation.
type Chat struct {
	store  StateStore
	gen    ChatStreamer
	model  string
	log    logging.Logger
	status tracker
}

func NewChat(store StateStore, gen ChatStreamer, model string, log logging.Logger) *Chat {
	return &Chat{store: store, gen: gen, model: model, log: log}
}

func (c *Chat) Status() Status { return c.status.status() }

// Send appends the user's message and streams the reply into a new model
// message. onChunk, when set, receives the reply text so far after every
// chunk. On failure the partial reply is replaced by an apology.
func (c *Chat) Send(ctx context.Context, text string, onChunk func(string)) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return c.status.reject(msgChatEmpty)
	}
	if err := c.status.begin(); err != nil {
		return err
	}

	before := c.store.State()
	req := generation.ChatRequest{
		Model:             c.model,
		SystemInstruction: chatInstruction(before.ProductInfo),
		History:           chatHistory(before.ChatHistory),
		Message:           text,
		Search:            true,
	}

	var reply pendingReply
	c.store.Update(ctx, func(s *domain.ProjectState) {
		s.ChatHistory = append(s.ChatHistory,
			domain.ChatMessage{Role: domain.RoleUser, Content: text},
			domain.ChatMessage{Role: domain.RoleModel},
		)
		reply = pendingReply{idx: len(s.ChatHistory) - 1, prompt: text}
	})

	var (
		buf     strings.Builder
		sources []generation.Source
	)
	for chunk, err := range c.gen.StreamChat(ctx, req) {
		if err != nil {
			c.replaceReply(ctx, &reply, domain.ChatMessage{Role: domain.RoleModel, Content: msgChatFailed})
			c.log.FromContext(ctx).LogError("chat.send", err)
			return c.status.end(generation.Wrap("chat.send", msgChatFailed, err))
		}
		buf.WriteString(chunk.Text)
		sources = generation.DedupeSources(append(sources, chunk.Sources...))

		c.replaceReply(ctx, &reply, domain.ChatMessage{
			Role:    domain.RoleModel,
			Content: buf.String(),
			Sources: groundingChunks(sources),
		})
		if onChunk != nil {
			onChunk(buf.String())
		}
	}

	return c.status.end(nil)
}

// pendingReply locates the streaming reply: its index, the prompt right
// before it and the content last written to it.
type pendingReply struct {
	idx     int
	prompt  string
	content string
	lost    bool
}

func (r *pendingReply) matches(msgs []domain.ChatMessage) bool {
	if r.lost || r.idx < 1 || r.idx >= len(msgs) {
		return false
	}
	m, prev := msgs[r.idx], msgs[r.idx-1]
	return m.Role == domain.RoleModel && m.Content == r.content &&
		prev.Role == domain.RoleUser && prev.Content == r.prompt
}

// replaceReply swaps the streaming reply as a whole. Once the history has
// been replaced, by an import for example, the reply is dropped and the
// new history is left alone.
func (c *Chat) replaceReply(ctx context.Context, r *pendingReply, msg domain.ChatMessage) {
	c.store.Update(ctx, func(s *domain.ProjectState) {
		if !r.matches(s.ChatHistory) {
			r.lost = true
			return
		}
		s.ChatHistory[r.idx] = msg
		r.content = msg.Content
	})
}

// chatHistory converts stored messages to model turns, leaving out the
// greeting that opens every project.
func chatHistory(msgs []domain.ChatMessage) []generation.Turn {
	if len(msgs) > 0 && isGreeting(msgs[0]) {
		msgs = msgs[1:]
	}
	turns := make([]generation.Turn, 0, len(msgs))
	for _, m := range msgs {
		if m.Content == "" {
			continue
		}
		turns = append(turns, generation.Turn{Role: m.Role, Text: m.Content})
	}
	return turns
}

func isGreeting(m domain.ChatMessage) bool {
	g := domain.Greeting()
	return m.Role == g.Role && m.Content == g.Content && len(m.Sources) == 0
}

func groundingChunks(sources []generation.Source) []domain.GroundingChunk {
	if len(sources) == 0 {
		return nil
	}
	out := make([]domain.GroundingChunk, len(sources))
	for i, s := range sources {
		out[i] = domain.GroundingChunk{Web: domain.WebSource{URI: s.URI, Title: s.Title}}
	}
	return out
}

func chatInstruction(p domain.ProductInfo) string {
	return fmt.Sprintf(
		"أنت خبير تسويق محترف ومتخصص في برامج ERP. اسم المنتج هو %s واسم الشركة هو %s. "+
			"قدم إجابات واستراتيجيات تسويقية دقيقة ومبتكرة ومفصلة. استخدم بحث جوجل لتقديم أحدث المعلومات.",
		p.Name, p.Company)
}
