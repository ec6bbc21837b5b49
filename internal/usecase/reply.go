package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"basebot/internal/domain"
)

const (
	DefaultModel = "llama3-8b-8192"

	defaultMaxWords    = 30
	defaultTemperature = 0.7
	defaultMaxTokens   = 150

	greetingReply = "How are you doing? How's your day going? 😊"
	FallbackReply = "I couldn't process that request right now. Try again!"

	dateLayout = "Monday, January 02, 2006"
	timeLayout = "03:04 PM"
)

// Source tags where a reply came from.
type Source string

const (
	SourceQuickReply Source = "quick_reply"
	SourceKeyword    Source = "keyword"
	SourceLLM        Source = "llm"
	SourceFallback   Source = "fallback"
)

var (
	greetings    = []string{"hello", "hi", "hey"}
	datePhrases  = []string{"what is today", "today's date"}
	clockPhrases = []string{"what time is it", "current time"}
)

type LLMClient interface {
	Chat(ctx context.Context, req domain.CompletionRequest) (string, error)
}

type httpStatusCoder interface {
	HTTPStatusCode() int
}

type ReplyService struct {
	llm       LLMClient
	knowledge *KnowledgeBase
	model     string
	maxWords  int
	location  *time.Location
	now       func() time.Time
}

type ReplyInput struct {
	Text        string
	ReplyToText string
}

type ReplyOutput struct {
	Text   string
	Source Source
}

type Option func(*ReplyService)

// WithLocation sets the time zone used by date and time quick replies.
func WithLocation(loc *time.Location) Option {
	return func(s *ReplyService) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *ReplyService) {
		if now != nil {
			s.now = now
		}
	}
}

func NewReplyService(llm LLMClient, kb *KnowledgeBase, model string, opts ...Option) (*ReplyService, error) {
	if llm == nil {
		return nil, errors.New("usecase: llm client must not be nil")
	}
	if kb == nil {
		return nil, errors.New("usecase: knowledge base must not be nil")
	}
	model = strings.TrimSpace(model)
	if model == "" {
		model = DefaultModel
	}
	s := &ReplyService{
		llm:       llm,
		knowledge: kb,
		model:     model,
		maxWords:  defaultMaxWords,
		location:  time.Local,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *ReplyService) Reply(ctx context.Context, in ReplyInput) (ReplyOutput, error) {
	lowered := strings.ToLower(strings.TrimSpace(in.Text))
	if lowered == "" {
		return ReplyOutput{}, newError(ErrorInvalidInput, "empty_message", nil)
	}

	if text, ok := s.quickReply(lowered); ok {
		return ReplyOutput{Text: text, Source: SourceQuickReply}, nil
	}
	if answer, ok := s.knowledge.Lookup(lowered); ok {
		return ReplyOutput{Text: answer, Source: SourceKeyword}, nil
	}

	raw, err := s.llm.Chat(ctx, domain.CompletionRequest{
		Model:       s.model,
		Messages:    buildPromptMessages(in.Text, in.ReplyToText),
		Temperature: defaultTemperature,
		MaxTokens:   defaultMaxTokens,
	})
	if err != nil {
		if _, ok := upstreamStatusCode(err); ok {
			return ReplyOutput{Text: FallbackReply, Source: SourceFallback}, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ReplyOutput{}, newError(ErrorInternal, "request_cancelled", err)
		}
		return ReplyOutput{}, newError(ErrorUpstream, "llm_request_error", err)
	}

	answer := strings.TrimSpace(raw)
	if answer == "" {
		return ReplyOutput{}, newError(ErrorUpstream, "llm_empty_response", nil)
	}
	return ReplyOutput{Text: TruncateWords(answer, s.maxWords), Source: SourceLLM}, nil
}

func (s *ReplyService) quickReply(lowered string) (string, bool) {
	for _, g := range greetings {
		if lowered == g {
			return greetingReply, true
		}
	}
	now := s.now().In(s.location)
	if containsAny(lowered, datePhrases) {
		return "Today's date is " + now.Format(dateLayout) + " 📅", true
	}
	if containsAny(lowered, clockPhrases) {
		return "The current time is " + now.Format(timeLayout) + " ⏰", true
	}
	return "", false
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

func upstreamStatusCode(err error) (int, bool) {
	var statusErr httpStatusCoder
	if !errors.As(err, &statusErr) {
		return 0, false
	}
	return statusErr.HTTPStatusCode(), true
}
