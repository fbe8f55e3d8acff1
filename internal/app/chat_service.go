package app

import (
	"context"
	"fmt"
	"log/slog"

	"seteuk/internal/domain"
)

// Sanitizer cleans backend-generated text before it reaches the user.
type Sanitizer interface {
	Sanitize(s string) string
}

type passthrough struct{}

func (passthrough) Sanitize(s string) string { return s }

// ChatService asks questions and reads history. It works logged out; when a
// session exists the gateway sends its token along.
type ChatService struct {
	api       domain.ChatGateway
	store     *SessionStore
	sanitizer Sanitizer
	log       *slog.Logger
}

// NewChatService creates a new chat service. A nil sanitizer leaves answers unchanged.
func NewChatService(api domain.ChatGateway, store *SessionStore, sanitizer Sanitizer, log *slog.Logger) *ChatService {
	if sanitizer == nil {
		sanitizer = passthrough{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &ChatService{api: api, store: store, sanitizer: sanitizer, log: log}
}

// Subjects returns the backend's subject list. When the backend cannot be
// reached the built-in catalogue is returned and fallback is true.
func (s *ChatService) Subjects(ctx context.Context) (subjects []string, fallback bool) {
	subjects, err := s.api.Subjects(ctx)
	if err != nil || len(subjects) == 0 {
		s.log.Warn("using built-in subject list", slog.Any("error", err))
		return domain.Subjects(), true
	}
	return subjects, false
}

// Ask sends one question. An empty subject selects the default subject.
func (s *ChatService) Ask(ctx context.Context, req domain.ChatRequest) (domain.ChatEntry, error) {
	req = req.Normalize()
	if req.Subject == "" {
		req.Subject = domain.DefaultSubject()
	}
	if !domain.IsKnownSubject(req.Subject) {
		return domain.ChatEntry{}, fmt.Errorf("%w: %q", domain.ErrUnknownSubject, req.Subject)
	}
	if req.Question == "" {
		return domain.ChatEntry{}, domain.ErrEmptyQuestion
	}

	s.log.Debug("asking",
		slog.String("subject", req.Subject),
		slog.Bool("anonymous", !s.store.IsAuthenticated()),
	)
	entry, err := s.api.Ask(ctx, req)
	if err != nil {
		return domain.ChatEntry{}, fmt.Errorf("ask: %w", err)
	}
	entry.Answer = s.sanitizer.Sanitize(entry.Answer)
	return entry, nil
}

// History lists past questions, newest first.
func (s *ChatService) History(ctx context.Context, q domain.HistoryQuery) (domain.HistoryPage, error) {
	q = q.Normalize()
	if q.Subject != "" && !domain.IsKnownSubject(q.Subject) {
		return domain.HistoryPage{}, fmt.Errorf("%w: %q", domain.ErrUnknownSubject, q.Subject)
	}

	page, err := s.api.History(ctx, q)
	if err != nil {
		return domain.HistoryPage{}, fmt.Errorf("history: %w", err)
	}
	for i := range page.Histories {
		page.Histories[i].Answer = s.sanitizer.Sanitize(page.Histories[i].Answer)
	}
	return page, nil
}

// HistoryDetail returns one past question with its answer.
func (s *ChatService) HistoryDetail(ctx context.Context, id int64) (domain.ChatEntry, error) {
	if id <= 0 {
		return domain.ChatEntry{}, fmt.Errorf("history %d: %w", id, domain.ErrHistoryNotFound)
	}
	entry, err := s.api.HistoryDetail(ctx, id)
	if err != nil {
		return domain.ChatEntry{}, err
	}
	entry.Answer = s.sanitizer.Sanitize(entry.Answer)
	return entry, nil
}
