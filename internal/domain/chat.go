package domain

import (
	"context"
	"errors"
	"strings"
)

// History paging limits accepted by the backend.
const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 100
)

var (
	// ErrHistoryNotFound indicates that the requested history entry does not exist.
	ErrHistoryNotFound = errors.New("history not found")
	// ErrUnknownSubject indicates a subject outside the catalogue.
	ErrUnknownSubject = errors.New("unknown subject")
	// ErrEmptyQuestion indicates a blank question.
	ErrEmptyQuestion = errors.New("question is empty")
)

// ChatRequest is a single question about a subject.
type ChatRequest struct {
	Subject  string `json:"subject"`
	Question string `json:"question"`
}

// Normalize trims the question and canonicalizes the subject.
func (r ChatRequest) Normalize() ChatRequest {
	return ChatRequest{
		Subject:  NormalizeSubject(r.Subject),
		Question: strings.TrimSpace(r.Question),
	}
}

// ChatEntry is one answered question as stored in the server history.
type ChatEntry struct {
	ID        int64  `json:"id"`
	Subject   string `json:"subject"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	CreatedAt string `json:"created_at"`
}

// HistoryPage is one page of history, newest first.
type HistoryPage struct {
	Histories []ChatEntry `json:"histories"`
	Total     int         `json:"total"`
}

// HistoryQuery filters and pages the history listing.
type HistoryQuery struct {
	Skip    int
	Limit   int
	Subject string
}

// Normalize clamps the query into the range the backend accepts.
func (q HistoryQuery) Normalize() HistoryQuery {
	if q.Skip < 0 {
		q.Skip = 0
	}
	if q.Limit <= 0 {
		q.Limit = DefaultHistoryLimit
	}
	if q.Limit > MaxHistoryLimit {
		q.Limit = MaxHistoryLimit
	}
	q.Subject = NormalizeSubject(q.Subject)
	return q
}

// ChatGateway is the port for the backend's chat and history endpoints.
type ChatGateway interface {
	Subjects(ctx context.Context) ([]string, error)
	Ask(ctx context.Context, req ChatRequest) (ChatEntry, error)
	History(ctx context.Context, q HistoryQuery) (HistoryPage, error)
	HistoryDetail(ctx context.Context, id int64) (ChatEntry, error)
}
