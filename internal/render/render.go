// Package render formats command output as text or JSON.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"seteuk/internal/domain"
)

// Format selects the output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatText, FormatJSON:
		return Format(s), nil
	}
	return "", fmt.Errorf("unknown format %q (want text or json)", s)
}

const questionWidth = 40

// Printer writes results to w.
type Printer struct {
	w      io.Writer
	format Format
}

// NewPrinter returns a Printer. An empty format means text.
func NewPrinter(w io.Writer, format Format) *Printer {
	if format == "" {
		format = FormatText
	}
	return &Printer{w: w, format: format}
}

func (p *Printer) json(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// Message prints a one-line notice. JSON mode wraps it in {"message": ...}.
func (p *Printer) Message(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if p.format == FormatJSON {
		return p.json(map[string]string{"message": msg})
	}
	_, err := fmt.Fprintln(p.w, msg)
	return err
}

// User prints a profile.
func (p *Printer) User(u domain.User) error {
	if p.format == FormatJSON {
		return p.json(u)
	}
	_, err := fmt.Fprintf(p.w, "%s <%s> (id %d, joined %s)\n", u.Name, u.Email, u.ID, u.CreatedAt)
	return err
}

// Status describes the stored session without revealing the token.
type Status struct {
	Authenticated  bool         `json:"authenticated"`
	User           *domain.User `json:"user"`
	Store          string       `json:"store"`
	Namespace      string       `json:"namespace"`
	TokenExpiresAt *time.Time   `json:"token_expires_at,omitempty"`
}

// Status prints the session status.
func (p *Printer) Status(s Status) error {
	if p.format == FormatJSON {
		return p.json(s)
	}
	if !s.Authenticated {
		_, err := fmt.Fprintf(p.w, "not logged in (store %s, namespace %s)\n", s.Store, s.Namespace)
		return err
	}
	if _, err := fmt.Fprintf(p.w, "logged in as %s <%s> (store %s, namespace %s)\n",
		s.User.Name, s.User.Email, s.Store, s.Namespace); err != nil {
		return err
	}
	if s.TokenExpiresAt != nil {
		_, err := fmt.Fprintf(p.w, "token expires %s\n", s.TokenExpiresAt.Format(time.RFC3339))
		return err
	}
	return nil
}

// Subjects prints the subject list, one per line.
func (p *Printer) Subjects(subjects []string, fallback bool) error {
	if p.format == FormatJSON {
		return p.json(struct {
			Subjects []string `json:"subjects"`
			Builtin  bool     `json:"builtin"`
		}{subjects, fallback})
	}
	if fallback {
		if _, err := fmt.Fprintln(p.w, "(backend unreachable, showing built-in list)"); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(p.w, strings.Join(subjects, "\n"))
	return err
}

// Entry prints one question and its answer.
func (p *Printer) Entry(e domain.ChatEntry) error {
	if p.format == FormatJSON {
		return p.json(e)
	}
	_, err := fmt.Fprintf(p.w, "[%s] #%d  %s\nQ: %s\n\n%s\n", e.Subject, e.ID, e.CreatedAt, e.Question, e.Answer)
	return err
}

// History prints one page of history as a table.
func (p *Printer) History(page domain.HistoryPage, q domain.HistoryQuery) error {
	if p.format == FormatJSON {
		return p.json(page)
	}
	if len(page.Histories) == 0 {
		_, err := fmt.Fprintln(p.w, "no history")
		return err
	}

	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSUBJECT\tCREATED\tQUESTION")
	for _, e := range page.Histories {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", e.ID, e.Subject, e.CreatedAt, truncate(oneLine(e.Question), questionWidth))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(p.w, "showing %d-%d of %d\n", q.Skip+1, q.Skip+len(page.Histories), page.Total)
	return err
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// Format reports the printer's output format.
func (p *Printer) Format() Format {
	return p.format
}
