package domain_test

import (
	"slices"
	"testing"

	"seteuk/internal/domain"

	"golang.org/x/text/unicode/norm"
)

func TestNormalizeSubject(t *testing.T) {
	decomposed := norm.NFD.String("국어")
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already canonical", "국어", "국어"},
		{"surrounding space", "  수학I\t", "수학I"},
		{"decomposed jamo", decomposed, "국어"},
		{"empty", "", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := domain.NormalizeSubject(tc.in)
			if got != tc.want {
				t.Errorf("NormalizeSubject(%q) = %q; want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestIsKnownSubject(t *testing.T) {
	if !domain.IsKnownSubject(norm.NFD.String("미적분")) {
		t.Error("expected decomposed 미적분 to be known")
	}
	if domain.IsKnownSubject("연금술") {
		t.Error("expected 연금술 to be unknown")
	}
}

func TestSubjectsSortedCopy(t *testing.T) {
	got := domain.Subjects()
	if len(got) != 57 {
		t.Fatalf("expected 57 subjects, got %d", len(got))
	}
	if !slices.IsSorted(got) {
		t.Error("expected sorted subjects")
	}
	got[0] = "changed"
	if domain.Subjects()[0] == "changed" {
		t.Error("Subjects must return a copy")
	}
	if domain.DefaultSubject() != "국어" {
		t.Errorf("expected default 국어, got %q", domain.DefaultSubject())
	}
}

func TestHistoryQueryNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   domain.HistoryQuery
		want domain.HistoryQuery
	}{
		{"defaults", domain.HistoryQuery{}, domain.HistoryQuery{Limit: 50}},
		{"negative skip", domain.HistoryQuery{Skip: -3, Limit: 10}, domain.HistoryQuery{Limit: 10}},
		{"limit clamp", domain.HistoryQuery{Skip: 5, Limit: 500}, domain.HistoryQuery{Skip: 5, Limit: 100}},
		{"subject trimmed", domain.HistoryQuery{Limit: 1, Subject: " 영어 "}, domain.HistoryQuery{Limit: 1, Subject: "영어"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.in.Normalize(); got != tc.want {
				t.Errorf("Normalize() = %+v; want %+v", got, tc.want)
			}
		})
	}
}
