package relevance

import (
	"errors"
	"testing"

	"DesignCatalog/internal/domain"
)

type stubDetector struct {
	code  string
	err   error
	panic bool
}

func (s stubDetector) Detect(string) (string, error) {
	if s.panic {
		panic("detector exploded")
	}
	return s.code, s.err
}

func TestVerifyTrustsDetector(t *testing.T) {
	t.Parallel()

	verifier := NewLanguageVerifier(stubDetector{code: "por"}, nil)
	if got := verifier.Verify("Qualquer coisa"); got != domain.LanguagePortuguese {
		t.Fatalf("expected %s, got %s", domain.LanguagePortuguese, got)
	}
}

func TestVerifyFallsBackOnFailure(t *testing.T) {
	t.Parallel()

	detectors := map[string]stubDetector{
		"error":   {err: errors.New("boom")},
		"panic":   {panic: true},
		"english": {code: "eng"},
	}
	for name, detector := range detectors {
		verifier := NewLanguageVerifier(detector, nil)
		if got := verifier.Verify("A experiência do usuário em portais"); got != domain.LanguagePortuguese {
			t.Fatalf("%s: expected fallback to detect Portuguese, got %s", name, got)
		}
		if got := verifier.Verify("Medieval pottery techniques in northern Europe"); got != domain.LanguageUnverified {
			t.Fatalf("%s: expected unverified, got %s", name, got)
		}
	}
}

func TestCountPortugueseMarkers(t *testing.T) {
	t.Parallel()

	cases := map[string]int{
		"":                          0,
		"Usabilidade":               1,
		"Não é sempre assim":        3,
		"Interface gráfica digital": 2,
		"Northern pottery":          0,
		"Por que usar personas":     2,
		"Porque sim":                2,
	}
	for title, want := range cases {
		if got := CountPortugueseMarkers(title); got != want {
			t.Fatalf("title %q: expected %d markers, got %d", title, want, got)
		}
	}
}
