package scanner

import (
	"context"
	"testing"

	"DesignCatalog/internal/domain"
)

type namedAdapter string

func (n namedAdapter) Name() string { return string(n) }

func (n namedAdapter) Search(context.Context, string, int) ([]domain.RawRecord, error) {
	return nil, nil
}

func TestRegistryResolve(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Register(namedAdapter("triades"))
	reg.Register(namedAdapter("infodesign"))

	if _, err := reg.Resolve("triades"); err != nil {
		t.Fatalf("resolve registered adapter: %v", err)
	}
	if _, err := reg.Resolve("missing"); err == nil {
		t.Fatal("expected error for unknown adapter")
	}
	names := reg.Names()
	if len(names) != 2 || names[0] != "infodesign" {
		t.Fatalf("unexpected names %v", names)
	}
}
