package generals

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/samber/lo"
)

func TestNewPool_DropsBlanksAndDuplicates(t *testing.T) {
	p := NewPool([]string{"caocao", "", "liubei", "caocao", "sunquan"})
	if p.Len() != 3 {
		t.Fatalf("len: got %d, want 3 (%v)", p.Len(), p.Names())
	}
}

func TestDefault_IsUnique(t *testing.T) {
	p := Default()
	if len(lo.Uniq(p.Names())) != p.Len() {
		t.Fatalf("default catalog has duplicates")
	}
	if p.Len() < 10 {
		t.Fatalf("default catalog too small for a draft: %d", p.Len())
	}
}

func TestRandom_ExcludesBannedAndIsUnique(t *testing.T) {
	p := Default()
	banned := []string{"caocao", "liubei", "sunquan", "lvbu"}
	rng := rand.New(rand.NewPCG(1, 2))

	for range 50 {
		got, err := p.Random(rng, 10, banned)
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
		if len(got) != 10 {
			t.Fatalf("len: got %d", len(got))
		}
		if len(lo.Uniq(got)) != 10 {
			t.Fatalf("duplicates in draw: %v", got)
		}
		if lo.Some(got, banned) {
			t.Fatalf("banned general drawn: %v", got)
		}
	}
}

func TestRandom_DoesNotReorderCatalog(t *testing.T) {
	p := NewPool([]string{"a", "b", "c", "d"})
	rng := rand.New(rand.NewPCG(7, 7))

	if _, err := p.Random(rng, 2, nil); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	names := p.Names()
	if names[0] != "a" || names[3] != "d" {
		t.Fatalf("catalog reordered: %v", names)
	}
}

func TestRandom_NotEnough(t *testing.T) {
	p := NewPool([]string{"a", "b", "c"})
	rng := rand.New(rand.NewPCG(1, 1))

	_, err := p.Random(rng, 3, []string{"b"})
	if !errors.Is(err, ErrNotEnoughGenerals) {
		t.Fatalf("want ErrNotEnoughGenerals, got %v", err)
	}
}
