package memory

import (
	"errors"
	"sync"
	"testing"

	"github.com/SurajNatekar28/token-trading-table/internal/domain"
	"github.com/SurajNatekar28/token-trading-table/internal/storage"
)

func tok(id string, c domain.Category) domain.Token {
	return domain.Token{ID: id, Chain: domain.ChainSOL, Category: c, Price: 1}
}

func TestWorkingSet_ReplaceAndAll(t *testing.T) {
	ws := NewWorkingSet()

	err := ws.Replace([]domain.Token{
		tok("sol-1", domain.CategoryNew),
		tok("sol-2", domain.CategoryMigrated),
	})
	if err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	all := ws.All()
	if len(all) != 2 {
		t.Fatalf("expected 2 tokens, got %d", len(all))
	}
	if all[0].ID != "sol-1" || all[1].ID != "sol-2" {
		t.Errorf("order mismatch: %s, %s", all[0].ID, all[1].ID)
	}

	// Replace drops previous contents.
	if err := ws.Replace([]domain.Token{tok("bnb-1", domain.CategoryNew)}); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	if ws.Len() != 1 {
		t.Errorf("expected 1 token after replace, got %d", ws.Len())
	}
	if _, err := ws.Get("sol-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound for old token, got %v", err)
	}
}

func TestWorkingSet_ReplaceDuplicate(t *testing.T) {
	ws := NewWorkingSet()
	_ = ws.Replace([]domain.Token{tok("sol-9", domain.CategoryNew)})

	err := ws.Replace([]domain.Token{
		tok("sol-1", domain.CategoryNew),
		tok("sol-1", domain.CategoryNew),
	})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}

	// Unchanged on failure.
	if _, err := ws.Get("sol-9"); err != nil {
		t.Errorf("previous contents lost: %v", err)
	}
}

func TestWorkingSet_Prepend(t *testing.T) {
	ws := NewWorkingSet()
	_ = ws.Replace([]domain.Token{tok("sol-1", domain.CategoryNew)})

	if err := ws.Prepend(tok("sol-2", domain.CategoryNew)); err != nil {
		t.Fatalf("Prepend failed: %v", err)
	}
	if got := ws.All()[0].ID; got != "sol-2" {
		t.Errorf("expected sol-2 first, got %s", got)
	}

	if err := ws.Prepend(tok("sol-1", domain.CategoryNew)); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
	if err := ws.Prepend(domain.Token{}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestWorkingSet_UpdateAndCopies(t *testing.T) {
	ws := NewWorkingSet()
	_ = ws.Replace([]domain.Token{tok("sol-1", domain.CategoryNew)})

	err := ws.Update("sol-1", func(t *domain.Token) {
		t.Price = 2.5
		t.ID = "hijack"
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := ws.Get("sol-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Price != 2.5 {
		t.Errorf("price not updated: %v", got.Price)
	}

	// Mutating a returned copy does not touch the store.
	got.Price = 100
	all := ws.All()
	all[0].Price = 100
	again, _ := ws.Get("sol-1")
	if again.Price != 2.5 {
		t.Errorf("store mutated through copy: %v", again.Price)
	}

	if err := ws.Update("sol-404", func(*domain.Token) {}); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestWorkingSet_Map(t *testing.T) {
	ws := NewWorkingSet()
	_ = ws.Replace([]domain.Token{
		tok("sol-1", domain.CategoryNew),
		tok("sol-2", domain.CategoryNew),
	})

	ws.Map(func(t domain.Token) domain.Token {
		t.Txns += 3
		return t
	})

	for _, tk := range ws.All() {
		if tk.Txns != 3 {
			t.Errorf("%s: expected txns 3, got %d", tk.ID, tk.Txns)
		}
	}
}

func TestWorkingSet_EvictCategory(t *testing.T) {
	ws := NewWorkingSet()
	_ = ws.Replace([]domain.Token{
		tok("sol-5", domain.CategoryNew),
		tok("sol-4", domain.CategoryMigrated),
		tok("sol-3", domain.CategoryNew),
		tok("sol-2", domain.CategoryNew),
		tok("sol-1", domain.CategoryNew),
	})

	evicted := ws.EvictCategory(domain.CategoryNew, 2)
	if len(evicted) != 2 || evicted[0] != "sol-2" || evicted[1] != "sol-1" {
		t.Fatalf("unexpected evictions: %v", evicted)
	}

	all := ws.All()
	want := []string{"sol-5", "sol-4", "sol-3"}
	if len(all) != len(want) {
		t.Fatalf("expected %d tokens, got %d", len(want), len(all))
	}
	for i, id := range want {
		if all[i].ID != id {
			t.Errorf("position %d: got %s, want %s", i, all[i].ID, id)
		}
	}

	// Evicted ids may be reused.
	if err := ws.Prepend(tok("sol-1", domain.CategoryNew)); err != nil {
		t.Errorf("Prepend after evict failed: %v", err)
	}
}

func TestWorkingSet_ConcurrentReads(t *testing.T) {
	ws := NewWorkingSet()
	_ = ws.Replace([]domain.Token{tok("sol-1", domain.CategoryNew)})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = ws.All()
				_, _ = ws.Get("sol-1")
			}
		}()
	}
	for j := 0; j < 100; j++ {
		_ = ws.Update("sol-1", func(t *domain.Token) { t.Txns++ })
	}
	wg.Wait()

	got, _ := ws.Get("sol-1")
	if got.Txns != 100 {
		t.Errorf("expected 100 txns, got %d", got.Txns)
	}
}
