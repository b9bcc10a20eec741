// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package notes

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/jllopis/agentcore/pkg/errors"
)

// storeContract runs the behaviour every Store backend must satisfy.
func storeContract(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("unknown id is empty", func(t *testing.T) {
		got, err := store.Notes(ctx, "PROP-UNKNOWN")
		if err != nil {
			t.Fatalf("notes: %v", err)
		}
		if got == nil || len(got) != 0 {
			t.Fatalf("expected empty non-nil slice, got %#v", got)
		}
	})

	t.Run("sequential appends keep order", func(t *testing.T) {
		for i := 1; i <= 3; i++ {
			total, err := store.AddNote(ctx, "PROP-SEQ", fmt.Sprintf("note %d", i))
			if err != nil {
				t.Fatalf("add note: %v", err)
			}
			if total != i {
				t.Fatalf("expected total %d, got %d", i, total)
			}
		}
		got, err := store.Notes(ctx, "PROP-SEQ")
		if err != nil {
			t.Fatalf("notes: %v", err)
		}
		want := []string{"note 1", "note 2", "note 3"}
		if fmt.Sprint(got) != fmt.Sprint(want) {
			t.Fatalf("expected %v, got %v", want, got)
		}
	})

	t.Run("concurrent appends lose nothing", func(t *testing.T) {
		const n = 50
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				if _, err := store.AddNote(ctx, "PROP-CONC", fmt.Sprintf("n%d", i)); err != nil {
					t.Errorf("add note: %v", err)
				}
			}(i)
		}
		wg.Wait()
		got, err := store.Notes(ctx, "PROP-CONC")
		if err != nil {
			t.Fatalf("notes: %v", err)
		}
		if len(got) != n {
			t.Fatalf("expected %d notes, got %d", n, len(got))
		}
	})

	t.Run("rejects empty values", func(t *testing.T) {
		if _, err := store.AddNote(ctx, " ", "x"); !errors.Is(err, errors.CodeInvalidInput) {
			t.Fatalf("expected INVALID_INPUT for empty id, got %v", err)
		}
		if _, err := store.AddNote(ctx, "PROP-1", ""); !errors.Is(err, errors.CodeInvalidInput) {
			t.Fatalf("expected INVALID_INPUT for empty note, got %v", err)
		}
	})

	t.Run("clear", func(t *testing.T) {
		if err := store.Clear(ctx); err != nil {
			t.Fatalf("clear: %v", err)
		}
		got, _ := store.Notes(ctx, "PROP-SEQ")
		if len(got) != 0 {
			t.Fatalf("expected no notes after clear, got %v", got)
		}
	})
}

func TestInMemoryStore(t *testing.T) {
	storeContract(t, NewInMemory())
}

func TestInMemoryNotesReturnsCopy(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()
	_, _ = store.AddNote(ctx, "PROP-1", "original")
	got, _ := store.Notes(ctx, "PROP-1")
	got[0] = "mutated"
	again, _ := store.Notes(ctx, "PROP-1")
	if again[0] != "original" {
		t.Fatalf("store was mutated through returned slice: %v", again)
	}
}

func TestRedisStore(t *testing.T) {
	url := os.Getenv("AGENTCORE_TEST_REDIS_URL")
	if url == "" {
		t.Skip("AGENTCORE_TEST_REDIS_URL not set")
	}
	store, err := OpenRedis(url, WithKeyPrefix(fmt.Sprintf("agentcore:test:%s:", t.Name())))
	if err != nil {
		t.Fatalf("open redis: %v", err)
	}
	defer store.Close()
	ctx := context.Background()
	if err := store.Ping(ctx); err != nil {
		t.Skipf("redis not reachable: %v", err)
	}
	_ = store.Clear(ctx)
	storeContract(t, store)
}

func TestOpenRedisInvalidURL(t *testing.T) {
	if _, err := OpenRedis("not-a-url://"); !errors.Is(err, errors.CodeStoreError) {
		t.Fatalf("expected STORE_ERROR, got %v", err)
	}
}
