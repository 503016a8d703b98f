package session

import (
	"errors"
	"sync"
	"testing"
)

func TestCreateDefaults(t *testing.T) {
	store := NewMemoryStore()
	s, err := store.Create(42)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if s.UserID != 42 || s.ImageSize != DefaultImageSize || s.ImageSeed != DefaultImageSeed || s.Pending != Idle {
		t.Fatalf("unexpected defaults: %+v", s)
	}
	if _, err := store.Create(42); !errors.Is(err, ErrDuplicateSession) {
		t.Fatalf("expected ErrDuplicateSession, got %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 session, got %d", store.Len())
	}
}

func TestGetUnknown(t *testing.T) {
	store := NewMemoryStore()
	if _, err := store.Get(7); !errors.Is(err, ErrUnknownSession) {
		t.Fatalf("expected ErrUnknownSession, got %v", err)
	}
	if _, err := store.Update(7, func(s *Session) error { return nil }); !errors.Is(err, ErrUnknownSession) {
		t.Fatalf("expected ErrUnknownSession on update, got %v", err)
	}
}

func TestUpdateDiscardsOnError(t *testing.T) {
	store := NewMemoryStore()
	if _, err := store.Create(1); err != nil {
		t.Fatalf("create: %v", err)
	}
	boom := errors.New("boom")
	_, err := store.Update(1, func(s *Session) error {
		s.ImageSize = 512
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected mutator error, got %v", err)
	}
	got, _ := store.Get(1)
	if got.ImageSize != DefaultImageSize {
		t.Fatalf("failed mutation leaked: %+v", got)
	}
}

func TestUpdateRejectsInvalidState(t *testing.T) {
	store := NewMemoryStore()
	if _, err := store.Create(1); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.Update(1, func(s *Session) error {
		s.ImageSize = 0
		return nil
	}); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession for size 0, got %v", err)
	}
	if _, err := store.Update(1, func(s *Session) error {
		s.Pending = PendingOperation(99)
		return nil
	}); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession for bad pending, got %v", err)
	}
	if _, err := store.Update(1, func(s *Session) error {
		s.UserID = 2
		return nil
	}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := store.Get(1)
	if got.UserID != 1 {
		t.Fatalf("user id must be immutable, got %d", got.UserID)
	}
}

func TestConcurrentUpdatesAreAtomic(t *testing.T) {
	store := NewMemoryStore()
	if _, err := store.Create(1); err != nil {
		t.Fatalf("create: %v", err)
	}
	const n = 100
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, _ = store.Update(1, func(s *Session) error {
				s.ImageSize++
				return nil
			})
		}()
	}
	wg.Wait()
	got, _ := store.Get(1)
	if got.ImageSize != DefaultImageSize+n {
		t.Fatalf("lost updates: size=%d", got.ImageSize)
	}
}

func TestPendingOperationString(t *testing.T) {
	cases := map[PendingOperation]string{
		Idle:                "idle",
		AwaitingSize:        "awaiting_size",
		AwaitingSeed:        "awaiting_seed",
		AwaitingStyleChoice: "awaiting_style_choice",
	}
	for op, want := range cases {
		if op.String() != want {
			t.Fatalf("%d: got %q want %q", int(op), op.String(), want)
		}
		if !op.Valid() {
			t.Fatalf("%s should be valid", want)
		}
	}
	if PendingOperation(-1).Valid() {
		t.Fatal("negative operation must be invalid")
	}
}
