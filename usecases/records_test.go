package usecases

import (
	"encoding/json"
	"errors"
	"testing"

	"sprinklex-server/repositories"
)

func TestRecords(t *testing.T) {
	uc := NewRecordsUseCase(repositories.NewMemoryStores().Records)

	if _, err := uc.Put("u1", "lands", json.RawMessage(`[{"name":"north"}]`)); err != nil {
		t.Fatal(err)
	}
	if _, err := uc.Put("u1", "lands", json.RawMessage(`[{"name":"south"}]`)); err != nil {
		t.Fatal(err)
	}
	rec, err := uc.Get("u1", "lands")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Value != `[{"name":"south"}]` {
		t.Errorf("expected last write to win, got %s", rec.Value)
	}

	if _, err := uc.Put("u1", "lands", json.RawMessage(`{broken`)); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("expected ErrInvalidValue, got %v", err)
	}
	if _, err := uc.Put("u1", "passwords", json.RawMessage(`1`)); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("expected ErrUnknownKey, got %v", err)
	}
	if _, err := uc.Get("u2", "lands"); !errors.Is(err, repositories.ErrNotFound) {
		t.Errorf("expected owners to be isolated, got %v", err)
	}

	if err := uc.Delete("u1", "lands"); err != nil {
		t.Fatal(err)
	}
	if err := uc.Delete("u1", "lands"); err != nil {
		t.Errorf("expected repeated delete to succeed, got %v", err)
	}
	recs, _ := uc.List("u1")
	if len(recs) != 0 {
		t.Errorf("expected no records, got %+v", recs)
	}
}
