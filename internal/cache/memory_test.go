package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemory_SetGet(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()

	if err := c.Set(ctx, "schema:pacs.008.001.08", []byte(`{"a":1}`), 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	value, ok, err := c.Get(ctx, "schema:pacs.008.001.08")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected hit")
	}
	if string(value) != `{"a":1}` {
		t.Errorf("unexpected value: %s", value)
	}

	// Промах — не ошибка
	_, ok, err = c.Get(ctx, "missing")
	if err != nil || ok {
		t.Errorf("miss should be (nil, false, nil), got ok=%v err=%v", ok, err)
	}
}

func TestMemory_TTLExpiry(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()

	c.Set(ctx, "k", []byte("v"), 10*time.Millisecond)

	if _, ok, _ := c.Get(ctx, "k"); !ok {
		t.Fatal("expected hit before expiry")
	}

	time.Sleep(20 * time.Millisecond)

	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Error("expected miss after expiry")
	}
}

func TestMemory_Del(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()

	c.Set(ctx, "k", []byte("v"), 0)
	if err := c.Del(ctx, "k"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Error("expected miss after delete")
	}

	// Повторное удаление — не ошибка
	if err := c.Del(ctx, "k"); err != nil {
		t.Errorf("deleting missing key should not fail: %v", err)
	}
}
