package config

import (
	"testing"
	"time"
)

func TestEnv_Get(t *testing.T) {
	t.Setenv("RETRY_MAX_ATTEMPTS", "5")

	v, ok := Env{}.Get("retry.max_attempts")
	if !ok || v != "5" {
		t.Errorf("expected 5, got %q (ok=%v)", v, ok)
	}

	if _, ok := (Env{}).Get("no.such.key"); ok {
		t.Error("missing key must report absence, not a value")
	}

	// Пустое значение эквивалентно отсутствию
	t.Setenv("CACHE_TTL", "   ")
	if _, ok := (Env{}).Get("cache.ttl"); ok {
		t.Error("blank value must report absence")
	}
}

func TestTypedHelpers(t *testing.T) {
	p := Static{
		"retry.max_attempts": "7",
		"cache.ttl":          "15m",
		"bad.int":            "many",
		"bad.duration":       "soon",
	}

	if got := Int(p, "retry.max_attempts", 3); got != 7 {
		t.Errorf("Int: got %d", got)
	}
	if got := Int(p, "missing", 3); got != 3 {
		t.Errorf("Int default: got %d", got)
	}
	if got := Int(p, "bad.int", 3); got != 3 {
		t.Errorf("Int garbage: got %d", got)
	}

	if got := Duration(p, "cache.ttl", time.Hour); got != 15*time.Minute {
		t.Errorf("Duration: got %v", got)
	}
	if got := Duration(p, "bad.duration", time.Hour); got != time.Hour {
		t.Errorf("Duration garbage: got %v", got)
	}

	if got := MaxRetryAttempts(Static{}); got != DefaultMaxRetryAttempts {
		t.Errorf("MaxRetryAttempts default: got %d", got)
	}
}

func TestChainRef(t *testing.T) {
	p := Static{"chain.EUR": "sepa-instant", "chain.USD": "fedwire"}

	if ref, ok := ChainRef(p, "eur"); !ok || ref != "sepa-instant" {
		t.Errorf("expected sepa-instant, got %q (ok=%v)", ref, ok)
	}
	if _, ok := ChainRef(p, "GBP"); ok {
		t.Error("unmapped currency must report absence, not a default chain")
	}
}
