package env

import "testing"

func TestGetFallsBackWhenUnset(t *testing.T) {
	t.Setenv("KITCHENPOS_TEST_VALUE", "")
	if got := Get("KITCHENPOS_TEST_VALUE", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
	t.Setenv("KITCHENPOS_TEST_VALUE", "set")
	if got := Get("KITCHENPOS_TEST_VALUE", "fallback"); got != "set" {
		t.Fatalf("expected set, got %q", got)
	}
}

func TestBool(t *testing.T) {
	t.Setenv("KITCHENPOS_TEST_FLAG", "true")
	if !Bool("KITCHENPOS_TEST_FLAG", false) {
		t.Fatalf("expected true")
	}
	t.Setenv("KITCHENPOS_TEST_FLAG", "nope")
	if Bool("KITCHENPOS_TEST_FLAG", false) {
		t.Fatalf("malformed value should use fallback")
	}
}
