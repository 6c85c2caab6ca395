package env

import "testing"

func TestGetFallsBackWhenBlank(t *testing.T) {
	t.Setenv("GOLDBUY_TEST_VALUE", "   ")
	if got := Get("GOLDBUY_TEST_VALUE", "json"); got != "json" {
		t.Fatalf("expected fallback, got %q", got)
	}
	t.Setenv("GOLDBUY_TEST_VALUE", " console ")
	if got := Get("GOLDBUY_TEST_VALUE", "json"); got != "console" {
		t.Fatalf("expected trimmed value, got %q", got)
	}
}

func TestBool(t *testing.T) {
	t.Setenv("GOLDBUY_TEST_FLAG", "true")
	if !Bool("GOLDBUY_TEST_FLAG", false) {
		t.Fatalf("expected true")
	}
	t.Setenv("GOLDBUY_TEST_FLAG", "nope")
	if !Bool("GOLDBUY_TEST_FLAG", true) {
		t.Fatalf("malformed values should use the fallback")
	}
}
