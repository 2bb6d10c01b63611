package testsupport

import "testing"

func TestRandomShowTitleDeterministic(t *testing.T) {
	first := RandomShowTitle(1)
	if first == "" {
		t.Fatal("empty title")
	}
	if again := RandomShowTitle(1); again != first {
		t.Fatalf("same seed produced %q then %q", first, again)
	}
}
