package version

import "testing"

func TestString(t *testing.T) {
	oldV, oldC, oldB := Version, Commit, BuildTime
	t.Cleanup(func() { Version, Commit, BuildTime = oldV, oldC, oldB })

	Version, Commit, BuildTime = "1.2.0", "abc123", "2024-01-01T00:00:00Z"

	if got, want := String(), "1.2.0 (abc123) built 2024-01-01T00:00:00Z"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if got := Get(); got.Commit != "abc123" || got.Version != "1.2.0" {
		t.Errorf("Get() = %+v", got)
	}
}
