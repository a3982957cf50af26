package types

import (
	"testing"
	"time"
)

func TestTimeframeDuration(t *testing.T) {
	cases := []struct {
		tf   string
		want time.Duration
	}{
		{"1m", time.Minute},
		{"5m", 5 * time.Minute},
		{"30m", 30 * time.Minute},
		{"1h", time.Hour},
		{"4h", 4 * time.Hour},
		{"1d", 24 * time.Hour},
	}
	for _, c := range cases {
		got, err := TimeframeDuration(c.tf)
		if err != nil {
			t.Fatalf("TimeframeDuration(%q): %v", c.tf, err)
		}
		if got != c.want {
			t.Errorf("TimeframeDuration(%q) = %v, want %v", c.tf, got, c.want)
		}
	}
}

func TestTimeframeDurationInvalid(t *testing.T) {
	for _, tf := range []string{"", "m", "5x", "0m", "-1h", "abc"} {
		if _, err := TimeframeDuration(tf); err == nil {
			t.Errorf("TimeframeDuration(%q): expected error", tf)
		}
	}
}

func TestBucketStart(t *testing.T) {
	tf := 5 * time.Minute
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC).UnixMilli()
	inside := base + 3*time.Minute.Milliseconds()

	if got := BucketStart(inside, tf); got != base {
		t.Errorf("BucketStart = %d, want %d", got, base)
	}
	if got := BucketStart(base, tf); got != base {
		t.Errorf("BucketStart on boundary = %d, want %d", got, base)
	}
}
