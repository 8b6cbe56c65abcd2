package credentials

import (
	"errors"
	"testing"

	"github.com/alanyoungcy/betgo/internal/domain"
)

func TestBestPrefersHighestKnownQuota(t *testing.T) {
	m := NewManager([]string{"key-a", "key-b", "key-c"})
	m.RecordUsage("key-a", 10)
	m.RecordUsage("key-b", 450)
	m.RecordUsage("key-c", 120)

	c, err := m.Best()
	if err != nil {
		t.Fatalf("Best: %v", err)
	}
	if c.Key != "key-b" {
		t.Errorf("Best = %q, want key-b", c.Key)
	}
}

func TestBestPrefersKnownOverUnknown(t *testing.T) {
	m := NewManager([]string{"key-a", "key-b"})
	m.RecordUsage("key-a", 5)

	c, err := m.Best()
	if err != nil {
		t.Fatalf("Best: %v", err)
	}
	if c.Key != "key-a" {
		t.Errorf("Best = %q, want the known key-a over unknown key-b", c.Key)
	}
}

func TestBestFallsBackToUnknownWhenKnownExhausted(t *testing.T) {
	m := NewManager([]string{"key-a", "key-b"})
	m.RecordUsage("key-a", 0)

	c, err := m.Best()
	if err != nil {
		t.Fatalf("Best: %v", err)
	}
	if c.Key != "key-b" {
		t.Errorf("Best = %q, want unknown key-b over exhausted key-a", c.Key)
	}
}

func TestBestAllExhausted(t *testing.T) {
	m := NewManager([]string{"key-a", "key-b"})
	m.RecordUsage("key-a", 0)
	m.RecordUsage("key-b", 0)

	if _, err := m.Best(); !errors.Is(err, domain.ErrNoCredential) {
		t.Fatalf("Best err = %v, want ErrNoCredential", err)
	}
}

func TestBestNoCredentials(t *testing.T) {
	m := NewManager([]string{"", "  "})
	if _, err := m.Best(); !errors.Is(err, domain.ErrNoCredential) {
		t.Fatalf("Best err = %v, want ErrNoCredential", err)
	}
}

func TestRecordUsageOverwrites(t *testing.T) {
	m := NewManager([]string{"key-a"})
	m.RecordUsage("key-a", 100)
	m.RecordUsage("key-a", 40)
	// Out-of-order updates are accepted verbatim.
	m.RecordUsage("key-a", 60)

	c, err := m.Best()
	if err != nil {
		t.Fatalf("Best: %v", err)
	}
	if c.Remaining == nil || *c.Remaining != 60 {
		t.Errorf("Remaining = %v, want 60", c.Remaining)
	}
}

func TestRecordUsageUnknownKeyIgnored(t *testing.T) {
	m := NewManager([]string{"key-a"})
	m.RecordUsage("other", 5)
	if m.Count() != 1 {
		t.Fatalf("Count = %d, want 1", m.Count())
	}

	c, err := m.Best()
	if err != nil {
		t.Fatalf("Best: %v", err)
	}
	if c.Remaining != nil {
		t.Errorf("Remaining = %v, want unknown", *c.Remaining)
	}
}

func TestMaskKey(t *testing.T) {
	if got := MaskKey("0123456789abcdef"); got != "0123...cdef" {
		t.Errorf("MaskKey = %q, want 0123...cdef", got)
	}
	if got := MaskKey("tiny"); got != "****" {
		t.Errorf("MaskKey short = %q, want ****", got)
	}
}

func TestStatsMasksKeys(t *testing.T) {
	m := NewManager([]string{"0123456789abcdef", "short"})
	m.RecordUsage("0123456789abcdef", 42)

	stats := m.Stats()
	if len(stats) != 2 {
		t.Fatalf("Stats len = %d, want 2", len(stats))
	}
	if stats[0].Key != "0123...cdef" {
		t.Errorf("masked key = %q, want 0123...cdef", stats[0].Key)
	}
	if stats[1].Key != "*****" {
		t.Errorf("masked short key = %q, want *****", stats[1].Key)
	}
	if stats[0].Remaining == nil || *stats[0].Remaining != 42 {
		t.Errorf("Remaining = %v, want 42", stats[0].Remaining)
	}
	if stats[1].LastUsed != nil {
		t.Errorf("LastUsed for unused key = %v, want nil", stats[1].LastUsed)
	}
}
