package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/csexpert/csexpert/internal/conversation"
	"github.com/csexpert/csexpert/internal/router"
)

func TestPutAndGet(t *testing.T) {
	c, err := New(10, time.Hour)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	key := Key("what is DIT199?", router.Filters{}, nil)
	c.Put(key, Entry{Answer: "DIT199 is Advanced Databases.", TopCourses: []string{"DIT199"}})

	e, ok := c.Get(key)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if e.Answer != "DIT199 is Advanced Databases." {
		t.Errorf("answer = %q", e.Answer)
	}
	if e.StoredAt.IsZero() {
		t.Error("StoredAt must be stamped on Put")
	}
}

func TestGetMiss(t *testing.T) {
	c, err := New(10, time.Hour)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, ok := c.Get("absent"); ok {
		t.Error("expected miss for absent key")
	}
}

func TestTTLExpiry(t *testing.T) {
	now := time.Unix(1700000000, 0)
	clock := func() time.Time { return now }

	c, err := New(10, time.Hour, WithClock(clock))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	key := Key("question", router.Filters{}, nil)
	c.Put(key, Entry{Answer: "answer"})

	// Just inside the TTL.
	now = now.Add(time.Hour - time.Second)
	if _, ok := c.Get(key); !ok {
		t.Fatal("entry expired too early")
	}

	// At the TTL boundary the entry is gone.
	now = now.Add(time.Second)
	if _, ok := c.Get(key); ok {
		t.Fatal("entry should have expired")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry not removed, len = %d", c.Len())
	}
}

func TestLRUEviction(t *testing.T) {
	c, err := New(3, time.Hour)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	for i := 0; i < 4; i++ {
		c.Put(fmt.Sprintf("key%d", i), Entry{Answer: fmt.Sprintf("a%d", i)})
	}

	if c.Len() != 3 {
		t.Fatalf("len = %d, want 3", c.Len())
	}
	if _, ok := c.Get("key0"); ok {
		t.Error("oldest entry should have been evicted")
	}
	if _, ok := c.Get("key3"); !ok {
		t.Error("newest entry should be present")
	}
}

func TestKeyNormalizesQuestion(t *testing.T) {
	a := Key("What is DIT199?", router.Filters{}, nil)
	b := Key("  what   is dit199?  ", router.Filters{}, nil)
	if a != b {
		t.Error("case and whitespace must not change the key")
	}
}

func TestKeyDependsOnFilters(t *testing.T) {
	a := Key("courses", router.Filters{}, nil)
	b := Key("courses", router.Filters{ProgramCode: "N2COS"}, nil)
	if a == b {
		t.Error("filters must change the key")
	}

	c := Key("courses", router.Filters{HasTuition: true}, nil)
	if a == c {
		t.Error("tuition filter must change the key")
	}
}

func TestKeyDependsOnRecentHistory(t *testing.T) {
	empty := Key("what about its prerequisites?", router.Filters{}, nil)

	withHistory := Key("what about its prerequisites?", router.Filters{}, []conversation.Turn{
		{Sender: conversation.SenderUser, Content: "tell me about DIT199"},
		{Sender: conversation.SenderAssistant, Content: "...", TopCourses: []string{"DIT199"}},
	})
	if empty == withHistory {
		t.Error("recent history must change the key")
	}

	otherCourse := Key("what about its prerequisites?", router.Filters{}, []conversation.Turn{
		{Sender: conversation.SenderUser, Content: "tell me about TIA102"},
		{Sender: conversation.SenderAssistant, Content: "...", TopCourses: []string{"TIA102"}},
	})
	if withHistory == otherCourse {
		t.Error("different discussed courses must produce different keys")
	}
}

func TestKeyIgnoresOldHistory(t *testing.T) {
	recent := []conversation.Turn{
		{Sender: conversation.SenderUser, Content: "tell me about DIT199"},
		{Sender: conversation.SenderAssistant, Content: "...", TopCourses: []string{"DIT199"}},
	}
	longAgo := append([]conversation.Turn{
		{Sender: conversation.SenderUser, Content: "something unrelated years ago"},
		{Sender: conversation.SenderAssistant, Content: "...", TopCourses: []string{"MSG900"}},
	}, recent...)

	if Key("q", router.Filters{}, recent) != Key("q", router.Filters{}, longAgo) {
		t.Error("history beyond the recent window must not change the key")
	}
}
