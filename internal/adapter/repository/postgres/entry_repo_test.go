package postgres

import "testing"

func TestTextArrayCoalescesNil(t *testing.T) {
	got := textArray(nil)
	if got == nil {
		t.Fatal("nil slice passed through; it would encode as SQL NULL")
	}
	if len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}

	tags := []string{"food", "weekly"}
	if out := textArray(tags); len(out) != 2 || out[0] != "food" || out[1] != "weekly" {
		t.Errorf("tags = %v, want unchanged", out)
	}
}
