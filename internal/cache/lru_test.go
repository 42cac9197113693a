package cache

import "testing"

func TestLRUEvictsOldest(t *testing.T) {
	c := New(2)
	c.Add("a", 1)
	c.Add("b", 2)
	c.Add("c", 3) // evicts "a"

	if _, ok := c.Get("a"); ok {
		t.Error("a should have been evicted")
	}
	if v, ok := c.Get("b"); !ok || v.(int) != 2 {
		t.Errorf("b = %v, %v", v, ok)
	}
	if c.Len() != 2 {
		t.Errorf("len = %d", c.Len())
	}
}

func TestLRUGetRefreshesRecency(t *testing.T) {
	c := New(2)
	c.Add("a", 1)
	c.Add("b", 2)
	c.Get("a")    // "a" is now MRU
	c.Add("c", 3) // evicts "b"

	if _, ok := c.Get("a"); !ok {
		t.Error("a should survive")
	}
	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
}

func TestLRURemove(t *testing.T) {
	c := New(2)
	c.Add("a", 1)
	c.Remove("a")
	c.Remove("missing") // no-op

	if _, ok := c.Get("a"); ok {
		t.Error("a should be gone")
	}
	if c.Len() != 0 {
		t.Errorf("len = %d", c.Len())
	}
}
