package collate

import "testing"

func TestComponentTableRegisterDedups(t *testing.T) {
	c := NewComponentTable(1)

	e1 := c.Register("nginx/nginx", "1.18.0", 5)
	e2 := c.Register("nginx/nginx", "1.18.0", 6)
	e3 := c.Register("nginx/nginx", "1.18.0", 5)

	if e1 != e2 || e2 != e3 {
		t.Fatal("Register() should return the same entry for the same (name, version)")
	}
	if c.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", c.Len())
	}
	if len(e1.Services) != 2 {
		t.Fatalf("Services = %v, want [5 6] (deduplicated)", e1.Services)
	}

	other := c.Register("openssh/openssh", "8.2", 9)
	if other.ID == e1.ID {
		t.Error("distinct (name, version) pairs must get distinct ids")
	}
	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}
}

func TestComponentTableAssignsMonotonicIDs(t *testing.T) {
	c := NewComponentTable(1)
	a := c.Register("a/a", "1", 1)
	b := c.Register("b/b", "1", 1)
	if b.ID != a.ID+1 {
		t.Errorf("b.ID = %d, want %d", b.ID, a.ID+1)
	}
}
