package core

import "testing"

func TestNewHash(t *testing.T) {
	h := NewHash([]byte("abc"))
	if got, want := h.String(), "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"; got != want {
		t.Errorf("NewHash(abc) = %s, want %s", got, want)
	}
	if h.IsEmpty() {
		t.Error("hash should not be empty")
	}
	if !h.Equals(NewHash([]byte("abc"))) {
		t.Error("equal inputs should hash equally")
	}
}

func TestComputePriorHash(t *testing.T) {
	base := ComputePriorHash([]string{"a", "b"}, []float64{0.25, 0.75})

	if again := ComputePriorHash([]string{"a", "b"}, []float64{0.25, 0.75}); again != base {
		t.Error("fingerprint should be deterministic")
	}
	if swapped := ComputePriorHash([]string{"b", "a"}, []float64{0.75, 0.25}); swapped == base {
		t.Error("fingerprint should depend on order")
	}
	if reweighted := ComputePriorHash([]string{"a", "b"}, []float64{0.5, 0.5}); reweighted == base {
		t.Error("fingerprint should depend on probabilities")
	}
	if noise := ComputePriorHash([]string{"a", "b"}, []float64{0.25 + 1e-15, 0.75}); noise != base {
		t.Error("fingerprint should ignore rounding noise")
	}
}
