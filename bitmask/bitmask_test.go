package bitmask

import (
	"testing"
)

// =============================================================================
// Basic Tests
// =============================================================================

func TestMask_Create(t *testing.T) {
	tests := []struct {
		name  string
		size  int
		words int
	}{
		{"empty", 0, 0},
		{"single", 1, 1},
		{"one word", 64, 1},
		{"word plus one", 65, 2},
		{"grid 9x9", 81, 2},
		{"large", 10000, 157},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(tt.size)
			m.InitFalse()
			if m.Len() != tt.size {
				t.Errorf("Len() = %d, want %d", m.Len(), tt.size)
			}
			if len(m.words) != tt.words {
				t.Errorf("words = %d, want %d", len(m.words), tt.words)
			}
			if m.TrueCount() != 0 {
				t.Errorf("TrueCount() = %d after InitFalse", m.TrueCount())
			}
		})
	}
}

func TestMask_SetGet(t *testing.T) {
	m := New(130)
	m.InitFalse()

	for _, pos := range []int{0, 63, 64, 129} {
		m.SetTrue(pos)
		if !m.Get(pos) {
			t.Errorf("Get(%d) = false after SetTrue", pos)
		}
	}
	if m.TrueCount() != 4 {
		t.Errorf("TrueCount() = %d, want 4", m.TrueCount())
	}

	m.SetFalse(63)
	if m.Get(63) {
		t.Error("Get(63) = true after SetFalse")
	}
	if m.Get(62) {
		t.Error("Get(62) should not be affected")
	}

	m.Set(5, true)
	m.Set(0, false)
	if !m.Get(5) || m.Get(0) {
		t.Error("Set did not assign values")
	}
}

func TestMask_OutOfRangePanics(t *testing.T) {
	tests := []struct {
		name string
		fn   func(m *Mask)
	}{
		{"get negative", func(m *Mask) { m.Get(-1) }},
		{"get size", func(m *Mask) { m.Get(10) }},
		{"set true", func(m *Mask) { m.SetTrue(10) }},
		{"set false", func(m *Mask) { m.SetFalse(11) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			m := New(10)
			tt.fn(m)
		})
	}
}

func TestMask_SizeMismatchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on size mismatch")
		}
	}()
	New(10).And(New(11))
}

// =============================================================================
// Whole-mask Operations
// =============================================================================

func TestMask_InitTrueKeepsTailClear(t *testing.T) {
	m := New(70)
	m.InitTrue()

	if m.TrueCount() != 70 {
		t.Errorf("TrueCount() = %d, want 70", m.TrueCount())
	}
	if m.words[1]>>6 != 0 {
		t.Error("bits past Len must stay zero")
	}
}

func TestMask_Invert(t *testing.T) {
	m := New(100)
	m.InitFalse()
	m.SetTrue(3)
	m.SetTrue(99)
	m.Invert()

	if m.TrueCount() != 98 {
		t.Errorf("TrueCount() = %d, want 98", m.TrueCount())
	}
	if m.Get(3) || m.Get(99) {
		t.Error("inverted bits should be false")
	}
	if !m.Get(0) || !m.Get(98) {
		t.Error("inverted bits should be true")
	}
}

func TestMask_Logic(t *testing.T) {
	a := New(8)
	b := New(8)
	a.InitFalse()
	b.InitFalse()
	a.SetTrue(0)
	a.SetTrue(1)
	b.SetTrue(1)
	b.SetTrue(2)

	tests := []struct {
		name string
		op   func(m, o *Mask)
		want []bool
	}{
		{"and", (*Mask).And, []bool{false, true, false}},
		{"or", (*Mask).Or, []bool{true, true, true}},
		{"xor", (*Mask).Xor, []bool{true, false, true}},
		{"and not", (*Mask).AndNot, []bool{true, false, false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := a.Clone()
			tt.op(m, b)
			for pos, want := range tt.want {
				if got := m.Get(pos); got != want {
					t.Errorf("bit %d = %v, want %v", pos, got, want)
				}
			}
		})
	}
}

func TestMask_CopyCloneEqual(t *testing.T) {
	m := New(200)
	m.InitFalse()
	m.SetTrue(150)

	c := m.Clone()
	if !c.Equal(m) {
		t.Fatal("clone should equal original")
	}
	m.SetTrue(10)
	if c.Get(10) {
		t.Error("clone should not be affected by original")
	}
	if c.Equal(m) {
		t.Error("masks differ after mutation")
	}

	c.CopyFrom(m)
	if !c.Equal(m) {
		t.Error("CopyFrom should make masks equal")
	}
	if m.Equal(New(199)) {
		t.Error("different sizes are never equal")
	}
}

func TestMask_FirstCommonAndForEach(t *testing.T) {
	a := New(300)
	b := New(300)
	a.InitFalse()
	b.InitFalse()

	if got := a.FirstCommon(b); got != -1 {
		t.Errorf("FirstCommon() = %d, want -1", got)
	}

	a.SetTrue(70)
	a.SetTrue(250)
	b.SetTrue(250)
	if got := a.FirstCommon(b); got != 250 {
		t.Errorf("FirstCommon() = %d, want 250", got)
	}
	if !a.Intersects(b) {
		t.Error("Intersects() = false, want true")
	}

	var visited []int
	a.ForEach(func(pos int) { visited = append(visited, pos) })
	if len(visited) != 2 || visited[0] != 70 || visited[1] != 250 {
		t.Errorf("ForEach visited %v, want [70 250]", visited)
	}
}

// =============================================================================
// Benchmarks
// =============================================================================

func BenchmarkMask_TrueCount(b *testing.B) {
	m := New(1 << 20)
	m.InitTrue()
	b.ResetTimer()
	for b.Loop() {
		_ = m.TrueCount()
	}
}
