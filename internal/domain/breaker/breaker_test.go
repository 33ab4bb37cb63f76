package breaker

import "testing"

func TestBreakerOpensAtThreshold(t *testing.T) {
	tests := []struct {
		name      string
		threshold int
		empties   int
		wantOpen  bool
	}{
		{name: "below threshold stays closed", threshold: 3, empties: 2, wantOpen: false},
		{name: "opens exactly at threshold", threshold: 3, empties: 3, wantOpen: true},
		{name: "threshold one opens on first empty", threshold: 1, empties: 1, wantOpen: true},
		{name: "zero threshold coerced to one", threshold: 0, empties: 1, wantOpen: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New(tt.threshold)
			for i := 0; i < tt.empties; i++ {
				b.RecordEmpty()
			}
			if got := b.Open(); got != tt.wantOpen {
				t.Errorf("Open() = %v after %d empties (threshold %d), want %v",
					got, tt.empties, tt.threshold, tt.wantOpen)
			}
		})
	}
}

func TestBreakerResetOnSuccess(t *testing.T) {
	b := New(2)
	b.RecordEmpty()
	b.RecordSuccess()
	b.RecordEmpty()
	if b.Open() {
		t.Fatal("breaker opened although success reset the run")
	}
	if got := b.ConsecutiveEmpty(); got != 1 {
		t.Errorf("ConsecutiveEmpty() = %d, want 1", got)
	}
	b.RecordEmpty()
	if !b.Open() {
		t.Fatal("breaker should open after two consecutive empties")
	}
}

func TestBreakerOpenIsTerminal(t *testing.T) {
	b := New(1)
	b.RecordEmpty()
	if !b.Open() {
		t.Fatal("breaker should be open")
	}
	b.RecordSuccess()
	if !b.Open() {
		t.Error("success after opening must not close a per-request breaker")
	}
	if got := b.State().String(); got != "open" {
		t.Errorf("State().String() = %q, want open", got)
	}
}
