package panel

import "testing"

func TestTransition(t *testing.T) {
	tests := []struct {
		previous     LockState
		locked       bool
		wantNext     LockState
		wantUnlocked bool
	}{
		{LockUnknown, true, LockLocked, false},
		{LockUnknown, false, LockUnlocked, false},
		{LockLocked, true, LockLocked, false},
		{LockLocked, false, LockUnlocked, true},
		{LockUnlocked, false, LockUnlocked, false},
		{LockUnlocked, true, LockLocked, false},
	}

	for _, tt := range tests {
		t.Run(tt.previous.String()+"->"+lockStateOf(tt.locked).String(), func(t *testing.T) {
			next, unlocked := Transition(tt.previous, tt.locked)
			if next != tt.wantNext {
				t.Errorf("next = %v, want %v", next, tt.wantNext)
			}
			if unlocked != tt.wantUnlocked {
				t.Errorf("unlocked = %v, want %v", unlocked, tt.wantUnlocked)
			}
		})
	}
}

func TestDetector_Sequences(t *testing.T) {
	tests := []struct {
		name  string
		polls []bool // true = locked
		want  []int  // 1-based positions that fire
	}{
		{"mixed sequence", []bool{true, true, false, false, true, false}, []int{3, 6}},
		{"first poll unlocked never fires", []bool{false, false, false}, nil},
		{"first poll unlocked then cycle", []bool{false, true, false}, []int{3}},
		{"always locked", []bool{true, true, true}, nil},
		{"alternating", []bool{true, false, true, false}, []int{2, 4}},
		{"relock is silent", []bool{false, true, true}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Detector
			var got []int
			for i, locked := range tt.polls {
				if d.Observe(locked) {
					got = append(got, i+1)
				}
			}
			if len(got) != len(tt.want) {
				t.Fatalf("fired at %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("fired at %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestDetector_ZeroValueIsUnknown(t *testing.T) {
	var d Detector
	if d.Previous() != LockUnknown {
		t.Errorf("Previous() = %v, want unknown", d.Previous())
	}
	d.Observe(true)
	if d.Previous() != LockLocked {
		t.Errorf("Previous() = %v, want locked", d.Previous())
	}
}
