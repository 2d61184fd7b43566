package update

import "testing"

func TestNeedsUpdate(t *testing.T) {
	cases := []struct {
		latest, current string
		want            bool
	}{
		{"0.2.0", "0.1.0", true},
		{"0.1.0", "0.1.0", false},
		{"0.1.0", "0.2.0", false},
		{"1.0.0", "0.9.9", true},
	}
	for _, tc := range cases {
		r := &Result{Latest: tc.latest, Current: tc.current}
		if got := r.NeedsUpdate(); got != tc.want {
			t.Errorf("NeedsUpdate(%s vs %s) = %v, want %v", tc.latest, tc.current, got, tc.want)
		}
	}
}

func TestNeedsUpdateNilReceiver(t *testing.T) {
	var r *Result
	if r.NeedsUpdate() {
		t.Error("nil result should not need update")
	}
}

func TestCheckSkipsDevBuilds(t *testing.T) {
	if Check("dev") != nil {
		t.Error("dev builds should skip the update check")
	}
	if Check("") != nil {
		t.Error("empty version should skip the update check")
	}
}
