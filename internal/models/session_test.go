package models

import "testing"

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPendingUpload, StatusProcessing, true},
		{StatusProcessing, StatusProcessing, true},
		{StatusProcessing, StatusCompleted, true},
		{StatusPendingUpload, StatusError, true},
		{StatusProcessing, StatusError, true},
		{StatusCompleted, StatusError, true},
		{StatusError, StatusError, true},

		{StatusPendingUpload, StatusCompleted, false},
		{StatusCompleted, StatusProcessing, false},
		{StatusCompleted, StatusCompleted, false},
		{StatusError, StatusProcessing, false},
		{StatusError, StatusCompleted, false},
		{StatusCompleted, StatusPendingUpload, false},
		{StatusProcessing, StatusPendingUpload, false},
	}

	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestAllowedFromMatchesTransitionTable(t *testing.T) {
	all := []Status{StatusPendingUpload, StatusProcessing, StatusCompleted, StatusError}

	for _, to := range all {
		allowed := map[Status]bool{}
		for _, from := range AllowedFrom(to) {
			allowed[from] = true
		}
		for _, from := range all {
			if allowed[from] != CanTransition(from, to) {
				t.Errorf("AllowedFrom(%s) disagrees with CanTransition(%s, %s)", to, from, to)
			}
		}
	}
}

func TestAllowedFromUnknownStatus(t *testing.T) {
	if got := AllowedFrom(Status("PENDING_UPLOAD2")); len(got) != 0 {
		t.Errorf("AllowedFrom(unknown) = %v, want empty", got)
	}
	if got := AllowedFrom(StatusPendingUpload); len(got) != 0 {
		t.Errorf("AllowedFrom(PENDING_UPLOAD) = %v, want empty (nothing transitions into the initial state)", got)
	}
}
