package model

import "testing"

func TestParseStatus(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Status
		wantErr bool
	}{
		{name: "pending", input: "Pending", want: StatusPending},
		{name: "in progress", input: "In Progress", want: StatusInProgress},
		{name: "queued", input: "Queued", want: StatusQueued},
		{name: "completed", input: "Completed", want: StatusCompleted},
		{name: "lowercase is rejected", input: "pending", wantErr: true},
		{name: "empty is rejected", input: "", wantErr: true},
		{name: "unknown is rejected", input: "Cancelled", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStatus(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseStatus(%q) expected error, got %q", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseStatus(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseStatus(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestStatus_IsCurrent(t *testing.T) {
	current := map[Status]bool{
		StatusPending:    true,
		StatusInProgress: true,
		StatusQueued:     false,
		StatusCompleted:  false,
	}
	for status, want := range current {
		if got := status.IsCurrent(); got != want {
			t.Errorf("%q.IsCurrent() = %v, want %v", status, got, want)
		}
	}
}

func TestSlotKey(t *testing.T) {
	if SlotKey("p1", "10:00") != SlotKey("p1", "10:00") {
		t.Fatal("same pair must produce the same key")
	}
	if SlotKey("p1", "10:00") == SlotKey("p1", "10:00 ") {
		t.Error("times are compared exactly, trailing space must differ")
	}
	if SlotKey("a|b", "c") == SlotKey("a", "b|c") {
		t.Error("separator inside provider id must not collide")
	}

	b := &Booking{ProviderID: "p2", PreferredTime: "09:00"}
	if b.SlotKey() != SlotKey("p2", "09:00") {
		t.Errorf("Booking.SlotKey() = %q, want %q", b.SlotKey(), SlotKey("p2", "09:00"))
	}
}

func TestRole_Valid(t *testing.T) {
	for _, r := range []Role{RoleAdmin, RoleProvider, RolePatient} {
		if !r.Valid() {
			t.Errorf("%q should be valid", r)
		}
	}
	if Role("superuser").Valid() {
		t.Error("unknown role should be invalid")
	}
}
