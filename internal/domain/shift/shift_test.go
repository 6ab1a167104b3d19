package shift

import "testing"

func TestShiftValidate(t *testing.T) {
	valid := Shift{Name: "Night Watch", StartsAt: "22:00", EndsAt: "06:00"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("wrap-past-midnight shift should validate: %v", err)
	}

	cases := []struct {
		name  string
		shift Shift
	}{
		{"empty name", Shift{Name: "  ", StartsAt: "08:00", EndsAt: "16:00"}},
		{"bad start format", Shift{Name: "Day", StartsAt: "8am", EndsAt: "16:00"}},
		{"hour out of range", Shift{Name: "Day", StartsAt: "24:00", EndsAt: "16:00"}},
		{"minute out of range", Shift{Name: "Day", StartsAt: "08:61", EndsAt: "16:00"}},
		{"missing colon", Shift{Name: "Day", StartsAt: "0800", EndsAt: "16:00"}},
	}
	for _, tc := range cases {
		if err := tc.shift.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}
