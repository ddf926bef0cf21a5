package controller

import "testing"

func TestConvertBattery(t *testing.T) {
	cases := []struct {
		raw  byte
		want BatteryLevel
	}{
		{0, BatteryEmpty},
		{10, BatteryEmpty},
		{11, BatteryCritical},
		{20, BatteryCritical},
		{21, BatteryLow},
		{40, BatteryLow},
		{41, BatteryMedium},
		{70, BatteryMedium},
		{71, BatteryFull},
		{100, BatteryFull},
	}
	for _, c := range cases {
		if got := ConvertBattery(c.raw); got != c.want {
			t.Errorf("ConvertBattery(%d) = %v, want %v", c.raw, got, c.want)
		}
	}
}

func TestBatteryLevelString(t *testing.T) {
	cases := map[BatteryLevel]string{
		BatteryEmpty:    "empty",
		BatteryCritical: "critical",
		BatteryLow:      "low",
		BatteryMedium:   "medium",
		BatteryFull:     "full",
	}
	for level, want := range cases {
		if got := level.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", level, got, want)
		}
	}
}
