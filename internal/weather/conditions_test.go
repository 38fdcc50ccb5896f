package weather

import "testing"

func TestConditionForCode(t *testing.T) {
	cases := []struct {
		code int
		want Condition
	}{
		{0, "clear"},
		{3, "overcast"},
		{51, "light_drizzle"},
		{61, "slight_rain"},
		{75, "heavy_snow"},
		{95, "thunderstorm"},
		{99, "thunderstorm_with_heavy_hail"},
		{42, ConditionUnknown},
		{-1, ConditionUnknown},
		{100, ConditionUnknown},
	}
	for _, tc := range cases {
		if got := ConditionForCode(tc.code); got != tc.want {
			t.Errorf("ConditionForCode(%d) = %q, want %q", tc.code, got, tc.want)
		}
	}
}

func TestConditionIsRainy(t *testing.T) {
	rainy := []Condition{
		"light_drizzle", "dense_drizzle", "slight_rain", "heavy_rain",
		"light_freezing_rain", "moderate_rain_showers", "thunderstorm",
		"thunderstorm_with_slight_hail",
	}
	for _, c := range rainy {
		if !c.IsRainy() {
			t.Errorf("%q should be rainy", c)
		}
	}

	dry := []Condition{"clear", "mainly_clear", "overcast", "foggy", "heavy_snow", "slight_snow_showers", ConditionUnknown}
	for _, c := range dry {
		if c.IsRainy() {
			t.Errorf("%q should not be rainy", c)
		}
	}
}
