package domain

import "testing"

func TestTemperatureFor(t *testing.T) {
	cases := []struct {
		progress int
		want     Temperature
	}{
		{0, TemperatureCold},
		{29, TemperatureCold},
		{30, TemperatureCool},
		{49, TemperatureCool},
		{50, TemperatureWarm},
		{69, TemperatureWarm},
		{70, TemperatureHot},
		{100, TemperatureHot},
	}
	for _, tc := range cases {
		if got := TemperatureFor(tc.progress); got != tc.want {
			t.Errorf("TemperatureFor(%d) = %s, want %s", tc.progress, got, tc.want)
		}
	}
}

func TestNormalizePoints(t *testing.T) {
	if got := NormalizePoints(10, false); got != 10 {
		t.Errorf("expected 10, got %d", got)
	}
	if got := NormalizePoints(10, true); got != 12 {
		t.Errorf("expected 12 with shared-interest bonus, got %d", got)
	}
	if got := NormalizePoints(-5, false); got != 0 {
		t.Errorf("negative points must yield 0, got %d", got)
	}
}

func TestApplyPointsClampsAtMax(t *testing.T) {
	update := ApplyPoints(95, true, 20)
	if update.Progress != MaxProgress {
		t.Errorf("expected progress clamped to %d, got %d", MaxProgress, update.Progress)
	}
	if update.Temperature != TemperatureHot {
		t.Errorf("expected hot at 100, got %s", update.Temperature)
	}
}

func TestApplyPointsNeverDecreases(t *testing.T) {
	update := ApplyPoints(40, false, -10)
	if update.Progress != 40 {
		t.Errorf("negative delta must not decrease progress, got %d", update.Progress)
	}
}

func TestApplyPointsUnlocksOnceAtThreshold(t *testing.T) {
	update := ApplyPoints(40, false, 15)
	if update.Progress != 55 {
		t.Fatalf("expected progress 55, got %d", update.Progress)
	}
	if update.Temperature != TemperatureWarm {
		t.Errorf("expected warm at 55, got %s", update.Temperature)
	}
	if !update.JustUnlocked {
		t.Error("crossing the unlock threshold must set JustUnlocked")
	}

	// Further progress on an already-unlocked connection must not re-fire.
	update = ApplyPoints(55, true, 10)
	if update.JustUnlocked {
		t.Error("JustUnlocked must not fire for an already-unlocked connection")
	}
}

func TestApplyPointsBelowThreshold(t *testing.T) {
	update := ApplyPoints(20, false, 20)
	if update.JustUnlocked {
		t.Error("40 is below the unlock threshold, JustUnlocked must be false")
	}
	if update.Temperature != TemperatureCool {
		t.Errorf("expected cool at 40, got %s", update.Temperature)
	}
}
