package durable_test

import (
	"testing"
	"time"

	"github.com/lucianlature/cero/durable"
)

func TestParseDuration_BareNumberIsMilliseconds(t *testing.T) {
	d, err := durable.ParseDuration("1500")
	if err != nil {
		t.Fatalf("ParseDuration returned error: %v", err)
	}
	if d != 1500*time.Millisecond {
		t.Errorf("ParseDuration(1500) = %v, want 1.5s", d)
	}
}

func TestParseDuration_StandardUnits(t *testing.T) {
	d, err := durable.ParseDuration("2h30m")
	if err != nil {
		t.Fatalf("ParseDuration returned error: %v", err)
	}
	if d != 2*time.Hour+30*time.Minute {
		t.Errorf("ParseDuration(2h30m) = %v", d)
	}
}

func TestParseDuration_DaysAndWeeks(t *testing.T) {
	day, err := durable.ParseDuration("3d")
	if err != nil || day != 3*24*time.Hour {
		t.Errorf("ParseDuration(3d) = %v, %v", day, err)
	}

	week, err := durable.ParseDuration("2w")
	if err != nil || week != 2*7*24*time.Hour {
		t.Errorf("ParseDuration(2w) = %v, %v", week, err)
	}
}

func TestParseDuration_IntMilliseconds(t *testing.T) {
	d, err := durable.ParseDuration(250)
	if err != nil || d != 250*time.Millisecond {
		t.Errorf("ParseDuration(250) = %v, %v", d, err)
	}
}

func TestParseDuration_Invalid(t *testing.T) {
	if _, err := durable.ParseDuration("not-a-duration"); err == nil {
		t.Error("expected an error for an unparseable duration")
	}
}
