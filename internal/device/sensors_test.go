package device

import (
	"math"
	"testing"

	"heat_controller/internal/models"
)

func TestSensorsRoundTrip(t *testing.T) {
	in := []models.SensorWeight{
		{Address: [8]byte{40, 255, 0, 18, 101, 22, 3, 201}, Weight: 70},
		{Address: [8]byte{40, 1, 1, 1, 1, 1, 1, 1}, Weight: 30},
	}
	s := EncodeSensors(in)
	if s != "40 255 0 18 101 22 3 201 70,40 1 1 1 1 1 1 1 30" {
		t.Fatalf("encoded = %q", s)
	}
	out, err := ParseSensors(s)
	if err != nil {
		t.Fatalf("ParseSensors: %v", err)
	}
	if len(out) != 2 || out[0] != in[0] || out[1] != in[1] {
		t.Fatalf("round trip = %+v", out)
	}
}

func TestParseSensors_AnySeparator(t *testing.T) {
	out, err := ParseSensors("40,1,2,3,4,5,6,7,100")
	if err != nil {
		t.Fatalf("ParseSensors: %v", err)
	}
	if len(out) != 1 || out[0].Weight != 100 {
		t.Fatalf("out = %+v", out)
	}
}

func TestParseSensors_Invalid(t *testing.T) {
	for _, s := range []string{"1 2 3", "40 1 2 3 4 5 6 7 256"} {
		if _, err := ParseSensors(s); err == nil {
			t.Fatalf("ParseSensors(%q) expected error", s)
		}
	}
	if out, err := ParseSensors(""); err != nil || len(out) != 0 {
		t.Fatalf("empty string: %v %v", out, err)
	}
}

func TestWeightedAverage(t *testing.T) {
	cases := []struct {
		name     string
		readings []int
		sensors  []models.SensorWeight
		want     float64
	}{
		{"equal weights", []int{200, 220}, nil, 21},
		{"weighted", []int{200, 240}, []models.SensorWeight{{Weight: 75}, {Weight: 25}}, 21},
		{"missing channel skipped", []int{200, -1000, 300}, []models.SensorWeight{{Weight: 50}, {Weight: 100}, {Weight: 50}}, 25},
		{"channel without sensor entry skipped", []int{200, 900}, []models.SensorWeight{{Weight: 100}}, 20},
		{"nothing usable", []int{-1000}, nil, -127},
		{"zero weights", []int{200}, []models.SensorWeight{{Weight: 0}}, -127},
	}
	for _, tc := range cases {
		if got := WeightedAverage(tc.readings, tc.sensors); math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("%s: got %v want %v", tc.name, got, tc.want)
		}
	}
}
