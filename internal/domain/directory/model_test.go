package directory

import (
	"encoding/json"
	"testing"
)

func TestCoordinatesMarshalOrder(t *testing.T) {
	c := Coordinates{Longitude: 77.5946, Latitude: 12.9716}
	data, err := json.Marshal(c)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "[77.5946,12.9716]" {
		t.Errorf("marshal = %s, want longitude first", data)
	}
}

func TestCoordinatesUnmarshal(t *testing.T) {
	var c Coordinates
	if err := json.Unmarshal([]byte("[-122.4194,37.7749]"), &c); err != nil {
		t.Fatal(err)
	}
	if c.Longitude != -122.4194 || c.Latitude != 37.7749 {
		t.Errorf("got %+v", c)
	}

	bad := []string{`{"lat":1,"lng":2}`, `"12,77"`}
	for _, payload := range bad {
		var x Coordinates
		if err := json.Unmarshal([]byte(payload), &x); err == nil {
			t.Errorf("payload %s must be rejected", payload)
		}
	}
}

func TestCoordinatesValid(t *testing.T) {
	cases := []struct {
		c    Coordinates
		want bool
	}{
		{Coordinates{0, 0}, true},
		{Coordinates{-180, -90}, true},
		{Coordinates{180, 90}, true},
		{Coordinates{181, 0}, false},
		{Coordinates{0, -91}, false},
	}
	for _, tc := range cases {
		if got := tc.c.Valid(); got != tc.want {
			t.Errorf("Valid(%+v) = %v, want %v", tc.c, got, tc.want)
		}
	}
}

func TestDonorJSONRoundTrip(t *testing.T) {
	raw := `{"name":"Asha","email":"asha@example.org","bloodType":"O","rhFactor":"-","coordinates":[77.59,12.97],"active":true}`
	var d Donor
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		t.Fatal(err)
	}
	if d.Coordinates == nil || d.Coordinates.Longitude != 77.59 {
		t.Errorf("coordinates = %+v", d.Coordinates)
	}

	out, err := json.Marshal(d)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(out, &m); err != nil {
		t.Fatal(err)
	}
	if string(m["coordinates"]) != "[77.59,12.97]" {
		t.Errorf("coordinates field = %s", m["coordinates"])
	}
}
