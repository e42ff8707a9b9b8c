package directory

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bloodnet/inventory/internal/domain/bloodunit"
)

// Coordinates is a geographic point, serialized as [longitude, latitude] on
// the wire (GeoJSON position order).
type Coordinates struct {
	Longitude float64
	Latitude  float64
}

func (c Coordinates) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{c.Longitude, c.Latitude})
}

func (c *Coordinates) UnmarshalJSON(data []byte) error {
	var pos [2]float64
	if err := json.Unmarshal(data, &pos); err != nil {
		return fmt.Errorf("coordinates must be [longitude, latitude]: %w", err)
	}
	c.Longitude, c.Latitude = pos[0], pos[1]
	return nil
}

// Valid reports whether the point is within WGS84 bounds.
func (c Coordinates) Valid() bool {
	return c.Longitude >= -180 && c.Longitude <= 180 && c.Latitude >= -90 && c.Latitude <= 90
}

// Donor is a registered blood donor.
type Donor struct {
	ID          uuid.UUID           `db:"id" json:"id"`
	Name        string              `db:"name" json:"name"`
	Email       string              `db:"email" json:"email"`
	Phone       *string             `db:"phone" json:"phone,omitempty"`
	BloodType   bloodunit.BloodType `db:"blood_type" json:"bloodType"`
	RhFactor    bloodunit.RhFactor  `db:"rh_factor" json:"rhFactor"`
	Coordinates *Coordinates        `json:"coordinates,omitempty"`
	Active      bool                `db:"active" json:"active"`
	CreatedAt   time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time           `db:"updated_at" json:"updated_at"`
}

// Organization is a blood bank or medical institution directory entry. The
// two share a shape and differ only in which table they live in and how the
// rest of the system references them.
type Organization struct {
	ID          uuid.UUID    `db:"id" json:"id"`
	Name        string       `db:"name" json:"name"`
	Email       string       `db:"email" json:"email"`
	Phone       *string      `db:"phone" json:"phone,omitempty"`
	Address     *string      `db:"address" json:"address,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	Active      bool         `db:"active" json:"active"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updated_at"`
}
