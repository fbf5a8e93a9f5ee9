package models

import (
	"database/sql/driver"
	"time"

	"github.com/uptrace/bun"
)

type Train struct {
	bun.BaseModel `bun:"table:trains,alias:tr"`

	ID        int        `bun:",pk,nullzero" json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Name      string     `bun:",nullzero" json:"name"`
	Stops     TrainStops `json:"stops"`
}

// TrainStop is one scheduled halt. Times are schedule strings (e.g. "09:45"),
// not instants.
type TrainStop struct {
	StationID     int      `json:"station_id"`
	Station       *Station `json:"station,omitempty" bun:"-"`
	ArrivalTime   string   `json:"arrival_time"`
	DepartureTime string   `json:"departure_time"`
}

// TrainStops is stored as a JSON document in a TEXT column.
type TrainStops []TrainStop

func (s TrainStops) Value() (driver.Value, error) {
	if s == nil {
		s = TrainStops{}
	}
	return jsonValue(s)
}

func (s *TrainStops) Scan(src interface{}) error {
	return jsonScan(src, s)
}

// StationIDs returns the distinct station ids across all stops, in stop
// order.
func (t *Train) StationIDs() []int {
	seen := map[int]bool{}
	ids := []int{}
	for _, stop := range t.Stops {
		if !seen[stop.StationID] {
			seen[stop.StationID] = true
			ids = append(ids, stop.StationID)
		}
	}
	return ids
}
