package model

import (
	"encoding/json"
	"time"
)

// RecordTimeLayout is the timestamp layout of exported pass records.
const RecordTimeLayout = "2006/01/02 15:04:05"

// Pass is one interval during which a target satisfies a sensor envelope.
// Start is strictly before End.
type Pass struct {
	SatelliteID   string
	SatelliteName string
	TargetName    string

	Start time.Time
	End   time.Time

	// SideSwingAngle is signed by the along-track direction, degrees.
	SideSwingAngle float64
	// Pitch is only set by point sweeps, degrees.
	Pitch *float64
	// SideSway is true when off-nadir pointing is needed.
	SideSway bool
	// Truncated marks a pass still open when the sweep window ended.
	Truncated bool
}

// Duration returns End - Start.
func (p Pass) Duration() time.Duration { return p.End.Sub(p.Start) }

// In returns a copy with both timestamps expressed in loc.
func (p Pass) In(loc *time.Location) Pass {
	if loc == nil {
		return p
	}
	p.Start = p.Start.In(loc)
	p.End = p.End.In(loc)
	return p
}

type passRecord struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	TargetName     string   `json:"targetName"`
	StartTime      string   `json:"startTime"`
	EndTime        string   `json:"endTime"`
	SideSwingAngle float64  `json:"sideSwingAngle"`
	Pitch          *float64 `json:"pitch,omitempty"`
	SideSway       bool     `json:"sideSway"`
	SensorID       string   `json:"sensorId"`
	Truncated      bool     `json:"truncated,omitempty"`
}

// MarshalJSON renders the exported record. Timestamps use RecordTimeLayout
// in the location carried by Start and End.
func (p Pass) MarshalJSON() ([]byte, error) {
	return json.Marshal(passRecord{
		ID:             p.SatelliteID,
		Name:           p.SatelliteName,
		TargetName:     p.TargetName,
		StartTime:      p.Start.Format(RecordTimeLayout),
		EndTime:        p.End.Format(RecordTimeLayout),
		SideSwingAngle: p.SideSwingAngle,
		Pitch:          p.Pitch,
		SideSway:       p.SideSway,
		SensorID:       p.SatelliteName,
		Truncated:      p.Truncated,
	})
}

// ElevationPass is a horizon-to-horizon visibility interval over a ground
// station, with azimuths in degrees clockwise from north.
type ElevationPass struct {
	SatelliteID   string    `json:"id"`
	SatelliteName string    `json:"name"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	AzimuthStart  float64   `json:"azimuthStart"`
	AzimuthApex   float64   `json:"azimuthApex"`
	AzimuthEnd    float64   `json:"azimuthEnd"`
	MaxElevation  float64   `json:"maxElevation"`
	Truncated     bool      `json:"truncated,omitempty"`
}

// Duration returns End - Start.
func (p ElevationPass) Duration() time.Duration { return p.End.Sub(p.Start) }
