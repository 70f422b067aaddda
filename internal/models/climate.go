package models

import "time"

// Operating modes accepted by the thermostat.
const (
	ModeHeat = "heat"
	ModeCool = "cool"
	ModeAuto = "auto"
	ModeOff  = "off"
)

// ZoneData is a per-zone sensor snapshot reported by the thermostat.
type ZoneData struct {
	LocationID   int      `json:"locationId"`
	Temperature  float64  `json:"temperature"`
	Humidity     *float64 `json:"humidity,omitempty"`
	LocationName string   `json:"locationName" validate:"required"`
}

// ClimateReading is one row of the climate time series.
//
// Archive marks the row as the representative snapshot of its window;
// ArchiveSpan counts the 15 minute intervals the row stands for.
type ClimateReading struct {
	ID                int64      `json:"id"`
	ZoneData          []ZoneData `json:"zoneData" validate:"dive"`
	SelectedMode      string     `json:"selectedMode" validate:"required,oneof=heat cool auto off"`
	SelectedZone      int        `json:"selectedZone" validate:"gte=0"`
	OperatingStatus   string     `json:"operatingStatus" validate:"required"`
	TargetTemperature float64    `json:"targetTemperature"`
	Sleep             bool       `json:"sleep"`
	StoredProgram     int64      `json:"storedProgram"` // program id held by the thermostat, 0 = none
	Archive           bool       `json:"archive"`
	ArchiveSpan       int        `json:"archiveSpan" validate:"gte=1"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// DeviceClimate is the reduced payload sent to the thermostat itself.
type DeviceClimate struct {
	SelectedMode      string  `json:"selectedMode"`
	SelectedZone      int     `json:"selectedZone"`
	TargetTemperature float64 `json:"targetTemperature"`
}

// ForDevice strips the reading down to what the thermostat needs.
func (r ClimateReading) ForDevice() DeviceClimate {
	return DeviceClimate{
		SelectedMode:      r.SelectedMode,
		SelectedZone:      r.SelectedZone,
		TargetTemperature: r.TargetTemperature,
	}
}

// ClimateSettings is a partial overwrite of the latest reading, applied after
// the thermostat confirms a settings change. Nil fields are left untouched.
type ClimateSettings struct {
	SelectedMode      *string  `json:"selectedMode,omitempty" validate:"omitempty,oneof=heat cool auto off"`
	SelectedZone      *int     `json:"selectedZone,omitempty" validate:"omitempty,gte=0"`
	TargetTemperature *float64 `json:"targetTemperature,omitempty"`
	Sleep             *bool    `json:"sleep,omitempty"`
	StoredProgram     *int64   `json:"storedProgram,omitempty"`
}

// Empty reports whether the patch carries no field.
func (s ClimateSettings) Empty() bool {
	return s.SelectedMode == nil && s.SelectedZone == nil && s.TargetTemperature == nil &&
		s.Sleep == nil && s.StoredProgram == nil
}

// CompactionResult describes what a compaction tick did to the newest reading.
type CompactionResult struct {
	ReadingID   int64
	Archived    bool // the row was just marked as representative
	ArchiveSpan int
	Empty       bool // no readings stored yet
}
