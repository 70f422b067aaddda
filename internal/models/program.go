package models

import (
	"encoding/json"
	"time"
)

// ClimateProgram is a named preset schedule. At most one program is active.
type ClimateProgram struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name" validate:"required"`
	Program   []float64 `json:"program" validate:"required,min=1"`
	Mode      string    `json:"mode" validate:"required,oneof=heat cool auto off"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DeviceProgram is the reduced program payload for the thermostat.
type DeviceProgram struct {
	Name     string    `json:"name"`
	Mode     string    `json:"mode"`
	IsActive bool      `json:"isActive"`
	Program  []float64 `json:"program"`
}

func (p ClimateProgram) ForDevice() DeviceProgram {
	return DeviceProgram{Name: p.Name, Mode: p.Mode, IsActive: p.IsActive, Program: p.Program}
}

// ProgramPatch updates selected fields of a program. A true IsActive makes
// the program the single active one.
type ProgramPatch struct {
	ID       int64     `json:"id"`
	Name     *string   `json:"name,omitempty" validate:"omitempty,min=1"`
	Program  []float64 `json:"program,omitempty" validate:"omitempty,min=1"`
	Mode     *string   `json:"mode,omitempty" validate:"omitempty,oneof=heat cool auto off"`
	IsActive *bool     `json:"isActive,omitempty"`
}

// ProgramAck is the thermostat's answer to a toggle/update program request.
// A nil IsActive means the answer leaves activation as it is.
type ProgramAck struct {
	ID       int64  `json:"id"`
	IsActive *bool  `json:"isActive,omitempty"`
	Success  bool   `json:"success"`
	Message  string `json:"message,omitempty"`
}

// UnmarshalJSON accepts the legacy "queryId" key and treats a missing
// "success" field as success.
func (a *ProgramAck) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID       int64  `json:"id"`
		QueryID  int64  `json:"queryId"`
		IsActive *bool  `json:"isActive"`
		Success  *bool  `json:"success"`
		Message  string `json:"message"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	a.ID = raw.ID
	if a.ID == 0 {
		a.ID = raw.QueryID
	}
	a.IsActive = raw.IsActive
	a.Success = raw.Success == nil || *raw.Success
	a.Message = raw.Message
	return nil
}
