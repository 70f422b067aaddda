package models

import "time"

// GarageDoor is the single garage door status row.
type GarageDoor struct {
	InMotion        bool      `json:"inMotion"`
	MotionDirection string    `json:"motionDirection"`
	Position        string    `json:"position"`
	TargetPosition  string    `json:"targetPosition"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// GarageDoorPatch is what a client sends to operate the door.
type GarageDoorPatch struct {
	InMotion        *bool   `json:"inMotion,omitempty"`
	MotionDirection *string `json:"motionDirection,omitempty" validate:"omitempty,oneof=up down none"`
	Position        *string `json:"position,omitempty"`
	TargetPosition  *string `json:"targetPosition,omitempty"`
}

// Video is a security camera recording.
type Video struct {
	ID            int64     `json:"id"`
	Filename      string    `json:"filename" validate:"required"`
	Location      string    `json:"location" validate:"required"`
	StartDateTime time.Time `json:"startDateTime"`
	EndDateTime   time.Time `json:"endDateTime"`
	Duration      float64   `json:"duration" validate:"gte=0"`
	TriggerEvent  string    `json:"triggerEvent" validate:"required"`
	Starred       bool      `json:"starred"`
	CreatedAt     time.Time `json:"createdAt"`
}
