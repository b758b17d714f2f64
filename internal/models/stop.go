package models

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

const (
	// StopTypeAssistant marks a supervisor pickup/dropoff stop.
	StopTypeAssistant = "assistant"

	ShiftAM = "AM"
	ShiftPM = "PM"
)

// Stop is one geocoded record supplied by the host application: a student,
// an assistant or a route endpoint.
//
// The host sends loosely typed JSON (coordinates as strings, flags as "true").
// UnmarshalJSON coerces everything into strict types so that nothing
// stringly-typed reaches the clustering and planning code. Coordinates that
// cannot be parsed become NaN and are rejected by the clusterer.
type Stop struct {
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	IsStart     bool    `json:"isStart"`
	IsFinal     bool    `json:"isFinal"`
	StopType    string  `json:"stopType,omitempty"`
	TimeShift   string  `json:"timeShift,omitempty"`
	HideMarker  bool    `json:"hideMarker"`
	StudentName string  `json:"studentName,omitempty"`
	GradeName   string  `json:"gradeName,omitempty"`
	SectionName string  `json:"sectionName,omitempty"`
	Label       string  `json:"label,omitempty"`
}

// rawStop mirrors Stop with the loosely typed fields left undecoded.
type rawStop struct {
	Lat         json.RawMessage `json:"lat"`
	Lng         json.RawMessage `json:"lng"`
	IsStart     json.RawMessage `json:"isStart"`
	IsFinal     json.RawMessage `json:"isFinal"`
	StopType    string          `json:"stopType"`
	TimeShift   string          `json:"timeShift"`
	HideMarker  json.RawMessage `json:"hideMarker"`
	StudentName string          `json:"studentName"`
	GradeName   string          `json:"gradeName"`
	SectionName string          `json:"sectionName"`
	Label       string          `json:"label"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Stop) UnmarshalJSON(data []byte) error {
	var raw rawStop
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*s = Stop{
		Lat:         ParseCoordinate(raw.Lat),
		Lng:         ParseCoordinate(raw.Lng),
		IsStart:     ParseFlag(raw.IsStart),
		IsFinal:     ParseFlag(raw.IsFinal),
		StopType:    NormalizeStopType(raw.StopType),
		TimeShift:   NormalizeTimeShift(raw.TimeShift),
		HideMarker:  ParseFlag(raw.HideMarker),
		StudentName: raw.StudentName,
		GradeName:   raw.GradeName,
		SectionName: raw.SectionName,
		Label:       raw.Label,
	}
	return nil
}

// Coords returns the stop position.
func (s *Stop) Coords() Coordinates {
	return Coordinates{Lat: s.Lat, Lng: s.Lng}
}

// IsAssistant reports whether the stop is a supervisor pickup/dropoff.
func (s *Stop) IsAssistant() bool {
	return NormalizeStopType(s.StopType) == StopTypeAssistant
}

// ParseCoordinate decodes a JSON number or numeric string into a float64.
// Missing, null and unparseable values yield NaN.
func ParseCoordinate(raw json.RawMessage) float64 {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		return math.NaN()
	}

	if strings.HasPrefix(text, `"`) {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return math.NaN()
		}
		text = strings.TrimSpace(str)
	}

	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return math.NaN()
	}
	return value
}

// ParseFlag decodes a JSON boolean or the strings "true"/"false".
// Anything else, including a missing value, is false.
func ParseFlag(raw json.RawMessage) bool {
	text := strings.TrimSpace(string(raw))
	switch text {
	case "true":
		return true
	case "", "null", "false":
		return false
	}

	var str string
	if err := json.Unmarshal(raw, &str); err != nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(str), "true")
}

// NormalizeStopType trims and lower-cases a stop type.
func NormalizeStopType(stopType string) string {
	return strings.ToLower(strings.TrimSpace(stopType))
}

// NormalizeTimeShift trims and upper-cases a time shift.
func NormalizeTimeShift(shift string) string {
	return strings.ToUpper(strings.TrimSpace(shift))
}
