// Package overlay selects and executes the strategy that puts submitted form
// data onto an official form template: native AcroForm fields, calibrated
// coordinates, the legacy coordinate tables, or a plain pass-through.
package overlay

import "fmt"

// Strategy is the overlay strategy chosen once per request
type Strategy int

const (
	StrategyNone Strategy = iota
	StrategyAcroForm
	StrategyCoordinateJSON
	StrategyLegacyCoordinate
)

// String returns a string representation of the Strategy
func (s Strategy) String() string {
	switch s {
	case StrategyAcroForm:
		return "acroform"
	case StrategyCoordinateJSON:
		return "coordinate_json"
	case StrategyLegacyCoordinate:
		return "legacy_coordinate"
	default:
		return "none"
	}
}

// MarshalText encodes the strategy by name
func (s Strategy) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a strategy name
func (s *Strategy) UnmarshalText(text []byte) error {
	switch string(text) {
	case "acroform":
		*s = StrategyAcroForm
	case "coordinate_json":
		*s = StrategyCoordinateJSON
	case "legacy_coordinate":
		*s = StrategyLegacyCoordinate
	case "none":
		*s = StrategyNone
	default:
		return fmt.Errorf("unknown overlay strategy %q", text)
	}
	return nil
}

// IsCoordinate reports whether the strategy draws text at fixed positions
func (s Strategy) IsCoordinate() bool {
	return s == StrategyCoordinateJSON || s == StrategyLegacyCoordinate
}
