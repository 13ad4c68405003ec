package enums

import (
	"fmt"
	"strings"
)

// MovementType is the direction of a manual inventory adjustment.
type MovementType string

const (
	MovementTypeIntake     MovementType = "entrada"
	MovementTypeWithdrawal MovementType = "salida"
)

// String implements fmt.Stringer.
func (m MovementType) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MovementType.
func (m MovementType) IsValid() bool {
	return m == MovementTypeIntake || m == MovementTypeWithdrawal
}

// ParseMovementType converts raw input into a MovementType.
func ParseMovementType(value string) (MovementType, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "entrada", "intake", "in":
		return MovementTypeIntake, nil
	case "salida", "withdrawal", "out":
		return MovementTypeWithdrawal, nil
	}
	return "", fmt.Errorf("invalid movement type %q", value)
}
