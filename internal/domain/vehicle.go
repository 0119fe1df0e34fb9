package domain

import (
	"fmt"
	"regexp"
	"strings"
)

type IdentifierType string

const (
	IdentifierVIN  IdentifierType = "vin"
	IdentifierRego IdentifierType = "rego"
)

type State string

const (
	StateNSW State = "NSW"
	StateVIC State = "VIC"
	StateQLD State = "QLD"
	StateWA  State = "WA"
	StateSA  State = "SA"
	StateTAS State = "TAS"
	StateNT  State = "NT"
	StateACT State = "ACT"
)

var states = map[State]struct{}{
	StateNSW: {}, StateVIC: {}, StateQLD: {}, StateWA: {},
	StateSA: {}, StateTAS: {}, StateNT: {}, StateACT: {},
}

func (s State) Valid() bool {
	_, ok := states[s]
	return ok
}

var (
	vinPattern  = regexp.MustCompile(`^[A-HJ-NPR-Z0-9]{17}$`)
	regoPattern = regexp.MustCompile(`^[A-Z0-9]{1,9}$`)
)

// VehicleIdentifier selects a vehicle either by VIN or by registration and
// state. Exactly one shape is populated, as indicated by Type.
type VehicleIdentifier struct {
	Type  IdentifierType `json:"type"`
	VIN   string         `json:"vin,omitempty"`
	Rego  string         `json:"rego,omitempty"`
	State State          `json:"state,omitempty"`
}

func NewVINIdentifier(vin string) (VehicleIdentifier, error) {
	id := VehicleIdentifier{Type: IdentifierVIN, VIN: vin}.Normalize()
	return id, id.Validate()
}

func NewRegoIdentifier(rego string, state State) (VehicleIdentifier, error) {
	id := VehicleIdentifier{Type: IdentifierRego, Rego: rego, State: state}.Normalize()
	return id, id.Validate()
}

// Normalize trims and upper-cases every field. Fields from the other shape
// are kept so Validate can reject a mixed identifier.
func (id VehicleIdentifier) Normalize() VehicleIdentifier {
	return VehicleIdentifier{
		Type:  IdentifierType(strings.ToLower(strings.TrimSpace(string(id.Type)))),
		VIN:   strings.ToUpper(strings.TrimSpace(id.VIN)),
		Rego:  strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(id.Rego), " ", "")),
		State: State(strings.ToUpper(strings.TrimSpace(string(id.State)))),
	}
}

func (id VehicleIdentifier) Validate() error {
	switch id.Type {
	case IdentifierVIN:
		if !vinPattern.MatchString(id.VIN) {
			return fmt.Errorf("%w: vin must be 17 characters excluding I, O and Q", ErrInvalidIdentifier)
		}
		if id.Rego != "" || id.State != "" {
			return fmt.Errorf("%w: vin identifier must not carry registration", ErrInvalidIdentifier)
		}
	case IdentifierRego:
		if !regoPattern.MatchString(id.Rego) {
			return fmt.Errorf("%w: registration must be 1-9 letters or digits", ErrInvalidIdentifier)
		}
		if !id.State.Valid() {
			return fmt.Errorf("%w: unknown state %q", ErrInvalidIdentifier, id.State)
		}
		if id.VIN != "" {
			return fmt.Errorf("%w: registration identifier must not carry vin", ErrInvalidIdentifier)
		}
	default:
		return fmt.Errorf("%w: unknown identifier type %q", ErrInvalidIdentifier, id.Type)
	}
	return nil
}

// Key is a stable string form used for deterministic lookups and logging.
func (id VehicleIdentifier) Key() string {
	if id.Type == IdentifierVIN {
		return "VIN:" + id.VIN
	}
	return "REGO:" + string(id.State) + ":" + id.Rego
}

func (id VehicleIdentifier) String() string {
	if id.Type == IdentifierVIN {
		return "VIN " + id.VIN
	}
	return "rego " + id.Rego + " (" + string(id.State) + ")"
}
