package env

import "fmt"

type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
)

// UnmarshalText accepts only the known environments.
func (e *Environment) UnmarshalText(text []byte) error {
	switch v := Environment(text); v {
	case Development, Production:
		*e = v
		return nil
	default:
		return fmt.Errorf("unknown environment %q (valid: %s, %s)", text, Development, Production)
	}
}

func (e Environment) IsProduction() bool { return e == Production }
