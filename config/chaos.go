package config

import (
	"fmt"

	"github.com/kbukum/attendant/chaos"
)

// ChaosConfig is the serializable fault-injection section. It deserializes
// straight into a fault policy; injection stays off unless enabled.
type ChaosConfig struct {
	chaos.FaultPolicy `yaml:",inline" mapstructure:",squash"`
}

// ApplyDefaults sets sensible default values for unset fields.
func (c *ChaosConfig) ApplyDefaults() {
	if c.FaultRate == 0 {
		c.FaultRate = 0.1
	}
	if c.Fault.Kind == "" {
		c.Fault = chaos.ErrorFault("injected failure")
	}
}

// Validate checks the configuration for invalid values.
func (c *ChaosConfig) Validate() error {
	if c.FaultRate < 0 || c.FaultRate > 1 {
		return fmt.Errorf("chaos.fault_rate must be between 0 and 1 (got: %g)", c.FaultRate)
	}
	if c.MaxFaults < 0 {
		return fmt.Errorf("chaos.max_faults must be non-negative (got: %d)", c.MaxFaults)
	}
	if c.Cooldown < 0 {
		return fmt.Errorf("chaos.cooldown must be non-negative (got: %s)", c.Cooldown)
	}
	return nil
}

// Policy returns the fault policy for injector construction.
func (c *ChaosConfig) Policy() chaos.FaultPolicy {
	return c.FaultPolicy
}
