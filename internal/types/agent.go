package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/sacahan/casualtrader/pkg/errors"
)

// AgentMode is the kind of run requested for an agent. It determines which
// capabilities the resource provisioner attaches to the execution.
type AgentMode string

const (
	ModeTrading     AgentMode = "TRADING"
	ModeRebalancing AgentMode = "REBALANCING"
	ModeObservation AgentMode = "OBSERVATION"
)

// AllModes lists every valid agent mode.
var AllModes = []AgentMode{ModeTrading, ModeRebalancing, ModeObservation}

// IsValid reports whether the mode is one of the known modes.
func (m AgentMode) IsValid() bool {
	switch m {
	case ModeTrading, ModeRebalancing, ModeObservation:
		return true
	default:
		return false
	}
}

// Agent is a simulated trader with its own funds, holdings, and decision
// engine binding.
type Agent struct {
	ID           string          `yaml:"id" json:"id" validate:"required"`
	Name         string          `yaml:"name" json:"name" validate:"required"`
	Model        string          `yaml:"model" json:"model" validate:"required"`
	Instructions string          `yaml:"instructions" json:"instructions"`
	InitialFunds decimal.Decimal `yaml:"initial_funds" json:"initial_funds"`
	CashBalance  decimal.Decimal `yaml:"cash_balance" json:"cash_balance"`
	CreatedAt    time.Time       `yaml:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `yaml:"updated_at" json:"updated_at"`
}

// Validate validates the Agent struct.
func (a *Agent) Validate() error {
	validate := validator.New()
	if err := validate.Struct(a); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidParameter, "invalid agent", err)
	}

	if a.InitialFunds.IsNegative() {
		return errors.New(errors.ErrCodeInvalidParameter, "initial funds must not be negative")
	}

	return nil
}
