package progression

import "fmt"

// PremiumLevelThreshold is the first game level that needs a subscription
const PremiumLevelThreshold = 16

// Denial codes returned to clients
const (
	CodePremiumRequired      = "PREMIUM_REQUIRED"
	CodePremiumLevelRequired = "PREMIUM_LEVEL_REQUIRED"
	CodeLevelLocked          = "LEVEL_LOCKED"
	CodeDailyLimitReached    = "DAILY_LIMIT_REACHED"
)

// DeniedError is a policy denial carrying a machine-readable code
type DeniedError struct {
	Code    string
	Message string
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// GateRequest describes a submission to check against the unlock rules
type GateRequest struct {
	GameSlug        string
	GameLevel       int
	Premium         bool
	GamePremiumOnly bool
	Completed       CompletedLevels
}

// CheckLevelAccess returns a *DeniedError when the child may not play the
// requested level, or nil when access is allowed.
func CheckLevelAccess(req GateRequest) error {
	if req.GamePremiumOnly && !req.Premium {
		return &DeniedError{
			Code:    CodePremiumRequired,
			Message: "this game requires a premium subscription",
		}
	}

	if req.GameLevel >= PremiumLevelThreshold && !req.Premium {
		return &DeniedError{
			Code:    CodePremiumLevelRequired,
			Message: fmt.Sprintf("levels %d and above require a premium subscription", PremiumLevelThreshold),
		}
	}

	if req.GameLevel > 1 && !req.Completed.Has(req.GameSlug, req.GameLevel-1) {
		return &DeniedError{
			Code:    CodeLevelLocked,
			Message: fmt.Sprintf("complete level %d first", req.GameLevel-1),
		}
	}

	return nil
}
