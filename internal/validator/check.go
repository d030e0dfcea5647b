package validator

import (
	"time"

	"finguard/internal/domain"
)

// NewCheck builds a check result stamped with the current time.
func NewCheck(id, name string, status domain.CheckStatus, sev domain.Severity, confidence float64, reasoning string) domain.CheckResult {
	return domain.CheckResult{
		CheckID:    id,
		CheckName:  name,
		Status:     status,
		Confidence: confidence,
		Reasoning:  reasoning,
		Severity:   sev,
		Timestamp:  time.Now().UTC(),
	}
}

// Pass builds a PASS result.
func Pass(id, name string, sev domain.Severity, confidence float64, reasoning string) domain.CheckResult {
	return NewCheck(id, name, domain.CheckPass, sev, confidence, reasoning)
}

// Fail builds a FAIL result.
func Fail(id, name string, sev domain.Severity, confidence float64, reasoning string) domain.CheckResult {
	return NewCheck(id, name, domain.CheckFail, sev, confidence, reasoning)
}

// Warn builds a WARNING result.
func Warn(id, name string, sev domain.Severity, confidence float64, reasoning string) domain.CheckResult {
	return NewCheck(id, name, domain.CheckWarning, sev, confidence, reasoning)
}

// PassIf returns Pass when ok holds, otherwise Fail, with the matching reasoning.
func PassIf(ok bool, id, name string, sev domain.Severity, confidence float64, passMsg, failMsg string) domain.CheckResult {
	if ok {
		return Pass(id, name, sev, confidence, passMsg)
	}
	return Fail(id, name, sev, confidence, failMsg)
}
