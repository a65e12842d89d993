package compliance

import "errors"

var (
	ErrComplianceNotEnabled = errors.New("compliance: requires sss-2 with permanent delegate and transfer hook")
	ErrNotBlacklisted       = errors.New("compliance: address is not blacklisted")
	ErrTargetNotBlacklisted = errors.New("compliance: seize target is not blacklisted")
)
