package session

import "errors"

var (
	ErrNotFound        = errors.New("session not found")
	ErrNotActive       = errors.New("no active case")
	ErrOrderInProgress = errors.New("another order is already being processed")
	ErrPatientDeceased = errors.New("the patient is deceased; no further orders can be placed")
	ErrPatientCured    = errors.New("the patient has been stabilized; the case is closed")
)
