package stream

import (
	"fmt"
)

// TruncatedPolicy selects what happens to a trailing block shorter than 16 bytes.
type TruncatedPolicy int

const (
	// PolicyReject fails the run.
	PolicyReject TruncatedPolicy = iota
	// PolicyDrop discards the partial block and reports it in Stats, the log
	// and the truncated blocks metric.
	PolicyDrop
)

const (
	policyRejectName = "reject"
	policyDropName   = "drop"
)

func ParsePolicy(s string) (TruncatedPolicy, error) {
	switch s {
	case "", policyRejectName:
		return PolicyReject, nil
	case policyDropName:
		return PolicyDrop, nil
	default:
		return PolicyReject, fmt.Errorf("unknown truncated block policy %q", s)
	}
}

func (p TruncatedPolicy) String() string {
	switch p {
	case PolicyReject:
		return policyRejectName
	case PolicyDrop:
		return policyDropName
	default:
		return fmt.Sprintf("TruncatedPolicy(%d)", int(p))
	}
}
