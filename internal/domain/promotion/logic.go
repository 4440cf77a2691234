package promotion

import (
	"slices"
	"strings"
)

// orderedSteps sorts steps by their declared order.
func orderedSteps(steps []WorkflowStep) []WorkflowStep {
	out := slices.Clone(steps)
	slices.SortStableFunc(out, func(a, b WorkflowStep) int { return a.Order - b.Order })
	return out
}

func validateSteps(steps []WorkflowStep) error {
	if len(steps) == 0 {
		return ErrInvalidWorkflow
	}
	seen := make(map[int]struct{}, len(steps))
	for _, step := range steps {
		if strings.TrimSpace(step.Role) == "" || step.Order <= 0 {
			return ErrInvalidWorkflow
		}
		if _, dup := seen[step.Order]; dup {
			return ErrInvalidWorkflow
		}
		seen[step.Order] = struct{}{}
	}
	return nil
}

func countPending(approvals []Approval) int {
	n := 0
	for _, a := range approvals {
		if a.Decision == DecisionPending {
			n++
		}
	}
	return n
}

// allApproved is true only for a non-empty set where every step approved.
func allApproved(approvals []Approval) bool {
	if len(approvals) == 0 {
		return false
	}
	for _, a := range approvals {
		if a.Decision != DecisionApproved {
			return false
		}
	}
	return true
}
