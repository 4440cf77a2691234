package promotion

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"talent/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const candidateColumns = `id, employee_id, current_role_id, proposed_role_id, justification, workflow_id, status,
  submitted_at, approved_at, rejected_at, withdrawn_at, rejection_reason, withdrawal_reason, created_by`

const approvalColumns = "id, candidate_id, step_order, step_name, role, approver_id, decision, decision_note, decided_at, decided_by"

func (s *Store) CreateWorkflow(ctx context.Context, name string, steps []WorkflowStep) (Workflow, error) {
	payload, err := json.Marshal(steps)
	if err != nil {
		return Workflow{}, err
	}
	w := Workflow{Name: name, Steps: steps}
	err = s.DB.QueryRow(ctx, "INSERT INTO promotion_workflows (name, steps) VALUES ($1,$2) RETURNING id", name, payload).Scan(&w.ID)
	return w, err
}

func (s *Store) GetWorkflow(ctx context.Context, workflowID string) (Workflow, error) {
	var w Workflow
	var steps []byte
	err := s.DB.QueryRow(ctx, "SELECT id, name, steps FROM promotion_workflows WHERE id = $1", workflowID).Scan(&w.ID, &w.Name, &steps)
	if errors.Is(err, pgx.ErrNoRows) {
		return Workflow{}, ErrWorkflowNotFound
	}
	if err != nil {
		return Workflow{}, err
	}
	if err := json.Unmarshal(steps, &w.Steps); err != nil {
		return Workflow{}, err
	}
	return w, nil
}

func (s *Store) CreateCandidate(ctx context.Context, c Candidate) (Candidate, error) {
	return scanCandidate(s.DB.QueryRow(ctx, `
    INSERT INTO promotion_candidates (employee_id, current_role_id, proposed_role_id, justification, workflow_id, status, created_by)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    RETURNING `+candidateColumns,
		c.EmployeeID, c.CurrentRoleID, c.ProposedRoleID, c.Justification, c.WorkflowID, c.Status, c.CreatedBy))
}

func (s *Store) GetCandidate(ctx context.Context, candidateID string) (Candidate, error) {
	return scanCandidate(s.DB.QueryRow(ctx, "SELECT "+candidateColumns+" FROM promotion_candidates WHERE id = $1", candidateID))
}

func (s *Store) LockCandidate(ctx context.Context, candidateID string) (Candidate, error) {
	return scanCandidate(s.DB.QueryRow(ctx, "SELECT "+candidateColumns+" FROM promotion_candidates WHERE id = $1 FOR UPDATE", candidateID))
}

func (s *Store) UpdateCandidate(ctx context.Context, c Candidate) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE promotion_candidates
    SET status = $1, submitted_at = $2, approved_at = $3, rejected_at = $4, withdrawn_at = $5,
        rejection_reason = $6, withdrawal_reason = $7
    WHERE id = $8
  `, c.Status, c.SubmittedAt, c.ApprovedAt, c.RejectedAt, c.WithdrawnAt, c.RejectionReason, c.WithdrawalReason, c.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCandidateNotFound
	}
	return nil
}

func (s *Store) CreateApproval(ctx context.Context, a Approval) (Approval, error) {
	return scanApproval(s.DB.QueryRow(ctx, `
    INSERT INTO promotion_approvals (candidate_id, step_order, step_name, role, approver_id, decision)
    VALUES ($1,$2,$3,$4,$5,$6)
    RETURNING `+approvalColumns,
		a.CandidateID, a.StepOrder, a.StepName, a.Role, a.ApproverID, a.Decision))
}

func (s *Store) GetApproval(ctx context.Context, approvalID string) (Approval, error) {
	return scanApproval(s.DB.QueryRow(ctx, "SELECT "+approvalColumns+" FROM promotion_approvals WHERE id = $1", approvalID))
}

func (s *Store) SaveDecision(ctx context.Context, a Approval) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE promotion_approvals
    SET decision = $1, decision_note = $2, decided_at = $3, decided_by = $4
    WHERE id = $5 AND decision = 'pending'
  `, a.Decision, a.DecisionNote, a.DecidedAt, a.DecidedBy, a.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyDecided
	}
	return nil
}

func (s *Store) ListApprovals(ctx context.Context, candidateID string) ([]Approval, error) {
	rows, err := s.DB.Query(ctx, "SELECT "+approvalColumns+" FROM promotion_approvals WHERE candidate_id = $1 ORDER BY step_order", candidateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Approval
	for rows.Next() {
		a, err := scanApproval(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) EmployeeRoleID(ctx context.Context, employeeID string) (*string, error) {
	var roleID *string
	err := s.DB.QueryRow(ctx, "SELECT role_id FROM employees WHERE id = $1", employeeID).Scan(&roleID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errEmployeeNotFound
	}
	return roleID, err
}

// ManagerUserID returns "" when the employee has no manager or the manager
// has no login.
func (s *Store) ManagerUserID(ctx context.Context, employeeID string) (string, error) {
	var userID *string
	err := s.DB.QueryRow(ctx, `
    SELECT m.user_id
    FROM employees e
    JOIN employees m ON m.id = e.manager_id
    WHERE e.id = $1
  `, employeeID).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if userID == nil {
		return "", nil
	}
	return *userID, nil
}

// FirstUserWithRole matches the role name exactly.
func (s *Store) FirstUserWithRole(ctx context.Context, roleName string) (string, error) {
	var userID string
	err := s.DB.QueryRow(ctx, `
    SELECT u.id
    FROM users u
    JOIN roles r ON r.id = u.role_id
    WHERE r.name = $1
    ORDER BY u.created_at, u.id
    LIMIT 1
  `, roleName).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return userID, err
}

func (s *Store) SetEmployeeRole(ctx context.Context, employeeID, roleID string) error {
	tag, err := s.DB.Exec(ctx, "UPDATE employees SET role_id = $1 WHERE id = $2", roleID, employeeID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errEmployeeNotFound
	}
	return nil
}

func (s *Store) CompleteActivePIPs(ctx context.Context, employeeID string, at time.Time) (int64, error) {
	tag, err := s.DB.Exec(ctx, "UPDATE pips SET status = $1, closed_at = $2 WHERE employee_id = $3 AND status = $4", pipCompleted, at, employeeID, pipActive)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *Store) RemoveSuccessionCandidate(ctx context.Context, employeeID, roleID string) (int64, error) {
	tag, err := s.DB.Exec(ctx, "DELETE FROM succession_candidates WHERE employee_id = $1 AND role_id = $2", employeeID, roleID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanCandidate(row pgx.Row) (Candidate, error) {
	var c Candidate
	err := row.Scan(&c.ID, &c.EmployeeID, &c.CurrentRoleID, &c.ProposedRoleID, &c.Justification, &c.WorkflowID, &c.Status,
		&c.SubmittedAt, &c.ApprovedAt, &c.RejectedAt, &c.WithdrawnAt, &c.RejectionReason, &c.WithdrawalReason, &c.CreatedBy)
	if errors.Is(err, pgx.ErrNoRows) {
		return Candidate{}, ErrCandidateNotFound
	}
	return c, err
}

func scanApproval(row pgx.Row) (Approval, error) {
	var a Approval
	err := row.Scan(&a.ID, &a.CandidateID, &a.StepOrder, &a.StepName, &a.Role, &a.ApproverID, &a.Decision, &a.DecisionNote, &a.DecidedAt, &a.DecidedBy)
	if errors.Is(err, pgx.ErrNoRows) {
		return Approval{}, ErrApprovalNotFound
	}
	return a, err
}
