package promotion

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"talent/internal/domain/apperror"
	"talent/internal/domain/auth"
)

type memStore struct {
	workflows  map[string]Workflow
	candidates map[string]Candidate
	approvals  map[string]Approval
	// employee id -> role id / manager user id
	employeeRoles map[string]string
	managers      map[string]string
	// role name -> user ids in creation order
	usersByRole map[string][]string
	pips        map[string]int
	succession  map[string]bool
	seq         int
}

func newMemStore() *memStore {
	return &memStore{
		workflows:     map[string]Workflow{},
		candidates:    map[string]Candidate{},
		approvals:     map[string]Approval{},
		employeeRoles: map[string]string{"emp-1": "role-engineer"},
		managers:      map[string]string{"emp-1": "user-manager"},
		usersByRole: map[string][]string{
			"hrbp":        {"user-hrbp"},
			"director":    {"user-director", "user-director-2"},
			"super_admin": {"user-root"},
		},
		pips:       map[string]int{"emp-1": 1},
		succession: map[string]bool{"emp-1/role-senior": true},
	}
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

func (m *memStore) CreateWorkflow(_ context.Context, name string, steps []WorkflowStep) (Workflow, error) {
	w := Workflow{ID: m.nextID("wf"), Name: name, Steps: steps}
	m.workflows[w.ID] = w
	return w, nil
}

func (m *memStore) GetWorkflow(_ context.Context, id string) (Workflow, error) {
	w, ok := m.workflows[id]
	if !ok {
		return Workflow{}, ErrWorkflowNotFound
	}
	return w, nil
}

func (m *memStore) CreateCandidate(_ context.Context, c Candidate) (Candidate, error) {
	c.ID = m.nextID("cand")
	m.candidates[c.ID] = c
	return c, nil
}

func (m *memStore) GetCandidate(_ context.Context, id string) (Candidate, error) {
	c, ok := m.candidates[id]
	if !ok {
		return Candidate{}, ErrCandidateNotFound
	}
	return c, nil
}

func (m *memStore) LockCandidate(ctx context.Context, id string) (Candidate, error) {
	return m.GetCandidate(ctx, id)
}

func (m *memStore) UpdateCandidate(_ context.Context, c Candidate) error {
	m.candidates[c.ID] = c
	return nil
}

func (m *memStore) CreateApproval(_ context.Context, a Approval) (Approval, error) {
	a.ID = m.nextID("appr")
	m.approvals[a.ID] = a
	return a, nil
}

func (m *memStore) GetApproval(_ context.Context, id string) (Approval, error) {
	a, ok := m.approvals[id]
	if !ok {
		return Approval{}, ErrApprovalNotFound
	}
	return a, nil
}

func (m *memStore) SaveDecision(_ context.Context, a Approval) error {
	m.approvals[a.ID] = a
	return nil
}

func (m *memStore) ListApprovals(_ context.Context, candidateID string) ([]Approval, error) {
	var out []Approval
	for _, a := range m.approvals {
		if a.CandidateID == candidateID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StepOrder < out[j].StepOrder })
	return out, nil
}

func (m *memStore) EmployeeRoleID(_ context.Context, employeeID string) (*string, error) {
	role, ok := m.employeeRoles[employeeID]
	if !ok {
		return nil, errEmployeeNotFound
	}
	return &role, nil
}

func (m *memStore) ManagerUserID(_ context.Context, employeeID string) (string, error) {
	return m.managers[employeeID], nil
}

func (m *memStore) FirstUserWithRole(_ context.Context, roleName string) (string, error) {
	users := m.usersByRole[roleName]
	if len(users) == 0 {
		return "", nil
	}
	return users[0], nil
}

func (m *memStore) SetEmployeeRole(_ context.Context, employeeID, roleID string) error {
	m.employeeRoles[employeeID] = roleID
	return nil
}

func (m *memStore) CompleteActivePIPs(_ context.Context, employeeID string, _ time.Time) (int64, error) {
	n := m.pips[employeeID]
	m.pips[employeeID] = 0
	return int64(n), nil
}

func (m *memStore) RemoveSuccessionCandidate(_ context.Context, employeeID, roleID string) (int64, error) {
	key := employeeID + "/" + roleID
	if !m.succession[key] {
		return 0, nil
	}
	delete(m.succession, key)
	return 1, nil
}

var hrActor = auth.Actor{UserID: "user-hr", RoleName: auth.RoleHR}

func threeStepFixture(t *testing.T) (*memStore, *Engine, Submission) {
	t.Helper()
	store := newMemStore()
	engine := NewEngine(store, "super_admin")
	engine.Now = func() time.Time { return time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	wf, err := engine.CreateWorkflow(ctx, "Standard", []WorkflowStep{
		{Order: 3, Name: "Director sign-off", Role: "director"},
		{Order: 1, Name: "Manager", Role: RoleManager},
		{Order: 2, Name: "HR business partner", Role: "hrbp"},
	})
	if err != nil {
		t.Fatalf("workflow: %v", err)
	}
	c, err := engine.CreateDraft(ctx, hrActor, CandidateInput{EmployeeID: "emp-1", ProposedRoleID: "role-senior", WorkflowID: wf.ID})
	if err != nil {
		t.Fatalf("draft: %v", err)
	}
	sub, err := engine.Submit(ctx, c.ID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	return store, engine, sub
}

func TestSubmitResolvesApprovers(t *testing.T) {
	_, _, sub := threeStepFixture(t)
	if sub.Candidate.Status != StatusInReview || sub.Candidate.SubmittedAt == nil {
		t.Fatalf("unexpected candidate %+v", sub.Candidate)
	}
	want := []string{"user-manager", "user-hrbp", "user-director"}
	if len(sub.Approvals) != len(want) {
		t.Fatalf("expected %d approvals, got %d", len(want), len(sub.Approvals))
	}
	for i, a := range sub.Approvals {
		if a.StepOrder != i+1 || a.ApproverID != want[i] || a.Decision != DecisionPending {
			t.Fatalf("step %d: unexpected approval %+v", i+1, a)
		}
	}
}

func TestApproveInAnyOrder(t *testing.T) {
	store, engine, sub := threeStepFixture(t)
	ctx := context.Background()
	byOrder := map[int]Approval{}
	for _, a := range sub.Approvals {
		byOrder[a.StepOrder] = a
	}

	for i, order := range []int{3, 1, 2} {
		a := byOrder[order]
		d, err := engine.Approve(ctx, auth.Actor{UserID: a.ApproverID, RoleName: auth.RoleManager}, a.ID, "ok")
		if err != nil {
			t.Fatalf("approve step %d: %v", order, err)
		}
		last := i == 2
		if d.FullyApproved != last {
			t.Fatalf("after step %d expected fully approved=%v", order, last)
		}
		if !last && d.Candidate.Status != StatusInReview {
			t.Fatalf("expected in_review after step %d, got %s", order, d.Candidate.Status)
		}
	}

	c := store.candidates[sub.Candidate.ID]
	if c.Status != StatusApproved || c.ApprovedAt == nil {
		t.Fatalf("expected approved candidate, got %+v", c)
	}
	if store.employeeRoles["emp-1"] != "role-senior" {
		t.Fatalf("expected role change, got %s", store.employeeRoles["emp-1"])
	}
	if store.pips["emp-1"] != 0 || store.succession["emp-1/role-senior"] {
		t.Fatal("expected PIP closed and succession entry removed")
	}
}

func TestRejectStopsWorkflow(t *testing.T) {
	store, engine, sub := threeStepFixture(t)
	ctx := context.Background()
	first, second := sub.Approvals[0], sub.Approvals[1]

	if _, err := engine.Reject(ctx, auth.Actor{UserID: first.ApproverID}, first.ID, "  "); !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("expected reason validation, got %v", err)
	}
	d, err := engine.Reject(ctx, auth.Actor{UserID: first.ApproverID}, first.ID, "not yet")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if d.Candidate.Status != StatusRejected || d.Candidate.RejectionReason != "not yet" {
		t.Fatalf("unexpected candidate %+v", d.Candidate)
	}
	if store.approvals[second.ID].Decision != DecisionPending {
		t.Fatal("remaining steps must stay pending")
	}
	if _, err := engine.Approve(ctx, auth.Actor{UserID: second.ApproverID}, second.ID, ""); !errors.Is(err, apperror.ErrStateConflict) {
		t.Fatalf("expected state conflict on rejected candidate, got %v", err)
	}
	if store.employeeRoles["emp-1"] != "role-engineer" {
		t.Fatal("role must not change on rejection")
	}
}

func TestDecisionGuards(t *testing.T) {
	_, engine, sub := threeStepFixture(t)
	ctx := context.Background()
	a := sub.Approvals[0]

	if _, err := engine.Approve(ctx, auth.Actor{UserID: "user-stranger", RoleName: auth.RoleEmployee}, a.ID, ""); !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("expected forbidden for a non-approver, got %v", err)
	}
	if _, err := engine.Approve(ctx, hrActor, a.ID, "on behalf"); err != nil {
		t.Fatalf("override role should decide: %v", err)
	}
	if _, err := engine.Approve(ctx, hrActor, a.ID, ""); !errors.Is(err, ErrAlreadyDecided) {
		t.Fatalf("expected already decided, got %v", err)
	}
	if _, err := engine.Approve(ctx, hrActor, "missing", ""); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSubmitOnlyFromDraft(t *testing.T) {
	_, engine, sub := threeStepFixture(t)
	_, err := engine.Submit(context.Background(), sub.Candidate.ID)
	if !errors.Is(err, ErrNotDraft) || !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSubmitFallsBackToSuperAdminAndSkipsUnresolved(t *testing.T) {
	store := newMemStore()
	delete(store.managers, "emp-1")
	engine := NewEngine(store, "super_admin")
	ctx := context.Background()

	wf, _ := engine.CreateWorkflow(ctx, "Finance", []WorkflowStep{
		{Order: 1, Name: "Manager", Role: RoleManager},
		{Order: 2, Name: "Finance", Role: "finance"},
	})
	c, err := engine.CreateDraft(ctx, hrActor, CandidateInput{EmployeeID: "emp-1", ProposedRoleID: "role-senior", WorkflowID: wf.ID})
	if err != nil {
		t.Fatalf("draft: %v", err)
	}
	sub, err := engine.Submit(ctx, c.ID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	for _, a := range sub.Approvals {
		if a.ApproverID != "user-root" {
			t.Fatalf("expected super admin fallback, got %s", a.ApproverID)
		}
	}

	delete(store.usersByRole, "super_admin")
	c2, _ := engine.CreateDraft(ctx, hrActor, CandidateInput{EmployeeID: "emp-1", ProposedRoleID: "role-lead", WorkflowID: wf.ID})
	sub, err = engine.Submit(ctx, c2.ID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(sub.Approvals) != 0 || sub.Candidate.Status != StatusSubmitted {
		t.Fatalf("expected submitted with no approvals, got %+v", sub)
	}
}

func TestWithdraw(t *testing.T) {
	store, engine, sub := threeStepFixture(t)
	ctx := context.Background()
	if _, err := engine.Approve(ctx, hrActor, sub.Approvals[0].ID, ""); err != nil {
		t.Fatalf("approve: %v", err)
	}
	c, err := engine.Withdraw(ctx, sub.Candidate.ID, "reorg")
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if c.Status != StatusWithdrawn || c.WithdrawalReason != "reorg" || c.WithdrawnAt == nil {
		t.Fatalf("unexpected candidate %+v", c)
	}
	if store.approvals[sub.Approvals[0].ID].Decision != DecisionApproved {
		t.Fatal("decided approvals must be left untouched")
	}
	if _, err := engine.Withdraw(ctx, sub.Candidate.ID, ""); !errors.Is(err, ErrCannotWithdraw) {
		t.Fatalf("expected conflict on second withdraw, got %v", err)
	}
}

func TestCreateWorkflowValidation(t *testing.T) {
	engine := NewEngine(newMemStore(), "super_admin")
	ctx := context.Background()
	cases := [][]WorkflowStep{
		nil,
		{{Order: 1, Role: ""}},
		{{Order: 1, Role: "hrbp"}, {Order: 1, Role: "director"}},
		{{Order: 0, Role: "hrbp"}},
	}
	for i, steps := range cases {
		if _, err := engine.CreateWorkflow(ctx, "wf", steps); !errors.Is(err, ErrInvalidWorkflow) {
			t.Fatalf("case %d: expected invalid workflow, got %v", i, err)
		}
	}
}
