package learning

import (
	"context"
	"time"

	"talent/internal/domain/apperror"
)

// PathTracker rolls course completions up into path enrollments.
type PathTracker struct {
	Store StoreAPI
	Now   func() time.Time
}

func NewPathTracker(store StoreAPI) *PathTracker {
	return &PathTracker{Store: store, Now: time.Now}
}

type PathProgress struct {
	PathEnrollment     PathEnrollment `json:"pathEnrollment"`
	Started            bool           `json:"started"`
	Completed          bool           `json:"completed"`
	CertificateEnabled bool           `json:"certificateEnabled"`
}

// UpdateProgress counts the employee's completed course enrollments across the
// path's courses, in path order.
func (p *PathTracker) UpdateProgress(ctx context.Context, pathEnrollmentID string) (PathProgress, error) {
	pe, err := p.Store.LockPathEnrollment(ctx, pathEnrollmentID)
	if err != nil {
		return PathProgress{}, err
	}
	if pe.Status == PathEnrollmentCompleted || pe.Status == PathEnrollmentAbandoned {
		return PathProgress{PathEnrollment: pe}, nil
	}
	path, err := p.Store.GetPath(ctx, pe.PathID)
	if err != nil {
		return PathProgress{}, err
	}

	statuses, err := p.Store.EnrollmentStatuses(ctx, pe.EmployeeID, pathCourseIDs(path))
	if err != nil {
		return PathProgress{}, err
	}
	done := 0
	for _, pc := range path.Courses {
		if statuses[pc.CourseID] == EnrollmentCompleted {
			done++
		}
	}

	now := p.Now().UTC()
	out := PathProgress{}
	pe.ProgressPct = ProgressPercent(done, len(path.Courses))
	if pe.Status == PathEnrollmentAssigned && done > 0 {
		pe.Status = PathEnrollmentInProgress
		pe.StartedAt = &now
		out.Started = true
	}
	if pe.ProgressPct >= 100 {
		pe.Status = PathEnrollmentCompleted
		pe.ProgressPct = 100
		pe.CompletedAt = &now
		out.Completed = true
		out.CertificateEnabled = path.Metadata.CertificateEnabled
	}
	if err := p.Store.SavePathEnrollment(ctx, pe); err != nil {
		return PathProgress{}, err
	}
	out.PathEnrollment = pe
	return out, nil
}

// EnrollInNextCourses creates an enrollment for every path course the
// employee is not yet enrolled in. Existing enrollments are left alone.
func (p *PathTracker) EnrollInNextCourses(ctx context.Context, pe PathEnrollment) ([]Enrollment, error) {
	path, err := p.Store.GetPath(ctx, pe.PathID)
	if err != nil {
		return nil, err
	}
	var created []Enrollment
	for _, pc := range path.Courses {
		enrollment, isNew, err := p.Store.CreateEnrollment(ctx, Enrollment{
			EmployeeID: pe.EmployeeID,
			CourseID:   pc.CourseID,
			Source:     SourcePath,
			Status:     EnrollmentNotStarted,
		})
		if err != nil {
			return nil, err
		}
		if isNew {
			created = append(created, enrollment)
		}
	}
	return created, nil
}

// Enroll assigns a published path to an employee and enrolls them in every
// course on it. A repeated call returns the existing path enrollment.
func (p *PathTracker) Enroll(ctx context.Context, employeeID, pathID string) (PathEnrollment, bool, error) {
	path, err := p.Store.GetPath(ctx, pathID)
	if err != nil {
		return PathEnrollment{}, false, err
	}
	if path.Status != PathPublished {
		return PathEnrollment{}, false, ErrPathNotPublished
	}
	pe, created, err := p.Store.CreatePathEnrollment(ctx, PathEnrollment{
		EmployeeID: employeeID,
		PathID:     pathID,
		Status:     PathEnrollmentAssigned,
	})
	if err != nil || !created {
		return pe, false, err
	}
	if _, err := p.EnrollInNextCourses(ctx, pe); err != nil {
		return PathEnrollment{}, false, err
	}
	return pe, true, nil
}

func (p *PathTracker) Publish(ctx context.Context, pathID string) (Path, error) {
	path, err := p.Store.LockPath(ctx, pathID)
	if err != nil {
		return Path{}, err
	}
	switch path.Status {
	case PathPublished:
		return Path{}, ErrPathAlreadyPublished
	case PathArchived:
		return Path{}, ErrPathArchived
	}
	if len(path.Courses) == 0 {
		return Path{}, apperror.Validation("learning path has no courses")
	}
	now := p.Now().UTC()
	if err := p.Store.MarkPathPublished(ctx, pathID, now); err != nil {
		return Path{}, err
	}
	path.Status = PathPublished
	path.PublishedAt = &now
	return path, nil
}

func pathCourseIDs(path Path) []string {
	ids := make([]string, 0, len(path.Courses))
	for _, pc := range path.Courses {
		ids = append(ids, pc.CourseID)
	}
	return ids
}
