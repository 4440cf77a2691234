package learning

import (
	"context"
	"errors"
	"testing"

	"talent/internal/domain/apperror"
)

func pathFixture(t *testing.T, courses int, status string) (*memStore, *PathTracker, Path) {
	t.Helper()
	store := newMemStore()
	path := Path{ID: store.nextID("path"), Title: "Leadership", Status: status, Metadata: Metadata{CertificateEnabled: true}}
	for i := range courses {
		c := store.addCourse("Course", false, Lesson{ContentType: ContentPDF, IsActive: true})
		path.Courses = append(path.Courses, PathCourse{CourseID: c.ID, Position: i})
	}
	store.paths[path.ID] = path
	return store, NewPathTracker(store), path
}

func TestPathProgressSteps(t *testing.T) {
	store, tracker, path := pathFixture(t, 3, PathPublished)
	ctx := context.Background()

	pe, created, err := tracker.Enroll(ctx, "emp-1", path.ID)
	if err != nil || !created {
		t.Fatalf("enroll: created=%v err=%v", created, err)
	}

	progress, err := tracker.UpdateProgress(ctx, pe.ID)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if progress.PathEnrollment.ProgressPct != 0 || progress.PathEnrollment.Status != PathEnrollmentAssigned {
		t.Fatalf("expected 0%% assigned, got %+v", progress.PathEnrollment)
	}

	want := []int{33, 67, 100}
	for i, pc := range path.Courses {
		for id, e := range store.enrollments {
			if e.CourseID == pc.CourseID {
				e.Status = EnrollmentCompleted
				store.enrollments[id] = e
			}
		}
		progress, err := tracker.UpdateProgress(ctx, pe.ID)
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if progress.PathEnrollment.ProgressPct != want[i] {
			t.Fatalf("after %d courses expected %d, got %d", i+1, want[i], progress.PathEnrollment.ProgressPct)
		}
		if i == 0 && (!progress.Started || progress.PathEnrollment.Status != PathEnrollmentInProgress) {
			t.Fatalf("expected auto start on first course, got %+v", progress)
		}
	}

	final := store.pathEnrollments[pe.ID]
	if final.Status != PathEnrollmentCompleted || final.CompletedAt == nil {
		t.Fatalf("expected completed path enrollment, got %+v", final)
	}
}

func TestEnrollCreatesMissingCoursesOnly(t *testing.T) {
	store, tracker, path := pathFixture(t, 2, PathPublished)
	ctx := context.Background()
	existing := store.enroll("emp-1", path.Courses[0].CourseID)

	pe, _, err := tracker.Enroll(ctx, "emp-1", path.ID)
	if err != nil {
		t.Fatalf("enroll: %v", err)
	}
	if len(store.enrollments) != 2 {
		t.Fatalf("expected two enrollments, got %d", len(store.enrollments))
	}
	if store.enrollments[existing.ID].Source != SourceManual {
		t.Fatal("existing enrollment must keep its source")
	}
	for _, e := range store.enrollments {
		if e.ID != existing.ID && e.Source != SourcePath {
			t.Fatalf("expected path source, got %s", e.Source)
		}
	}

	again, created, err := tracker.Enroll(ctx, "emp-1", path.ID)
	if err != nil || created || again.ID != pe.ID {
		t.Fatalf("repeat enroll must return the existing row, created=%v err=%v", created, err)
	}
}

func TestEnrollRequiresPublishedPath(t *testing.T) {
	_, tracker, path := pathFixture(t, 1, PathDraft)
	_, _, err := tracker.Enroll(context.Background(), "emp-1", path.ID)
	if !errors.Is(err, ErrPathNotPublished) {
		t.Fatalf("expected not published, got %v", err)
	}
}

func TestPublish(t *testing.T) {
	_, tracker, path := pathFixture(t, 2, PathDraft)
	ctx := context.Background()

	published, err := tracker.Publish(ctx, path.ID)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if published.Status != PathPublished || published.PublishedAt == nil {
		t.Fatalf("unexpected path %+v", published)
	}
	if _, err := tracker.Publish(ctx, path.ID); !errors.Is(err, apperror.ErrStateConflict) {
		t.Fatalf("expected conflict on second publish, got %v", err)
	}

	_, emptyTracker, empty := pathFixture(t, 0, PathDraft)
	if _, err := emptyTracker.Publish(ctx, empty.ID); !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("expected validation error for empty path, got %v", err)
	}
}
