package certificate

import "context"

type StoreAPI interface {
	FindBySubject(ctx context.Context, employeeID, certType, subjectID string) (Certificate, error)
	Insert(ctx context.Context, c Certificate) (Certificate, bool, error)
	GetByCertificateID(ctx context.Context, certificateID string) (Certificate, error)
	SetFileURL(ctx context.Context, id, url string) error
	CourseSubject(ctx context.Context, courseID string) (Subject, error)
	PathSubject(ctx context.Context, pathID string) (Subject, error)
	GetHolder(ctx context.Context, employeeID string) (Holder, error)
}
