package certificate

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"

	"talent/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const certificateColumns = "id, certificate_id, employee_id, type, course_id, path_id, title, description, issued_date, expiry_date, verification_hash, file_url"

func (s *Store) FindBySubject(ctx context.Context, employeeID, certType, subjectID string) (Certificate, error) {
	return scanCertificate(s.DB.QueryRow(ctx, `
    SELECT `+certificateColumns+`
    FROM certificates
    WHERE employee_id = $1 AND type = $2 AND COALESCE(course_id, path_id) = $3
  `, employeeID, certType, subjectID))
}

// Insert reports false when a certificate for the same subject already
// exists. The caller re-reads in that case.
func (s *Store) Insert(ctx context.Context, c Certificate) (Certificate, bool, error) {
	created, err := scanCertificate(s.DB.QueryRow(ctx, `
    INSERT INTO certificates (certificate_id, employee_id, type, course_id, path_id, title, description,
                              issued_date, expiry_date, verification_hash, file_url)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
    ON CONFLICT DO NOTHING
    RETURNING `+certificateColumns,
		c.CertificateID, c.EmployeeID, c.Type, c.CourseID, c.PathID, c.Title, c.Description,
		c.IssuedDate, c.ExpiryDate, c.VerificationHash, c.FileURL))
	if errors.Is(err, ErrCertificateNotFound) {
		return Certificate{}, false, nil
	}
	if err != nil {
		return Certificate{}, false, err
	}
	return created, true, nil
}

func (s *Store) GetByCertificateID(ctx context.Context, certificateID string) (Certificate, error) {
	return scanCertificate(s.DB.QueryRow(ctx, "SELECT "+certificateColumns+" FROM certificates WHERE certificate_id = $1", certificateID))
}

func (s *Store) SetFileURL(ctx context.Context, id, url string) error {
	tag, err := s.DB.Exec(ctx, "UPDATE certificates SET file_url = $1 WHERE id = $2", url, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCertificateNotFound
	}
	return nil
}

func (s *Store) CourseSubject(ctx context.Context, courseID string) (Subject, error) {
	return s.subject(ctx, TypeCourse, "SELECT id, title, metadata FROM courses WHERE id = $1", courseID)
}

func (s *Store) PathSubject(ctx context.Context, pathID string) (Subject, error) {
	return s.subject(ctx, TypeLearningPath, "SELECT id, title, metadata FROM learning_paths WHERE id = $1", pathID)
}

func (s *Store) subject(ctx context.Context, certType, query, id string) (Subject, error) {
	subject := Subject{Type: certType}
	var metadata []byte
	err := s.DB.QueryRow(ctx, query, id).Scan(&subject.ID, &subject.Name, &metadata)
	if errors.Is(err, pgx.ErrNoRows) {
		return Subject{}, ErrSubjectNotFound
	}
	if err != nil {
		return Subject{}, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &subject.Metadata); err != nil {
			return Subject{}, err
		}
	}
	return subject, nil
}

func (s *Store) GetHolder(ctx context.Context, employeeID string) (Holder, error) {
	h := Holder{EmployeeID: employeeID}
	err := s.DB.QueryRow(ctx, "SELECT first_name, last_name FROM employees WHERE id = $1", employeeID).Scan(&h.FirstName, &h.LastName)
	if errors.Is(err, pgx.ErrNoRows) {
		return Holder{}, ErrHolderNotFound
	}
	return h, err
}

func scanCertificate(row pgx.Row) (Certificate, error) {
	var c Certificate
	err := row.Scan(&c.ID, &c.CertificateID, &c.EmployeeID, &c.Type, &c.CourseID, &c.PathID, &c.Title, &c.Description,
		&c.IssuedDate, &c.ExpiryDate, &c.VerificationHash, &c.FileURL)
	if errors.Is(err, pgx.ErrNoRows) {
		return Certificate{}, ErrCertificateNotFound
	}
	return c, err
}
