package certificate

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

// Issuer hands out at most one certificate per employee and subject.
type Issuer struct {
	Store    StoreAPI
	Now      func() time.Time
	NewToken func() string
}

func NewIssuer(store StoreAPI) *Issuer {
	return &Issuer{Store: store, Now: time.Now, NewToken: NewToken}
}

// NewToken returns an opaque 12 character upper-case certificate id.
func NewToken() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:tokenLength])
}

// VerificationHash binds a certificate id to its holder, subject and issue date.
func VerificationHash(c Certificate) string {
	payload := strings.Join([]string{c.CertificateID, c.EmployeeID, c.SubjectID(), c.IssuedDate.Format(dateLayout)}, "|")
	sum := blake2b.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// GenerateForCourse returns the employee's certificate for the course,
// issuing it on first call. The bool reports whether a row was created.
func (i *Issuer) GenerateForCourse(ctx context.Context, employeeID, courseID string) (Certificate, bool, error) {
	subject, err := i.Store.CourseSubject(ctx, courseID)
	if err != nil {
		return Certificate{}, false, err
	}
	return i.generate(ctx, employeeID, subject)
}

func (i *Issuer) GenerateForLearningPath(ctx context.Context, employeeID, pathID string) (Certificate, bool, error) {
	subject, err := i.Store.PathSubject(ctx, pathID)
	if err != nil {
		return Certificate{}, false, err
	}
	return i.generate(ctx, employeeID, subject)
}

func (i *Issuer) generate(ctx context.Context, employeeID string, subject Subject) (Certificate, bool, error) {
	existing, err := i.Store.FindBySubject(ctx, employeeID, subject.Type, subject.ID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrCertificateNotFound) {
		return Certificate{}, false, err
	}

	holder, err := i.Store.GetHolder(ctx, employeeID)
	if err != nil {
		return Certificate{}, false, err
	}
	cert := i.build(holder, subject)
	created, ok, err := i.Store.Insert(ctx, cert)
	if err != nil {
		return Certificate{}, false, err
	}
	if !ok {
		// A concurrent completion issued it first.
		existing, err := i.Store.FindBySubject(ctx, employeeID, subject.Type, subject.ID)
		return existing, false, err
	}
	return created, true, nil
}

func (i *Issuer) build(holder Holder, subject Subject) Certificate {
	now := i.Now().UTC()
	issued := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	c := Certificate{
		CertificateID: i.NewToken(),
		EmployeeID:    holder.EmployeeID,
		Type:          subject.Type,
		Title:         defaultTitle(subject),
		Description:   defaultDescription(holder, subject),
		IssuedDate:    issued,
	}
	id := subject.ID
	if subject.Type == TypeCourse {
		c.CourseID = &id
	} else {
		c.PathID = &id
	}
	if months := subject.Metadata.ValidityMonths; months > 0 {
		expiry := issued.AddDate(0, months, 0)
		c.ExpiryDate = &expiry
	}
	c.VerificationHash = VerificationHash(c)
	return c
}

func defaultTitle(subject Subject) string {
	if t := strings.TrimSpace(subject.Metadata.CertificateTitle); t != "" {
		return t
	}
	return "Certificate of Completion: " + subject.Name
}

func defaultDescription(holder Holder, subject Subject) string {
	if d := strings.TrimSpace(subject.Metadata.CertificateDescription); d != "" {
		return d
	}
	kind := "course"
	if subject.Type == TypeLearningPath {
		kind = "learning path"
	}
	return fmt.Sprintf("This certifies that %s has successfully completed the %s %q.", holder.FullName(), kind, subject.Name)
}

// Verify looks a certificate up by its public id and checks its hash and expiry.
func (i *Issuer) Verify(ctx context.Context, certificateID string) (Verification, error) {
	cert, err := i.Store.GetByCertificateID(ctx, strings.ToUpper(strings.TrimSpace(certificateID)))
	if err != nil {
		return Verification{}, err
	}
	holder, err := i.Store.GetHolder(ctx, cert.EmployeeID)
	if err != nil {
		return Verification{}, err
	}
	today := i.Now().UTC()
	return Verification{
		Certificate: cert,
		HolderName:  holder.FullName(),
		Valid:       VerificationHash(cert) == cert.VerificationHash,
		Expired:     cert.ExpiryDate != nil && cert.ExpiryDate.Before(today),
	}, nil
}
