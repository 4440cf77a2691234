package certificate

import "time"

type Certificate struct {
	ID               string     `json:"id"`
	CertificateID    string     `json:"certificateId"`
	EmployeeID       string     `json:"employeeId"`
	Type             string     `json:"type"`
	CourseID         *string    `json:"courseId,omitempty"`
	PathID           *string    `json:"pathId,omitempty"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	IssuedDate       time.Time  `json:"issuedDate"`
	ExpiryDate       *time.Time `json:"expiryDate,omitempty"`
	VerificationHash string     `json:"verificationHash"`
	FileURL          string     `json:"fileUrl"`
}

// SubjectID is the course or path the certificate was issued for.
func (c Certificate) SubjectID() string {
	if c.CourseID != nil {
		return *c.CourseID
	}
	if c.PathID != nil {
		return *c.PathID
	}
	return ""
}

// Metadata is the certificate part of a course or path metadata document.
type Metadata struct {
	CertificateEnabled     bool   `json:"certificate_enabled"`
	CertificateTitle       string `json:"certificate_title"`
	CertificateDescription string `json:"certificate_description"`
	ValidityMonths         int    `json:"validity_months"`
}

// Subject is the course or learning path a certificate is issued for.
type Subject struct {
	Type     string
	ID       string
	Name     string
	Metadata Metadata
}

type Holder struct {
	EmployeeID string
	FirstName  string
	LastName   string
}

func (h Holder) FullName() string {
	switch {
	case h.FirstName == "":
		return h.LastName
	case h.LastName == "":
		return h.FirstName
	}
	return h.FirstName + " " + h.LastName
}

type Verification struct {
	Certificate Certificate `json:"certificate"`
	HolderName  string      `json:"holderName"`
	Valid       bool        `json:"valid"`
	Expired     bool        `json:"expired"`
}
