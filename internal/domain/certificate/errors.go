package certificate

import (
	"fmt"

	"talent/internal/domain/apperror"
)

var (
	ErrCertificateNotFound = fmt.Errorf("certificate %w", apperror.ErrNotFound)
	ErrSubjectNotFound     = fmt.Errorf("certificate subject %w", apperror.ErrNotFound)
	ErrHolderNotFound      = fmt.Errorf("employee %w", apperror.ErrNotFound)
)
