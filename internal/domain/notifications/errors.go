package notifications

import (
	"fmt"

	"talent/internal/domain/apperror"
)

var ErrNotificationNotFound = fmt.Errorf("notification %w", apperror.ErrNotFound)
