package auth

import "context"

const (
	RoleEmployee    = "employee"
	RoleManager     = "manager"
	RoleHR          = "hr"
	RoleHRBP        = "hrbp"
	RoleDirector    = "director"
	RoleFinance     = "finance"
	RoleSystemAdmin = "system_admin"
	RoleSuperAdmin  = "super_admin"
)

const (
	PermReviewRead       = "review.read"
	PermReviewSubmit     = "review.submit"
	PermReviewManage     = "review.manage"
	PermLearningRead     = "learning.read"
	PermLearningProgress = "learning.progress"
	PermLearningManage   = "learning.manage"
	PermPromotionRead    = "promotion.read"
	PermPromotionWrite   = "promotion.write"
	PermPromotionDecide  = "promotion.decide"
	PermCertificateRead  = "certificate.read"
	PermNotificationRead = "notification.read"
	PermSystemAdmin      = "admin.system"
)

var DefaultPermissions = []string{
	PermReviewRead,
	PermReviewSubmit,
	PermReviewManage,
	PermLearningRead,
	PermLearningProgress,
	PermLearningManage,
	PermPromotionRead,
	PermPromotionWrite,
	PermPromotionDecide,
	PermCertificateRead,
	PermNotificationRead,
	PermSystemAdmin,
}

var approverPermissions = []string{
	PermReviewRead,
	PermReviewSubmit,
	PermLearningRead,
	PermLearningProgress,
	PermPromotionRead,
	PermPromotionDecide,
	PermCertificateRead,
	PermNotificationRead,
}

var RolePermissions = map[string][]string{
	RoleEmployee: {
		PermReviewRead,
		PermReviewSubmit,
		PermLearningRead,
		PermLearningProgress,
		PermCertificateRead,
		PermNotificationRead,
	},
	RoleManager: {
		PermReviewRead,
		PermReviewSubmit,
		PermLearningRead,
		PermLearningProgress,
		PermPromotionRead,
		PermPromotionWrite,
		PermPromotionDecide,
		PermCertificateRead,
		PermNotificationRead,
	},
	RoleHRBP:     approverPermissions,
	RoleDirector: approverPermissions,
	RoleFinance:  approverPermissions,
	RoleHR: {
		PermReviewRead,
		PermReviewSubmit,
		PermReviewManage,
		PermLearningRead,
		PermLearningProgress,
		PermLearningManage,
		PermPromotionRead,
		PermPromotionWrite,
		PermPromotionDecide,
		PermCertificateRead,
		PermNotificationRead,
	},
	RoleSystemAdmin: DefaultPermissions,
	RoleSuperAdmin:  DefaultPermissions,
}

// OverrideRoles may decide any promotion approval and act on any enrollment.
var OverrideRoles = []string{RoleHR, RoleSystemAdmin, RoleSuperAdmin}

// StaticPermissions answers permission checks from RolePermissions without a
// database round trip.
type StaticPermissions struct{}

func (StaticPermissions) HasPermission(_ context.Context, roleName, permission string) (bool, error) {
	for _, perm := range RolePermissions[roleName] {
		if perm == permission {
			return true, nil
		}
	}
	return false, nil
}
