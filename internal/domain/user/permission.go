package user

import "slices"

type Permission string

const (
	PermissionAttendanceViewOwn Permission = "attendance.view_own"
	PermissionAttendanceCreate  Permission = "attendance.create"
	PermissionAttendanceViewAll Permission = "attendance.view_all"
	PermissionAttendanceApprove Permission = "attendance.approve"
	PermissionAttendanceExport  Permission = "attendance.export"

	PermissionCorrectionRequest Permission = "correction.request"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleOwner: {
		PermissionAttendanceViewOwn,
		PermissionAttendanceCreate,
		PermissionAttendanceViewAll,
		PermissionAttendanceApprove,
		PermissionAttendanceExport,
		PermissionCorrectionRequest,
	},
	RoleManager: {
		PermissionAttendanceViewOwn,
		PermissionAttendanceCreate,
		PermissionAttendanceViewAll,
		PermissionAttendanceApprove,
		PermissionAttendanceExport,
		PermissionCorrectionRequest,
	},
	RoleEmployee: {
		PermissionAttendanceViewOwn,
		PermissionAttendanceCreate,
		PermissionCorrectionRequest,
	},
}

// HasPermission checks if a role has a specific permission
func HasPermission(role Role, permission Permission) bool {
	return slices.Contains(RolePermissions[role], permission)
}
