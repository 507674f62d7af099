package constants

// Organization permissions
const (
	// Admin permissions
	PermSuperAdminFull = "lastmile.super-admin.full-permit"
	PermOperatorFull   = "lastmile.operator.full-permit"
	PermCompanyFull    = "lastmile.company.full-permit"
	PermUserFull       = "lastmile.user.full-permit"

	// Special permissions
	PermAny = "any"
)

// Permission groups for convenience
var (
	CompanyPortalPermissions = []string{
		PermSuperAdminFull,
		PermOperatorFull,
		PermCompanyFull,
	}
)
