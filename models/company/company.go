package company

import (
	"strings"
	"time"
)

// CompanyProfile represents a logistics company account. Subscription and
// payment confirmation happen on the billing side; only the resulting plan
// code and active flag are mirrored here.
type CompanyProfile struct {
	ID       uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	Uuid     string  `gorm:"type:varchar(255);not null;unique" json:"uuid"`
	Name     string  `gorm:"type:varchar(255);not null;unique" json:"name"`
	Email    *string `gorm:"type:varchar(255)" json:"email,omitempty"`
	Phone    *string `gorm:"type:varchar(20)" json:"phone,omitempty"`
	PlanCode string  `gorm:"type:varchar(50);not null;default:basic" json:"plan_code"`
	IsActive bool    `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"deleted_at,omitempty"`
}

// DriverStatus represents the lifecycle state of a company driver.
type DriverStatus string

const (
	DriverStatusActive    DriverStatus = "active"
	DriverStatusInactive  DriverStatus = "inactive"
	DriverStatusSuspended DriverStatus = "suspended"
)

func (ds DriverStatus) String() string {
	return string(ds)
}

func (ds DriverStatus) IsValid() bool {
	switch ds {
	case DriverStatusActive, DriverStatusInactive, DriverStatusSuspended:
		return true
	default:
		return false
	}
}

// CanDeliver returns true if the driver may pass the lookup gate.
func (ds DriverStatus) CanDeliver() bool {
	return ds == DriverStatusActive
}

// CompanyDriver is a driver registered under a company profile. DriverID is
// company-scoped and compared case-insensitively; uniqueness per company is
// enforced by a functional index on (company_profile_id, LOWER(driver_id)).
type CompanyDriver struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	// Foreign key for company relationship
	CompanyProfileID uint           `gorm:"not null;index" json:"company_profile_id"`
	Company          CompanyProfile `gorm:"foreignKey:CompanyProfileID" json:"company"`

	DriverID string       `gorm:"type:varchar(100);not null" json:"driver_id"`
	Name     string       `gorm:"type:varchar(255);not null" json:"name"`
	Phone    string       `gorm:"type:varchar(20);not null" json:"phone"`
	Status   DriverStatus `gorm:"type:varchar(20);not null;default:active" json:"status"`

	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"deleted_at,omitempty"`
}

// NormalizeDriverID canonicalizes a driver id for comparisons.
func NormalizeDriverID(driverID string) string {
	return strings.ToLower(strings.TrimSpace(driverID))
}

// NormalizeCompanyName canonicalizes a company name hint for comparisons. The
// hint is untrusted; registry membership is the actual trust boundary.
func NormalizeCompanyName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
