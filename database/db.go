package database

import (
	"fmt"
	"os"

	"lastmile-address/logger"
	addressModel "lastmile-address/models/address"
	companyModel "lastmile-address/models/company"
	contactModel "lastmile-address/models/contact"
	deliveryModel "lastmile-address/models/delivery"
	logModel "lastmile-address/models/log"
	userModel "lastmile-address/models/user"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// InitDB initializes the database connection with auto migration and indexing
func InitDB() (*gorm.DB, error) {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		logger.Error("Error loading .env file", err)
	}

	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	database := os.Getenv("DB_DATABASE")
	user := os.Getenv("DB_USERNAME")
	password := os.Getenv("DB_PASSWORD")
	sslmode := os.Getenv("DB_SSLMODE") // Optional: "disable", "require", etc.

	if sslmode == "" {
		sslmode = "disable"
	}

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, database, sslmode)

	var err error
	// TranslateError surfaces unique violations as gorm.ErrDuplicatedKey.
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		logger.Error("Failed to connect to the database", err)
		return nil, err
	}
	logger.Success("Successfully connected to the database")

	if err := autoMigrate(); err != nil {
		logger.Error("Failed to run migrations", err)
		return nil, err
	}
	logger.Success("All migrations completed successfully")

	if err := createForeignKeyConstraints(); err != nil {
		logger.Error("Failed to create foreign key constraints", err)
		return nil, err
	}
	logger.Success("All foreign key constraints created successfully")

	if err := createIndexes(); err != nil {
		logger.Error("Failed to create indexes", err)
		return nil, err
	}
	logger.Success("All indexes created successfully")

	return DB, nil
}

// autoMigrate runs auto migration for all models in dependency order
func autoMigrate() error {
	// Stage 1: Core foundation models
	stage1Models := []interface{}{
		&userModel.User{},
		&companyModel.CompanyProfile{},
	}

	for _, model := range stage1Models {
		if err := DB.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}

	// Stage 2: Models with dependencies on Stage 1
	stage2Models := []interface{}{
		&addressModel.Address{},
		&companyModel.CompanyDriver{},
	}

	for _, model := range stage2Models {
		if err := DB.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}

	// Stage 3: Delivery workflow models
	stage3Models := []interface{}{
		&contactModel.FallbackContact{},
		&deliveryModel.ShipmentLookup{},
		&deliveryModel.DriverFeedback{},
		&deliveryModel.AlternateAttempt{},
		&deliveryModel.DeliveryOutcome{},
	}

	for _, model := range stage3Models {
		if err := DB.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}

	// Remaining models
	remainingModels := []interface{}{
		// Logging
		&logModel.Log{},
	}

	for _, model := range remainingModels {
		if err := DB.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}

	return nil
}

// createIndexes creates additional indexes for better performance and for
// the invariants the workflow relies on
func createIndexes() error {
	// At most one pending lookup per (driver, company) pair. The lookup gate
	// checks this in a transaction; the partial unique index closes the race
	// between two concurrent lookups from the same driver.
	if err := DB.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS uq_shipment_lookups_pending
		ON shipment_lookups (LOWER(driver_id), LOWER(company_name))
		WHERE status = 'pending_feedback'`).Error; err != nil {
		return fmt.Errorf("failed to create pending lookup unique index: %w", err)
	}

	// Driver ids are company-scoped and case-insensitive unique.
	if err := DB.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS uq_company_drivers_driver_id
		ON company_drivers (company_profile_id, LOWER(driver_id))
		WHERE deleted_at IS NULL`).Error; err != nil {
		return fmt.Errorf("failed to create company driver unique index: %w", err)
	}

	// Address indexes
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_addresses_digital_id ON addresses(digital_id)").Error; err != nil {
		return fmt.Errorf("failed to create address digital_id index: %w", err)
	}
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_addresses_user_primary ON addresses(user_id, is_primary)").Error; err != nil {
		return fmt.Errorf("failed to create address user/primary index: %w", err)
	}

	// Lookup indexes
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_shipment_lookups_status ON shipment_lookups(status)").Error; err != nil {
		return fmt.Errorf("failed to create lookup status index: %w", err)
	}
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_shipment_lookups_created_at ON shipment_lookups(created_at)").Error; err != nil {
		return fmt.Errorf("failed to create lookup created_at index: %w", err)
	}

	// Aggregation indexes (company-scoped reads group by address digital id)
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_driver_feedbacks_company_address ON driver_feedbacks(company_name, address_digital_id)").Error; err != nil {
		return fmt.Errorf("failed to create feedback company/address index: %w", err)
	}
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_delivery_outcomes_company_address ON delivery_outcomes(company_name, address_digital_id)").Error; err != nil {
		return fmt.Errorf("failed to create outcome company/address index: %w", err)
	}

	// Log indexes
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_logs_status_code ON logs(status_code)").Error; err != nil {
		return fmt.Errorf("failed to create log status_code index: %w", err)
	}
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_logs_created_at ON logs(created_at)").Error; err != nil {
		return fmt.Errorf("failed to create log created_at index: %w", err)
	}

	return nil
}

// createForeignKeyConstraints creates foreign key constraints after auto migration
func createForeignKeyConstraints() error {
	constraints := []struct {
		name string
		sql  string
	}{
		{
			name: "fk_addresses_user",
			sql: `ALTER TABLE addresses ADD CONSTRAINT fk_addresses_user
				  FOREIGN KEY (user_id) REFERENCES users(id)
				  ON UPDATE CASCADE ON DELETE RESTRICT`,
		},
		{
			name: "fk_fallback_contacts_address",
			sql: `ALTER TABLE fallback_contacts ADD CONSTRAINT fk_fallback_contacts_address
				  FOREIGN KEY (address_id) REFERENCES addresses(id)
				  ON UPDATE CASCADE ON DELETE CASCADE`,
		},
		{
			name: "fk_company_drivers_company",
			sql: `ALTER TABLE company_drivers ADD CONSTRAINT fk_company_drivers_company
				  FOREIGN KEY (company_profile_id) REFERENCES company_profiles(id)
				  ON UPDATE CASCADE ON DELETE RESTRICT`,
		},
		{
			name: "fk_driver_feedbacks_lookup",
			sql: `ALTER TABLE driver_feedbacks ADD CONSTRAINT fk_driver_feedbacks_lookup
				  FOREIGN KEY (lookup_id) REFERENCES shipment_lookups(id)
				  ON UPDATE CASCADE ON DELETE RESTRICT`,
		},
		{
			name: "fk_alternate_attempts_lookup",
			sql: `ALTER TABLE alternate_attempts ADD CONSTRAINT fk_alternate_attempts_lookup
				  FOREIGN KEY (lookup_id) REFERENCES shipment_lookups(id)
				  ON UPDATE CASCADE ON DELETE RESTRICT`,
		},
		{
			name: "fk_alternate_attempts_contact",
			sql: `ALTER TABLE alternate_attempts ADD CONSTRAINT fk_alternate_attempts_contact
				  FOREIGN KEY (contact_id) REFERENCES fallback_contacts(id)
				  ON UPDATE CASCADE ON DELETE RESTRICT`,
		},
	}

	for _, constraint := range constraints {
		var exists bool
		checkSQL := `
			SELECT EXISTS (
				SELECT 1 FROM information_schema.table_constraints
				WHERE constraint_name = $1
			)
		`

		err := DB.Raw(checkSQL, constraint.name).Scan(&exists).Error
		if err != nil {
			logger.Warning(fmt.Sprintf("Failed to check constraint existence: %s - Error: %v", constraint.name, err))
			continue
		}

		if !exists {
			if err := DB.Exec(constraint.sql).Error; err != nil {
				logger.Warning(fmt.Sprintf("Failed to create constraint: %s - Error: %v", constraint.name, err))
			} else {
				logger.Success(fmt.Sprintf("Successfully created constraint: %s", constraint.name))
			}
		}
	}

	return nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}
