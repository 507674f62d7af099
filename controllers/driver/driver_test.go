package driver

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"lastmile-address/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupTestApp(t *testing.T) (*fiber.App, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	mock.MatchExpectationsInOrder(false)

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	controller := NewDriverController(gdb, logger.NewAsyncLogger(gdb))

	app := fiber.New()
	app.Post("/api/driver/check-pending-feedback", controller.CheckPendingFeedback)
	app.Post("/api/driver/lookup-address", controller.LookupAddress)
	app.Post("/api/driver/feedback", controller.SubmitFeedback)
	app.Post("/api/driver/complete-alternate", controller.CompleteAlternate)

	return app, mock, func() { db.Close() }
}

func postJSON(t *testing.T, app *fiber.App, path string, payload map[string]interface{}) (int, map[string]interface{}) {
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	return resp.StatusCode, decoded
}

var lookupColumns = []string{
	"id", "shipment_number", "driver_id", "company_name",
	"address_digital_id", "status", "delivery_status",
}

func TestCheckPendingFeedback_Locked(t *testing.T) {
	app, mock, cleanup := setupTestApp(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT \* FROM "shipment_lookups"`).
		WillReturnRows(sqlmock.NewRows(lookupColumns).
			AddRow(42, "SHP-1001", "drv-9", "aramex", "ACDEFGHJ", "pending_feedback", nil))

	status, body := postJSON(t, app, "/api/driver/check-pending-feedback", map[string]interface{}{
		"driver_id":    "DRV-9",
		"company_name": "Aramex",
	})

	assert.Equal(t, fiber.StatusOK, status)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, true, data["has_pending_feedback"])
	pending := data["pending_lookup"].(map[string]interface{})
	assert.Equal(t, float64(42), pending["id"])

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckPendingFeedback_Clear(t *testing.T) {
	app, mock, cleanup := setupTestApp(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT \* FROM "shipment_lookups"`).
		WillReturnRows(sqlmock.NewRows(lookupColumns))

	status, body := postJSON(t, app, "/api/driver/check-pending-feedback", map[string]interface{}{
		"driver_id":    "drv-9",
		"company_name": "aramex",
	})

	assert.Equal(t, fiber.StatusOK, status)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, false, data["has_pending_feedback"])

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckPendingFeedback_ValidationFailure(t *testing.T) {
	app, mock, cleanup := setupTestApp(t)
	defer cleanup()

	status, _ := postJSON(t, app, "/api/driver/check-pending-feedback", map[string]interface{}{
		"driver_id": "drv-9",
	})

	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.NoError(t, mock.ExpectationsWereMet(), "validation failures must not touch the database")
}

func TestLookupAddress_BlockedByPendingFeedback(t *testing.T) {
	app, mock, cleanup := setupTestApp(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "shipment_lookups"`).
		WillReturnRows(sqlmock.NewRows(lookupColumns).
			AddRow(7, "SHP-0001", "drv-9", "aramex", "ACDEFGHJ", "pending_feedback", nil))
	mock.ExpectCommit()

	status, body := postJSON(t, app, "/api/driver/lookup-address", map[string]interface{}{
		"shipment_number": "SHP-0002",
		"driver_id":       "drv-9",
		"company_name":    "aramex",
		"digital_id":      "ACDEFGHJ",
	})

	assert.Equal(t, fiber.StatusForbidden, status)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, true, data["requires_feedback"])
	assert.Equal(t, float64(7), data["pending_lookup_id"])

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLookupAddress_UnknownCompanyDenied(t *testing.T) {
	app, mock, cleanup := setupTestApp(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "shipment_lookups"`).
		WillReturnRows(sqlmock.NewRows(lookupColumns))
	mock.ExpectQuery(`SELECT \* FROM "company_profiles"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "uuid", "name"}))
	mock.ExpectCommit()

	status, _ := postJSON(t, app, "/api/driver/lookup-address", map[string]interface{}{
		"shipment_number": "SHP-0002",
		"driver_id":       "drv-9",
		"company_name":    "no-such-courier",
		"digital_id":      "ACDEFGHJ",
	})

	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLookupAddress_InactiveDriverDenied(t *testing.T) {
	app, mock, cleanup := setupTestApp(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "shipment_lookups"`).
		WillReturnRows(sqlmock.NewRows(lookupColumns))
	mock.ExpectQuery(`SELECT \* FROM "company_profiles"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "uuid", "name", "is_active"}).
			AddRow(3, "c0ffee00-0000-0000-0000-000000000001", "aramex", true))
	mock.ExpectQuery(`SELECT \* FROM "company_drivers"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "company_profile_id", "driver_id", "name", "phone", "status"}).
			AddRow(11, 3, "drv-9", "Driver Nine", "0512345678", "suspended"))
	mock.ExpectCommit()

	status, _ := postJSON(t, app, "/api/driver/lookup-address", map[string]interface{}{
		"shipment_number": "SHP-0002",
		"driver_id":       "drv-9",
		"company_name":    "aramex",
		"digital_id":      "ACDEFGHJ",
	})

	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLookupAddress_InvalidDigitalID(t *testing.T) {
	app, mock, cleanup := setupTestApp(t)
	defer cleanup()

	status, _ := postJSON(t, app, "/api/driver/lookup-address", map[string]interface{}{
		"shipment_number": "SHP-0002",
		"driver_id":       "drv-9",
		"company_name":    "aramex",
		"digital_id":      "TOOSHORT1", // 9 chars
	})

	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitFeedback_AlreadyCompleted(t *testing.T) {
	app, mock, cleanup := setupTestApp(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "shipment_lookups"`).
		WillReturnRows(sqlmock.NewRows(lookupColumns).
			AddRow(42, "SHP-1001", "drv-9", "aramex", "ACDEFGHJ", "completed", "delivered"))
	mock.ExpectCommit()

	status, _ := postJSON(t, app, "/api/driver/feedback", map[string]interface{}{
		"lookup_id":         42,
		"delivery_status":   "delivered",
		"location_score":    5,
		"customer_behavior": "cooperative",
	})

	assert.Equal(t, fiber.StatusConflict, status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLookupAddress_StoresCanonicalIdentityAndHidesOwner(t *testing.T) {
	app, mock, cleanup := setupTestApp(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "shipment_lookups"`).
		WillReturnRows(sqlmock.NewRows(lookupColumns))
	mock.ExpectQuery(`SELECT \* FROM "company_profiles"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "uuid", "name", "is_active"}).
			AddRow(3, "c0ffee00-0000-0000-0000-000000000001", "Aramex", true))
	mock.ExpectQuery(`SELECT \* FROM "company_drivers"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "company_profile_id", "driver_id", "name", "phone", "status"}).
			AddRow(11, 3, "drv-9", "Driver Nine", "0512345678", "active"))
	mock.ExpectQuery(`SELECT \* FROM "addresses"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "digital_id", "user_id", "text_address", "is_primary"}).
			AddRow(5, "ACDEFGHJ", 2, "Building 4, Olaya St", true))
	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "uuid", "username", "name", "phone", "email"}).
			AddRow(2, "deadbeef-0000-0000-0000-000000000002", "owner1", "Address Owner", "0598765432", "owner@example.com"))
	// The padded hints from the request never reach the row: the driver id is
	// stored normalized and the company name as registered.
	mock.ExpectQuery(`INSERT INTO "shipment_lookups"`).
		WithArgs("SHP-0002", "drv-9", "Aramex", "ACDEFGHJ", "pending_feedback", nil,
			sqlmock.AnyArg(), sqlmock.AnyArg(), nil).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))
	mock.ExpectCommit()
	mock.ExpectQuery(`SELECT \* FROM "fallback_contacts"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "address_id", "name", "phone"}))

	status, body := postJSON(t, app, "/api/driver/lookup-address", map[string]interface{}{
		"shipment_number": "SHP-0002",
		"driver_id":       " DRV-9 ",
		"company_name":    " aramex ",
		"digital_id":      "ACDEFGHJ",
	})

	assert.Equal(t, fiber.StatusOK, status)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(42), data["lookup_id"])

	userInfo := data["user"].(map[string]interface{})
	assert.Equal(t, "Address Owner", userInfo["name"])
	assert.Equal(t, "0598765432", userInfo["phone"])
	assert.Len(t, userInfo, 3, "only name, phone and email may be exposed")

	addrPayload := data["address"].(map[string]interface{})
	assert.NotContains(t, addrPayload, "user", "owner account must not serialize with the address")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLookupAddress_RaceLostReturnsFeedbackRequired(t *testing.T) {
	app, mock, cleanup := setupTestApp(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "shipment_lookups"`).
		WillReturnRows(sqlmock.NewRows(lookupColumns))
	mock.ExpectQuery(`SELECT \* FROM "company_profiles"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "uuid", "name", "is_active"}).
			AddRow(3, "c0ffee00-0000-0000-0000-000000000001", "Aramex", true))
	mock.ExpectQuery(`SELECT \* FROM "company_drivers"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "company_profile_id", "driver_id", "name", "phone", "status"}).
			AddRow(11, 3, "drv-9", "Driver Nine", "0512345678", "active"))
	mock.ExpectQuery(`SELECT \* FROM "addresses"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "digital_id", "user_id", "text_address", "is_primary"}).
			AddRow(5, "ACDEFGHJ", 2, "Building 4, Olaya St", true))
	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "uuid", "username", "name", "phone", "email"}).
			AddRow(2, "deadbeef-0000-0000-0000-000000000002", "owner1", "Address Owner", "0598765432", "owner@example.com"))
	// A concurrent lookup won the insert; the partial unique index rejects
	// this one with a unique violation.
	mock.ExpectQuery(`INSERT INTO "shipment_lookups"`).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()
	mock.ExpectQuery(`SELECT \* FROM "shipment_lookups"`).
		WillReturnRows(sqlmock.NewRows(lookupColumns).
			AddRow(7, "SHP-0001", "drv-9", "Aramex", "ACDEFGHJ", "pending_feedback", nil))

	status, body := postJSON(t, app, "/api/driver/lookup-address", map[string]interface{}{
		"shipment_number": "SHP-0002",
		"driver_id":       "drv-9",
		"company_name":    "aramex",
		"digital_id":      "ACDEFGHJ",
	})

	assert.Equal(t, fiber.StatusForbidden, status)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, true, data["requires_feedback"])
	assert.Equal(t, float64(7), data["pending_lookup_id"])

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitFeedback_FailureReasonRequired(t *testing.T) {
	app, mock, cleanup := setupTestApp(t)
	defer cleanup()

	status, body := postJSON(t, app, "/api/driver/feedback", map[string]interface{}{
		"lookup_id":         42,
		"delivery_status":   "failed",
		"location_score":    2,
		"customer_behavior": "unreachable",
	})

	assert.Equal(t, fiber.StatusBadRequest, status)
	data := body["data"].(map[string]interface{})
	assert.Contains(t, data, "failurereason")
	assert.NoError(t, mock.ExpectationsWereMet())
}

var attemptColumns = []string{
	"id", "lookup_id", "contact_id", "status", "primary_failure_reason",
}

func TestSubmitFeedback_BlockedByActiveAttempt(t *testing.T) {
	app, mock, cleanup := setupTestApp(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "shipment_lookups"`).
		WillReturnRows(sqlmock.NewRows(lookupColumns).
			AddRow(42, "SHP-1001", "drv-9", "Aramex", "ACDEFGHJ", "pending_feedback", nil))
	mock.ExpectQuery(`SELECT \* FROM "alternate_attempts"`).
		WillReturnRows(sqlmock.NewRows(attemptColumns).
			AddRow(9, 42, 5, "in_progress", "recipient_unreachable"))
	mock.ExpectCommit()

	status, _ := postJSON(t, app, "/api/driver/feedback", map[string]interface{}{
		"lookup_id":         42,
		"delivery_status":   "delivered",
		"location_score":    5,
		"customer_behavior": "cooperative",
	})

	assert.Equal(t, fiber.StatusConflict, status)
	assert.NoError(t, mock.ExpectationsWereMet(), "no feedback or outcome rows may be written while an attempt is open")
}

func TestCompleteAlternate_LookupAlreadyCompleted(t *testing.T) {
	app, mock, cleanup := setupTestApp(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "alternate_attempts"`).
		WillReturnRows(sqlmock.NewRows(attemptColumns).
			AddRow(9, 42, 5, "in_progress", "recipient_unreachable"))
	mock.ExpectQuery(`SELECT \* FROM "shipment_lookups"`).
		WillReturnRows(sqlmock.NewRows(lookupColumns).
			AddRow(42, "SHP-1001", "drv-9", "Aramex", "ACDEFGHJ", "completed", "delivered"))
	mock.ExpectCommit()

	status, _ := postJSON(t, app, "/api/driver/complete-alternate", map[string]interface{}{
		"attempt_id":        9,
		"delivery_status":   "delivered",
		"location_score":    4,
		"customer_behavior": "cooperative",
	})

	assert.Equal(t, fiber.StatusConflict, status)
	assert.NoError(t, mock.ExpectationsWereMet(), "a closed lookup must not gain a second outcome")
}
