package address

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"lastmile-address/database"
	"lastmile-address/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const testOwnerUUID = "deadbeef-0000-0000-0000-000000000002"

func setupTestApp(t *testing.T) (*fiber.App, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	mock.MatchExpectationsInOrder(false)

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	// CurrentUser resolves claims through the package-level handle.
	prevDB := database.DB
	database.DB = gdb

	controller := NewAddressController(gdb, logger.NewAsyncLogger(gdb))

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user", map[string]interface{}{"uuid": testOwnerUUID})
		return c.Next()
	})
	app.Put("/api/addresses/:id", controller.Update)

	return app, mock, func() {
		database.DB = prevDB
		db.Close()
	}
}

func putJSON(t *testing.T, app *fiber.App, path string, payload map[string]interface{}) (int, map[string]interface{}) {
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest("PUT", path, bytes.NewReader(body))
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

func expectOwnerAndAddress(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "uuid", "username", "name", "phone"}).
			AddRow(2, testOwnerUUID, "owner1", "Address Owner", "0598765432"))
	mock.ExpectQuery(`SELECT \* FROM "addresses"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "digital_id", "user_id", "lat", "lng", "text_address", "is_primary"}).
			AddRow(5, "ACDEFGHJ", 2, 24.7136, 46.6753, "Building 4, Olaya St", true))
}

func TestUpdate_MovedLocationRepositionsContacts(t *testing.T) {
	app, mock, cleanup := setupTestApp(t)
	defer cleanup()

	expectOwnerAndAddress(mock)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "addresses"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// Stored contact placement predates the move: 2.224 km and no fee.
	// Against the new primary latitude the same contact sits past the free
	// distance, so its row must be rewritten in the same transaction.
	mock.ExpectQuery(`SELECT \* FROM "fallback_contacts"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "address_id", "name", "phone", "lat", "lng", "distance_km", "requires_extra_fee"}).
			AddRow(8, 5, "Neighbor", "0512345678", 24.7336, 46.6753, 2.224, false))
	mock.ExpectExec(`UPDATE "fallback_contacts"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	status, _ := putJSON(t, app, "/api/addresses/5", map[string]interface{}{
		"lat": 24.6936,
	})

	assert.Equal(t, fiber.StatusOK, status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_TextEditLeavesContactsAlone(t *testing.T) {
	app, mock, cleanup := setupTestApp(t)
	defer cleanup()

	expectOwnerAndAddress(mock)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "addresses"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	status, _ := putJSON(t, app, "/api/addresses/5", map[string]interface{}{
		"text_address": "Building 4, Olaya St, gate 2",
	})

	assert.Equal(t, fiber.StatusOK, status)
	assert.NoError(t, mock.ExpectationsWereMet(), "contacts must not be touched when coordinates are unchanged")
}
