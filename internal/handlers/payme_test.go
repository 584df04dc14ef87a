package handlers

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/piala/internal/config"
	"github.com/example/piala/internal/middleware"
	"github.com/example/piala/internal/models"
)

func newPaymeTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Order{}))

	cfg := &config.Config{
		PaymeMerchantKey:   "prod-key",
		PaymeTestKey:       "sandbox-key",
		PaymeAmountScale:   100,
		ReceiptItemCode:    "06912001036000000",
		ReceiptPackageCode: "1184747",
		ReceiptVATPercent:  12,
	}

	app := fiber.New()
	app.Post("/api/payme/pay", middleware.PaymeAuthMiddleware(cfg), NewPaymeHandler(db, cfg, nil).Callback)
	return app, db
}

func providerAuth() string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte("Paycom:prod-key"))
}

type envelope struct {
	ID     any             `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int               `json:"code"`
		Message map[string]string `json:"message"`
		Data    any               `json:"data"`
	} `json:"error"`
}

func postCallback(t *testing.T, app *fiber.App, body string, auth string) envelope {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/payme/pay", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	// Domain failures still answer HTTP 200.
	require.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var env envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	return env
}

func TestCallbackUnauthorized(t *testing.T) {
	app, db := newPaymeTestApp(t)

	order := models.Order{ProductName: "Piala", Price: 1000, Quantity: 1, Amount: 1000, Status: models.OrderStatusPending}
	require.NoError(t, db.Create(&order).Error)

	body := `{"method":"CheckPerformTransaction","params":{"amount":100000,"account":{"order_id":"` + order.ID.String() + `"}},"id":7}`

	for _, auth := range []string{"", "Basic garbage", "Basic " + base64.StdEncoding.EncodeToString([]byte("Paycom:wrong"))} {
		env := postCallback(t, app, body, auth)
		require.NotNil(t, env.Error)
		assert.Equal(t, -32504, env.Error.Code)
		assert.Equal(t, "null", string(env.Result))
	}

	// The gate runs before the store: the order stays untouched.
	var fresh models.Order
	require.NoError(t, db.Where("id = ?", order.ID).First(&fresh).Error)
	assert.Equal(t, models.OrderStatusPending, fresh.Status)
}

func TestCallbackUnknownMethod(t *testing.T) {
	app, _ := newPaymeTestApp(t)

	env := postCallback(t, app, `{"method":"SettleBatch","params":{},"id":42}`, providerAuth())
	require.NotNil(t, env.Error)
	assert.Equal(t, -32601, env.Error.Code)
	assert.Equal(t, "SettleBatch", env.Error.Data)
	assert.Equal(t, float64(42), env.ID)
}

func TestCallbackParseError(t *testing.T) {
	app, _ := newPaymeTestApp(t)

	env := postCallback(t, app, `{"method": not-json`, providerAuth())
	require.NotNil(t, env.Error)
	assert.Equal(t, -32700, env.Error.Code)
	assert.Equal(t, float64(0), env.ID)
}

func TestCallbackFullLifecycle(t *testing.T) {
	app, db := newPaymeTestApp(t)

	order := models.Order{ProductName: "Piala", Price: 1000, Quantity: 1, Amount: 1000, Status: models.OrderStatusPending}
	require.NoError(t, db.Create(&order).Error)

	check := postCallback(t, app,
		`{"method":"CheckPerformTransaction","params":{"amount":100000,"account":{"order_id":"`+order.ID.String()+`"}},"id":1}`,
		providerAuth())
	require.Nil(t, check.Error)
	var checkResult struct {
		Allow bool `json:"allow"`
	}
	require.NoError(t, json.Unmarshal(check.Result, &checkResult))
	assert.True(t, checkResult.Allow)

	create := postCallback(t, app,
		`{"method":"CreateTransaction","params":{"id":"txn-1","time":1700000000000,"amount":100000,"account":{"order_id":"`+order.ID.String()+`"}},"id":2}`,
		providerAuth())
	require.Nil(t, create.Error)
	var createResult struct {
		CreateTime  int64  `json:"create_time"`
		Transaction string `json:"transaction"`
		State       int    `json:"state"`
	}
	require.NoError(t, json.Unmarshal(create.Result, &createResult))
	assert.Equal(t, 1, createResult.State)
	assert.Equal(t, "txn-1", createResult.Transaction)
	assert.NotZero(t, createResult.CreateTime)
	assert.Equal(t, float64(2), create.ID)

	perform := postCallback(t, app,
		`{"method":"PerformTransaction","params":{"id":"txn-1"},"id":3}`,
		providerAuth())
	require.Nil(t, perform.Error)
	var performResult struct {
		PerformTime int64 `json:"perform_time"`
		State       int   `json:"state"`
	}
	require.NoError(t, json.Unmarshal(perform.Result, &performResult))
	assert.Equal(t, 2, performResult.State)

	status := postCallback(t, app,
		`{"method":"CheckTransaction","params":{"id":"txn-1"},"id":4}`,
		providerAuth())
	require.Nil(t, status.Error)
	var statusResult struct {
		State  int  `json:"state"`
		Reason *int `json:"reason"`
	}
	require.NoError(t, json.Unmarshal(status.Result, &statusResult))
	assert.Equal(t, 2, statusResult.State)
	assert.Nil(t, statusResult.Reason)

	cancel := postCallback(t, app,
		`{"method":"CancelTransaction","params":{"id":"txn-1","reason":5},"id":5}`,
		providerAuth())
	require.Nil(t, cancel.Error)
	var cancelResult struct {
		State  int  `json:"state"`
		Reason *int `json:"reason"`
	}
	require.NoError(t, json.Unmarshal(cancel.Result, &cancelResult))
	assert.Equal(t, -2, cancelResult.State)
	require.NotNil(t, cancelResult.Reason)
	assert.Equal(t, 5, *cancelResult.Reason)

	var fresh models.Order
	require.NoError(t, db.Where("id = ?", order.ID).First(&fresh).Error)
	assert.Equal(t, models.OrderStatusRefunded, fresh.Status)
}

func TestCallbackChangePassword(t *testing.T) {
	app, _ := newPaymeTestApp(t)

	ok := postCallback(t, app,
		`{"method":"ChangePassword","params":{"password":"fresh-secret"},"id":1}`,
		providerAuth())
	require.Nil(t, ok.Error)
	var result struct {
		Success bool `json:"success"`
	}
	require.NoError(t, json.Unmarshal(ok.Result, &result))
	assert.True(t, result.Success)

	denied := postCallback(t, app,
		`{"method":"ChangePassword","params":{"password":"prod-key"},"id":2}`,
		providerAuth())
	require.NotNil(t, denied.Error)
	assert.Equal(t, -32400, denied.Error.Code)
	assert.Equal(t, "password", denied.Error.Data)
}

func TestCallbackInternalErrorEchoesRequestID(t *testing.T) {
	app, db := newPaymeTestApp(t)

	// Break the store so the service surfaces a raw database error.
	require.NoError(t, db.Migrator().DropTable(&models.Order{}))

	env := postCallback(t, app,
		`{"method":"CheckTransaction","params":{"id":"txn-1"},"id":77}`,
		providerAuth())
	require.NotNil(t, env.Error)
	assert.Equal(t, -31008, env.Error.Code)
	assert.Equal(t, float64(77), env.ID)
}

func TestCallbackGetStatementEmpty(t *testing.T) {
	app, _ := newPaymeTestApp(t)

	env := postCallback(t, app,
		`{"method":"GetStatement","params":{"from":0,"to":100},"id":9}`,
		providerAuth())
	require.Nil(t, env.Error)
	var result struct {
		Transactions []json.RawMessage `json:"transactions"`
	}
	require.NoError(t, json.Unmarshal(env.Result, &result))
	assert.NotNil(t, result.Transactions)
	assert.Empty(t, result.Transactions)
}
