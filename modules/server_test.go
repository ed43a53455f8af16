package modules

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/CapsLock-Studio/sniper-dashboard/models"
	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) (*gin.Engine, *DB) {
	t.Helper()

	db := newTestDB(t)
	market := &fakeMarket{Price: 100}

	return NewHttp(NewEditor(db), NewDashboard(db, market, DEFAULT_BOT_INSTANCE), market).Router(), db
}

func request(router *gin.Engine, method, path, body string, operator bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	if operator {
		req.Header.Set("X-USER", "alice")
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &body))

	return body
}

func TestHealthz(t *testing.T) {
	router, _ := newTestRouter(t)

	w := request(router, http.MethodGet, "/healthz", "", false)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestEditsRequireOperator(t *testing.T) {
	router, _ := newTestRouter(t)

	w := request(router, http.MethodPut, "/config/strategy_config/trailing_cushion", `{"value":"0.2"}`, false)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = request(router, http.MethodGet, "/config", "", false)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestConfigRouteMasksSecrets(t *testing.T) {
	router, db := newTestRouter(t)
	secret := "5KQwrPbwdL6PhXujxW37FSSQZ1JiwsST4cqQzDeyXtP7"

	require.NoError(t, db.Upsert(context.Background(), models.TableBotConfig, "wallet_private_key", secret, nil))
	require.NoError(t, db.Upsert(context.Background(), models.TableBotConfig, "rpc_url", "https://rpc.example", nil))

	w := request(router, http.MethodGet, "/config", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), secret)

	bot := decode(t, w)["bot"].([]any)
	require.Len(t, bot, 2)
	assert.Equal(t, "https://rpc.example", bot[0].(map[string]any)["value"])
	assert.Equal(t, SECRET_MASK, bot[1].(map[string]any)["value"])
}

func TestCommitRoute(t *testing.T) {
	router, _ := newTestRouter(t)

	w := request(router, http.MethodPut, "/config/strategy_config/trailing_cushion", `{"value":"0.6"}`, true)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	body := decode(t, w)
	assert.Equal(t, "OutOfRange", body["rule"])
	assert.Equal(t, "trailing_cushion", body["key"])

	w = request(router, http.MethodPut, "/config/strategy_config/trailing_cushion", `{"value":"0.2"}`, true)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0.2", decode(t, w)["value"])

	w = request(router, http.MethodPut, "/config/strategy_config/active_strategy", `{"value":"Simple"}`, true)
	assert.Equal(t, http.StatusOK, w.Code)

	w = request(router, http.MethodGet, "/config", "", false)
	require.Equal(t, http.StatusOK, w.Code)

	body = decode(t, w)
	assert.Equal(t, "simple", body["activeStrategy"])
	assert.Equal(t, true, body["configured"])

	entries := body["strategy"].([]any)
	require.Len(t, entries, 2)

	cushion := entries[1].(map[string]any)
	assert.Equal(t, "trailing_cushion", cushion["key"])
	assert.Equal(t, "cushion", cushion["kind"])
	assert.Equal(t, false, cushion["inEffect"])

	w = request(router, http.MethodPut, "/config/users/name", `{"value":"x"}`, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = request(router, http.MethodPut, "/config/strategy_config/trailing_cushion", `{}`, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStoreFailureRoute(t *testing.T) {
	router, db := newTestRouter(t)
	db.Close()

	w := request(router, http.MethodPut, "/config/strategy_config/trailing_cushion", `{"value":"0.2"}`, true)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "could not save", decode(t, w)["error"])

	// validation still answers first
	w = request(router, http.MethodPut, "/config/strategy_config/trailing_cushion", `{"value":"0.9"}`, true)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestLevelRoutes(t *testing.T) {
	router, _ := newTestRouter(t)
	path := "/levels/trailing_take_profit_levels"

	w := request(router, http.MethodPost, path, "", true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"multiple":2,"percent":10}]`, w.Body.String())

	w = request(router, http.MethodPut, path+"/0", `{"field":"multiple","value":"0.5"}`, true)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "multiple", decode(t, w)["field"])

	w = request(router, http.MethodPut, path+"/0", `{"field":"percent","value":"50"}`, true)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"multiple":2,"percent":50}]`, w.Body.String())

	w = request(router, http.MethodPut, path+"/x", `{"field":"percent","value":"50"}`, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = request(router, http.MethodDelete, path+"/3", "", true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = request(router, http.MethodDelete, path+"/0", "", true)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = request(router, http.MethodPost, "/levels/trailing_cushion", "", true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWalletRoutes(t *testing.T) {
	router, _ := newTestRouter(t)

	w := request(router, http.MethodPost, "/wallets", `{"address":"short"}`, true)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "InvalidAddress", decode(t, w)["rule"])

	w = request(router, http.MethodPost, "/wallets", `{"address":"`+testAddress+`"}`, true)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "whale_wallet_1", decode(t, w)["key"])

	w = request(router, http.MethodDelete, "/config/strategy_config/trailing_cushion", "", true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = request(router, http.MethodDelete, "/config/bot_config/whale_wallet_1", "", true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = request(router, http.MethodDelete, "/config/strategy_config/whale_wallet_1", "", true)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = request(router, http.MethodPost, "/whales", `{"address":"`+testAddress+`"}`, true)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = request(router, http.MethodPut, "/whales/"+testAddress, `{"active":false}`, true)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = request(router, http.MethodPut, "/whales/unknown", `{"active":true}`, true)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = request(router, http.MethodGet, "/config", "", false)
	whales := decode(t, w)["whales"].([]any)
	require.Len(t, whales, 1)
	assert.Equal(t, "false", whales[0].(map[string]any)["value"])
}

func TestDashboardRoutes(t *testing.T) {
	router, db := newTestRouter(t)

	w := request(router, http.MethodGet, "/insights/unknown", "", false)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = request(router, http.MethodGet, "/heartbeat", "", false)
	assert.Equal(t, http.StatusNotFound, w.Code)

	mustExec(t, db, "INSERT INTO `trades`(token_mint, buy_price, sell_price) VALUES(?, ?, ?)", "MINT1", 0.01, 0.02)

	w = request(router, http.MethodGet, "/trades", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"buy_usd":1`)

	w = request(router, http.MethodGet, "/trades/export", "", false)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, XLSX_MIME, w.Header().Get("Content-Type"))

	w = request(router, http.MethodGet, "/sol-price", "", false)
	assert.Equal(t, 100.0, decode(t, w)["usd"])

	w = request(router, http.MethodGet, "/logs?q=nothing", "", false)
	assert.JSONEq(t, `[]`, w.Body.String())
}
