package endpoints

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dune-pebbler/izi-casting/internal/http/api/admin/packets"
	"github.com/Dune-pebbler/izi-casting/internal/model"
	"github.com/Dune-pebbler/izi-casting/internal/pairing"
	"github.com/Dune-pebbler/izi-casting/internal/store"
)

func newDeviceRouter(st store.Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterDeviceRoutes(r, st)
	return r
}

func putDeviceDoc(t *testing.T, st store.Store, device model.Device) {
	t.Helper()
	doc, err := json.Marshal(device)
	require.NoError(t, err)
	require.NoError(t, st.Put(context.Background(), store.DeviceKey(device.ID), doc, false))
}

func doJSON(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestListDevices(t *testing.T) {
	st := store.NewMemStore()
	r := newDeviceRouter(st)

	putDeviceDoc(t, st, model.Device{ID: "d1", CustomName: "lobby", IsPaired: true, LastSeen: time.Now()})
	putDeviceDoc(t, st, model.Device{ID: "d2", DisplayPairingCode: "12345"})

	w := doJSON(r, http.MethodGet, "/devices", "")
	require.Equal(t, http.StatusOK, w.Code)

	var out []packets.DeviceResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out, 2)
	assert.Equal(t, "d1", out[0].ID)
	assert.True(t, out[0].Online)
	assert.Equal(t, "lobby", out[0].CustomName)
	assert.False(t, out[1].Online)
	assert.Equal(t, "12345", out[1].DisplayPairingCode)
}

func TestPairDevice(t *testing.T) {
	st := store.NewMemStore()
	r := newDeviceRouter(st)

	putDeviceDoc(t, st, model.Device{ID: "d1"})
	g := pairing.NewGenerator(st, "d1", nil)
	require.NoError(t, g.Generate(context.Background()))
	code := g.State().Code

	w := doJSON(r, http.MethodPost, "/devices/pair", `{"code":"`+code+`"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var out packets.PairDeviceResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, "d1", out.DeviceID)

	// same code again is a conflict
	w = doJSON(r, http.MethodPost, "/devices/pair", `{"code":"`+code+`"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestPairDeviceErrorMapping(t *testing.T) {
	st := store.NewMemStore()
	r := newDeviceRouter(st)

	// unknown code
	w := doJSON(r, http.MethodPost, "/devices/pair", `{"code":"00000"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// expired code
	pc := model.PairingCode{Code: "54321", DeviceID: "d1", ExpiresAt: time.Now().Add(-time.Minute)}
	doc, err := json.Marshal(pc)
	require.NoError(t, err)
	require.NoError(t, st.Put(context.Background(), store.PairingKey(pc.Code), doc, false))
	w = doJSON(r, http.MethodPost, "/devices/pair", `{"code":"54321"}`)
	assert.Equal(t, http.StatusGone, w.Code)

	// malformed body
	w = doJSON(r, http.MethodPost, "/devices/pair", `{`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnpairDevice(t *testing.T) {
	st := store.NewMemStore()
	r := newDeviceRouter(st)
	putDeviceDoc(t, st, model.Device{ID: "d1", IsPaired: true, IsLinked: true})

	w := doJSON(r, http.MethodPost, "/devices/d1/unpair", "")
	require.Equal(t, http.StatusOK, w.Code)

	doc, ok, err := st.Get(context.Background(), store.DeviceKey("d1"))
	require.NoError(t, err)
	require.True(t, ok)
	var device model.Device
	require.NoError(t, json.Unmarshal(doc, &device))
	assert.False(t, device.IsPaired)
}

func TestRenameDevice(t *testing.T) {
	st := store.NewMemStore()
	r := newDeviceRouter(st)
	putDeviceDoc(t, st, model.Device{ID: "d1", IsPaired: true})

	w := doJSON(r, http.MethodPut, "/devices/d1/name", `{"customName":"entrance"}`)
	require.Equal(t, http.StatusOK, w.Code)

	doc, _, err := st.Get(context.Background(), store.DeviceKey("d1"))
	require.NoError(t, err)
	var device model.Device
	require.NoError(t, json.Unmarshal(doc, &device))
	assert.Equal(t, "entrance", device.CustomName)
	// rename is a merge, pairing state stays
	assert.True(t, device.IsPaired)
}

func TestSendCommand(t *testing.T) {
	st := store.NewMemStore()
	r := newDeviceRouter(st)

	w := doJSON(r, http.MethodPost, "/devices/d1/command", `{"command":"restart_slides"}`)
	require.Equal(t, http.StatusOK, w.Code)

	doc, ok, err := st.Get(context.Background(), store.CommandKey("d1"))
	require.NoError(t, err)
	require.True(t, ok)
	var cmd model.DeviceCommand
	require.NoError(t, json.Unmarshal(doc, &cmd))
	assert.Equal(t, model.CommandRestartSlides, cmd.Command)
	assert.False(t, cmd.Processed)
}
