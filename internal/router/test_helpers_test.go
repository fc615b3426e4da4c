package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/wso2/idcard-reissue-api/internal/admin"
	"github.com/wso2/idcard-reissue-api/internal/camera"
	"github.com/wso2/idcard-reissue-api/internal/config"
	"github.com/wso2/idcard-reissue-api/internal/events"
	"github.com/wso2/idcard-reissue-api/internal/kv"
	"github.com/wso2/idcard-reissue-api/internal/models"
	"github.com/wso2/idcard-reissue-api/internal/notify"
	"github.com/wso2/idcard-reissue-api/internal/store"
	"github.com/wso2/idcard-reissue-api/internal/wizard"
)

// TestEnvironment is a router wired to an in-memory store
type TestEnvironment struct {
	Router   *gin.Engine
	Store    *store.RequestStore
	Backend  *kv.MemoryBackend
	Wizards  *wizard.Registry
	Consoles *admin.Registry

	mu            sync.Mutex
	cameraEnabled bool
	cameras       []*camera.FrameBuffer
}

// SetupTestEnvironment builds the full router with short wizard timings.
// overrides run on the config before anything is wired.
func SetupTestEnvironment(t *testing.T, overrides ...func(*config.Config)) *TestEnvironment {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	cfg := config.Default()
	cfg.Wizard.CountdownTicks = 2
	cfg.Wizard.CountdownInterval = 5 * time.Millisecond
	cfg.Wizard.SubmitDelay = 10 * time.Millisecond
	cfg.Wizard.MaxDocumentBytes = 64 * 1024
	cfg.Wizard.MaxFrameBytes = 64 * 1024
	for _, override := range overrides {
		override(cfg)
	}

	ctx, cancel := context.WithCancel(context.Background())
	backend := kv.NewMemoryBackend()
	notifier := notify.NewHub()
	requests := store.NewRequestStore(backend, notifier, cfg.Storage.Namespace, logger)

	env := &TestEnvironment{Store: requests, Backend: backend, cameraEnabled: true}
	hub := events.NewHub(cfg.CORS.AllowedOrigins, logger)
	env.Wizards = wizard.NewRegistry(ctx, requests, env.newCamera, hub,
		wizard.OptionsFromConfig(&cfg.Wizard), cfg.Wizard.SessionIdleTimeout, logger)
	env.Consoles = admin.NewRegistry(admin.NewService(requests, admin.OptionsFromConfig(&cfg.Admin), logger))

	env.Router = SetupRouter(Dependencies{
		Config:   cfg,
		Logger:   logger,
		Wizards:  env.Wizards,
		Consoles: env.Consoles,
		Events:   hub,
		Health: func(ctx context.Context) error {
			_, err := requests.LoadAll(ctx)
			return err
		},
	})

	t.Cleanup(func() {
		env.Wizards.CloseAll()
		cancel()
		_ = notifier.Close()
	})
	return env
}

func (env *TestEnvironment) newCamera() camera.DeviceProvider {
	env.mu.Lock()
	defer env.mu.Unlock()
	fb := camera.NewFrameBuffer(env.cameraEnabled, camera.SyntheticFrame(60, 80))
	env.cameras = append(env.cameras, fb)
	return fb
}

// DisableCamera makes sessions created afterwards fail to acquire a device
func (env *TestEnvironment) DisableCamera() {
	env.mu.Lock()
	defer env.mu.Unlock()
	env.cameraEnabled = false
}

// LastCamera returns the device provider of the most recent session
func (env *TestEnvironment) LastCamera() *camera.FrameBuffer {
	env.mu.Lock()
	defer env.mu.Unlock()
	return env.cameras[len(env.cameras)-1]
}

// Seed stores records directly
func (env *TestEnvironment) Seed(t *testing.T, records ...models.RequestRecord) {
	t.Helper()
	require.NoError(t, env.Store.SaveAll(context.Background(), records))
}

// Do sends a JSON request (body may be nil) and returns the recorder
func (env *TestEnvironment) Do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Employee-ID", "HR-7")

	recorder := httptest.NewRecorder()
	env.Router.ServeHTTP(recorder, req)
	return recorder
}

// Decode parses a JSON response body into v
func Decode(t *testing.T, recorder *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), v), recorder.Body.String())
}

func record(id int64, date string, status models.Status) models.RequestRecord {
	d, err := models.ParseRequestDate(date)
	if err != nil {
		panic(err)
	}
	return models.RequestRecord{ID: id, Type: models.ReasonDamaged.Label(), Date: d, Status: status}
}
