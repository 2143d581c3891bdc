package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/greenthumb/internal/domain"
	"github.com/yourorg/greenthumb/internal/repository/memory"
	"github.com/yourorg/greenthumb/internal/security"
	"github.com/yourorg/greenthumb/internal/security/audit"
	"github.com/yourorg/greenthumb/internal/security/auth"
	"github.com/yourorg/greenthumb/internal/security/middleware"
	"github.com/yourorg/greenthumb/internal/security/ratelimit"
	"github.com/yourorg/greenthumb/internal/service"
)

type apiClient struct {
	t       *testing.T
	handler http.Handler
}

func newTestAPI(t *testing.T) *apiClient {
	t.Helper()
	return newLimitedTestAPI(t, 0)
}

// newLimitedTestAPI bounds login and register to credentialLimit attempts per
// minute; zero leaves them unlimited.
func newLimitedTestAPI(t *testing.T, credentialLimit int) *apiClient {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore()
	tokens := auth.NewTokenManager("test-secret", "greenthumb", time.Minute, time.Hour)

	resolver := security.NewOwnerResolver(store.Plants(), store.Posts(), security.CommentOwnerPostAuthor)
	guard := security.NewGuard(resolver, audit.NewLogger(log), log)

	authSvc := service.NewAuthService(store.Users(), tokens, store.Denylist(), log)
	schedules := service.NewScheduleService(store.Schedules(), store.Plants(), guard, domain.Recurrence{}, log)

	mux := http.NewServeMux()
	RegisterRoutes(mux, Handlers{
		Health:    NewHealthHandler(PingFunc(func(ctx context.Context) error { return nil }), nil, log),
		Auth:      NewAuthHandler(authSvc, false, log),
		Plants:    NewPlantHandler(service.NewPlantService(store.Plants(), guard, log), schedules, log),
		Schedules: NewScheduleHandler(schedules, log),
		Tips:      NewTipHandler(service.NewTipService(store.Tips(), guard, log), log),
		Forum:     NewForumHandler(service.NewForumService(store.Posts(), store.Comments(), guard, log), log),
		Layouts:   NewLayoutHandler(service.NewLayoutService(store.Layouts(), guard, log), log),

		CredentialLimit: credentialLimiter(t, credentialLimit, log),
	})

	return &apiClient{t: t, handler: middleware.Authenticate(tokens, log)(mux)}
}

func credentialLimiter(t *testing.T, limit int, log *slog.Logger) func(http.Handler) http.Handler {
	if limit == 0 {
		return nil
	}
	limiter := ratelimit.NewLimiter(100, time.Minute)
	t.Cleanup(limiter.Stop)
	return middleware.StrictRateLimit(limiter, limit, time.Minute, log)
}

func (c *apiClient) do(method, path, token, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	c.t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)
	return rec
}

// signUp registers and logs in a user, returning the login response.
func (c *apiClient) signUp(name string) LoginResponse {
	c.t.Helper()
	rec := c.do(http.MethodPost, "/api/register", "",
		`{"username":"`+name+`","email":"`+name+`@example.com","password":"password123"}`)
	require.Equal(c.t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = c.do(http.MethodPost, "/api/login", "",
		`{"email":"`+name+`@example.com","password":"password123"}`)
	require.Equal(c.t, http.StatusOK, rec.Code, rec.Body.String())

	var resp LoginResponse
	require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestWelcomeAndHealth(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodGet, "/", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to the GreenThumb app!", decode[MessageResponse](t, rec).Message)

	rec = api.do(http.MethodGet, "/readyz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	ready := decode[ReadinessResponse](t, rec)
	assert.Equal(t, "ok", ready.Checks["store"])
	assert.Equal(t, "not configured", ready.Checks["redis"])
}

func TestLoginSetsCookies(t *testing.T) {
	api := newTestAPI(t)
	api.do(http.MethodPost, "/api/register", "", `{"username":"ana","email":"ana@example.com","password":"password123"}`)

	rec := api.do(http.MethodPost, "/api/login", "", `{"email":"ana@example.com","password":"password123"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	byName := map[string]*http.Cookie{}
	for _, ck := range rec.Result().Cookies() {
		byName[ck.Name] = ck
	}
	require.Contains(t, byName, auth.AccessCookieName)
	require.Contains(t, byName, auth.RefreshCookieName)
	assert.True(t, byName[auth.AccessCookieName].HttpOnly)
	assert.Equal(t, "/", byName[auth.AccessCookieName].Path)
	assert.Equal(t, auth.RefreshCookiePath, byName[auth.RefreshCookieName].Path)

	// the access cookie alone authenticates
	rec = api.do(http.MethodGet, "/api/plants", "", "", byName[auth.AccessCookieName])
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestRegisterErrors(t *testing.T) {
	api := newTestAPI(t)
	api.signUp("ana")

	rec := api.do(http.MethodPost, "/api/register", "", `{"username":"other","email":"ana@example.com","password":"password123"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(http.MethodPost, "/api/register", "", `{"username":"","email":"x@example.com","password":"password123"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodPost, "/api/register", "", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodPost, "/api/login", "", `{"email":"ana@example.com","password":"wrong-password"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCredentialEndpointsAreStrictlyLimited(t *testing.T) {
	api := newLimitedTestAPI(t, 3)
	api.signUp("ana")

	rec := api.do(http.MethodPost, "/api/login", "", `{"email":"ana@example.com","password":"wrong-password"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(http.MethodPost, "/api/login", "", `{"email":"ana@example.com","password":"password123"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = api.do(http.MethodPost, "/api/register", "", `{"username":"ben","email":"ben@example.com","password":"password123"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = api.do(http.MethodGet, "/api/forum", "", "")
	assert.Equal(t, http.StatusOK, rec.Code, "other routes are not affected")
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodGet, "/api/plants", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(http.MethodPost, "/api/forum", "", `{"title":"t","content":"c"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// forum reads are public
	rec = api.do(http.MethodGet, "/api/forum", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestPlantOwnershipOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	ana := api.signUp("ana")
	ben := api.signUp("ben")

	rec := api.do(http.MethodPost, "/api/plants", ana.AccessToken, `{"name":"Basil","description":"kitchen"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	plant := decode[PlantResponse](t, rec)
	assert.Equal(t, ana.User.ID, plant.UserID)
	path := "/api/plants/" + itoa(plant.ID)

	rec = api.do(http.MethodGet, path, ben.AccessToken, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(http.MethodDelete, path, ben.AccessToken, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(http.MethodPatch, path, ben.AccessToken, `{"name":"Stolen"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(http.MethodGet, path, ana.AccessToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Basil", decode[PlantResponse](t, rec).Name)

	rec = api.do(http.MethodPatch, path, ana.AccessToken, `{"img_url":"basil.png"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decode[PlantResponse](t, rec)
	assert.Equal(t, "Basil", updated.Name)
	assert.Equal(t, "basil.png", updated.ImgURL)

	rec = api.do(http.MethodDelete, path, ana.AccessToken, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = api.do(http.MethodGet, path, ana.AccessToken, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInvalidPathID(t *testing.T) {
	api := newTestAPI(t)
	ana := api.signUp("ana")

	rec := api.do(http.MethodGet, "/api/plants/abc", ana.AccessToken, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScheduleLifecycle(t *testing.T) {
	api := newTestAPI(t)
	ana := api.signUp("ana")
	ben := api.signUp("ben")

	rec := api.do(http.MethodPost, "/api/plants", ana.AccessToken, `{"name":"Tomato"}`)
	plant := decode[PlantResponse](t, rec)

	body := `{"plant_id":` + itoa(plant.ID) + `,"task":"Watering","schedule_date":"2024-07-25","interval":"weekly"}`
	rec = api.do(http.MethodPost, "/api/care_schedules", ben.AccessToken, body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(http.MethodPost, "/api/care_schedules", ana.AccessToken, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sched := decode[ScheduleResponse](t, rec)
	assert.Equal(t, "Tomato", sched.PlantName)
	assert.Equal(t, "2024-07-25", sched.ScheduleDate)
	require.NotNil(t, sched.NextDueDate)
	assert.Equal(t, "2024-08-01", *sched.NextDueDate)
	assert.True(t, sched.IsDue)

	rec = api.do(http.MethodGet, "/api/care_schedules/due", ana.AccessToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]ScheduleResponse](t, rec), 1)

	rec = api.do(http.MethodGet, "/api/plants/"+itoa(plant.ID)+"/schedules", ana.AccessToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]ScheduleResponse](t, rec), 1)

	rec = api.do(http.MethodPost, "/api/care_schedules", ana.AccessToken,
		`{"plant_id":`+itoa(plant.ID)+`,"task":"Watering","schedule_date":"2024-07-25","interval":"fortnightly"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	path := "/api/care_schedules/" + itoa(sched.ID)
	rec = api.do(http.MethodPatch, path, ana.AccessToken, `{"interval":"daily"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2024-07-26", *decode[ScheduleResponse](t, rec).NextDueDate)

	rec = api.do(http.MethodDelete, path, ben.AccessToken, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = api.do(http.MethodDelete, path, ana.AccessToken, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(http.MethodGet, "/api/care_schedules", ana.AccessToken, "")
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestForumAndComments(t *testing.T) {
	api := newTestAPI(t)
	ana := api.signUp("ana")
	ben := api.signUp("ben")

	rec := api.do(http.MethodPost, "/api/forum", ana.AccessToken, `{"title":"Aphids","content":"help"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	post := decode[PostResponse](t, rec)
	assert.Equal(t, "ana", post.Author)

	rec = api.do(http.MethodPost, "/api/forum/"+itoa(post.ID)+"/comments", ben.AccessToken, `{"content":"soapy water"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	comment := decode[CommentResponse](t, rec)
	assert.Equal(t, "ben", comment.Author)

	rec = api.do(http.MethodGet, "/api/forum/"+itoa(post.ID), "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decode[PostResponse](t, rec)
	require.Len(t, detail.Comments, 1)
	assert.Equal(t, "soapy water", detail.Comments[0].Content)

	// comments belong to the post author by default
	rec = api.do(http.MethodPatch, "/api/comments/"+itoa(comment.ID), ben.AccessToken, `{"content":"edited"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = api.do(http.MethodDelete, "/api/comments/"+itoa(comment.ID), ana.AccessToken, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(http.MethodPost, "/api/forum/999/comments", ben.AccessToken, `{"content":"orphan"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTipsListShowsAuthor(t *testing.T) {
	api := newTestAPI(t)
	ana := api.signUp("ana")

	rec := api.do(http.MethodPost, "/api/tips", ana.AccessToken, `{"title":"Mulch","content":"keeps moisture"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = api.do(http.MethodGet, "/api/tips", ana.AccessToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	tips := decode[[]TipResponse](t, rec)
	require.Len(t, tips, 1)
	assert.Equal(t, "ana", tips[0].Author)

	rec = api.do(http.MethodPost, "/api/tips", ana.AccessToken, `{"title":"","content":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLayoutDataRoundTrip(t *testing.T) {
	api := newTestAPI(t)
	ana := api.signUp("ana")
	ben := api.signUp("ben")

	data := `{"beds":[{"x":1,"y":2,"plant":"Basil"}],"rotation":0.5}`
	rec := api.do(http.MethodPost, "/api/layouts", ana.AccessToken, `{"name":"Spring","layout_data":`+data+`}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	layout := decode[LayoutResponse](t, rec)
	assert.JSONEq(t, data, string(layout.LayoutData))

	path := "/api/layouts/" + itoa(layout.ID)
	rec = api.do(http.MethodGet, path, ben.AccessToken, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(http.MethodPatch, path, ana.AccessToken, `{"layout_data":[1,2,3]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Spring", decode[LayoutResponse](t, rec).Name)

	rec = api.do(http.MethodPost, "/api/layouts", ana.AccessToken, `{"name":"Empty"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRefreshAndLogout(t *testing.T) {
	api := newTestAPI(t)
	ana := api.signUp("ana")

	refreshCookie := &http.Cookie{Name: auth.RefreshCookieName, Value: ana.RefreshToken}
	rec := api.do(http.MethodPost, "/api/refresh", "", "", refreshCookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, decode[RefreshResponse](t, rec).AccessToken)

	// an access token is not a refresh token
	rec = api.do(http.MethodPost, "/api/refresh", "", `{"refresh_token":"`+ana.AccessToken+`"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(http.MethodPost, "/api/logout", "", `{"refresh_token":"`+ana.RefreshToken+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(http.MethodPost, "/api/refresh", "", "", refreshCookie)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutRevokesRefreshCookie(t *testing.T) {
	api := newTestAPI(t)
	api.signUp("ana")

	rec := api.do(http.MethodPost, "/api/login", "", `{"email":"ana@example.com","password":"password123"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var refreshCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.RefreshCookieName {
			refreshCookie = c
		}
	}
	require.NotNil(t, refreshCookie)
	for _, path := range []string{"/api/refresh", "/api/logout"} {
		assert.True(t, strings.HasPrefix(path, refreshCookie.Path+"/"), "cookie is sent to %s", path)
	}

	sent := &http.Cookie{Name: refreshCookie.Name, Value: refreshCookie.Value}
	rec = api.do(http.MethodPost, "/api/logout", "", "", sent)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(http.MethodPost, "/api/refresh", "", "", sent)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "logout revoked the cookie's token")
}

func TestChangePassword(t *testing.T) {
	api := newTestAPI(t)
	ana := api.signUp("ana")

	rec := api.do(http.MethodPost, "/api/change-password", ana.AccessToken, `{"old_password":"password123"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodPost, "/api/change-password", ana.AccessToken,
		`{"old_password":"password123","new_password":"greener-pastures"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(http.MethodPost, "/api/login", "", `{"email":"ana@example.com","password":"greener-pastures"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRespondErrorHidesInternalCause(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	respondError(rec, req, slog.New(slog.NewTextHandler(io.Discard, nil)), io.ErrUnexpectedEOF)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, bytes.Contains(rec.Body.Bytes(), []byte("EOF")))
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
