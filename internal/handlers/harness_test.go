package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/clipstream/apiserver/config"
	"github.com/clipstream/apiserver/internal/services"
	"github.com/clipstream/apiserver/internal/storage"
	"github.com/clipstream/apiserver/internal/store"
	"github.com/clipstream/apiserver/types"
)

// fixture wires the full handler stack over in-memory fakes.
type fixture struct {
	router  *chi.Mux
	users   *fakeUserRepo
	videos  *fakeVideoRepo
	history *fakeHistoryRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	issuer, err := services.NewTokenIssuer(config.AuthConfig{
		AccessTokenSecret:  "access-secret",
		AccessTokenTTL:     time.Minute,
		RefreshTokenSecret: "refresh-secret",
		RefreshTokenTTL:    time.Hour,
	})
	require.NoError(t, err)

	userRepo := newFakeUserRepo()
	videoRepo := &fakeVideoRepo{videos: make(map[uuid.UUID]types.Video)}
	historyRepo := &fakeHistoryRepo{}
	subscriptionRepo := newFakeSubscriptionRepo()

	userService := services.NewUserService(userRepo)
	sessionService := services.NewSessionService(userRepo, issuer)
	assetService := services.NewAssetService(storage.NewStorage(&fakeObjectStorage{objects: make(map[string][]byte)}))
	channelService := services.NewChannelService(userService, subscriptionRepo)
	watchService := services.NewWatchService(videoRepo, historyRepo, nil)

	authHandler := NewAuthHandler(sessionService, userService, assetService, issuer)
	userHandler := NewUserHandler(userService, assetService, channelService, watchService)

	router := chi.NewRouter()
	router.Route("/users", func(r chi.Router) {
		AuthRouter(r, authHandler)
		UserRouter(r, userHandler, authHandler.RequireAuth)
	})

	return &fixture{
		router:  router,
		users:   userRepo,
		videos:  videoRepo,
		history: historyRepo,
	}
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

// register performs a multipart registration with a generated avatar.
func (f *fixture) register(t *testing.T, userName, email, password string) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.WriteField("userName", userName))
	require.NoError(t, writer.WriteField("email", email))
	require.NoError(t, writer.WriteField("fullName", "Test User"))
	require.NoError(t, writer.WriteField("password", password))

	part, err := writer.CreateFormFile("avatar", "avatar.png")
	require.NoError(t, err)
	_, err = part.Write(testPNG(t))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/users/register", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return f.do(req)
}

// login returns the decoded response and the issued token pair.
func (f *fixture) login(t *testing.T, identifier, password string) (LoginResponse, *httptest.ResponseRecorder) {
	t.Helper()

	payload, err := json.Marshal(map[string]string{
		"identifier": identifier,
		"password":   password,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/users/login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := f.do(req)

	var resp LoginResponse
	if rec.Code == http.StatusOK {
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	}
	return resp, rec
}

func authed(req *http.Request, accessToken string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+accessToken)
	return req
}

func jsonBody(t *testing.T, value any) io.Reader {
	t.Helper()
	data, err := json.Marshal(value)
	require.NoError(t, err)
	return bytes.NewReader(data)
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// fakeObjectStorage satisfies storage.ObjectStorage in memory.
type fakeObjectStorage struct {
	objects map[string][]byte
}

func (f *fakeObjectStorage) EnsureBucket(context.Context) error { return nil }

func (f *fakeObjectStorage) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.objects[key] = data
	return nil
}

func (f *fakeObjectStorage) Get(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeObjectStorage) Delete(_ context.Context, key string) error {
	delete(f.objects, key)
	return nil
}

func (f *fakeObjectStorage) PublicURL(key string) string {
	return "http://assets.local/test-bucket/" + key
}

func (f *fakeObjectStorage) Bucket() string { return "test-bucket" }

// fakeUserRepo is an in-memory services.UserRepository.
type fakeUserRepo struct {
	users map[uuid.UUID]types.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]types.User)}
}

func (f *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (types.User, error) {
	user, ok := f.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) GetByIdentifier(_ context.Context, identifier string) (types.User, error) {
	identifier = strings.ToLower(identifier)
	for _, user := range f.users {
		if user.UserName == identifier || user.Email == identifier {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (f *fakeUserRepo) GetByUserName(_ context.Context, userName string) (types.User, error) {
	userName = strings.ToLower(userName)
	for _, user := range f.users {
		if user.UserName == userName {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (f *fakeUserRepo) Create(_ context.Context, user types.User) (types.User, error) {
	for _, existing := range f.users {
		if existing.UserName == user.UserName || existing.Email == user.Email {
			return types.User{}, store.ErrDuplicate
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeUserRepo) UpdateRefreshToken(_ context.Context, id uuid.UUID, token string) error {
	user, ok := f.users[id]
	if !ok {
		return store.ErrNotFound
	}
	user.RefreshToken = token
	f.users[id] = user
	return nil
}

func (f *fakeUserRepo) UpdatePasswordHash(_ context.Context, id uuid.UUID, hash string) error {
	user, ok := f.users[id]
	if !ok {
		return store.ErrNotFound
	}
	user.PasswordHash = hash
	f.users[id] = user
	return nil
}

func (f *fakeUserRepo) UpdateProfile(_ context.Context, id uuid.UUID, userName, email, fullName string) (types.User, error) {
	user, ok := f.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	for otherID, other := range f.users {
		if otherID == id {
			continue
		}
		if other.UserName == userName || other.Email == email {
			return types.User{}, store.ErrDuplicate
		}
	}
	user.UserName = userName
	user.Email = email
	user.FullName = fullName
	f.users[id] = user
	return user, nil
}

func (f *fakeUserRepo) UpdateAvatar(_ context.Context, id uuid.UUID, avatarURL string) (types.User, error) {
	user, ok := f.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	user.AvatarURL = avatarURL
	f.users[id] = user
	return user, nil
}

func (f *fakeUserRepo) UpdateCoverImage(_ context.Context, id uuid.UUID, coverImageURL string) (types.User, error) {
	user, ok := f.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	user.CoverImageURL = coverImageURL
	f.users[id] = user
	return user, nil
}

// fakeSubscriptionRepo is an in-memory services.SubscriptionRepository.
type fakeSubscriptionRepo struct {
	relations map[uuid.UUID]map[uuid.UUID]bool // subscriber -> channels
}

func newFakeSubscriptionRepo() *fakeSubscriptionRepo {
	return &fakeSubscriptionRepo{relations: make(map[uuid.UUID]map[uuid.UUID]bool)}
}

func (f *fakeSubscriptionRepo) Subscribe(_ context.Context, subscriberID, channelID uuid.UUID) error {
	if f.relations[subscriberID] == nil {
		f.relations[subscriberID] = make(map[uuid.UUID]bool)
	}
	f.relations[subscriberID][channelID] = true
	return nil
}

func (f *fakeSubscriptionRepo) Unsubscribe(_ context.Context, subscriberID, channelID uuid.UUID) error {
	delete(f.relations[subscriberID], channelID)
	return nil
}

func (f *fakeSubscriptionRepo) Counts(_ context.Context, channelID, viewerID uuid.UUID) (int, int, bool, error) {
	subscribers := 0
	for _, channels := range f.relations {
		if channels[channelID] {
			subscribers++
		}
	}
	subscribedTo := len(f.relations[channelID])
	subscribed := f.relations[viewerID][channelID]
	return subscribers, subscribedTo, subscribed, nil
}

// fakeVideoRepo is an in-memory services.VideoRepository.
type fakeVideoRepo struct {
	videos map[uuid.UUID]types.Video
}

func (f *fakeVideoRepo) GetByID(_ context.Context, id uuid.UUID) (types.Video, error) {
	video, ok := f.videos[id]
	if !ok {
		return types.Video{}, store.ErrNotFound
	}
	return video, nil
}

func (f *fakeVideoRepo) Create(_ context.Context, video types.Video) (types.Video, error) {
	if video.ID == uuid.Nil {
		video.ID = uuid.New()
	}
	f.videos[video.ID] = video
	return video, nil
}

func (f *fakeVideoRepo) IncrementViews(_ context.Context, id uuid.UUID) error {
	video, ok := f.videos[id]
	if !ok {
		return store.ErrNotFound
	}
	video.Views++
	f.videos[id] = video
	return nil
}

// fakeHistoryRepo is an in-memory services.WatchHistoryRepository.
type fakeHistoryRepo struct {
	entries []types.WatchEntry
}

func (f *fakeHistoryRepo) Append(_ context.Context, _, videoID uuid.UUID) error {
	f.entries = append([]types.WatchEntry{{
		Video:     types.Video{ID: videoID},
		WatchedAt: time.Now(),
	}}, f.entries...)
	return nil
}

func (f *fakeHistoryRepo) List(_ context.Context, _ uuid.UUID, offset, limit int) ([]types.WatchEntry, int, error) {
	total := len(f.entries)
	if offset >= total {
		return []types.WatchEntry{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return f.entries[offset:end], total, nil
}
