package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vidtube/backend/auth"
	"github.com/vidtube/backend/config"
	"github.com/vidtube/backend/middleware"
	"github.com/vidtube/backend/models"
	"github.com/vidtube/backend/repositories"
	"github.com/vidtube/backend/utils"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type fakeUserStore struct {
	mu            sync.Mutex
	users         map[bson.ObjectID]models.User
	subscriptions []models.Subscription
	history       map[bson.ObjectID][]models.WatchHistoryVideo
	failRefresh   bool
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		users:   make(map[bson.ObjectID]models.User),
		history: make(map[bson.ObjectID][]models.WatchHistoryVideo),
	}
}

func (s *fakeUserStore) Create(_ context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == user.Username || u.Email == user.Email {
			return models.User{}, repositories.ErrDuplicate
		}
	}
	user.ID = bson.NewObjectID()
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	s.users[user.ID] = user
	return user, nil
}

func (s *fakeUserStore) FindByID(_ context.Context, id bson.ObjectID) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func (s *fakeUserStore) FindByUsernameOrEmail(_ context.Context, username, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if (username != "" && u.Username == username) || (email != "" && u.Email == email) {
			return u, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *fakeUserStore) mutate(id bson.ObjectID, fn func(*models.User)) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	fn(&user)
	user.UpdatedAt = time.Now().UTC()
	s.users[id] = user
	return user, nil
}

func (s *fakeUserStore) UpdateAccountDetail(_ context.Context, id bson.ObjectID, fullName, email string) (models.User, error) {
	return s.mutate(id, func(u *models.User) { u.FullName = fullName; u.Email = email })
}

func (s *fakeUserStore) UpdateAvatar(_ context.Context, id bson.ObjectID, url string) (models.User, error) {
	return s.mutate(id, func(u *models.User) { u.Avatar = url })
}

func (s *fakeUserStore) UpdateCoverImage(_ context.Context, id bson.ObjectID, url string) (models.User, error) {
	return s.mutate(id, func(u *models.User) { u.CoverImage = url })
}

func (s *fakeUserStore) SetPassword(_ context.Context, id bson.ObjectID, hash string) error {
	_, err := s.mutate(id, func(u *models.User) { u.Password = hash })
	return err
}

func (s *fakeUserStore) SetRefreshToken(_ context.Context, id bson.ObjectID, token string) error {
	if s.failRefresh {
		return errors.New("write failed")
	}
	_, err := s.mutate(id, func(u *models.User) { u.RefreshToken = token })
	return err
}

func (s *fakeUserStore) ClearRefreshToken(_ context.Context, id bson.ObjectID) error {
	_, err := s.mutate(id, func(u *models.User) { u.RefreshToken = "" })
	return err
}

func (s *fakeUserStore) ChannelProfile(_ context.Context, username string, viewer bson.ObjectID) (models.ChannelProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username != username {
			continue
		}
		profile := models.ChannelProfile{
			ID:         u.ID,
			Username:   u.Username,
			Email:      u.Email,
			FullName:   u.FullName,
			Avatar:     u.Avatar,
			CoverImage: u.CoverImage,
		}
		for _, sub := range s.subscriptions {
			if sub.Channel == u.ID {
				profile.SubscribersCount++
				if sub.Subscriber == viewer {
					profile.IsSubscribed = true
				}
			}
			if sub.Subscriber == u.ID {
				profile.ChannelsSubscribedToCount++
			}
		}
		return profile, nil
	}
	return models.ChannelProfile{}, repositories.ErrNotFound
}

func (s *fakeUserStore) WatchHistory(_ context.Context, id bson.ObjectID) ([]models.WatchHistoryVideo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return nil, repositories.ErrNotFound
	}
	return s.history[id], nil
}

type fakeUploader struct {
	mu      sync.Mutex
	fail    bool
	uploads []string
	deleted []string
}

func (f *fakeUploader) Upload(_ context.Context, fileHeader *multipart.FileHeader, folder string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return "", errors.New("upload failed")
	}
	url := fmt.Sprintf("https://cdn.test/media/%s/%s", folder, fileHeader.Filename)
	f.uploads = append(f.uploads, url)
	return url, nil
}

func (f *fakeUploader) Delete(_ context.Context, publicURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, publicURL)
	return nil
}

func testTokenManager() *auth.TokenManager {
	return auth.NewTokenManager(config.AuthConfig{
		AccessTokenSecret:  "test-access-secret",
		RefreshTokenSecret: "test-refresh-secret",
		AccessTokenTTL:     15 * time.Minute,
		RefreshTokenTTL:    24 * time.Hour,
	})
}

func testValidator() *utils.FileValidator {
	return utils.NewImageValidator(config.UploadConfig{
		MaxSizeMB:         5,
		AllowedExtensions: []string{".png"},
		AllowedMimeTypes:  []string{"image/png"},
	})
}

func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.ErrorHandler())
	return r
}

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Success    bool            `json:"success"`
	Error      []string        `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body %s)", err, rec.Body.String())
	}
	return env
}

var pngBytes = append([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, make([]byte, 64)...)

// registerRequest builds the multipart form the register endpoint expects.
// A nil value in files omits that file part.
func registerRequest(t *testing.T, fields map[string]string, files map[string][]byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for key, val := range fields {
		if err := w.WriteField(key, val); err != nil {
			t.Fatalf("write field %s: %v", key, err)
		}
	}
	for name, content := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename="%s.png"`, name, name))
		header.Set("Content-Type", "image/png")
		part, err := w.CreatePart(header)
		if err != nil {
			t.Fatalf("create part %s: %v", name, err)
		}
		if _, err := part.Write(content); err != nil {
			t.Fatalf("write part %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(method, target, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// seedUser inserts a user with a bcrypt-hashed password directly into the
// fake store and returns the stored record.
func seedUser(t *testing.T, store *fakeUserStore, username, email, password string) models.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user, err := store.Create(context.Background(), models.User{
		Username: username,
		Email:    email,
		FullName: "Test User",
		Avatar:   "https://cdn.test/media/avatars/seed.png",
		Password: hash,
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}
