package controllers

import (
	"context"
	"mime/multipart"

	"github.com/vidtube/backend/models"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// UserStore is the persistence contract the handlers orchestrate against.
// The Mongo repository implements it; tests use in-memory fakes.
type UserStore interface {
	Create(ctx context.Context, user models.User) (models.User, error)
	FindByID(ctx context.Context, id bson.ObjectID) (models.User, error)
	FindByUsernameOrEmail(ctx context.Context, username, email string) (models.User, error)
	UpdateAccountDetail(ctx context.Context, id bson.ObjectID, fullName, email string) (models.User, error)
	UpdateAvatar(ctx context.Context, id bson.ObjectID, url string) (models.User, error)
	UpdateCoverImage(ctx context.Context, id bson.ObjectID, url string) (models.User, error)
	SetPassword(ctx context.Context, id bson.ObjectID, hash string) error
	SetRefreshToken(ctx context.Context, id bson.ObjectID, token string) error
	ClearRefreshToken(ctx context.Context, id bson.ObjectID) error
	ChannelProfile(ctx context.Context, username string, viewer bson.ObjectID) (models.ChannelProfile, error)
	WatchHistory(ctx context.Context, id bson.ObjectID) ([]models.WatchHistoryVideo, error)
}

// Uploader is the media storage collaborator as the handlers see it.
type Uploader interface {
	Upload(ctx context.Context, fileHeader *multipart.FileHeader, folder string) (string, error)
	Delete(ctx context.Context, publicURL string) error
}
