package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vidtube/backend/database"
	"github.com/vidtube/backend/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// UserRepository is the Mongo-backed store for user documents, including
// the channel-profile and watch-history aggregations.
type UserRepository struct {
	users *mongo.Collection
}

func NewUserRepository(db *database.Database) *UserRepository {
	return &UserRepository{users: db.Collection(database.UsersCollection)}
}

func (r *UserRepository) Create(ctx context.Context, user models.User) (models.User, error) {
	now := time.Now().UTC()
	user.ID = bson.NewObjectID()
	user.CreatedAt = now
	user.UpdatedAt = now

	if _, err := r.users.InsertOne(ctx, user); err != nil {
		if isDuplicateKey(err) {
			return models.User{}, ErrDuplicate
		}
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id bson.ObjectID) (models.User, error) {
	var user models.User
	err := r.users.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("find user by id: %w", err)
	}
	return user, nil
}

// FindByUsernameOrEmail matches either identity field; empty arguments are
// excluded from the query.
func (r *UserRepository) FindByUsernameOrEmail(ctx context.Context, username, email string) (models.User, error) {
	or := bson.A{}
	if username != "" {
		or = append(or, bson.M{"username": username})
	}
	if email != "" {
		or = append(or, bson.M{"email": email})
	}
	if len(or) == 0 {
		return models.User{}, ErrNotFound
	}

	var user models.User
	err := r.users.FindOne(ctx, bson.M{"$or": or}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

// updateFields applies a $set patch and returns the updated document.
// Partial updates deliberately skip full-document validation; only the
// allow-listed fields the callers below name can ever reach this.
func (r *UserRepository) updateFields(ctx context.Context, id bson.ObjectID, set bson.M) (models.User, error) {
	set["updatedAt"] = time.Now().UTC()

	var updated models.User
	err := r.users.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, ErrNotFound
		}
		if isDuplicateKey(err) {
			return models.User{}, ErrDuplicate
		}
		return models.User{}, fmt.Errorf("update user: %w", err)
	}
	return updated, nil
}

func (r *UserRepository) UpdateAccountDetail(ctx context.Context, id bson.ObjectID, fullName, email string) (models.User, error) {
	return r.updateFields(ctx, id, bson.M{"fullName": fullName, "email": email})
}

func (r *UserRepository) UpdateAvatar(ctx context.Context, id bson.ObjectID, url string) (models.User, error) {
	return r.updateFields(ctx, id, bson.M{"avatar": url})
}

func (r *UserRepository) UpdateCoverImage(ctx context.Context, id bson.ObjectID, url string) (models.User, error) {
	return r.updateFields(ctx, id, bson.M{"coverImage": url})
}

func (r *UserRepository) SetPassword(ctx context.Context, id bson.ObjectID, hash string) error {
	_, err := r.updateFields(ctx, id, bson.M{"password": hash})
	return err
}

func (r *UserRepository) SetRefreshToken(ctx context.Context, id bson.ObjectID, token string) error {
	_, err := r.updateFields(ctx, id, bson.M{"refreshToken": token})
	return err
}

// ClearRefreshToken unsets the field entirely. Idempotent.
func (r *UserRepository) ClearRefreshToken(ctx context.Context, id bson.ObjectID) error {
	_, err := r.users.UpdateByID(ctx, id, bson.M{
		"$unset": bson.M{"refreshToken": 1},
		"$set":   bson.M{"updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	return nil
}

// ChannelProfile runs the subscriptions double-lookup aggregation for a
// channel username, computing subscriber counts and whether the viewer is
// among the channel's subscribers.
func (r *UserRepository) ChannelProfile(ctx context.Context, username string, viewer bson.ObjectID) (models.ChannelProfile, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"username": username}}},
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         database.SubscriptionsCollection,
			"localField":   "_id",
			"foreignField": "channel",
			"as":           "subscribers",
		}}},
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         database.SubscriptionsCollection,
			"localField":   "_id",
			"foreignField": "subscriber",
			"as":           "subscribedTo",
		}}},
		bson.D{{Key: "$addFields", Value: bson.M{
			"subscribersCount":          bson.M{"$size": "$subscribers"},
			"channelsSubscribedToCount": bson.M{"$size": "$subscribedTo"},
			"isSubscribed": bson.M{"$cond": bson.M{
				"if":   bson.M{"$in": bson.A{viewer, "$subscribers.subscriber"}},
				"then": true,
				"else": false,
			}},
		}}},
		bson.D{{Key: "$project", Value: bson.M{
			"fullName":                  1,
			"username":                  1,
			"email":                     1,
			"avatar":                    1,
			"coverImage":                1,
			"subscribersCount":          1,
			"channelsSubscribedToCount": 1,
			"isSubscribed":              1,
		}}},
	}

	cursor, err := r.users.Aggregate(ctx, pipeline)
	if err != nil {
		return models.ChannelProfile{}, fmt.Errorf("channel profile aggregate: %w", err)
	}
	defer cursor.Close(ctx)

	var results []models.ChannelProfile
	if err := cursor.All(ctx, &results); err != nil {
		return models.ChannelProfile{}, fmt.Errorf("channel profile decode: %w", err)
	}
	if len(results) == 0 {
		return models.ChannelProfile{}, ErrNotFound
	}
	return results[0], nil
}

// WatchHistory expands each watch-history reference into the video plus a
// reduced owner summary, preserving the stored order.
func (r *UserRepository) WatchHistory(ctx context.Context, id bson.ObjectID) ([]models.WatchHistoryVideo, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"_id": id}}},
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         database.VideosCollection,
			"localField":   "watchHistory",
			"foreignField": "_id",
			"as":           "watchHistory",
			"pipeline": bson.A{
				bson.M{"$lookup": bson.M{
					"from":         database.UsersCollection,
					"localField":   "owner",
					"foreignField": "_id",
					"as":           "owner",
					"pipeline": bson.A{
						bson.M{"$project": bson.M{
							"fullName": 1,
							"username": 1,
							"avatar":   1,
						}},
					},
				}},
				bson.M{"$addFields": bson.M{
					"owner": bson.M{"$first": "$owner"},
				}},
			},
		}}},
		bson.D{{Key: "$project", Value: bson.M{"watchHistory": 1}}},
	}

	cursor, err := r.users.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("watch history aggregate: %w", err)
	}
	defer cursor.Close(ctx)

	var results []struct {
		WatchHistory []models.WatchHistoryVideo `bson:"watchHistory"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("watch history decode: %w", err)
	}
	if len(results) == 0 {
		return nil, ErrNotFound
	}
	return results[0].WatchHistory, nil
}
