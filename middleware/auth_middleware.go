package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/vidtube/backend/auth"
	"github.com/vidtube/backend/models"
	"github.com/vidtube/backend/repositories"
	"github.com/vidtube/backend/utils"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const principalKey = "user"

// AccessTokenCookie is read by the guard and written on login/refresh.
const AccessTokenCookie = "accessToken"

// RefreshTokenCookie is read on refresh and written on login/refresh.
const RefreshTokenCookie = "refreshToken"

// UserLoader is the slice of the user store the guard needs.
type UserLoader interface {
	FindByID(ctx context.Context, id bson.ObjectID) (models.User, error)
}

// extractToken tries the cookie first, then the Authorization header with
// its "Bearer " prefix stripped. First non-empty result wins.
func extractToken(c *gin.Context) string {
	if token, err := c.Cookie(AccessTokenCookie); err == nil && token != "" {
		return token
	}
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

// VerifyJWT authenticates protected routes: verify the access token, load
// the user it names, and attach the principal to the request context.
func VerifyJWT(users UserLoader, tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := extractToken(c)
		if tokenStr == "" {
			AbortWithError(c, utils.NewUnauthorizedError("Unauthorized request"))
			return
		}

		claims, err := tokens.VerifyAccessToken(tokenStr)
		if err != nil {
			AbortWithError(c, utils.NewUnauthorizedError(err.Error()))
			return
		}

		userID, err := bson.ObjectIDFromHex(claims.UserID)
		if err != nil {
			AbortWithError(c, utils.NewUnauthorizedError("Invalid access token"))
			return
		}

		user, err := users.FindByID(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				AbortWithError(c, utils.NewUnauthorizedError("Invalid access token"))
				return
			}
			AbortWithError(c, err)
			return
		}

		c.Set(principalKey, user)
		c.Next()
	}
}

// CurrentUser returns the authenticated principal attached by VerifyJWT.
func CurrentUser(c *gin.Context) (models.User, bool) {
	val, ok := c.Get(principalKey)
	if !ok {
		return models.User{}, false
	}
	user, ok := val.(models.User)
	return user, ok
}
