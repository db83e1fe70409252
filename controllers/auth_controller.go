package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/vidtube/backend/auth"
	"github.com/vidtube/backend/dto"
	"github.com/vidtube/backend/middleware"
	"github.com/vidtube/backend/models"
	"github.com/vidtube/backend/repositories"
	"github.com/vidtube/backend/utils"
	"go.mongodb.org/mongo-driver/v2/bson"
	"golang.org/x/crypto/bcrypt"
)

const (
	avatarFolder = "avatars"
	coverFolder  = "covers"
)

// generateTokenPair issues both tokens and persists the refresh token on
// the user record, superseding any previous one.
func generateTokenPair(ctx context.Context, users UserStore, tokens *auth.TokenManager, user models.User) (string, string, error) {
	accessToken, err := tokens.GenerateAccessToken(user)
	if err != nil {
		return "", "", utils.NewInternalError("Something went wrong while generating access and refresh token")
	}
	refreshToken, err := tokens.GenerateRefreshToken(user)
	if err != nil {
		return "", "", utils.NewInternalError("Something went wrong while generating access and refresh token")
	}
	if err := users.SetRefreshToken(ctx, user.ID, refreshToken); err != nil {
		return "", "", utils.NewInternalError("Something went wrong while generating access and refresh token")
	}
	return accessToken, refreshToken, nil
}

func setAuthCookies(c *gin.Context, tokens *auth.TokenManager, accessToken, refreshToken string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    accessToken,
		Path:     "/",
		MaxAge:   int(tokens.AccessTokenTTL().Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     middleware.RefreshTokenCookie,
		Value:    refreshToken,
		Path:     "/",
		MaxAge:   int(tokens.RefreshTokenTTL().Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}

func clearAuthCookies(c *gin.Context) {
	for _, name := range []string{middleware.AccessTokenCookie, middleware.RefreshTokenCookie} {
		http.SetCookie(c.Writer, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteNoneMode,
		})
	}
}

// RegisterUser handles the multipart registration form: validate fields,
// reject duplicates, upload avatar (required) and cover image (optional),
// then persist the user with a hashed password.
func RegisterUser(users UserStore, files Uploader, validator *utils.FileValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		var body dto.RegisterUserDTO
		if err := c.ShouldBind(&body); err != nil {
			middleware.AbortWithError(c, utils.NewValidationError(err.Error()))
			return
		}

		username := utils.NormalizeUsername(body.Username)
		email := utils.NormalizeEmail(body.Email)

		if utils.AnyBlank(username, email, body.FullName, body.Password) {
			middleware.AbortWithError(c, utils.NewValidationError("All fields are required"))
			return
		}

		_, err := users.FindByUsernameOrEmail(ctx, username, email)
		if err == nil {
			middleware.AbortWithError(c, utils.NewConflictError("User with email or username already exists"))
			return
		}
		if !errors.Is(err, repositories.ErrNotFound) {
			middleware.AbortWithError(c, err)
			return
		}

		avatarFile, err := c.FormFile("avatar")
		if err != nil {
			middleware.AbortWithError(c, utils.NewUploadError("Avatar file is required"))
			return
		}
		if _, err := validator.ValidateFile(avatarFile); err != nil {
			middleware.AbortWithError(c, utils.NewUploadError(err.Error()))
			return
		}
		avatarURL, err := files.Upload(ctx, avatarFile, avatarFolder)
		if err != nil {
			middleware.AbortWithError(c, utils.NewUploadError("Error while uploading avatar"))
			return
		}

		coverImageURL := ""
		if coverFile, err := c.FormFile("coverImage"); err == nil {
			if _, err := validator.ValidateFile(coverFile); err != nil {
				middleware.AbortWithError(c, utils.NewUploadError(err.Error()))
				return
			}
			coverImageURL, err = files.Upload(ctx, coverFile, coverFolder)
			if err != nil {
				middleware.AbortWithError(c, utils.NewUploadError("Error while uploading cover image"))
				return
			}
		}

		hash, err := auth.HashPassword(body.Password)
		if err != nil {
			middleware.AbortWithError(c, utils.NewInternalError("Something went wrong while registering the user"))
			return
		}

		created, err := users.Create(ctx, models.User{
			Username:   username,
			Email:      email,
			FullName:   strings.TrimSpace(body.FullName),
			Avatar:     avatarURL,
			CoverImage: coverImageURL,
			Password:   hash,
		})
		if err != nil {
			if errors.Is(err, repositories.ErrDuplicate) {
				middleware.AbortWithError(c, utils.NewConflictError("User with email or username already exists"))
				return
			}
			middleware.AbortWithError(c, err)
			return
		}

		utils.Respond(c, http.StatusCreated, created, "User registered successfully")
	}
}

// LoginUser verifies credentials by username or email, issues a token
// pair, persists the refresh token and sets both cookies.
func LoginUser(users UserStore, tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		var body dto.LoginDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			middleware.AbortWithError(c, utils.NewValidationError(err.Error()))
			return
		}

		username := utils.NormalizeUsername(body.Username)
		email := utils.NormalizeEmail(body.Email)

		if username == "" && email == "" {
			middleware.AbortWithError(c, utils.NewValidationError("Username or email is required"))
			return
		}
		if body.Password == "" {
			middleware.AbortWithError(c, utils.NewValidationError("Password is required"))
			return
		}

		user, err := users.FindByUsernameOrEmail(ctx, username, email)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				middleware.AbortWithError(c, utils.NewNotFoundError("User does not exist"))
				return
			}
			middleware.AbortWithError(c, err)
			return
		}

		if err := auth.CheckPassword(user.Password, body.Password); err != nil {
			if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
				middleware.AbortWithError(c, utils.NewInvalidCredentialsError("Invalid user credentials"))
				return
			}
			middleware.AbortWithError(c, err)
			return
		}

		accessToken, refreshToken, err := generateTokenPair(ctx, users, tokens, user)
		if err != nil {
			middleware.AbortWithError(c, err)
			return
		}

		setAuthCookies(c, tokens, accessToken, refreshToken)
		utils.Respond(c, http.StatusOK, gin.H{
			"user":         user,
			"accessToken":  accessToken,
			"refreshToken": refreshToken,
		}, "User logged in successfully")
	}
}

// LogoutUser unsets the persisted refresh token and clears both cookies.
// Logging out twice is not an error.
func LogoutUser(users UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			middleware.AbortWithError(c, utils.NewUnauthorizedError("Unauthorized request"))
			return
		}

		if err := users.ClearRefreshToken(c.Request.Context(), user.ID); err != nil {
			middleware.AbortWithError(c, err)
			return
		}

		clearAuthCookies(c)
		utils.Respond(c, http.StatusOK, gin.H{}, "User logged out")
	}
}

// RefreshAccessToken rotates the token pair. The presented refresh token
// must verify against the refresh secret and match the persisted value;
// a superseded token is rejected even when its signature is still valid.
func RefreshAccessToken(users UserStore, tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		incoming, _ := c.Cookie(middleware.RefreshTokenCookie)
		if incoming == "" {
			var body dto.RefreshTokenDTO
			if err := c.ShouldBindJSON(&body); err == nil {
				incoming = body.RefreshToken
			}
		}
		if incoming == "" {
			middleware.AbortWithError(c, utils.NewUnauthorizedError("Unauthorized request"))
			return
		}

		claims, err := tokens.VerifyRefreshToken(incoming)
		if err != nil {
			middleware.AbortWithError(c, utils.NewUnauthorizedError(err.Error()))
			return
		}

		userID, err := bson.ObjectIDFromHex(claims.UserID)
		if err != nil {
			middleware.AbortWithError(c, utils.NewUnauthorizedError("Invalid refresh token"))
			return
		}

		user, err := users.FindByID(ctx, userID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				middleware.AbortWithError(c, utils.NewUnauthorizedError("Invalid refresh token"))
				return
			}
			middleware.AbortWithError(c, err)
			return
		}

		if incoming != user.RefreshToken {
			middleware.AbortWithError(c, utils.NewUnauthorizedError("Refresh token is expired or used"))
			return
		}

		accessToken, refreshToken, err := generateTokenPair(ctx, users, tokens, user)
		if err != nil {
			middleware.AbortWithError(c, err)
			return
		}

		setAuthCookies(c, tokens, accessToken, refreshToken)
		utils.Respond(c, http.StatusOK, gin.H{
			"accessToken":  accessToken,
			"refreshToken": refreshToken,
		}, "Access token refreshed successfully")
	}
}
