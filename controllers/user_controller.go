package controllers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/vidtube/backend/auth"
	"github.com/vidtube/backend/dto"
	"github.com/vidtube/backend/middleware"
	"github.com/vidtube/backend/models"
	"github.com/vidtube/backend/repositories"
	"github.com/vidtube/backend/utils"
	"golang.org/x/crypto/bcrypt"
)

// ChangeCurrentPassword verifies the old password before re-hashing and
// persisting the new one. A wrong old password leaves the hash untouched.
func ChangeCurrentPassword(users UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			middleware.AbortWithError(c, utils.NewUnauthorizedError("Unauthorized request"))
			return
		}

		var body dto.ChangePasswordDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			middleware.AbortWithError(c, utils.NewValidationError(err.Error()))
			return
		}

		if err := auth.CheckPassword(user.Password, body.OldPassword); err != nil {
			if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
				middleware.AbortWithError(c, utils.NewInvalidCredentialsError("Invalid password"))
				return
			}
			middleware.AbortWithError(c, err)
			return
		}

		hash, err := auth.HashPassword(body.NewPassword)
		if err != nil {
			middleware.AbortWithError(c, utils.NewInternalError("Something went wrong while changing the password"))
			return
		}

		if err := users.SetPassword(c.Request.Context(), user.ID, hash); err != nil {
			middleware.AbortWithError(c, err)
			return
		}

		utils.Respond(c, http.StatusOK, gin.H{}, "Password changed successfully")
	}
}

// GetCurrentUser returns the authenticated principal.
func GetCurrentUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			middleware.AbortWithError(c, utils.NewUnauthorizedError("Unauthorized request"))
			return
		}
		utils.Respond(c, http.StatusOK, user, "Current user fetched successfully")
	}
}

// UpdateAccountDetail patches the allow-listed account fields only.
func UpdateAccountDetail(users UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			middleware.AbortWithError(c, utils.NewUnauthorizedError("Unauthorized request"))
			return
		}

		var body dto.UpdateAccountDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			middleware.AbortWithError(c, utils.NewValidationError(err.Error()))
			return
		}

		updated, err := users.UpdateAccountDetail(c.Request.Context(), user.ID,
			strings.TrimSpace(body.FullName), utils.NormalizeEmail(body.Email))
		if err != nil {
			if errors.Is(err, repositories.ErrDuplicate) {
				middleware.AbortWithError(c, utils.NewConflictError("Email already in use"))
				return
			}
			middleware.AbortWithError(c, err)
			return
		}

		utils.Respond(c, http.StatusOK, updated, "Account detail updated successfully")
	}
}

// UpdateUserAvatar uploads the replacement avatar, persists its URL and
// then deletes the superseded object best effort.
func UpdateUserAvatar(users UserStore, files Uploader, validator *utils.FileValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			middleware.AbortWithError(c, utils.NewUnauthorizedError("Unauthorized request"))
			return
		}

		fileHeader, err := c.FormFile("avatar")
		if err != nil {
			middleware.AbortWithError(c, utils.NewUploadError("Avatar file is missing"))
			return
		}
		if _, err := validator.ValidateFile(fileHeader); err != nil {
			middleware.AbortWithError(c, utils.NewUploadError(err.Error()))
			return
		}

		url, err := files.Upload(c.Request.Context(), fileHeader, avatarFolder)
		if err != nil {
			middleware.AbortWithError(c, utils.NewUploadError("Error while uploading avatar"))
			return
		}

		updated, err := users.UpdateAvatar(c.Request.Context(), user.ID, url)
		if err != nil {
			middleware.AbortWithError(c, err)
			return
		}

		if user.Avatar != "" {
			if err := files.Delete(c.Request.Context(), user.Avatar); err != nil {
				log.Printf("delete old avatar: %v", err)
			}
		}

		utils.Respond(c, http.StatusOK, updated, "Avatar image updated successfully")
	}
}

// UpdateUserCoverImage mirrors UpdateUserAvatar for the optional cover.
func UpdateUserCoverImage(users UserStore, files Uploader, validator *utils.FileValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			middleware.AbortWithError(c, utils.NewUnauthorizedError("Unauthorized request"))
			return
		}

		fileHeader, err := c.FormFile("coverImage")
		if err != nil {
			middleware.AbortWithError(c, utils.NewUploadError("Cover image file is missing"))
			return
		}
		if _, err := validator.ValidateFile(fileHeader); err != nil {
			middleware.AbortWithError(c, utils.NewUploadError(err.Error()))
			return
		}

		url, err := files.Upload(c.Request.Context(), fileHeader, coverFolder)
		if err != nil {
			middleware.AbortWithError(c, utils.NewUploadError("Error while uploading cover image"))
			return
		}

		updated, err := users.UpdateCoverImage(c.Request.Context(), user.ID, url)
		if err != nil {
			middleware.AbortWithError(c, err)
			return
		}

		if user.CoverImage != "" {
			if err := files.Delete(c.Request.Context(), user.CoverImage); err != nil {
				log.Printf("delete old cover image: %v", err)
			}
		}

		utils.Respond(c, http.StatusOK, updated, "Cover image updated successfully")
	}
}

// GetUserChannelProfile runs the subscriptions aggregation for a channel,
// reporting counts and whether the requesting principal is subscribed.
func GetUserChannelProfile(users UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		viewer, ok := middleware.CurrentUser(c)
		if !ok {
			middleware.AbortWithError(c, utils.NewUnauthorizedError("Unauthorized request"))
			return
		}

		username := utils.NormalizeUsername(c.Param("username"))
		if username == "" {
			middleware.AbortWithError(c, utils.NewValidationError("Username is missing"))
			return
		}

		profile, err := users.ChannelProfile(c.Request.Context(), username, viewer.ID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				middleware.AbortWithError(c, utils.NewNotFoundError("Channel does not exist"))
				return
			}
			middleware.AbortWithError(c, err)
			return
		}

		utils.Respond(c, http.StatusOK, profile, "User channel fetched successfully")
	}
}

// GetWatchHistory expands the principal's watch-history references into
// videos with owner summaries, in stored order.
func GetWatchHistory(users UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			middleware.AbortWithError(c, utils.NewUnauthorizedError("Unauthorized request"))
			return
		}

		history, err := users.WatchHistory(c.Request.Context(), user.ID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				middleware.AbortWithError(c, utils.NewNotFoundError("User does not exist"))
				return
			}
			middleware.AbortWithError(c, err)
			return
		}
		if history == nil {
			history = []models.WatchHistoryVideo{}
		}

		utils.Respond(c, http.StatusOK, history, "Watch history fetched successfully")
	}
}
