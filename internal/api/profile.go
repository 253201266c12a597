package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pageza/profiles/backend/internal/middleware"
	"github.com/pageza/profiles/backend/internal/models"
	"github.com/pageza/profiles/backend/internal/service"
	"github.com/pageza/profiles/backend/internal/types"
)

type ProfileHandler struct {
	profileService service.IProfileService
}

func NewProfileHandler(profileService service.IProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// RegisterRoutes mounts the profile routes; every route requires auth.
func (h *ProfileHandler) RegisterRoutes(router *gin.RouterGroup, auth gin.HandlerFunc) {
	profiles := router.Group("/profiles")
	profiles.Use(auth)
	{
		profiles.GET("", h.ListProfiles)
		profiles.POST("", h.CreateProfile)
		profiles.GET("/:id", h.GetProfile)
		profiles.PUT("/:id", h.UpdateProfile)
		profiles.DELETE("/:id", h.DeleteProfile)
	}
}

// ListProfiles answers GET /profiles?min_birth_year=&max_birth_year=.
func (h *ProfileHandler) ListProfiles(c *gin.Context) {
	r, err := service.ParseBirthYearRange(c.Query("min_birth_year"), c.Query("max_birth_year"))
	if err != nil {
		respondError(c, err)
		return
	}

	profiles, err := h.profileService.ListByBirthYearRange(c.Request.Context(), r)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.ProfileListResponse[models.Profile]{
		MinBirthYear: r.Min,
		MaxBirthYear: r.Max,
		Count:        len(profiles),
		Profiles:     profiles,
	})
}

func (h *ProfileHandler) CreateProfile(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req types.CreateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	profile, err := h.profileService.Create(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, profile)
}

func (h *ProfileHandler) GetProfile(c *gin.Context) {
	id, ok := profileID(c)
	if !ok {
		return
	}

	profile, err := h.profileService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	id, ok := profileID(c)
	if !ok {
		return
	}

	var req types.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	profile, err := h.profileService.Update(c.Request.Context(), userID, id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

func (h *ProfileHandler) DeleteProfile(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	id, ok := profileID(c)
	if !ok {
		return
	}

	if err := h.profileService.Delete(c.Request.Context(), userID, id); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *ProfileHandler) currentUser(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, middleware.ErrorResponse{Error: "unauthorized"})
	}
	return userID, ok
}

func profileID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 0)
	if err != nil || id == 0 {
		badRequest(c, "invalid profile id")
		return 0, false
	}
	return uint(id), true
}
