package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	"github.com/hangulab/topik-practice-backend/internal/middleware"
	"github.com/hangulab/topik-practice-backend/internal/model"
	"github.com/hangulab/topik-practice-backend/internal/repository"
	"github.com/hangulab/topik-practice-backend/internal/response"
	"github.com/hangulab/topik-practice-backend/internal/service"
	"github.com/hangulab/topik-practice-backend/internal/validator"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService *service.AuthService
	learnerRepo *repository.LearnerRepository
	adminRepo   *repository.AdminRepository
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(
	authService *service.AuthService,
	learnerRepo *repository.LearnerRepository,
	adminRepo *repository.AdminRepository,
) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		learnerRepo: learnerRepo,
		adminRepo:   adminRepo,
	}
}

// Register godoc
// POST /api/v1/auth/register
// Creates a learner account on the free plan and signs it in.
func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if _, err := h.learnerRepo.GetByEmail(c.Request.Context(), req.Email); err == nil {
		response.Fail(c, http.StatusConflict, response.ErrEmailTaken)
		return
	} else if !errors.Is(err, pgx.ErrNoRows) {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	hash, err := h.authService.HashPassword(req.Password)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	learner := &model.Learner{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		Plan:         model.PlanFree,
	}
	if err := h.learnerRepo.Create(c.Request.Context(), learner); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	token, err := h.authService.GenerateLearnerToken(c.Request.Context(), learner.ID, string(learner.Plan))
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"token":   token,
		"learner": learnerBody(learner),
	})
}

// Login godoc
// POST /api/v1/auth/login
// Validates email + password, returns JWT. A newer login replaces any
// session on another device.
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	learner, err := h.learnerRepo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		return
	}

	if err := h.authService.CheckPassword(learner.PasswordHash, req.Password); err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		return
	}

	token, err := h.authService.GenerateLearnerToken(c.Request.Context(), learner.ID, string(learner.Plan))
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"token":   token,
		"learner": learnerBody(learner),
	})
}

// Me godoc
// GET /api/v1/auth/me
// Returns the profile of the currently authenticated learner.
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	learner, err := h.learnerRepo.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"learner": learnerBody(learner)})
}

// Logout godoc
// POST /api/v1/auth/logout
// Ends the learner's active session.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.authService.Logout(c.Request.Context(), claims.UserID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// AdminLogin godoc
// POST /api/v1/auth/admin/login
// Validates email + password for a content author, returns JWT.
func (h *AuthHandler) AdminLogin(c *gin.Context) {
	var req model.LoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	admin, err := h.adminRepo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		return
	}

	if err := h.authService.CheckPassword(admin.PasswordHash, req.Password); err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		return
	}

	token, err := h.authService.GenerateAdminToken(admin.ID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"token": token,
		"admin": gin.H{
			"id":    admin.ID,
			"email": admin.Email,
			"name":  admin.Name,
		},
	})
}

func learnerBody(l *model.Learner) gin.H {
	return gin.H{
		"id":    l.ID,
		"email": l.Email,
		"name":  l.Name,
		"plan":  l.Plan,
	}
}
