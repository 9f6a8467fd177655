package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"goshortlink/auth"
	"goshortlink/models"
	"goshortlink/repository"
)

type userRespData struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	Role        string     `json:"role"`
	RoleID      int        `json:"roleId"`
	IsActive    bool       `json:"isActive"`
	LastLoginAt *time.Time `json:"lastLoginAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompanyIDs  []uint     `json:"companyIds"`
}

func userResp(user *models.User, companyIDs []uint) userRespData {
	if companyIDs == nil {
		companyIDs = []uint{}
	}
	return userRespData{
		ID:          user.ID,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Role:        auth.RoleName(user.RoleID),
		RoleID:      user.RoleID,
		IsActive:    user.IsActive,
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
		CompanyIDs:  companyIDs,
	}
}

type AuthController struct {
	Users repository.UserStore
	JWT   *auth.Manager
	Log   *zap.Logger
}

type registerReqData struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Register creates a regular user account. Roles are only ever raised later
// by a SuperAdmin.
func (a AuthController) Register(c *gin.Context) {
	var req registerReqData
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request"})
		return
	}
	if req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "email and password are required"})
		return
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		a.Log.Error("hash password failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
		return
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        req.Email,
		PasswordHash: hashed,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		RoleID:       auth.RoleUser,
		IsActive:     true,
	}
	err = a.Users.Create(c.Request.Context(), user)
	if errors.Is(err, repository.ErrDuplicateKey) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "email address is already in use"})
		return
	}
	if err != nil {
		a.Log.Error("create user failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
		return
	}
	a.Log.Info("user registered", zap.String("email", user.Email))
	c.JSON(http.StatusCreated, userResp(user, nil))
}

type loginReqData struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login checks credentials and answers a signed bearer token. The same
// message covers an unknown email and a wrong password.
func (a AuthController) Login(c *gin.Context) {
	var req loginReqData
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request"})
		return
	}

	user, err := a.Users.GetByEmail(c.Request.Context(), req.Email)
	if errors.Is(err, repository.ErrRecordNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid email or password"})
		return
	}
	if err != nil {
		a.Log.Error("get user failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid email or password"})
		return
	}
	if !user.IsActive {
		c.JSON(http.StatusBadRequest, gin.H{"message": "account is deactivated"})
		return
	}

	now := time.Now().UTC()
	if err := a.Users.UpdateLastLogin(c.Request.Context(), user.ID, now); err != nil {
		a.Log.Warn("update last login failed", zap.Error(err))
	}
	user.LastLoginAt = &now

	signed, err := a.JWT.Generate(user)
	if err != nil {
		a.Log.Error("sign token failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
		return
	}

	companyIDs, err := a.Users.CompanyIDs(c.Request.Context(), user.ID)
	if err != nil {
		a.Log.Warn("load user companies failed", zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{
		"token": signed,
		"user":  userResp(user, companyIDs),
	})
}
