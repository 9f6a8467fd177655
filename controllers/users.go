package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"goshortlink/auth"
	"goshortlink/models"
	"goshortlink/repository"
)

// UserController hosts the administrative user endpoints. Every route is
// guarded by the ManageUsers capability, so handlers do not re-check roles.
type UserController struct {
	Users repository.UserStore
	Log   *zap.Logger
}

func (uc UserController) respData(user *models.User) userRespData {
	companyIDs := make([]uint, 0, len(user.Companies))
	for _, company := range user.Companies {
		companyIDs = append(companyIDs, company.ID)
	}
	return userResp(user, companyIDs)
}

func (uc UserController) List(c *gin.Context) {
	users, err := uc.Users.All(c.Request.Context())
	if err != nil {
		uc.Log.Error("list users failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
		return
	}
	resp := make([]userRespData, 0, len(users))
	for i := range users {
		resp = append(resp, uc.respData(&users[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (uc UserController) Get(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}
	user, err := uc.Users.GetByID(c.Request.Context(), id)
	if errors.Is(err, repository.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "user not found"})
		return
	}
	if err != nil {
		uc.Log.Error("get user failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
		return
	}
	c.JSON(http.StatusOK, uc.respData(user))
}

type updateRoleReqData struct {
	RoleID int `json:"roleId"`
}

func (uc UserController) UpdateRole(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}
	var req updateRoleReqData
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request"})
		return
	}
	if !auth.ValidRole(req.RoleID) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "unknown role"})
		return
	}
	err := uc.Users.UpdateRole(c.Request.Context(), id, req.RoleID)
	if errors.Is(err, repository.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "user not found"})
		return
	}
	if err != nil {
		uc.Log.Error("update role failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
		return
	}
	uc.Log.Info("user role changed",
		zap.String("user", id.String()),
		zap.String("role", auth.RoleName(req.RoleID)))
	c.Status(http.StatusNoContent)
}

type updateStatusReqData struct {
	IsActive bool `json:"isActive"`
}

// UpdateStatus activates or deactivates an account. Deactivated users keep
// their data but cannot log in.
func (uc UserController) UpdateStatus(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}
	var req updateStatusReqData
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request"})
		return
	}
	err := uc.Users.UpdateStatus(c.Request.Context(), id, req.IsActive)
	if errors.Is(err, repository.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "user not found"})
		return
	}
	if err != nil {
		uc.Log.Error("update status failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
		return
	}
	c.Status(http.StatusNoContent)
}

type updateCompaniesReqData struct {
	CompanyIDs []uint `json:"companyIds"`
}

// UpdateCompanies replaces the set of companies a user is assigned to.
func (uc UserController) UpdateCompanies(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}
	var req updateCompaniesReqData
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request"})
		return
	}
	err := uc.Users.ReplaceCompanies(c.Request.Context(), id, req.CompanyIDs)
	if errors.Is(err, repository.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "user not found"})
		return
	}
	if err != nil {
		uc.Log.Error("update companies failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (uc UserController) Delete(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}
	err := uc.Users.Delete(c.Request.Context(), id)
	if errors.Is(err, repository.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "user not found"})
		return
	}
	if err != nil {
		uc.Log.Error("delete user failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
		return
	}
	c.Status(http.StatusNoContent)
}

func parseUserID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}
