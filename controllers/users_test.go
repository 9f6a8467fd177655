package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"goshortlink/auth"
	"goshortlink/models"
	"goshortlink/repository"
)

type stubAdminUserStore struct {
	repository.UnimplementedUserStore
	users map[uuid.UUID]*models.User
}

func newStubAdminUserStore(users ...*models.User) *stubAdminUserStore {
	s := &stubAdminUserStore{users: make(map[uuid.UUID]*models.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *stubAdminUserStore) All(ctx context.Context) ([]models.User, error) {
	var all []models.User
	for _, u := range s.users {
		all = append(all, *u)
	}
	return all, nil
}

func (s *stubAdminUserStore) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrRecordNotFound
	}
	return u, nil
}

func (s *stubAdminUserStore) UpdateRole(ctx context.Context, id uuid.UUID, roleID int) error {
	u, ok := s.users[id]
	if !ok {
		return repository.ErrRecordNotFound
	}
	u.RoleID = roleID
	return nil
}

func (s *stubAdminUserStore) UpdateStatus(ctx context.Context, id uuid.UUID, active bool) error {
	u, ok := s.users[id]
	if !ok {
		return repository.ErrRecordNotFound
	}
	u.IsActive = active
	return nil
}

func (s *stubAdminUserStore) ReplaceCompanies(ctx context.Context, id uuid.UUID, companyIDs []uint) error {
	u, ok := s.users[id]
	if !ok {
		return repository.ErrRecordNotFound
	}
	u.Companies = nil
	for _, cid := range companyIDs {
		u.Companies = append(u.Companies, models.Company{ID: cid})
	}
	return nil
}

func (s *stubAdminUserStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := s.users[id]; !ok {
		return repository.ErrRecordNotFound
	}
	delete(s.users, id)
	return nil
}

func adminRequest(method, id, body string) (*httptest.ResponseRecorder, *gin.Context) {
	r := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(r)
	ctx.Request = httptest.NewRequest(method, "/api/users/"+id, strings.NewReader(body))
	ctx.Params = []gin.Param{{Key: "id", Value: id}}
	return r, ctx
}

func TestUserController_List(t *testing.T) {
	uc := UserController{
		Users: newStubAdminUserStore(
			&models.User{ID: uuid.New(), Email: "a@example.com", RoleID: auth.RoleUser},
			&models.User{ID: uuid.New(), Email: "b@example.com", RoleID: auth.RoleAdmin,
				Companies: []models.Company{{ID: 4}}},
		),
		Log: zap.NewNop(),
	}

	r := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(r)
	ctx.Request = httptest.NewRequest(http.MethodGet, "/api/users", nil)
	uc.List(ctx)

	assert.Equal(t, http.StatusOK, r.Code)
	var got []userRespData
	assert.NoError(t, json.Unmarshal(r.Body.Bytes(), &got))
	assert.Len(t, got, 2)
	for _, u := range got {
		if u.Email == "b@example.com" {
			assert.Equal(t, "Admin", u.Role)
			assert.Equal(t, []uint{4}, u.CompanyIDs)
		}
	}
}

func TestUserController_UpdateRole(t *testing.T) {
	user := &models.User{ID: uuid.New(), Email: "a@example.com", RoleID: auth.RoleUser}

	tests := []struct {
		name               string
		id                 string
		reqJSON            string
		expectedStatusCode int
	}{
		{
			"promote to admin",
			user.ID.String(),
			`{"roleId": 2}`,
			http.StatusNoContent,
		},
		{
			"unknown role",
			user.ID.String(),
			`{"roleId": 9}`,
			http.StatusBadRequest,
		},
		{
			"unknown user",
			uuid.NewString(),
			`{"roleId": 2}`,
			http.StatusNotFound,
		},
		{
			"invalid id",
			"not-a-uuid",
			`{"roleId": 2}`,
			http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := UserController{Users: newStubAdminUserStore(user), Log: zap.NewNop()}
			r, ctx := adminRequest(http.MethodPatch, tt.id, tt.reqJSON)
			uc.UpdateRole(ctx)
			ctx.Writer.WriteHeaderNow()
			assert.Equal(t, tt.expectedStatusCode, r.Code)
		})
	}
}

func TestUserController_UpdateStatus(t *testing.T) {
	user := &models.User{ID: uuid.New(), Email: "a@example.com", RoleID: auth.RoleUser, IsActive: true}
	store := newStubAdminUserStore(user)
	uc := UserController{Users: store, Log: zap.NewNop()}

	r, ctx := adminRequest(http.MethodPatch, user.ID.String(), `{"isActive": false}`)
	uc.UpdateStatus(ctx)
	ctx.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, r.Code)
	assert.False(t, store.users[user.ID].IsActive)
}

func TestUserController_UpdateCompanies(t *testing.T) {
	user := &models.User{ID: uuid.New(), Email: "a@example.com", RoleID: auth.RoleUser}
	store := newStubAdminUserStore(user)
	uc := UserController{Users: store, Log: zap.NewNop()}

	r, ctx := adminRequest(http.MethodPatch, user.ID.String(), `{"companyIds": [1, 2]}`)
	uc.UpdateCompanies(ctx)
	ctx.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, r.Code)
	assert.Len(t, store.users[user.ID].Companies, 2)

	r, ctx = adminRequest(http.MethodPatch, user.ID.String(), `{"companyIds": []}`)
	uc.UpdateCompanies(ctx)
	ctx.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, r.Code)
	assert.Empty(t, store.users[user.ID].Companies)
}

func TestUserController_Delete(t *testing.T) {
	user := &models.User{ID: uuid.New(), Email: "a@example.com", RoleID: auth.RoleUser}
	store := newStubAdminUserStore(user)
	uc := UserController{Users: store, Log: zap.NewNop()}

	r, ctx := adminRequest(http.MethodDelete, user.ID.String(), "")
	uc.Delete(ctx)
	ctx.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, r.Code)
	assert.Empty(t, store.users)

	r, ctx = adminRequest(http.MethodDelete, user.ID.String(), "")
	uc.Delete(ctx)
	assert.Equal(t, http.StatusNotFound, r.Code)
}
