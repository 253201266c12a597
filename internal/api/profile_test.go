package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pageza/profiles/backend/internal/middleware"
	"github.com/pageza/profiles/backend/internal/models"
	"github.com/pageza/profiles/backend/internal/service"
	"github.com/pageza/profiles/backend/internal/testhelpers"
	"github.com/pageza/profiles/backend/internal/types"
)

// fakeAuth authenticates every request as userID.
func fakeAuth(userID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, userID)
		c.Next()
	}
}

func setupProfileRouter(svc service.IProfileService, userID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewProfileHandler(svc).RegisterRoutes(r.Group("/api/v1"), fakeAuth(userID))
	return r
}

func doJSON(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var buf *bytes.Buffer
	if body != "" {
		buf = bytes.NewBufferString(body)
	} else {
		buf = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestListProfiles(t *testing.T) {
	svc := new(testhelpers.MockProfileService)
	svc.On("ListByBirthYearRange", mock.Anything, service.BirthYearRange{Min: 1985, Max: 1995}).
		Return([]models.Profile{{ID: 2, BirthYear: 1985}, {ID: 1, BirthYear: 1990}}, nil)

	w := doJSON(setupProfileRouter(svc, uuid.New()), http.MethodGet, "/api/v1/profiles?min_birth_year=1985&max_birth_year=1995", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp types.ProfileListResponse[models.Profile]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, 1985, resp.Profiles[0].BirthYear)
	assert.Equal(t, 1990, resp.Profiles[1].BirthYear)
	svc.AssertExpectations(t)
}

func TestListProfilesInvalidArguments(t *testing.T) {
	svc := new(testhelpers.MockProfileService)
	r := setupProfileRouter(svc, uuid.New())

	for _, query := range []string{
		"",
		"?min_birth_year=1985",
		"?min_birth_year=abc&max_birth_year=1995",
		"?min_birth_year=1985&max_birth_year=1995.5",
	} {
		w := doJSON(r, http.MethodGet, "/api/v1/profiles"+query, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, "query %q", query)
	}
	svc.AssertNotCalled(t, "ListByBirthYearRange", mock.Anything, mock.Anything)
}

func TestListProfilesStorageUnavailable(t *testing.T) {
	svc := new(testhelpers.MockProfileService)
	svc.On("ListByBirthYearRange", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("op: %w", service.ErrStorageUnavailable))

	w := doJSON(setupProfileRouter(svc, uuid.New()), http.MethodGet, "/api/v1/profiles?min_birth_year=1&max_birth_year=2", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"error":"storage unavailable"}`, w.Body.String())
}

func TestCreateProfile(t *testing.T) {
	userID := uuid.New()
	svc := new(testhelpers.MockProfileService)
	svc.On("Create", mock.Anything, userID, mock.MatchedBy(func(req *types.CreateProfileRequest) bool {
		return req.FirstName != nil && *req.FirstName == "Ann" && req.LastName == nil && req.BirthYear == 1990
	})).Return(&models.Profile{ID: 7, UserID: userID, FirstName: testhelpers.StrPtr("Ann"), BirthYear: 1990}, nil)

	w := doJSON(setupProfileRouter(svc, userID), http.MethodPost, "/api/v1/profiles",
		`{"first_name":"Ann","last_name":null,"gender":"female","birth_year":1990}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(7), body["id"])
	assert.Nil(t, body["last_name"])
	assert.Equal(t, userID.String(), body["user_id"])
	svc.AssertExpectations(t)
}

func TestCreateProfileValidationFailure(t *testing.T) {
	svc := new(testhelpers.MockProfileService)
	svc.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil, models.ValidationErrors{
		{Field: "gender", Message: "not included in list", Rule: "gender_in_set"},
		{Field: "first_name", Message: "cannot be nil if Last Name is nil!", Rule: "names_not_both_null"},
	})

	w := doJSON(setupProfileRouter(svc, uuid.New()), http.MethodPost, "/api/v1/profiles", `{"gender":"other"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.JSONEq(t, `{
		"error": "validation failed",
		"errors": [
			{"field": "gender", "message": "not included in list"},
			{"field": "first_name", "message": "cannot be nil if Last Name is nil!"}
		]
	}`, w.Body.String())
}

func TestCreateProfileMalformedBody(t *testing.T) {
	svc := new(testhelpers.MockProfileService)
	w := doJSON(setupProfileRouter(svc, uuid.New()), http.MethodPost, "/api/v1/profiles", `{"birth_year":"nineteen"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetProfile(t *testing.T) {
	svc := new(testhelpers.MockProfileService)
	svc.On("Get", mock.Anything, uint(3)).Return(&models.Profile{ID: 3, BirthYear: 1970}, nil)
	svc.On("Get", mock.Anything, uint(4)).Return(nil, fmt.Errorf("op: %w", service.ErrNotFound))
	r := setupProfileRouter(svc, uuid.New())

	w := doJSON(r, http.MethodGet, "/api/v1/profiles/3", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodGet, "/api/v1/profiles/4", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(r, http.MethodGet, "/api/v1/profiles/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateProfile(t *testing.T) {
	userID := uuid.New()
	svc := new(testhelpers.MockProfileService)
	svc.On("Update", mock.Anything, userID, uint(3), mock.MatchedBy(func(req *types.UpdateProfileRequest) bool {
		return req.LastName.Set && req.LastName.Value == nil && !req.FirstName.Set && *req.BirthYear == 1999
	})).Return(&models.Profile{ID: 3, UserID: userID, BirthYear: 1999}, nil)
	svc.On("Update", mock.Anything, userID, uint(9), mock.Anything).Return(nil, fmt.Errorf("op: %w", service.ErrForbidden))
	r := setupProfileRouter(svc, userID)

	w := doJSON(r, http.MethodPut, "/api/v1/profiles/3", `{"last_name":null,"birth_year":1999}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodPut, "/api/v1/profiles/9", `{"birth_year":1999}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
	svc.AssertExpectations(t)
}

func TestDeleteProfile(t *testing.T) {
	userID := uuid.New()
	svc := new(testhelpers.MockProfileService)
	svc.On("Delete", mock.Anything, userID, uint(3)).Return(nil)

	w := doJSON(setupProfileRouter(svc, userID), http.MethodDelete, "/api/v1/profiles/3", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	svc.AssertExpectations(t)
}

func TestProfileRoutesRequireUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := new(testhelpers.MockProfileService)
	r := gin.New()
	NewProfileHandler(svc).RegisterRoutes(r.Group("/api/v1"), func(c *gin.Context) { c.Next() })

	w := doJSON(r, http.MethodPost, "/api/v1/profiles", `{"first_name":"Ann"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
