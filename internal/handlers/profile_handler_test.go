package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freelancehub/backend/internal/models"
)

func TestProfileMe(t *testing.T) {
	env := newTestEnv(t)

	t.Run("existing profile is returned", func(t *testing.T) {
		u := env.createUser(t, models.RoleFreelancer, "f@test.com")
		resp, body := env.request(t, "GET", "/api/v1/profile/me", nil, env.cookieFor(t, u))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		data := dataMap(t, body)
		assert.Equal(t, u.ID.String(), data["user_id"])
	})

	t.Run("missing profile row is an explicit 404", func(t *testing.T) {
		u := env.createUser(t, models.RoleClient, "bare@test.com")
		require.NoError(t, env.DB.Where("user_id = ?", u.ID).Delete(&models.ClientProfile{}).Error)

		resp, body := env.request(t, "GET", "/api/v1/profile/me", nil, env.cookieFor(t, u))
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, false, body["success"])
	})
}

func TestProfileUpdate(t *testing.T) {
	env := newTestEnv(t)

	t.Run("client updates company and name", func(t *testing.T) {
		u := env.createUser(t, models.RoleClient, "c@test.com")
		resp, _ := env.request(t, "PATCH", "/api/v1/profile/me", map[string]interface{}{
			"name":         "Renamed Client",
			"company_name": "New Co",
		}, env.cookieFor(t, u))
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var reloaded models.User
		require.NoError(t, env.DB.First(&reloaded, "id = ?", u.ID).Error)
		assert.Equal(t, "Renamed Client", reloaded.Name)

		var profile models.ClientProfile
		require.NoError(t, env.DB.First(&profile, "user_id = ?", u.ID).Error)
		assert.Equal(t, "New Co", profile.CompanyName)
	})

	t.Run("freelancer replaces skills", func(t *testing.T) {
		u := env.createUser(t, models.RoleFreelancer, "f@test.com")
		resp, _ := env.request(t, "PATCH", "/api/v1/profile/me", map[string]interface{}{
			"skills": []string{"Rust", "WASM"},
			"bio":    "systems work",
		}, env.cookieFor(t, u))
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var profile models.FreelancerProfile
		require.NoError(t, env.DB.First(&profile, "user_id = ?", u.ID).Error)
		assert.JSONEq(t, `["Rust","WASM"]`, string(profile.Skills))
		assert.Equal(t, "systems work", profile.Bio)
	})

	t.Run("absent fields stay untouched", func(t *testing.T) {
		u := env.createUser(t, models.RoleFreelancer, "keep@test.com")
		resp, _ := env.request(t, "PATCH", "/api/v1/profile/me", map[string]interface{}{
			"bio": "only the bio",
		}, env.cookieFor(t, u))
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var profile models.FreelancerProfile
		require.NoError(t, env.DB.First(&profile, "user_id = ?", u.ID).Error)
		assert.JSONEq(t, `["Go"]`, string(profile.Skills))
	})

	t.Run("empty name rejected", func(t *testing.T) {
		u := env.createUser(t, models.RoleClient, "c2@test.com")
		resp, _ := env.request(t, "PATCH", "/api/v1/profile/me", map[string]interface{}{
			"name": "  ",
		}, env.cookieFor(t, u))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("update creates the row when registration never did", func(t *testing.T) {
		u := env.createUser(t, models.RoleClient, "late@test.com")
		require.NoError(t, env.DB.Where("user_id = ?", u.ID).Delete(&models.ClientProfile{}).Error)

		resp, _ := env.request(t, "PATCH", "/api/v1/profile/me", map[string]interface{}{
			"company_name": "Late Co",
		}, env.cookieFor(t, u))
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var profile models.ClientProfile
		require.NoError(t, env.DB.First(&profile, "user_id = ?", u.ID).Error)
		assert.Equal(t, "Late Co", profile.CompanyName)
	})
}

func TestMarshalSkills(t *testing.T) {
	out, err := MarshalSkills(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(out))

	out, err = MarshalSkills([]string{"Go", "SQL"})
	require.NoError(t, err)
	assert.JSONEq(t, `["Go","SQL"]`, string(out))
}
