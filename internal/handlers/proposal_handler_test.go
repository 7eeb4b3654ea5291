package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freelancehub/backend/internal/models"
)

func submitProposal(t *testing.T, env *testEnv, freelancer *models.User, projectID string, bid int64) (int, string) {
	t.Helper()
	resp, body := env.request(t, "POST", "/api/v1/projects/"+projectID+"/proposals", map[string]interface{}{
		"cover_letter": "I can do this",
		"bid_amount":   bid,
	}, env.cookieFor(t, freelancer))
	if resp.StatusCode != http.StatusCreated {
		return resp.StatusCode, ""
	}
	return resp.StatusCode, dataMap(t, body)["id"].(string)
}

func TestSubmitProposalHandler(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, models.RoleClient, "owner@test.com")
	f1 := env.createUser(t, models.RoleFreelancer, "f1@test.com")

	projectID := createProject(t, env, owner, "Proposal target", 100000)

	t.Run("creates pending proposal", func(t *testing.T) {
		code, _ := submitProposal(t, env, f1, projectID, 90000)
		assert.Equal(t, http.StatusCreated, code)
	})

	t.Run("duplicate proposal conflicts", func(t *testing.T) {
		code, _ := submitProposal(t, env, f1, projectID, 85000)
		assert.Equal(t, http.StatusConflict, code)
	})

	t.Run("client is blocked by role middleware", func(t *testing.T) {
		resp, _ := env.request(t, "POST", "/api/v1/projects/"+projectID+"/proposals", map[string]interface{}{
			"bid_amount": 1,
		}, env.cookieFor(t, owner))
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("zero bid rejected", func(t *testing.T) {
		f2 := env.createUser(t, models.RoleFreelancer, "f2@test.com")
		code, _ := submitProposal(t, env, f2, projectID, 0)
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("proposals close once project leaves open", func(t *testing.T) {
		require.NoError(t, env.DB.Model(&models.Project{}).
			Where("id = ?", projectID).
			Update("status", models.ProjectInProgress).Error)

		f3 := env.createUser(t, models.RoleFreelancer, "f3@test.com")
		code, _ := submitProposal(t, env, f3, projectID, 70000)
		assert.Equal(t, http.StatusConflict, code)
	})
}

func TestAcceptProposalHandler(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, models.RoleClient, "owner@test.com")
	stranger := env.createUser(t, models.RoleClient, "stranger@test.com")
	f1 := env.createUser(t, models.RoleFreelancer, "f1@test.com")
	f2 := env.createUser(t, models.RoleFreelancer, "f2@test.com")

	projectID := createProject(t, env, owner, "Accept target", 100000)
	_, p1 := submitProposal(t, env, f1, projectID, 90000)
	_, p2 := submitProposal(t, env, f2, projectID, 95000)

	t.Run("stranger cannot accept", func(t *testing.T) {
		resp, _ := env.request(t, "POST", "/api/v1/proposals/"+p1+"/accept", nil, env.cookieFor(t, stranger))
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("owner accepts, sibling rejected, project in progress", func(t *testing.T) {
		resp, body := env.request(t, "POST", "/api/v1/proposals/"+p1+"/accept", nil, env.cookieFor(t, owner))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "accepted", dataMap(t, body)["status"])

		var sibling models.Proposal
		require.NoError(t, env.DB.First(&sibling, "id = ?", p2).Error)
		assert.Equal(t, models.ProposalRejected, sibling.Status)

		var project models.Project
		require.NoError(t, env.DB.First(&project, "id = ?", projectID).Error)
		assert.Equal(t, models.ProjectInProgress, project.Status)
	})

	t.Run("accepting rejected sibling conflicts", func(t *testing.T) {
		resp, _ := env.request(t, "POST", "/api/v1/proposals/"+p2+"/accept", nil, env.cookieFor(t, owner))
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})
}

func TestListProposals(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, models.RoleClient, "owner@test.com")
	stranger := env.createUser(t, models.RoleClient, "stranger@test.com")
	f1 := env.createUser(t, models.RoleFreelancer, "f1@test.com")

	projectID := createProject(t, env, owner, "List target", 100000)
	otherID := createProject(t, env, owner, "Other", 50000)
	submitProposal(t, env, f1, projectID, 90000)
	submitProposal(t, env, f1, otherID, 40000)

	t.Run("freelancer lists own proposals", func(t *testing.T) {
		resp, body := env.request(t, "GET", "/api/v1/proposals/mine", nil, env.cookieFor(t, f1))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Len(t, body["data"].([]interface{}), 2)
	})

	t.Run("owner lists project proposals", func(t *testing.T) {
		resp, body := env.request(t, "GET", "/api/v1/projects/"+projectID+"/proposals", nil, env.cookieFor(t, owner))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Len(t, body["data"].([]interface{}), 1)
	})

	t.Run("non-owner cannot list project proposals", func(t *testing.T) {
		resp, _ := env.request(t, "GET", "/api/v1/projects/"+projectID+"/proposals", nil, env.cookieFor(t, stranger))
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}
