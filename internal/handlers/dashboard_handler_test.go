package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freelancehub/backend/internal/models"
)

func TestClientDashboard(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, models.RoleClient, "owner@test.com")
	hired := env.createUser(t, models.RoleFreelancer, "hired@test.com")
	freelancer := env.createUser(t, models.RoleFreelancer, "other@test.com")

	createProject(t, env, owner, "Still open", 50000)

	doneID := createProject(t, env, owner, "Finished job", 100000)
	hireFreelancer(t, env, owner, hired, doneID)
	resp, _ := env.request(t, "POST", "/api/v1/projects/"+doneID+"/complete", nil, env.cookieFor(t, owner))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	openID := createProject(t, env, owner, "Waiting on bids", 70000)
	code, _ := submitProposal(t, env, freelancer, openID, 60000)
	require.Equal(t, http.StatusCreated, code)

	resp, body := env.request(t, "GET", "/api/v1/dashboard/client", nil, env.cookieFor(t, owner))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data := dataMap(t, body)
	assert.EqualValues(t, 2, data["open_projects"])
	assert.EqualValues(t, 0, data["in_progress_projects"])
	assert.EqualValues(t, 1, data["completed_projects"])
	assert.EqualValues(t, 1, data["pending_proposals"])
	// spend is the accepted bid, not the posted budget
	assert.EqualValues(t, 90000, data["total_spent"])
	assert.Len(t, data["recent_projects"].([]interface{}), 3)

	t.Run("freelancer cannot open client dashboard", func(t *testing.T) {
		resp, _ := env.request(t, "GET", "/api/v1/dashboard/client", nil, env.cookieFor(t, hired))
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}

func TestFreelancerDashboard(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, models.RoleClient, "owner@test.com")
	me := env.createUser(t, models.RoleFreelancer, "me@test.com")
	rival := env.createUser(t, models.RoleFreelancer, "rival@test.com")

	// one completed paid job
	doneID := createProject(t, env, owner, "Shipped Go service", 100000)
	hireFreelancer(t, env, owner, me, doneID)
	resp, _ := env.request(t, "POST", "/api/v1/projects/"+doneID+"/complete", nil, env.cookieFor(t, owner))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = env.request(t, "POST", "/api/v1/projects/"+doneID+"/reviews",
		map[string]interface{}{"rating": 4, "feedback": "solid"}, env.cookieFor(t, owner))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// one lost proposal
	lostID := createProject(t, env, owner, "Lost bid", 50000)
	code, _ := submitProposal(t, env, me, lostID, 45000)
	require.Equal(t, http.StatusCreated, code)
	code, rivalProposal := submitProposal(t, env, rival, lostID, 40000)
	require.Equal(t, http.StatusCreated, code)
	resp, _ = env.request(t, "POST", "/api/v1/proposals/"+rivalProposal+"/accept", nil, env.cookieFor(t, owner))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// one pending proposal
	pendingID := createProject(t, env, owner, "Go worker pool tuning", 80000)
	code, _ = submitProposal(t, env, me, pendingID, 75000)
	require.Equal(t, http.StatusCreated, code)

	// an untouched open Go project, the only valid recommendation
	createProject(t, env, owner, "New Go scraper", 60000)

	resp, body := env.request(t, "GET", "/api/v1/dashboard/freelancer", nil, env.cookieFor(t, me))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data := dataMap(t, body)
	assert.EqualValues(t, 1, data["pending_proposals"])
	assert.EqualValues(t, 1, data["accepted_proposals"])
	assert.EqualValues(t, 1, data["rejected_proposals"])
	assert.EqualValues(t, 0, data["active_jobs"])
	assert.EqualValues(t, 1, data["completed_jobs"])
	assert.EqualValues(t, 90000, data["total_earnings"])
	assert.EqualValues(t, 4, data["average_rating"])
	assert.EqualValues(t, 1, data["total_reviews"])

	// skills contain "Go"; projects already proposed to are filtered out
	recommended := data["recommended"].([]interface{})
	require.Len(t, recommended, 1)
	assert.Equal(t, "New Go scraper", recommended[0].(map[string]interface{})["title"])

	t.Run("client cannot open freelancer dashboard", func(t *testing.T) {
		resp, _ := env.request(t, "GET", "/api/v1/dashboard/freelancer", nil, env.cookieFor(t, owner))
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}
