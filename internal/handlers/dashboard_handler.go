package handlers

import (
	"encoding/json"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freelancehub/backend/internal/models"
)

type DashboardHandler struct {
	DB *gorm.DB
}

func NewDashboardHandler(db *gorm.DB) *DashboardHandler {
	return &DashboardHandler{DB: db}
}

// Client summarizes the caller's side of the marketplace: project counts per
// status, pending proposals awaiting a decision and total spend on
// completed work.
func (h *DashboardHandler) Client(c *fiber.Ctx) error {
	caller, err := getCaller(c)
	if err != nil {
		return err
	}

	if caller.Role() != models.RoleClient {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "Client dashboard is for clients only",
		})
	}

	clientID := caller.UserID()

	var openCount, inProgressCount, completedCount int64
	h.DB.Model(&models.Project{}).Where("client_id = ? AND status = ?", clientID, models.ProjectOpen).Count(&openCount)
	h.DB.Model(&models.Project{}).Where("client_id = ? AND status = ?", clientID, models.ProjectInProgress).Count(&inProgressCount)
	h.DB.Model(&models.Project{}).Where("client_id = ? AND status = ?", clientID, models.ProjectCompleted).Count(&completedCount)

	var pendingProposals int64
	h.DB.Model(&models.Proposal{}).
		Joins("JOIN projects ON projects.id = proposals.project_id").
		Where("projects.client_id = ? AND proposals.status = ?", clientID, models.ProposalPending).
		Count(&pendingProposals)

	// spend is the accepted bid on each completed project
	var totalSpent int64
	row := h.DB.Model(&models.Proposal{}).
		Select("COALESCE(SUM(proposals.bid_amount), 0)").
		Joins("JOIN projects ON projects.id = proposals.project_id").
		Where("projects.client_id = ? AND projects.status = ? AND proposals.status = ?",
			clientID, models.ProjectCompleted, models.ProposalAccepted).
		Row()
	if err := row.Scan(&totalSpent); err != nil {
		log.Println("error computing total spent:", err)
	}

	var recent []models.Project
	if err := h.DB.Where("client_id = ?", clientID).
		Order("created_at DESC").Limit(5).
		Find(&recent).Error; err != nil {
		log.Println("error fetching recent projects:", err)
	}
	recentOut := make([]ProjectResponse, 0, len(recent))
	for i := range recent {
		recentOut = append(recentOut, toProjectResponse(&recent[i]))
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"open_projects":        openCount,
			"in_progress_projects": inProgressCount,
			"completed_projects":   completedCount,
			"pending_proposals":    pendingProposals,
			"total_spent":          totalSpent,
			"recent_projects":      recentOut,
		},
	})
}

// Freelancer summarizes proposal outcomes, earnings from completed projects,
// the caller's review average and a short list of open projects matching
// their skills.
func (h *DashboardHandler) Freelancer(c *fiber.Ctx) error {
	caller, err := getCaller(c)
	if err != nil {
		return err
	}

	if caller.Role() != models.RoleFreelancer {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "Freelancer dashboard is for freelancers only",
		})
	}

	freelancerID := caller.UserID()

	var pendingCount, acceptedCount, rejectedCount int64
	h.DB.Model(&models.Proposal{}).Where("freelancer_id = ? AND status = ?", freelancerID, models.ProposalPending).Count(&pendingCount)
	h.DB.Model(&models.Proposal{}).Where("freelancer_id = ? AND status = ?", freelancerID, models.ProposalAccepted).Count(&acceptedCount)
	h.DB.Model(&models.Proposal{}).Where("freelancer_id = ? AND status = ?", freelancerID, models.ProposalRejected).Count(&rejectedCount)

	var activeJobs, completedJobs int64
	h.DB.Model(&models.Proposal{}).
		Joins("JOIN projects ON projects.id = proposals.project_id").
		Where("proposals.freelancer_id = ? AND proposals.status = ? AND projects.status = ?",
			freelancerID, models.ProposalAccepted, models.ProjectInProgress).
		Count(&activeJobs)
	h.DB.Model(&models.Proposal{}).
		Joins("JOIN projects ON projects.id = proposals.project_id").
		Where("proposals.freelancer_id = ? AND proposals.status = ? AND projects.status = ?",
			freelancerID, models.ProposalAccepted, models.ProjectCompleted).
		Count(&completedJobs)

	var totalEarnings int64
	row := h.DB.Model(&models.Proposal{}).
		Select("COALESCE(SUM(proposals.bid_amount), 0)").
		Joins("JOIN projects ON projects.id = proposals.project_id").
		Where("proposals.freelancer_id = ? AND proposals.status = ? AND projects.status = ?",
			freelancerID, models.ProposalAccepted, models.ProjectCompleted).
		Row()
	if err := row.Scan(&totalEarnings); err != nil {
		log.Println("error computing earnings:", err)
	}

	var avgRating float64
	var totalReviews int64
	h.DB.Model(&models.Review{}).Where("freelancer_id = ?", freelancerID).Count(&totalReviews)
	if totalReviews > 0 {
		row := h.DB.Model(&models.Review{}).
			Select("AVG(rating)").
			Where("freelancer_id = ?", freelancerID).
			Row()
		if err := row.Scan(&avgRating); err != nil {
			log.Println("error computing avg rating:", err)
		}
	}

	matches := h.matchingProjects(freelancerID)

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"pending_proposals":  pendingCount,
			"accepted_proposals": acceptedCount,
			"rejected_proposals": rejectedCount,
			"active_jobs":        activeJobs,
			"completed_jobs":     completedJobs,
			"total_earnings":     totalEarnings,
			"average_rating":     avgRating,
			"total_reviews":      totalReviews,
			"recommended":        matches,
		},
	})
}

// matchingProjects finds up to 5 open projects the freelancer has not yet
// proposed to, preferring ones whose title or description mentions one of
// their skills; with no skills on file it falls back to the newest open
// projects.
func (h *DashboardHandler) matchingProjects(freelancerID uuid.UUID) []ProjectResponse {
	var skills []string
	var profile models.FreelancerProfile
	if err := h.DB.First(&profile, "user_id = ?", freelancerID).Error; err == nil && len(profile.Skills) > 0 {
		if err := json.Unmarshal(profile.Skills, &skills); err != nil {
			skills = nil
		}
	}

	q := h.DB.Model(&models.Project{}).
		Where("status = ?", models.ProjectOpen).
		Where("id NOT IN (?)", h.DB.Model(&models.Proposal{}).
			Select("project_id").
			Where("freelancer_id = ?", freelancerID))

	if len(skills) > 0 {
		var conds []string
		var args []interface{}
		for _, s := range skills {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			like := "%" + strings.ToLower(s) + "%"
			conds = append(conds, "(LOWER(title) LIKE ? OR LOWER(description) LIKE ?)")
			args = append(args, like, like)
		}
		if len(conds) > 0 {
			q = q.Where(strings.Join(conds, " OR "), args...)
		}
	}

	var projects []models.Project
	if err := q.Order("created_at DESC").Limit(5).Find(&projects).Error; err != nil {
		log.Println("error fetching recommended projects:", err)
		return []ProjectResponse{}
	}

	out := make([]ProjectResponse, 0, len(projects))
	for i := range projects {
		out = append(out, toProjectResponse(&projects[i]))
	}
	return out
}
