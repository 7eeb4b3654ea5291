package handlers

import (
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freelancehub/backend/internal/lifecycle"
	"github.com/freelancehub/backend/internal/models"
)

type ProposalHandler struct {
	DB     *gorm.DB
	Engine *lifecycle.Engine
}

func NewProposalHandler(db *gorm.DB, engine *lifecycle.Engine) *ProposalHandler {
	return &ProposalHandler{DB: db, Engine: engine}
}

type SubmitProposalReq struct {
	CoverLetter string `json:"cover_letter"`
	BidAmount   int64  `json:"bid_amount"`
}

type ProposalResponse struct {
	ID           string    `json:"id"`
	ProjectID    string    `json:"project_id"`
	FreelancerID string    `json:"freelancer_id"`
	CoverLetter  string    `json:"cover_letter"`
	BidAmount    int64     `json:"bid_amount"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`

	Project    *ProjectResponse `json:"project,omitempty"`
	Freelancer *UserMini        `json:"freelancer,omitempty"`
}

func toProposalResponse(p *models.Proposal) ProposalResponse {
	resp := ProposalResponse{
		ID:           p.ID.String(),
		ProjectID:    p.ProjectID.String(),
		FreelancerID: p.FreelancerID.String(),
		CoverLetter:  p.CoverLetter,
		BidAmount:    p.BidAmount,
		Status:       string(p.Status),
		CreatedAt:    p.CreatedAt,
	}
	if p.Project != nil {
		pr := toProjectResponse(p.Project)
		resp.Project = &pr
	}
	if p.Freelancer != nil {
		resp.Freelancer = &UserMini{ID: p.Freelancer.ID.String(), Name: p.Freelancer.Name}
	}
	return resp
}

// Submit creates a pending proposal on an open project.
func (h *ProposalHandler) Submit(c *fiber.Ctx) error {
	caller, err := getCaller(c)
	if err != nil {
		return err
	}

	projectID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid project ID",
		})
	}

	var req SubmitProposalReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	proposal, err := h.Engine.SubmitProposal(caller, projectID, req.BidAmount, strings.TrimSpace(req.CoverLetter))
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Proposal submitted successfully",
		"data":    toProposalResponse(proposal),
	})
}

// Accept runs the compound transition through the lifecycle engine.
func (h *ProposalHandler) Accept(c *fiber.Ctx) error {
	caller, err := getCaller(c)
	if err != nil {
		return err
	}

	proposalID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid proposal ID",
		})
	}

	proposal, err := h.Engine.AcceptProposal(caller, proposalID)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Proposal accepted, project is now in progress",
		"data":    toProposalResponse(proposal),
	})
}

// ListMine returns the calling freelancer's proposals, newest first.
func (h *ProposalHandler) ListMine(c *fiber.Ctx) error {
	caller, err := getCaller(c)
	if err != nil {
		return err
	}

	if !caller.CanPropose() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "Only freelancers can view their proposals",
		})
	}

	var proposals []models.Proposal
	if err := h.DB.Preload("Project").
		Where("freelancer_id = ?", caller.UserID()).
		Order("created_at DESC").
		Find(&proposals).Error; err != nil {
		log.Println("error fetching proposals:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch proposals",
		})
	}

	out := make([]ProposalResponse, 0, len(proposals))
	for i := range proposals {
		out = append(out, toProposalResponse(&proposals[i]))
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    out,
	})
}

// ListForProject returns every proposal on a project, owning client only.
func (h *ProposalHandler) ListForProject(c *fiber.Ctx) error {
	caller, err := getCaller(c)
	if err != nil {
		return err
	}

	projectID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid project ID",
		})
	}

	var project models.Project
	if err := h.DB.First(&project, "id = ?", projectID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Project not found",
		})
	}

	if !caller.OwnsProject(&project) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "You don't have permission to view these proposals",
		})
	}

	var proposals []models.Proposal
	if err := h.DB.Preload("Freelancer").
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&proposals).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch proposals",
		})
	}

	out := make([]ProposalResponse, 0, len(proposals))
	for i := range proposals {
		out = append(out, toProposalResponse(&proposals[i]))
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    out,
	})
}
