package handlers

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freelancehub/backend/internal/auth"
	"github.com/freelancehub/backend/internal/lifecycle"
	"github.com/freelancehub/backend/internal/models"
)

type ProjectHandler struct {
	DB     *gorm.DB
	Engine *lifecycle.Engine
}

func NewProjectHandler(db *gorm.DB, engine *lifecycle.Engine) *ProjectHandler {
	return &ProjectHandler{DB: db, Engine: engine}
}

type CreateProjectReq struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Budget      int64  `json:"budget"`
}

type ProjectResponse struct {
	ID          string    `json:"id"`
	ClientID    string    `json:"client_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Budget      int64     `json:"budget"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`

	Client *UserMini `json:"client,omitempty"`
}

type UserMini struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func toProjectResponse(p *models.Project) ProjectResponse {
	resp := ProjectResponse{
		ID:          p.ID.String(),
		ClientID:    p.ClientID.String(),
		Title:       p.Title,
		Description: p.Description,
		Budget:      p.Budget,
		Status:      string(p.Status),
		CreatedAt:   p.CreatedAt,
	}
	if p.Client != nil {
		resp.Client = &UserMini{ID: p.Client.ID.String(), Name: p.Client.Name}
	}
	return resp
}

// Create posts a new project. Clients only (also enforced by route
// middleware); status always starts open.
func (h *ProjectHandler) Create(c *fiber.Ctx) error {
	caller, err := getCaller(c)
	if err != nil {
		return err
	}

	if caller.Role() != models.RoleClient {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "Only clients can create projects",
		})
	}

	var req CreateProjectReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Title is required",
		})
	}
	if req.Budget <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Budget must be positive",
		})
	}

	project := models.Project{
		ClientID:    caller.UserID(),
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		Budget:      req.Budget,
		Status:      models.ProjectOpen,
	}

	if err := h.DB.Create(&project).Error; err != nil {
		log.Println("error creating project:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to create project",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    toProjectResponse(&project),
	})
}

// List is role-scoped: freelancers browse every open project with optional
// search/budget filters and sorting, clients see only their own projects.
func (h *ProjectHandler) List(c *fiber.Ctx) error {
	caller, err := getCaller(c)
	if err != nil {
		return err
	}

	q := h.DB.Model(&models.Project{}).Preload("Client")

	switch caller.(type) {
	case auth.Freelancer:
		q = q.Where("status = ?", models.ProjectOpen)

		if search := strings.TrimSpace(c.Query("q")); search != "" {
			like := "%" + strings.ToLower(search) + "%"
			q = q.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", like, like)
		}
		if min := c.QueryInt("min", 0); min > 0 {
			q = q.Where("budget >= ?", min)
		}
		if max := c.QueryInt("max", 0); max > 0 {
			q = q.Where("budget <= ?", max)
		}
	default:
		q = q.Where("client_id = ?", caller.UserID())
	}

	switch c.Query("sort") {
	case "oldest":
		q = q.Order("created_at ASC")
	case "budget_low":
		q = q.Order("budget ASC")
	case "budget_high":
		q = q.Order("budget DESC")
	default:
		q = q.Order("created_at DESC")
	}

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to count projects",
		})
	}

	var projects []models.Project
	if err := q.Limit(limit).Offset((page - 1) * limit).Find(&projects).Error; err != nil {
		log.Println("error listing projects:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch projects",
		})
	}

	out := make([]ProjectResponse, 0, len(projects))
	for i := range projects {
		out = append(out, toProjectResponse(&projects[i]))
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    out,
		"meta": fiber.Map{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// Detail shows a project. Client owners get the full proposal list;
// freelancers get any project but only their own proposal; client
// non-owners are rejected.
func (h *ProjectHandler) Detail(c *fiber.Ctx) error {
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
	if err := h.DB.Preload("Client").First(&project, "id = ?", projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "Project not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch project",
		})
	}

	data := fiber.Map{
		"project": toProjectResponse(&project),
	}

	switch caller.(type) {
	case auth.Client:
		if !caller.OwnsProject(&project) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"success": false,
				"message": "You don't have permission to view this project",
			})
		}

		var proposals []models.Proposal
		if err := h.DB.Preload("Freelancer").
			Where("project_id = ?", project.ID).
			Order("created_at DESC").
			Find(&proposals).Error; err != nil {
			log.Println("error fetching proposals:", err)
		}
		out := make([]ProposalResponse, 0, len(proposals))
		for i := range proposals {
			out = append(out, toProposalResponse(&proposals[i]))
		}
		data["proposals"] = out

	case auth.Freelancer:
		var mine models.Proposal
		err := h.DB.
			Where("project_id = ? AND freelancer_id = ?", project.ID, caller.UserID()).
			First(&mine).Error
		switch {
		case err == nil:
			resp := toProposalResponse(&mine)
			data["my_proposal"] = resp
		case errors.Is(err, gorm.ErrRecordNotFound):
			data["my_proposal"] = nil
		default:
			log.Println("error fetching own proposal:", err)
		}
		data["can_submit_proposal"] = project.Status == models.ProjectOpen && data["my_proposal"] == nil
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

// Complete moves an in_progress project to completed (owning client only).
func (h *ProjectHandler) Complete(c *fiber.Ctx) error {
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

	project, err := h.Engine.CompleteProject(caller, projectID)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Project marked as completed",
		"data":    toProjectResponse(project),
	})
}
