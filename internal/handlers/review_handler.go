package handlers

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freelancehub/backend/internal/lifecycle"
	"github.com/freelancehub/backend/internal/models"
)

type ReviewHandler struct {
	DB     *gorm.DB
	Engine *lifecycle.Engine
}

func NewReviewHandler(db *gorm.DB, engine *lifecycle.Engine) *ReviewHandler {
	return &ReviewHandler{DB: db, Engine: engine}
}

type CreateReviewReq struct {
	Rating   int    `json:"rating"`
	Feedback string `json:"feedback"`
}

type ReviewResponse struct {
	ID           string    `json:"id"`
	ProjectID    string    `json:"project_id"`
	FreelancerID string    `json:"freelancer_id"`
	Rating       int       `json:"rating"`
	Feedback     string    `json:"feedback"`
	CreatedAt    time.Time `json:"created_at"`

	Client  *UserMini `json:"client,omitempty"`
	Project *string   `json:"project_title,omitempty"`
}

func toReviewResponse(r *models.Review) ReviewResponse {
	resp := ReviewResponse{
		ID:           r.ID.String(),
		ProjectID:    r.ProjectID.String(),
		FreelancerID: r.FreelancerID.String(),
		Rating:       r.Rating,
		Feedback:     r.Feedback,
		CreatedAt:    r.CreatedAt,
	}
	if r.Client != nil {
		resp.Client = &UserMini{ID: r.Client.ID.String(), Name: r.Client.Name}
	}
	if r.Project != nil {
		resp.Project = &r.Project.Title
	}
	return resp
}

// Create lets the owning client rate the hired freelancer once the project
// is completed. One review per project.
func (h *ReviewHandler) Create(c *fiber.Ctx) error {
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

	var req CreateReviewReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	if req.Rating < 1 || req.Rating > 5 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Rating must be between 1 and 5",
		})
	}

	var project models.Project
	if err := h.DB.First(&project, "id = ?", projectID).Error; err != nil {
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

	if !caller.OwnsProject(&project) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "Only the project owner can leave a review",
		})
	}

	if project.Status != models.ProjectCompleted {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"message": "Reviews can only be left on completed projects",
		})
	}

	accepted, err := h.Engine.AcceptedProposal(projectID)
	if err != nil {
		return fail(c, err)
	}

	review := models.Review{
		ProjectID:    projectID,
		ClientID:     caller.UserID(),
		FreelancerID: accepted.FreelancerID,
		Rating:       req.Rating,
		Feedback:     strings.TrimSpace(req.Feedback),
	}

	if err := h.DB.Create(&review).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) ||
			strings.Contains(err.Error(), "duplicate key") ||
			strings.Contains(err.Error(), "UNIQUE constraint") {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"success": false,
				"message": "You have already reviewed this project",
			})
		}
		log.Println("error creating review:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to create review",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Review submitted",
		"data":    toReviewResponse(&review),
	})
}

// ListForFreelancer is public within the platform: anyone logged in can see
// a freelancer's reviews and average rating.
func (h *ReviewHandler) ListForFreelancer(c *fiber.Ctx) error {
	if _, err := getCaller(c); err != nil {
		return err
	}

	freelancerID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid freelancer ID",
		})
	}

	var reviews []models.Review
	if err := h.DB.Preload("Client").Preload("Project").
		Where("freelancer_id = ?", freelancerID).
		Order("created_at DESC").
		Find(&reviews).Error; err != nil {
		log.Println("error fetching reviews:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch reviews",
		})
	}

	var avg float64
	if len(reviews) > 0 {
		sum := 0
		for i := range reviews {
			sum += reviews[i].Rating
		}
		avg = float64(sum) / float64(len(reviews))
	}

	out := make([]ReviewResponse, 0, len(reviews))
	for i := range reviews {
		out = append(out, toReviewResponse(&reviews[i]))
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"reviews":        out,
			"average_rating": avg,
			"total_reviews":  len(reviews),
		},
	})
}
