package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/freelancehub/backend/internal/models"
)

type ProfileHandler struct {
	DB         *gorm.DB
	UploadDir  string
	AppBaseURL string
}

func NewProfileHandler(db *gorm.DB, uploadDir, appBaseURL string) *ProfileHandler {
	return &ProfileHandler{DB: db, UploadDir: uploadDir, AppBaseURL: appBaseURL}
}

// MarshalSkills encodes a skill list into the JSON column format used by
// FreelancerProfile. Nil becomes an empty array, never null.
func MarshalSkills(skills []string) (datatypes.JSON, error) {
	if skills == nil {
		skills = []string{}
	}
	raw, err := json.Marshal(skills)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

// Me returns the caller's profile row. Unlike /auth/me, a missing profile
// here is an explicit 404 so the frontend can route to profile setup.
func (h *ProfileHandler) Me(c *fiber.Ctx) error {
	caller, err := getCaller(c)
	if err != nil {
		return err
	}

	switch caller.Role() {
	case models.RoleClient:
		var profile models.ClientProfile
		if err := h.DB.First(&profile, "user_id = ?", caller.UserID()).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
					"success": false,
					"message": "Profile not set up yet",
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Failed to fetch profile",
			})
		}
		return c.JSON(fiber.Map{"success": true, "data": profile})

	case models.RoleFreelancer:
		var profile models.FreelancerProfile
		if err := h.DB.First(&profile, "user_id = ?", caller.UserID()).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
					"success": false,
					"message": "Profile not set up yet",
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Failed to fetch profile",
			})
		}
		return c.JSON(fiber.Map{"success": true, "data": profile})
	}

	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
		"success": false,
		"message": "Unknown role",
	})
}

type UpdateProfileReq struct {
	Name        *string   `json:"name"`
	CompanyName *string   `json:"company_name"`
	Bio         *string   `json:"bio"`
	Skills      *[]string `json:"skills"`
}

// Update patches the caller's profile, creating the row if registration
// never did. Pointer fields so absent keys leave values untouched.
func (h *ProfileHandler) Update(c *fiber.Ctx) error {
	caller, err := getCaller(c)
	if err != nil {
		return err
	}

	var req UpdateProfileReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Name cannot be empty",
			})
		}
		if err := h.DB.Model(&models.User{}).
			Where("id = ?", caller.UserID()).
			Update("name", name).Error; err != nil {
			log.Println("error updating name:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Failed to update profile",
			})
		}
	}

	switch caller.Role() {
	case models.RoleClient:
		var profile models.ClientProfile
		err := h.DB.First(&profile, "user_id = ?", caller.UserID()).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			profile = models.ClientProfile{UserID: caller.UserID()}
		} else if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Failed to fetch profile",
			})
		}

		if req.CompanyName != nil {
			profile.CompanyName = strings.TrimSpace(*req.CompanyName)
		}
		if req.Bio != nil {
			profile.Bio = strings.TrimSpace(*req.Bio)
		}

		if err := h.DB.Save(&profile).Error; err != nil {
			log.Println("error saving client profile:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Failed to update profile",
			})
		}
		return c.JSON(fiber.Map{"success": true, "message": "Profile updated", "data": profile})

	case models.RoleFreelancer:
		var profile models.FreelancerProfile
		err := h.DB.First(&profile, "user_id = ?", caller.UserID()).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			profile = models.FreelancerProfile{UserID: caller.UserID()}
		} else if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Failed to fetch profile",
			})
		}

		if req.Bio != nil {
			profile.Bio = strings.TrimSpace(*req.Bio)
		}
		if req.Skills != nil {
			skills, err := MarshalSkills(*req.Skills)
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"success": false,
					"message": "Invalid skills",
				})
			}
			profile.Skills = skills
		}

		if err := h.DB.Save(&profile).Error; err != nil {
			log.Println("error saving freelancer profile:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Failed to update profile",
			})
		}
		return c.JSON(fiber.Map{"success": true, "message": "Profile updated", "data": profile})
	}

	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
		"success": false,
		"message": "Unknown role",
	})
}

// UploadPhoto stores a profile photo on disk and records its public URL.
func (h *ProfileHandler) UploadPhoto(c *fiber.Ctx) error {
	caller, err := getCaller(c)
	if err != nil {
		return err
	}

	file, err := c.FormFile("photo")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Photo file is required",
		})
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Only jpg, jpeg, png and webp files are allowed",
		})
	}

	uploadDir := filepath.Join(h.UploadDir, "profile")
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to create upload folder",
		})
	}

	filename := uuid.New().String() + ext
	if err := c.SaveFile(file, filepath.Join(uploadDir, filename)); err != nil {
		log.Println("error saving photo:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to save photo",
		})
	}

	photoURL := "/uploads/profile/" + filename
	if h.AppBaseURL != "" {
		photoURL = strings.TrimRight(h.AppBaseURL, "/") + photoURL
	}

	var dbErr error
	switch caller.Role() {
	case models.RoleClient:
		dbErr = h.DB.Model(&models.ClientProfile{}).
			Where("user_id = ?", caller.UserID()).
			Update("photo_url", photoURL).Error
	case models.RoleFreelancer:
		dbErr = h.DB.Model(&models.FreelancerProfile{}).
			Where("user_id = ?", caller.UserID()).
			Update("photo_url", photoURL).Error
	}
	if dbErr != nil {
		log.Println("error updating photo url:", dbErr)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to update profile",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Photo uploaded",
		"data":    fiber.Map{"photo_url": photoURL},
	})
}
