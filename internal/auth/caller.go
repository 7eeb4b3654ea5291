package auth

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/freelancehub/backend/internal/models"
)

// Caller is the authenticated principal behind a request. Handlers and the
// lifecycle engine dispatch permission checks through the concrete variant
// instead of comparing role strings at every call site.
type Caller interface {
	UserID() uuid.UUID
	Role() models.Role

	// OwnsProject reports whether the caller may manage the project:
	// read its full proposal list, accept proposals, complete it.
	OwnsProject(p *models.Project) bool

	// CanPropose reports whether the caller may submit proposals.
	CanPropose() bool
}

type Client struct {
	ID uuid.UUID
}

func (c Client) UserID() uuid.UUID                 { return c.ID }
func (c Client) Role() models.Role                 { return models.RoleClient }
func (c Client) OwnsProject(p *models.Project) bool { return p != nil && p.ClientID == c.ID }
func (c Client) CanPropose() bool                  { return false }

type Freelancer struct {
	ID uuid.UUID
}

func (f Freelancer) UserID() uuid.UUID                 { return f.ID }
func (f Freelancer) Role() models.Role                 { return models.RoleFreelancer }
func (f Freelancer) OwnsProject(p *models.Project) bool { return false }
func (f Freelancer) CanPropose() bool                  { return true }

// FromCtx builds a Caller from the locals set by the JWT middleware.
func FromCtx(c *fiber.Ctx) (Caller, error) {
	rawID := c.Locals("userId")
	rawRole := c.Locals("role")
	if rawID == nil || rawRole == nil {
		return nil, fmt.Errorf("unauthenticated")
	}

	idStr, ok := rawID.(string)
	if !ok {
		return nil, fmt.Errorf("invalid userId type: %T", rawID)
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("invalid userId: %w", err)
	}

	roleStr, _ := rawRole.(string)
	switch models.Role(strings.ToLower(strings.TrimSpace(roleStr))) {
	case models.RoleClient:
		return Client{ID: id}, nil
	case models.RoleFreelancer:
		return Freelancer{ID: id}, nil
	default:
		return nil, fmt.Errorf("unknown role %q", roleStr)
	}
}
