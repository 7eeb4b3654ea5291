package lifecycle

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freelancehub/backend/internal/auth"
	"github.com/freelancehub/backend/internal/models"
)

// Engine owns the project/proposal state machine:
//
//	project:  open -> in_progress -> completed
//	proposal: pending -> accepted | rejected
//
// Accepting a proposal flips the project to in_progress and rejects every
// pending sibling in the same transaction. Once a project leaves open no
// further proposals can be created against it.
type Engine struct {
	DB *gorm.DB
}

func NewEngine(db *gorm.DB) *Engine {
	return &Engine{DB: db}
}

// SubmitProposal creates a pending proposal for an open project. Freelancers
// only, one proposal per (project, freelancer); the composite unique index
// backstops the duplicate check under concurrent submissions.
func (e *Engine) SubmitProposal(caller auth.Caller, projectID uuid.UUID, bidAmount int64, coverLetter string) (*models.Proposal, error) {
	if !caller.CanPropose() {
		return nil, fmt.Errorf("%w: only freelancers can submit proposals", ErrForbidden)
	}
	if bidAmount <= 0 {
		return nil, fmt.Errorf("%w: bid amount must be positive", ErrValidation)
	}

	var created models.Proposal
	err := e.DB.Transaction(func(tx *gorm.DB) error {
		var project models.Project
		if err := tx.First(&project, "id = ?", projectID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: project not found", ErrNotFound)
			}
			return err
		}

		if project.Status != models.ProjectOpen {
			return fmt.Errorf("%w: project is no longer accepting proposals", ErrConflict)
		}

		var existing int64
		if err := tx.Model(&models.Proposal{}).
			Where("project_id = ? AND freelancer_id = ?", projectID, caller.UserID()).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return fmt.Errorf("%w: you have already submitted a proposal for this project", ErrConflict)
		}

		created = models.Proposal{
			ProjectID:    projectID,
			FreelancerID: caller.UserID(),
			CoverLetter:  coverLetter,
			BidAmount:    bidAmount,
			Status:       models.ProposalPending,
		}
		if err := tx.Create(&created).Error; err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: you have already submitted a proposal for this project", ErrConflict)
			}
			return err
		}

		// re-check after the insert: an accept may have committed since the
		// first read, and its sibling sweep cannot see this row yet. A
		// proposal must never land on a project that has left open.
		var status models.ProjectStatus
		if err := tx.Model(&models.Project{}).
			Select("status").
			Where("id = ?", projectID).
			Scan(&status).Error; err != nil {
			return err
		}
		if status != models.ProjectOpen {
			return fmt.Errorf("%w: project is no longer accepting proposals", ErrConflict)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// AcceptProposal is the compound transition: the chosen proposal becomes
// accepted, every pending sibling becomes rejected and the project moves to
// in_progress, all-or-nothing. The conditional project update (open ->
// in_progress) is the serialization point: of two concurrent accepts on the
// same project exactly one flips the row, the other rolls back with Conflict.
func (e *Engine) AcceptProposal(caller auth.Caller, proposalID uuid.UUID) (*models.Proposal, error) {
	var accepted models.Proposal
	err := e.DB.Transaction(func(tx *gorm.DB) error {
		var prop models.Proposal
		if err := tx.First(&prop, "id = ?", proposalID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: proposal not found", ErrNotFound)
			}
			return err
		}

		var project models.Project
		if err := tx.First(&project, "id = ?", prop.ProjectID).Error; err != nil {
			return err
		}

		if !caller.OwnsProject(&project) {
			return fmt.Errorf("%w: only the project owner can accept proposals", ErrForbidden)
		}

		if prop.Status != models.ProposalPending {
			return fmt.Errorf("%w: this proposal has already been processed", ErrConflict)
		}

		res := tx.Model(&models.Project{}).
			Where("id = ? AND status = ?", project.ID, models.ProjectOpen).
			Update("status", models.ProjectInProgress)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: project is no longer open", ErrConflict)
		}

		res = tx.Model(&models.Proposal{}).
			Where("id = ? AND status = ?", prop.ID, models.ProposalPending).
			Update("status", models.ProposalAccepted)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: this proposal has already been processed", ErrConflict)
		}

		if err := tx.Model(&models.Proposal{}).
			Where("project_id = ? AND id <> ? AND status = ?", prop.ProjectID, prop.ID, models.ProposalPending).
			Update("status", models.ProposalRejected).Error; err != nil {
			return err
		}

		return tx.First(&accepted, "id = ?", prop.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return &accepted, nil
}

// CompleteProject moves an in_progress project to its terminal state. The
// proposal set and the message log are frozen from here on.
func (e *Engine) CompleteProject(caller auth.Caller, projectID uuid.UUID) (*models.Project, error) {
	var completed models.Project
	err := e.DB.Transaction(func(tx *gorm.DB) error {
		var project models.Project
		if err := tx.First(&project, "id = ?", projectID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: project not found", ErrNotFound)
			}
			return err
		}

		if !caller.OwnsProject(&project) {
			return fmt.Errorf("%w: only the project owner can complete the project", ErrForbidden)
		}

		res := tx.Model(&models.Project{}).
			Where("id = ? AND status = ?", project.ID, models.ProjectInProgress).
			Update("status", models.ProjectCompleted)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: only projects in progress can be completed", ErrConflict)
		}

		return tx.First(&completed, "id = ?", project.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return &completed, nil
}

// MessageGate authorizes access to a project's message log: the project must
// be in_progress and the caller must be the owning client or the freelancer
// holding the accepted proposal. Everyone else gets Forbidden, regardless of
// role.
func (e *Engine) MessageGate(caller auth.Caller, projectID uuid.UUID) (*models.Project, error) {
	var project models.Project
	if err := e.DB.First(&project, "id = ?", projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: project not found", ErrNotFound)
		}
		return nil, err
	}

	if project.Status != models.ProjectInProgress {
		return nil, fmt.Errorf("%w: messaging is only available while the project is in progress", ErrForbidden)
	}

	if caller.OwnsProject(&project) {
		return &project, nil
	}

	var hired int64
	if err := e.DB.Model(&models.Proposal{}).
		Where("project_id = ? AND freelancer_id = ? AND status = ?",
			projectID, caller.UserID(), models.ProposalAccepted).
		Count(&hired).Error; err != nil {
		return nil, err
	}
	if hired == 0 {
		return nil, fmt.Errorf("%w: you do not have access to this project's messages", ErrForbidden)
	}

	return &project, nil
}

// AcceptedProposal returns the winning proposal for a project, if any.
func (e *Engine) AcceptedProposal(projectID uuid.UUID) (*models.Proposal, error) {
	var prop models.Proposal
	err := e.DB.First(&prop, "project_id = ? AND status = ?", projectID, models.ProposalAccepted).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: no accepted proposal for this project", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &prop, nil
}

// isUniqueViolation matches duplicate-key failures across the drivers we run
// against (gorm translation, postgres, sqlite).
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint")
}
