package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/PersonalGenomesOrg/gennotes/internal/domain"
	apperrors "github.com/PersonalGenomesOrg/gennotes/internal/platform/errors"
)

type createRelationRequest struct {
	VariantID int64       `json:"variant_id"`
	Tags      domain.Tags `json:"tags"`
	Comment   string      `json:"commit-comment"`
}

type deleteRelationRequest struct {
	EditedVersion int64  `json:"edited_version"`
	Comment       string `json:"commit-comment"`
}

type relationResponse struct {
	ID        int64       `json:"id"`
	VariantID int64       `json:"variant_id"`
	Tags      domain.Tags `json:"tags"`
	Version   int64       `json:"version"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func toRelationResponse(r *domain.Relation) relationResponse {
	return relationResponse{
		ID:        r.ID,
		VariantID: r.VariantID,
		Tags:      r.Tags,
		Version:   r.Version,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func toRelationResponses(relations []domain.Relation) []relationResponse {
	out := make([]relationResponse, 0, len(relations))
	for i := range relations {
		out = append(out, toRelationResponse(&relations[i]))
	}
	return out
}

func relationIDParam(c echo.Context) (int64, error) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, apperrors.ValidationError("invalid relation id").WithContext("id", raw)
	}
	return id, nil
}

func (s *Server) handleListRelations(c echo.Context) error {
	limit, offset := pagingParams(c)
	relations, err := s.app.ListRelations(c.Request().Context(), limit, offset)
	if err != nil {
		return err
	}

	if err := c.JSON(http.StatusOK, toRelationResponses(relations)); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleGetRelation(c echo.Context) error {
	id, err := relationIDParam(c)
	if err != nil {
		return err
	}

	relation, err := s.app.GetRelation(c.Request().Context(), id)
	if err != nil {
		return err
	}

	if err := c.JSON(http.StatusOK, toRelationResponse(relation)); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleCreateRelation(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req createRelationRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("malformed request body")
	}
	if req.VariantID < 1 {
		return apperrors.ValidationError("variant_id is required")
	}

	relation, err := s.app.CreateRelation(c.Request().Context(), userID, req.VariantID, req.Tags, req.Comment)
	if err != nil {
		return err
	}

	if err := c.JSON(http.StatusCreated, toRelationResponse(relation)); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleUpdateRelation(c echo.Context) error {
	return s.updateRelationTags(c, false)
}

func (s *Server) handlePatchRelation(c echo.Context) error {
	return s.updateRelationTags(c, true)
}

func (s *Server) updateRelationTags(c echo.Context, partial bool) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	id, err := relationIDParam(c)
	if err != nil {
		return err
	}

	var req tagEditRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("malformed request body")
	}

	relation, err := s.app.UpdateRelationTags(c.Request().Context(), userID, id, req.Tags, partial, req.Comment)
	if err != nil {
		return err
	}

	if err := c.JSON(http.StatusOK, toRelationResponse(relation)); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

// handleDeleteRelation requires the client to echo back the version it
// edited. A mismatch means somebody changed the relation in between, and
// the response carries the current version so the client can re-fetch.
func (s *Server) handleDeleteRelation(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	id, err := relationIDParam(c)
	if err != nil {
		return err
	}

	var req deleteRelationRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("malformed request body")
	}
	if req.EditedVersion < 1 {
		return apperrors.ValidationError("edited_version is required")
	}

	ctx := c.Request().Context()
	if err := s.app.DeleteRelation(ctx, userID, id, req.EditedVersion, req.Comment); err != nil {
		if errors.Is(err, domain.ErrEditConflict) {
			conflictErr := apperrors.ConflictError("edited version does not match current version").
				WithContext("relation_id", id).
				WithContext("edited_version", req.EditedVersion)
			if current, getErr := s.app.GetRelation(ctx, id); getErr == nil {
				conflictErr = conflictErr.WithContext("current_version", current.Version)
			}
			return conflictErr
		}
		return err
	}

	if err := c.JSON(http.StatusOK, map[string]string{"status": "deleted"}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleRelationEdits(c echo.Context) error {
	id, err := relationIDParam(c)
	if err != nil {
		return err
	}

	edits, err := s.app.RelationEdits(c.Request().Context(), id)
	if err != nil {
		return err
	}

	if err := c.JSON(http.StatusOK, toEditResponses(edits)); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
