package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/PersonalGenomesOrg/gennotes/internal/domain"
	apperrors "github.com/PersonalGenomesOrg/gennotes/internal/platform/errors"
)

type tagEditRequest struct {
	Tags    domain.Tags `json:"tags"`
	Comment string      `json:"commit-comment"`
}

type variantResponse struct {
	ID        int64       `json:"id"`
	B37ID     string      `json:"b37_id"`
	Tags      domain.Tags `json:"tags"`
	Version   int64       `json:"version"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

type editResponse struct {
	ID        int64       `json:"id"`
	Version   int64       `json:"version"`
	UserID    string      `json:"user_id"`
	Comment   string      `json:"commit-comment"`
	Tags      domain.Tags `json:"tags"`
	Deletion  bool        `json:"deletion"`
	CreatedAt time.Time   `json:"created_at"`
}

func toVariantResponse(v *domain.Variant) variantResponse {
	return variantResponse{
		ID:        v.ID,
		B37ID:     v.B37ID(),
		Tags:      v.Tags,
		Version:   v.Version,
		CreatedAt: v.CreatedAt,
		UpdatedAt: v.UpdatedAt,
	}
}

func toVariantResponses(variants []domain.Variant) []variantResponse {
	out := make([]variantResponse, 0, len(variants))
	for i := range variants {
		out = append(out, toVariantResponse(&variants[i]))
	}
	return out
}

func toEditResponses(edits []domain.Edit) []editResponse {
	out := make([]editResponse, 0, len(edits))
	for _, e := range edits {
		out = append(out, editResponse{
			ID:        e.ID,
			Version:   e.Version,
			UserID:    e.UserID.String(),
			Comment:   e.Comment,
			Tags:      e.Tags,
			Deletion:  e.Deletion,
			CreatedAt: e.CreatedAt,
		})
	}
	return out
}

func variantSelectorParam(c echo.Context) (domain.VariantSelector, error) {
	raw := c.Param("selector")
	sel, err := domain.ParseVariantSelector(raw)
	if err != nil {
		return domain.VariantSelector{}, apperrors.ValidationError(err.Error()).WithContext("selector", raw)
	}
	return sel, nil
}

func pagingParams(c echo.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.QueryParam("limit"))
	offset, _ = strconv.Atoi(c.QueryParam("offset"))
	return limit, offset
}

// handleListVariants serves both paged listing and batch lookup: a
// variant_list query parameter carries a JSON array of IDs or b37
// references and overrides paging.
func (s *Server) handleListVariants(c echo.Context) error {
	var sels []domain.VariantSelector
	if raw := c.QueryParam("variant_list"); raw != "" {
		var lookups []string
		if err := json.Unmarshal([]byte(raw), &lookups); err != nil {
			return apperrors.ValidationError("variant_list must be a JSON array of strings").WithContext("variant_list", raw)
		}
		for _, lookup := range lookups {
			sel, err := domain.ParseVariantSelector(strings.TrimSpace(lookup))
			if err != nil {
				return apperrors.ValidationError(err.Error()).WithContext("variant_list", raw)
			}
			sels = append(sels, sel)
		}
	}

	limit, offset := pagingParams(c)
	variants, err := s.app.ListVariants(c.Request().Context(), sels, limit, offset)
	if err != nil {
		return err
	}

	if err := c.JSON(http.StatusOK, toVariantResponses(variants)); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleGetVariant(c echo.Context) error {
	sel, err := variantSelectorParam(c)
	if err != nil {
		return err
	}

	variant, err := s.app.GetVariant(c.Request().Context(), sel)
	if err != nil {
		return err
	}

	if err := c.JSON(http.StatusOK, toVariantResponse(variant)); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleCreateVariant(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req tagEditRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("malformed request body")
	}

	variant, err := s.app.CreateVariant(c.Request().Context(), userID, req.Tags, req.Comment)
	if err != nil {
		return err
	}

	if err := c.JSON(http.StatusCreated, toVariantResponse(variant)); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleUpdateVariant(c echo.Context) error {
	return s.updateVariantTags(c, false)
}

func (s *Server) handlePatchVariant(c echo.Context) error {
	return s.updateVariantTags(c, true)
}

func (s *Server) updateVariantTags(c echo.Context, partial bool) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	sel, err := variantSelectorParam(c)
	if err != nil {
		return err
	}

	var req tagEditRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("malformed request body")
	}

	variant, err := s.app.UpdateVariantTags(c.Request().Context(), userID, sel, req.Tags, partial, req.Comment)
	if err != nil {
		return err
	}

	if err := c.JSON(http.StatusOK, toVariantResponse(variant)); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleVariantEdits(c echo.Context) error {
	sel, err := variantSelectorParam(c)
	if err != nil {
		return err
	}

	edits, err := s.app.VariantEdits(c.Request().Context(), sel)
	if err != nil {
		return err
	}

	if err := c.JSON(http.StatusOK, toEditResponses(edits)); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleVariantRelations(c echo.Context) error {
	sel, err := variantSelectorParam(c)
	if err != nil {
		return err
	}

	relations, err := s.app.ListVariantRelations(c.Request().Context(), sel)
	if err != nil {
		return err
	}

	if err := c.JSON(http.StatusOK, toRelationResponses(relations)); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
