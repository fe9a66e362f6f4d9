package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"orfin/internal/category/models"
	categorysvc "orfin/internal/category/service"
	id "orfin/pkg/domain"
	dErrors "orfin/pkg/domain-errors"
	"orfin/pkg/requestcontext"
)

type categoryRequest struct {
	Name     string  `json:"name"`
	Color    string  `json:"color"`
	Icon     string  `json:"icon"`
	ParentID *string `json:"parent_id"`
	Archived bool    `json:"is_archived"`
}

func (req categoryRequest) parentID() (*id.CategoryID, error) {
	if req.ParentID == nil {
		return nil, nil
	}
	parentID, err := id.ParseCategoryID(*req.ParentID)
	if err != nil {
		return nil, dErrors.NewField(dErrors.CodeValidation, "parent_id", "invalid parent id")
	}
	return &parentID, nil
}

func categoryIDParam(r *http.Request) (id.CategoryID, error) {
	categoryID, err := id.ParseCategoryID(chi.URLParam(r, "categoryID"))
	if err != nil {
		return id.CategoryID{}, dErrors.NewField(dErrors.CodeValidation, "category_id", "invalid category id")
	}
	return categoryID, nil
}

// listCategories spans all of the user's profiles unless the profile
// header narrows it to one.
func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	userID := requestcontext.UserID(r.Context())
	key, err := h.optionalTenant(r, userID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	onlyArchived, name := listFilter(r)
	filter := models.ListFilter{OnlyArchived: onlyArchived, Name: name}
	var categories []*models.Category
	if key != nil {
		categories, err = h.categories.List(r.Context(), *key, filter)
	} else {
		categories, err = h.categories.ListByUser(r.Context(), userID, filter)
	}
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if categories == nil {
		categories = []*models.Category{}
	}
	respondJSON(w, http.StatusOK, categories)
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	key, err := h.resolveTenant(r, requestcontext.UserID(r.Context()))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	var req categoryRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	parentID, err := req.parentID()
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	category, err := h.categories.Create(r.Context(), key, categorysvc.CreateInput{
		Name:     req.Name,
		Color:    req.Color,
		Icon:     req.Icon,
		ParentID: parentID,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, category)
}

func (h *Handler) getCategory(w http.ResponseWriter, r *http.Request) {
	userID := requestcontext.UserID(r.Context())
	key, err := h.optionalTenant(r, userID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	categoryID, err := categoryIDParam(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	var category *models.Category
	if key != nil {
		category, err = h.categories.Get(r.Context(), *key, categoryID)
	} else {
		category, err = h.categories.GetByUser(r.Context(), userID, categoryID)
	}
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, category)
}

func (h *Handler) updateCategory(w http.ResponseWriter, r *http.Request) {
	key, err := h.resolveTenant(r, requestcontext.UserID(r.Context()))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	categoryID, err := categoryIDParam(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	var req categoryRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	parentID, err := req.parentID()
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	category, err := h.categories.Update(r.Context(), key, categoryID, categorysvc.UpdateInput{
		Name:     req.Name,
		Color:    req.Color,
		Icon:     req.Icon,
		ParentID: parentID,
		Archived: req.Archived,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, category)
}

// archiveCategory handles DELETE. The message distinguishes a lone archival
// from one that swept subcategories along.
func (h *Handler) archiveCategory(w http.ResponseWriter, r *http.Request) {
	key, err := h.resolveTenant(r, requestcontext.UserID(r.Context()))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	categoryID, err := categoryIDParam(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	archived, err := h.categories.Archive(r.Context(), key, categoryID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	message := "category archived"
	if archived > 0 {
		message = "category and subcategories archived"
	}
	respondJSON(w, http.StatusOK, map[string]any{"message": message, "subcategories_archived": archived})
}
