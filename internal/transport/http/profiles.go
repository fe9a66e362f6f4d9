package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"orfin/internal/profile/models"
	id "orfin/pkg/domain"
	dErrors "orfin/pkg/domain-errors"
	"orfin/pkg/requestcontext"
)

type profileRequest struct {
	Name     string `json:"name"`
	ImageNum *int   `json:"image_num"`
}

func profileIDParam(r *http.Request) (id.ProfileID, error) {
	profileID, err := id.ParseProfileID(chi.URLParam(r, "profileID"))
	if err != nil {
		return id.ProfileID{}, dErrors.NewField(dErrors.CodeValidation, "profile_id", "invalid profile id")
	}
	return profileID, nil
}

func (h *Handler) listProfiles(w http.ResponseWriter, r *http.Request) {
	onlyArchived, name := listFilter(r)
	profiles, err := h.profiles.List(r.Context(), requestcontext.UserID(r.Context()),
		models.ListFilter{OnlyArchived: onlyArchived, Name: name})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if profiles == nil {
		profiles = []*models.Profile{}
	}
	respondJSON(w, http.StatusOK, profiles)
}

func (h *Handler) createProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	profile, err := h.profiles.Create(r.Context(), requestcontext.UserID(r.Context()), req.Name, req.ImageNum)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, profile)
}

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	profileID, err := profileIDParam(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	profile, err := h.profiles.Get(r.Context(), requestcontext.UserID(r.Context()), profileID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	profileID, err := profileIDParam(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	var req profileRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	profile, err := h.profiles.Update(r.Context(), requestcontext.UserID(r.Context()), profileID, req.Name, req.ImageNum)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

// archiveProfile handles DELETE. Deletion here means archival: the row is
// never removed and its name keeps occupying the uniqueness slot.
func (h *Handler) archiveProfile(w http.ResponseWriter, r *http.Request) {
	profileID, err := profileIDParam(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if _, err := h.profiles.Archive(r.Context(), requestcontext.UserID(r.Context()), profileID); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "profile archived"})
}

func (h *Handler) unarchiveProfile(w http.ResponseWriter, r *http.Request) {
	profileID, err := profileIDParam(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	profile, err := h.profiles.Unarchive(r.Context(), requestcontext.UserID(r.Context()), profileID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}
