package http

import (
	"net/http"
	"time"

	"orfin/internal/user/models"
	usersvc "orfin/internal/user/service"
	"orfin/pkg/requestcontext"
)

type registerRequest struct {
	Email      string `json:"email"`
	CPF        string `json:"cpf"`
	Password   string `json:"password"`
	FirstName  string `json:"first_name"`
	SocialName string `json:"social_name"`
	LastName   string `json:"last_name"`
	Phone      string `json:"phone"`
}

type contactRequest struct {
	FirstName  string `json:"first_name"`
	SocialName string `json:"social_name"`
	LastName   string `json:"last_name"`
	Phone      string `json:"phone"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// userResponse is the public view of a user. The password hash never leaves
// the service layer.
type userResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	CPF         string    `json:"cpf"`
	FirstName   string    `json:"first_name"`
	SocialName  string    `json:"social_name"`
	LastName    string    `json:"last_name"`
	Phone       string    `json:"phone,omitempty"`
	DisplayName string    `json:"display_name"`
	Active      bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:          u.ID.String(),
		Email:       u.Email,
		CPF:         u.CPF,
		FirstName:   u.FirstName,
		SocialName:  u.SocialName,
		LastName:    u.LastName,
		Phone:       u.Phone,
		DisplayName: u.DisplayName(),
		Active:      u.Active,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	user, err := h.users.Register(r.Context(), usersvc.RegisterInput{
		Email:    req.Email,
		CPF:      req.CPF,
		Password: req.Password,
		Contact: models.ContactFields{
			FirstName:  req.FirstName,
			SocialName: req.SocialName,
			LastName:   req.LastName,
			Phone:      req.Phone,
		},
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, toUserResponse(user))
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	user, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	token, err := h.tokens.GenerateAccessToken(user.ID, accessTokenTTL)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(accessTokenTTL.Seconds()),
	})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Get(r.Context(), requestcontext.UserID(r.Context()))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, toUserResponse(user))
}

func (h *Handler) updateContact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	user, err := h.users.UpdateContact(r.Context(), requestcontext.UserID(r.Context()), models.ContactFields{
		FirstName:  req.FirstName,
		SocialName: req.SocialName,
		LastName:   req.LastName,
		Phone:      req.Phone,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, toUserResponse(user))
}

// deactivate retires the account. The row stays: users are soft-delete only.
func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	if _, err := h.users.Deactivate(r.Context(), requestcontext.UserID(r.Context())); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "user deactivated"})
}
