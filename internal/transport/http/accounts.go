package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"orfin/internal/account/models"
	accountsvc "orfin/internal/account/service"
	id "orfin/pkg/domain"
	dErrors "orfin/pkg/domain-errors"
	"orfin/pkg/requestcontext"
)

// accountRequest carries account writes. Balance is a pointer so an omitted
// balance is distinguishable from a zero one, and include_calc is a pointer
// because an omitted flag means true: an account counts in totals unless
// the caller opts it out.
type accountRequest struct {
	BankName    string           `json:"bank_name"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Type        string           `json:"account_type"`
	Color       string           `json:"color"`
	IncludeCalc *bool            `json:"include_calc"`
	Archived    bool             `json:"is_archived"`
	Balance     *decimal.Decimal `json:"balance"`
}

func (req accountRequest) fields() models.Fields {
	// An omitted flag is not a request to count an archived account, so
	// the default follows the archived state instead of tripping the
	// contradictory-input check.
	includeCalc := !req.Archived
	if req.IncludeCalc != nil {
		includeCalc = *req.IncludeCalc
	}
	f := models.Fields{
		BankName:    req.BankName,
		Name:        req.Name,
		Description: req.Description,
		Type:        models.Type(req.Type),
		Color:       req.Color,
		IncludeCalc: includeCalc,
		Archived:    req.Archived,
	}
	if req.Balance != nil {
		f.Balance = *req.Balance
	}
	return f
}

func accountIDParam(r *http.Request) (id.AccountID, error) {
	accountID, err := id.ParseAccountID(chi.URLParam(r, "accountID"))
	if err != nil {
		return id.AccountID{}, dErrors.NewField(dErrors.CodeValidation, "account_id", "invalid account id")
	}
	return accountID, nil
}

// listAccounts spans all of the user's profiles unless the profile header
// narrows it to one.
func (h *Handler) listAccounts(w http.ResponseWriter, r *http.Request) {
	userID := requestcontext.UserID(r.Context())
	key, err := h.optionalTenant(r, userID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	onlyArchived, name := listFilter(r)
	filter := models.ListFilter{OnlyArchived: onlyArchived, Name: name}
	var accounts []*models.Account
	if key != nil {
		accounts, err = h.accounts.List(r.Context(), *key, filter)
	} else {
		accounts, err = h.accounts.ListByUser(r.Context(), userID, filter)
	}
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if accounts == nil {
		accounts = []*models.Account{}
	}
	respondJSON(w, http.StatusOK, accounts)
}

func (h *Handler) createAccount(w http.ResponseWriter, r *http.Request) {
	key, err := h.resolveTenant(r, requestcontext.UserID(r.Context()))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	var req accountRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if req.Balance == nil {
		respondError(w, h.logger, dErrors.NewField(dErrors.CodeValidation, "balance", "balance is required"))
		return
	}
	account, err := h.accounts.Create(r.Context(), key, req.fields())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, account)
}

func (h *Handler) getAccount(w http.ResponseWriter, r *http.Request) {
	userID := requestcontext.UserID(r.Context())
	key, err := h.optionalTenant(r, userID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	accountID, err := accountIDParam(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	var account *models.Account
	if key != nil {
		account, err = h.accounts.Get(r.Context(), *key, accountID)
	} else {
		account, err = h.accounts.GetByUser(r.Context(), userID, accountID)
	}
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, account)
}

func (h *Handler) updateAccount(w http.ResponseWriter, r *http.Request) {
	key, err := h.resolveTenant(r, requestcontext.UserID(r.Context()))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	accountID, err := accountIDParam(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	var req accountRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	account, err := h.accounts.Update(r.Context(), key, accountID, accountsvc.UpdateInput{
		Fields:  req.fields(),
		Balance: req.Balance,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, account)
}

// archiveAccount handles DELETE, the only path that retires an account.
func (h *Handler) archiveAccount(w http.ResponseWriter, r *http.Request) {
	key, err := h.resolveTenant(r, requestcontext.UserID(r.Context()))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	accountID, err := accountIDParam(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if _, err := h.accounts.Archive(r.Context(), key, accountID); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "account archived"})
}
