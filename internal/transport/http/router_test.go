package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/suite"

	accountsvc "orfin/internal/account/service"
	accountstore "orfin/internal/account/store"
	categorysvc "orfin/internal/category/service"
	categorystore "orfin/internal/category/store"
	"orfin/internal/jwttoken"
	"orfin/internal/platform/logger"
	profilesvc "orfin/internal/profile/service"
	profilestore "orfin/internal/profile/store"
	"orfin/internal/tenant"
	usersvc "orfin/internal/user/service"
	userstore "orfin/internal/user/store"
)

type RouterSuite struct {
	suite.Suite
	router http.Handler
	token  string
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	log := logger.New()
	profiles := profilestore.NewInMemory()

	users := usersvc.New(userstore.NewInMemory())
	profileService := profilesvc.New(profiles)
	categories := categorysvc.New(categorystore.NewInMemory())
	accounts := accountsvc.New(accountstore.NewInMemory())
	tokens := jwttoken.New("test-key", "orfin-test")
	resolver := tenant.NewResolver(profiles)

	handler := NewHandler(users, profileService, categories, accounts, tokens, resolver, log)
	s.router = handler.Router()
	s.token = ""

	s.register()
	s.login()
}

func (s *RouterSuite) do(method, path string, body any, header map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *RouterSuite) decode(rec *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func (s *RouterSuite) register() {
	rec := s.do(http.MethodPost, "/api/users", map[string]any{
		"email":       "maria@example.com",
		"cpf":         "111.444.777-35",
		"password":    "hunter2!",
		"first_name":  "Maria",
		"social_name": "Mari",
		"last_name":   "Silva",
	}, nil)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
}

func (s *RouterSuite) login() {
	rec := s.do(http.MethodPost, "/api/login", map[string]any{
		"email": "maria@example.com", "password": "hunter2!",
	}, nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.token = s.decode(rec)["access_token"].(string)
	s.Require().NotEmpty(s.token)
}

// createProfile returns the new profile's id.
func (s *RouterSuite) createProfile(name string) string {
	rec := s.do(http.MethodPost, "/api/relatives", map[string]any{"name": name}, nil)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	return s.decode(rec)["id"].(string)
}

func (s *RouterSuite) TestRegisterValidation() {
	rec := s.do(http.MethodPost, "/api/users", map[string]any{
		"email": "bad@example.com", "cpf": "123", "password": "x",
		"first_name": "A", "social_name": "B", "last_name": "C",
	}, nil)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("cpf", s.decode(rec)["field"])
}

func (s *RouterSuite) TestLoginFailure() {
	saved := s.token
	s.token = ""
	rec := s.do(http.MethodPost, "/api/login", map[string]any{
		"email": "maria@example.com", "password": "wrong",
	}, nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.token = saved
}

func (s *RouterSuite) TestAuthRequired() {
	saved := s.token
	s.token = ""
	rec := s.do(http.MethodGet, "/api/relatives", nil, nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.token = saved
}

func (s *RouterSuite) TestMe() {
	rec := s.do(http.MethodGet, "/api/users/me", nil, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	body := s.decode(rec)
	s.Equal("maria@example.com", body["email"])
	s.Equal("Mari", body["display_name"])
	s.NotContains(rec.Body.String(), "password")
}

func (s *RouterSuite) TestProfileLifecycle() {
	profileID := s.createProfile("Ana")

	rec := s.do(http.MethodDelete, "/api/relatives/"+profileID, nil, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal("profile archived", s.decode(rec)["message"])

	rec = s.do(http.MethodPost, "/api/relatives/"+profileID+"/unarchive", nil, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal(false, s.decode(rec)["is_archived"])

	rec = s.do(http.MethodPost, "/api/relatives/"+profileID+"/unarchive", nil, nil)
	s.Equal(http.StatusConflict, rec.Code)
}

func (s *RouterSuite) TestProfileCap() {
	for _, name := range []string{"One", "Two", "Three"} {
		s.createProfile(name)
	}
	rec := s.do(http.MethodPost, "/api/relatives", map[string]any{"name": "Four"}, nil)
	s.Equal(http.StatusConflict, rec.Code)
}

func (s *RouterSuite) TestCategoryRequiresProfileHeader() {
	rec := s.do(http.MethodPost, "/api/categories", map[string]any{
		"name": "Food", "color": "#AABBCC", "icon": "tag",
	}, nil)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("profile_id", s.decode(rec)["field"])
}

func (s *RouterSuite) TestCategoryFlow() {
	profileID := s.createProfile("Ana")
	header := map[string]string{relativeHeader: profileID}

	rec := s.do(http.MethodPost, "/api/categories", map[string]any{
		"name": "Home", "color": "#aabbcc", "icon": "house",
	}, header)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	parent := s.decode(rec)
	s.Equal("#AABBCC", parent["color"])
	parentID := parent["id"].(string)

	for _, name := range []string{"Rent", "Power"} {
		rec = s.do(http.MethodPost, "/api/categories", map[string]any{
			"name": name, "color": "#AABBCC", "icon": "tag", "parent_id": parentID,
		}, header)
		s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec = s.do(http.MethodDelete, "/api/categories/"+parentID, nil, header)
	s.Require().Equal(http.StatusOK, rec.Code)
	body := s.decode(rec)
	s.Equal("category and subcategories archived", body["message"])
	s.Equal(float64(2), body["subcategories_archived"])

	rec = s.do(http.MethodGet, "/api/categories/?only_archived=true", nil, header)
	s.Require().Equal(http.StatusOK, rec.Code)
	var archived []map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &archived))
	s.Len(archived, 3)
}

func (s *RouterSuite) TestCategoryUnknownHeaderProfile() {
	foreign := map[string]string{relativeHeader: "7b1a7e3e-3e7a-4a6e-9a5d-111111111111"}
	rec := s.do(http.MethodGet, "/api/categories/", nil, foreign)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("profile_id", s.decode(rec)["field"])
}

func (s *RouterSuite) TestAccountFlow() {
	profileID := s.createProfile("Ana")
	header := map[string]string{relativeHeader: profileID}

	rec := s.do(http.MethodPost, "/api/accounts", map[string]any{
		"bank_name": "Banco Azul", "name": "Daily", "account_type": "checking",
		"color": "#FF0000", "include_calc": true, "balance": "250.00",
	}, header)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	account := s.decode(rec)
	accountID := account["id"].(string)
	s.Equal("250", account["balance"])

	rec = s.do(http.MethodPut, "/api/accounts/"+accountID, map[string]any{
		"bank_name": "Banco Azul", "name": "Daily", "account_type": "checking",
		"color": "#FF0000", "include_calc": true, "balance": "999.00",
	}, header)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("balance", s.decode(rec)["field"])

	rec = s.do(http.MethodDelete, "/api/accounts/"+accountID, nil, header)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal("account archived", s.decode(rec)["message"])

	rec = s.do(http.MethodGet, "/api/accounts/"+accountID, nil, header)
	s.Require().Equal(http.StatusOK, rec.Code)
	got := s.decode(rec)
	s.Equal(true, got["is_archived"])
	s.Equal(false, got["include_calc"])
}

func (s *RouterSuite) TestAccountIncludeCalcDefaultsTrue() {
	profileID := s.createProfile("Ana")
	header := map[string]string{relativeHeader: profileID}

	rec := s.do(http.MethodPost, "/api/accounts", map[string]any{
		"bank_name": "Banco Azul", "name": "Daily", "account_type": "checking",
		"color": "#FF0000", "balance": "10.00",
	}, header)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	account := s.decode(rec)
	s.Equal(true, account["include_calc"])

	rawID, isString := account["id"].(string)
	s.Require().True(isString)
	s.NotEmpty(rawID)
}

func (s *RouterSuite) TestAccountBalanceRequiredOnCreate() {
	profileID := s.createProfile("Ana")
	header := map[string]string{relativeHeader: profileID}

	rec := s.do(http.MethodPost, "/api/accounts", map[string]any{
		"bank_name": "Banco Azul", "name": "Daily", "account_type": "checking",
		"color": "#FF0000",
	}, header)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("balance", s.decode(rec)["field"])
}

func (s *RouterSuite) TestReadsWithoutProfileHeader() {
	first := s.createProfile("Ana")
	second := s.createProfile("Bia")

	for profileID, name := range map[string]string{first: "Daily", second: "Savings"} {
		rec := s.do(http.MethodPost, "/api/accounts", map[string]any{
			"bank_name": "Banco Azul", "name": name, "account_type": "checking",
			"color": "#FF0000", "balance": "10.00",
		}, map[string]string{relativeHeader: profileID})
		s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := s.do(http.MethodGet, "/api/accounts/", nil, nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var all []map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &all))
	s.Len(all, 2)

	rec = s.do(http.MethodGet, "/api/accounts/", nil, map[string]string{relativeHeader: first})
	s.Require().Equal(http.StatusOK, rec.Code)
	var scoped []map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &scoped))
	s.Require().Len(scoped, 1)
	s.Equal("Daily", scoped[0]["name"])

	accountID := scoped[0]["id"].(string)
	rec = s.do(http.MethodGet, "/api/accounts/"+accountID, nil, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal("Daily", s.decode(rec)["name"])

	rec = s.do(http.MethodGet, "/api/categories/", nil, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var categories []map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &categories))
	s.Empty(categories)
}

func (s *RouterSuite) TestHealthz() {
	rec := s.do(http.MethodGet, "/healthz", nil, nil)
	s.Equal(http.StatusOK, rec.Code)
}
