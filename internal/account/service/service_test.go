package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"orfin/internal/account/models"
	"orfin/internal/account/store"
	"orfin/internal/tenant"
	id "orfin/pkg/domain"
	dErrors "orfin/pkg/domain-errors"
	"orfin/pkg/requestcontext"
)

type AccountServiceSuite struct {
	suite.Suite
	ctx     context.Context
	key     tenant.Key
	service *Service
}

func TestAccountServiceSuite(t *testing.T) {
	suite.Run(t, new(AccountServiceSuite))
}

func (s *AccountServiceSuite) SetupTest() {
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	s.key = tenant.Key{UserID: id.NewUserID(), ProfileID: id.NewProfileID()}
	s.service = New(store.NewInMemory())
}

func (s *AccountServiceSuite) fields(name string) models.Fields {
	return models.Fields{
		BankName:    "Banco Azul",
		Name:        name,
		Type:        models.TypeChecking,
		Color:       "#FF0000",
		IncludeCalc: true,
		Balance:     decimal.RequireFromString("250.00"),
	}
}

func (s *AccountServiceSuite) create(name string) *models.Account {
	a, err := s.service.Create(s.ctx, s.key, s.fields(name))
	s.Require().NoError(err)
	return a
}

func (s *AccountServiceSuite) TestCreate() {
	s.Run("creates the account with its initial balance", func() {
		a := s.create("Daily")
		s.Equal("250.00", a.Balance.StringFixed(2))
		s.True(a.IncludeCalc)
	})

	s.Run("rejects archived together with include_calc", func() {
		f := s.fields("Broken")
		f.Archived = true
		f.IncludeCalc = true
		_, err := s.service.Create(s.ctx, s.key, f)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Equal("include_calc", dErrors.FieldOf(err))
	})

	s.Run("archived alone stores include_calc false", func() {
		f := s.fields("Closed")
		f.Archived = true
		f.IncludeCalc = false
		a, err := s.service.Create(s.ctx, s.key, f)
		s.Require().NoError(err)
		s.True(a.Archived)
		s.False(a.IncludeCalc)
	})

	s.Run("rejects a duplicate name", func() {
		s.create("Savings")
		_, err := s.service.Create(s.ctx, s.key, s.fields("Savings"))
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.Equal("name", dErrors.FieldOf(err))
	})

	s.Run("archived rows still occupy the name slot", func() {
		a := s.create("Old")
		_, err := s.service.Archive(s.ctx, s.key, a.ID)
		s.Require().NoError(err)
		_, err = s.service.Create(s.ctx, s.key, s.fields("Old"))
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("same name under another tenant is fine", func() {
		s.create("Shared")
		other := tenant.Key{UserID: id.NewUserID(), ProfileID: id.NewProfileID()}
		_, err := s.service.Create(s.ctx, other, s.fields("Shared"))
		s.NoError(err)
	})
}

func (s *AccountServiceSuite) TestUpdate() {
	s.Run("updates fields when the balance is resubmitted unchanged", func() {
		a := s.create("Daily")
		balance := a.Balance
		updated, err := s.service.Update(s.ctx, s.key, a.ID, UpdateInput{
			Fields: s.fields("Renamed"), Balance: &balance,
		})
		s.Require().NoError(err)
		s.Equal("Renamed", updated.Name)
		s.Equal("250.00", updated.Balance.StringFixed(2))
	})

	s.Run("updates fields when the balance is omitted", func() {
		a := s.create("NoBalance")
		updated, err := s.service.Update(s.ctx, s.key, a.ID, UpdateInput{Fields: s.fields("StillNoBalance")})
		s.Require().NoError(err)
		s.Equal("250.00", updated.Balance.StringFixed(2))
	})

	s.Run("rejects any balance change, other fields notwithstanding", func() {
		a := s.create("Guarded")
		other := decimal.RequireFromString("250.01")
		_, err := s.service.Update(s.ctx, s.key, a.ID, UpdateInput{
			Fields: s.fields("Guarded"), Balance: &other,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Equal("balance", dErrors.FieldOf(err))
	})

	s.Run("rejects archived together with include_calc", func() {
		a := s.create("Flagged")
		f := s.fields("Flagged")
		f.Archived = true
		f.IncludeCalc = true
		_, err := s.service.Update(s.ctx, s.key, a.ID, UpdateInput{Fields: f})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Equal("include_calc", dErrors.FieldOf(err))
	})

	s.Run("archiving through update forces include_calc off", func() {
		a := s.create("Retiring")
		f := s.fields("Retiring")
		f.Archived = true
		f.IncludeCalc = false
		updated, err := s.service.Update(s.ctx, s.key, a.ID, UpdateInput{Fields: f})
		s.Require().NoError(err)
		s.True(updated.Archived)
		s.False(updated.IncludeCalc)
	})

	s.Run("rejects renaming onto an existing name", func() {
		s.create("First")
		a := s.create("Second")
		_, err := s.service.Update(s.ctx, s.key, a.ID, UpdateInput{Fields: s.fields("First")})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("unknown account is not found", func() {
		_, err := s.service.Update(s.ctx, s.key, id.NewAccountID(), UpdateInput{Fields: s.fields("Ghost")})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *AccountServiceSuite) TestArchive() {
	s.Run("archives and forces include_calc off", func() {
		a := s.create("Daily")
		s.True(a.IncludeCalc)

		archived, err := s.service.Archive(s.ctx, s.key, a.ID)
		s.Require().NoError(err)
		s.True(archived.Archived)
		s.False(archived.IncludeCalc)
	})

	s.Run("another tenant's account is not found", func() {
		a := s.create("Mine")
		other := tenant.Key{UserID: id.NewUserID(), ProfileID: id.NewProfileID()}
		_, err := s.service.Archive(s.ctx, other, a.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *AccountServiceSuite) TestDelete() {
	s.Run("hard delete is always forbidden", func() {
		a := s.create("Daily")
		err := s.service.Delete(s.ctx, s.key, a.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func (s *AccountServiceSuite) TestList() {
	s.Run("default shows only active accounts", func() {
		s.create("Active")
		a := s.create("Gone")
		_, err := s.service.Archive(s.ctx, s.key, a.ID)
		s.Require().NoError(err)

		active, err := s.service.List(s.ctx, s.key, models.ListFilter{})
		s.Require().NoError(err)
		s.Len(active, 1)
		s.Equal("Active", active[0].Name)

		archived, err := s.service.List(s.ctx, s.key, models.ListFilter{OnlyArchived: true})
		s.Require().NoError(err)
		s.Len(archived, 1)
		s.Equal("Gone", archived[0].Name)
	})
}
