package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"orfin/internal/user/models"
	"orfin/internal/user/store"
	dErrors "orfin/pkg/domain-errors"
	"orfin/pkg/requestcontext"
)

// Independently valid documents so uniqueness tests do not collide.
const (
	cpfOne   = "111.444.777-35"
	cpfTwo   = "529.982.247-25"
	cpfThree = "390.533.447-05"
	cpfFour  = "123.456.789-09"
)

type UserServiceSuite struct {
	suite.Suite
	ctx     context.Context
	service *Service
}

func TestUserServiceSuite(t *testing.T) {
	suite.Run(t, new(UserServiceSuite))
}

func (s *UserServiceSuite) SetupTest() {
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	s.service = New(store.NewInMemory())
}

func (s *UserServiceSuite) input(email, cpf string) RegisterInput {
	return RegisterInput{
		Email:    email,
		CPF:      cpf,
		Password: "hunter2!",
		Contact: models.ContactFields{
			FirstName:  "Maria",
			SocialName: "Mari",
			LastName:   "Silva",
			Phone:      "11999990000",
		},
	}
}

func (s *UserServiceSuite) TestRegister() {
	s.Run("registers an active user", func() {
		user, err := s.service.Register(s.ctx, s.input("maria@example.com", cpfOne))
		s.Require().NoError(err)
		s.True(user.Active)
		s.Equal("11144477735", user.CPF)
		s.NotEqual("hunter2!", user.PasswordHash)
		s.NotEmpty(user.PasswordHash)
	})

	s.Run("lowercases and trims the email", func() {
		user, err := s.service.Register(s.ctx, s.input("  Maria.Lower@Example.COM ", cpfTwo))
		s.Require().NoError(err)
		s.Equal("maria.lower@example.com", user.Email)
	})

	s.Run("rejects a blank email", func() {
		_, err := s.service.Register(s.ctx, s.input("   ", cpfOne))
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Equal("email", dErrors.FieldOf(err))
	})

	s.Run("rejects a duplicate email regardless of case", func() {
		_, err := s.service.Register(s.ctx, s.input("dup@example.com", cpfThree))
		s.Require().NoError(err)
		_, err = s.service.Register(s.ctx, s.input("DUP@example.com", cpfFour))
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.Equal("email", dErrors.FieldOf(err))
	})

	s.Run("rejects a duplicate cpf even when formatted differently", func() {
		_, err := s.service.Register(s.ctx, s.input("first@example.com", cpfFour))
		s.Require().NoError(err)
		_, err = s.service.Register(s.ctx, s.input("second@example.com", "12345678909"))
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.Equal("cpf", dErrors.FieldOf(err))
	})

	s.Run("rejects a cpf with the wrong digit count", func() {
		_, err := s.service.Register(s.ctx, s.input("short@example.com", "123"))
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Equal("cpf", dErrors.FieldOf(err))
	})

	s.Run("rejects a cpf with a bad checksum", func() {
		_, err := s.service.Register(s.ctx, s.input("bad@example.com", "11144477736"))
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Equal("cpf", dErrors.FieldOf(err))
	})

	s.Run("rejects blank required names", func() {
		in := s.input("names@example.com", cpfOne)
		in.Contact.FirstName = "  "
		_, err := s.service.Register(s.ctx, in)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Equal("first_name", dErrors.FieldOf(err))

		in = s.input("names@example.com", cpfOne)
		in.Contact.SocialName = ""
		_, err = s.service.Register(s.ctx, in)
		s.Equal("social_name", dErrors.FieldOf(err))

		in = s.input("names@example.com", cpfOne)
		in.Contact.LastName = ""
		_, err = s.service.Register(s.ctx, in)
		s.Equal("last_name", dErrors.FieldOf(err))
	})

	s.Run("rejects an empty password", func() {
		in := s.input("pw@example.com", cpfOne)
		in.Password = ""
		_, err := s.service.Register(s.ctx, in)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Equal("password", dErrors.FieldOf(err))
	})
}

func (s *UserServiceSuite) TestAuthenticate() {
	s.Run("valid credentials return the user", func() {
		registered, err := s.service.Register(s.ctx, s.input("login@example.com", cpfOne))
		s.Require().NoError(err)

		user, err := s.service.Authenticate(s.ctx, "login@example.com", "hunter2!")
		s.Require().NoError(err)
		s.Equal(registered.ID, user.ID)
	})

	s.Run("email case does not matter", func() {
		_, err := s.service.Register(s.ctx, s.input("case@example.com", cpfTwo))
		s.Require().NoError(err)

		_, err = s.service.Authenticate(s.ctx, "CASE@Example.com", "hunter2!")
		s.NoError(err)
	})

	s.Run("wrong password is unauthorized", func() {
		_, err := s.service.Authenticate(s.ctx, "login@example.com", "wrong")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("unknown email is unauthorized, not not-found", func() {
		_, err := s.service.Authenticate(s.ctx, "nobody@example.com", "hunter2!")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("deactivated user cannot authenticate", func() {
		user, err := s.service.Register(s.ctx, s.input("inactive@example.com", cpfThree))
		s.Require().NoError(err)
		_, err = s.service.Deactivate(s.ctx, user.ID)
		s.Require().NoError(err)

		_, err = s.service.Authenticate(s.ctx, "inactive@example.com", "hunter2!")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *UserServiceSuite) TestUpdateContact() {
	s.Run("replaces names and phone", func() {
		user, err := s.service.Register(s.ctx, s.input("contact@example.com", cpfOne))
		s.Require().NoError(err)

		updated, err := s.service.UpdateContact(s.ctx, user.ID, models.ContactFields{
			FirstName:  "Ana",
			SocialName: "Aninha",
			LastName:   "Souza",
			Phone:      "11888887777",
		})
		s.Require().NoError(err)
		s.Equal("Aninha", updated.SocialName)
		s.Equal("Aninha", updated.DisplayName())
		s.Equal("contact@example.com", updated.Email)
		s.Equal("11144477735", updated.CPF)
	})

	s.Run("rejects blank names", func() {
		user, err := s.service.Register(s.ctx, s.input("contact2@example.com", cpfTwo))
		s.Require().NoError(err)

		_, err = s.service.UpdateContact(s.ctx, user.ID, models.ContactFields{
			FirstName: "", SocialName: "X", LastName: "Y",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *UserServiceSuite) TestDeactivate() {
	s.Run("flips active off and keeps the row", func() {
		user, err := s.service.Register(s.ctx, s.input("bye@example.com", cpfOne))
		s.Require().NoError(err)

		deactivated, err := s.service.Deactivate(s.ctx, user.ID)
		s.Require().NoError(err)
		s.False(deactivated.Active)

		kept, err := s.service.Get(s.ctx, user.ID)
		s.Require().NoError(err)
		s.False(kept.Active)
	})
}

func (s *UserServiceSuite) TestDelete() {
	s.Run("hard delete is always forbidden", func() {
		user, err := s.service.Register(s.ctx, s.input("keep@example.com", cpfOne))
		s.Require().NoError(err)
		err = s.service.Delete(s.ctx, user.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func TestDisplayName(t *testing.T) {
	u := &models.User{FirstName: "Maria", LastName: "Silva", SocialName: "Mari"}
	if got := u.DisplayName(); got != "Mari" {
		t.Fatalf("DisplayName() = %q, want %q", got, "Mari")
	}
	u.SocialName = ""
	if got := u.DisplayName(); got != "Maria Silva" {
		t.Fatalf("DisplayName() = %q, want %q", got, "Maria Silva")
	}
}
