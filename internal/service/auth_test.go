package service_test

import (
	"github.com/geocoder89/finledger/internal/apperr"
)

func (s *serviceSuite) TestLogin() {
	u := s.createUser("ada@example.com")

	got, tokens, err := s.auth.Login(s.ctx, "ada@example.com", "secret123")
	s.Require().NoError(err)
	s.Equal(u.ID, got.ID)

	claims, err := s.tokens.VerifyAccessToken(tokens.AccessToken)
	s.Require().NoError(err)
	s.Equal(u.ID, claims.UserID)

	claims, err = s.tokens.VerifyRefreshToken(tokens.RefreshToken)
	s.Require().NoError(err)
	s.Equal(u.ID, claims.UserID)
}

func (s *serviceSuite) TestLoginFailuresLookTheSame() {
	s.createUser("ada@example.com")

	_, _, wrongPassword := s.auth.Login(s.ctx, "ada@example.com", "nope-nope")
	_, _, unknownEmail := s.auth.Login(s.ctx, "who@example.com", "secret123")

	s.ErrorIs(wrongPassword, apperr.ErrUnauthorized)
	s.ErrorIs(unknownEmail, apperr.ErrUnauthorized)
	s.Equal(wrongPassword.Error(), unknownEmail.Error())
}

func (s *serviceSuite) TestRefresh() {
	u := s.createUser("ada@example.com")
	issued, err := s.auth.IssueFor(s.ctx, u.ID)
	s.Require().NoError(err)

	refreshed, err := s.auth.Refresh(s.ctx, issued.RefreshToken)
	s.Require().NoError(err)

	claims, err := s.tokens.VerifyAccessToken(refreshed.AccessToken)
	s.Require().NoError(err)
	s.Equal(u.ID, claims.UserID)

	// non-rotating: the old token still works
	_, err = s.auth.Refresh(s.ctx, issued.RefreshToken)
	s.NoError(err)
}

func (s *serviceSuite) TestRefreshRejectsAccessToken() {
	u := s.createUser("ada@example.com")
	issued, err := s.auth.IssueFor(s.ctx, u.ID)
	s.Require().NoError(err)

	_, err = s.auth.Refresh(s.ctx, issued.AccessToken)
	s.ErrorIs(err, apperr.ErrUnauthorized)

	_, err = s.auth.Refresh(s.ctx, "garbage")
	s.ErrorIs(err, apperr.ErrUnauthorized)
}
