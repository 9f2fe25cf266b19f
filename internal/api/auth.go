package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/snaptaplaque/plateapi/internal/auth"
	"github.com/snaptaplaque/plateapi/internal/model"
	"github.com/snaptaplaque/plateapi/internal/repository"
)

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required,alphanum,min=3,max=32"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name"`
}

type loginRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	ctx := c.Request.Context()
	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		fail(c, http.StatusBadRequest, "email already registered")
		return
	} else if !errors.Is(err, repository.ErrNotFound) {
		fail(c, http.StatusInternalServerError, "could not register user")
		return
	}
	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		fail(c, http.StatusInternalServerError, "could not register user")
		return
	}
	user, err := s.users.Create(ctx, model.User{
		Email:          req.Email,
		Username:       req.Username,
		HashedPassword: hashed,
		FullName:       req.FullName,
		IsActive:       true,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			fail(c, http.StatusBadRequest, "username already taken")
			return
		}
		fail(c, http.StatusInternalServerError, "could not register user")
		return
	}
	c.JSON(http.StatusCreated, user)
}

// handleLogin accepts JSON or form-encoded credentials so both API clients
// and OAuth2-style password forms work.
func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	user, err := s.users.GetByUsername(c.Request.Context(), req.Username)
	if err != nil || !auth.VerifyPassword(req.Password, user.HashedPassword) {
		// One message for both unknown user and bad password.
		fail(c, http.StatusUnauthorized, "incorrect username or password")
		return
	}
	if !user.IsActive {
		fail(c, http.StatusForbidden, "inactive user")
		return
	}
	token, err := s.tokens.Issue(user.Username)
	if err != nil {
		fail(c, http.StatusInternalServerError, "could not issue token")
		return
	}
	c.JSON(http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (s *Server) handleMe(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c))
}
