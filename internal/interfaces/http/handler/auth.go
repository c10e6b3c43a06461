package handler

import (
	"github.com/d2bcart/backend/internal/application/identity"
	domainidentity "github.com/d2bcart/backend/internal/domain/identity"
	"github.com/gin-gonic/gin"
)

// AuthHandler handles sign-up, login and the caller's own account
type AuthHandler struct {
	BaseHandler
	authService *identity.AuthService
	userService *identity.UserService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *identity.AuthService, userService *identity.UserService) *AuthHandler {
	return &AuthHandler{authService: authService, userService: userService}
}

// Register creates a retailer or manufacturer account
// @Summary     Register a retailer or manufacturer
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body RegisterRequest true "Sign-up details"
// @Success     201 {object} dto.Response{data=identity.AuthResult}
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     429 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Router      /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.authService.Register(c.Request.Context(), identity.RegisterInput{
		Role:         domainidentity.Role(req.Role),
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Password:     req.Password,
		BusinessName: req.BusinessName,
		GSTIN:        req.GSTIN,
		State:        req.State,
		City:         req.City,
		Pincode:      req.Pincode,
		AddressLine:  req.AddressLine,
		Attribution:  req.Attribution,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// Login issues a token pair
// @Summary     Log in with email or phone
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body LoginRequest true "Credentials"
// @Success     200 {object} dto.Response{data=identity.AuthResult}
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     429 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Router      /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), identity.LoginInput{
		Identifier: req.Identifier,
		Password:   req.Password,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Refresh rotates the refresh token
// @Summary     Rotate the refresh token
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body RefreshTokenRequest true "Refresh token"
// @Success     200 {object} dto.Response{data=identity.AuthResult}
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Router      /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Logout revokes the refresh token
// @Summary     Revoke a refresh token
// @Tags        auth
// @Accept      json
// @Param       request body RefreshTokenRequest true "Refresh token"
// @Success     204 "No Content"
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Router      /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	if err := h.authService.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Me returns the caller's profile
// @Summary     Get the caller's profile
// @Tags        auth
// @Produce     json
// @Success     200 {object} dto.Response{data=identity.UserInfo}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Security    BearerAuth
// @Router      /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	info, err := h.userService.Me(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, info)
}

// UpdateProfile edits the caller's business profile
// @Summary     Update the caller's business profile
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body ProfileRequest true "Profile fields"
// @Success     200 {object} dto.Response{data=identity.UserInfo}
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Security    BearerAuth
// @Router      /auth/me [put]
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	info, err := h.userService.UpdateProfile(c.Request.Context(), userID, identity.ProfileInput{
		Name:         req.Name,
		BusinessName: req.BusinessName,
		GSTIN:        req.GSTIN,
		State:        req.State,
		City:         req.City,
		Pincode:      req.Pincode,
		AddressLine:  req.AddressLine,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, info)
}

// UpdateBankAccount stores the manufacturer's payout account
// @Summary     Set the payout bank account
// @Description Manufacturers only. The account number is stored masked in responses.
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body BankAccountRequest true "Bank account"
// @Success     200 {object} dto.Response{data=identity.UserInfo}
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Security    BearerAuth
// @Router      /auth/me/bank-account [put]
func (h *AuthHandler) UpdateBankAccount(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	var req BankAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	info, err := h.userService.UpdateBankAccount(c.Request.Context(), userID, identity.BankAccountInput{
		HolderName:    req.HolderName,
		AccountNumber: req.AccountNumber,
		IFSC:          req.IFSC,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, info)
}
