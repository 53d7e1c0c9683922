package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Bryanb141518/api-profecional/internal/middleware"
	"github.com/Bryanb141518/api-profecional/internal/service"
	"github.com/Bryanb141518/api-profecional/internal/validation"
)

const msgRegistered = "Usuario registrado exitosamente"

type registerRequest struct {
	Nombre     string  `json:"nombre"`
	Apellido   *string `json:"apellido"`
	Edad       *int    `json:"edad"`
	Genero     string  `json:"genero"`
	Email      string  `json:"email"`
	Password   string  `json:"password"`
	DeviceID   string  `json:"device_id"`
	DeviceName string  `json:"device_name"`
}

type registerResponse struct {
	Mensaje string `json:"mensaje"`
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
	Aviso   string `json:"aviso,omitempty"`
}

type tokenResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

func (h HandlerSet) RegisterUser(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authService.Register(c.Request.Context(), validation.RegistrationRequest{
		Nombre:   req.Nombre,
		Apellido: req.Apellido,
		Edad:     req.Edad,
		Genero:   req.Genero,
		Email:    req.Email,
		Password: req.Password,
	}, clientInfo(c, req.DeviceID, req.DeviceName))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, registerResponse{
		Mensaje: msgRegistered,
		Access:  result.Tokens.Access,
		Refresh: result.Tokens.Refresh,
		Aviso:   result.Advisory,
	})
}

type loginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	DeviceID   string `json:"device_id"`
	DeviceName string `json:"device_name"`
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	missing := gin.H{}
	if strings.TrimSpace(req.Email) == "" {
		missing["email"] = []string{msgFieldRequired}
	}
	if req.Password == "" {
		missing["password"] = []string{msgFieldRequired}
	}
	if len(missing) > 0 {
		c.JSON(http.StatusBadRequest, missing)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		Client:   clientInfo(c, req.DeviceID, req.DeviceName),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, tokenResponse{Access: result.Tokens.Access, Refresh: result.Tokens.Refresh})
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

func (h HandlerSet) Refresh(c *gin.Context) {
	var req refreshRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Refresh == "" {
		c.JSON(http.StatusBadRequest, gin.H{"refresh": []string{msgFieldRequired}})
		return
	}

	result, err := h.authService.Refresh(c.Request.Context(), req.Refresh, clientInfo(c, "", ""))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, tokenResponse{Access: result.Tokens.Access, Refresh: result.Tokens.Refresh})
}

func (h HandlerSet) Logout(c *gin.Context) {
	principal, ok := middleware.CurrentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.authService.Logout(c.Request.Context(), principal.SessionID); err != nil {
		h.respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

const (
	msgFieldRequired = "Este campo es requerido."
	msgInvalidJSON   = "JSON mal formado."
	msgInvalidInt    = "Introduzca un número entero válido."
	msgInvalidType   = "Tipo de dato inválido."
)

// bindJSON decodes the body and writes a field keyed 400 when it cannot.
func bindJSON(c *gin.Context, dst any) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		msg := msgInvalidType
		if typeErr.Field == "edad" {
			msg = msgInvalidInt
		}
		c.JSON(http.StatusBadRequest, gin.H{typeErr.Field: []string{msg}})
		return false
	}

	c.JSON(http.StatusBadRequest, gin.H{validation.NonFieldErrors: []string{msgInvalidJSON}})
	return false
}
