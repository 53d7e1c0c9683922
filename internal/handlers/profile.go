package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Bryanb141518/api-profecional/internal/middleware"
	"github.com/Bryanb141518/api-profecional/internal/models"
)

// userResponse is the public view of a user. It must never carry the
// password hash.
type userResponse struct {
	ID                   string    `json:"id"`
	Email                string    `json:"email"`
	Nombre               string    `json:"nombre"`
	Apellido             string    `json:"apellido"`
	Edad                 *int      `json:"edad"`
	Genero               string    `json:"genero"`
	GeneroNombre         string    `json:"genero_nombre"`
	TipoEstudiante       *string   `json:"tipo_estudiante"`
	TipoEstudianteNombre string    `json:"tipo_estudiante_nombre,omitempty"`
	IsActive             bool      `json:"is_active"`
	IsStaff              bool      `json:"is_staff"`
	FechaRegistro        time.Time `json:"fecha_registro"`
}

func newUserResponse(user models.User) userResponse {
	resp := userResponse{
		ID:            user.ID,
		Email:         user.Email,
		Nombre:        user.Nombre,
		Apellido:      user.Apellido,
		Edad:          user.Edad,
		Genero:        string(user.Genero),
		GeneroNombre:  user.Genero.Label(),
		IsActive:      user.IsActive,
		IsStaff:       user.IsStaff,
		FechaRegistro: user.CreatedAt,
	}
	if user.TipoEstudiante != nil {
		code := string(*user.TipoEstudiante)
		resp.TipoEstudiante = &code
		resp.TipoEstudianteNombre = user.TipoEstudiante.Label()
	}
	return resp
}

func (h HandlerSet) Profile(c *gin.Context) {
	principal, ok := middleware.CurrentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	user, err := h.usersService.Profile(c.Request.Context(), principal.User.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"usuario": newUserResponse(user)})
}

type studentTypeOption struct {
	Codigo string `json:"codigo"`
	Nombre string `json:"nombre"`
}

func (h HandlerSet) StudentTypeOptions(c *gin.Context) {
	types := models.StudentTypes()
	options := make([]studentTypeOption, 0, len(types))
	for _, st := range types {
		options = append(options, studentTypeOption{Codigo: string(st), Nombre: st.Label()})
	}
	c.JSON(http.StatusOK, gin.H{"opciones": options})
}

type studentTypeRequest struct {
	TipoEstudiante *string `json:"tipo_estudiante"`
}

func (h HandlerSet) SetStudentType(c *gin.Context) {
	principal, ok := middleware.CurrentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req studentTypeRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.usersService.SetStudentType(c.Request.Context(), principal.User.ID, req.TipoEstudiante)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"usuario": newUserResponse(user)})
}
