package handler

import (
	"net/http"

	"dentalcare/internal/middleware"
	"dentalcare/internal/service"
	"dentalcare/pkg/pagination"
	"dentalcare/pkg/response"

	"github.com/gin-gonic/gin"
)

type ClinicHandler struct {
	clinicService service.ClinicService
	tokenService  service.TokenService
}

// NewClinicHandler sets up the routing dependencies for the clinic entities
func NewClinicHandler(clinicService service.ClinicService, tokenService service.TokenService) *ClinicHandler {
	return &ClinicHandler{clinicService: clinicService, tokenService: tokenService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *ClinicHandler) RegisterRoutes(router *gin.RouterGroup) {
	patients := router.Group("/patients")
	{
		patients.GET("", middleware.RequireAuthority(h.tokenService, "PERMISO_PATIENTS_READ", "ROLE_ADMIN"), h.ListPatients)
		patients.GET("/:id", middleware.RequireAuthority(h.tokenService, "PERMISO_PATIENTS_READ", "ROLE_ADMIN"), h.GetPatient)
		patients.POST("", middleware.RequireAuthority(h.tokenService, "PERMISO_PATIENTS_WRITE", "ROLE_ADMIN"), h.CreatePatient)
		patients.PUT("/:id", middleware.RequireAuthority(h.tokenService, "PERMISO_PATIENTS_WRITE", "ROLE_ADMIN"), h.UpdatePatient)
		patients.DELETE("/:id", middleware.RequireAuthority(h.tokenService, "PERMISO_PATIENTS_DELETE", "ROLE_ADMIN"), h.DeletePatient)
	}

	dentists := router.Group("/dentists")
	{
		dentists.GET("", middleware.RequireAuthority(h.tokenService, "PERMISO_DENTISTS_READ", "ROLE_ADMIN"), h.ListDentists)
		dentists.POST("", middleware.RequireAuthority(h.tokenService, "PERMISO_DENTISTS_WRITE", "ROLE_ADMIN"), h.CreateDentist)
	}

	treatments := router.Group("/treatments")
	{
		treatments.GET("", middleware.RequireAuthority(h.tokenService, "PERMISO_TREATMENTS_READ", "ROLE_ADMIN"), h.ListTreatments)
		treatments.POST("", middleware.RequireAuthority(h.tokenService, "PERMISO_TREATMENTS_WRITE", "ROLE_ADMIN"), h.CreateTreatment)
	}
}

// CreatePatient handles POST /patients
// @Summary      Create patient
// @Tags         clinic
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.UpsertPatientRequest  true  "Patient"
// @Success      201      {object}  response.Response{data=model.Patient}
// @Failure      400      {object}  response.Response
// @Router       /patients [post]
func (h *ClinicHandler) CreatePatient(c *gin.Context) {
	var req service.UpsertPatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "error.invalid_input", "Invalid request payload"))
		return
	}

	patient, err := h.clinicService.CreatePatient(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, patient))
}

// ListPatients handles GET /patients
// @Summary      List patients
// @Tags         clinic
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number"
// @Param        limit  query     int  false  "Items per page"
// @Success      200    {object}  response.Response{data=object}
// @Router       /patients [get]
func (h *ClinicHandler) ListPatients(c *gin.Context) {
	params := pagination.Parse(c)
	patients, total, err := h.clinicService.ListPatients(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"patients": patients,
		"total":    total,
		"page":     params.Page,
		"limit":    params.Limit,
	}))
}

// GetPatient handles GET /patients/:id
// @Summary      Get patient
// @Tags         clinic
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Patient ID"
// @Success      200  {object}  response.Response{data=model.Patient}
// @Failure      404  {object}  response.Response
// @Router       /patients/{id} [get]
func (h *ClinicHandler) GetPatient(c *gin.Context) {
	patient, err := h.clinicService.GetPatient(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, patient))
}

// UpdatePatient handles PUT /patients/:id
// @Summary      Update patient
// @Tags         clinic
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                        true  "Patient ID"
// @Param        payload  body      service.UpsertPatientRequest  true  "Patient"
// @Success      200      {object}  response.Response{data=model.Patient}
// @Failure      404      {object}  response.Response
// @Router       /patients/{id} [put]
func (h *ClinicHandler) UpdatePatient(c *gin.Context) {
	var req service.UpsertPatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "error.invalid_input", "Invalid request payload"))
		return
	}

	patient, err := h.clinicService.UpdatePatient(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, patient))
}

// DeletePatient handles DELETE /patients/:id
// @Summary      Delete patient
// @Tags         clinic
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Patient ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /patients/{id} [delete]
func (h *ClinicHandler) DeletePatient(c *gin.Context) {
	if err := h.clinicService.DeletePatient(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Patient deleted"))
}

// CreateDentist handles POST /dentists
// @Summary      Create dentist
// @Tags         clinic
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.UpsertDentistRequest  true  "Dentist"
// @Success      201      {object}  response.Response{data=model.Dentist}
// @Failure      400      {object}  response.Response
// @Router       /dentists [post]
func (h *ClinicHandler) CreateDentist(c *gin.Context) {
	var req service.UpsertDentistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "error.invalid_input", "Invalid request payload"))
		return
	}

	dentist, err := h.clinicService.CreateDentist(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, dentist))
}

// ListDentists handles GET /dentists
// @Summary      List dentists
// @Tags         clinic
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=object}
// @Router       /dentists [get]
func (h *ClinicHandler) ListDentists(c *gin.Context) {
	params := pagination.Parse(c)
	dentists, total, err := h.clinicService.ListDentists(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"dentists": dentists,
		"total":    total,
		"page":     params.Page,
		"limit":    params.Limit,
	}))
}

// CreateTreatment handles POST /treatments
// @Summary      Create treatment
// @Tags         clinic
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.UpsertTreatmentRequest  true  "Treatment"
// @Success      201      {object}  response.Response{data=model.Treatment}
// @Failure      400      {object}  response.Response
// @Router       /treatments [post]
func (h *ClinicHandler) CreateTreatment(c *gin.Context) {
	var req service.UpsertTreatmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "error.invalid_input", "Invalid request payload"))
		return
	}

	treatment, err := h.clinicService.CreateTreatment(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, treatment))
}

// ListTreatments handles GET /treatments
// @Summary      List treatments
// @Tags         clinic
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=object}
// @Router       /treatments [get]
func (h *ClinicHandler) ListTreatments(c *gin.Context) {
	params := pagination.Parse(c)
	treatments, total, err := h.clinicService.ListTreatments(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"treatments": treatments,
		"total":      total,
		"page":       params.Page,
		"limit":      params.Limit,
	}))
}
