package handlers

import (
	"net/http"
	"strconv"

	"malaria_clinic/internal/models"

	"github.com/gin-gonic/gin"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK      = "ok"
	statusDeleted = "deleted"

	errInternal     = "internal error"
	errListPatients = "failed to load patients"
	errAddPatient   = "failed to add patient"
	errDelPatient   = "failed to delete patient"
	errListDoctors  = "failed to load doctors"
	errAddDoctor    = "failed to add doctor"
	errDelDoctor    = "failed to delete doctor"
	errGetStats     = "failed to load dashboard"
	errInvalidID    = "invalid id"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// parseID reads the :id path parameter; ok is false for non-integers.
func parseID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return 0, false
	}
	return id, true
}

// PatientRequest is the JSON body for creating a patient.
type PatientRequest struct {
	FirstName string `json:"fname" example:"Amina"`
	LastName  string `json:"lname" example:"Okoro"`
	Insurance string `json:"insurance" example:"NHIS-20391"`
	Phone     string `json:"phone" example:"+234 803 555 0101"`
	// Infected, Uninfected or free text
	Result string `json:"result" example:"Uninfected"`
}

// DoctorRequest is the JSON body for creating a doctor.
type DoctorRequest struct {
	FirstName string `json:"fname" example:"Kwame"`
	LastName  string `json:"lname" example:"Mensah"`
	Insurance string `json:"insurance" example:"NHIS-10077"`
	Phone     string `json:"phone" example:"+233 24 555 0199"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      List patients
// @Tags         patients
// @Produce      json
// @Success      200  {array}   models.Patient
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/patients [get]
// @Security     BearerAuth
func (h *Handler) apiListPatients(c *gin.Context) {
	list, err := h.services.ListPatients(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errListPatients, "patients_list_failed", err)
		return
	}
	if list == nil {
		list = []models.Patient{}
	}
	c.JSON(http.StatusOK, list)
}

// @Summary      Add patient
// @Tags         patients
// @Accept       json
// @Produce      json
// @Param        body  body      PatientRequest  true  "Patient"
// @Success      201   {object}  map[string]int
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/patients [post]
// @Security     BearerAuth
func (h *Handler) apiCreatePatient(c *gin.Context) {
	var req PatientRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}
	id, err := h.services.AddPatient(c.Request.Context(), models.Patient{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Insurance: req.Insurance,
		Phone:     req.Phone,
		Result:    req.Result,
	})
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errAddPatient, "patient_add_failed", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// @Summary      Delete patient
// @Description  Deleting an id that does not exist still succeeds
// @Tags         patients
// @Produce      json
// @Param        id   path      int  true  "Patient ID"
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/patients/{id} [delete]
// @Security     BearerAuth
func (h *Handler) apiDeletePatient(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidID})
		return
	}
	if err := h.services.DeletePatient(c.Request.Context(), id); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errDelPatient, "patient_delete_failed", err, "id", id)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusDeleted})
}

// @Summary      List doctors
// @Tags         doctors
// @Produce      json
// @Success      200  {array}   models.Doctor
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/doctors [get]
// @Security     BearerAuth
func (h *Handler) apiListDoctors(c *gin.Context) {
	list, err := h.services.ListDoctors(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errListDoctors, "doctors_list_failed", err)
		return
	}
	if list == nil {
		list = []models.Doctor{}
	}
	c.JSON(http.StatusOK, list)
}

// @Summary      Add doctor
// @Tags         doctors
// @Accept       json
// @Produce      json
// @Param        body  body      DoctorRequest  true  "Doctor"
// @Success      201   {object}  map[string]int
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/doctors [post]
// @Security     BearerAuth
func (h *Handler) apiCreateDoctor(c *gin.Context) {
	var req DoctorRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}
	id, err := h.services.AddDoctor(c.Request.Context(), models.Doctor{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Insurance: req.Insurance,
		Phone:     req.Phone,
	})
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errAddDoctor, "doctor_add_failed", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// @Summary      Delete doctor
// @Tags         doctors
// @Produce      json
// @Param        id   path      int  true  "Doctor ID"
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/doctors/{id} [delete]
// @Security     BearerAuth
func (h *Handler) apiDeleteDoctor(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidID})
		return
	}
	if err := h.services.DeleteDoctor(c.Request.Context(), id); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errDelDoctor, "doctor_delete_failed", err, "id", id)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusDeleted})
}

// @Summary      Dashboard counts
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  models.DashboardStats
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/dashboard [get]
// @Security     BearerAuth
func (h *Handler) apiDashboard(c *gin.Context) {
	stats, err := h.services.Stats(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetStats, "dashboard_stats_failed", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// @Summary      Classify a blood smear image
// @Description  Accepts png, jpg or jpeg in the "file" field. Score above 0.5 is Infected.
// @Tags         predict
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "Cell image"
// @Success      200   {object}  map[string]interface{}  "result, score"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/predict [post]
// @Security     BearerAuth
func (h *Handler) apiPredict(c *gin.Context) {
	pred, ok := h.classifyUpload(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": pred.Label, "score": pred.Score})
}
