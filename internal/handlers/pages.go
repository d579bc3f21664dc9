package handlers

import (
	"net/http"

	"malaria_clinic/internal/models"
	"malaria_clinic/internal/session"

	"github.com/gin-gonic/gin"
)

const (
	flashLoginOK        = "Login successful!"
	flashLoginFailed    = "Invalid username or password. Please try again."
	flashPatientAdded   = "Patient added successfully!"
	flashDoctorAdded    = "Doctor added successfully!"
	flashPatientDeleted = "Patient deleted successfully!"
	flashDoctorDeleted  = "Doctor deleted successfully!"
)

// html renders a page with the title, current user and pending flashes.
func (h *Handler) html(c *gin.Context, name, title string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["title"] = title
	data["user"] = session.GetLoginUser(c)
	// popping flashes saves the cookie, which has to precede the body
	data["flashes"] = session.Flashes(c)
	c.HTML(http.StatusOK, name, data)
}

func (h *Handler) flash(c *gin.Context, category, msg string) {
	if err := session.AddFlash(c, category, msg); err != nil && h.log != nil {
		h.log.Errorw("session_save_failed", "err", err)
	}
}

func (h *Handler) renderError(c *gin.Context, logKey string, err error, kv ...interface{}) {
	if h.log != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.String(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}

func (h *Handler) index(c *gin.Context) {
	h.html(c, "index.html", "Diagnose", gin.H{"result": nil})
}

// predict classifies the upload and hands the label to the add-patient form.
func (h *Handler) predict(c *gin.Context) {
	pred, ok := h.classifyUpload(c)
	if !ok {
		return
	}
	h.html(c, "addpatient.html", "Add patient", gin.H{"result": pred.Label})
}

func (h *Handler) loginPage(c *gin.Context) {
	h.html(c, "login.html", "Login", nil)
}

func (h *Handler) login(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	ok, err := h.services.CheckCredentials(c.Request.Context(), username, password)
	if err != nil {
		h.renderError(c, "login_check_failed", err, "username", username)
		return
	}
	if !ok {
		if h.log != nil {
			h.log.Infow("login_failed", "username", username, "ip", c.ClientIP())
		}
		h.flash(c, session.FlashError, flashLoginFailed)
		h.html(c, "login.html", "Login", nil)
		return
	}

	if err := session.SetLoginUser(c, username); err != nil {
		h.renderError(c, "session_save_failed", err)
		return
	}
	if h.log != nil {
		h.log.Infow("login_succeeded", "username", username, "ip", c.ClientIP())
	}
	h.flash(c, session.FlashSuccess, flashLoginOK)
	c.Redirect(http.StatusFound, "/dashboard")
}

func (h *Handler) logout(c *gin.Context) {
	if user := session.GetLoginUser(c); user != "" && h.log != nil {
		h.log.Infow("logout", "username", user)
	}
	if err := session.ClearSession(c); err != nil && h.log != nil {
		h.log.Errorw("session_clear_failed", "err", err)
	}
	c.Redirect(http.StatusFound, "/login")
}

func (h *Handler) dashboard(c *gin.Context) {
	stats, err := h.services.Stats(c.Request.Context())
	if err != nil {
		h.renderError(c, "dashboard_stats_failed", err)
		return
	}
	h.html(c, "dashboard.html", "Dashboard", gin.H{
		"p_count": stats.Patients,
		"d_count": stats.Doctors,
	})
}

func (h *Handler) patientPage(c *gin.Context) {
	patients, err := h.services.ListPatients(c.Request.Context())
	if err != nil {
		h.renderError(c, "patients_list_failed", err)
		return
	}
	h.html(c, "patient.html", "Patients", gin.H{"patients": patients})
}

func (h *Handler) addPatientPage(c *gin.Context) {
	h.html(c, "addpatient.html", "Add patient", nil)
}

func (h *Handler) addPatient(c *gin.Context) {
	var p models.Patient
	if err := c.ShouldBind(&p); err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}
	if _, err := h.services.AddPatient(c.Request.Context(), p); err != nil {
		h.renderError(c, "patient_add_failed", err)
		return
	}
	h.flash(c, session.FlashSuccess, flashPatientAdded)
	h.html(c, "addpatient.html", "Add patient", nil)
}

func (h *Handler) deletePatient(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		c.String(http.StatusBadRequest, errInvalidID)
		return
	}
	if err := h.services.DeletePatient(c.Request.Context(), id); err != nil {
		h.renderError(c, "patient_delete_failed", err, "id", id)
		return
	}
	h.flash(c, session.FlashSuccess, flashPatientDeleted)
	c.Redirect(http.StatusFound, "/patient")
}

func (h *Handler) doctorPage(c *gin.Context) {
	doctors, err := h.services.ListDoctors(c.Request.Context())
	if err != nil {
		h.renderError(c, "doctors_list_failed", err)
		return
	}
	h.html(c, "doctor.html", "Doctors", gin.H{"doctors": doctors})
}

func (h *Handler) addDoctorPage(c *gin.Context) {
	h.html(c, "adddoctor.html", "Add doctor", nil)
}

func (h *Handler) addDoctor(c *gin.Context) {
	var d models.Doctor
	if err := c.ShouldBind(&d); err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}
	if _, err := h.services.AddDoctor(c.Request.Context(), d); err != nil {
		h.renderError(c, "doctor_add_failed", err)
		return
	}
	h.flash(c, session.FlashSuccess, flashDoctorAdded)
	h.html(c, "adddoctor.html", "Add doctor", nil)
}

func (h *Handler) deleteDoctor(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		c.String(http.StatusBadRequest, errInvalidID)
		return
	}
	if err := h.services.DeleteDoctor(c.Request.Context(), id); err != nil {
		h.renderError(c, "doctor_delete_failed", err, "id", id)
		return
	}
	h.flash(c, session.FlashSuccess, flashDoctorDeleted)
	c.Redirect(http.StatusFound, "/doctor")
}
