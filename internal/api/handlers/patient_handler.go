package handlers

import (
	"net/http"

	"github.com/medly/scheduleconsole/internal/application/services"
	"github.com/medly/scheduleconsole/internal/domain/entities"
)

// PatientHandler serves login-lite and the read-only patient history views
type PatientHandler struct {
	patients *services.PatientService
}

// NewPatientHandler creates a new patient handler
func NewPatientHandler(patients *services.PatientService) *PatientHandler {
	return &PatientHandler{patients: patients}
}

// Login handles POST /console/login
func (h *PatientHandler) Login(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOrFail(w, r)
	if !ok {
		return
	}
	var req entities.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.patients.Login(r.Context(), sess.ID(), req)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, user)
}

// Logout handles DELETE /console/login
func (h *PatientHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOrFail(w, r)
	if !ok {
		return
	}
	if err := h.patients.Logout(r.Context(), sess.ID()); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /console/me
func (h *PatientHandler) Me(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOrFail(w, r)
	if !ok {
		return
	}
	user, err := h.patients.CurrentUser(r.Context(), sess.ID())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, user)
}

// Upcoming handles GET /console/patients/upcoming?user_id=
func (h *PatientHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOrFail(w, r)
	if !ok {
		return
	}
	items, err := h.patients.Upcoming(r.Context(), sess.ID(), r.URL.Query().Get("user_id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"items": items,
		"count": len(items),
	})
}

// Bookings handles GET /console/patients/bookings?user_id=
func (h *PatientHandler) Bookings(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOrFail(w, r)
	if !ok {
		return
	}
	items, err := h.patients.Bookings(r.Context(), sess.ID(), r.URL.Query().Get("user_id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"items": items,
		"count": len(items),
	})
}

// Booking handles GET /console/patients/bookings/{id}
func (h *PatientHandler) Booking(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	booking, err := h.patients.Booking(r.Context(), id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, booking)
}

// HospitalUsers handles GET /console/patients/hospital-users?hospital_id=
func (h *PatientHandler) HospitalUsers(w http.ResponseWriter, r *http.Request) {
	hospitalID, err := optionalInt64(r, "hospital_id")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	users, err := h.patients.HospitalUsers(r.Context(), hospitalID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, users)
}

// HospitalUserProfile handles GET /console/patients/hospital-user-profile?hospital_id=&user_id=
func (h *PatientHandler) HospitalUserProfile(w http.ResponseWriter, r *http.Request) {
	hospitalID, err := optionalInt64(r, "hospital_id")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	var id int64
	if hospitalID != nil {
		id = *hospitalID
	}
	profile, err := h.patients.HospitalUserProfile(r.Context(), id, r.URL.Query().Get("user_id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, profile)
}

// UpcomingByHospital handles GET /console/patients/hospitals/upcoming
func (h *PatientHandler) UpcomingByHospital(w http.ResponseWriter, r *http.Request) {
	out, err := h.patients.UpcomingByHospital(r.Context())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, out)
}
