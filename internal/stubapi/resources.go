package stubapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/medidesk/dashboard/internal/api"
)

// fixtures is the in-memory dataset behind the resource endpoints.
type fixtures struct {
	doctors      map[int64]api.Doctor
	clinics      map[int64]api.Clinic
	appointments []api.Appointment
	patients     []api.Patient
	calls        []api.CallLog
	messages     []api.FrontDeskMessage
	refills      []api.RefillRequest
	hours        map[int64]api.WeeklyHours
	offDays      []api.OffDay
	calendars    []api.LinkedCalendar
	nextID       int64
}

func defaultFixtures() *fixtures {
	clinicID := int64(7)
	patientID := int64(301)
	day := func(hh int) time.Time {
		return time.Date(2026, 8, 31, hh, 0, 0, 0, time.UTC)
	}
	return &fixtures{
		doctors: map[int64]api.Doctor{
			42: {ID: 42, FirstName: "Mina", LastName: "Okafor", Department: "Cardiology", ClinicID: &clinicID, Email: "m.okafor@clinic.test", Phone: "+15550100"},
		},
		clinics: map[int64]api.Clinic{
			7: {ID: 7, Name: "Harborview Clinic", Phone: "+15550199", LogoURL: "https://cdn.clinic.test/logo.png", Address: "12 Bay St"},
		},
		appointments: []api.Appointment{
			{ID: 1001, DoctorID: 42, PatientID: 301, PatientName: "Jordan Reyes", StartsAt: day(9), EndsAt: day(10), Status: api.AppointmentScheduled, Reason: "follow-up"},
			{ID: 1002, DoctorID: 42, PatientID: 302, PatientName: "Sam Patel", StartsAt: day(11), EndsAt: day(12), Status: api.AppointmentConfirmed, Reason: "annual exam"},
		},
		patients: []api.Patient{
			{ID: 301, FirstName: "Jordan", LastName: "Reyes", DateOfBirth: "1988-02-14", Email: "jordan@example.test", Phone: "+15550301", ClinicID: &clinicID},
			{ID: 302, FirstName: "Sam", LastName: "Patel", DateOfBirth: "1979-11-02", Email: "sam@example.test", Phone: "+15550302", ClinicID: &clinicID},
		},
		calls: []api.CallLog{
			{ID: 501, PatientID: &patientID, CallerName: "Jordan Reyes", CallerNumber: "+15550301", Direction: api.CallInbound, Outcome: api.CallMissed, StartedAt: day(8), DurationSeconds: 0},
			{ID: 502, CallerName: "Pharmacy", CallerNumber: "+15550400", Direction: api.CallInbound, Outcome: api.CallAnswered, StartedAt: day(10), DurationSeconds: 95},
		},
		messages: []api.FrontDeskMessage{
			{ID: 601, PatientName: "Jordan Reyes", Phone: "+15550301", Body: "Requesting earlier slot", ReceivedAt: day(8)},
		},
		refills: []api.RefillRequest{
			{ID: 701, PatientID: 301, PatientName: "Jordan Reyes", Medication: "Lisinopril", Dosage: "10mg", RequestedAt: day(7), Status: api.RefillPending},
		},
		hours: map[int64]api.WeeklyHours{
			42: {
				Monday:    &api.DayHours{Open: "09:00", Close: "17:00"},
				Tuesday:   &api.DayHours{Open: "09:00", Close: "17:00"},
				Wednesday: &api.DayHours{Open: "09:00", Close: "13:00"},
				Thursday:  &api.DayHours{Open: "09:00", Close: "17:00"},
				Friday:    &api.DayHours{Open: "09:00", Close: "15:00"},
			},
		},
		offDays: []api.OffDay{
			{ID: 801, DoctorID: 42, Date: "2026-09-14", Reason: "conference"},
		},
		calendars: []api.LinkedCalendar{
			{ID: 901, DoctorID: 42, Provider: api.CalendarGoogle, Email: "m.okafor@gmail.test", LinkedAt: day(6)},
		},
		nextID: 2000,
	}
}

func (f *fixtures) allocID() int64 {
	f.nextID++
	return f.nextID
}

func (s *Server) handleGetDoctor(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		s.writeError(w, http.StatusBadRequest, "bad_id", "invalid doctor id")
		return
	}
	s.mu.Lock()
	doctor, found := s.fixtures.doctors[id]
	s.mu.Unlock()
	if !found {
		s.writeError(w, http.StatusNotFound, "not_found", "doctor not found")
		return
	}
	s.writeJSON(w, http.StatusOK, doctor)
}

func (s *Server) handleGetClinic(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		s.writeError(w, http.StatusBadRequest, "bad_id", "invalid clinic id")
		return
	}
	s.mu.Lock()
	clinic, found := s.fixtures.clinics[id]
	s.mu.Unlock()
	if !found {
		s.writeError(w, http.StatusNotFound, "not_found", "clinic not found")
		return
	}
	s.writeJSON(w, http.StatusOK, clinic)
}

func (s *Server) handleListAppointments(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	doctorID := query.Get("doctor_id")
	status := query.Get("status")
	day := query.Get("day")

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]api.Appointment, 0, len(s.fixtures.appointments))
	for _, a := range s.fixtures.appointments {
		if doctorID != "" && doctorID != itoa(a.DoctorID) {
			continue
		}
		if status != "" && status != a.Status {
			continue
		}
		if day != "" && day != a.StartsAt.Format("2006-01-02") {
			continue
		}
		out = append(out, a)
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePatchAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		s.writeError(w, http.StatusBadRequest, "bad_id", "invalid appointment id")
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Status == "" {
		s.writeError(w, http.StatusBadRequest, "bad_request", "status required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.fixtures.appointments {
		if s.fixtures.appointments[i].ID == id {
			s.fixtures.appointments[i].Status = body.Status
			s.writeJSON(w, http.StatusOK, s.fixtures.appointments[i])
			return
		}
	}
	s.writeError(w, http.StatusNotFound, "not_found", "appointment not found")
}

func (s *Server) handleListPatients(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]api.Patient, 0, len(s.fixtures.patients))
	for _, p := range s.fixtures.patients {
		if search != "" && !containsFold(p.FirstName+" "+p.LastName, search) {
			continue
		}
		out = append(out, p)
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetPatient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		s.writeError(w, http.StatusBadRequest, "bad_id", "invalid patient id")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.fixtures.patients {
		if p.ID == id {
			s.writeJSON(w, http.StatusOK, p)
			return
		}
	}
	s.writeError(w, http.StatusNotFound, "not_found", "patient not found")
}

func (s *Server) handleListCalls(w http.ResponseWriter, r *http.Request) {
	direction := r.URL.Query().Get("direction")
	outcome := r.URL.Query().Get("outcome")
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]api.CallLog, 0, len(s.fixtures.calls))
	for _, c := range s.fixtures.calls {
		if direction != "" && direction != c.Direction {
			continue
		}
		if outcome != "" && outcome != c.Outcome {
			continue
		}
		out = append(out, c)
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	handled := r.URL.Query().Get("handled")
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]api.FrontDeskMessage, 0, len(s.fixtures.messages))
	for _, m := range s.fixtures.messages {
		if handled == "true" && !m.Handled {
			continue
		}
		if handled == "false" && m.Handled {
			continue
		}
		out = append(out, m)
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePatchMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		s.writeError(w, http.StatusBadRequest, "bad_id", "invalid message id")
		return
	}
	var body struct {
		Handled          *bool  `json:"handled"`
		AssignedDoctorID *int64 `json:"assigned_doctor_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "bad_request", "invalid body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.fixtures.messages {
		if s.fixtures.messages[i].ID != id {
			continue
		}
		if body.Handled != nil {
			s.fixtures.messages[i].Handled = *body.Handled
		}
		if body.AssignedDoctorID != nil {
			s.fixtures.messages[i].AssignedDoctorID = body.AssignedDoctorID
		}
		s.writeJSON(w, http.StatusOK, s.fixtures.messages[i])
		return
	}
	s.writeError(w, http.StatusNotFound, "not_found", "message not found")
}

func (s *Server) handleListRefills(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]api.RefillRequest, 0, len(s.fixtures.refills))
	for _, rr := range s.fixtures.refills {
		if status != "" && status != rr.Status {
			continue
		}
		out = append(out, rr)
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleApproveRefill(w http.ResponseWriter, r *http.Request) {
	s.resolveRefill(w, r, api.RefillApproved, "")
}

func (s *Server) handleDenyRefill(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Reason string `json:"reason"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	s.resolveRefill(w, r, api.RefillDenied, body.Reason)
}

func (s *Server) resolveRefill(w http.ResponseWriter, r *http.Request, status, reason string) {
	id, ok := pathID(r, "id")
	if !ok {
		s.writeError(w, http.StatusBadRequest, "bad_id", "invalid refill id")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.fixtures.refills {
		if s.fixtures.refills[i].ID != id {
			continue
		}
		if s.fixtures.refills[i].Status != api.RefillPending {
			s.writeError(w, http.StatusConflict, "already_resolved", "refill request already resolved")
			return
		}
		s.fixtures.refills[i].Status = status
		s.fixtures.refills[i].DenyReason = reason
		s.writeJSON(w, http.StatusOK, s.fixtures.refills[i])
		return
	}
	s.writeError(w, http.StatusNotFound, "not_found", "refill request not found")
}

func (s *Server) handleGetHours(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		s.writeError(w, http.StatusBadRequest, "bad_id", "invalid doctor id")
		return
	}
	s.mu.Lock()
	hours, found := s.fixtures.hours[id]
	s.mu.Unlock()
	if !found {
		s.writeError(w, http.StatusNotFound, "not_found", "no hours for doctor")
		return
	}
	s.writeJSON(w, http.StatusOK, hours)
}

func (s *Server) handleSetHours(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		s.writeError(w, http.StatusBadRequest, "bad_id", "invalid doctor id")
		return
	}
	var hours api.WeeklyHours
	if err := json.NewDecoder(r.Body).Decode(&hours); err != nil {
		s.writeError(w, http.StatusBadRequest, "bad_request", "invalid body")
		return
	}
	s.mu.Lock()
	s.fixtures.hours[id] = hours
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListOffDays(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		s.writeError(w, http.StatusBadRequest, "bad_id", "invalid doctor id")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]api.OffDay, 0)
	for _, d := range s.fixtures.offDays {
		if d.DoctorID == id {
			out = append(out, d)
		}
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAddOffDay(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		s.writeError(w, http.StatusBadRequest, "bad_id", "invalid doctor id")
		return
	}
	var body struct {
		Date   string `json:"date"`
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Date == "" {
		s.writeError(w, http.StatusBadRequest, "bad_request", "date required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	offDay := api.OffDay{ID: s.fixtures.allocID(), DoctorID: id, Date: body.Date, Reason: body.Reason}
	s.fixtures.offDays = append(s.fixtures.offDays, offDay)
	s.writeJSON(w, http.StatusCreated, offDay)
}

func (s *Server) handleRemoveOffDay(w http.ResponseWriter, r *http.Request) {
	offDayID, ok := pathID(r, "offDayID")
	if !ok {
		s.writeError(w, http.StatusBadRequest, "bad_id", "invalid off day id")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, d := range s.fixtures.offDays {
		if d.ID == offDayID {
			s.fixtures.offDays = append(s.fixtures.offDays[:i], s.fixtures.offDays[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	s.writeError(w, http.StatusNotFound, "not_found", "off day not found")
}

func (s *Server) handleListCalendars(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		s.writeError(w, http.StatusBadRequest, "bad_id", "invalid doctor id")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]api.LinkedCalendar, 0)
	for _, c := range s.fixtures.calendars {
		if c.DoctorID == id {
			out = append(out, c)
		}
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleLinkCalendar(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		s.writeError(w, http.StatusBadRequest, "bad_id", "invalid doctor id")
		return
	}
	var body struct {
		Provider string `json:"provider"`
		Code     string `json:"code"`
		State    string `json:"state"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Provider == "" || body.Code == "" {
		s.writeError(w, http.StatusBadRequest, "bad_request", "provider and code required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	linked := api.LinkedCalendar{
		ID:       s.fixtures.allocID(),
		DoctorID: id,
		Provider: body.Provider,
		Email:    "linked@" + body.Provider + ".test",
		LinkedAt: s.now(),
	}
	s.fixtures.calendars = append(s.fixtures.calendars, linked)
	s.writeJSON(w, http.StatusCreated, linked)
}

func (s *Server) handleUnlinkCalendar(w http.ResponseWriter, r *http.Request) {
	calendarID, ok := pathID(r, "calendarID")
	if !ok {
		s.writeError(w, http.StatusBadRequest, "bad_id", "invalid calendar id")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.fixtures.calendars {
		if c.ID == calendarID {
			s.fixtures.calendars = append(s.fixtures.calendars[:i], s.fixtures.calendars[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	s.writeError(w, http.StatusNotFound, "not_found", "calendar not found")
}
