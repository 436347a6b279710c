package apitest

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"talent-sync/internal/models"
)

type ctxUserKey struct{}

func withUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxUserKey{}, userID)
}

func currentUserID(r *http.Request) string {
	id, _ := r.Context().Value(ctxUserKey{}).(string)
	return id
}

// ==========================
// Auth
// ==========================

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if err := decodeBody(r, &creds); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[strings.ToLower(creds.Email)]
	if !ok || acct.password != creds.Password {
		writeError(w, http.StatusBadRequest, "Invalid email or password")
		return
	}
	writeData(w, http.StatusOK, models.AuthResult{Token: s.issueTokenLocked(acct.user.ID), User: acct.user})
}

func (s *Server) handleRegisterStudent(w http.ResponseWriter, r *http.Request) {
	var in models.StudentRegistration
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[strings.ToLower(in.Email)]; exists {
		writeError(w, http.StatusConflict, "Email already registered")
		return
	}
	user := s.createStudentLocked(in)
	writeData(w, http.StatusCreated, models.AuthResult{Token: s.issueTokenLocked(user.ID), User: user})
}

func (s *Server) handleRegisterBusiness(w http.ResponseWriter, r *http.Request) {
	var in models.BusinessRegistration
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[strings.ToLower(in.Email)]; exists {
		writeError(w, http.StatusConflict, "Email already registered")
		return
	}
	user := s.createBusinessLocked(in)
	writeData(w, http.StatusCreated, models.AuthResult{Token: s.issueTokenLocked(user.ID), User: user})
}

// ==========================
// Profiles
// ==========================

func (s *Server) handleGetStudent(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	student, ok := s.students[chi.URLParam(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "Student not found")
		return
	}
	out := *student
	out.Talents = s.talentsOfLocked(student.ID)
	writeData(w, http.StatusOK, out)
}

func (s *Server) handleUpdateStudent(w http.ResponseWriter, r *http.Request) {
	var changes map[string]interface{}
	if err := decodeBody(r, &changes); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	student, ok := s.students[chi.URLParam(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "Student not found")
		return
	}
	if v, ok := changes["bio"].(string); ok {
		student.Bio = v
	}
	if v, ok := changes["major"].(string); ok {
		student.Major = v
	}
	if v, ok := changes["year"].(float64); ok {
		student.Year = int(v)
	}
	if v, ok := changes["gpa"].(float64); ok {
		student.GPA = v
	}
	if v, ok := changes["skills"].([]interface{}); ok {
		student.Skills = student.Skills[:0]
		for _, skill := range v {
			if str, ok := skill.(string); ok {
				student.Skills = append(student.Skills, str)
			}
		}
	}
	writeData(w, http.StatusOK, student)
}

func (s *Server) handleUploadResume(w http.ResponseWriter, r *http.Request) {
	files, _, err := s.uploadedFiles(r, "resume")
	if err != nil || len(files) == 0 {
		writeError(w, http.StatusBadRequest, "Resume file is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	student, ok := s.students[chi.URLParam(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "Student not found")
		return
	}
	student.ResumeURL = files[0]
	writeData(w, http.StatusOK, student)
}

func (s *Server) handleAddProject(w http.ResponseWriter, r *http.Request) {
	files, fields, err := s.uploadedFiles(r, "files")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid form")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	student, ok := s.students[chi.URLParam(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "Student not found")
		return
	}
	project := models.Project{
		ID: s.nextID("project"), StudentID: student.ID,
		Title: fields["title"], Description: fields["description"], Link: fields["link"], Files: files,
	}
	student.Projects = append(student.Projects, project)
	writeData(w, http.StatusCreated, project)
}

func (s *Server) handleAddAchievement(w http.ResponseWriter, r *http.Request) {
	files, fields, err := s.uploadedFiles(r, "files")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid form")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	student, ok := s.students[chi.URLParam(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "Student not found")
		return
	}
	achievement := models.Achievement{
		ID: s.nextID("achievement"), StudentID: student.ID,
		Title: fields["title"], Description: fields["description"], Date: fields["date"], Files: files,
	}
	student.Achievements = append(student.Achievements, achievement)
	writeData(w, http.StatusCreated, achievement)
}

func (s *Server) handleGetBusiness(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	business, ok := s.businesses[chi.URLParam(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "Business not found")
		return
	}
	writeData(w, http.StatusOK, business)
}

func (s *Server) handleUpdateBusiness(w http.ResponseWriter, r *http.Request) {
	var changes map[string]interface{}
	if err := decodeBody(r, &changes); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	business, ok := s.businesses[chi.URLParam(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "Business not found")
		return
	}
	for key, target := range map[string]*string{
		"companyName": &business.CompanyName,
		"industry":    &business.Industry,
		"description": &business.Description,
		"website":     &business.Website,
		"location":    &business.Location,
	} {
		if v, ok := changes[key].(string); ok {
			*target = v
		}
	}
	writeData(w, http.StatusOK, business)
}

// ==========================
// Talents
// ==========================

func (s *Server) talentsOfLocked(studentID string) []models.Talent {
	out := []models.Talent{}
	for _, t := range s.talents {
		if t.StudentID == studentID {
			out = append(out, t)
		}
	}
	return out
}

func (s *Server) handleAllTalents(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Talent, len(s.talents))
	copy(out, s.talents)
	writeData(w, http.StatusOK, out)
}

func (s *Server) handleStudentTalents(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeData(w, http.StatusOK, s.talentsOfLocked(chi.URLParam(r, "id")))
}

func (s *Server) handleAddTalent(w http.ResponseWriter, r *http.Request) {
	files, fields, err := s.uploadedFiles(r, "files")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid form")
		return
	}
	if fields["title"] == "" {
		writeError(w, http.StatusBadRequest, "Title is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	studentID := chi.URLParam(r, "id")
	if _, ok := s.students[studentID]; !ok {
		writeError(w, http.StatusNotFound, "Student not found")
		return
	}
	if files == nil {
		files = []string{}
	}
	talent := models.Talent{
		ID: s.nextID("talent"), StudentID: studentID,
		Title: fields["title"], Category: fields["category"], Description: fields["description"],
		Files: files, CreatedAt: now(),
	}
	s.talents = append([]models.Talent{talent}, s.talents...)
	writeData(w, http.StatusCreated, talent)
}

func (s *Server) handleUpdateTalent(w http.ResponseWriter, r *http.Request) {
	files, fields, err := s.uploadedFiles(r, "files")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid form")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	talentID := chi.URLParam(r, "talentId")
	for i := range s.talents {
		if s.talents[i].ID != talentID {
			continue
		}
		t := &s.talents[i]
		if v := fields["title"]; v != "" {
			t.Title = v
		}
		if v := fields["category"]; v != "" {
			t.Category = v
		}
		if v := fields["description"]; v != "" {
			t.Description = v
		}
		t.Files = append(t.Files, files...)
		writeData(w, http.StatusOK, *t)
		return
	}
	writeError(w, http.StatusNotFound, "Talent not found")
}

func (s *Server) handleDeleteTalent(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	talentID := chi.URLParam(r, "talentId")
	for i := range s.talents {
		if s.talents[i].ID == talentID {
			s.talents = append(s.talents[:i], s.talents[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Talent deleted"})
			return
		}
	}
	writeError(w, http.StatusNotFound, "Talent not found")
}

func (s *Server) handleSocial(target map[string][]string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in models.SocialAction
		if err := decodeBody(r, &in); err != nil || in.TalentID == "" {
			writeError(w, http.StatusBadRequest, "talentId is required")
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		studentID := chi.URLParam(r, "id")
		for _, id := range target[studentID] {
			if id == in.TalentID {
				writeData(w, http.StatusOK, map[string]bool{"success": true})
				return
			}
		}
		target[studentID] = append(target[studentID], in.TalentID)
		writeData(w, http.StatusOK, map[string]bool{"success": true})
	}
}

func (s *Server) handleCollaboration(w http.ResponseWriter, r *http.Request) {
	var in models.SocialAction
	if err := decodeBody(r, &in); err != nil || in.TalentID == "" {
		writeError(w, http.StatusBadRequest, "talentId is required")
		return
	}
	s.mu.Lock()
	s.collabs = append(s.collabs, in)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"data":    map[string]bool{"success": true},
		"message": "Collaboration request sent",
	})
}

func (s *Server) handleSocialList(source map[string][]string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		ids := map[string]bool{}
		for _, id := range source[chi.URLParam(r, "id")] {
			ids[id] = true
		}
		out := []models.Talent{}
		for _, t := range s.talents {
			if ids[t.ID] {
				out = append(out, t)
			}
		}
		writeData(w, http.StatusOK, out)
	}
}

// ==========================
// Messaging
// ==========================

func (s *Server) handleConversations(w http.ResponseWriter, r *http.Request) {
	me := currentUserID(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Conversation{}
	for _, c := range s.conversations {
		for _, p := range c.Participants {
			if p.ID == me {
				out = append(out, c)
				break
			}
		}
	}
	writeData(w, http.StatusOK, out)
}

func sameParticipants(c models.Conversation, ids []string) bool {
	if len(c.Participants) != len(ids) {
		return false
	}
	want := map[string]bool{}
	for _, id := range ids {
		want[id] = true
	}
	for _, p := range c.Participants {
		if !want[p.ID] {
			return false
		}
	}
	return true
}

func (s *Server) handleCreateConversation(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ParticipantIDs []string `json:"participantIds"`
	}
	if err := decodeBody(r, &in); err != nil || len(in.ParticipantIDs) < 2 {
		writeError(w, http.StatusBadRequest, "Two participants are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.conversations {
		if sameParticipants(c, in.ParticipantIDs) {
			writeData(w, http.StatusOK, c)
			return
		}
	}

	participants := make([]models.User, 0, len(in.ParticipantIDs))
	for _, id := range in.ParticipantIDs {
		u, ok := s.users[id]
		if !ok {
			u = models.User{ID: id}
		}
		participants = append(participants, u)
	}
	conv := models.Conversation{ID: s.nextID("conv"), Participants: participants, UpdatedAt: now()}
	s.conversations = append([]models.Conversation{conv}, s.conversations...)
	writeData(w, http.StatusCreated, conv)
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]models.Message{}, s.messages[chi.URLParam(r, "id")]...)
	writeData(w, http.StatusOK, out)
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Content string `json:"content"`
	}
	if err := decodeBody(r, &in); err != nil || strings.TrimSpace(in.Content) == "" {
		writeError(w, http.StatusBadRequest, "Message content is required")
		return
	}

	convID := chi.URLParam(r, "id")
	s.mu.Lock()
	idx := -1
	for i, c := range s.conversations {
		if c.ID == convID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "Conversation not found")
		return
	}

	msg := models.Message{
		ID: s.nextID("msg"), ConversationID: convID, SenderID: currentUserID(r),
		Content: in.Content, CreatedAt: now(),
	}
	s.messages[convID] = append(s.messages[convID], msg)

	conv := s.conversations[idx]
	last := msg
	conv.LastMessage = &last
	conv.UpdatedAt = msg.CreatedAt
	s.conversations = append(s.conversations[:idx], s.conversations[idx+1:]...)
	s.conversations = append([]models.Conversation{conv}, s.conversations...)
	s.mu.Unlock()

	s.Broadcast("message.created", msg)
	writeData(w, http.StatusCreated, msg)
}

// ==========================
// Jobs and applications
// ==========================

func (s *Server) handleJobs(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeData(w, http.StatusOK, append([]models.Job{}, s.jobs...))
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var job models.Job
	if err := decodeBody(r, &job); err != nil || job.Title == "" {
		writeError(w, http.StatusBadRequest, "Job title is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	me := s.users[currentUserID(r)]
	if me.Role != models.RoleBusiness {
		writeError(w, http.StatusForbidden, "Only businesses can post jobs")
		return
	}
	job.ID = s.nextID("job")
	job.BusinessID = me.BusinessID
	job.CreatedAt = now()
	s.jobs = append([]models.Job{job}, s.jobs...)
	writeData(w, http.StatusCreated, job)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range s.jobs {
		if j.ID == chi.URLParam(r, "id") {
			writeData(w, http.StatusOK, j)
			return
		}
	}
	writeError(w, http.StatusNotFound, "Job not found")
}

func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	var in models.JobApplication
	_ = decodeBody(r, &in)

	s.mu.Lock()
	defer s.mu.Unlock()
	me := s.users[currentUserID(r)]
	if me.Role != models.RoleStudent {
		writeError(w, http.StatusForbidden, "Only students can apply")
		return
	}
	jobID := chi.URLParam(r, "id")
	for _, a := range s.applications {
		if a.JobID == jobID && a.StudentID == me.StudentID {
			writeError(w, http.StatusConflict, "You have already applied to this job")
			return
		}
	}
	app := models.Application{
		ID: s.nextID("app"), JobID: jobID, StudentID: me.StudentID,
		Status: models.ApplicationPending, CoverLetter: in.CoverLetter, CreatedAt: now(),
	}
	app.UpdatedAt = app.CreatedAt
	s.applications = append([]models.Application{app}, s.applications...)
	writeData(w, http.StatusCreated, app)
}

func (s *Server) filterApplications(keep func(models.Application) bool) []models.Application {
	out := []models.Application{}
	for _, a := range s.applications {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}

func (s *Server) handleStudentApplications(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "id")
	writeData(w, http.StatusOK, s.filterApplications(func(a models.Application) bool { return a.StudentID == id }))
}

func (s *Server) handleJobApplications(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "id")
	writeData(w, http.StatusOK, s.filterApplications(func(a models.Application) bool { return a.JobID == id }))
}

// handleApplicationStatus enforces the state machine: once decided, an
// application cannot move again.
func (s *Server) handleApplicationStatus(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Status models.ApplicationStatus `json:"status"`
	}
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.applications {
		a := &s.applications[i]
		if a.ID != chi.URLParam(r, "id") {
			continue
		}
		if a.Status.IsDecided() && a.Status != in.Status {
			writeError(w, http.StatusConflict, "Application has already been decided")
			return
		}
		a.Status = in.Status
		a.UpdatedAt = now()
		writeData(w, http.StatusOK, *a)
		return
	}
	writeError(w, http.StatusNotFound, "Application not found")
}

// ==========================
// Follows
// ==========================

func (s *Server) handleFollow(follow bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		me := currentUserID(r)
		target := chi.URLParam(r, "id")
		if me == target {
			writeError(w, http.StatusBadRequest, "You cannot follow yourself")
			return
		}

		s.mu.Lock()
		edge := [2]string{me, target}
		if follow {
			s.follows[edge] = true
		} else {
			delete(s.follows, edge)
		}
		s.mu.Unlock()
		writeData(w, http.StatusOK, models.FollowStatus{IsFollowing: follow})
	}
}

func (s *Server) handleFollowers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	target := chi.URLParam(r, "id")
	out := []models.User{}
	for edge := range s.follows {
		if edge[1] != target {
			continue
		}
		if u, ok := s.users[edge[0]]; ok {
			out = append(out, u)
		}
	}
	writeData(w, http.StatusOK, sortedUsers(out))
}

func (s *Server) handleFollowing(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	source := chi.URLParam(r, "id")
	out := []models.User{}
	for edge := range s.follows {
		if edge[0] != source {
			continue
		}
		if u, ok := s.users[edge[1]]; ok {
			out = append(out, u)
		}
	}
	writeData(w, http.StatusOK, sortedUsers(out))
}

func (s *Server) handleFollowStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	edge := [2]string{chi.URLParam(r, "id"), chi.URLParam(r, "followingId")}
	writeData(w, http.StatusOK, models.FollowStatus{IsFollowing: s.follows[edge]})
}

// ==========================
// Realtime
// ==========================

func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	s.mu.Lock()
	s.sockets[conn] = currentUserID(r)
	s.mu.Unlock()

	// drain until the client goes away
	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.sockets, conn)
			s.mu.Unlock()
			_ = conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
