// Package apitest runs an in-memory stand-in for the marketplace REST API.
// It speaks the same {data, message?} envelope and bearer-token auth, and
// lets tests override or fail individual routes.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"talent-sync/internal/models"
)

// RecordedRequest is what the server saw for one call.
type RecordedRequest struct {
	Method        string
	Path          string
	Authorization string
	ContentType   string
}

type account struct {
	user     models.User
	password string
}

type Server struct {
	*httptest.Server

	mu            sync.Mutex
	seq           int
	accounts      map[string]*account // by email
	users         map[string]models.User
	tokens        map[string]string // token -> user id
	students      map[string]*models.Student
	businesses    map[string]*models.Business
	talents       []models.Talent // newest first
	conversations []models.Conversation
	messages      map[string][]models.Message
	follows       map[[2]string]bool // {follower, following}
	liked         map[string][]string
	saved         map[string][]string
	collabs       []models.SocialAction
	jobs          []models.Job
	applications  []models.Application
	overrides     map[string]http.HandlerFunc
	requests      []RecordedRequest

	upgrader websocket.Upgrader
	sockets  map[*websocket.Conn]string // conn -> user id
	wsMu     sync.Mutex                 // one writer at a time
}

// New starts the server and closes it when the test ends.
func New(t testing.TB) *Server {
	s := &Server{
		accounts:   map[string]*account{},
		users:      map[string]models.User{},
		tokens:     map[string]string{},
		students:   map[string]*models.Student{},
		businesses: map[string]*models.Business{},
		messages:   map[string][]models.Message{},
		follows:    map[[2]string]bool{},
		liked:      map[string][]string{},
		saved:      map[string][]string{},
		overrides:  map[string]http.HandlerFunc{},
		sockets:    map[*websocket.Conn]string{},
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

func (s *Server) Close() {
	s.mu.Lock()
	for conn := range s.sockets {
		_ = conn.Close()
	}
	s.sockets = map[*websocket.Conn]string{}
	s.mu.Unlock()
	s.Server.Close()
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.record)
	r.Use(s.override)

	r.Post("/auth/login", s.handleLogin)
	r.Post("/auth/register-student", s.handleRegisterStudent)
	r.Post("/auth/register-business", s.handleRegisterBusiness)

	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)

		r.Get("/ws", s.handleSocket)

		r.Get("/students/talents/all", s.handleAllTalents)
		r.Get("/students/{id}", s.handleGetStudent)
		r.Patch("/students/{id}", s.handleUpdateStudent)
		r.Post("/students/{id}/resume", s.handleUploadResume)
		r.Post("/students/{id}/projects", s.handleAddProject)
		r.Post("/students/{id}/achievements", s.handleAddAchievement)
		r.Get("/students/{id}/talents", s.handleStudentTalents)
		r.Post("/students/{id}/talents", s.handleAddTalent)
		r.Put("/students/{id}/talents/{talentId}", s.handleUpdateTalent)
		r.Delete("/students/{id}/talents/{talentId}", s.handleDeleteTalent)
		r.Post("/students/{id}/like-talent", s.handleSocial(s.liked))
		r.Post("/students/{id}/save-talent", s.handleSocial(s.saved))
		r.Post("/students/{id}/collaboration-request", s.handleCollaboration)
		r.Get("/students/{id}/liked-talents", s.handleSocialList(s.liked))
		r.Get("/students/{id}/saved-talents", s.handleSocialList(s.saved))
		r.Get("/students/{id}/applications", s.handleStudentApplications)

		r.Get("/businesses/{id}", s.handleGetBusiness)
		r.Patch("/businesses/{id}", s.handleUpdateBusiness)

		r.Get("/conversations", s.handleConversations)
		r.Post("/conversations", s.handleCreateConversation)
		r.Get("/conversations/{id}/messages", s.handleMessages)
		r.Post("/conversations/{id}/messages", s.handleSendMessage)

		r.Get("/jobs", s.handleJobs)
		r.Post("/jobs", s.handleCreateJob)
		r.Get("/jobs/{id}", s.handleGetJob)
		r.Post("/jobs/{id}/apply", s.handleApply)
		r.Get("/jobs/{id}/applications", s.handleJobApplications)
		r.Patch("/applications/{id}/status", s.handleApplicationStatus)

		r.Post("/users/{id}/follow", s.handleFollow(true))
		r.Delete("/users/{id}/follow", s.handleFollow(false))
		r.Get("/users/{id}/followers", s.handleFollowers)
		r.Get("/users/{id}/following", s.handleFollowing)
		r.Get("/users/{id}/follow-status/{followingId}", s.handleFollowStatus)
	})

	return r
}

// ==========================
// Test controls
// ==========================

// Override replaces the handler for an exact method and path.
func (s *Server) Override(method, path string, h http.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[method+" "+path] = h
}

// Fail makes method+path answer with status and an envelope message.
// An empty message sends a body without one.
func (s *Server) Fail(method, path string, status int, message string) {
	s.Override(method, path, func(w http.ResponseWriter, _ *http.Request) {
		if message == "" {
			writeJSON(w, status, map[string]interface{}{})
			return
		}
		writeError(w, status, message)
	})
}

// Reset removes an override.
func (s *Server) Reset(method, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.overrides, method+" "+path)
}

func (s *Server) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RecordedRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

// RevokeToken makes every later request with token answer 401.
func (s *Server) RevokeToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
}

// IssueToken signs userID in and returns a fresh bearer token.
func (s *Server) IssueToken(userID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueTokenLocked(userID)
}

// SeedStudent registers a student account and returns it with a token.
func (s *Server) SeedStudent(email, password, firstName, lastName string) (models.User, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user := s.createStudentLocked(models.StudentRegistration{
		Email: email, Password: password, FirstName: firstName, LastName: lastName,
	})
	return user, s.issueTokenLocked(user.ID)
}

// SeedBusiness registers a business account and returns it with a token.
func (s *Server) SeedBusiness(email, password, companyName string) (models.User, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user := s.createBusinessLocked(models.BusinessRegistration{
		Email: email, Password: password, FirstName: companyName, LastName: "Team", CompanyName: companyName,
	})
	return user, s.issueTokenLocked(user.ID)
}

// SeedTalent stores a talent as if the student had uploaded it.
func (s *Server) SeedTalent(talent models.Talent) models.Talent {
	s.mu.Lock()
	defer s.mu.Unlock()
	if talent.ID == "" {
		talent.ID = s.nextID("talent")
	}
	if talent.Files == nil {
		talent.Files = []string{}
	}
	if talent.CreatedAt == "" {
		talent.CreatedAt = now()
	}
	s.talents = append([]models.Talent{talent}, s.talents...)
	return talent
}

// SeedJob stores a job posting.
func (s *Server) SeedJob(job models.Job) models.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job.ID == "" {
		job.ID = s.nextID("job")
	}
	job.CreatedAt = now()
	s.jobs = append([]models.Job{job}, s.jobs...)
	return job
}

// IsFollowing reads the server-side follow edge.
func (s *Server) IsFollowing(followerID, followingID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.follows[[2]string{followerID, followingID}]
}

// Broadcast pushes an event to every connected socket.
func (s *Server) Broadcast(eventType string, data interface{}) {
	s.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.sockets))
	for conn := range s.sockets {
		conns = append(conns, conn)
	}
	s.mu.Unlock()

	payload, _ := json.Marshal(map[string]interface{}{"type": eventType, "data": data})
	s.wsMu.Lock()
	defer s.wsMu.Unlock()
	for _, conn := range conns {
		_ = conn.WriteMessage(websocket.TextMessage, payload)
	}
}

// DropSockets closes every realtime connection but keeps serving.
func (s *Server) DropSockets() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.sockets {
		_ = conn.Close()
	}
	s.sockets = map[*websocket.Conn]string{}
}

// SocketCount reports how many realtime clients are connected.
func (s *Server) SocketCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sockets)
}

// ==========================
// Middleware
// ==========================

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, RecordedRequest{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
			ContentType:   r.Header.Get("Content-Type"),
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) override(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		h, ok := s.overrides[r.Method+" "+r.URL.Path]
		s.mu.Unlock()
		if ok {
			h(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" {
			token = r.URL.Query().Get("token")
		}

		s.mu.Lock()
		userID, ok := s.tokens[token]
		s.mu.Unlock()

		if token == "" || !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		r = r.WithContext(withUser(r.Context(), userID))
		next.ServeHTTP(w, r)
	})
}

// ==========================
// Helpers
// ==========================

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeData(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, map[string]interface{}{"data": data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{"message": message})
}

func decodeBody(r *http.Request, out interface{}) error {
	return json.NewDecoder(r.Body).Decode(out)
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func (s *Server) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (s *Server) issueTokenLocked(userID string) string {
	s.seq++
	token := fmt.Sprintf("token-%s-%d", userID, s.seq)
	s.tokens[token] = userID
	return token
}

func (s *Server) createStudentLocked(in models.StudentRegistration) models.User {
	userID := s.nextID("user")
	studentID := s.nextID("student")
	user := models.User{
		ID: userID, Role: models.RoleStudent, Email: in.Email,
		FirstName: in.FirstName, LastName: in.LastName, Status: "ACTIVE", StudentID: studentID,
	}
	s.accounts[strings.ToLower(in.Email)] = &account{user: user, password: in.Password}
	s.users[userID] = user
	u := user
	s.students[studentID] = &models.Student{ID: studentID, UserID: userID, User: &u, Major: in.Major, Year: in.Year}
	return user
}

func (s *Server) createBusinessLocked(in models.BusinessRegistration) models.User {
	userID := s.nextID("user")
	businessID := s.nextID("business")
	user := models.User{
		ID: userID, Role: models.RoleBusiness, Email: in.Email,
		FirstName: in.FirstName, LastName: in.LastName, Status: "ACTIVE", BusinessID: businessID,
	}
	s.accounts[strings.ToLower(in.Email)] = &account{user: user, password: in.Password}
	s.users[userID] = user
	u := user
	s.businesses[businessID] = &models.Business{
		ID: businessID, UserID: userID, User: &u, CompanyName: in.CompanyName, Industry: in.Industry,
	}
	return user
}

func (s *Server) uploadedFiles(r *http.Request, field string) ([]string, map[string]string, error) {
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		return nil, nil, err
	}
	fields := map[string]string{}
	for k, v := range r.MultipartForm.Value {
		if len(v) > 0 {
			fields[k] = v[0]
		}
	}
	var files []string
	for _, fh := range r.MultipartForm.File[field] {
		files = append(files, "/uploads/"+fh.Filename)
	}
	return files, fields, nil
}

func sortedUsers(users []models.User) []models.User {
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}
