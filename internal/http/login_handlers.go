package httpapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dende197/g-connect-backend/internal/argo"
	"github.com/dende197/g-connect-backend/internal/models"
	"github.com/dende197/g-connect-backend/internal/services"
)

type LoginRequest struct {
	SchoolCode string `json:"schoolCode"`
	// School is the pre-rename field some clients still send.
	School       string `json:"school"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	ProfileIndex *int   `json:"profileIndex"`
}

type SyncRequest struct {
	SchoolCode   string `json:"schoolCode"`
	StoredUser   string `json:"storedUser"`
	StoredPass   string `json:"storedPass"`
	ProfileIndex *int   `json:"profileIndex"`
}

type ResolveProfileRequest struct {
	SchoolCode   string `json:"schoolCode"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	ProfileIndex *int   `json:"profileIndex"`
}

type ProfileDTO struct {
	Index  int    `json:"index"`
	Name   string `json:"name"`
	Class  string `json:"class"`
	School string `json:"school"`
}

type MultiProfileResponse struct {
	Success  bool         `json:"success"`
	Status   string       `json:"status"`
	Profiles []ProfileDTO `json:"profiles"`
}

type SessionResponse struct {
	Success         bool                  `json:"success"`
	Session         models.Session        `json:"session"`
	Student         models.Student        `json:"student"`
	Tasks           []models.Task         `json:"tasks"`
	Voti            []models.Grade        `json:"voti"`
	Promemoria      []models.Announcement `json:"promemoria"`
	SelectedProfile ProfileDTO            `json:"selectedProfile"`
	Profiles        []ProfileDTO          `json:"profiles,omitempty"`
}

type SyncTokens struct {
	AuthToken   string `json:"authToken"`
	AccessToken string `json:"accessToken"`
}

type SyncResponse struct {
	Success    bool                  `json:"success"`
	Tasks      []models.Task         `json:"tasks"`
	Voti       []models.Grade        `json:"voti"`
	Promemoria []models.Announcement `json:"promemoria"`
	NewTokens  SyncTokens            `json:"new_tokens"`
}

type ResolveProfileResponse struct {
	Success bool   `json:"success"`
	Name    string `json:"name"`
	Class   string `json:"class"`
}

// Login drives the whole pipeline: PKCE negotiation, profile
// enumeration, then — once a profile is selected — identity resolution
// and data extraction in parallel. With several linked students and no
// index supplied it halts and returns the list; the caller resubmits the
// same credentials with profileIndex, since nothing is retained
// server-side between the two calls.
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Payload non valido")
		return
	}
	school := strings.ToUpper(strings.TrimSpace(firstNonEmpty(req.SchoolCode, req.School)))
	username := strings.TrimSpace(req.Username)
	creds := models.Credential{SchoolCode: school, Username: username, Password: req.Password}
	if err := s.Validate.Struct(creds); err != nil {
		WriteError(w, http.StatusBadRequest, "Dati mancanti")
		return
	}

	ctx := r.Context()
	res, err := s.Argo.Negotiate(ctx, school, username, req.Password)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, authMessage(err))
		return
	}
	profiles := s.Argo.EnrichProfiles(ctx, school, res.AccessToken, res.Profiles)
	if len(profiles) == 0 {
		WriteError(w, http.StatusUnauthorized, "Nessun profilo studente collegato all'account")
		return
	}

	if len(profiles) > 1 && req.ProfileIndex == nil {
		WriteJSON(w, http.StatusOK, MultiProfileResponse{
			Success:  true,
			Status:   "MULTIPLE_PROFILES",
			Profiles: toProfileDTOs(profiles),
		})
		return
	}

	index := 0
	if req.ProfileIndex != nil {
		index = *req.ProfileIndex
	}
	if index < 0 || index >= len(profiles) {
		WriteError(w, http.StatusBadRequest, "Indice profilo non valido")
		return
	}
	selected := profiles[index]
	bundle := s.extractStudent(ctx, school, username, res, selected)

	storeKey := fmt.Sprintf("%s:%s:%d", school, strings.ToLower(username), index)
	if err := services.UpsertProfile(s.DB, models.StoredProfile{
		ID:         storeKey,
		Name:       bundle.Student.Name,
		Class:      bundle.Student.Class,
		School:     school,
		LastActive: time.Now().UTC(),
	}); err != nil {
		log.Printf("profile upsert ignored: %v", err)
	}

	session := models.Session{
		SchoolCode:   school,
		AuthToken:    selected.AuthToken,
		AccessToken:  res.AccessToken,
		UserName:     username,
		ProfileIndex: index,
	}
	if !res.TokenExpiresAt.IsZero() {
		session.TokenExpiresAt = res.TokenExpiresAt.Unix()
	}

	resp := SessionResponse{
		Success:    true,
		Session:    session,
		Student:    bundle.Student,
		Tasks:      bundle.Tasks,
		Voti:       bundle.Voti,
		Promemoria: bundle.Promemoria,
		SelectedProfile: ProfileDTO{
			Index:  index,
			Name:   bundle.Student.Name,
			Class:  bundle.Student.Class,
			School: selected.School,
		},
	}
	if len(profiles) > 1 {
		resp.Profiles = toProfileDTOs(profiles)
	}
	WriteJSON(w, http.StatusOK, resp)
}

// Sync re-runs the full pipeline with the stored (base64-obfuscated)
// credentials and the previously chosen index. Credential decode
// failures are rejected before any network call or store write.
func (s *Server) Sync(w http.ResponseWriter, r *http.Request) {
	var req SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusUnauthorized, "Credenziali sync mancanti")
		return
	}
	school := strings.ToUpper(strings.TrimSpace(req.SchoolCode))
	if school == "" || req.StoredUser == "" || req.StoredPass == "" {
		WriteError(w, http.StatusUnauthorized, "Credenziali sync mancanti")
		return
	}
	username, errUser := decodeStored(req.StoredUser)
	password, errPass := decodeStored(req.StoredPass)
	username = strings.TrimSpace(username)
	if errUser != nil || errPass != nil || username == "" || password == "" {
		WriteError(w, http.StatusUnauthorized, "Credenziali sync non valide")
		return
	}

	ctx := r.Context()
	res, err := s.Argo.Negotiate(ctx, school, username, password)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, authMessage(err))
		return
	}
	profiles := s.Argo.EnrichProfiles(ctx, school, res.AccessToken, res.Profiles)
	index := 0
	if req.ProfileIndex != nil {
		index = *req.ProfileIndex
	}
	if index < 0 || index >= len(profiles) {
		WriteError(w, http.StatusBadRequest, "Indice profilo non valido")
		return
	}
	selected := profiles[index]
	bundle := s.extractStudent(ctx, school, username, res, selected)

	WriteJSON(w, http.StatusOK, SyncResponse{
		Success:    true,
		Tasks:      bundle.Tasks,
		Voti:       bundle.Voti,
		Promemoria: bundle.Promemoria,
		NewTokens: SyncTokens{
			AuthToken:   selected.AuthToken,
			AccessToken: res.AccessToken,
		},
	})
}

// ResolveProfile is the identity-only probe: same negotiation, no data
// extraction, no store write.
func (s *Server) ResolveProfile(w http.ResponseWriter, r *http.Request) {
	var req ResolveProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Payload non valido")
		return
	}
	school := strings.ToUpper(strings.TrimSpace(req.SchoolCode))
	username := strings.TrimSpace(req.Username)
	creds := models.Credential{SchoolCode: school, Username: username, Password: req.Password}
	if err := s.Validate.Struct(creds); err != nil {
		WriteError(w, http.StatusBadRequest, "Dati mancanti")
		return
	}

	ctx := r.Context()
	res, err := s.Argo.Negotiate(ctx, school, username, req.Password)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, authMessage(err))
		return
	}
	profiles := s.Argo.EnrichProfiles(ctx, school, res.AccessToken, res.Profiles)
	index := 0
	if req.ProfileIndex != nil {
		index = *req.ProfileIndex
	}
	if index < 0 || index >= len(profiles) {
		WriteError(w, http.StatusBadRequest, "Indice profilo non valido")
		return
	}
	selected := profiles[index]
	ident := s.Argo.ResolveIdentity(ctx, resolveInput(school, username, res, selected))

	name := ident.Name
	if name == "" {
		name = selected.Name
	}
	class := ident.Class
	if class == "" {
		class = selected.Class
	}
	WriteJSON(w, http.StatusOK, ResolveProfileResponse{Success: true, Name: name, Class: class})
}

type studentBundle struct {
	Student    models.Student
	Tasks      []models.Task
	Voti       []models.Grade
	Promemoria []models.Announcement
}

// extractStudent resolves identity and fetches grades, homework and
// announcements for one selected profile. The four calls hit independent
// endpoints with no ordering dependency, so they fan out concurrently.
// None of them can fail the login: misses degrade to placeholders or
// empty lists.
func (s *Server) extractStudent(ctx context.Context, school, username string, res *argo.LoginResult, selected models.Profile) studentBundle {
	headers := s.Argo.Headers(school, res.AccessToken, selected.AuthToken)

	var (
		ident      argo.Identity
		tasks      []models.Task
		voti       []models.Grade
		promemoria []models.Announcement
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ident = s.Argo.ResolveIdentity(gctx, resolveInput(school, username, res, selected))
		return nil
	})
	g.Go(func() error {
		voti = s.Argo.Grades(gctx, headers)
		return nil
	})
	g.Go(func() error {
		tasks = s.Argo.Tasks(gctx, headers)
		return nil
	})
	g.Go(func() error {
		promemoria = s.Argo.Announcements(gctx, headers)
		return nil
	})
	_ = g.Wait()

	name := ident.Name
	if name == "" {
		name = selected.Name
	}
	class := ident.Class
	if class == "" {
		class = selected.Class
	}
	return studentBundle{
		Student:    models.Student{Name: name, Class: class, School: selected.School},
		Tasks:      tasks,
		Voti:       voti,
		Promemoria: promemoria,
	}
}

func resolveInput(school, username string, res *argo.LoginResult, selected models.Profile) argo.ResolveInput {
	hintName := selected.Name
	if strings.HasPrefix(hintName, "STUDENTE ") {
		// Enumeration placeholder, not a real hint.
		hintName = ""
	}
	hintClass := selected.Class
	if hintClass == "N/D" {
		hintClass = ""
	}
	return argo.ResolveInput{
		School:       school,
		Username:     username,
		AccessToken:  res.AccessToken,
		ProfileToken: selected.AuthToken,
		HintName:     hintName,
		HintClass:    hintClass,
		Jar:          res.Jar,
	}
}

func toProfileDTOs(profiles []models.Profile) []ProfileDTO {
	items := make([]ProfileDTO, 0, len(profiles))
	for _, p := range profiles {
		items = append(items, ProfileDTO{
			Index:  p.Index,
			Name:   p.Name,
			Class:  p.Class,
			School: p.School,
		})
	}
	return items
}

// authMessage passes the provider diagnostic through, except when it
// contains a raw 401 token: that shape means bad credentials and the
// upstream wording is useless to the user.
func authMessage(err error) string {
	var authErr *argo.AuthError
	message := err.Error()
	if errors.As(err, &authErr) && authErr.Message != "" {
		message = authErr.Message
	}
	if message == "" {
		return "Errore sconosciuto"
	}
	if strings.Contains(message, "401") {
		return "Credenziali non valide"
	}
	return message
}

// decodeStored reverses the client-side obfuscation: base64 over a
// percent-encoded UTF-8 string. This is obfuscation, not encryption.
// The decoded value is returned untouched: passwords may legitimately
// carry leading or trailing whitespace.
func decodeStored(encoded string) (string, error) {
	raw, err := base64.StdEncoding.Strict().DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return "", err
	}
	decoded, err := url.PathUnescape(string(raw))
	if err != nil {
		return "", err
	}
	return decoded, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
