package api

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tripleh1701-dev/ppp-fe-sub014/logger"
	"maragu.dev/gomponents"
	"maragu.dev/gomponents/html"
)

const (
	CSRFTokenLength = 16
	SessionIDLength = 32
)

// Session is a logged in browser. It also carries the table screens the
// user has open.
type Session struct {
	ID        string
	UserID    string
	CSRFToken string
	CreatedAt time.Time
	ExpiresAt time.Time

	mu      sync.Mutex
	screens map[string]*screen
}

// SessionStore holds active sessions in memory.
type SessionStore struct {
	mutex    sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
}

// NewSessionStore returns an empty store whose sessions live for ttl.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{sessions: make(map[string]*Session), ttl: ttl}
}

// generateSecureToken creates a random hex token of length bytes.
func generateSecureToken(length int) string {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		panic(err)
	}
	return hex.EncodeToString(bytes)
}

// Create starts a session for userID.
func (ss *SessionStore) Create(userID string) *Session {
	now := time.Now()
	session := &Session{
		ID:        generateSecureToken(SessionIDLength),
		UserID:    userID,
		CSRFToken: generateSecureToken(CSRFTokenLength),
		CreatedAt: now,
		ExpiresAt: now.Add(ss.ttl),
		screens:   make(map[string]*screen),
	}

	ss.mutex.Lock()
	ss.sessions[session.ID] = session
	ss.mutex.Unlock()
	return session
}

// Get returns the unexpired session id.
func (ss *SessionStore) Get(id string) (*Session, bool) {
	ss.mutex.RLock()
	session, exists := ss.sessions[id]
	ss.mutex.RUnlock()
	if !exists {
		return nil, false
	}
	if time.Now().After(session.ExpiresAt) {
		ss.Delete(id)
		return nil, false
	}
	return session, true
}

// Delete ends session id.
func (ss *SessionStore) Delete(id string) {
	ss.mutex.Lock()
	delete(ss.sessions, id)
	ss.mutex.Unlock()
}

// Purge removes expired sessions.
func (ss *SessionStore) Purge() int {
	ss.mutex.Lock()
	defer ss.mutex.Unlock()

	now := time.Now()
	removed := 0
	for id, session := range ss.sessions {
		if now.After(session.ExpiresAt) {
			delete(ss.sessions, id)
			removed++
		}
	}
	return removed
}

// Len counts the stored sessions.
func (ss *SessionStore) Len() int {
	ss.mutex.RLock()
	defer ss.mutex.RUnlock()
	return len(ss.sessions)
}

func tokenEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// authenticateUser checks the credentials against the configured admin.
func (s *Server) authenticateUser(username, password string) bool {
	cfg := s.cfg.Server
	return username != "" && tokenEqual(username, cfg.AdminUser) && tokenEqual(password, cfg.AdminPassword)
}

func currentSession(c *gin.Context) *Session {
	if v, ok := c.Get(StrSession); ok {
		return v.(*Session)
	}
	return nil
}

// requireAuth checks for a valid session cookie.
func (s *Server) requireAuth(c *gin.Context) {
	id, err := c.Cookie(sessionCookie)
	if err != nil {
		s.redirectToLogin(c)
		return
	}
	session, exists := s.sessions.Get(id)
	if !exists {
		s.redirectToLogin(c)
		return
	}

	c.Set(StrSession, session)
	c.Set(logger.StrUser, session.UserID)
	c.Set(StrCSRF, session.CSRFToken)
	c.Next()
}

// requireCSRF checks the CSRF token of state changing requests.
func (s *Server) requireCSRF(c *gin.Context) {
	if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead || c.Request.Method == http.MethodOptions {
		c.Next()
		return
	}
	session := currentSession(c)
	if session == nil {
		sendUnauthorized(c, "No session found")
		return
	}

	token := c.GetHeader(csrfHeader)
	if token == "" {
		token = c.PostForm(StrCSRF)
	}
	if !tokenEqual(token, session.CSRFToken) {
		logger.Logtype(logger.StrWarn, 0).Str(logger.StrUser, session.UserID).Str(logger.StrPath, c.Request.URL.Path).Msg("csrf token mismatch")
		sendForbidden(c, "Invalid CSRF token")
		return
	}
	c.Next()
}

// redirectToLogin answers JSON endpoints with 401 and pages with a redirect.
func (s *Server) redirectToLogin(c *gin.Context) {
	c.SetCookie(sessionCookie, "", -1, "/", "", s.cfg.Server.SecureCookies, true)

	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		sendUnauthorized(c, "Authentication required")
		return
	}
	if isHTMX(c) {
		c.Header("HX-Redirect", "/login")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	c.Redirect(http.StatusFound, "/login")
	c.Abort()
}

func (s *Server) loginPage(c *gin.Context) {
	if id, err := c.Cookie(sessionCookie); err == nil {
		if _, exists := s.sessions.Get(id); exists {
			c.Redirect(http.StatusFound, consolePath(defaultScreen))
			return
		}
	}

	errorMsg := c.Query("error")
	renderHTML(c, http.StatusOK, page("Sign in", nil,
		html.Div(
			html.Class("container py-5"),
			html.Style("max-width: 420px"),
			html.H1(html.Class("h4 mb-4"), gomponents.Text("CI/CD Console")),
			gomponents.If(errorMsg != "", html.Div(html.Class("alert alert-danger"), gomponents.Text(errorMsg))),
			html.Form(
				html.Method("post"),
				html.Action("/login"),
				html.Div(html.Class("mb-3"),
					html.Label(html.For("username"), html.Class("form-label"), gomponents.Text("Username")),
					html.Input(html.ID("username"), html.Name("username"), html.Class("form-control"), html.Required(), html.AutoFocus()),
				),
				html.Div(html.Class("mb-3"),
					html.Label(html.For("password"), html.Class("form-label"), gomponents.Text("Password")),
					html.Input(html.ID("password"), html.Name("password"), html.Type("password"), html.Class("form-control"), html.Required()),
				),
				html.Button(html.Type("submit"), html.Class("btn btn-primary w-100"), gomponents.Text("Sign in")),
			),
		),
	))
}

// handleLogin processes the login form.
func (s *Server) handleLogin(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))
	if !s.authenticateUser(username, c.PostForm("password")) {
		logger.Logtype(logger.StrWarn, 0).Str(logger.StrUser, username).Str("client_ip", c.ClientIP()).Msg("login failed")
		c.Redirect(http.StatusFound, "/login?error=Invalid+credentials")
		return
	}

	session := s.sessions.Create(username)
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, session.ID, int(s.cfg.Server.SessionTTL.Seconds()), "/", "", s.cfg.Server.SecureCookies, true)
	logger.LogDynamicany(logger.StrInfo, "login", logger.StrUser, username)
	c.Redirect(http.StatusFound, consolePath(defaultScreen))
}

// handleLogout ends the session.
func (s *Server) handleLogout(c *gin.Context) {
	if id, err := c.Cookie(sessionCookie); err == nil {
		if session, ok := s.sessions.Get(id); ok {
			s.states.DropSession(session.ID)
		}
		s.sessions.Delete(id)
	}
	c.SetCookie(sessionCookie, "", -1, "/", "", s.cfg.Server.SecureCookies, true)
	c.Redirect(http.StatusFound, "/login")
}

func (s *Server) handleRootRedirect(c *gin.Context) {
	if id, err := c.Cookie(sessionCookie); err == nil {
		if _, exists := s.sessions.Get(id); exists {
			c.Redirect(http.StatusFound, consolePath(defaultScreen))
			return
		}
	}
	c.Redirect(http.StatusFound, "/login")
}
