package api

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"
	"github.com/tripleh1701-dev/ppp-fe-sub014/apperrors"
	"github.com/tripleh1701-dev/ppp-fe-sub014/config"
	"github.com/tripleh1701-dev/ppp-fe-sub014/database"
	"github.com/tripleh1701-dev/ppp-fe-sub014/logger"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

const (
	providerGitHub    = "github"
	githubAccountURL  = "https://api.github.com/user"
	stateTokenLength  = 24
	accountLookupTime = 10 * time.Second
)

type oauthState struct {
	sessionID string
	expires   time.Time
}

// StateStore issues the single use state tokens of the OAuth round trip.
// A token is valid only for the session it was issued to and only until
// it expires or is presented once.
type StateStore struct {
	mu     sync.Mutex
	states map[string]oauthState
	ttl    time.Duration
}

// NewStateStore returns an empty store whose tokens live for ttl.
func NewStateStore(ttl time.Duration) *StateStore {
	return &StateStore{states: make(map[string]oauthState), ttl: ttl}
}

// Issue returns a new token bound to sessionID.
func (st *StateStore) Issue(sessionID string) string {
	token := generateSecureToken(stateTokenLength)
	st.mu.Lock()
	st.states[token] = oauthState{sessionID: sessionID, expires: time.Now().Add(st.ttl)}
	st.mu.Unlock()
	return token
}

// Consume invalidates token and reports whether it was issued to
// sessionID and had not expired.
func (st *StateStore) Consume(token, sessionID string) bool {
	st.mu.Lock()
	state, ok := st.states[token]
	delete(st.states, token)
	st.mu.Unlock()
	return ok && tokenEqual(state.sessionID, sessionID) && time.Now().Before(state.expires)
}

// DropSession removes the tokens of sessionID.
func (st *StateStore) DropSession(sessionID string) {
	st.mu.Lock()
	for token, state := range st.states {
		if state.sessionID == sessionID {
			delete(st.states, token)
		}
	}
	st.mu.Unlock()
}

// Purge removes expired tokens.
func (st *StateStore) Purge() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	now := time.Now()
	removed := 0
	for token, state := range st.states {
		if !now.Before(state.expires) {
			delete(st.states, token)
			removed++
		}
	}
	return removed
}

func newOAuthConfig(cfg config.OAuthConfig) *oauth2.Config {
	if !cfg.Enabled() {
		return nil
	}
	endpoint := github.Endpoint
	if cfg.AuthURL != "" {
		endpoint.AuthURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       cfg.Scopes,
		Endpoint:     endpoint,
	}
}

func (s *Server) oauthContext(ctx context.Context) context.Context {
	if s.httpClient != nil {
		return context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	}
	return ctx
}

// handleOAuthStart redirects to the provider with a fresh state token.
func (s *Server) handleOAuthStart(c *gin.Context) {
	if s.oauth == nil {
		sendNotFound(c, "oauth linking is not configured")
		return
	}
	state := s.states.Issue(currentSession(c).ID)
	c.Redirect(http.StatusFound, s.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline))
}

// handleOAuthCallback validates the state token, exchanges the code and
// stores the credential.
func (s *Server) handleOAuthCallback(c *gin.Context) {
	if s.oauth == nil {
		sendNotFound(c, "oauth linking is not configured")
		return
	}
	session := currentSession(c)
	if !s.states.Consume(c.Query("state"), session.ID) {
		logger.Logtype(logger.StrWarn, 0).Str(logger.StrUser, session.UserID).Msg("oauth state rejected")
		sendForbidden(c, "invalid or expired oauth state")
		return
	}
	if msg := c.Query("error"); msg != "" {
		if desc := c.Query("error_description"); desc != "" {
			msg += ": " + desc
		}
		sendBadRequest(c, msg)
		return
	}
	code := c.Query("code")
	if code == "" {
		sendBadRequest(c, "missing authorization code")
		return
	}

	ctx := s.oauthContext(c.Request.Context())
	tok, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		handleError(c, apperrors.WrapWithMessageFor(apperrors.ErrClassAuth, "oauth_exchange", "code exchange failed", providerGitHub, err))
		return
	}

	account, err := s.lookupAccount(ctx, tok)
	if err != nil {
		logger.LogDynamicanyErr(logger.StrWarn, "oauth account lookup failed", err)
	}

	stored := database.OAuthToken{
		UserID:       session.UserID,
		Provider:     providerGitHub,
		Account:      account,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.Type(),
		Scopes:       scopesOf(tok, s.oauth.Scopes),
	}
	if !tok.Expiry.IsZero() {
		expiry := tok.Expiry.UTC()
		stored.ExpiresAt = &expiry
	}
	if _, err := s.db.SaveOAuthToken(c.Request.Context(), stored); err != nil {
		handleError(c, err)
		return
	}
	logger.LogDynamicany(logger.StrInfo, "oauth credential linked", logger.StrUser, session.UserID, "provider", providerGitHub, "account", account)
	c.Redirect(http.StatusFound, consolePath("integrations")+"?linked="+providerGitHub)
}

func scopesOf(tok *oauth2.Token, requested []string) string {
	if granted, ok := tok.Extra("scope").(string); ok && granted != "" {
		return granted
	}
	return strings.Join(requested, ",")
}

// lookupAccount returns the login of the token owner.
func (s *Server) lookupAccount(ctx context.Context, tok *oauth2.Token) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, accountLookupTime)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.accountURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	resp, err := s.oauth.Client(ctx, tok).Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", apperrors.New(apperrors.ErrClassAuth, "oauth_account", "unexpected status").WithContext("status", resp.StatusCode)
	}
	var user struct {
		Login string `json:"login"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return "", err
	}
	return user.Login, nil
}

// listOAuthTokens answers GET /api/oauth-token.
func (s *Server) listOAuthTokens(c *gin.Context) {
	tokens, err := s.db.OAuthTokens(c.Request.Context(), currentSession(c).UserID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokens)
}

// deleteOAuthToken answers DELETE /api/oauth-token/:id.
func (s *Server) deleteOAuthToken(c *gin.Context) {
	if err := s.db.DeleteOAuthToken(c.Request.Context(), currentSession(c).UserID, c.Param(StrID)); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{StrID: c.Param(StrID)})
}
