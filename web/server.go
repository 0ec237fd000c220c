// Package web is the HTTP front end: OAuth login, form management endpoints,
// a response analytics summary, and the agent chat endpoint. Handlers consume
// the tool wrappers' uniform result records and return them as JSON.
package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/formflow/go-formflow/agent"
	"github.com/formflow/go-formflow/tool"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const sessionCookie = "formflow_session"

// OAuthConfig identifies the Google OAuth client used by the login flow.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// Server owns the HTTP surface. Each browser session maps to one
// tool.Session, so the current-form shortcut and result cache follow the
// user across requests.
type Server struct {
	tools  *tool.Toolset
	runner *agent.Runner
	oauth  *oauth2.Config
	logger *zap.Logger

	mu       sync.Mutex
	sessions map[string]*tool.Session
}

type ServerOption func(*Server)

func WithLogger(logger *zap.Logger) ServerOption {
	return func(s *Server) { s.logger = logger }
}

func NewServer(tools *tool.Toolset, runner *agent.Runner, oauthCfg OAuthConfig, opts ...ServerOption) *Server {
	s := &Server{
		tools:  tools,
		runner: runner,
		logger: zap.NewNop(),
		oauth: &oauth2.Config{
			ClientID:     oauthCfg.ClientID,
			ClientSecret: oauthCfg.ClientSecret,
			RedirectURL:  oauthCfg.RedirectURI,
			Scopes: []string{
				"https://www.googleapis.com/auth/forms.body",
				"https://www.googleapis.com/auth/drive",
			},
			Endpoint: google.Endpoint,
		},
		sessions: map[string]*tool.Session{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLog())

	r.GET("/auth/login", s.login)
	r.GET("/auth/callback", s.callback)

	api := r.Group("/api")
	api.Use(s.withSession())
	{
		api.GET("/forms", s.listForms)
		api.POST("/forms", s.createForm)
		api.GET("/forms/:id", s.getForm)
		api.DELETE("/forms/:id", s.deleteForm)
		api.GET("/forms/:id/responses", s.getResponses)
		api.GET("/forms/:id/analytics", s.getAnalytics)
		api.POST("/agent/chat", s.chat)
	}
	return r
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

// withSession attaches the tool.Session matching the browser cookie,
// creating both when absent.
func (s *Server) withSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(sessionCookie)
		if err != nil || id == "" {
			id = uuid.NewString()
			c.SetCookie(sessionCookie, id, int((24 * time.Hour).Seconds()), "/", "", false, true)
		}
		c.Set("session", s.session(id))
		c.Next()
	}
}

func (s *Server) session(id string) *tool.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		sess = tool.NewSession()
		sess.ID = id
		s.sessions[id] = sess
	}
	return sess
}

func sessionFrom(c *gin.Context) *tool.Session {
	if v, ok := c.Get("session"); ok {
		if sess, ok := v.(*tool.Session); ok {
			return sess
		}
	}
	return nil
}

// login starts the OAuth flow. The state value doubles as CSRF protection
// and is checked on callback.
func (s *Server) login(c *gin.Context) {
	state := uuid.NewString()
	c.SetCookie("oauth_state", state, int((10 * time.Minute).Seconds()), "/", "", false, true)
	c.Redirect(http.StatusFound, s.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline))
}

func (s *Server) callback(c *gin.Context) {
	state, err := c.Cookie("oauth_state")
	if err != nil || state == "" || c.Query("state") != state {
		c.JSON(http.StatusBadRequest, gin.H{"result": "error", "message": "state mismatch"})
		return
	}
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"result": "error", "message": "missing authorization code"})
		return
	}

	token, err := s.oauth.Exchange(c.Request.Context(), code)
	if err != nil {
		s.logger.Error("token exchange failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"result": "error", "message": "token exchange failed"})
		return
	}

	id := uuid.NewString()
	s.session(id)
	c.SetCookie(sessionCookie, id, int((24 * time.Hour).Seconds()), "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{
		"result":     "success",
		"expires_at": token.Expiry,
	})
}
