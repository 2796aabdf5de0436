// Package flash carries one-shot status messages across a redirect in a
// signed cookie.
package flash

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	LevelSuccess = "success"
	LevelInfo    = "info"
	LevelWarning = "warning"
	LevelError   = "error"
)

const (
	cookieName = "flash"
	pendingKey = "flash_pending"
	maxAge     = 5 * time.Minute
)

type Message struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}

// CSSClass maps the level onto the alert class used by the templates.
func (m Message) CSSClass() string {
	if m.Level == LevelError {
		return "danger"
	}
	return m.Level
}

type claims struct {
	Messages []Message `json:"messages"`
	jwt.RegisteredClaims
}

type Store struct {
	secret []byte
	secure bool
}

func NewStore(secret string, secure bool) *Store {
	return &Store{secret: []byte(secret), secure: secure}
}

// Add queues a message for the next rendered page, which is either a page
// rendered later in this request or the target of a redirect.
func (s *Store) Add(c *gin.Context, level, text string) {
	pending := append(s.pending(c), Message{Level: level, Text: text})
	c.Set(pendingKey, pending)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Messages: pending,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(maxAge)),
		},
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return
	}
	s.setCookie(c, signed, int(maxAge.Seconds()))
}

func (s *Store) Success(c *gin.Context, text string) { s.Add(c, LevelSuccess, text) }
func (s *Store) Info(c *gin.Context, text string)    { s.Add(c, LevelInfo, text) }
func (s *Store) Warning(c *gin.Context, text string) { s.Add(c, LevelWarning, text) }
func (s *Store) Error(c *gin.Context, text string)   { s.Add(c, LevelError, text) }

// Pop returns the messages carried by the request cookie followed by those
// queued during this request, and clears both.
func (s *Store) Pop(c *gin.Context) []Message {
	messages := s.pending(c)
	if len(messages) > 0 {
		c.Set(pendingKey, []Message(nil))
		s.setCookie(c, "", -1)
	}
	return messages
}

// pending returns the messages not yet shown. The first call in a request
// loads the ones carried by the incoming cookie, so a page that redirects
// again passes them on.
func (s *Store) pending(c *gin.Context) []Message {
	if v, exists := c.Get(pendingKey); exists {
		messages, _ := v.([]Message)
		return messages
	}

	var messages []Message
	if raw, err := c.Cookie(cookieName); err == nil && raw != "" {
		messages = s.decode(raw)
		if len(messages) == 0 {
			s.setCookie(c, "", -1)
		}
	}
	c.Set(pendingKey, messages)
	return messages
}

func (s *Store) decode(raw string) []Message {
	parsed := &claims{}
	_, err := jwt.ParseWithClaims(raw, parsed, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil
	}
	return parsed.Messages
}

func (s *Store) setCookie(c *gin.Context, value string, age int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cookieName, value, age, "/", "", s.secure, true)
}
