package handlers

import (
	"context"
	"time"

	"gator-forum/internal/api"
	"gator-forum/internal/database"
	"gator-forum/internal/engine"
	"gator-forum/internal/engine/actors"
	"gator-forum/internal/feed"
	"gator-forum/internal/middleware"
	"gator-forum/internal/models"
	"gator-forum/internal/reddit"
	"gator-forum/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Server holds all server dependencies, including the actor system and engine
type Server struct {
	System         *actor.ActorSystem
	Engine         *engine.Engine
	Metrics        *utils.MetricsCollector
	DB             database.DBAdapter
	Feeds          *feed.Composer
	Reddit         *reddit.Service
	Verifier       *middleware.IdentityVerifier
	Logger         *zap.Logger
	AllowedOrigins []string
	RequestTimeout time.Duration
	ExposeMetrics  bool
}

// NewServer creates a new Server instance with the given components
func NewServer(
	system *actor.ActorSystem,
	eng *engine.Engine,
	metrics *utils.MetricsCollector,
	db database.DBAdapter,
	feeds *feed.Composer,
	listings *reddit.Service,
	verifier *middleware.IdentityVerifier,
	logger *zap.Logger,
) *Server {
	return &Server{
		System:         system,
		Engine:         eng,
		Metrics:        metrics,
		DB:             db,
		Feeds:          feeds,
		Reddit:         listings,
		Verifier:       verifier,
		Logger:         logger,
		RequestTimeout: 5 * time.Second, // Default timeout for actor requests
		ExposeMetrics:  true,
	}
}

// ask sends msg to pid and writes the failure response when the request or
// the actor fails. It reports whether the caller should go on.
func (s *Server) ask(c *gin.Context, pid *actor.PID, msg interface{}) (interface{}, bool) {
	result, err := s.Engine.Request(pid, msg, s.RequestTimeout)
	if err != nil {
		api.Fail(c, err)
		return nil, false
	}
	return result, true
}

// ResolveUser maps a verified identity to the internal user through the user actor.
func (s *Server) ResolveUser(ctx context.Context, identity models.ExternalIdentity) (*models.User, error) {
	result, err := s.Engine.Request(s.Engine.GetUserActor(), &actors.ResolveIdentityMsg{Identity: identity}, s.RequestTimeout)
	if err != nil {
		return nil, err
	}
	user, ok := result.(*models.User)
	if !ok {
		return nil, utils.NewAppError(utils.ErrMessageRejected, "unexpected identity resolution reply", nil)
	}
	return user, nil
}

// viewerID is the authenticated user's id, or uuid.Nil for anonymous callers.
func viewerID(c *gin.Context) uuid.UUID {
	if user := middleware.CurrentUser(c); user != nil {
		return user.ID
	}
	return uuid.Nil
}

// pathID parses a uuid path parameter, writing a 400 when it is malformed.
func pathID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		api.BadRequest(c, "Invalid "+param+" format")
		return uuid.Nil, false
	}
	return id, true
}

// reply type-asserts an actor result, treating a mismatch as an internal error.
func reply[T any](c *gin.Context, result interface{}) (T, bool) {
	value, ok := result.(T)
	if !ok {
		api.Fail(c, utils.NewAppError(utils.ErrMessageRejected, "unexpected actor reply", nil))
	}
	return value, ok
}
