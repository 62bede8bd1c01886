package simulator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"gator-forum/internal/middleware"
	"gator-forum/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// SimConfig controls the size and pace of a simulation run. Frequencies are
// per user per hour.
type SimConfig struct {
	NumUsers         int
	NumSubreddits    int
	SimulationTime   time.Duration
	PostFrequency    float64
	CommentFrequency float64
	VoteFrequency    float64
	ZipfS            float64
	Workers          int
	EngineURL        string
	JWTSecret        string
	Issuer           string
}

func DefaultConfig() SimConfig {
	return SimConfig{
		NumUsers:         10,
		NumSubreddits:    5,
		SimulationTime:   10 * time.Minute,
		PostFrequency:    100,
		CommentFrequency: 60,
		VoteFrequency:    100,
		ZipfS:            1.07,
		Workers:          5,
		EngineURL:        "http://localhost:8080",
	}
}

// SimulatedUser is a user driven by the simulator through its own identity token.
type SimulatedUser struct {
	ID            uuid.UUID
	ExternalID    string
	Username      string
	Subscriptions []string
	token         string
}

type subredditRef struct {
	ID   uuid.UUID
	Name string
}

type commentRef struct {
	ID     uuid.UUID
	PostID uuid.UUID
}

type SimulationStats struct {
	mu             sync.Mutex
	StartTime      time.Time
	TotalRequests  int64
	FailedRequests int64
	TotalLatency   time.Duration
	TotalPosts     int
	TotalComments  int
	TotalVotes     int
	TotalJoins     int
	TotalFollows   int
	ErrorsByCode   map[string]int
}

// SimulationMetrics is a snapshot of the stats of a run.
type SimulationMetrics struct {
	TotalUsers        int
	TotalSubreddits   int
	TotalPosts        int
	TotalComments     int
	TotalVotes        int
	TotalJoins        int
	TotalFollows      int
	TotalRequests     int64
	FailedRequests    int64
	AverageLatency    time.Duration
	RequestsPerSecond float64
	ErrorsByCode      map[string]int
}

// APIError is a non-2xx response from the engine.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
}

// Simulator drives a running engine over its HTTP API.
type Simulator struct {
	config SimConfig
	logger *zap.Logger
	client *http.Client
	stats  *SimulationStats
	runID  string

	rngMu sync.Mutex
	rng   *rand.Rand

	mu         sync.RWMutex
	users      []*SimulatedUser
	subreddits []subredditRef
	posts      []uuid.UUID
	comments   []commentRef
}

func NewSimulator(config SimConfig, logger *zap.Logger) *Simulator {
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if config.ZipfS <= 1 {
		config.ZipfS = 1.07
	}
	return &Simulator{
		config: config,
		logger: logger,
		client: &http.Client{Timeout: 10 * time.Second},
		stats:  &SimulationStats{ErrorsByCode: make(map[string]int)},
		runID:  uuid.NewString()[:6],
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Run sets up users and communities, then generates activity until ctx ends.
// Reaching the deadline is the normal way a run finishes.
func (s *Simulator) Run(ctx context.Context) error {
	s.stats.mu.Lock()
	s.stats.StartTime = time.Now()
	s.stats.mu.Unlock()

	if err := s.initialize(ctx); err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.SimulateActivities(ctx) })
	g.Go(func() error {
		s.collectMetrics(ctx)
		return nil
	})
	return g.Wait()
}

func (s *Simulator) initialize(ctx context.Context) error {
	s.logger.Info("creating users", zap.Int("count", s.config.NumUsers))
	if err := s.createUsers(ctx); err != nil {
		return fmt.Errorf("failed to create users: %w", err)
	}

	s.logger.Info("creating subreddits", zap.Int("count", s.config.NumSubreddits))
	if err := s.createSubreddits(ctx); err != nil {
		return fmt.Errorf("failed to create subreddits: %w", err)
	}

	s.logger.Info("simulating subreddit memberships")
	if err := s.simulateSubredditJoins(ctx); err != nil {
		return fmt.Errorf("failed to simulate subreddit joins: %w", err)
	}

	s.simulateFollows(ctx)
	return nil
}

// createUsers signs an identity token per user and resolves it through
// /api/users/me, which provisions the local record on first sight.
func (s *Simulator) createUsers(ctx context.Context) error {
	users := make([]*SimulatedUser, s.config.NumUsers)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Workers)
	for i := range users {
		g.Go(func() error {
			identity := models.ExternalIdentity{
				ID:       fmt.Sprintf("sim_%s_%d", s.runID, i),
				Username: fmt.Sprintf("sim_user_%d", i),
				Email:    fmt.Sprintf("sim_user_%d@example.com", i),
			}
			token, err := middleware.IssueToken(s.config.JWTSecret, s.config.Issuer, identity, s.config.SimulationTime+time.Hour)
			if err != nil {
				return err
			}
			user := &SimulatedUser{ExternalID: identity.ID, token: token}

			var resolved models.User
			if err := s.call(ctx, user, http.MethodGet, "/api/users/me", nil, &resolved); err != nil {
				return fmt.Errorf("resolve %s: %w", identity.ID, err)
			}
			user.ID, user.Username = resolved.ID, resolved.Username
			users[i] = user
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	s.mu.Lock()
	s.users = users
	s.mu.Unlock()
	return nil
}

var themes = []string{
	"gaming", "tech", "science", "music", "movies",
	"books", "sports", "food", "travel", "art",
	"photography", "fitness", "programming", "news", "memes",
	"history", "nature", "pets", "fashion", "diy",
}

func (s *Simulator) createSubreddits(ctx context.Context) error {
	if len(s.users) == 0 {
		return errors.New("no users to create subreddits")
	}
	for i := 0; i < s.config.NumSubreddits; i++ {
		creator := s.users[i%len(s.users)]
		name := fmt.Sprintf("%s%d_%s", themes[i%len(themes)], i, s.runID)

		var created struct {
			ID   uuid.UUID `json:"id"`
			Name string    `json:"name"`
		}
		body := map[string]string{"action": "create", "name": name, "description": "Simulated " + themes[i%len(themes)] + " community"}
		if err := s.call(ctx, creator, http.MethodPost, "/api/subreddits", body, &created); err != nil {
			return fmt.Errorf("create %s: %w", name, err)
		}

		s.mu.Lock()
		s.subreddits = append(s.subreddits, subredditRef{ID: created.ID, Name: created.Name})
		creator.Subscriptions = append(creator.Subscriptions, created.Name)
		s.mu.Unlock()
	}
	return nil
}

// simulateSubredditJoins gives each user a Zipf-distributed number of
// memberships, favouring the lowest-ranked (most popular) communities.
func (s *Simulator) simulateSubredditJoins(ctx context.Context) error {
	if len(s.subreddits) == 0 {
		return nil
	}
	for _, user := range s.users {
		want := s.getZipfNumber(len(s.subreddits))
		joined := make(map[string]bool, len(user.Subscriptions))
		for _, name := range user.Subscriptions {
			joined[name] = true
		}

		for attempt := 0; len(joined) < want && attempt < 4*len(s.subreddits); attempt++ {
			sub := s.subreddits[s.getZipfNumber(len(s.subreddits))-1]
			if joined[sub.Name] {
				continue
			}
			if err := s.call(ctx, user, http.MethodPost, "/api/subreddits/"+sub.Name+"/join", nil, nil); err != nil {
				s.logger.Warn("join failed", zap.String("user", user.Username), zap.String("subreddit", sub.Name), zap.Error(err))
				continue
			}
			joined[sub.Name] = true

			s.mu.Lock()
			user.Subscriptions = append(user.Subscriptions, sub.Name)
			s.mu.Unlock()
			s.stats.mu.Lock()
			s.stats.TotalJoins++
			s.stats.mu.Unlock()
		}
	}
	return nil
}

// simulateFollows has every user follow one other user.
func (s *Simulator) simulateFollows(ctx context.Context) {
	n := len(s.users)
	if n < 2 {
		return
	}
	for i, user := range s.users {
		followee := s.users[(i+1+s.intn(n-1))%n]
		if err := s.call(ctx, user, http.MethodPost, "/api/users/"+followee.Username+"/follow", nil, nil); err != nil {
			s.logger.Warn("follow failed", zap.String("user", user.Username), zap.String("followee", followee.Username), zap.Error(err))
			continue
		}
		s.stats.mu.Lock()
		s.stats.TotalFollows++
		s.stats.mu.Unlock()
	}
}

// getZipfNumber returns a value in [1, max] skewed towards 1.
func (s *Simulator) getZipfNumber(max int) int {
	if max <= 1 {
		return 1
	}
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	zipf := rand.NewZipf(s.rng, s.config.ZipfS, 1, uint64(max-1))
	return int(zipf.Uint64()) + 1
}

func (s *Simulator) intn(n int) int {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Intn(n)
}

func (s *Simulator) chance(p float64) bool {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Float64() < p
}

// call sends one JSON request as user and decodes the envelope's data into out.
func (s *Simulator) call(ctx context.Context, user *SimulatedUser, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.config.EngineURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		req.Header.Set(middleware.AuthHeaderKey, middleware.BearerPrefix+user.token)
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		s.recordRequest(ctx, start, "TRANSPORT")
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		s.recordRequest(ctx, start, "DECODE")
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	if resp.StatusCode >= 300 || !env.Success {
		s.recordRequest(ctx, start, env.Code)
		return &APIError{Status: resp.StatusCode, Code: env.Code, Message: env.Error}
	}
	s.recordRequest(ctx, start, "")

	if out != nil && len(env.Data) > 0 {
		return json.Unmarshal(env.Data, out)
	}
	return nil
}

// recordRequest counts a finished request. Requests cut short by the end of
// the run are not counted.
func (s *Simulator) recordRequest(ctx context.Context, start time.Time, failureCode string) {
	if ctx.Err() != nil {
		return
	}
	s.stats.mu.Lock()
	defer s.stats.mu.Unlock()
	s.stats.TotalRequests++
	s.stats.TotalLatency += time.Since(start)
	if failureCode != "" {
		s.stats.FailedRequests++
		s.stats.ErrorsByCode[failureCode]++
	}
}

func (s *Simulator) collectMetrics(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m := s.GetMetrics()
			s.logger.Info("simulation progress",
				zap.Int64("requests", m.TotalRequests),
				zap.Int64("failed", m.FailedRequests),
				zap.Duration("avgLatency", m.AverageLatency),
				zap.Int("posts", m.TotalPosts),
				zap.Int("comments", m.TotalComments),
				zap.Int("votes", m.TotalVotes),
			)
		}
	}
}

func (s *Simulator) GetMetrics() SimulationMetrics {
	s.mu.RLock()
	users, subreddits := len(s.users), len(s.subreddits)
	s.mu.RUnlock()

	s.stats.mu.Lock()
	defer s.stats.mu.Unlock()
	m := SimulationMetrics{
		TotalUsers:      users,
		TotalSubreddits: subreddits,
		TotalPosts:      s.stats.TotalPosts,
		TotalComments:   s.stats.TotalComments,
		TotalVotes:      s.stats.TotalVotes,
		TotalJoins:      s.stats.TotalJoins,
		TotalFollows:    s.stats.TotalFollows,
		TotalRequests:   s.stats.TotalRequests,
		FailedRequests:  s.stats.FailedRequests,
		ErrorsByCode:    make(map[string]int, len(s.stats.ErrorsByCode)),
	}
	for code, n := range s.stats.ErrorsByCode {
		m.ErrorsByCode[code] = n
	}
	if s.stats.TotalRequests > 0 {
		m.AverageLatency = s.stats.TotalLatency / time.Duration(s.stats.TotalRequests)
	}
	if elapsed := time.Since(s.stats.StartTime).Seconds(); elapsed > 0 {
		m.RequestsPerSecond = float64(s.stats.TotalRequests) / elapsed
	}
	return m
}
