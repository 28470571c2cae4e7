package alerts

import (
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// subscriberBuffer bounds each stream subscriber's channel. Slow consumers
// drop alerts from the stream; the DB copy is authoritative.
const subscriberBuffer = 16

// AnalysisInput carries the pieces of an analysis run that the
// categorization rules look at.
type AnalysisInput struct {
	Crop           string
	UrgentAlerts   []string
	PriceTrend     string
	WeatherSummary string
	Recommendation string
}

// severeWeatherWords trigger a warning when present in a weather summary.
var severeWeatherWords = []string{"rain", "storm", "flood", "drought", "cyclone"}

// Categorize turns an analysis run into alert drafts. Urgent advisory lines
// become critical; a falling price trend and severe weather become warnings;
// the recommendation itself is informational.
func Categorize(in AnalysisInput) []NewAlert {
	var out []NewAlert

	for _, urgent := range in.UrgentAlerts {
		if strings.TrimSpace(urgent) == "" {
			continue
		}
		out = append(out, NewAlert{Message: urgent, Severity: SeverityCritical})
	}

	if strings.EqualFold(in.PriceTrend, "DOWN") {
		out = append(out, NewAlert{
			Message:  fmt.Sprintf("Price trend for %s is falling. Consider selling sooner rather than later.", in.Crop),
			Severity: SeverityWarning,
		})
	}

	if word := severeWeatherWord(in.WeatherSummary); word != "" {
		out = append(out, NewAlert{
			Message:  fmt.Sprintf("Weather advisory for %s: %s expected in your area.", in.Crop, word),
			Severity: SeverityWarning,
		})
	}

	if strings.TrimSpace(in.Recommendation) != "" {
		out = append(out, NewAlert{Message: in.Recommendation, Severity: SeverityInfo})
	}

	return out
}

func severeWeatherWord(summary string) string {
	lower := strings.ToLower(summary)
	for _, word := range severeWeatherWords {
		if strings.Contains(lower, word) {
			return word
		}
	}
	return ""
}

// Service persists alerts and fans new ones out to stream subscribers.
type Service struct {
	repo *Repository
	log  zerolog.Logger

	mu   sync.RWMutex
	subs map[int64]map[chan Alert]struct{}
}

// NewService creates the alerts service.
func NewService(repo *Repository, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With().Str("service", "alerts").Logger(),
		subs: make(map[int64]map[chan Alert]struct{}),
	}
}

// Create stores one alert and pushes it to the user's live streams.
func (s *Service) Create(userID int64, message, severity string) (*Alert, error) {
	switch severity {
	case SeverityInfo, SeverityWarning, SeverityCritical:
	default:
		severity = SeverityInfo
	}

	alert, err := s.repo.Insert(userID, message, severity)
	if err != nil {
		return nil, err
	}
	s.broadcast(*alert)
	return alert, nil
}

// CreateBatch stores a set of drafts for a user and returns the stored rows.
func (s *Service) CreateBatch(userID int64, drafts []NewAlert) ([]Alert, error) {
	stored := make([]Alert, 0, len(drafts))
	for _, d := range drafts {
		alert, err := s.Create(userID, d.Message, d.Severity)
		if err != nil {
			return stored, err
		}
		stored = append(stored, *alert)
	}
	return stored, nil
}

// List returns a user's alerts.
func (s *Service) List(userID int64, unseenOnly bool) ([]Alert, error) {
	return s.repo.List(userID, unseenOnly)
}

// MarkSeen acknowledges one alert.
func (s *Service) MarkSeen(id, userID int64) (bool, error) {
	return s.repo.MarkSeen(id, userID)
}

// MarkAllSeen acknowledges all of a user's alerts.
func (s *Service) MarkAllSeen(userID int64) (int64, error) {
	return s.repo.MarkAllSeen(userID)
}

// Subscribe registers a live stream for a user. The returned cancel func
// must be called when the stream closes.
func (s *Service) Subscribe(userID int64) (<-chan Alert, func()) {
	ch := make(chan Alert, subscriberBuffer)

	s.mu.Lock()
	if s.subs[userID] == nil {
		s.subs[userID] = make(map[chan Alert]struct{})
	}
	s.subs[userID][ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if set, ok := s.subs[userID]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(s.subs, userID)
			}
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Service) broadcast(alert Alert) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for ch := range s.subs[alert.UserID] {
		select {
		case ch <- alert:
		default:
			// Subscriber is not keeping up; it still has the DB copy.
		}
	}
}
