package tool

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/agent-sender/agent/contract"
)

const (
	DefaultSearchLimit = 5
	SourceMockData     = "mock_data"
)

var mockLeads = []contractx.Lead{
	{
		Name:               "Sarah Chen",
		Company:            "AI Vision Labs",
		Role:               "CEO & Co-founder",
		Email:              "sarah@aivisionlabs.com",
		CompanyDescription: "Building computer vision solutions for healthcare diagnostics",
	},
	{
		Name:               "Michael Rodriguez",
		Company:            "NLP Innovations",
		Role:               "Founder & CTO",
		Email:              "michael@nlpinnovations.com",
		CompanyDescription: "Developing advanced natural language processing tools for enterprise",
	},
	{
		Name:               "Emma Thompson",
		Company:            "RoboLearn",
		Role:               "CEO",
		Email:              "emma@robolearn.ai",
		CompanyDescription: "Creating AI-powered educational robots for children",
	},
}

// MockSearcher serves leads from a fixed in-memory data set. The query is
// logged but does not filter results.
type MockSearcher struct {
	Leads []contractx.Lead
	Limit int
	Now   func() time.Time
}

func NewMockSearcher(limit int) *MockSearcher {
	return &MockSearcher{Leads: mockLeads, Limit: limit, Now: time.Now}
}

func (s *MockSearcher) Search(ctx context.Context, query string) ([]contractx.Lead, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	limit := s.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	limit = min(limit, len(s.Leads))

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	foundAt := now().UTC()

	leads := make([]contractx.Lead, 0, limit)
	for _, lead := range s.Leads[:limit] {
		lead.FoundAt = foundAt
		lead.Source = SourceMockData
		leads = append(leads, lead)
	}

	log.Debug().Str("query", query).Int("leads", len(leads)).Msg("mock search")
	return leads, nil
}
