package contract

import "context"

// Planner never fails outward; a strategy error yields the fallback plan.
type Planner interface {
	BreakDown(ctx context.Context, goal string) []Step
}

type LeadSearcher interface {
	Search(ctx context.Context, query string) ([]Lead, error)
}

type EmailWriter interface {
	WriteEmails(ctx context.Context, leads []Lead, tone string) ([]Email, error)
}

type EmailSender interface {
	SendEmails(ctx context.Context, emails []Email) ([]SendResult, error)
}

type Toolset interface {
	LeadSearcher
	EmailWriter
	EmailSender
}

// Store is the append-only persistence contract used by the orchestrator.
// Reads are full scans in write order.
type Store interface {
	SaveStep(ctx context.Context, rec StepRecord) error
	SaveLeads(ctx context.Context, leads []Lead) error
	SaveEmail(ctx context.Context, email Email) error

	AllLeads(ctx context.Context) ([]Lead, error)
	AllEmails(ctx context.Context) ([]Email, error)
	AllSteps(ctx context.Context) ([]StepRecord, error)
}
