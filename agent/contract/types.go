package contract

import (
	"time"
)

type AgentRole string

const (
	RolePlanner AgentRole = "planner"
	RoleWriter  AgentRole = "writer"
)

type ToolName string

const (
	ToolSearch     ToolName = "search"
	ToolSummarize  ToolName = "summarize"
	ToolWriteEmail ToolName = "write_email"
	ToolSendEmail  ToolName = "send_email"
)

type StepStatus string

const (
	StepPending    StepStatus = "pending"
	StepInProgress StepStatus = "in_progress"
	StepCompleted  StepStatus = "completed"
	StepFailed     StepStatus = "failed"
)

func (s StepStatus) IsTerminal() bool {
	return s == StepCompleted || s == StepFailed
}

// Step is one unit of work in a plan. Only the orchestrator writes
// Status, Result and Error.
type Step struct {
	ID          int         `json:"step_id"`
	Description string      `json:"description"`
	Tool        ToolName    `json:"tool"`
	Status      StepStatus  `json:"status"`
	Result      *StepResult `json:"result,omitempty"` // set iff completed
	Error       string      `json:"error,omitempty"`  // set iff failed
	CreatedAt   time.Time   `json:"created_at"`
}

// StepResult carries exactly one payload: the output of the tool that ran,
// or the failure message.
type StepResult struct {
	Leads       []Lead       `json:"leads,omitempty"`
	Emails      []Email      `json:"emails,omitempty"`
	SendResults []SendResult `json:"send_results,omitempty"`
	Error       string       `json:"error,omitempty"`
}

func (r StepResult) Failed() bool {
	return r.Error != ""
}

type Lead struct {
	Name               string    `json:"name"`
	Company            string    `json:"company"`
	Role               string    `json:"role"`
	Email              string    `json:"email"`
	CompanyDescription string    `json:"company_description,omitempty"`
	FoundAt            time.Time `json:"found_at"`
	Source             string    `json:"source"`
}

type Email struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Lead    Lead   `json:"lead"`
}

type SendStatus string

const (
	SendSent   SendStatus = "sent"
	SendFailed SendStatus = "failed"
)

type SendResult struct {
	To     string     `json:"to"`
	Status SendStatus `json:"status"`
	Error  string     `json:"error,omitempty"`
}

type RecordKind string

const (
	RecordGoalSet    RecordKind = "goal_set"
	RecordStep       RecordKind = "step"
	RecordSendResult RecordKind = "email_send_result"
)

// StepRecord is the audit entry written through Store.SaveStep.
// RecordedAt is assigned by the store at write time.
type StepRecord struct {
	Kind       RecordKind  `json:"kind"`
	RunID      string      `json:"run_id,omitempty"`
	Goal       string      `json:"goal,omitempty"`
	Tone       string      `json:"tone,omitempty"`
	Plan       []Step      `json:"plan,omitempty"`
	Step       *Step       `json:"step,omitempty"`
	SendResult *SendResult `json:"send_result,omitempty"`
	RecordedAt time.Time   `json:"recorded_at"`
}

type RunState string

const (
	RunNoGoal  RunState = "no_goal"
	RunPlanned RunState = "planned"
	RunRunning RunState = "running"
	RunDone    RunState = "done"
)

type Progress struct {
	RunID          string   `json:"run_id,omitempty"`
	Goal           string   `json:"goal,omitempty"`
	State          RunState `json:"state"`
	TotalSteps     int      `json:"total_steps"`
	CompletedSteps int      `json:"completed_steps"`
	FailedSteps    int      `json:"failed_steps"`
	PendingSteps   int      `json:"pending_steps"`
	Percentage     float64  `json:"progress_percentage"`
}
