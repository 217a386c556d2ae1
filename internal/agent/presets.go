package agent

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tailfin-crm/tailfin/pkg/models"
)

const (
	// LegacyAgentID is the id of the built-in sales assistant whose
	// early installs shipped with a shorter workflow. There is no
	// schema version field in the agent record, so the upgrade keys
	// off this id plus the step count.
	LegacyAgentID = "sales-assistant"

	// LegacyMinSteps is the minimum workflow length of a current
	// sales assistant. Shorter workflows under the legacy id are
	// replaced with DefaultSalesWorkflow.
	LegacyMinSteps = 5
)

// DefaultSalesWorkflow returns the current 5-step sales assistant
// workflow, used both for new installs and as the legacy upgrade target.
func DefaultSalesWorkflow() []models.Step {
	return []models.Step{
		{ID: "fetch-emails", Kind: models.StepKindAction, Label: "Fetch new emails"},
		{ID: "analyze-emails", Kind: models.StepKindAction, Label: "Analyze emails for important messages"},
		{ID: "fetch-crm", Kind: models.StepKindAction, Label: "Fetch CRM data"},
		{ID: "generate-insights", Kind: models.StepKindAction, Label: "Analyze pipeline for insights and opportunities"},
		{ID: "notify", Kind: models.StepKindNotification, Label: "Notify me about urgent items"},
	}
}

// DefaultAgents returns the built-in agent presets seeded on init.
func DefaultAgents() []*models.Agent {
	now := time.Now()
	return []*models.Agent{
		{
			ID:          "inbox-manager",
			Name:        "Inbox Manager",
			Role:        "Email triage",
			Description: "Watches the inbox and flags messages that need attention.",
			Avatar:      "📧",
			Status:      models.AgentStatusActive,
			Category:    models.CategoryEmailManager,
			Workflow: []models.Step{
				{ID: "fetch", Kind: models.StepKindAction, Label: "Fetch new emails"},
				{ID: "analyze", Kind: models.StepKindAction, Label: "Analyze emails for important messages"},
				{ID: "notify", Kind: models.StepKindNotification, Label: "Notify me about urgent items"},
			},
			CreatedAt: now,
		},
		{
			ID:          "meeting-coordinator",
			Name:        "Meeting Coordinator",
			Role:        "Calendar management",
			Description: "Reviews upcoming meetings for conflicts and preparation needs.",
			Avatar:      "📅",
			Status:      models.AgentStatusActive,
			Category:    models.CategoryCalendarManager,
			Workflow: []models.Step{
				{ID: "fetch", Kind: models.StepKindAction, Label: "Fetch calendar events"},
				{ID: "analyze", Kind: models.StepKindAction, Label: "Check calendar for conflicts"},
				{ID: "notify", Kind: models.StepKindNotification, Label: "Alert me about schedule issues"},
			},
			CreatedAt: now,
		},
		{
			ID:          "pipeline-analyst",
			Name:        "Pipeline Analyst",
			Role:        "Deal analysis",
			Description: "Analyzes the sales pipeline for risks, opportunities, and forecasts.",
			Avatar:      "📊",
			Status:      models.AgentStatusActive,
			Category:    models.CategoryResearch,
			Workflow: []models.Step{
				{ID: "fetch-crm", Kind: models.StepKindAction, Label: "Fetch CRM data"},
				{ID: "insights", Kind: models.StepKindAction, Label: "Analyze pipeline for insights and trends"},
				{ID: "notify", Kind: models.StepKindNotification, Label: "Notify me about findings"},
			},
			CreatedAt: now,
		},
		{
			ID:          LegacyAgentID,
			Name:        "Sales Assistant",
			Role:        "Sales support",
			Description: "Combines email triage with pipeline insights for sales work.",
			Avatar:      "💼",
			Status:      models.AgentStatusActive,
			Category:    models.CategoryCustom,
			Workflow:    DefaultSalesWorkflow(),
			CreatedAt:   now,
		},
	}
}

// presetFile is the YAML shape of an agent preset file.
type presetFile struct {
	Agents []presetAgent `yaml:"agents"`
}

type presetAgent struct {
	ID          string       `yaml:"id"`
	Name        string       `yaml:"name"`
	Role        string       `yaml:"role"`
	Description string       `yaml:"description,omitempty"`
	Avatar      string       `yaml:"avatar,omitempty"`
	Status      string       `yaml:"status,omitempty"`
	Category    string       `yaml:"category,omitempty"`
	Workflow    []presetStep `yaml:"workflow"`
}

type presetStep struct {
	ID         string `yaml:"id,omitempty"`
	Kind       string `yaml:"kind,omitempty"`
	Label      string `yaml:"label"`
	Action     string `yaml:"action,omitempty"`
	MaxResults int    `yaml:"max_results,omitempty"`
}

// LoadPresets reads agent presets from a YAML file.
func LoadPresets(path string) ([]*models.Agent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read presets: %w", err)
	}

	var file presetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse presets: %w", err)
	}

	now := time.Now()
	agents := make([]*models.Agent, 0, len(file.Agents))
	for idx, p := range file.Agents {
		if p.Name == "" {
			return nil, fmt.Errorf("preset %d: missing name", idx)
		}

		a := &models.Agent{
			ID:          p.ID,
			Name:        p.Name,
			Role:        p.Role,
			Description: p.Description,
			Avatar:      p.Avatar,
			Status:      models.AgentStatus(p.Status),
			Category:    models.AgentCategory(p.Category),
			CreatedAt:   now,
		}
		if a.Status == "" {
			a.Status = models.AgentStatusActive
		}
		if a.Category == "" {
			a.Category = models.CategoryCustom
		}

		for sidx, s := range p.Workflow {
			step := models.Step{
				ID:    s.ID,
				Kind:  models.StepKind(s.Kind),
				Label: s.Label,
			}
			if step.ID == "" {
				step.ID = fmt.Sprintf("step-%d", sidx+1)
			}
			if step.Kind == "" {
				step.Kind = models.StepKindAction
			}
			if s.Action != "" || s.MaxResults > 0 {
				step.Data = &models.StepData{
					Action:     models.ActionKind(s.Action),
					MaxResults: s.MaxResults,
				}
			}
			a.Workflow = append(a.Workflow, step)
		}

		agents = append(agents, a)
	}

	return agents, nil
}

// SavePresets writes agents to a YAML preset file.
func SavePresets(path string, agents []*models.Agent) error {
	file := presetFile{}
	for _, a := range agents {
		p := presetAgent{
			ID:          a.ID,
			Name:        a.Name,
			Role:        a.Role,
			Description: a.Description,
			Avatar:      a.Avatar,
			Status:      string(a.Status),
			Category:    string(a.Category),
		}
		for _, s := range a.Workflow {
			step := presetStep{ID: s.ID, Kind: string(s.Kind), Label: s.Label}
			if s.Data != nil {
				step.Action = string(s.Data.Action)
				step.MaxResults = s.Data.MaxResults
			}
			p.Workflow = append(p.Workflow, step)
		}
		file.Agents = append(file.Agents, p)
	}

	data, err := yaml.Marshal(&file)
	if err != nil {
		return fmt.Errorf("marshal presets: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
