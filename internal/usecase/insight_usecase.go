package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/nguyentranbao-ct/crm-assistant/internal/models"
	"github.com/nguyentranbao-ct/crm-assistant/internal/repo/llm"
	"github.com/nguyentranbao-ct/crm-assistant/pkg/logger/log"
	"github.com/nguyentranbao-ct/crm-assistant/pkg/tmplx"
)

const analystInstruction = "You are a CRM analytics expert providing data-driven insights and recommendations."

const insightsPromptTemplate = `Analyze this CRM data and provide insights:

CRM METRICS:
• Total Contacts: {{.TotalContacts}}
• Total Activities: {{.TotalActivities}}
• Total Tags: {{.TotalTags}}
• Activities in the last 7 days: {{.ActivitiesLast7d}}

TOP TAGS:
{{range .TopTags -}}
• {{.TagName}}: {{.UsageCount}} contacts
{{else -}}
No tags in use.
{{end}}
CONTACTS BY COMPANY:
{{range .ContactsByCompany -}}
• {{.Company}}: {{.Count}} contacts
{{else -}}
No contacts yet.
{{end}}
Please provide:
1. 3-5 key insights about this CRM data
2. Specific recommendations for improvement
3. Opportunities for growth or better engagement
4. Any CRM best practices that apply

Keep it concise and actionable.`

const actionsPromptTemplate = `Based on my CRM data, suggest 5-7 specific next actions I should take. Consider:
• Recent activity level: {{.ActivitiesLast7d}} activities in the last 7 days
• Total contacts: {{.TotalContacts}}
• Tags in use: {{default "None" (join ", " .TagNames)}}

Focus on practical, actionable steps that improve my CRM effectiveness and relationships.`

const (
	actionsQuestion           = "What should I do next with my CRM?"
	engagementGeneralQuestion = "Analyze overall contact engagement patterns and suggest improvement strategies."
)

var insightApologies = map[models.InsightType]string{
	models.InsightSummary:    "Sorry, I couldn't generate CRM insights at this time. Please try again later.",
	models.InsightActions:    "Sorry, I couldn't generate action suggestions at this time. Please try again later.",
	models.InsightEngagement: "Sorry, I couldn't analyze contact engagement at this time. Please try again later.",
}

type InsightUsecase interface {
	// Generate asks the model for the requested insight. Failures to load
	// data or reach the model yield a fixed per-type apology.
	Generate(ctx context.Context, user *models.User, req models.InsightRequest) (*models.InsightReply, error)
}

type insightUsecase struct {
	dashboard      DashboardUsecase
	contextBuilder ContextBuilder
	completer      llm.Completer
	insightsTmpl   *tmplx.Template
	actionsTmpl    *tmplx.Template
}

func NewInsightUsecase(dashboard DashboardUsecase, contextBuilder ContextBuilder, completer llm.Completer) InsightUsecase {
	return &insightUsecase{
		dashboard:      dashboard,
		contextBuilder: contextBuilder,
		completer:      completer,
		insightsTmpl:   tmplx.MustParse("insights_prompt", insightsPromptTemplate),
		actionsTmpl:    tmplx.MustParse("actions_prompt", actionsPromptTemplate),
	}
}

type actionsPrompt struct {
	*models.Analytics
	TagNames []string
}

func (uc *insightUsecase) Generate(ctx context.Context, user *models.User, req models.InsightRequest) (*models.InsightReply, error) {
	apology, ok := insightApologies[req.Type]
	if !ok {
		return nil, models.NewValidationError("unknown insight type %q", req.Type)
	}

	content, err := uc.generate(ctx, user, req)
	if err != nil {
		log.Warnw(ctx, "insight generation failed", "type", req.Type, "error", err)
		content = apology
	}
	return &models.InsightReply{Success: true, Type: req.Type, Content: content}, nil
}

func (uc *insightUsecase) generate(ctx context.Context, user *models.User, req models.InsightRequest) (string, error) {
	var completion llm.CompletionRequest
	switch req.Type {
	case models.InsightSummary:
		analytics, err := uc.dashboard.Analytics(ctx, user)
		if err != nil {
			return "", err
		}
		prompt, err := uc.insightsTmpl.RenderString(analytics)
		if err != nil {
			return "", err
		}
		completion = llm.CompletionRequest{SystemInstruction: analystInstruction, UserMessage: prompt}

	case models.InsightActions:
		analytics, err := uc.dashboard.Analytics(ctx, user)
		if err != nil {
			return "", err
		}
		data := actionsPrompt{Analytics: analytics}
		for _, t := range analytics.TopTags {
			data.TagNames = append(data.TagNames, t.TagName)
		}
		prompt, err := uc.actionsTmpl.RenderString(data)
		if err != nil {
			return "", err
		}
		completion = llm.CompletionRequest{
			SystemInstruction: uc.contextBuilder.Build(ctx, user.ID.Hex(), actionsQuestion, ""),
			UserMessage:       prompt,
		}

	case models.InsightEngagement:
		question := engagementGeneralQuestion
		if name := strings.TrimSpace(req.ContactName); name != "" {
			question = fmt.Sprintf("Analyze the relationship with %s and suggest specific engagement strategies.", name)
		}
		completion = llm.CompletionRequest{
			SystemInstruction: uc.contextBuilder.Build(ctx, user.ID.Hex(), question, ""),
			UserMessage:       question,
		}
	}

	completion.Operation = "insights_" + string(req.Type)
	return uc.completer.Complete(ctx, completion)
}
