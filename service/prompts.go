package service

import (
	"strings"
	"text/template"
)

// prompt is one chat exchange: a fixed system message and a templated user message
type prompt struct {
	op     string
	system string
	user   *template.Template
}

func (p prompt) render(data any) (string, error) {
	var b strings.Builder
	if err := p.user.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

func newPrompt(op, system, user string) prompt {
	return prompt{
		op:     op,
		system: system,
		user:   template.Must(template.New(op).Parse(user)),
	}
}

var (
	summarizePrompt = newPrompt("summarize clause",
		`You explain contract clauses to people without legal training.
Reply with a JSON object: {"summary": "<plain English summary of the clause>"}.`,
		`Summarize this contract clause in plain English:

{{.ClauseText}}`)

	riskPrompt = newPrompt("assess risk",
		`You are a legal risk reviewer. Rate the risk a single contract clause poses to the party signing it.
Reply with a JSON object:
{"riskLevel": "low" | "medium" | "high", "riskSummary": "<the potential risks>", "suggestedActions": "<how to mitigate them>"}.`,
		`Assess the risk of this clause:

{{.ClauseText}}`)

	negotiationPrompt = newPrompt("suggest negotiation",
		`You are a contract negotiation advisor. Given a contract, a summary of one of its clauses and a risk
assessment of that clause, propose replacement wording that reduces the risk.
The edits must be ready to paste into the contract.
Reply with a JSON object: {"suggestedEdits": "<replacement wording>", "explanation": "<why the edits help>"}.`,
		`Contract text:
{{.ContractText}}

Clause summary:
{{.ClauseSummary}}

Risk assessment:
{{.RiskAssessment}}`)

	overallPrompt = newPrompt("analyze overall contract",
		`You are a legal analyst reviewing a whole contract.
Reply with a JSON object:
{"overallRiskAssessment": "<holistic risks of the contract>",
 "overallRecommendations": "<advice and areas to focus on>",
 "exploitationPotential": "<ways the terms could be used against the signer, optional>"}.
Write each point of the assessment and the recommendations on its own line starting with "* ".`,
		`Contract text:
{{.ContractText}}`)

	advisorPrompt = newPrompt("ask advisor",
		`You are a legal advisor answering questions about the contract below, clarifying specific clauses
and their legal implications. Reply with a JSON object: {"answer": "<your answer>"}.`,
		`Contract text:
{{.ContractText}}

Question: {{.Question}}`)
)
