package agent

import (
	"fmt"
	"strings"

	"leadagent_backend/internal/leads/domain"
	"leadagent_backend/internal/targeting"
)

func discoveryPrompt(district, sector string, strategy targeting.Strategy) string {
	return fmt.Sprintf(`Search the web for small, independent %s businesses in %s, Istanbul.
Focus on %s.
Only include local small businesses. Exclude chains, franchises, hospitals, public institutions and large companies.
Return ONLY a JSON array of up to 5 objects: [{"name": "...", "address": "..."}]. No commentary.`,
		sector, district, strategy.Description)
}

func discoveryFallbackPrompt(district, sector string) string {
	return fmt.Sprintf(`List up to 5 small independent %s businesses in %s, Istanbul.
Respond with a JSON array only: [{"name": "...", "address": "..."}]`, sector, district)
}

func enrichmentPrompt(lead domain.Lead) string {
	return fmt.Sprintf(`Find public contact details for the business "%s" (%s) located at %s, %s.
Return ONLY a JSON object: {"email": "", "phone": "", "website": ""}. Use empty strings for anything you cannot verify.`,
		lead.CompanyName, lead.Sector, orUnknown(lead.Address), lead.District)
}

func socialPrompt(lead domain.Lead) string {
	return fmt.Sprintf(`Analyse the public social media presence of "%s", a %s business in %s.
Return ONLY a JSON object: {"summary": "", "platforms": [], "tone": "", "talkingPoints": []}.
talkingPoints are up to 3 short, concrete hooks for a first sales email.`,
		lead.CompanyName, lead.Sector, lead.District)
}

func incomingReplyPrompt(lead domain.Lead) string {
	return fmt.Sprintf(`We emailed "%s" (%s, %s) offering digital marketing services. Write the short reply email the owner plausibly sent back.
Return ONLY a JSON object: {"message": ""}.`, lead.CompanyName, lead.Sector, lead.District)
}

func draftReplyPrompt(lead domain.Lead, incoming, senderCompany string) string {
	return fmt.Sprintf(`You are a sales representative of %s. "%s" replied to our outreach:
---
%s
---
Draft a polite, concise answer in the language of their message.
Classify their intent as one of: interested, meeting, proposal, question, not_interested, other.
Return ONLY a JSON object: {"subject": "", "body": "", "intent": ""}.`,
		orUnknown(senderCompany), lead.CompanyName, strings.TrimSpace(incoming))
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "unknown"
	}
	return s
}
