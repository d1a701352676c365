package ai

import (
	"fmt"
	"strings"

	"go-jobscout/internal/models"
)

// SystemPrompt fixes the task and the answer vocabulary.
const SystemPrompt = `You are an IT recruitment expert. Below are the work experience and skill set of a candidate, and a job advertisement. Decide how well the candidate fits the position.

Steps:
1. Compare the candidate's skills and experience with the requirements and keywords in the job advertisement.
2. Give an overall assessment of the fit.

Answer with exactly one word: "good", "moderate" or "poor". Do not add a full stop. Do not answer anything else.`

// BuildUserPrompt renders the candidate profile and the posting as the job ad.
func BuildUserPrompt(profile models.Profile, p models.Posting) string {
	var ad strings.Builder
	fmt.Fprintf(&ad, "Title: %s\n", p.Title)
	if p.Company != "" {
		fmt.Fprintf(&ad, "Company: %s\n", p.Company)
	}
	if p.Location != "" {
		fmt.Fprintf(&ad, "Location: %s\n", p.Location)
	}
	if d := strings.TrimSpace(p.Description); d != "" {
		fmt.Fprintf(&ad, "\n%s\n", d)
	}

	return fmt.Sprintf(`############ Candidate Work Experience ############
%s

############ Candidate Skill Sets ############
%s

############ Job Advertisement ############
%s`, strings.TrimSpace(profile.WorkExperience), strings.TrimSpace(profile.Skills), ad.String())
}
