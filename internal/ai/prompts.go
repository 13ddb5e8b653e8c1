package ai

import (
	"fmt"

	"github.com/segevsig/careerOps/internal/coverletter"
)

// CoverLetterPrompt builds the generation prompt for a cover letter request.
func CoverLetterPrompt(input coverletter.Input, tone coverletter.Tone) string {
	return fmt.Sprintf(`You are a professional career coach.
Generate a cover letter in a %s tone.
The cover letter needs to be short and precise for the job,
4-5 lines, with a little information about the submitter.

CV:
%s

Job Description:
%s

Cover Letter:
`, tone, input.CVText, input.JobDescription)
}

// ResumeScoringPrompt builds the scoring prompt. The model is instructed to
// return a strict JSON object; ParseScoringResult validates it.
func ResumeScoringPrompt(cvText, jobDescription string) string {
	return fmt.Sprintf(`You are a careful, honest career coach and resume analyst.

You are given a candidate resume (CV) text and a job description.

Evaluate how well the actual written CV matches the job description.
Do NOT invent or assume experience, skills, education or achievements that
are not explicitly present in the CV text. If the job description requires
something that is not clearly mentioned in the CV, treat it as missing.

Scoring rules:
- Return an integer score between 0 and 100 (inclusive).
- Higher score = stronger match between the written CV and the job description.

You MUST return a strict JSON object with this exact shape:
{
  "score": number,
  "strengths": [
    { "title": string, "description": string },
    { "title": string, "description": string },
    { "title": string, "description": string }
  ],
  "gaps": [
    { "title": string, "description": string },
    { "title": string, "description": string },
    { "title": string, "description": string }
  ],
  "suggestions": [string]
}

Provide exactly 3 strengths and exactly 3 gaps. In suggestions, focus on how
to rewrite or reorganize the CV based only on the candidate's real experience
as written.

Now analyze:

CV:
=======
%s
=======

Job Description:
=======
%s
=======

Return only the JSON object, with no extra text or explanation.
`, cvText, jobDescription)
}
