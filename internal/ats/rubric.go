package ats

import "regexp"

// Rubric tables. None of them are mutated after package initialisation.

var (
	emailPattern    = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`)
	phonePattern    = regexp.MustCompile(`(\+?\d{1,3}[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)
	linkedInPattern = regexp.MustCompile(`(?i)linkedin\.com/in/[\w-]+`)
	gitHubPattern   = regexp.MustCompile(`(?i)github\.com/[\w-]+`)
)

var addressIndicators = []string{"street", "avenue", "road", "city", "state", "zip", "country"}

var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d{2}/\d{2}/\d{4}`),
	regexp.MustCompile(`\d{2}/\d{4}`),
	regexp.MustCompile(`(?i)\b(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)\s+\d{4}\b`),
	regexp.MustCompile(`(?i)\b(January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{4}\b`),
}

// SectionHeadings are the headings an ATS expects to find.
var SectionHeadings = []string{
	"summary", "experience", "education", "skills", "projects",
	"certificates", "languages", "contact", "objective",
}

const (
	minStandardSections   = 4
	maxParagraphWords     = 40
	minMeasurableResults  = 5
	maxListedMissingSkill = 5
	maxListedParagraphs   = 3
	maxMissingKeywords    = 10
	maxPipeCharacters     = 10
)

var skillPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:JavaScript|Python|Java|C\+\+|C#|PHP|Ruby|Go|Swift|Kotlin)\b`),
	regexp.MustCompile(`(?i)\b(?:React|Angular|Vue|Node\.js|Express|Django|Flask|Laravel|Spring)\b`),
	regexp.MustCompile(`(?i)\b(?:HTML|CSS|SQL|MongoDB|PostgreSQL|MySQL|Redis)\b`),
	regexp.MustCompile(`(?i)\b(?:Git|Docker|AWS|Azure|GCP|Kubernetes|Jenkins)\b`),
	regexp.MustCompile(`(?i)\b(?:Agile|Scrum|DevOps|CI/CD|REST|GraphQL|Microservices)\b`),
}

var measurablePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d+%`),
	regexp.MustCompile(`\d+\+`),
	regexp.MustCompile(`\$\d+`),
	regexp.MustCompile(`(?i)\d+\s*(years?|months?)`),
	regexp.MustCompile(`(?i)increased by \d+`),
	regexp.MustCompile(`(?i)reduced by \d+`),
	regexp.MustCompile(`(?i)improved by \d+`),
}

var negativePhrases = []string{
	"unfortunately", "failed", "mistake", "error", "problem",
	"difficult", "struggled", "weak", "limited", "lack",
}

var (
	portfolioURLPattern = regexp.MustCompile(`(?i)https?://[\w.-]+\.(com|net|org|io|dev)`)
	portfolioWords      = []string{"portfolio", "website", "personal site"}
)

var personalEmailDomains = []string{"gmail.com", "yahoo.com", "hotmail.com", "outlook.com"}

type recommendationRule struct {
	contains []string
	text     string
}

// recommendationRules map an issue to its remediation. The first rule whose
// substrings are all present in the issue wins.
var recommendationRules = []recommendationRule{
	{contains: []string{"Email address not found"}, text: "Add a professional email address in the contact section"},
	{contains: []string{"Phone number not found"}, text: "Include a phone number in the contact information"},
	{contains: []string{"Address not found"}, text: "Add your location/address for recruiter validation"},
	{contains: []string{"LinkedIn profile URL not found"}, text: "Include your LinkedIn profile URL to build web credibility"},
	{contains: []string{"GitHub profile URL not found"}, text: "Add your GitHub profile URL to showcase your code"},
	{contains: []string{"Job title", "not found"}, text: "Include the exact job title in your resume, preferably in the summary"},
	{contains: []string{"Missing skills"}, text: "Add missing skills from the job description to your skills section"},
	{contains: []string{"Long paragraphs"}, text: "Shorten paragraphs to under 40 words for better readability"},
	{contains: []string{"Negative phrases"}, text: "Remove negative language and focus on positive achievements"},
	{contains: []string{"Tables detected"}, text: "Remove tables and use simple text formatting for ATS compatibility"},
	{contains: []string{"Images detected"}, text: "Remove images as they are not ATS-friendly"},
	{contains: []string{"No properly formatted dates"}, text: "Use standard date formats: MM/YYYY, Month YYYY, or MM/DD/YYYY"},
	{contains: []string{"Portfolio website not found"}, text: "Add a link to your portfolio website or GitHub profile"},
}

var generalRecommendations = []string{
	"Use standard section headings: Summary, Experience, Education, Skills, Projects",
	"Include 5+ measurable results with numbers and percentages",
	"Use a clean, simple font like Arial or Calibri",
	"Keep the resume to 1-2 pages maximum",
	"Use bullet points for easy scanning",
	"Include relevant keywords from the job description",
}

type keywordHint struct {
	triggers []string
	keywords []string
}

var industryHints = []keywordHint{
	{
		triggers: []string{"software", "developer", "programming"},
		keywords: []string{"software development", "programming", "coding", "debugging"},
	},
	{
		triggers: []string{"web", "frontend", "backend"},
		keywords: []string{"web development", "responsive design", "user experience"},
	},
}
