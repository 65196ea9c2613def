package service

import (
	"fmt"
	"strings"

	"anoa.com/skillquest/internal/modules/content/dto"
)

type Kind string

const (
	KindCareer       Kind = "career"
	KindScholarships Kind = "scholarships"
	KindAlumni       Kind = "alumni"
	KindLoans        Kind = "loans"
	KindNutrition    Kind = "nutrition"
	KindBurnout      Kind = "burnout"
	KindWorkLife     Kind = "work-life"
)

var Kinds = []Kind{
	KindCareer,
	KindScholarships,
	KindAlumni,
	KindLoans,
	KindNutrition,
	KindBurnout,
	KindWorkLife,
}

// RequiresAuth reports whether kind needs a signed-in caller.
func (k Kind) RequiresAuth() bool {
	return k != KindNutrition && k != KindWorkLife
}

// NewInput returns a pointer to the request body type for kind.
func (k Kind) NewInput() (any, bool) {
	switch k {
	case KindCareer:
		return &dto.CareerInput{}, true
	case KindScholarships:
		return &dto.ScholarshipInput{}, true
	case KindAlumni:
		return &dto.AlumniInput{}, true
	case KindLoans:
		return &dto.LoanInput{}, true
	case KindNutrition:
		return &dto.NutritionInput{}, true
	case KindBurnout:
		return &dto.BurnoutInput{}, true
	case KindWorkLife:
		return &dto.WorkLifeInput{}, true
	}
	return nil, false
}

func (k Kind) label() string {
	switch k {
	case KindCareer:
		return "career map"
	case KindScholarships:
		return "scholarship list"
	case KindAlumni:
		return "alumni connections"
	case KindLoans:
		return "education loan options"
	case KindNutrition:
		return "meal plan"
	case KindBurnout:
		return "burnout check"
	case KindWorkLife:
		return "work-life plan"
	}
	return string(k)
}

const jsonOnly = "Respond with JSON only, no markdown fences and no commentary."

func buildPrompt(input any) (string, error) {
	var b strings.Builder
	switch in := input.(type) {
	case *dto.CareerInput:
		fmt.Fprintf(&b, "You are a career counsellor for university students. A student studies %s at %s.\n", in.Field, in.College)
		b.WriteString("Map five realistic career paths for them. ")
		b.WriteString(`Use the shape {"careers":[{"title":"","description":"","skills":[""],"average_salary":"","growth_outlook":"","first_steps":[""]}]}. `)
	case *dto.ScholarshipInput:
		fmt.Fprintf(&b, "A student studies %s at %s and wants scholarships available in %s.\n", in.Field, in.College, in.Country)
		b.WriteString("List up to eight real scholarships they could apply for. ")
		b.WriteString(`Use the shape {"scholarships":[{"name":"","provider":"","amount":"","deadline":"","eligibility":"","link":""}]}. `)
	case *dto.AlumniInput:
		fmt.Fprintf(&b, "A student studies %s at %s.\n", in.Field, in.College)
		b.WriteString("Describe six kinds of alumni they should reach out to and how to approach them. ")
		b.WriteString(`Use the shape {"alumni":[{"role":"","company_type":"","why_connect":"","outreach_message":""}]}. `)
	case *dto.LoanInput:
		fmt.Fprintf(&b, "A student in %s needs an education loan of %.2f %s", in.Country, in.Amount, strings.ToUpper(in.Currency))
		if in.Purpose != "" {
			fmt.Fprintf(&b, " for %s", in.Purpose)
		}
		b.WriteString(".\nCompare up to five loan options. ")
		b.WriteString(`Use the shape {"loans":[{"lender":"","interest_rate":"","tenure":"","collateral":"","pros":[""],"cons":[""]}],"advice":""}. `)
	case *dto.NutritionInput:
		fmt.Fprintf(&b, "Plan seven days of student meals in %s on a weekly budget of %.2f %s", in.Location, in.Budget, strings.ToUpper(in.Currency))
		if in.Diet != "" {
			fmt.Fprintf(&b, " following a %s diet", in.Diet)
		}
		b.WriteString(".\n")
		b.WriteString(`Use the shape {"days":[{"day":"","meals":[{"name":"","ingredients":[""],"estimated_cost":0}]}],"shopping_list":[""],"total_cost":0}. `)
	case *dto.BurnoutInput:
		fmt.Fprintf(&b, "A student rates their stress %d out of 10, sleeps %.1f hours and studies %.1f hours a day.\n", in.StressLevel, in.SleepHours, in.StudyHours)
		if in.Notes != "" {
			fmt.Fprintf(&b, "They add: %q\n", in.Notes)
		}
		b.WriteString("Assess their burnout risk and suggest concrete changes. ")
		b.WriteString(`Use the shape {"risk_level":"low|moderate|high","summary":"","warning_signs":[""],"recommendations":[""]}. `)
	case *dto.WorkLifeInput:
		fmt.Fprintf(&b, "A student works or studies %.1f hours a week.\n", in.WeeklyHours)
		if in.Goals != "" {
			fmt.Fprintf(&b, "Their goals: %q\n", in.Goals)
		}
		b.WriteString("Coach them toward a sustainable weekly schedule. ")
		b.WriteString(`Use the shape {"assessment":"","weekly_plan":[{"day":"","focus_blocks":[""],"rest":""}],"tips":[""]}. `)
	default:
		return "", fmt.Errorf("unsupported content input %T", input)
	}
	b.WriteString(jsonOnly)
	return b.String(), nil
}
