package dto

type CareerInput struct {
	Field   string `json:"field" binding:"required,max=100"`
	College string `json:"college" binding:"required,max=150"`
}

type ScholarshipInput struct {
	Field   string `json:"field" binding:"required,max=100"`
	College string `json:"college" binding:"required,max=150"`
	Country string `json:"country" binding:"required,max=80"`
}

type AlumniInput struct {
	Field   string `json:"field" binding:"required,max=100"`
	College string `json:"college" binding:"required,max=150"`
}

type LoanInput struct {
	Amount   float64 `json:"amount" binding:"required,gt=0"`
	Currency string  `json:"currency" binding:"required,len=3"`
	Country  string  `json:"country" binding:"required,max=80"`
	Purpose  string  `json:"purpose" binding:"omitempty,max=200"`
}

type NutritionInput struct {
	Budget   float64 `json:"budget" binding:"required,gt=0"`
	Currency string  `json:"currency" binding:"required,len=3"`
	Location string  `json:"location" binding:"required,max=100"`
	Diet     string  `json:"diet" binding:"omitempty,max=100"`
}

type BurnoutInput struct {
	StressLevel int     `json:"stress_level" binding:"required,gte=1,lte=10"`
	SleepHours  float64 `json:"sleep_hours" binding:"gte=0,lte=24"`
	StudyHours  float64 `json:"study_hours" binding:"gte=0,lte=24"`
	Notes       string  `json:"notes" binding:"omitempty,max=1000"`
}

type WorkLifeInput struct {
	WeeklyHours float64 `json:"weekly_hours" binding:"required,gt=0,lte=168"`
	Goals       string  `json:"goals" binding:"omitempty,max=1000"`
}
