package dto

// ChartDataPoint is one point of the cumulative grade progression series.
type ChartDataPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// PredictionData is the regression forecast. Available=false is the defined
// terminal state when the data cannot support a forecast; it is not an error.
type PredictionData struct {
	PredictedScore       float64          `json:"predictedScore"`
	PredictedLetterGrade string           `json:"predictedLetterGrade"`
	GradeProgression     []ChartDataPoint `json:"gradeProgression"`
	Available            bool             `json:"available"`
}
