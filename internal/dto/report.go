package dto

// ReportQuery selects the semester report rendering format.
type ReportQuery struct {
	Format string `form:"format" binding:"omitempty,exportformat"`
}
