package service

import (
	"math"

	"github.com/uni-dcs/records-api/internal/models"
)

// ComputeGrade maps a total score to its letter grade on the 70/60/50/45/40
// band scale. Boundaries are inclusive on the lower edge of each band.
func ComputeGrade(total float64) models.LetterGrade {
	switch {
	case total >= 70:
		return models.GradeA
	case total >= 60:
		return models.GradeB
	case total >= 50:
		return models.GradeC
	case total >= 45:
		return models.GradeD
	case total >= 40:
		return models.GradeE
	default:
		return models.GradeF
	}
}

// GradePoint returns the quality point for a letter grade on the 5-point scale.
func GradePoint(grade models.LetterGrade) float64 {
	switch grade {
	case models.GradeA:
		return 5
	case models.GradeB:
		return 4
	case models.GradeC:
		return 3
	case models.GradeD:
		return 2
	case models.GradeE:
		return 1
	default:
		return 0
	}
}

// ComputeGPA returns the credit-weighted grade point average for a set of
// graded results, rounded to two decimal places, along with the credit
// units carried. An empty set yields 0.00 rather than an error so a
// student with no results reads as a zero average, not a failure.
func ComputeGPA(results []models.ResultDetail) (float64, int) {
	totalCredits := 0
	weighted := 0.0
	for _, r := range results {
		weighted += GradePoint(r.Grade) * float64(r.CreditUnit)
		totalCredits += r.CreditUnit
	}
	if totalCredits == 0 {
		return 0, 0
	}
	return round2(weighted / float64(totalCredits)), totalCredits
}

// Classify maps a CGPA to its honours classification.
func Classify(cgpa float64) models.Honours {
	switch {
	case cgpa >= 4.5:
		return models.HonoursFirstClass
	case cgpa >= 3.5:
		return models.HonoursSecondClassUpper
	case cgpa >= 2.5:
		return models.HonoursSecondClassLower
	case cgpa >= 1.5:
		return models.HonoursThirdClass
	default:
		return models.HonoursPass
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
