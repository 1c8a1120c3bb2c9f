package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/uni-dcs/records-api/internal/models"
)

func TestComputeGradeBands(t *testing.T) {
	cases := []struct {
		total float64
		want  models.LetterGrade
	}{
		{100, models.GradeA},
		{70, models.GradeA},
		{69.9, models.GradeB},
		{60, models.GradeB},
		{59.9, models.GradeC},
		{50, models.GradeC},
		{49.9, models.GradeD},
		{45, models.GradeD},
		{44.9, models.GradeE},
		{40, models.GradeE},
		{39.9, models.GradeF},
		{0, models.GradeF},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ComputeGrade(tc.total), "total %.1f", tc.total)
	}
}

func TestGradePoints(t *testing.T) {
	assert.Equal(t, 5.0, GradePoint(models.GradeA))
	assert.Equal(t, 4.0, GradePoint(models.GradeB))
	assert.Equal(t, 3.0, GradePoint(models.GradeC))
	assert.Equal(t, 2.0, GradePoint(models.GradeD))
	assert.Equal(t, 1.0, GradePoint(models.GradeE))
	assert.Equal(t, 0.0, GradePoint(models.GradeF))
}

func TestComputeGPAWeightsByCredit(t *testing.T) {
	results := []models.ResultDetail{
		{Result: models.Result{Grade: models.GradeA}, CreditUnit: 3},
		{Result: models.Result{Grade: models.GradeC}, CreditUnit: 2},
	}

	// (5*3 + 3*2) / 5 = 4.2
	gpa, credits := ComputeGPA(results)
	assert.Equal(t, 4.2, gpa)
	assert.Equal(t, 5, credits)
}

func TestComputeGPARoundsToTwoPlaces(t *testing.T) {
	results := []models.ResultDetail{
		{Result: models.Result{Grade: models.GradeA}, CreditUnit: 1},
		{Result: models.Result{Grade: models.GradeB}, CreditUnit: 1},
		{Result: models.Result{Grade: models.GradeB}, CreditUnit: 1},
	}

	// 13/3 = 4.333...
	gpa, _ := ComputeGPA(results)
	assert.Equal(t, 4.33, gpa)
}

func TestComputeGPAEmptyIsZero(t *testing.T) {
	gpa, credits := ComputeGPA(nil)
	assert.Equal(t, 0.0, gpa)
	assert.Equal(t, 0, credits)
}

func TestClassifyBands(t *testing.T) {
	cases := []struct {
		cgpa float64
		want models.Honours
	}{
		{5.0, models.HonoursFirstClass},
		{4.5, models.HonoursFirstClass},
		{4.49, models.HonoursSecondClassUpper},
		{3.5, models.HonoursSecondClassUpper},
		{3.49, models.HonoursSecondClassLower},
		{2.5, models.HonoursSecondClassLower},
		{2.49, models.HonoursThirdClass},
		{1.5, models.HonoursThirdClass},
		{1.49, models.HonoursPass},
		{0, models.HonoursPass},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Classify(tc.cgpa), "cgpa %.2f", tc.cgpa)
	}
}
