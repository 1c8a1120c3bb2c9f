package models

import "time"

// StudentGPA is one student's GPA within a scope (session or cumulative).
type StudentGPA struct {
	StudentID    string  `json:"student_id"`
	StudentName  string  `json:"student_name"`
	GPA          float64 `json:"gpa"`
	TotalCredits int     `json:"total_credits"`
}

// SessionStatistics aggregates results across all students for one session.
type SessionStatistics struct {
	Session           string              `json:"session"`
	Students          int                 `json:"students"`
	TotalResults      int                 `json:"total_results"`
	TotalCreditUnits  int                 `json:"total_credit_units"`
	AverageGPA        float64             `json:"average_gpa"`
	GradeDistribution map[LetterGrade]int `json:"grade_distribution"`
	PassRate          float64             `json:"pass_rate"`
	HighestGPA        *StudentGPA         `json:"highest_gpa,omitempty"`
	LowestGPA         *StudentGPA         `json:"lowest_gpa,omitempty"`
}

// DepartmentRegistrationStats breaks registration stats down per department.
type DepartmentRegistrationStats struct {
	TotalCourses     int `json:"total_courses"`
	OpenRegistration int `json:"open_registration"`
	TotalStudents    int `json:"total_students"`
}

// RegistrationStatistics summarises registration state across the
// active session. Open/closed counts are recomputed from the window
// policy per course, never read from a stored flag.
type RegistrationStatistics struct {
	Session                  string                                 `json:"session"`
	TotalCourses             int                                    `json:"total_courses"`
	OpenRegistration         int                                    `json:"open_registration"`
	ClosedRegistration       int                                    `json:"closed_registration"`
	TotalStudentsRegistered  int                                    `json:"total_students_registered"`
	AverageStudentsPerCourse float64                                `json:"average_students_per_course"`
	ByDepartment             map[string]DepartmentRegistrationStats `json:"by_department"`
}

// BulkUpdateReport reports the row count touched by a filtered bulk update.
type BulkUpdateReport struct {
	Message        string `json:"message"`
	CoursesUpdated int64  `json:"courses_updated"`
}

// Honours is the academic-standing classification derived from CGPA.
type Honours string

const (
	HonoursFirstClass       Honours = "First Class"
	HonoursSecondClassUpper Honours = "Second Class Upper"
	HonoursSecondClassLower Honours = "Second Class Lower"
	HonoursThirdClass       Honours = "Third Class"
	HonoursPass             Honours = "Pass"
)

// TranscriptEntry is one graded course on a transcript.
type TranscriptEntry struct {
	CourseCode  string      `json:"course_code"`
	CourseTitle string      `json:"course_title"`
	CreditUnit  int         `json:"credit_unit"`
	Semester    Semester    `json:"semester"`
	CA          float64     `json:"ca"`
	Exam        float64     `json:"exam"`
	Total       float64     `json:"total"`
	Grade       LetterGrade `json:"grade"`
	GradePoint  float64     `json:"grade_point"`
}

// TranscriptSession groups transcript entries for one session with its GPA.
type TranscriptSession struct {
	Session      string            `json:"session"`
	Level        int               `json:"level"`
	Entries      []TranscriptEntry `json:"entries"`
	GPA          float64           `json:"gpa"`
	TotalCredits int               `json:"total_credits"`
}

// Transcript is a student's full academic record.
type Transcript struct {
	Student        UserDetail          `json:"student"`
	Sessions       []TranscriptSession `json:"sessions"`
	CGPA           float64             `json:"cgpa"`
	Classification Honours             `json:"classification"`
	GeneratedAt    time.Time           `json:"generated_at"`
}
