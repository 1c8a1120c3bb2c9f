package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uni-dcs/records-api/internal/dto"
	"github.com/uni-dcs/records-api/internal/models"
)

type importWriterStub struct {
	upserts    []*models.Result
	insertedAt map[int]bool
	failAt     map[int]bool
}

func (s *importWriterStub) Upsert(ctx context.Context, result *models.Result) (bool, error) {
	call := len(s.upserts)
	if s.failAt[call] {
		return false, sql.ErrConnDone
	}
	s.upserts = append(s.upserts, result)
	return s.insertedAt[call], nil
}

type importUserStoreStub struct {
	byMatric map[string]*models.User
	existing map[string]bool
	created  []*models.User
}

func (s *importUserStoreStub) FindStudentByMatricNo(ctx context.Context, matricNo string) (*models.User, error) {
	if user, ok := s.byMatric[matricNo]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func (s *importUserStoreStub) ExistsByMatricNo(ctx context.Context, matricNo string) (bool, error) {
	return s.existing[matricNo], nil
}

func (s *importUserStoreStub) Create(ctx context.Context, user *models.User) error {
	user.ID = "stu-new"
	s.created = append(s.created, user)
	return nil
}

func importStudent(id string) *models.User {
	dept := "dep-1"
	return &models.User{ID: id, Role: models.RoleStudent, DepartmentID: &dept}
}

func importServiceFixture(writer *importWriterStub, users *importUserStoreStub) *ImportService {
	courses := &courseStoreStub{
		courses: map[string]*models.Course{
			"cccccccc-cccc-cccc-cccc-cccccccccccc": {ID: "cccccccc-cccc-cccc-cccc-cccccccccccc", LecturerID: "lec-1", DepartmentID: "dep-1", SessionToken: "2024/2025", IsActive: true},
		},
		registered: true,
	}
	return NewImportService(writer, users, courses, sessionGuardStub{token: "2024/2025"}, nil, nil)
}

func TestImportResultsIsolatesBadRows(t *testing.T) {
	writer := &importWriterStub{insertedAt: map[int]bool{0: true, 1: true, 2: true, 3: true}}
	users := &importUserStoreStub{byMatric: map[string]*models.User{
		"DCS/001": importStudent("stu-1"),
		"DCS/002": importStudent("stu-2"),
		"DCS/004": importStudent("stu-4"),
		"DCS/005": importStudent("stu-5"),
	}}
	svc := importServiceFixture(writer, users)

	report, err := svc.ImportResults(context.Background(), dto.ImportResultsRequest{
		CourseID: "cccccccc-cccc-cccc-cccc-cccccccccccc",
		Semester: models.SemesterFirst,
		Rows: []dto.ImportResultRow{
			{MatricNo: "DCS/001", CA: 25, Exam: 50},
			{MatricNo: "DCS/002", CA: 18, Exam: 40},
			{MatricNo: "DCS/003", CA: 55, Exam: 40},
			{MatricNo: "DCS/004", CA: 10, Exam: 30},
			{MatricNo: "DCS/005", CA: 29, Exam: 61},
		},
	}, lecturerClaims("lec-1"))
	require.NoError(t, err)

	// Row 3 carries an out-of-range CA and must fail alone.
	assert.Equal(t, 5, report.Total())
	assert.Equal(t, 4, report.Created())
	require.Len(t, report.Failed, 1)
	assert.Equal(t, 3, report.Failed[0].Row)
	assert.Equal(t, "DCS/003", report.Failed[0].MatricNo)
	require.Len(t, report.Success, 4)
	assert.Equal(t, "DCS/001", report.Success[0].MatricNo)
	assert.Equal(t, 75.0, report.Success[0].Total)
	assert.Equal(t, models.GradeA, report.Success[0].Grade)
	assert.Len(t, writer.upserts, 4)
}

func TestImportResultsUnknownMatricReported(t *testing.T) {
	writer := &importWriterStub{insertedAt: map[int]bool{0: true}}
	users := &importUserStoreStub{byMatric: map[string]*models.User{
		"DCS/001": importStudent("stu-1"),
	}}
	svc := importServiceFixture(writer, users)

	report, err := svc.ImportResults(context.Background(), dto.ImportResultsRequest{
		CourseID: "cccccccc-cccc-cccc-cccc-cccccccccccc",
		Semester: models.SemesterFirst,
		Rows: []dto.ImportResultRow{
			{MatricNo: "DCS/001", CA: 25, Exam: 50},
			{MatricNo: "DCS/999", CA: 20, Exam: 40},
		},
	}, lecturerClaims("lec-1"))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Created())
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "no student with this matric number", report.Failed[0].Reason)
}

func TestImportResultsCountsUpdatesSeparately(t *testing.T) {
	writer := &importWriterStub{insertedAt: map[int]bool{0: true, 1: false}}
	users := &importUserStoreStub{byMatric: map[string]*models.User{
		"DCS/001": importStudent("stu-1"),
		"DCS/002": importStudent("stu-2"),
	}}
	svc := importServiceFixture(writer, users)

	report, err := svc.ImportResults(context.Background(), dto.ImportResultsRequest{
		CourseID: "cccccccc-cccc-cccc-cccc-cccccccccccc",
		Semester: models.SemesterFirst,
		Rows: []dto.ImportResultRow{
			{MatricNo: "DCS/001", CA: 25, Exam: 50},
			{MatricNo: "DCS/002", CA: 18, Exam: 40},
		},
	}, lecturerClaims("lec-1"))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Created())
	assert.Equal(t, 1, report.Updated())
	require.Len(t, report.Success, 2)
	assert.False(t, report.Success[0].Updated)
	assert.True(t, report.Success[1].Updated)
	assert.Empty(t, report.Failed)
}

func TestImportResultsDerivesGrades(t *testing.T) {
	writer := &importWriterStub{insertedAt: map[int]bool{0: true}}
	users := &importUserStoreStub{byMatric: map[string]*models.User{
		"DCS/001": importStudent("stu-1"),
	}}
	svc := importServiceFixture(writer, users)

	_, err := svc.ImportResults(context.Background(), dto.ImportResultsRequest{
		CourseID: "cccccccc-cccc-cccc-cccc-cccccccccccc",
		Semester: models.SemesterFirst,
		Rows:     []dto.ImportResultRow{{MatricNo: "DCS/001", CA: 15, Exam: 30}},
	}, lecturerClaims("lec-1"))
	require.NoError(t, err)
	require.Len(t, writer.upserts, 1)
	assert.Equal(t, 45.0, writer.upserts[0].Total)
	assert.Equal(t, models.GradeD, writer.upserts[0].Grade)
	assert.Equal(t, "lec-1", writer.upserts[0].UploadedBy)
}

func TestImportResultsRejectsForeignDepartment(t *testing.T) {
	writer := &importWriterStub{insertedAt: map[int]bool{0: true}}
	foreign := importStudent("stu-2")
	dept := "dep-2"
	foreign.DepartmentID = &dept
	users := &importUserStoreStub{byMatric: map[string]*models.User{
		"DCS/001": importStudent("stu-1"),
		"DCS/777": foreign,
	}}
	svc := importServiceFixture(writer, users)

	report, err := svc.ImportResults(context.Background(), dto.ImportResultsRequest{
		CourseID: "cccccccc-cccc-cccc-cccc-cccccccccccc",
		Semester: models.SemesterFirst,
		Rows: []dto.ImportResultRow{
			{MatricNo: "DCS/001", CA: 25, Exam: 50},
			{MatricNo: "DCS/777", CA: 20, Exam: 40},
		},
	}, lecturerClaims("lec-1"))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Created())
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "student belongs to another department", report.Failed[0].Reason)
	assert.Len(t, writer.upserts, 1)
}

func TestImportResultsRequiresRosterMembership(t *testing.T) {
	writer := &importWriterStub{}
	users := &importUserStoreStub{byMatric: map[string]*models.User{
		"DCS/001": importStudent("stu-1"),
	}}
	courses := &courseStoreStub{
		courses: map[string]*models.Course{
			"cccccccc-cccc-cccc-cccc-cccccccccccc": {ID: "cccccccc-cccc-cccc-cccc-cccccccccccc", LecturerID: "lec-1", DepartmentID: "dep-1", SessionToken: "2024/2025", IsActive: true},
		},
		registered: false,
	}
	svc := NewImportService(writer, users, courses, sessionGuardStub{token: "2024/2025"}, nil, nil)

	report, err := svc.ImportResults(context.Background(), dto.ImportResultsRequest{
		CourseID: "cccccccc-cccc-cccc-cccc-cccccccccccc",
		Semester: models.SemesterFirst,
		Rows:     []dto.ImportResultRow{{MatricNo: "DCS/001", CA: 25, Exam: 50}},
	}, lecturerClaims("lec-1"))
	require.NoError(t, err)
	assert.Empty(t, report.Success)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "student is not registered for this course", report.Failed[0].Reason)
	assert.Empty(t, writer.upserts)
}

func TestImportReportCarriesBothArrays(t *testing.T) {
	writer := &importWriterStub{insertedAt: map[int]bool{0: true}}
	users := &importUserStoreStub{byMatric: map[string]*models.User{
		"DCS/001": importStudent("stu-1"),
	}}
	svc := importServiceFixture(writer, users)

	clean, err := svc.ImportResults(context.Background(), dto.ImportResultsRequest{
		CourseID: "cccccccc-cccc-cccc-cccc-cccccccccccc",
		Semester: models.SemesterFirst,
		Rows:     []dto.ImportResultRow{{MatricNo: "DCS/001", CA: 25, Exam: 50}},
	}, lecturerClaims("lec-1"))
	require.NoError(t, err)
	require.NotNil(t, clean.Failed, "failed array must be present even when every row lands")
	assert.Empty(t, clean.Failed)
	assert.Equal(t, 1, clean.Total())

	broken, err := svc.ImportResults(context.Background(), dto.ImportResultsRequest{
		CourseID: "cccccccc-cccc-cccc-cccc-cccccccccccc",
		Semester: models.SemesterFirst,
		Rows:     []dto.ImportResultRow{{MatricNo: "DCS/404", CA: 25, Exam: 50}},
	}, lecturerClaims("lec-1"))
	require.NoError(t, err)
	require.NotNil(t, broken.Success, "success array must be present even when every row fails")
	assert.Empty(t, broken.Success)
	assert.Equal(t, 1, broken.Total())
}

func TestImportStudentsSkipsExistingMatric(t *testing.T) {
	users := &importUserStoreStub{existing: map[string]bool{"DCS/001": true}}
	svc := importServiceFixture(&importWriterStub{}, users)

	report, err := svc.ImportStudents(context.Background(), dto.ImportStudentsRequest{
		DepartmentID: "11111111-1111-1111-1111-111111111111",
		Rows: []dto.ImportStudentRow{
			{MatricNo: "DCS/001", FullName: "Ada Obi", Email: "ada@uni.edu", Level: 100},
			{MatricNo: "DCS/002", FullName: "Ben Eze", Email: "ben@uni.edu", Level: 100},
		},
	}, &models.JWTClaims{UserID: "adm-1", Role: models.RoleAdmin})
	require.NoError(t, err)
	require.Len(t, report.Success, 1)
	assert.Equal(t, "DCS/002", report.Success[0].MatricNo)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "matric number already registered", report.Failed[0].Reason)
	require.Len(t, users.created, 1)
	assert.Equal(t, models.RoleStudent, users.created[0].Role)
	require.NotNil(t, users.created[0].MatricNo)
	assert.Equal(t, "DCS/002", *users.created[0].MatricNo)
}

func TestImportStudentsAdminOnly(t *testing.T) {
	svc := importServiceFixture(&importWriterStub{}, &importUserStoreStub{})

	_, err := svc.ImportStudents(context.Background(), dto.ImportStudentsRequest{
		DepartmentID: "11111111-1111-1111-1111-111111111111",
		Rows:         []dto.ImportStudentRow{{MatricNo: "DCS/001", FullName: "Ada Obi", Email: "ada@uni.edu", Level: 100}},
	}, lecturerClaims("lec-1"))
	require.Error(t, err)
}
