package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-management/internal/dto"
	"github.com/noah-isme/student-management/internal/models"
	apperrors "github.com/noah-isme/student-management/pkg/errors"
)

var testClock = models.FixedClock(time.Date(2024, time.June, 15, 12, 0, 0, 0, time.Local))

type fakeConnection struct {
	db    *sqlx.DB
	ready bool
}

func (c *fakeConnection) IsReady() bool { return c.ready }

func (c *fakeConnection) DB() (*sqlx.DB, error) {
	if !c.ready {
		return nil, apperrors.ErrConnectionUnavailable
	}
	return c.db, nil
}

func newRepoMock(t *testing.T) (*fakeConnection, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &fakeConnection{db: sqlx.NewDb(db, "sqlmock"), ready: true}, mock
}

func testOptions() Options {
	return Options{Clock: testClock}
}

func int64Ptr(v int64) *int64 { return &v }

func ahmed() dto.Student {
	return dto.Student{
		FirstName:      "Ahmed",
		LastName:       "Hosny",
		Email:          "ahmedhosny@me.com",
		DateOfBirth:    models.Date(2000, time.January, 1),
		EnrollmentDate: models.Date(2020, time.January, 1),
		Status:         models.StudentStatusActive,
	}
}

func studentRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "first_name", "last_name", "email", "date_of_birth", "enrollment_date", "status"})
}

func TestStudentRepositoryCreateWhileDisconnected(t *testing.T) {
	conn, mock := newRepoMock(t)
	conn.ready = false
	repo := NewStudentRepository(conn, testOptions())

	student, err := repo.Create(context.Background(), ahmed())
	require.Error(t, err)
	assert.Nil(t, student)
	assert.True(t, errors.Is(err, apperrors.ErrConnectionUnavailable))
	assert.Contains(t, apperrors.Message(err, ""), "Database is not connected")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryCreate(t *testing.T) {
	conn, mock := newRepoMock(t)
	repo := NewStudentRepository(conn, testOptions())

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO students (first_name, last_name, email, date_of_birth, enrollment_date, status)")).
		WithArgs("Ahmed", "Hosny", "ahmedhosny@me.com", "2000-01-01", "2020-01-01", "Active").
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectCommit()

	student, err := repo.Create(context.Background(), ahmed())
	require.NoError(t, err)
	assert.Equal(t, int64(7), student.ID)
	assert.Equal(t, "Ahmed Hosny", student.FullName())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryCreateRejectsInvalidInput(t *testing.T) {
	conn, mock := newRepoMock(t)
	repo := NewStudentRepository(conn, testOptions())

	in := ahmed()
	in.FirstName = "A"
	in.EnrollmentDate = models.Date(2030, time.January, 1)

	mock.ExpectBegin()
	mock.ExpectRollback()

	student, err := repo.Create(context.Background(), in)
	require.Error(t, err)
	assert.Nil(t, student)

	appErr := apperrors.FromError(err)
	assert.Equal(t, apperrors.ErrValidation.Code, appErr.Code)
	assert.Len(t, appErr.Violations, 2)
	assert.Contains(t, appErr.Message, "Enrollment date cannot be in the future")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryCreateDuplicateEmail(t *testing.T) {
	conn, mock := newRepoMock(t)
	repo := NewStudentRepository(conn, testOptions())

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO students").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'ahmedhosny@me.com' for key 'email'"})
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), ahmed())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrConflict))
	assert.NotContains(t, apperrors.Message(err, ""), "Duplicate entry")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryGetByID(t *testing.T) {
	conn, mock := newRepoMock(t)
	repo := NewStudentRepository(conn, testOptions())

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+studentColumns+" FROM students WHERE id = ?")).
		WithArgs(int64(3)).
		WillReturnRows(studentRows().AddRow(3, "Sara", "Adel", "sara@example.com",
			models.Date(2001, time.March, 2), models.Date(2021, time.September, 1), "On Leave"))
	mock.ExpectCommit()

	student, err := repo.GetByID(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, models.StudentStatusOnLeave, student.Status)
	assert.Equal(t, models.Date(2001, time.March, 2), student.DateOfBirth)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryGetByIDNotFound(t *testing.T) {
	conn, mock := newRepoMock(t)
	repo := NewStudentRepository(conn, testOptions())

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM students WHERE id").WithArgs(int64(42)).WillReturnRows(studentRows())
	mock.ExpectRollback()

	student, err := repo.GetByID(context.Background(), 42)
	assert.Nil(t, student)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.Equal(t, "Student with ID 42 not found", apperrors.Message(err, ""))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryGetByIDCorruptStatus(t *testing.T) {
	conn, mock := newRepoMock(t)
	repo := NewStudentRepository(conn, testOptions())

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM students WHERE id").
		WillReturnRows(studentRows().AddRow(3, "Sara", "Adel", "sara@example.com",
			models.Date(2001, time.March, 2), models.Date(2021, time.September, 1), "Expelled"))
	mock.ExpectRollback()

	_, err := repo.GetByID(context.Background(), 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidEnum))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryGetAllEmpty(t *testing.T) {
	conn, mock := newRepoMock(t)
	repo := NewStudentRepository(conn, testOptions())

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM students ORDER BY last_name").WillReturnRows(studentRows())
	mock.ExpectCommit()

	students, err := repo.GetAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, students)
	assert.Empty(t, students)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryUpdateRequiresID(t *testing.T) {
	conn, mock := newRepoMock(t)
	repo := NewStudentRepository(conn, testOptions())

	err := repo.Update(context.Background(), ahmed())
	assert.True(t, errors.Is(err, apperrors.ErrInvalidArgument))
	assert.Equal(t, "Student ID cannot be null", apperrors.Message(err, ""))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryUpdate(t *testing.T) {
	conn, mock := newRepoMock(t)
	repo := NewStudentRepository(conn, testOptions())

	in := ahmed()
	in.ID = int64Ptr(5)
	in.Status = models.StudentStatusGraduated

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM students WHERE id = ?")).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectExec("UPDATE students SET").
		WithArgs("Ahmed", "Hosny", "ahmedhosny@me.com", "2000-01-01", "2020-01-01", "Graduated", int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	require.NoError(t, repo.Update(context.Background(), in))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryUpdateMissing(t *testing.T) {
	conn, mock := newRepoMock(t)
	repo := NewStudentRepository(conn, testOptions())

	in := ahmed()
	in.ID = int64Ptr(9)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM students WHERE id = ?")).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))
	mock.ExpectRollback()

	err := repo.Update(context.Background(), in)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.Equal(t, "Student with ID 9 not found", apperrors.Message(err, ""))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryDelete(t *testing.T) {
	conn, mock := newRepoMock(t)
	repo := NewStudentRepository(conn, testOptions())

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM students WHERE id = ?")).
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	require.NoError(t, repo.Delete(context.Background(), 4))

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM students WHERE id = ?")).
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()
	err := repo.Delete(context.Background(), 4)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositorySearch(t *testing.T) {
	conn, mock := newRepoMock(t)
	repo := NewStudentRepository(conn, testOptions())

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM students\\s+WHERE LOWER\\(first_name\\) LIKE").
		WithArgs("%ahm%", "%ahm%", "%ahm%").
		WillReturnRows(studentRows().AddRow(1, "Ahmed", "Hosny", "ahmedhosny@me.com",
			models.Date(2000, time.January, 1), models.Date(2020, time.January, 1), "Active"))
	mock.ExpectCommit()

	students, err := repo.Search(context.Background(), "  AHM ")
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "Ahmed", students[0].FirstName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryFindByStatus(t *testing.T) {
	conn, mock := newRepoMock(t)
	repo := NewStudentRepository(conn, testOptions())

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM students WHERE status = ").
		WithArgs("Suspended").
		WillReturnRows(studentRows())
	mock.ExpectCommit()

	students, err := repo.FindByStatus(context.Background(), models.StudentStatusSuspended)
	require.NoError(t, err)
	assert.Empty(t, students)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLikePatternEscapesWildcards(t *testing.T) {
	assert.Equal(t, "%ahm%", likePattern("  Ahm "))
	assert.Equal(t, "%!_!%!!%", likePattern("_%!"))
}
