package models

import (
	"time"

	"github.com/shopspring/decimal"
)

var (
	minGrade = decimal.RequireFromString("0.00")
	maxGrade = decimal.RequireFromString("4.00")
)

// Enrollment captures a student's registration to a course.
type Enrollment struct {
	ID             int64               `db:"id" json:"id"`
	StudentID      int64               `db:"student_id" json:"student_id"`
	CourseID       int64               `db:"course_id" json:"course_id"`
	EnrollmentDate time.Time           `db:"enrollment_date" json:"enrollment_date"`
	Grade          decimal.NullDecimal `db:"grade" json:"grade"`
	Status         EnrollmentStatus    `db:"status" json:"status"`
}

// EnrollmentDetail enriches Enrollment with student and course info.
type EnrollmentDetail struct {
	Enrollment
	StudentFirstName string `db:"student_first_name" json:"student_first_name"`
	StudentLastName  string `db:"student_last_name" json:"student_last_name"`
	StudentEmail     string `db:"student_email" json:"student_email"`
	CourseCode       string `db:"course_code" json:"course_code"`
	CourseTitle      string `db:"course_title" json:"course_title"`
}

// Validate returns every rule the current field values violate.
func (e *Enrollment) Validate(clock Clock) []string {
	var errs []string

	if DateOf(e.EnrollmentDate).After(Today(clock)) {
		errs = append(errs, "Enrollment date cannot be in the future")
	}

	if e.Grade.Valid && (e.Grade.Decimal.LessThan(minGrade) || e.Grade.Decimal.GreaterThan(maxGrade)) {
		errs = append(errs, "Grade must be between 0.00 and 4.00")
	}

	if !e.Status.Valid() {
		errs = append(errs, invalidStatus("enrollment status", e.Status, EnrollmentStatuses()))
	}

	return errs
}
