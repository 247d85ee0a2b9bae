package models

import "time"

// Attendance is one record per enrollment per day.
type Attendance struct {
	ID           int64            `db:"id" json:"id"`
	EnrollmentID int64            `db:"enrollment_id" json:"enrollment_id"`
	Date         time.Time        `db:"date" json:"date"`
	Status       AttendanceStatus `db:"status" json:"status"`
}

// AttendanceDetail extends the record with student and course metadata.
type AttendanceDetail struct {
	Attendance
	StudentID        int64  `db:"student_id" json:"student_id"`
	StudentFirstName string `db:"student_first_name" json:"student_first_name"`
	StudentLastName  string `db:"student_last_name" json:"student_last_name"`
	CourseID         int64  `db:"course_id" json:"course_id"`
	CourseCode       string `db:"course_code" json:"course_code"`
}

// Validate returns every rule the current field values violate.
func (a *Attendance) Validate(clock Clock) []string {
	var errs []string

	if a.Date.IsZero() {
		errs = append(errs, "Attendance date is required")
	} else if DateOf(a.Date).After(Today(clock)) {
		errs = append(errs, "Attendance date cannot be in the future")
	}

	if !a.Status.Valid() {
		errs = append(errs, invalidStatus("attendance status", a.Status, AttendanceStatuses()))
	}

	return errs
}
