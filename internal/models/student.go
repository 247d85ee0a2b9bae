package models

import "time"

// Student represents a learner registered in the institution.
type Student struct {
	ID             int64         `db:"id" json:"id"`
	FirstName      string        `db:"first_name" json:"first_name"`
	LastName       string        `db:"last_name" json:"last_name"`
	Email          string        `db:"email" json:"email"`
	DateOfBirth    time.Time     `db:"date_of_birth" json:"date_of_birth"`
	EnrollmentDate time.Time     `db:"enrollment_date" json:"enrollment_date"`
	Status         StudentStatus `db:"status" json:"status"`
}

// Validate returns every rule the current field values violate.
//
// Age is currentYear - birthYear and ignores month and day, so a student born late in the
// year counts as one year older than they are until their birthday.
func (s *Student) Validate(clock Clock) []string {
	errs := ValidatePersonFields(s.FirstName, s.LastName, s.Email)
	today := Today(clock)

	if !DateOf(s.DateOfBirth).Before(today) {
		errs = append(errs, "Date of birth must be in the past")
	}
	age := today.Year() - s.DateOfBirth.Year()
	if age < 16 || age > 100 {
		errs = append(errs, "Student must be between 16 and 100 years old")
	}

	if DateOf(s.EnrollmentDate).After(today) {
		errs = append(errs, "Enrollment date cannot be in the future")
	}

	if !s.Status.Valid() {
		errs = append(errs, invalidStatus("student status", s.Status, StudentStatuses()))
	}

	return errs
}

// FullName joins first and last name.
func (s *Student) FullName() string {
	return s.FirstName + " " + s.LastName
}
