package models

import "time"

// Instructor teaches courses within a department.
type Instructor struct {
	ID         int64     `db:"id" json:"id"`
	FirstName  string    `db:"first_name" json:"first_name"`
	LastName   string    `db:"last_name" json:"last_name"`
	Email      string    `db:"email" json:"email"`
	Department string    `db:"department" json:"department"`
	HireDate   time.Time `db:"hire_date" json:"hire_date"`
}

// Validate returns every rule the current field values violate.
func (i *Instructor) Validate(clock Clock) []string {
	errs := ValidatePersonFields(i.FirstName, i.LastName, i.Email)

	if len(i.Department) < 2 {
		errs = append(errs, "Department must be at least 2 characters long")
	}

	if DateOf(i.HireDate).After(Today(clock)) {
		errs = append(errs, "Hire date cannot be in the future")
	}

	return errs
}
