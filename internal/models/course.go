package models

// Course is a unit of study optionally taught by an instructor.
type Course struct {
	ID           int64        `db:"id" json:"id"`
	CourseCode   string       `db:"course_code" json:"course_code"`
	Title        string       `db:"title" json:"title"`
	Description  *string      `db:"description" json:"description,omitempty"`
	Credits      int          `db:"credits" json:"credits"`
	InstructorID *int64       `db:"instructor_id" json:"instructor_id,omitempty"`
	MaxStudents  *int         `db:"max_students" json:"max_students,omitempty"`
	Status       CourseStatus `db:"status" json:"status"`
}

// Validate returns every rule the current field values violate.
func (c *Course) Validate() []string {
	errs := ValidateCourseCode(c.CourseCode)

	if len(c.Title) < 4 {
		errs = append(errs, "Title must be at least 4 characters long")
	}

	if c.Credits < 1 || c.Credits > 6 {
		errs = append(errs, "Credits must be between 1 and 6")
	}

	if c.MaxStudents != nil && (*c.MaxStudents < 1 || *c.MaxStudents > 200) {
		errs = append(errs, "Maximum students must be between 1 and 200")
	}

	if !c.Status.Valid() {
		errs = append(errs, invalidStatus("course status", c.Status, CourseStatuses()))
	}

	return errs
}
