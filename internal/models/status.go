package models

import (
	"database/sql/driver"
	"fmt"
)

// InvalidEnumValueError signals a status string outside its closed set.
// Read from storage it means the row is corrupt.
type InvalidEnumValueError struct {
	Enum  string
	Value string
}

func (e *InvalidEnumValueError) Error() string {
	return fmt.Sprintf("Invalid %s: %s", e.Enum, e.Value)
}

// StudentStatus is the lifecycle state of a student.
type StudentStatus string

const (
	StudentStatusActive    StudentStatus = "Active"
	StudentStatusSuspended StudentStatus = "Suspended"
	StudentStatusGraduated StudentStatus = "Graduated"
	StudentStatusOnLeave   StudentStatus = "On Leave"
	StudentStatusWithdrawn StudentStatus = "Withdrawn"
)

// StudentStatuses lists every accepted student status label.
func StudentStatuses() []StudentStatus {
	return []StudentStatus{StudentStatusActive, StudentStatusSuspended, StudentStatusGraduated, StudentStatusOnLeave, StudentStatusWithdrawn}
}

// ParseStudentStatus converts a stored label.
func ParseStudentStatus(raw string) (StudentStatus, error) {
	return parseEnum("student status", raw, StudentStatuses())
}

// Valid returns true when the status is a supported value.
func (s StudentStatus) Valid() bool { return contains(StudentStatuses(), s) }

// Scan implements sql.Scanner.
func (s *StudentStatus) Scan(src interface{}) error {
	return scanEnum(src, s, ParseStudentStatus)
}

// Value implements driver.Valuer.
func (s StudentStatus) Value() (driver.Value, error) { return string(s), nil }

// CourseStatus is the lifecycle state of a course.
type CourseStatus string

const (
	CourseStatusActive   CourseStatus = "Active"
	CourseStatusInactive CourseStatus = "Inactive"
	CourseStatusArchived CourseStatus = "Archived"
)

// CourseStatuses lists every accepted course status label.
func CourseStatuses() []CourseStatus {
	return []CourseStatus{CourseStatusActive, CourseStatusInactive, CourseStatusArchived}
}

// ParseCourseStatus converts a stored label.
func ParseCourseStatus(raw string) (CourseStatus, error) {
	return parseEnum("course status", raw, CourseStatuses())
}

// Valid returns true when the status is a supported value.
func (s CourseStatus) Valid() bool { return contains(CourseStatuses(), s) }

// Scan implements sql.Scanner.
func (s *CourseStatus) Scan(src interface{}) error {
	return scanEnum(src, s, ParseCourseStatus)
}

// Value implements driver.Valuer.
func (s CourseStatus) Value() (driver.Value, error) { return string(s), nil }

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

const (
	EnrollmentStatusEnrolled  EnrollmentStatus = "Enrolled"
	EnrollmentStatusDropped   EnrollmentStatus = "Dropped"
	EnrollmentStatusCompleted EnrollmentStatus = "Completed"
	EnrollmentStatusWithdrawn EnrollmentStatus = "Withdrawn"
)

// EnrollmentStatuses lists every accepted enrollment status label.
func EnrollmentStatuses() []EnrollmentStatus {
	return []EnrollmentStatus{EnrollmentStatusEnrolled, EnrollmentStatusDropped, EnrollmentStatusCompleted, EnrollmentStatusWithdrawn}
}

// ParseEnrollmentStatus converts a stored label.
func ParseEnrollmentStatus(raw string) (EnrollmentStatus, error) {
	return parseEnum("enrollment status", raw, EnrollmentStatuses())
}

// Valid returns true when the status is a supported value.
func (s EnrollmentStatus) Valid() bool { return contains(EnrollmentStatuses(), s) }

// Scan implements sql.Scanner.
func (s *EnrollmentStatus) Scan(src interface{}) error {
	return scanEnum(src, s, ParseEnrollmentStatus)
}

// Value implements driver.Valuer.
func (s EnrollmentStatus) Value() (driver.Value, error) { return string(s), nil }

// AttendanceStatus represents the status for attendance records.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "Present"
	AttendanceStatusAbsent  AttendanceStatus = "Absent"
	AttendanceStatusLate    AttendanceStatus = "Late"
	AttendanceStatusExcused AttendanceStatus = "Excused"
)

// AttendanceStatuses lists every accepted attendance status label.
func AttendanceStatuses() []AttendanceStatus {
	return []AttendanceStatus{AttendanceStatusPresent, AttendanceStatusAbsent, AttendanceStatusLate, AttendanceStatusExcused}
}

// ParseAttendanceStatus converts a stored label.
func ParseAttendanceStatus(raw string) (AttendanceStatus, error) {
	return parseEnum("attendance status", raw, AttendanceStatuses())
}

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool { return contains(AttendanceStatuses(), s) }

// Scan implements sql.Scanner.
func (s *AttendanceStatus) Scan(src interface{}) error {
	return scanEnum(src, s, ParseAttendanceStatus)
}

// Value implements driver.Valuer.
func (s AttendanceStatus) Value() (driver.Value, error) { return string(s), nil }

func parseEnum[T ~string](name, raw string, all []T) (T, error) {
	for _, candidate := range all {
		if string(candidate) == raw {
			return candidate, nil
		}
	}
	var zero T
	return zero, &InvalidEnumValueError{Enum: name, Value: raw}
}

func scanEnum[T ~string](src interface{}, dst *T, parse func(string) (T, error)) error {
	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	case nil:
		raw = ""
	default:
		raw = fmt.Sprint(v)
	}
	parsed, err := parse(raw)
	if err != nil {
		return err
	}
	*dst = parsed
	return nil
}

func contains[T comparable](all []T, v T) bool {
	for _, candidate := range all {
		if candidate == v {
			return true
		}
	}
	return false
}
