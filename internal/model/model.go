package model

import "time"

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

const (
	RoleSuperAdmin  = "super_admin"
	RoleSchoolAdmin = "sch_admin"
	RoleTeacher     = "teacher"
	RoleStudent     = "student"
	RoleParent      = "parent"
)

// School is a tenant record in the global store. A school resolves to
// exactly one database name for its lifetime.
type School struct {
	SchoolID string
	Name     string
	DBName   string
	Status   string
}

type Admin struct {
	AdminID      string
	Username     string
	Email        string
	PasswordHash string
	Role         string
	Status       string
	CreatedAt    time.Time
}

// TenantUser is a credentialed identity owned by a school. The ID field
// name in storage varies by role (teacher_id, student_id, parent_id,
// user_id for school admins).
type TenantUser struct {
	ID           string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         string
	Status       string
}

// EmailRecord is a row of the global email registry, a fast index of
// which school and role an email belongs to. SchoolID is empty for
// global admins.
type EmailRecord struct {
	Email    string
	Role     string
	SchoolID string
	UserID   string
	Status   string
}
