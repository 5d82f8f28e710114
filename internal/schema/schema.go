package schema

// RoleSchema names the collection and id column a tenant-store role is
// stored under.
type RoleSchema struct {
	Table    string
	IDColumn string
}

var byRole = map[string]RoleSchema{
	"teacher": {Table: "teachers", IDColumn: "teacher_id"},
	"student": {Table: "students", IDColumn: "student_id"},
	"parent":  {Table: "parents", IDColumn: "parent_id"},
}

// ForRole returns the tenant-store schema for a role. sch_admin and
// super_admin identities live in the global store and have no entry here.
func ForRole(role string) (RoleSchema, bool) {
	s, ok := byRole[role]
	return s, ok
}
