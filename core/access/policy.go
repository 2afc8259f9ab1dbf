// Package access centralizes the role → permission mapping consulted by
// every API endpoint. The policy is a pure lookup table; it performs no IO.
package access

import "github.com/mlezi/darasa/core/user"

// RoleAnonymous marks an unauthenticated caller.
const RoleAnonymous = ""

type Action string

const (
	ActionRead            Action = "read"
	ActionCreate          Action = "create"
	ActionUpdate          Action = "update"
	ActionDelete          Action = "delete"
	ActionSubmit          Action = "submit"
	ActionReadSubmissions Action = "read_submissions"
)

type Resource string

const (
	ResourceUser         Resource = "users"
	ResourceClass        Resource = "classes"
	ResourceAnnouncement Resource = "announcements"
	ResourceAssignment   Resource = "assignments"
	ResourceEvent        Resource = "events"
	ResourceMedia        Resource = "media"
)

type Verdict int

const (
	// Unauthorized: caller must authenticate first (HTTP 401).
	Unauthorized Verdict = iota
	// Forbidden: caller is authenticated but under-privileged (HTTP 403).
	Forbidden
	// Granted: permitted, unscoped.
	Granted
	// GrantedOwn: permitted, but scoped to the caller's own classes,
	// assignments or submissions. Scope enforcement lives in the services.
	GrantedOwn
)

func (v Verdict) Allowed() bool { return v == Granted || v == GrantedOwn }

type rule struct {
	role     string
	action   Action
	resource Resource
}

var rules = map[rule]Verdict{}

func grant(verdict Verdict, roles []string, actions []Action, resources ...Resource) {
	for _, role := range roles {
		for _, action := range actions {
			for _, res := range resources {
				rules[rule{role, action, res}] = verdict
			}
		}
	}
}

func init() {
	var (
		students  = []string{user.RoleStudent}
		teachers  = []string{user.RoleTeacher}
		admins    = []string{user.RoleAdmin}
		staff     = []string{user.RoleTeacher, user.RoleAdmin}
		everyone  = []string{RoleAnonymous, user.RoleStudent, user.RoleTeacher, user.RoleAdmin}

		read    = []Action{ActionRead}
		mutate  = []Action{ActionCreate, ActionUpdate, ActionDelete}
		all     = []Action{ActionRead, ActionCreate, ActionUpdate, ActionDelete}
		publics = []Resource{ResourceAnnouncement, ResourceEvent, ResourceMedia}
	)

	// global announcements, events and media are world-readable; listings
	// are narrowed to global content for anonymous callers by the services
	grant(Granted, everyone, read, publics...)
	grant(GrantedOwn, students, read, ResourceAnnouncement)
	grant(GrantedOwn, teachers, read, ResourceAnnouncement)

	// classes & assignments: members see their own, admin sees all
	grant(GrantedOwn, students, read, ResourceClass, ResourceAssignment)
	grant(GrantedOwn, teachers, read, ResourceClass, ResourceAssignment)
	grant(Granted, admins, read, ResourceClass, ResourceAssignment)

	// content management
	grant(Granted, staff, mutate, ResourceAnnouncement, ResourceAssignment, ResourceEvent, ResourceClass)
	grant(Granted, admins, mutate, ResourceMedia)

	// user administration
	grant(Granted, admins, all, ResourceUser)

	// assignment submissions
	grant(GrantedOwn, students, []Action{ActionSubmit}, ResourceAssignment)
	grant(GrantedOwn, teachers, []Action{ActionReadSubmissions}, ResourceAssignment)
	grant(Granted, admins, []Action{ActionReadSubmissions}, ResourceAssignment)
}

// Can resolves the policy for a (role, action, resource) triple. Unknown
// triples deny: Unauthorized for anonymous callers, Forbidden otherwise.
// The decision is made before any mutation; there is no partial success.
func Can(role string, action Action, resource Resource) Verdict {
	if v, ok := rules[rule{role, action, resource}]; ok {
		return v
	}
	if role == RoleAnonymous {
		return Unauthorized
	}
	return Forbidden
}
