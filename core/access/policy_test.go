package access

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mlezi/darasa/core/user"
)

var (
	allRoles   = []string{RoleAnonymous, user.RoleStudent, user.RoleTeacher, user.RoleAdmin}
	allActions = []Action{
		ActionRead, ActionCreate, ActionUpdate, ActionDelete, ActionSubmit, ActionReadSubmissions,
	}
	allResources = []Resource{
		ResourceUser, ResourceClass, ResourceAnnouncement, ResourceAssignment, ResourceEvent, ResourceMedia,
	}
)

// expected encodes the whole policy table; every (role, action, resource)
// triple not listed here must deny.
var expected = map[rule]Verdict{
	// public reads
	{RoleAnonymous, ActionRead, ResourceAnnouncement}:    Granted,
	{RoleAnonymous, ActionRead, ResourceEvent}:           Granted,
	{RoleAnonymous, ActionRead, ResourceMedia}:           Granted,
	{user.RoleStudent, ActionRead, ResourceAnnouncement}: GrantedOwn,
	{user.RoleStudent, ActionRead, ResourceEvent}:        Granted,
	{user.RoleStudent, ActionRead, ResourceMedia}:        Granted,
	{user.RoleTeacher, ActionRead, ResourceAnnouncement}: GrantedOwn,
	{user.RoleTeacher, ActionRead, ResourceEvent}:        Granted,
	{user.RoleTeacher, ActionRead, ResourceMedia}:        Granted,
	{user.RoleAdmin, ActionRead, ResourceAnnouncement}:   Granted,
	{user.RoleAdmin, ActionRead, ResourceEvent}:          Granted,
	{user.RoleAdmin, ActionRead, ResourceMedia}:          Granted,

	// classes & assignments, membership scoped
	{user.RoleStudent, ActionRead, ResourceClass}:      GrantedOwn,
	{user.RoleStudent, ActionRead, ResourceAssignment}: GrantedOwn,
	{user.RoleTeacher, ActionRead, ResourceClass}:      GrantedOwn,
	{user.RoleTeacher, ActionRead, ResourceAssignment}: GrantedOwn,
	{user.RoleAdmin, ActionRead, ResourceClass}:        Granted,
	{user.RoleAdmin, ActionRead, ResourceAssignment}:   Granted,

	// content management
	{user.RoleTeacher, ActionCreate, ResourceAnnouncement}: Granted,
	{user.RoleTeacher, ActionUpdate, ResourceAnnouncement}: Granted,
	{user.RoleTeacher, ActionDelete, ResourceAnnouncement}: Granted,
	{user.RoleTeacher, ActionCreate, ResourceAssignment}:   Granted,
	{user.RoleTeacher, ActionUpdate, ResourceAssignment}:   Granted,
	{user.RoleTeacher, ActionDelete, ResourceAssignment}:   Granted,
	{user.RoleTeacher, ActionCreate, ResourceEvent}:        Granted,
	{user.RoleTeacher, ActionUpdate, ResourceEvent}:        Granted,
	{user.RoleTeacher, ActionDelete, ResourceEvent}:        Granted,
	{user.RoleTeacher, ActionCreate, ResourceClass}:        Granted,
	{user.RoleTeacher, ActionUpdate, ResourceClass}:        Granted,
	{user.RoleTeacher, ActionDelete, ResourceClass}:        Granted,
	{user.RoleAdmin, ActionCreate, ResourceAnnouncement}:   Granted,
	{user.RoleAdmin, ActionUpdate, ResourceAnnouncement}:   Granted,
	{user.RoleAdmin, ActionDelete, ResourceAnnouncement}:   Granted,
	{user.RoleAdmin, ActionCreate, ResourceAssignment}:     Granted,
	{user.RoleAdmin, ActionUpdate, ResourceAssignment}:     Granted,
	{user.RoleAdmin, ActionDelete, ResourceAssignment}:     Granted,
	{user.RoleAdmin, ActionCreate, ResourceEvent}:          Granted,
	{user.RoleAdmin, ActionUpdate, ResourceEvent}:          Granted,
	{user.RoleAdmin, ActionDelete, ResourceEvent}:          Granted,
	{user.RoleAdmin, ActionCreate, ResourceClass}:          Granted,
	{user.RoleAdmin, ActionUpdate, ResourceClass}:          Granted,
	{user.RoleAdmin, ActionDelete, ResourceClass}:          Granted,

	// media management is admin only
	{user.RoleAdmin, ActionCreate, ResourceMedia}: Granted,
	{user.RoleAdmin, ActionUpdate, ResourceMedia}: Granted,
	{user.RoleAdmin, ActionDelete, ResourceMedia}: Granted,

	// user administration is admin only
	{user.RoleAdmin, ActionRead, ResourceUser}:   Granted,
	{user.RoleAdmin, ActionCreate, ResourceUser}: Granted,
	{user.RoleAdmin, ActionUpdate, ResourceUser}: Granted,
	{user.RoleAdmin, ActionDelete, ResourceUser}: Granted,

	// submissions
	{user.RoleStudent, ActionSubmit, ResourceAssignment}:          GrantedOwn,
	{user.RoleTeacher, ActionReadSubmissions, ResourceAssignment}: GrantedOwn,
	{user.RoleAdmin, ActionReadSubmissions, ResourceAssignment}:   Granted,
}

// TestCan_CrossProduct checks every (role, action, resource) triple against
// the expected table: listed triples must match exactly, everything else must
// deny with Unauthorized for anonymous callers and Forbidden otherwise.
func TestCan_CrossProduct(t *testing.T) {
	for _, role := range allRoles {
		for _, action := range allActions {
			for _, res := range allResources {
				name := fmt.Sprintf("%s/%s/%s", displayRole(role), action, res)
				t.Run(name, func(t *testing.T) {
					want, ok := expected[rule{role, action, res}]
					if !ok {
						if role == RoleAnonymous {
							want = Unauthorized
						} else {
							want = Forbidden
						}
					}
					assert.Equal(t, want, Can(role, action, res))
				})
			}
		}
	}
}

func TestVerdictAllowed(t *testing.T) {
	assert.True(t, Granted.Allowed())
	assert.True(t, GrantedOwn.Allowed())
	assert.False(t, Unauthorized.Allowed())
	assert.False(t, Forbidden.Allowed())
}

func displayRole(role string) string {
	if role == RoleAnonymous {
		return "anonymous"
	}
	return role
}
