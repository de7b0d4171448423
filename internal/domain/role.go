package domain

import "strings"

// Role is the closed set of editorial roles, ordered from least to most
// privileged.
type Role string

const (
	RoleUser         Role = "user"
	RoleCourseEditor Role = "course_editor"
	RoleNewsEditor   Role = "news_editor"
	RoleThemeEditor  Role = "theme_editor"
	RoleAdmin        Role = "admin"
	RoleOwner        Role = "owner"
)

var roleRanks = map[Role]int{
	RoleUser:         0,
	RoleCourseEditor: 1,
	RoleNewsEditor:   2,
	RoleThemeEditor:  3,
	RoleAdmin:        4,
	RoleOwner:        5,
}

// Rank returns the position of the role in the total order. Unknown values
// rank lowest, same as RoleUser.
func (r Role) Rank() int {
	return roleRanks[r]
}

// Satisfies reports whether the role meets the required minimum.
func (r Role) Satisfies(required Role) bool {
	return r.Rank() >= required.Rank()
}

// ParseRole maps a string onto a known role. It rejects anything outside the
// closed set.
func ParseRole(s string) (Role, bool) {
	role := Role(strings.TrimSpace(s))
	if _, ok := roleRanks[role]; !ok {
		return RoleUser, false
	}
	return role, true
}

// OwnerList is the deployment-time set of emails that are always treated as
// owners, regardless of the role stored for them.
type OwnerList map[string]struct{}

func NewOwnerList(emails []string) OwnerList {
	list := make(OwnerList, len(emails))
	for _, email := range emails {
		email = strings.ToLower(strings.TrimSpace(email))
		if email == "" {
			continue
		}
		list[email] = struct{}{}
	}
	return list
}

func (o OwnerList) Contains(email string) bool {
	_, ok := o[strings.ToLower(strings.TrimSpace(email))]
	return ok
}

// Effective applies the owner overlay to a stored role.
func (o OwnerList) Effective(email string, stored Role) Role {
	if o.Contains(email) {
		return RoleOwner
	}
	return stored
}
