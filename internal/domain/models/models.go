package models

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

var rolePrivilege = map[Role]int{
	RoleUser:      1,
	RoleModerator: 2,
	RoleAdmin:     3,
}

func (r Role) Valid() bool {
	_, ok := rolePrivilege[r]
	return ok
}

// AtLeast reports whether r sits at or above other in the role hierarchy
// (user < moderator < admin).
func (r Role) AtLeast(other Role) bool {
	return rolePrivilege[r] >= rolePrivilege[other]
}

type User struct {
	ID          int64     `json:"-"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Bio         string    `json:"bio"`
	Role        Role      `json:"role"`
	IsSuperuser bool      `json:"-"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}

var AnonymousUser = &User{}

func (u *User) IsAnonymous() bool {
	return u == nil || u.ID == 0
}

// EffectiveRole applies the superuser override: a superuser acts as an admin
// no matter what role is stored on the record.
func (u *User) EffectiveRole() Role {
	if u.IsSuperuser {
		return RoleAdmin
	}
	return u.Role
}

func (u *User) IsAdmin() bool {
	return u.EffectiveRole() == RoleAdmin
}

func (u *User) IsModerator() bool {
	return u.Role == RoleModerator
}

type Category struct {
	ID   int64  `json:"-"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Genre struct {
	ID   int64  `json:"-"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Title struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Year        int32     `json:"year"`
	Rating      *float64  `json:"rating"` // mean review score, nil until the first review
	Description string    `json:"description"`
	Genres      []Genre   `json:"genre"`
	Category    *Category `json:"category"`
}

type Review struct {
	ID       int64     `json:"id"`
	TitleID  int64     `json:"-"`
	Title    string    `json:"title"`  // title name
	AuthorID int64     `json:"-"`
	Author   string    `json:"author"` // author username
	Text     string    `json:"text"`
	Score    int32     `json:"score"`
	PubDate  time.Time `json:"pub_date"`
}

type Comment struct {
	ID       int64     `json:"id"`
	ReviewID int64     `json:"-"`
	AuthorID int64     `json:"-"`
	Author   string    `json:"author"`
	Text     string    `json:"text"`
	PubDate  time.Time `json:"pub_date"`
}
