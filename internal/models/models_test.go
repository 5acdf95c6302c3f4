package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRoleOf(t *testing.T) {
	tests := []struct {
		name string
		user *User
		want Role
	}{
		{"guest", nil, RoleGuest},
		{"student", &User{}, RoleStudent},
		{"trainee", &User{Trainee: true}, RoleTrainee},
		{"adviser", &User{Adviser: true}, RoleAdviser},
		{"mentor", &User{Mentor: true, Adviser: true}, RoleMentor},
		{"admin wins", &User{Admin: true, Mentor: true}, RoleAdmin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RoleOf(tt.user))
		})
	}
}

func TestUser_IsStaff(t *testing.T) {
	var guest *User
	assert.False(t, guest.IsStaff())
	assert.True(t, (&User{Admin: true}).IsStaff())
	assert.True(t, (&User{Mentor: true}).IsStaff())
	assert.False(t, (&User{Adviser: true}).IsStaff())
}

func TestUser_IsInactive(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	recent := now.Add(-InactiveAfter + time.Hour)
	stale := now.Add(-InactiveAfter - time.Hour)

	assert.False(t, (&User{}).IsInactive(now), "never active")
	assert.False(t, (&User{LastActivityAt: &recent}).IsInactive(now))
	assert.True(t, (&User{LastActivityAt: &stale}).IsInactive(now))
}

func TestUser_IsActiveLearner(t *testing.T) {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.True(t, (&User{}).IsActiveLearner())
	assert.True(t, (&User{Trainee: true}).IsActiveLearner())
	assert.False(t, (&User{Mentor: true}).IsActiveLearner())
	assert.False(t, (&User{GraduatedOn: &day}).IsActiveLearner())
	assert.False(t, (&User{RetiredOn: &day}).IsActiveLearner())
	assert.False(t, (&User{Hibernated: true}).IsActiveLearner())
}

func TestUser_RoleLabel(t *testing.T) {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "admin", (&User{Admin: true, Mentor: true}).RoleLabel())
	assert.Equal(t, "mentor", (&User{Mentor: true}).RoleLabel())
	assert.Equal(t, "adviser", (&User{Adviser: true}).RoleLabel())
	assert.Equal(t, "retired", (&User{RetiredOn: &day, GraduatedOn: &day}).RoleLabel())
	assert.Equal(t, "graduate", (&User{GraduatedOn: &day, Trainee: true}).RoleLabel())
	assert.Equal(t, "trainee", (&User{Trainee: true}).RoleLabel())
	assert.Equal(t, "student", (&User{}).RoleLabel())

	s := (&User{ID: 7, LoginName: "kimura", Mentor: true}).Summary("/a.png")
	assert.Equal(t, UserSummary{ID: 7, LoginName: "kimura", Role: "mentor", AvatarURL: "/a.png"}, s)
}

func TestProduct_ElapsedDays(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	published := now.Add(-49 * time.Hour)

	p := Product{CreatedAt: now.Add(-10 * 24 * time.Hour), PublishedAt: &published}
	assert.Equal(t, published, p.SubmittedAt())
	assert.Equal(t, 2, p.ElapsedDays(now))

	p = Product{CreatedAt: now.Add(-23 * time.Hour)}
	assert.Equal(t, 0, p.ElapsedDays(now))

	p = Product{CreatedAt: now.Add(time.Hour)}
	assert.Equal(t, 0, p.ElapsedDays(now), "future timestamps clamp to zero")
}
