package users

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fjord-bootcamp/backend/internal/models"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func int64p(v int64) *int64 { return &v }

func TestBuildProfile_RoleConditionalFields(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	lastSeen := now.Add(-40 * 24 * time.Hour)
	subject := &models.User{
		ID: 10, LoginName: "kensyu", Trainee: true, CompanyID: int64p(3),
		TrainingEndsOn: date(2024, 5, 20), RetireReason: "moved", LastActivityAt: &lastSeen,
		CreatedAt: now.AddDate(-1, 0, 0),
	}
	unchecked := []models.Product{{ID: 7}}

	admin := &models.User{ID: 1, Admin: true}
	p := BuildProfile(ProfileInput{Viewer: admin, User: subject, TalkID: 33, Unchecked: unchecked, Now: now})
	assert.Equal(t, "moved", p.RetireReason)
	assert.Equal(t, &lastSeen, p.LastActivityAt)
	assert.True(t, p.Inactive)
	assert.Equal(t, "/talks/33", p.TalkPath)
	assert.Equal(t, "/api/users/10/reports.csv", p.ReportsCSVPath)
	assert.Equal(t, unchecked, p.UncheckedProducts)
	assert.Equal(t, date(2024, 5, 20), p.TrainingEndsOn)
	assert.Zero(t, p.DaysToGraduate)
	assert.True(t, p.CanAdmin)
	assert.True(t, p.CanFollow)
	assert.Empty(t, p.EditPath)
	assert.Equal(t, "trainee", p.User.Role)

	mentor := &models.User{ID: 2, Mentor: true}
	p = BuildProfile(ProfileInput{Viewer: mentor, User: subject, TalkID: 33, Now: now})
	assert.Empty(t, p.RetireReason)
	assert.Empty(t, p.TalkPath)
	assert.NotNil(t, p.LastActivityAt)
	assert.False(t, p.CanAdmin)

	adviser := &models.User{ID: 3, Adviser: true, CompanyID: int64p(3)}
	p = BuildProfile(ProfileInput{Viewer: adviser, User: subject, Now: now})
	assert.True(t, p.OwnTrainee)
	assert.False(t, p.CanFollow)
	assert.Nil(t, p.LastActivityAt)
	assert.Empty(t, p.ReportsCSVPath)

	other := &models.User{ID: 4, Adviser: true, CompanyID: int64p(8)}
	p = BuildProfile(ProfileInput{Viewer: other, User: subject, Now: now})
	assert.False(t, p.OwnTrainee)
	assert.True(t, p.CanFollow)

	p = BuildProfile(ProfileInput{Viewer: subject, User: subject, Now: now})
	assert.Equal(t, EditProfilePath, p.EditPath)
	assert.False(t, p.CanFollow)
	assert.False(t, p.Inactive)
}

func TestBuildProfile_AdminSubjectHasNoTalkLink(t *testing.T) {
	admin := &models.User{ID: 1, Admin: true}
	other := &models.User{ID: 5, Admin: true}
	p := BuildProfile(ProfileInput{Viewer: admin, User: other, TalkID: 9, Now: time.Now()})
	assert.Empty(t, p.TalkPath)
}

func TestBuildProfile_DaysToGraduate(t *testing.T) {
	now := time.Date(2024, 5, 10, 15, 0, 0, 0, time.UTC)
	viewer := &models.User{ID: 9}

	graduated := &models.User{ID: 11, CreatedAt: now.AddDate(0, 0, -1), GraduatedOn: date(2024, 5, 10)}
	assert.Equal(t, 1, BuildProfile(ProfileInput{Viewer: viewer, User: graduated, Now: now}).DaysToGraduate)

	graduated = &models.User{ID: 11, CreatedAt: time.Date(2023, 5, 10, 23, 0, 0, 0, time.UTC), GraduatedOn: date(2024, 5, 10)}
	assert.Equal(t, 366, BuildProfile(ProfileInput{Viewer: viewer, User: graduated, Now: now}).DaysToGraduate)

	backwards := &models.User{ID: 12, CreatedAt: now, GraduatedOn: date(2024, 5, 9)}
	assert.Zero(t, BuildProfile(ProfileInput{Viewer: viewer, User: backwards, Now: now}).DaysToGraduate)

	sameDay := &models.User{ID: 13, CreatedAt: now, GraduatedOn: date(2024, 5, 10)}
	assert.Zero(t, BuildProfile(ProfileInput{Viewer: viewer, User: sameDay, Now: now}).DaysToGraduate)

	assert.Zero(t, BuildProfile(ProfileInput{Viewer: viewer, User: &models.User{ID: 14, CreatedAt: now}, Now: now}).DaysToGraduate)
}

func TestDaysBetween(t *testing.T) {
	from := time.Date(2024, 5, 10, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, 1, daysBetween(from, *date(2024, 5, 11)))
	assert.Equal(t, 0, daysBetween(from, *date(2024, 5, 10)))
	assert.Equal(t, -9, daysBetween(from, *date(2024, 5, 1)))
	assert.Equal(t, 31, daysBetween(from, *date(2024, 6, 10)))
}
