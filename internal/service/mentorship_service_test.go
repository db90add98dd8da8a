package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/laras-id/laras-api/internal/dto"
	"github.com/laras-id/laras-api/internal/models"
	"github.com/laras-id/laras-api/internal/repository"
)

func newMentorshipService(t *testing.T) (MentorshipService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewMentorshipService(
		repository.NewMentorshipRepository(db),
		repository.NewSessionRepository(db),
		repository.NewUserRepository(db),
		validate,
		nil,
		nil,
		zerolog.Nop(),
	)
	return svc, db
}

func seedMentor(t *testing.T, db *gorm.DB) models.User {
	t.Helper()
	mentor := models.User{Name: "Pak Harjo", Email: "harjo-" + t.Name() + "@example.com", Role: models.RoleMentor, IsActive: true}
	require.NoError(t, db.Create(&mentor).Error)
	return mentor
}

func acceptedMentorship(t *testing.T, svc MentorshipService, db *gorm.DB, studentID uint) (models.User, dto.MentorshipRequestResponse) {
	t.Helper()
	ctx := context.Background()
	mentor := seedMentor(t, db)
	student := ActivityActor{ID: studentID, Role: models.RoleStudent}

	request, err := svc.CreateRequest(ctx, dto.MentorshipRequestCreate{
		MentorID: mentor.ID,
		Message:  "I would like guidance on gender barung.",
	}, student)
	require.NoError(t, err)

	accepted, err := svc.Respond(ctx, request.ID, dto.MentorshipRespondRequest{
		Decision: models.MentorshipStatusAccepted,
	}, ActivityActor{ID: mentor.ID, Role: models.RoleMentor})
	require.NoError(t, err)
	return mentor, accepted
}

func TestCreateRequestRequiresMentorRole(t *testing.T) {
	svc, db := newMentorshipService(t)
	ctx := context.Background()

	student := models.User{Name: "Ani", Email: "ani@example.com", Role: models.RoleStudent, IsActive: true}
	require.NoError(t, db.Create(&student).Error)

	_, err := svc.CreateRequest(ctx, dto.MentorshipRequestCreate{
		MentorID: student.ID,
		Message:  "please mentor me in suling",
	}, ActivityActor{ID: 99, Role: models.RoleStudent})
	require.ErrorIs(t, err, ErrMentorNotFound)

	_, err = svc.CreateRequest(ctx, dto.MentorshipRequestCreate{
		MentorID: 404,
		Message:  "please mentor me in suling",
	}, ActivityActor{ID: 99, Role: models.RoleStudent})
	require.ErrorIs(t, err, ErrMentorNotFound)
}

func TestCancelRequestOnlyWhilePending(t *testing.T) {
	svc, db := newMentorshipService(t)
	ctx := context.Background()
	mentor := seedMentor(t, db)
	student := ActivityActor{ID: 40, Role: models.RoleStudent}

	request, err := svc.CreateRequest(ctx, dto.MentorshipRequestCreate{
		MentorID: mentor.ID,
		Message:  "interested in weekly rebab lessons",
	}, student)
	require.NoError(t, err)

	// Only the requesting student may withdraw.
	_, err = svc.CancelRequest(ctx, request.ID, ActivityActor{ID: mentor.ID, Role: models.RoleMentor})
	require.ErrorIs(t, err, ErrForbidden)
	_, err = svc.CancelRequest(ctx, request.ID, ActivityActor{ID: 99, Role: models.RoleStudent})
	require.ErrorIs(t, err, ErrForbidden)

	cancelled, err := svc.CancelRequest(ctx, request.ID, student)
	require.NoError(t, err)
	require.Equal(t, models.MentorshipStatusCancelled, cancelled.Status)

	// A withdrawn request cannot be cancelled or answered again.
	_, err = svc.CancelRequest(ctx, request.ID, student)
	require.ErrorIs(t, err, ErrAlreadyReviewed)
	_, err = svc.Respond(ctx, request.ID, dto.MentorshipRespondRequest{
		Decision: models.MentorshipStatusAccepted,
	}, ActivityActor{ID: mentor.ID, Role: models.RoleMentor})
	require.ErrorIs(t, err, ErrAlreadyReviewed)

	_, err = svc.CancelRequest(ctx, 999, student)
	require.ErrorIs(t, err, ErrMentorshipNotFound)

	// Withdrawal frees the pair for a fresh request.
	_, err = svc.CreateRequest(ctx, dto.MentorshipRequestCreate{
		MentorID: mentor.ID,
		Message:  "picking this up again next term",
	}, student)
	require.NoError(t, err)
}

func TestCancelRequestRejectsAnsweredRequests(t *testing.T) {
	svc, db := newMentorshipService(t)
	ctx := context.Background()
	_, accepted := acceptedMentorship(t, svc, db, 41)

	_, err := svc.CancelRequest(ctx, accepted.ID, ActivityActor{ID: 41, Role: models.RoleStudent})
	require.ErrorIs(t, err, ErrAlreadyReviewed)
}

func TestCreateRequestRejectsDuplicateAndShortMessage(t *testing.T) {
	svc, db := newMentorshipService(t)
	ctx := context.Background()
	mentor := seedMentor(t, db)
	student := ActivityActor{ID: 50, Role: models.RoleStudent}

	_, err := svc.CreateRequest(ctx, dto.MentorshipRequestCreate{
		MentorID: mentor.ID,
		Message:  "too short",
	}, student)
	require.Error(t, err)
	var validationErrs validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrs)

	_, err = svc.CreateRequest(ctx, dto.MentorshipRequestCreate{
		MentorID: mentor.ID,
		Message:  "I would like weekly rebab lessons.",
	}, student)
	require.NoError(t, err)

	_, err = svc.CreateRequest(ctx, dto.MentorshipRequestCreate{
		MentorID: mentor.ID,
		Message:  "Asking a second time while the first is open.",
	}, student)
	require.ErrorIs(t, err, ErrDuplicateMentorshipRequest)
}

func TestCreateRequestSanitizesMarkup(t *testing.T) {
	svc, db := newMentorshipService(t)
	ctx := context.Background()
	mentor := seedMentor(t, db)

	request, err := svc.CreateRequest(ctx, dto.MentorshipRequestCreate{
		MentorID: mentor.ID,
		Message:  "<b>Hello</b> I want to learn <script>alert(1)</script>gamelan",
	}, ActivityActor{ID: 51, Role: models.RoleStudent})
	require.NoError(t, err)
	require.NotContains(t, request.Message, "<")
	require.Contains(t, request.Message, "Hello")
	require.NotContains(t, request.Message, "alert(1)")
}

func TestRespondOnlyMentorAndOnlyOnce(t *testing.T) {
	svc, db := newMentorshipService(t)
	ctx := context.Background()
	mentor := seedMentor(t, db)
	student := ActivityActor{ID: 52, Role: models.RoleStudent}

	request, err := svc.CreateRequest(ctx, dto.MentorshipRequestCreate{
		MentorID: mentor.ID,
		Message:  "Looking for a kendang mentor.",
	}, student)
	require.NoError(t, err)

	_, err = svc.Respond(ctx, request.ID, dto.MentorshipRespondRequest{Decision: models.MentorshipStatusAccepted}, student)
	require.ErrorIs(t, err, ErrForbidden)

	mentorActor := ActivityActor{ID: mentor.ID, Role: models.RoleMentor}
	accepted, err := svc.Respond(ctx, request.ID, dto.MentorshipRespondRequest{
		Decision:       models.MentorshipStatusAccepted,
		MentorResponse: "Happy to help.",
	}, mentorActor)
	require.NoError(t, err)
	require.Equal(t, models.MentorshipStatusAccepted, accepted.Status)
	require.NotNil(t, accepted.AcceptedAt)

	_, err = svc.Respond(ctx, request.ID, dto.MentorshipRespondRequest{Decision: models.MentorshipStatusRejected}, mentorActor)
	require.ErrorIs(t, err, ErrAlreadyReviewed)

	_, err = svc.Respond(ctx, 999, dto.MentorshipRespondRequest{Decision: models.MentorshipStatusAccepted}, mentorActor)
	require.ErrorIs(t, err, ErrMentorshipNotFound)
}

func TestSendMessageGuards(t *testing.T) {
	svc, db := newMentorshipService(t)
	ctx := context.Background()
	mentor := seedMentor(t, db)
	student := ActivityActor{ID: 53, Role: models.RoleStudent}

	pending, err := svc.CreateRequest(ctx, dto.MentorshipRequestCreate{
		MentorID: mentor.ID,
		Message:  "Interested in bonang lessons.",
	}, student)
	require.NoError(t, err)

	// No messages until the mentor accepts.
	_, err = svc.SendMessage(ctx, pending.ID, dto.ConversationMessageCreate{Message: "hello"}, student)
	require.ErrorIs(t, err, ErrMentorshipNotAccepted)

	_, err = svc.Respond(ctx, pending.ID, dto.MentorshipRespondRequest{Decision: models.MentorshipStatusAccepted},
		ActivityActor{ID: mentor.ID, Role: models.RoleMentor})
	require.NoError(t, err)

	_, err = svc.SendMessage(ctx, pending.ID, dto.ConversationMessageCreate{Message: "hi"},
		ActivityActor{ID: 777, Role: models.RoleStudent})
	require.ErrorIs(t, err, ErrForbidden)

	// Markup-only messages sanitize down to nothing.
	_, err = svc.SendMessage(ctx, pending.ID, dto.ConversationMessageCreate{Message: "<script>x()</script>"}, student)
	require.ErrorIs(t, err, ErrEmptyMessage)

	sent, err := svc.SendMessage(ctx, pending.ID, dto.ConversationMessageCreate{Message: "When can we start?"}, student)
	require.NoError(t, err)
	require.Equal(t, student.ID, sent.SenderID)
}

func TestConversationStreamReceivesMessages(t *testing.T) {
	svc, db := newMentorshipService(t)
	ctx := context.Background()
	student := ActivityActor{ID: 54, Role: models.RoleStudent}
	_, accepted := acceptedMentorship(t, svc, db, student.ID)

	stream, cancel := svc.SubscribeConversation(accepted.ID)
	defer cancel()

	sent, err := svc.SendMessage(ctx, accepted.ID, dto.ConversationMessageCreate{Message: "Streaming works?"}, student)
	require.NoError(t, err)

	select {
	case received := <-stream:
		require.Equal(t, sent.ID, received.ID)
		require.Equal(t, "Streaming works?", received.Message)
	case <-time.After(time.Second):
		t.Fatal("no message received on conversation stream")
	}
}

func TestListConversationMarksRead(t *testing.T) {
	svc, db := newMentorshipService(t)
	ctx := context.Background()
	student := ActivityActor{ID: 55, Role: models.RoleStudent}
	mentor, accepted := acceptedMentorship(t, svc, db, student.ID)
	mentorActor := ActivityActor{ID: mentor.ID, Role: models.RoleMentor}

	_, err := svc.SendMessage(ctx, accepted.ID, dto.ConversationMessageCreate{Message: "First question."}, student)
	require.NoError(t, err)

	messages, err := svc.ListConversation(ctx, accepted.ID, mentorActor)
	require.NoError(t, err)
	require.Len(t, messages, 1)

	var unread int64
	require.NoError(t, db.Model(&models.ConversationMessage{}).
		Where("request_id = ? AND is_read = ?", accepted.ID, false).
		Count(&unread).Error)
	require.Zero(t, unread, "reading the thread marks the counterpart's messages read")
}

func TestScheduleSessionRequiresAcceptedAndFreeSlot(t *testing.T) {
	svc, db := newMentorshipService(t)
	ctx := context.Background()
	student := ActivityActor{ID: 56, Role: models.RoleStudent}
	_, accepted := acceptedMentorship(t, svc, db, student.ID)

	start := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	session, err := svc.ScheduleSession(ctx, dto.SessionScheduleRequest{
		RequestID:       accepted.ID,
		Title:           "Intro session",
		ScheduledAt:     start,
		DurationMinutes: 60,
	}, student)
	require.NoError(t, err)
	require.Equal(t, models.SessionStatusScheduled, session.Status)

	_, err = svc.ScheduleSession(ctx, dto.SessionScheduleRequest{
		RequestID:       accepted.ID,
		Title:           "Clashing session",
		ScheduledAt:     start.Add(30 * time.Minute),
		DurationMinutes: 60,
	}, student)
	require.ErrorIs(t, err, ErrSchedulingConflict)

	_, err = svc.ScheduleSession(ctx, dto.SessionScheduleRequest{
		RequestID:       accepted.ID,
		Title:           "Outsider session",
		ScheduledAt:     start.Add(24 * time.Hour),
		DurationMinutes: 60,
	}, ActivityActor{ID: 888, Role: models.RoleStudent})
	require.ErrorIs(t, err, ErrForbidden)
}

func TestResolveSessionDropsRatingUnlessCompleted(t *testing.T) {
	svc, db := newMentorshipService(t)
	ctx := context.Background()
	student := ActivityActor{ID: 57, Role: models.RoleStudent}
	_, accepted := acceptedMentorship(t, svc, db, student.ID)

	session, err := svc.ScheduleSession(ctx, dto.SessionScheduleRequest{
		RequestID:       accepted.ID,
		Title:           "To be cancelled",
		ScheduledAt:     time.Date(2026, 10, 2, 9, 0, 0, 0, time.UTC),
		DurationMinutes: 30,
	}, student)
	require.NoError(t, err)

	rating := 5
	cancelled, err := svc.ResolveSession(ctx, session.ID, dto.SessionStatusRequest{
		Status: models.SessionStatusCancelled,
		Rating: &rating,
	}, student)
	require.NoError(t, err)
	require.Equal(t, models.SessionStatusCancelled, cancelled.Status)
	require.Nil(t, cancelled.Rating, "ratings only accompany completed sessions")

	_, err = svc.ResolveSession(ctx, session.ID, dto.SessionStatusRequest{Status: models.SessionStatusCompleted}, student)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestResolveSessionCompletedKeepsRating(t *testing.T) {
	svc, db := newMentorshipService(t)
	ctx := context.Background()
	student := ActivityActor{ID: 58, Role: models.RoleStudent}
	_, accepted := acceptedMentorship(t, svc, db, student.ID)

	session, err := svc.ScheduleSession(ctx, dto.SessionScheduleRequest{
		RequestID:       accepted.ID,
		Title:           "Completed session",
		ScheduledAt:     time.Date(2026, 10, 3, 9, 0, 0, 0, time.UTC),
		DurationMinutes: 30,
	}, student)
	require.NoError(t, err)

	rating := 4
	completed, err := svc.ResolveSession(ctx, session.ID, dto.SessionStatusRequest{
		Status:   models.SessionStatusCompleted,
		Rating:   &rating,
		Feedback: "Very helpful.",
	}, student)
	require.NoError(t, err)
	require.Equal(t, models.SessionStatusCompleted, completed.Status)
	require.NotNil(t, completed.Rating)
	require.Equal(t, 4, *completed.Rating)
	require.Equal(t, "Very helpful.", completed.Feedback)
}
