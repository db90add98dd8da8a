package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/laras-id/laras-api/internal/dto"
	"github.com/laras-id/laras-api/internal/models"
	"github.com/laras-id/laras-api/internal/repository"
)

func newMembershipService(t *testing.T) (MembershipService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewMembershipService(
		repository.NewMembershipRepository(db),
		repository.NewStaffRequestRepository(db),
		repository.NewReviewRepository(db),
		repository.NewClassroomRepository(db),
		validate,
		nil,
		nil,
		zerolog.Nop(),
	)
	return svc, db
}

func seedTestClassroom(t *testing.T, db *gorm.DB, masterID uint, maxStudents int) models.Classroom {
	t.Helper()
	classroom := models.Classroom{
		MasterID:    masterID,
		Name:        "Karawitan Studio",
		CustomSlug:  "karawitan-" + t.Name(),
		MaxStudents: maxStudents,
		IsPublic:    true,
		IsActive:    true,
	}
	require.NoError(t, db.Create(&classroom).Error)
	return classroom
}

func TestRequestJoinLifecycle(t *testing.T) {
	svc, db := newMembershipService(t)
	ctx := context.Background()
	classroom := seedTestClassroom(t, db, 1, 30)
	student := ActivityActor{ID: 10, Role: models.RoleStudent}

	membership, err := svc.RequestJoin(ctx, classroom.ID, dto.JoinRequest{Message: "keen to learn"}, student)
	require.NoError(t, err)
	require.Equal(t, models.MembershipStatusPending, membership.Status)
	require.Equal(t, models.MembershipRoleStudent, membership.Role)

	_, err = svc.RequestJoin(ctx, classroom.ID, dto.JoinRequest{}, student)
	require.ErrorIs(t, err, ErrAlreadyMember)

	_, err = svc.RequestJoin(ctx, 404, dto.JoinRequest{}, student)
	require.ErrorIs(t, err, ErrClassroomNotFound)
}

func TestRequestJoinInactiveClassroom(t *testing.T) {
	svc, db := newMembershipService(t)
	classroom := seedTestClassroom(t, db, 1, 30)
	require.NoError(t, db.Model(&models.Classroom{}).Where("id = ?", classroom.ID).Update("is_active", false).Error)

	_, err := svc.RequestJoin(context.Background(), classroom.ID, dto.JoinRequest{}, ActivityActor{ID: 10, Role: models.RoleStudent})
	require.ErrorIs(t, err, ErrClassroomNotFound)
}

func TestRequestJoinCapacity(t *testing.T) {
	svc, db := newMembershipService(t)
	ctx := context.Background()
	classroom := seedTestClassroom(t, db, 1, 1)

	first, err := svc.RequestJoin(ctx, classroom.ID, dto.JoinRequest{}, ActivityActor{ID: 11, Role: models.RoleStudent})
	require.NoError(t, err)
	_, err = svc.ReviewMembership(ctx, first.ID, dto.MembershipDecisionRequest{Decision: "approve"},
		ActivityActor{ID: 1, Role: models.RoleAdmin})
	require.NoError(t, err)

	_, err = svc.RequestJoin(ctx, classroom.ID, dto.JoinRequest{}, ActivityActor{ID: 12, Role: models.RoleStudent})
	require.ErrorIs(t, err, ErrCapacityExceeded)
}

func TestReviewMembershipDecidesOnce(t *testing.T) {
	svc, db := newMembershipService(t)
	ctx := context.Background()
	classroom := seedTestClassroom(t, db, 1, 30)
	admin := ActivityActor{ID: 1, Role: models.RoleAdmin}

	membership, err := svc.RequestJoin(ctx, classroom.ID, dto.JoinRequest{}, ActivityActor{ID: 13, Role: models.RoleStudent})
	require.NoError(t, err)

	approved, err := svc.ReviewMembership(ctx, membership.ID, dto.MembershipDecisionRequest{Decision: "approve"}, admin)
	require.NoError(t, err)
	require.Equal(t, models.MembershipStatusActive, approved.Status)
	require.NotNil(t, approved.JoinedAt)

	_, err = svc.ReviewMembership(ctx, membership.ID, dto.MembershipDecisionRequest{Decision: "reject"}, admin)
	require.ErrorIs(t, err, ErrAlreadyReviewed)

	_, err = svc.ReviewMembership(ctx, 999, dto.MembershipDecisionRequest{Decision: "approve"}, admin)
	require.ErrorIs(t, err, ErrMembershipNotFound)
}

func TestReviewMembershipRejectRemoves(t *testing.T) {
	svc, db := newMembershipService(t)
	ctx := context.Background()
	classroom := seedTestClassroom(t, db, 1, 30)

	membership, err := svc.RequestJoin(ctx, classroom.ID, dto.JoinRequest{}, ActivityActor{ID: 14, Role: models.RoleStudent})
	require.NoError(t, err)

	rejected, err := svc.ReviewMembership(ctx, membership.ID, dto.MembershipDecisionRequest{Decision: "reject"},
		ActivityActor{ID: 1, Role: models.RoleAdmin})
	require.NoError(t, err)
	require.Equal(t, models.MembershipStatusRemoved, rejected.Status)
	require.Nil(t, rejected.JoinedAt)
}

func TestReviewMembershipRequiresClassroomMaster(t *testing.T) {
	svc, db := newMembershipService(t)
	ctx := context.Background()
	classroom := seedTestClassroom(t, db, 1, 30)

	membership, err := svc.RequestJoin(ctx, classroom.ID, dto.JoinRequest{}, ActivityActor{ID: 15, Role: models.RoleStudent})
	require.NoError(t, err)

	// A mentor who does not own the classroom cannot decide the join request.
	_, err = svc.ReviewMembership(ctx, membership.ID, dto.MembershipDecisionRequest{Decision: "approve"},
		ActivityActor{ID: 42, Role: models.RoleMentor})
	require.ErrorIs(t, err, ErrForbidden)

	var unchanged models.ClassroomMembership
	require.NoError(t, db.First(&unchanged, membership.ID).Error)
	require.Equal(t, models.MembershipStatusPending, unchanged.Status)

	approved, err := svc.ReviewMembership(ctx, membership.ID, dto.MembershipDecisionRequest{Decision: "approve"},
		ActivityActor{ID: 1, Role: models.RoleMentor})
	require.NoError(t, err)
	require.Equal(t, models.MembershipStatusActive, approved.Status)
}

func TestReviewResignationRequiresClassroomMaster(t *testing.T) {
	svc, db := newMembershipService(t)
	ctx := context.Background()
	classroom := seedTestClassroom(t, db, 5, 30)
	mentor := ActivityActor{ID: 32, Role: models.RoleMentor}
	master := ActivityActor{ID: 5, Role: models.RoleMentor}

	request, err := svc.RequestStaff(ctx, dto.StaffRequestCreate{ClassroomID: classroom.ID}, mentor)
	require.NoError(t, err)
	_, err = svc.ReviewStaffRequest(ctx, request.ID, dto.ReviewDecisionRequest{Decision: "approve"}, master)
	require.NoError(t, err)

	resignation, err := svc.RequestResignation(ctx, classroom.ID, dto.ResignationCreate{Reason: "touring this season"}, mentor)
	require.NoError(t, err)

	// Neither the resigning mentor nor an unrelated one may decide.
	_, err = svc.ReviewResignation(ctx, resignation.ID, dto.ReviewDecisionRequest{Decision: "approve"}, mentor)
	require.ErrorIs(t, err, ErrForbidden)
	_, err = svc.ReviewResignation(ctx, resignation.ID, dto.ReviewDecisionRequest{Decision: "approve"},
		ActivityActor{ID: 42, Role: models.RoleMentor})
	require.ErrorIs(t, err, ErrForbidden)

	reviewed, err := svc.ReviewResignation(ctx, resignation.ID, dto.ReviewDecisionRequest{Decision: "approve"}, master)
	require.NoError(t, err)
	require.Equal(t, models.ReviewStatusApproved, reviewed.Status)

	_, err = svc.ReviewResignation(ctx, 999, dto.ReviewDecisionRequest{Decision: "approve"}, master)
	require.ErrorIs(t, err, ErrResignationNotFound)
}

func TestStaffRequestReviewAuthorization(t *testing.T) {
	svc, db := newMembershipService(t)
	ctx := context.Background()
	classroom := seedTestClassroom(t, db, 5, 30)
	mentor := ActivityActor{ID: 20, Role: models.RoleMentor}

	request, err := svc.RequestStaff(ctx, dto.StaffRequestCreate{ClassroomID: classroom.ID, Message: "experienced"}, mentor)
	require.NoError(t, err)
	require.Equal(t, models.ReviewStatusPending, request.Status)

	_, err = svc.RequestStaff(ctx, dto.StaffRequestCreate{ClassroomID: classroom.ID}, mentor)
	require.ErrorIs(t, err, ErrDuplicateStaffRequest)

	// Neither the applicant nor an unrelated mentor may review; the master may.
	_, err = svc.ReviewStaffRequest(ctx, request.ID, dto.ReviewDecisionRequest{Decision: "approve"}, mentor)
	require.ErrorIs(t, err, ErrForbidden)
	_, err = svc.ReviewStaffRequest(ctx, request.ID, dto.ReviewDecisionRequest{Decision: "approve"},
		ActivityActor{ID: 77, Role: models.RoleMentor})
	require.ErrorIs(t, err, ErrForbidden)

	master := ActivityActor{ID: 5, Role: models.RoleMentor}
	approved, err := svc.ReviewStaffRequest(ctx, request.ID, dto.ReviewDecisionRequest{Decision: "approve", Notes: "welcome aboard"}, master)
	require.NoError(t, err)
	require.Equal(t, models.ReviewStatusApproved, approved.Status)

	// Approval activates the staff membership in the same transaction.
	var membership models.ClassroomMembership
	require.NoError(t, db.Where("user_id = ? AND classroom_id = ?", mentor.ID, classroom.ID).First(&membership).Error)
	require.Equal(t, models.MembershipRoleStaff, membership.Role)
	require.Equal(t, models.MembershipStatusActive, membership.Status)

	_, err = svc.ReviewStaffRequest(ctx, request.ID, dto.ReviewDecisionRequest{Decision: "reject"}, master)
	require.ErrorIs(t, err, ErrAlreadyReviewed)
}

func TestResignationRequiresActiveStaff(t *testing.T) {
	svc, db := newMembershipService(t)
	ctx := context.Background()
	classroom := seedTestClassroom(t, db, 5, 30)
	outsider := ActivityActor{ID: 30, Role: models.RoleMentor}

	_, err := svc.RequestResignation(ctx, classroom.ID, dto.ResignationCreate{Reason: "moving away"}, outsider)
	require.ErrorIs(t, err, ErrNotStaffMember)
}

func TestResignationApprovalRemovesMembership(t *testing.T) {
	svc, db := newMembershipService(t)
	ctx := context.Background()
	classroom := seedTestClassroom(t, db, 5, 30)
	mentor := ActivityActor{ID: 31, Role: models.RoleMentor}
	master := ActivityActor{ID: 5, Role: models.RoleMentor}
	admin := ActivityActor{ID: 1, Role: models.RoleAdmin}

	request, err := svc.RequestStaff(ctx, dto.StaffRequestCreate{ClassroomID: classroom.ID}, mentor)
	require.NoError(t, err)
	_, err = svc.ReviewStaffRequest(ctx, request.ID, dto.ReviewDecisionRequest{Decision: "approve"}, master)
	require.NoError(t, err)

	resignation, err := svc.RequestResignation(ctx, classroom.ID, dto.ResignationCreate{Reason: "schedule conflict"}, mentor)
	require.NoError(t, err)

	reviewed, err := svc.ReviewResignation(ctx, resignation.ID, dto.ReviewDecisionRequest{Decision: "approve"}, admin)
	require.NoError(t, err)
	require.Equal(t, models.ReviewStatusApproved, reviewed.Status)

	var membership models.ClassroomMembership
	require.NoError(t, db.Where("user_id = ? AND classroom_id = ?", mentor.ID, classroom.ID).First(&membership).Error)
	require.Equal(t, models.MembershipStatusRemoved, membership.Status)

	_, err = svc.ReviewResignation(ctx, resignation.ID, dto.ReviewDecisionRequest{Decision: "reject"}, admin)
	require.ErrorIs(t, err, ErrAlreadyReviewed)
}
