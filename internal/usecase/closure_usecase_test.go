package usecase_test

import (
	"context"
	"testing"
	"time"

	"grievchat/internal/entity"
	"grievchat/internal/repository"
	"grievchat/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateOf(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		request *entity.CloseRequest
		want    usecase.NegotiationState
	}{
		{"nil request", nil, usecase.StateNoRequest},
		{"not requested", &entity.CloseRequest{Requested: false}, usecase.StateNoRequest},
		{"pending", &entity.CloseRequest{Requested: true, UserResponse: entity.ResponsePending}, usecase.StatePending},
		{"accepted", &entity.CloseRequest{Requested: true, UserResponse: entity.ResponseAccepted, UserResponseAt: &now}, usecase.StateAccepted},
		{"rejected", &entity.CloseRequest{Requested: true, UserResponse: entity.ResponseRejected, UserResponseAt: &now}, usecase.StateRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, usecase.StateOf(tt.request))
		})
	}
}

func TestRequestClose(t *testing.T) {
	ctx := context.Background()

	t.Run("opens pending request with synthesized chat message", func(t *testing.T) {
		repo := newFakeComplaintRepo("CMP-001")
		uc := usecase.NewClosureUsecase(repo)

		request, err := uc.RequestClose(ctx, "CMP-001", "Water", "Leak fixed")
		require.NoError(t, err)
		assert.True(t, request.Requested)
		assert.Equal(t, "Water", request.RequestedBy)
		assert.Equal(t, "Leak fixed", request.Reason)
		assert.Equal(t, entity.ResponsePending, request.UserResponse)

		state, err := uc.State(ctx, "CMP-001")
		require.NoError(t, err)
		assert.Equal(t, usecase.StatePending, state)

		complaint, err := repo.Get(ctx, "CMP-001")
		require.NoError(t, err)
		require.Len(t, complaint.ChatMessages, 1)
		assert.Equal(t, entity.TypeCloseRequest, complaint.ChatMessages[0].MessageType)
		assert.Contains(t, complaint.ChatMessages[0].Message, "Leak fixed")
	})

	t.Run("defaults the reason when omitted", func(t *testing.T) {
		repo := newFakeComplaintRepo("CMP-001")
		uc := usecase.NewClosureUsecase(repo)

		request, err := uc.RequestClose(ctx, "CMP-001", "Water", "")
		require.NoError(t, err)
		assert.Equal(t, "Complaint resolved, requesting closure", request.Reason)
	})

	t.Run("rejects missing department name", func(t *testing.T) {
		repo := newFakeComplaintRepo("CMP-001")
		uc := usecase.NewClosureUsecase(repo)

		_, err := uc.RequestClose(ctx, "CMP-001", "  ", "reason")
		assert.ErrorIs(t, err, usecase.ErrMissingDepartment)
	})

	t.Run("conflicts while another request is pending", func(t *testing.T) {
		repo := newFakeComplaintRepo("CMP-001")
		uc := usecase.NewClosureUsecase(repo)

		_, err := uc.RequestClose(ctx, "CMP-001", "Water", "first")
		require.NoError(t, err)

		_, err = uc.RequestClose(ctx, "CMP-001", "Water", "second")
		assert.ErrorIs(t, err, repository.ErrCloseRequestPending)
	})

	t.Run("rejects requests on a closed complaint", func(t *testing.T) {
		repo := newFakeComplaintRepo("CMP-001")
		uc := usecase.NewClosureUsecase(repo)

		_, err := uc.RequestClose(ctx, "CMP-001", "Water", "")
		require.NoError(t, err)
		_, err = uc.Respond(ctx, "CMP-001", true, "", "user-1")
		require.NoError(t, err)

		_, err = uc.RequestClose(ctx, "CMP-001", "Water", "again")
		assert.ErrorIs(t, err, repository.ErrComplaintClosed)
	})

	t.Run("allows a fresh cycle after a rejected request", func(t *testing.T) {
		repo := newFakeComplaintRepo("CMP-001")
		uc := usecase.NewClosureUsecase(repo)

		_, err := uc.RequestClose(ctx, "CMP-001", "Water", "first")
		require.NoError(t, err)
		_, err = uc.Respond(ctx, "CMP-001", false, "not fixed", "user-1")
		require.NoError(t, err)

		request, err := uc.RequestClose(ctx, "CMP-001", "Water", "second")
		require.NoError(t, err)
		assert.Equal(t, "second", request.Reason)
		assert.Equal(t, entity.ResponsePending, request.UserResponse)

		complaint, err := repo.Get(ctx, "CMP-001")
		require.NoError(t, err)
		require.Len(t, complaint.CloseRequestHistory, 1)
		assert.Equal(t, entity.ResponseRejected, complaint.CloseRequestHistory[0].UserResponse)
	})

	t.Run("unknown complaint", func(t *testing.T) {
		repo := newFakeComplaintRepo()
		uc := usecase.NewClosureUsecase(repo)

		_, err := uc.RequestClose(ctx, "CMP-404", "Water", "")
		assert.ErrorIs(t, err, repository.ErrComplaintNotFound)
	})

	t.Run("another department's complaint is not visible", func(t *testing.T) {
		repo := newFakeComplaintRepo("CMP-001")
		uc := usecase.NewClosureUsecase(repo)

		_, err := uc.RequestClose(ctx, "CMP-001", "Roads", "done")
		assert.ErrorIs(t, err, repository.ErrComplaintNotFound)

		state, err := uc.State(ctx, "CMP-001")
		require.NoError(t, err)
		assert.Equal(t, usecase.StateNoRequest, state, "the foreign request must leave no trace")
	})
}

func TestRespond(t *testing.T) {
	ctx := context.Background()

	t.Run("accept closes the complaint", func(t *testing.T) {
		repo := newFakeComplaintRepo("CMP-001")
		uc := usecase.NewClosureUsecase(repo)

		_, err := uc.RequestClose(ctx, "CMP-001", "Water", "")
		require.NoError(t, err)

		resolved, err := uc.Respond(ctx, "CMP-001", true, "thanks", "user-1")
		require.NoError(t, err)
		assert.Equal(t, entity.ResponseAccepted, resolved.UserResponse)
		require.NotNil(t, resolved.UserResponseAt)

		complaint, err := repo.Get(ctx, "CMP-001")
		require.NoError(t, err)
		assert.Equal(t, entity.StatusClosed, complaint.Status)
		require.NotNil(t, complaint.ActualResolutionDate)
	})

	t.Run("reject leaves the complaint open", func(t *testing.T) {
		repo := newFakeComplaintRepo("CMP-001")
		uc := usecase.NewClosureUsecase(repo)

		_, err := uc.RequestClose(ctx, "CMP-001", "Water", "")
		require.NoError(t, err)

		resolved, err := uc.Respond(ctx, "CMP-001", false, "still broken", "user-1")
		require.NoError(t, err)
		assert.Equal(t, entity.ResponseRejected, resolved.UserResponse)

		complaint, err := repo.Get(ctx, "CMP-001")
		require.NoError(t, err)
		assert.Equal(t, entity.StatusInProgress, complaint.Status)
		assert.Nil(t, complaint.ActualResolutionDate)
	})

	t.Run("no pending request", func(t *testing.T) {
		repo := newFakeComplaintRepo("CMP-001")
		uc := usecase.NewClosureUsecase(repo)

		_, err := uc.Respond(ctx, "CMP-001", true, "", "user-1")
		assert.ErrorIs(t, err, repository.ErrNoCloseRequest)
	})

	t.Run("second response is rejected", func(t *testing.T) {
		repo := newFakeComplaintRepo("CMP-001")
		uc := usecase.NewClosureUsecase(repo)

		_, err := uc.RequestClose(ctx, "CMP-001", "Water", "")
		require.NoError(t, err)
		_, err = uc.Respond(ctx, "CMP-001", false, "", "user-1")
		require.NoError(t, err)

		_, err = uc.Respond(ctx, "CMP-001", true, "", "user-1")
		assert.ErrorIs(t, err, repository.ErrCloseRequestResolved)
	})

	t.Run("rejects missing user id", func(t *testing.T) {
		repo := newFakeComplaintRepo("CMP-001")
		uc := usecase.NewClosureUsecase(repo)

		_, err := uc.Respond(ctx, "CMP-001", true, "", "")
		assert.ErrorIs(t, err, usecase.ErrMissingUser)
	})
}
