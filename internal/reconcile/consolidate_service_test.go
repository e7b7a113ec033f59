package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ar-automation/reconciliation/internal/domain/client"
)

func testClients() []client.Client {
	return []client.Client{
		{ClientID: 10, Name: "Maria", LastName: "Gomez", Email1: "maria@example.com"},
		{ClientID: 20, Name: "John", LastName: "Smith", Email1: "john@example.com"},
		{ClientID: 30, Name: "Orphan", LastName: "NoStudents"},
	}
}

func testStudents() []client.Student {
	return []client.Student{
		{StudentID: 2, AssociatedClientID: 10, StudentName: "Ana", StudentLastName: "Gomez", Grade: "3"},
		{StudentID: 1, AssociatedClientID: 10, StudentName: "Luis", StudentLastName: "Gomez", Grade: "5"},
		{StudentID: 3, AssociatedClientID: 20, StudentName: "Emma", StudentLastName: "Smith", Grade: "1"},
	}
}

func TestConsolidateService_Consolidate(t *testing.T) {
	ctx := context.Background()

	repo := &MockClientRepository{}
	repo.On("ListClients", ctx).Return(testClients(), nil)
	repo.On("ListStudents", ctx).Return(testStudents(), nil)

	var published []client.SearchDocument
	index := &MockSearchIndex{}
	index.On("Publish", ctx, mock.Anything).Run(func(args mock.Arguments) {
		published = args.Get(1).([]client.SearchDocument)
	}).Return(nil)

	recorder, oplogRepo := newTestRecorder()
	service := NewConsolidateService(repo, index, recorder)

	combined, err := service.Consolidate(ctx)
	assert.NoError(t, err)

	// Client 30 has no students and is dropped by the inner join
	assert.Len(t, combined, 2)
	assert.Equal(t, int64(10), combined[0].ClientID)
	assert.Equal(t, int64(20), combined[1].ClientID)

	// Students ordered by their id within the client
	assert.Equal(t, "Luis", combined[0].Students[0].Name)
	assert.Equal(t, "Ana", combined[0].Students[1].Name)

	// Published documents are flattened to the widest client
	assert.Len(t, published, 2)
	assert.Equal(t, "10", published[0].ID)
	assert.Equal(t, "Luis", published[0].Fields["student_name_1"])
	assert.Equal(t, "Ana", published[0].Fields["student_name_2"])
	_, hasSecond := published[1].Fields["student_name_2"]
	assert.False(t, hasSecond)

	assert.True(t, hasMessagePrefix(oplogRepo.messages(), "2 client documents uploaded to search index"))
	index.AssertExpectations(t)
}

func TestConsolidateService_Consolidate_RepositoryFailure(t *testing.T) {
	ctx := context.Background()

	repo := &MockClientRepository{}
	repo.On("ListClients", ctx).Return(nil, errors.New("db down"))

	recorder, _ := newTestRecorder()
	service := NewConsolidateService(repo, &MockSearchIndex{}, recorder)

	combined, err := service.Consolidate(ctx)
	assert.Error(t, err)
	assert.Nil(t, combined)
	assert.Contains(t, err.Error(), "reading clients")
}

func TestConsolidateService_Consolidate_IndexFailure(t *testing.T) {
	ctx := context.Background()

	repo := &MockClientRepository{}
	repo.On("ListClients", ctx).Return(testClients(), nil)
	repo.On("ListStudents", ctx).Return(testStudents(), nil)

	index := &MockSearchIndex{}
	index.On("Publish", ctx, mock.Anything).Return(errors.New("bulk rejected"))

	recorder, oplogRepo := newTestRecorder()
	service := NewConsolidateService(repo, index, recorder)

	combined, err := service.Consolidate(ctx)
	assert.Error(t, err)
	assert.Nil(t, combined)
	assert.Contains(t, oplogRepo.messages(), "Search index error: bulk rejected")
}

func TestConsolidateService_Consolidate_Deterministic(t *testing.T) {
	ctx := context.Background()

	repo := &MockClientRepository{}
	repo.On("ListClients", ctx).Return(testClients(), nil)
	repo.On("ListStudents", ctx).Return(testStudents(), nil)

	index := &MockSearchIndex{}
	index.On("Publish", ctx, mock.Anything).Return(nil)

	recorder, _ := newTestRecorder()
	service := NewConsolidateService(repo, index, recorder)

	first, err := service.Consolidate(ctx)
	assert.NoError(t, err)
	second, err := service.Consolidate(ctx)
	assert.NoError(t, err)
	assert.Equal(t, first, second)
}
