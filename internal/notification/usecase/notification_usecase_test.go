package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/goleak"

	"github.com/lunastra/payments/internal/notification/domain"
)

// MockTxManager is a mock implementation of database.TxManager
type MockTxManager struct {
	mock.Mock
}

func (m *MockTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, fn)
	if args.Get(0) != nil {
		return args.Error(0)
	}
	// Execute the function to test the logic inside
	return fn(ctx)
}

// MockNotificationRepository is a mock implementation of NotificationRepository
type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) Create(ctx context.Context, notification *domain.Notification) error {
	args := m.Called(ctx, notification)
	return args.Error(0)
}

func (m *MockNotificationRepository) GetPending(
	ctx context.Context,
	limit int,
) ([]*domain.Notification, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Notification), args.Error(1)
}

func (m *MockNotificationRepository) Update(ctx context.Context, notification *domain.Notification) error {
	args := m.Called(ctx, notification)
	return args.Error(0)
}

// MockEmailSender is a mock implementation of service.EmailSender
type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) Send(ctx context.Context, notification *domain.Notification) error {
	args := m.Called(ctx, notification)
	return args.Error(0)
}

func pendingNotification() *domain.Notification {
	return &domain.Notification{
		ID:        uuid.Must(uuid.NewV7()),
		Kind:      domain.NotificationKindOrderPaid,
		Recipient: "buyer@example.com",
		Payload:   `{"order_id":"order-1"}`,
		Status:    domain.NotificationStatusPending,
	}
}

func TestNewNotificationUseCase(t *testing.T) {
	config := Config{
		Interval:   5 * time.Second,
		BatchSize:  10,
		MaxRetries: 3,
	}

	uc := NewNotificationUseCase(config, &MockTxManager{}, &MockNotificationRepository{}, &MockEmailSender{}, nil)

	assert.NotNil(t, uc)
	assert.Equal(t, config.Interval, uc.config.Interval)
	assert.Equal(t, config.BatchSize, uc.config.BatchSize)
	assert.Equal(t, config.MaxRetries, uc.config.MaxRetries)
}

func TestNotificationUseCase_Start_ContextCancellation(t *testing.T) {
	defer goleak.VerifyNone(t)

	config := Config{Interval: 100 * time.Millisecond, BatchSize: 10, MaxRetries: 3}
	uc := NewNotificationUseCase(config, &MockTxManager{}, &MockNotificationRepository{}, &MockEmailSender{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := uc.Start(ctx)
	assert.Equal(t, context.Canceled, err)
}

func TestNotificationUseCase_Dispatch_Success(t *testing.T) {
	config := Config{Interval: time.Second, BatchSize: 10, MaxRetries: 3}
	txManager := &MockTxManager{}
	repo := &MockNotificationRepository{}
	sender := &MockEmailSender{}

	notification := pendingNotification()

	txManager.On("WithTx", mock.Anything, mock.Anything).Return(nil)
	repo.On("GetPending", mock.Anything, 10).Return([]*domain.Notification{notification}, nil)
	sender.On("Send", mock.Anything, notification).Return(nil)
	repo.On("Update", mock.Anything, mock.MatchedBy(func(n *domain.Notification) bool {
		return n.Status == domain.NotificationStatusProcessed && n.ProcessedAt != nil
	})).Return(nil)

	uc := NewNotificationUseCase(config, txManager, repo, sender, nil)
	err := uc.Dispatch(context.Background())

	assert.NoError(t, err)
	repo.AssertExpectations(t)
	sender.AssertExpectations(t)
}

func TestNotificationUseCase_Dispatch_EmptyBatch(t *testing.T) {
	config := Config{Interval: time.Second, BatchSize: 10, MaxRetries: 3}
	txManager := &MockTxManager{}
	repo := &MockNotificationRepository{}
	sender := &MockEmailSender{}

	txManager.On("WithTx", mock.Anything, mock.Anything).Return(nil)
	repo.On("GetPending", mock.Anything, 10).Return([]*domain.Notification{}, nil)

	uc := NewNotificationUseCase(config, txManager, repo, sender, nil)
	err := uc.Dispatch(context.Background())

	assert.NoError(t, err)
	sender.AssertNotCalled(t, "Send")
}

func TestNotificationUseCase_Dispatch_DeliveryFailureIncrementsRetries(t *testing.T) {
	config := Config{Interval: time.Second, BatchSize: 10, MaxRetries: 3}
	txManager := &MockTxManager{}
	repo := &MockNotificationRepository{}
	sender := &MockEmailSender{}

	notification := pendingNotification()

	txManager.On("WithTx", mock.Anything, mock.Anything).Return(nil)
	repo.On("GetPending", mock.Anything, 10).Return([]*domain.Notification{notification}, nil)
	sender.On("Send", mock.Anything, notification).Return(errors.New("provider timeout"))
	repo.On("Update", mock.Anything, mock.MatchedBy(func(n *domain.Notification) bool {
		return n.Status == domain.NotificationStatusPending &&
			n.Retries == 1 &&
			n.LastError != nil && *n.LastError == "provider timeout"
	})).Return(nil)

	uc := NewNotificationUseCase(config, txManager, repo, sender, nil)
	err := uc.Dispatch(context.Background())

	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestNotificationUseCase_Dispatch_RetryCapMarksFailed(t *testing.T) {
	config := Config{Interval: time.Second, BatchSize: 10, MaxRetries: 3}
	txManager := &MockTxManager{}
	repo := &MockNotificationRepository{}
	sender := &MockEmailSender{}

	notification := pendingNotification()
	notification.Retries = 2

	txManager.On("WithTx", mock.Anything, mock.Anything).Return(nil)
	repo.On("GetPending", mock.Anything, 10).Return([]*domain.Notification{notification}, nil)
	sender.On("Send", mock.Anything, notification).Return(errors.New("provider timeout"))
	repo.On("Update", mock.Anything, mock.MatchedBy(func(n *domain.Notification) bool {
		return n.Status == domain.NotificationStatusFailed && n.Retries == 3
	})).Return(nil)

	uc := NewNotificationUseCase(config, txManager, repo, sender, nil)
	err := uc.Dispatch(context.Background())

	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestNotificationUseCase_Dispatch_DeliveryFailureDoesNotAbortBatch(t *testing.T) {
	config := Config{Interval: time.Second, BatchSize: 10, MaxRetries: 3}
	txManager := &MockTxManager{}
	repo := &MockNotificationRepository{}
	sender := &MockEmailSender{}

	failing := pendingNotification()
	succeeding := pendingNotification()

	txManager.On("WithTx", mock.Anything, mock.Anything).Return(nil)
	repo.On("GetPending", mock.Anything, 10).Return([]*domain.Notification{failing, succeeding}, nil)
	sender.On("Send", mock.Anything, failing).Return(errors.New("provider timeout"))
	sender.On("Send", mock.Anything, succeeding).Return(nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(nil).Twice()

	uc := NewNotificationUseCase(config, txManager, repo, sender, nil)
	err := uc.Dispatch(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, domain.NotificationStatusProcessed, succeeding.Status)
	sender.AssertExpectations(t)
}

func TestNotificationUseCase_Dispatch_GetPendingError(t *testing.T) {
	config := Config{Interval: time.Second, BatchSize: 10, MaxRetries: 3}
	txManager := &MockTxManager{}
	repo := &MockNotificationRepository{}
	sender := &MockEmailSender{}

	queryErr := errors.New("query failed")
	txManager.On("WithTx", mock.Anything, mock.Anything).Return(nil)
	repo.On("GetPending", mock.Anything, 10).Return(nil, queryErr)

	uc := NewNotificationUseCase(config, txManager, repo, sender, nil)
	err := uc.Dispatch(context.Background())

	assert.ErrorIs(t, err, queryErr)
}
