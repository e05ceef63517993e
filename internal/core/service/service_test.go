package service_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/govalues/decimal"
	"github.com/qpaydev/recharge/internal/core/clock"
	"github.com/qpaydev/recharge/internal/core/domain"
	"github.com/qpaydev/recharge/internal/core/port/mock"
	"github.com/qpaydev/recharge/internal/core/service"
	"github.com/qpaydev/recharge/internal/core/sign"
	"github.com/qpaydev/recharge/internal/core/utils"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const testSecret = "test-pay-key"

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func testVerifier() *sign.Verifier {
	return sign.NewVerifier(testSecret,
		"orderNo", "outTradeNo", "payNo", "money", "mchId", "code")
}

type testMocks struct {
	repo      *mock.MockRepository
	tokens    *mock.MockTokenService
	gateway   *mock.MockPaymentGateway
	promotion *mock.MockCommissionNotifier
}

func newTestService(t *testing.T, prepare func(m *testMocks)) *service.Service {
	t.Helper()

	mockCtrl := gomock.NewController(t)
	t.Cleanup(mockCtrl.Finish)

	m := &testMocks{
		repo:      mock.NewMockRepository(mockCtrl),
		tokens:    mock.NewMockTokenService(mockCtrl),
		gateway:   mock.NewMockPaymentGateway(mockCtrl),
		promotion: mock.NewMockCommissionNotifier(mockCtrl),
	}
	if prepare != nil {
		prepare(m)
	}

	logger, _ := zap.NewProduction()

	s, err := service.NewService(m.repo, m.tokens, m.gateway, m.promotion,
		testVerifier(), clock.NewFixed(testNow), logger)
	assert.NoError(t, err)

	return s
}

func signedNotification(tradeNo string, code string) domain.PaymentNotification {
	n := domain.PaymentNotification{
		OrderNo:    "P1234567",
		OutTradeNo: tradeNo,
		PayNo:      "wx0001",
		Money:      "100",
		MchID:      "mch-1",
		Code:       code,
	}
	n.Sign = testVerifier().Sign(n.SignedFields())
	return n
}

func testOrder(userID uuid.UUID, age time.Duration) *domain.Order {
	return &domain.Order{
		ID:        uuid.New(),
		UserID:    userID,
		TradeNo:   "abcdefghij1234567890",
		Price:     10000,
		Status:    domain.PaymentStatusNotPaid,
		CreatedAt: testNow.Add(-age),
	}
}

func TestService_HandleNotification_InvalidSignature(t *testing.T) {
	n := signedNotification("abcdefghij1234567890", "1")
	n.Sign = "0000000000000000000000000000000"

	// No repo expectations: a bad signature must not touch anything.
	s := newTestService(t, nil)

	err := s.HandleNotification(context.Background(), n)
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)
}

func TestService_HandleNotification_OrderNotFound(t *testing.T) {
	n := signedNotification("missing-trade-no-0000", "1")

	s := newTestService(t, func(m *testMocks) {
		m.repo.EXPECT().ReadOrderByTradeNo(gomock.Any(), n.OutTradeNo).
			Return(nil, domain.ErrDataNotFound)
	})

	err := s.HandleNotification(context.Background(), n)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestService_HandleNotification_AlreadySettled(t *testing.T) {
	userID := uuid.New()

	for _, status := range []domain.PaymentStatus{
		domain.PaymentStatusSuccess,
		domain.PaymentStatusClosed,
	} {
		t.Run(string(status), func(t *testing.T) {
			order := testOrder(userID, time.Hour)
			order.Status = status
			n := signedNotification(order.TradeNo, "1")

			// Settled orders absorb duplicates without any mutation.
			s := newTestService(t, func(m *testMocks) {
				m.repo.EXPECT().ReadOrderByTradeNo(gomock.Any(), order.TradeNo).
					Return(order, nil)
			})

			err := s.HandleNotification(context.Background(), n)
			assert.NoError(t, err)
		})
	}
}

func TestService_HandleNotification_SuccessCreditsOnce(t *testing.T) {
	userID := uuid.New()
	order := testOrder(userID, time.Hour)
	user := &domain.User{ID: userID, Login: "payer"}
	n := signedNotification(order.TradeNo, "1")

	s := newTestService(t, func(m *testMocks) {
		m.repo.EXPECT().ReadOrderByTradeNo(gomock.Any(), order.TradeNo).
			Return(order, nil)
		m.repo.EXPECT().GetUserByID(gomock.Any(), userID).
			Return(user, nil)
		m.repo.EXPECT().TryTransitionOrder(gomock.Any(), order.ID,
			domain.PaymentStatusNotPaid, domain.PaymentStatusSuccess).
			Return(true, nil)
		m.repo.EXPECT().CreditBalance(gomock.Any(), userID, order.Price).
			Return(nil)
	})

	err := s.HandleNotification(context.Background(), n)
	assert.NoError(t, err)
}

func TestService_HandleNotification_TransitionLost(t *testing.T) {
	userID := uuid.New()
	order := testOrder(userID, time.Hour)
	user := &domain.User{ID: userID, Login: "payer"}
	n := signedNotification(order.TradeNo, "1")

	// The concurrent duplicate that lost the CAS acks success and
	// must not credit.
	s := newTestService(t, func(m *testMocks) {
		m.repo.EXPECT().ReadOrderByTradeNo(gomock.Any(), order.TradeNo).
			Return(order, nil)
		m.repo.EXPECT().GetUserByID(gomock.Any(), userID).
			Return(user, nil)
		m.repo.EXPECT().TryTransitionOrder(gomock.Any(), order.ID,
			domain.PaymentStatusNotPaid, domain.PaymentStatusSuccess).
			Return(false, nil)
	})

	err := s.HandleNotification(context.Background(), n)
	assert.NoError(t, err)
}

func TestService_HandleNotification_CreditFailureReverts(t *testing.T) {
	userID := uuid.New()
	order := testOrder(userID, time.Hour)
	user := &domain.User{ID: userID, Login: "payer"}
	n := signedNotification(order.TradeNo, "1")

	s := newTestService(t, func(m *testMocks) {
		m.repo.EXPECT().ReadOrderByTradeNo(gomock.Any(), order.TradeNo).
			Return(order, nil)
		m.repo.EXPECT().GetUserByID(gomock.Any(), userID).
			Return(user, nil)
		m.repo.EXPECT().TryTransitionOrder(gomock.Any(), order.ID,
			domain.PaymentStatusNotPaid, domain.PaymentStatusSuccess).
			Return(true, nil)
		m.repo.EXPECT().CreditBalance(gomock.Any(), userID, order.Price).
			Return(errors.New("db gone"))
		// Compensating revert reopens the order for retried delivery.
		m.repo.EXPECT().TryTransitionOrder(gomock.Any(), order.ID,
			domain.PaymentStatusSuccess, domain.PaymentStatusNotPaid).
			Return(true, nil)
	})

	err := s.HandleNotification(context.Background(), n)
	assert.ErrorIs(t, err, domain.ErrInternal)
}

func TestService_HandleNotification_CommissionDispatched(t *testing.T) {
	inviterID := uuid.New()
	userID := uuid.New()
	order := testOrder(userID, time.Hour) // price 10000 scaled = 100 nominal
	user := &domain.User{ID: userID, Login: "payer", InviterID: &inviterID}
	inviter := &domain.User{ID: inviterID, Login: "inviter", PromotionRate: 5}
	n := signedNotification(order.TradeNo, "1")

	dispatched := make(chan decimal.Decimal, 1)

	s := newTestService(t, func(m *testMocks) {
		m.repo.EXPECT().ReadOrderByTradeNo(gomock.Any(), order.TradeNo).
			Return(order, nil)
		m.repo.EXPECT().GetUserByID(gomock.Any(), userID).
			Return(user, nil)
		m.repo.EXPECT().GetUserByID(gomock.Any(), inviterID).
			Return(inviter, nil)
		m.repo.EXPECT().TryTransitionOrder(gomock.Any(), order.ID,
			domain.PaymentStatusNotPaid, domain.PaymentStatusSuccess).
			Return(true, nil)
		m.repo.EXPECT().CreditBalance(gomock.Any(), userID, order.Price).
			Return(nil)
		m.promotion.EXPECT().NotifyInviteCommission(gomock.Any(), inviterID, userID, gomock.Any()).
			DoAndReturn(func(_ context.Context, _, _ uuid.UUID, amount decimal.Decimal) error {
				dispatched <- amount
				return nil
			})
	})

	err := s.HandleNotification(context.Background(), n)
	assert.NoError(t, err)

	select {
	case amount := <-dispatched:
		// 100 nominal * 5% = 5
		assert.Zero(t, amount.Cmp(decimal.MustParse("5")))
	case <-time.After(time.Second):
		t.Fatal("commission was not dispatched")
	}
}

func TestService_HandleNotification_CommissionFailureIgnored(t *testing.T) {
	inviterID := uuid.New()
	userID := uuid.New()
	order := testOrder(userID, time.Hour)
	user := &domain.User{ID: userID, Login: "payer", InviterID: &inviterID}
	inviter := &domain.User{ID: inviterID, Login: "inviter", PromotionRate: 5}
	n := signedNotification(order.TradeNo, "1")

	dispatched := make(chan struct{})

	s := newTestService(t, func(m *testMocks) {
		m.repo.EXPECT().ReadOrderByTradeNo(gomock.Any(), order.TradeNo).
			Return(order, nil)
		m.repo.EXPECT().GetUserByID(gomock.Any(), userID).
			Return(user, nil)
		m.repo.EXPECT().GetUserByID(gomock.Any(), inviterID).
			Return(inviter, nil)
		m.repo.EXPECT().TryTransitionOrder(gomock.Any(), order.ID,
			domain.PaymentStatusNotPaid, domain.PaymentStatusSuccess).
			Return(true, nil)
		m.repo.EXPECT().CreditBalance(gomock.Any(), userID, order.Price).
			Return(nil)
		m.promotion.EXPECT().NotifyInviteCommission(gomock.Any(), inviterID, userID, gomock.Any()).
			DoAndReturn(func(context.Context, uuid.UUID, uuid.UUID, decimal.Decimal) error {
				close(dispatched)
				return errors.New("promotion service down")
			})
	})

	err := s.HandleNotification(context.Background(), n)
	assert.NoError(t, err)

	select {
	case <-dispatched:
	case <-time.After(time.Second):
		t.Fatal("commission was not dispatched")
	}
}

func TestService_HandleNotification_FailureCode(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name     string
		age      time.Duration
		expClose bool
		expError error
	}{
		{
			name:     "fresh order stays open",
			age:      time.Hour,
			expClose: false,
			expError: domain.ErrPrematureNotification,
		},
		{
			name:     "stale order is closed",
			age:      25 * time.Hour,
			expClose: true,
			expError: nil,
		},
		{
			name:     "exactly at window stays open",
			age:      domain.StalenessWindow,
			expClose: false,
			expError: domain.ErrPrematureNotification,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			order := testOrder(userID, test.age)
			n := signedNotification(order.TradeNo, "0")

			s := newTestService(t, func(m *testMocks) {
				m.repo.EXPECT().ReadOrderByTradeNo(gomock.Any(), order.TradeNo).
					Return(order, nil)
				if test.expClose {
					m.repo.EXPECT().TryTransitionOrder(gomock.Any(), order.ID,
						domain.PaymentStatusNotPaid, domain.PaymentStatusClosed).
						Return(true, nil)
				}
			})

			err := s.HandleNotification(context.Background(), n)
			assert.Equal(t, test.expError, err)
		})
	}
}

func TestService_HandleNotification_ConcurrentDuplicates(t *testing.T) {
	const deliveries = 16

	userID := uuid.New()
	order := testOrder(userID, time.Hour)
	user := &domain.User{ID: userID, Login: "payer"}
	n := signedNotification(order.TradeNo, "1")

	var transitioned atomic.Bool
	var credits atomic.Int64

	s := newTestService(t, func(m *testMocks) {
		m.repo.EXPECT().ReadOrderByTradeNo(gomock.Any(), order.TradeNo).
			Return(order, nil).Times(deliveries)
		m.repo.EXPECT().GetUserByID(gomock.Any(), userID).
			Return(user, nil).Times(deliveries)
		// CAS semantics: exactly one caller wins the transition.
		m.repo.EXPECT().TryTransitionOrder(gomock.Any(), order.ID,
			domain.PaymentStatusNotPaid, domain.PaymentStatusSuccess).
			DoAndReturn(func(context.Context, uuid.UUID, domain.PaymentStatus, domain.PaymentStatus) (bool, error) {
				return transitioned.CompareAndSwap(false, true), nil
			}).Times(deliveries)
		m.repo.EXPECT().CreditBalance(gomock.Any(), userID, order.Price).
			DoAndReturn(func(context.Context, uuid.UUID, int64) error {
				credits.Add(1)
				return nil
			})
	})

	g := errgroup.Group{}
	for i := 0; i < deliveries; i++ {
		g.Go(func() error {
			return s.HandleNotification(context.Background(), n)
		})
	}

	assert.NoError(t, g.Wait())
	assert.Equal(t, int64(1), credits.Load())
}

func TestService_CreatePayment(t *testing.T) {
	userID := uuid.New()

	t.Run("good payment", func(t *testing.T) {
		s := newTestService(t, func(m *testMocks) {
			m.gateway.EXPECT().NativePay(gomock.Any(), gomock.Any(), int64(10000)).
				Return("weixin://wxpay/bizpayurl?pr=abc", nil)
			m.repo.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, order *domain.Order) (*domain.Order, error) {
					assert.Equal(t, userID, order.UserID)
					assert.Equal(t, int64(10000), order.Price)
					assert.Equal(t, domain.PaymentStatusNotPaid, order.Status)
					assert.Len(t, order.TradeNo, 20)
					return order, nil
				})
		})

		intent, err := s.CreatePayment(context.Background(), userID, 100)
		assert.NoError(t, err)
		assert.Equal(t, "weixin://wxpay/bizpayurl?pr=abc", intent.CodeURL)
		assert.NotEqual(t, uuid.Nil, intent.PaymentID)
	})

	t.Run("gateway failure", func(t *testing.T) {
		s := newTestService(t, func(m *testMocks) {
			m.gateway.EXPECT().NativePay(gomock.Any(), gomock.Any(), int64(10000)).
				Return("", errors.New("gateway unreachable"))
		})

		intent, err := s.CreatePayment(context.Background(), userID, 100)
		assert.Nil(t, intent)
		assert.ErrorIs(t, err, domain.ErrInternal)
	})

	t.Run("non-positive amount", func(t *testing.T) {
		s := newTestService(t, nil)

		intent, err := s.CreatePayment(context.Background(), userID, 0)
		assert.Nil(t, intent)
		assert.ErrorIs(t, err, domain.ErrBadRequest)
	})
}

func TestService_CheckPayment(t *testing.T) {
	userID := uuid.New()
	otherID := uuid.New()

	paid := testOrder(userID, time.Hour)
	paid.Status = domain.PaymentStatusSuccess
	unpaid := testOrder(userID, time.Hour)

	tests := []struct {
		name     string
		payer    uuid.UUID
		order    *domain.Order
		readErr  error
		expError error
	}{
		{name: "paid", payer: userID, order: paid, expError: nil},
		{name: "not paid yet", payer: userID, order: unpaid, expError: domain.ErrNotPaidYet},
		{name: "foreign order", payer: otherID, order: paid, expError: domain.ErrForbidden},
		{name: "unknown order", payer: userID, readErr: domain.ErrDataNotFound, expError: domain.ErrOrderNotFound},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			id := uuid.New()
			if test.order != nil {
				id = test.order.ID
			}

			s := newTestService(t, func(m *testMocks) {
				m.repo.EXPECT().ReadOrder(gomock.Any(), id).
					Return(test.order, test.readErr)
			})

			order, err := s.CheckPayment(context.Background(), test.payer, id)
			assert.Equal(t, test.expError, err)
			if test.expError == nil {
				assert.Equal(t, domain.PaymentStatusSuccess, order.Status)
			}
		})
	}
}

func TestService_RegisterUser(t *testing.T) {
	hashedPass, _ := utils.HashPassword("test")
	user := &domain.User{ID: uuid.New(), Login: "test", Password: hashedPass}

	tests := []struct {
		name      string
		prepare   func(m *testMocks)
		expError  error
		expResult *domain.User
	}{
		{
			name: "register good",
			prepare: func(m *testMocks) {
				m.repo.EXPECT().GetUserByLogin(gomock.Any(), user.Login).
					Return(nil, domain.ErrDataNotFound)
				m.repo.EXPECT().CreateUser(gomock.Any(), gomock.Any()).
					Return(user, nil)
			},
			expError:  nil,
			expResult: user,
		},
		{
			name: "register already exists",
			prepare: func(m *testMocks) {
				m.repo.EXPECT().GetUserByLogin(gomock.Any(), user.Login).
					Return(user, nil)
			},
			expError:  domain.ErrConflictingData,
			expResult: nil,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s := newTestService(t, test.prepare)

			result, err := s.RegisterUser(context.Background(),
				&domain.User{Login: user.Login, Password: user.Password})

			assert.Equal(t, test.expResult, result)
			assert.Equal(t, test.expError, err)
		})
	}
}

func TestService_LoginUser(t *testing.T) {
	hashedPass, _ := utils.HashPassword("test")
	user := &domain.User{ID: uuid.New(), Login: "test", Password: hashedPass}

	tests := []struct {
		name     string
		login    string
		password string
		prepare  func(m *testMocks)
		expError error
	}{
		{
			name:     "login good",
			login:    user.Login,
			password: "test",
			prepare: func(m *testMocks) {
				m.repo.EXPECT().GetUserByLogin(gomock.Any(), user.Login).
					Return(user, nil)
				m.tokens.EXPECT().CreateToken(user).Return("token", nil)
			},
			expError: nil,
		},
		{
			name:     "password bad",
			login:    user.Login,
			password: "hacker",
			prepare: func(m *testMocks) {
				m.repo.EXPECT().GetUserByLogin(gomock.Any(), user.Login).
					Return(user, nil)
			},
			expError: domain.ErrInvalidCredentials,
		},
		{
			name:     "login bad",
			login:    "hacker",
			password: "test",
			prepare: func(m *testMocks) {
				m.repo.EXPECT().GetUserByLogin(gomock.Any(), "hacker").
					Return(nil, domain.ErrDataNotFound)
			},
			expError: domain.ErrInvalidCredentials,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s := newTestService(t, test.prepare)

			token, err := s.LoginUser(context.Background(), test.login, test.password)
			assert.Equal(t, test.expError, err)
			if test.expError == nil {
				assert.Equal(t, "token", token)
			}
		})
	}
}
