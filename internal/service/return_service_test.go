package service

import (
	"context"
	"testing"
	"time"

	"github.com/ERPlora/module-returns/internal/domain"
	"github.com/ERPlora/module-returns/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubReturnStore keeps a single return in memory. Transition applies the
// workflow closure but skips the after hook, which needs a live transaction.
type stubReturnStore struct {
	ret     *domain.Return
	created *repository.CreateReturnInput
	items   []domain.ReturnItem
}

func (s *stubReturnStore) List(ctx context.Context, hubID int64, f repository.ReturnFilter) ([]domain.Return, error) {
	return nil, nil
}

func (s *stubReturnStore) Get(ctx context.Context, hubID, id int64) (*domain.Return, error) {
	if s.ret == nil {
		return nil, repository.ErrNotFound
	}
	return s.ret, nil
}

func (s *stubReturnStore) Create(ctx context.Context, hubID int64, in repository.CreateReturnInput) (*domain.Return, error) {
	s.created = &in
	s.ret = &domain.Return{
		ID:           7,
		HubID:        hubID,
		Number:       "RET-20260824-0001",
		Status:       domain.ReturnPending,
		CustomerName: in.CustomerName,
		ReasonID:     in.ReasonID,
		RefundMethod: in.RefundMethod,
	}
	return s.ret, nil
}

func (s *stubReturnStore) AddItem(ctx context.Context, hubID int64, it domain.ReturnItem) (*domain.ReturnItem, error) {
	s.items = append(s.items, it)
	return &it, nil
}

func (s *stubReturnStore) Transition(ctx context.Context, hubID, id int64, fn func(*domain.Return) error, after func(context.Context, pgx.Tx, *domain.Return) error) (*domain.Return, error) {
	if s.ret == nil {
		return nil, repository.ErrNotFound
	}
	next := *s.ret
	if err := fn(&next); err != nil {
		return nil, err
	}
	s.ret = &next
	return &next, nil
}

type stubReasonStore struct {
	reason   *domain.ReturnReason
	getCalls int
}

func (s *stubReasonStore) List(ctx context.Context, hubID int64, activeOnly bool) ([]domain.ReturnReason, error) {
	if s.reason == nil {
		return nil, nil
	}
	return []domain.ReturnReason{*s.reason}, nil
}

func (s *stubReasonStore) Get(ctx context.Context, hubID, id int64) (*domain.ReturnReason, error) {
	s.getCalls++
	if s.reason == nil || s.reason.ID != id {
		return nil, repository.ErrNotFound
	}
	return s.reason, nil
}

func (s *stubReasonStore) Create(ctx context.Context, re domain.ReturnReason) (*domain.ReturnReason, error) {
	re.ID = 1
	return &re, nil
}

type stubSettingsStore struct {
	settings domain.ReturnsSettings
}

func (s *stubSettingsStore) Get(ctx context.Context, hubID int64) (*domain.ReturnsSettings, error) {
	out := s.settings
	return &out, nil
}

type stubLogStore struct {
	entries []repository.CreateActivityLogInput
}

func (s *stubLogStore) Create(ctx context.Context, hubID int64, in repository.CreateActivityLogInput) (int64, error) {
	s.entries = append(s.entries, in)
	return int64(len(s.entries)), nil
}

func newTestService(settings domain.ReturnsSettings, reason *domain.ReturnReason) (ReturnService, *stubReturnStore, *stubReasonStore, *stubLogStore) {
	returns := &stubReturnStore{}
	reasons := &stubReasonStore{reason: reason}
	logs := &stubLogStore{}
	svc := ReturnService{
		Returns:  returns,
		Reasons:  reasons,
		Settings: &stubSettingsStore{settings: settings},
		Logs:     logs,
	}
	return svc, returns, reasons, logs
}

func TestCreateGuards(t *testing.T) {
	oldSale := time.Now().AddDate(0, 0, -45)
	reasonID := int64(5)

	cases := []struct {
		name     string
		settings domain.ReturnsSettings
		reason   *domain.ReturnReason
		params   CreateReturnParams
		wantErr  error
	}{
		{
			name:     "returns disabled",
			settings: domain.ReturnsSettings{AllowReturns: false},
			wantErr:  ErrReturnsDisabled,
		},
		{
			name:     "receipt required",
			settings: domain.ReturnsSettings{AllowReturns: true, RequireReceipt: true},
			wantErr:  ErrReceiptRequired,
		},
		{
			name:     "window closed",
			settings: domain.ReturnsSettings{AllowReturns: true, ReturnWindowDays: 30},
			params:   CreateReturnParams{SaleDate: &oldSale},
			wantErr:  ErrReturnWindowClosed,
		},
		{
			name:     "note required",
			settings: domain.ReturnsSettings{AllowReturns: true},
			reason:   &domain.ReturnReason{ID: reasonID, RequiresNote: true, IsActive: true},
			params:   CreateReturnParams{ReasonID: &reasonID},
			wantErr:  ErrNoteRequired,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, returns, _, _ := newTestService(tc.settings, tc.reason)
			_, err := svc.Create(context.Background(), 1, "tester", tc.params)
			require.ErrorIs(t, err, tc.wantErr)
			assert.Nil(t, returns.created, "a rejected create must not reach the store")
		})
	}
}

func TestCreateAppliesDefaultsAndItems(t *testing.T) {
	saleID := int64(301)
	reasonID := int64(5)
	recent := time.Now().AddDate(0, 0, -3)
	svc, returns, _, logs := newTestService(
		domain.ReturnsSettings{AllowReturns: true, RequireReceipt: true, ReturnWindowDays: 30},
		&domain.ReturnReason{ID: reasonID, RequiresNote: true, IsActive: true},
	)

	ret, err := svc.Create(context.Background(), 1, "tester", CreateReturnParams{
		OriginalSaleID: &saleID,
		SaleDate:       &recent,
		CustomerName:   "Lena Ortiz",
		ReasonID:       &reasonID,
		ReasonNotes:    "seam split on first wear",
		Items: []domain.ReturnItem{
			{ProductName: "Linen shirt", Quantity: 1, UnitPrice: domain.Money{Amount: 4500}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RefundOriginal, ret.RefundMethod)
	require.Len(t, returns.items, 1)
	assert.Equal(t, ret.ID, returns.items[0].ReturnID)
	assert.Equal(t, int64(1), returns.items[0].HubID)
	require.Len(t, logs.entries, 1)
	assert.Equal(t, "Return created", logs.entries[0].Title)
}

func TestCompleteConsultsReason(t *testing.T) {
	reasonID := int64(3)
	svc, returns, reasons, _ := newTestService(
		domain.ReturnsSettings{AllowReturns: true, AutoRestoreStock: true},
		&domain.ReturnReason{ID: reasonID, RestocksInventory: false, IsActive: true},
	)
	returns.ret = &domain.Return{
		ID:           9,
		HubID:        1,
		Number:       "RET-20260824-0002",
		Status:       domain.ReturnApproved,
		ReasonID:     &reasonID,
		RefundMethod: domain.RefundCash,
	}

	ret, credit, err := svc.Complete(context.Background(), 1, 9, "tester")
	require.NoError(t, err)
	assert.Equal(t, domain.ReturnCompleted, ret.Status)
	assert.Nil(t, credit)
	assert.Equal(t, 1, reasons.getCalls, "completion must load the return's reason")
}

func TestPlanCompletion(t *testing.T) {
	restocking := &domain.ReturnReason{RestocksInventory: true}
	defective := &domain.ReturnReason{RestocksInventory: false}

	cases := []struct {
		name     string
		settings domain.ReturnsSettings
		reason   *domain.ReturnReason
		ret      domain.Return
		want     completionPlan
	}{
		{
			name:     "restocking reason with auto restore",
			settings: domain.ReturnsSettings{AutoRestoreStock: true},
			reason:   restocking,
			ret:      domain.Return{RefundMethod: domain.RefundCash},
			want:     completionPlan{Restock: true},
		},
		{
			name:     "defective reason never restocks",
			settings: domain.ReturnsSettings{AutoRestoreStock: true},
			reason:   defective,
			ret:      domain.Return{RefundMethod: domain.RefundCash},
			want:     completionPlan{Restock: false},
		},
		{
			name:     "no reason falls back to the setting",
			settings: domain.ReturnsSettings{AutoRestoreStock: true},
			ret:      domain.Return{RefundMethod: domain.RefundCash},
			want:     completionPlan{Restock: true},
		},
		{
			name:     "auto restore off wins",
			settings: domain.ReturnsSettings{AutoRestoreStock: false},
			reason:   restocking,
			ret:      domain.Return{RefundMethod: domain.RefundCash},
			want:     completionPlan{Restock: false},
		},
		{
			name:     "store credit refund issues a credit",
			settings: domain.ReturnsSettings{AllowStoreCredit: true},
			ret:      domain.Return{RefundMethod: domain.RefundStoreCredit, TotalRefund: domain.Money{Amount: 2500}},
			want:     completionPlan{IssueCredit: true},
		},
		{
			name:     "credits disabled",
			settings: domain.ReturnsSettings{AllowStoreCredit: false},
			ret:      domain.Return{RefundMethod: domain.RefundStoreCredit, TotalRefund: domain.Money{Amount: 2500}},
			want:     completionPlan{},
		},
		{
			name:     "zero refund issues nothing",
			settings: domain.ReturnsSettings{AllowStoreCredit: true},
			ret:      domain.Return{RefundMethod: domain.RefundStoreCredit},
			want:     completionPlan{},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, planCompletion(&tc.settings, tc.reason, &tc.ret))
		})
	}
}
