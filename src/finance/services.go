package finance

import (
	"context"
	"fmt"

	"github.com/stake-plus/finapp-discord/src/router"
	"gorm.io/gorm"
)

const (
	OpCount = "count"
	OpTotal = "total"
)

func countRows[M any](ctx context.Context, db *gorm.DB) (int64, error) {
	var n int64
	if err := db.WithContext(ctx).Model(new(M)).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("finance: count %T: %w", *new(M), err)
	}
	return n, nil
}

func sumColumn[M any](ctx context.Context, db *gorm.DB, column string) (int64, error) {
	var total int64
	if err := db.WithContext(ctx).Model(new(M)).
		Select("COALESCE(SUM(" + column + "), 0)").
		Scan(&total).Error; err != nil {
		return 0, fmt.Errorf("finance: sum %T.%s: %w", *new(M), column, err)
	}
	return total, nil
}

// CarService answers questions about tracked vehicles.
type CarService struct{ db *gorm.DB }

func NewCarService(db *gorm.DB) *CarService { return &CarService{db: db} }

func (s *CarService) FetchTotalCount(ctx context.Context) (int64, error) {
	return countRows[Car](ctx, s.db)
}

func (s *CarService) Operation(name string) (router.Operation, bool) {
	switch name {
	case OpCount:
		return s.FetchTotalCount, true
	}
	return nil, false
}

// BudgetService answers questions about monthly budgets.
type BudgetService struct{ db *gorm.DB }

func NewBudgetService(db *gorm.DB) *BudgetService { return &BudgetService{db: db} }

func (s *BudgetService) FetchTotalCount(ctx context.Context) (int64, error) {
	return countRows[Budget](ctx, s.db)
}

func (s *BudgetService) Operation(name string) (router.Operation, bool) {
	switch name {
	case OpCount:
		return s.FetchTotalCount, true
	}
	return nil, false
}

// HousingService answers questions about housing costs.
type HousingService struct{ db *gorm.DB }

func NewHousingService(db *gorm.DB) *HousingService { return &HousingService{db: db} }

func (s *HousingService) FetchTotalCount(ctx context.Context) (int64, error) {
	return countRows[Housing](ctx, s.db)
}

func (s *HousingService) Operation(name string) (router.Operation, bool) {
	switch name {
	case OpCount:
		return s.FetchTotalCount, true
	}
	return nil, false
}

// SideGigService answers questions about side income.
type SideGigService struct{ db *gorm.DB }

func NewSideGigService(db *gorm.DB) *SideGigService { return &SideGigService{db: db} }

func (s *SideGigService) FetchTotalCount(ctx context.Context) (int64, error) {
	return countRows[SideGig](ctx, s.db)
}

func (s *SideGigService) FetchTotalAmount(ctx context.Context) (int64, error) {
	return sumColumn[SideGig](ctx, s.db, "income_cents")
}

func (s *SideGigService) Operation(name string) (router.Operation, bool) {
	switch name {
	case OpCount:
		return s.FetchTotalCount, true
	case OpTotal:
		return s.FetchTotalAmount, true
	}
	return nil, false
}

// ContributionService answers questions about retirement and savings contributions.
type ContributionService struct{ db *gorm.DB }

func NewContributionService(db *gorm.DB) *ContributionService {
	return &ContributionService{db: db}
}

func (s *ContributionService) FetchTotalCount(ctx context.Context) (int64, error) {
	return countRows[Contribution](ctx, s.db)
}

func (s *ContributionService) FetchTotalAmount(ctx context.Context) (int64, error) {
	return sumColumn[Contribution](ctx, s.db, "amount_cents")
}

func (s *ContributionService) Operation(name string) (router.Operation, bool) {
	switch name {
	case OpCount:
		return s.FetchTotalCount, true
	case OpTotal:
		return s.FetchTotalAmount, true
	}
	return nil, false
}

// PaycheckService answers questions about received pay.
type PaycheckService struct{ db *gorm.DB }

func NewPaycheckService(db *gorm.DB) *PaycheckService { return &PaycheckService{db: db} }

func (s *PaycheckService) FetchTotalCount(ctx context.Context) (int64, error) {
	return countRows[Paycheck](ctx, s.db)
}

func (s *PaycheckService) FetchTotalAmount(ctx context.Context) (int64, error) {
	return sumColumn[Paycheck](ctx, s.db, "net_cents")
}

func (s *PaycheckService) Operation(name string) (router.Operation, bool) {
	switch name {
	case OpCount:
		return s.FetchTotalCount, true
	case OpTotal:
		return s.FetchTotalAmount, true
	}
	return nil, false
}

// InvestmentService answers questions about held positions.
type InvestmentService struct{ db *gorm.DB }

func NewInvestmentService(db *gorm.DB) *InvestmentService { return &InvestmentService{db: db} }

func (s *InvestmentService) FetchTotalCount(ctx context.Context) (int64, error) {
	return countRows[Investment](ctx, s.db)
}

func (s *InvestmentService) FetchTotalAmount(ctx context.Context) (int64, error) {
	return sumColumn[Investment](ctx, s.db, "value_cents")
}

func (s *InvestmentService) Operation(name string) (router.Operation, bool) {
	switch name {
	case OpCount:
		return s.FetchTotalCount, true
	case OpTotal:
		return s.FetchTotalAmount, true
	}
	return nil, false
}

// TransactionService answers questions about the ledger.
type TransactionService struct{ db *gorm.DB }

func NewTransactionService(db *gorm.DB) *TransactionService { return &TransactionService{db: db} }

func (s *TransactionService) FetchTotalCount(ctx context.Context) (int64, error) {
	return countRows[Transaction](ctx, s.db)
}

func (s *TransactionService) FetchTotalAmount(ctx context.Context) (int64, error) {
	return sumColumn[Transaction](ctx, s.db, "amount_cents")
}

func (s *TransactionService) Operation(name string) (router.Operation, bool) {
	switch name {
	case OpCount:
		return s.FetchTotalCount, true
	case OpTotal:
		return s.FetchTotalAmount, true
	}
	return nil, false
}

var (
	_ router.Capability = (*CarService)(nil)
	_ router.Capability = (*BudgetService)(nil)
	_ router.Capability = (*HousingService)(nil)
	_ router.Capability = (*SideGigService)(nil)
	_ router.Capability = (*ContributionService)(nil)
	_ router.Capability = (*PaycheckService)(nil)
	_ router.Capability = (*InvestmentService)(nil)
	_ router.Capability = (*TransactionService)(nil)
)
