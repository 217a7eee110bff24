package finance

import "time"

// The models below are read shapes over the Finapp store. Only the columns
// the capabilities touch are mapped.

type Car struct {
	ID                 uint64 `gorm:"primaryKey"`
	Make               string `gorm:"size:64"`
	Model              string `gorm:"size:64"`
	Year               int
	PurchasePriceCents int64
	CreatedAt          time.Time
}

func (Car) TableName() string { return "cars" }

type Budget struct {
	ID         uint64 `gorm:"primaryKey"`
	Name       string `gorm:"size:128"`
	Month      string `gorm:"size:7"`
	LimitCents int64
	CreatedAt  time.Time
}

func (Budget) TableName() string { return "budgets" }

type SideGig struct {
	ID          uint64 `gorm:"primaryKey"`
	Name        string `gorm:"size:128"`
	IncomeCents int64
	CreatedAt   time.Time
}

func (SideGig) TableName() string { return "side_gigs" }

type Housing struct {
	ID               uint64 `gorm:"primaryKey"`
	Address          string `gorm:"size:256"`
	MonthlyCostCents int64
	CreatedAt        time.Time
}

func (Housing) TableName() string { return "housing" }

type Contribution struct {
	ID          uint64 `gorm:"primaryKey"`
	Account     string `gorm:"size:64"`
	AmountCents int64
	CreatedAt   time.Time
}

func (Contribution) TableName() string { return "contributions" }

type Paycheck struct {
	ID        uint64 `gorm:"primaryKey"`
	Employer  string `gorm:"size:128"`
	NetCents  int64
	PaidAt    time.Time
	CreatedAt time.Time
}

func (Paycheck) TableName() string { return "paychecks" }

type Investment struct {
	ID         uint64 `gorm:"primaryKey"`
	Symbol     string `gorm:"size:16"`
	ValueCents int64
	CreatedAt  time.Time
}

func (Investment) TableName() string { return "investments" }

type Transaction struct {
	ID          uint64 `gorm:"primaryKey"`
	Description string `gorm:"size:256"`
	AmountCents int64
	PostedAt    time.Time
	CreatedAt   time.Time
}

func (Transaction) TableName() string { return "transactions" }

// Models lists every model, for migrations in tests and tooling.
func Models() []any {
	return []any{
		&Car{}, &Budget{}, &SideGig{}, &Housing{},
		&Contribution{}, &Paycheck{}, &Investment{}, &Transaction{},
	}
}
