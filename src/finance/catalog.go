package finance

import (
	"github.com/stake-plus/finapp-discord/src/router"
	"gorm.io/gorm"
)

const (
	CapabilityBudget       router.CapabilityID = "budget"
	CapabilitySideGig      router.CapabilityID = "sidegig"
	CapabilityHousing      router.CapabilityID = "housing"
	CapabilityContribution router.CapabilityID = "contribution"
	CapabilityCar          router.CapabilityID = "car"
	CapabilityPaycheck     router.CapabilityID = "paycheck"
	CapabilityInvestment   router.CapabilityID = "investment"
	CapabilityTransaction  router.CapabilityID = "transaction"
)

// Factory builds a capability bound to the scope's unit of work.
type Factory func(db *gorm.DB) router.Capability

// DefaultFactories maps every Finapp capability to its constructor.
func DefaultFactories() map[router.CapabilityID]Factory {
	return map[router.CapabilityID]Factory{
		CapabilityBudget:       func(db *gorm.DB) router.Capability { return NewBudgetService(db) },
		CapabilitySideGig:      func(db *gorm.DB) router.Capability { return NewSideGigService(db) },
		CapabilityHousing:      func(db *gorm.DB) router.Capability { return NewHousingService(db) },
		CapabilityContribution: func(db *gorm.DB) router.Capability { return NewContributionService(db) },
		CapabilityCar:          func(db *gorm.DB) router.Capability { return NewCarService(db) },
		CapabilityPaycheck:     func(db *gorm.DB) router.Capability { return NewPaycheckService(db) },
		CapabilityInvestment:   func(db *gorm.DB) router.Capability { return NewInvestmentService(db) },
		CapabilityTransaction:  func(db *gorm.DB) router.Capability { return NewTransactionService(db) },
	}
}

var (
	countOnly = []router.OperationSpec{
		{Name: OpCount, Description: "Get the total number of records", Unit: router.UnitCount},
	}
	countAndTotal = []router.OperationSpec{
		{Name: OpCount, Description: "Get the total number of records", Unit: router.UnitCount},
		{Name: OpTotal, Description: "Get the summed amount", Unit: router.UnitCents},
	}
)

// Registrations is the startup command vocabulary: one slash command per
// capability, each defaulting to count.
func Registrations() []router.Registration {
	return []router.Registration{
		{Command: "car", Capability: CapabilityCar, Label: "cars", Emoji: "🚗",
			Description: "Car-related commands", DefaultOperation: OpCount, Operations: countOnly},
		{Command: "budget", Capability: CapabilityBudget, Label: "budgets", Emoji: "📊",
			Description: "Budget-related commands", DefaultOperation: OpCount, Operations: countOnly},
		{Command: "housing", Capability: CapabilityHousing, Label: "housing records", Emoji: "🏠",
			Description: "Housing-related commands", DefaultOperation: OpCount, Operations: countOnly},
		{Command: "sidegig", Capability: CapabilitySideGig, Label: "side gigs", Emoji: "🛠️",
			Description: "Side gig commands", DefaultOperation: OpCount, Operations: countAndTotal},
		{Command: "contribution", Capability: CapabilityContribution, Label: "contributions", Emoji: "🏦",
			Description: "Contribution commands", DefaultOperation: OpCount, Operations: countAndTotal},
		{Command: "paycheck", Capability: CapabilityPaycheck, Label: "paychecks", Emoji: "💵",
			Description: "Paycheck commands", DefaultOperation: OpCount, Operations: countAndTotal},
		{Command: "investment", Capability: CapabilityInvestment, Label: "investments", Emoji: "📈",
			Description: "Investment commands", DefaultOperation: OpCount, Operations: countAndTotal},
		{Command: "transaction", Capability: CapabilityTransaction, Label: "transactions", Emoji: "🧾",
			Description: "Transaction commands", DefaultOperation: OpCount, Operations: countAndTotal},
	}
}
