package enums

// PlanID identifies the product being sold. Only the monthly plan exists today.
type PlanID string

const PlanMonthly PlanID = "monthly"

func (p PlanID) String() string {
	return string(p)
}
