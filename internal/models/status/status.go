package status

// Status is the lifecycle tag of an order. The set is closed but the
// transition graph is free: any status may be set from any other. The
// declaration order below is the advisory pipeline order used for
// display only.
type Status string

const (
	Quoted            Status = "Quoted"
	AwaitingPayment   Status = "Awaiting Payment"
	Paid              Status = "Paid"
	OnboardingStarted Status = "Onboarding Started"
	Completed         Status = "Completed"
)

// All lists every allowed status in advisory pipeline order.
var All = []Status{
	Quoted,
	AwaitingPayment,
	Paid,
	OnboardingStarted,
	Completed,
}

// Valid reports whether s is a member of the allowed set.
func (s Status) Valid() bool {
	for _, allowed := range All {
		if s == allowed {
			return true
		}
	}
	return false
}

func (s Status) String() string {
	return string(s)
}
