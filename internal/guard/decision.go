package guard

// AccessClass is the protection level derived from a request path.
type AccessClass int

const (
	AccessPublic AccessClass = iota
	AccessAuthRequired
	AccessAdminRequired
)

func (c AccessClass) String() string {
	switch c {
	case AccessAuthRequired:
		return "auth_required"
	case AccessAdminRequired:
		return "admin_required"
	default:
		return "public"
	}
}

// LoginSurface selects which login page a redirect points at.
type LoginSurface int

const (
	LoginPrimary LoginSurface = iota
	LoginCustomer
)

// Rule is the classification result for a path.
type Rule struct {
	Class AccessClass
	Login LoginSurface
}

// Outcome is what the transport should do with the request.
type Outcome int

const (
	OutcomeForward Outcome = iota
	OutcomeRedirect
)

func (o Outcome) String() string {
	if o == OutcomeRedirect {
		return "redirect"
	}
	return "forward"
}

// Reason explains a decision for logs and metrics only. Clients never see it.
type Reason string

const (
	ReasonPublic           Reason = "public"
	ReasonAuthenticated    Reason = "authenticated"
	ReasonAuthorized       Reason = "authorized"
	ReasonNoSession        Reason = "no_session"
	ReasonInsufficientRole Reason = "insufficient_role"
)

// Decision is the guard's verdict for one request.
type Decision struct {
	Outcome  Outcome
	Rule     Rule
	Reason   Reason
	Location string
}
