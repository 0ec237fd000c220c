package formflow

// Role is the Drive access level granted on a form.
type Role string

const (
	RoleOwner     Role = "owner"
	RoleWriter    Role = "writer"
	RoleCommenter Role = "commenter"
	RoleReader    Role = "reader"
)

// Grantee is who a form grant applies to. The interface is sealed: build
// values with User, Group, Domain, or Anyone.
type Grantee interface {
	doNotImplement(Grantee)
}

// User grants to one account by email.
func User(email string) Grantee {
	return GranteeUser{Email: email}
}

// Group grants to a Google Group by its email.
func Group(email string) Grantee {
	return GranteeGroup{Email: email}
}

// Domain grants to every account in a Workspace domain.
func Domain(domain string) Grantee {
	return GranteeDomain{Domain: domain}
}

// Anyone grants public access.
func Anyone() Grantee {
	return GranteeAnyone{}
}

type GranteeUser struct {
	Email string
}

func (GranteeUser) doNotImplement(Grantee) {}

type GranteeGroup struct {
	Email string
}

func (GranteeGroup) doNotImplement(Grantee) {}

type GranteeDomain struct {
	Domain string
}

func (GranteeDomain) doNotImplement(Grantee) {}

type GranteeAnyone struct{}

func (GranteeAnyone) doNotImplement(Grantee) {}
