// Copyright (c) 2026 Flow Immersive. All rights reserved.
// Author: Flow Immersive Engineering

package auth

// # Pages

// Page identifies one of the gated admin views.
type Page string

const (
	PageLogin         Page = "login"
	PageRegister      Page = "register"
	PageAccessRequest Page = "access-request"
	PageDashboard     Page = "dashboard"
)

// Path returns the route of the page.
func (page Page) Path() string {
	return "/admin/" + string(page)
}

// # Decisions

// Outcome is what a view does with the current snapshot.
type Outcome string

const (
	OutcomeLoading  Outcome = "loading"
	OutcomeRedirect Outcome = "redirect"
	OutcomeRender   Outcome = "render"
)

// Decision is the result of [Decide].
type Decision struct {
	Outcome  Outcome
	Location string
}

func render() Decision          { return Decision{Outcome: OutcomeRender} }
func redirect(to Page) Decision { return Decision{Outcome: OutcomeRedirect, Location: to.Path()} }
func loadingDecision() Decision { return Decision{Outcome: OutcomeLoading} }

/*
Decide applies the view contract for page to snapshot.

Description: Nothing redirects while the controller is loading. The form
pages send signed-in visitors onward; the protected pages send visitors
without a session to login and non-admins to the access request.
*/
func Decide(page Page, snapshot Snapshot) Decision {
	if snapshot.Loading {
		return loadingDecision()
	}

	signedIn := snapshot.Session != nil
	isAdmin := signedIn && snapshot.Facts.IsAdmin

	switch page {
	case PageLogin:
		switch {
		case isAdmin:
			return redirect(PageDashboard)
		case signedIn:
			return redirect(PageAccessRequest)
		}

	case PageRegister:
		if signedIn {
			return redirect(PageAccessRequest)
		}

	case PageAccessRequest:
		switch {
		case !signedIn:
			return redirect(PageLogin)
		case isAdmin:
			return redirect(PageDashboard)
		}

	case PageDashboard:
		switch {
		case !signedIn:
			return redirect(PageLogin)
		case !isAdmin:
			return redirect(PageAccessRequest)
		}
	}

	return render()
}
