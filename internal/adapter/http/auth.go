package http

import (
	"context"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/queuedesk/internal/domain"
)

// Role is the kind of caller making a request.
type Role string

const (
	RoleCitizen Role = "citizen"
	RoleOfficer Role = "officer"
	RoleAdmin   Role = "admin"
)

// Actor is the caller identity asserted by the gateway in front of the API.
type Actor struct {
	Name     string
	Role     Role
	OfficeID string
}

// ActorHeaders is embedded in every operation input.
type ActorHeaders struct {
	ActorName   string `header:"X-Actor-Name" doc:"Caller name, set by the gateway"`
	ActorRole   string `header:"X-Actor-Role" doc:"Caller role: citizen, officer or admin"`
	ActorOffice string `header:"X-Actor-Office" doc:"Office the officer belongs to"`
}

// Actor validates the headers and returns the caller.
func (h ActorHeaders) Actor() (Actor, error) {
	a := Actor{
		Name:     strings.TrimSpace(h.ActorName),
		Role:     Role(strings.ToLower(strings.TrimSpace(h.ActorRole))),
		OfficeID: strings.TrimSpace(h.ActorOffice),
	}
	if a.Name == "" || a.Role == "" {
		return Actor{}, huma.Error401Unauthorized("missing caller identity")
	}

	switch a.Role {
	case RoleCitizen, RoleAdmin:
	case RoleOfficer:
		if a.OfficeID == "" {
			return Actor{}, huma.Error403Forbidden("officer has no office")
		}
	default:
		return Actor{}, huma.Error403Forbidden("unknown role " + string(a.Role))
	}
	return a, nil
}

// forbiddenError is returned when an authenticated caller may not act.
type forbiddenError struct {
	reason string
}

func (e *forbiddenError) Error() string { return "forbidden: " + e.reason }

func forbidden(reason string) error { return &forbiddenError{reason: reason} }

// authorizer decides whether an actor may touch a service. Every check runs
// before the queue operation it guards.
type authorizer struct {
	directory domain.Directory
}

// staff allows admins anywhere and officers on services of their own office.
func (a authorizer) staff(ctx context.Context, actor Actor, serviceID string) error {
	switch actor.Role {
	case RoleAdmin:
		return nil
	case RoleOfficer:
		return a.sameOffice(ctx, actor, serviceID)
	default:
		return forbidden("staff only")
	}
}

// anyone lets citizens through and restricts officers to their own office.
func (a authorizer) anyone(ctx context.Context, actor Actor, serviceID string) error {
	if actor.Role == RoleCitizen {
		return nil
	}
	return a.staff(ctx, actor, serviceID)
}

// office allows admins and the officers of officeID.
func (a authorizer) office(actor Actor, officeID string) error {
	switch {
	case actor.Role == RoleAdmin:
		return nil
	case actor.Role == RoleOfficer && actor.OfficeID == officeID:
		return nil
	default:
		return forbidden("not a member of office " + officeID)
	}
}

// sameOffice ignores active flags: tickets already issued on a closed service
// must stay workable by its office. Creation and call-next refuse closed
// services on their own.
func (a authorizer) sameOffice(ctx context.Context, actor Actor, serviceID string) error {
	svc, err := a.directory.Service(ctx, serviceID)
	if err != nil {
		return err
	}
	if svc.OfficeID != actor.OfficeID {
		return forbidden("service " + serviceID + " belongs to another office")
	}
	return nil
}
