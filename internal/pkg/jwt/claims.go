package jwt

import (
	"context"
	"errors"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/user"
	"github.com/go-chi/jwtauth/v5"
)

var ErrMissingClaims = errors.New("missing authentication claims")

// Claims is the caller identity carried by an access token.
type Claims struct {
	UserID     string
	EmployeeID string
	CompanyID  string
	Role       user.Role
}

// ClaimsFromContext reads the verified token claims placed on ctx by jwtauth.Verifier.
func ClaimsFromContext(ctx context.Context) (Claims, error) {
	_, raw, err := jwtauth.FromContext(ctx)
	if err != nil {
		return Claims{}, err
	}
	if raw == nil {
		return Claims{}, ErrMissingClaims
	}

	userID, _ := raw["user_id"].(string)
	if userID == "" {
		return Claims{}, ErrMissingClaims
	}
	employeeID, _ := raw["employee_id"].(string)
	companyID, _ := raw["company_id"].(string)
	role, _ := raw["role"].(string)

	return Claims{
		UserID:     userID,
		EmployeeID: employeeID,
		CompanyID:  companyID,
		Role:       user.Role(role),
	}, nil
}

// RequireEmployee returns the claims when they name both a company and an employee profile.
func RequireEmployee(ctx context.Context) (Claims, error) {
	c, err := RequireCompany(ctx)
	if err != nil {
		return Claims{}, err
	}
	if c.EmployeeID == "" {
		return Claims{}, user.ErrEmployeeIDRequired
	}
	return c, nil
}

// RequireCompany returns the claims when they name a company.
func RequireCompany(ctx context.Context) (Claims, error) {
	c, err := ClaimsFromContext(ctx)
	if err != nil {
		return Claims{}, err
	}
	if c.CompanyID == "" {
		return Claims{}, user.ErrCompanyIDRequired
	}
	return c, nil
}
