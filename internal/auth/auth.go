package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role names are stable lookup keys.
const (
	RoleSuperAdmin = "superadmin"
	RoleAdmin      = "admin"
	RoleManager    = "manager"
	RoleSupplier   = "supplier"
	RoleCustomer   = "customer"
)

// Permission tokens. Matching is exact: holding one never implies another.
const (
	PermUserView   = "user:view"
	PermUserCreate = "user:create"
	PermUserUpdate = "user:update"
	PermUserDelete = "user:delete"

	PermRoleView   = "role:view"
	PermRoleAssign = "role:assign"

	PermOrderView    = "order:view"
	PermOrderViewOwn = "order:view:own"
	PermOrderCreate  = "order:create"
	PermOrderUpdate  = "order:update"
	PermOrderDelete  = "order:delete"

	PermProductView   = "product:view"
	PermProductCreate = "product:create"
	PermProductUpdate = "product:update"

	PermWishlistManage = "wishlist:manage"
)

// Role is a named bundle of permission tokens.
type Role struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Permissions []string `json:"permissions"`
}

// DefaultRoles is the role catalogue installed by the seeder.
var DefaultRoles = []Role{
	{
		Name:        RoleSuperAdmin,
		Description: "Full access to every back-office capability",
		Permissions: []string{
			PermUserView, PermUserCreate, PermUserUpdate, PermUserDelete,
			PermRoleView, PermRoleAssign,
			PermOrderView, PermOrderViewOwn, PermOrderCreate, PermOrderUpdate, PermOrderDelete,
			PermProductView, PermProductCreate, PermProductUpdate,
			PermWishlistManage,
		},
	},
	{
		Name:        RoleAdmin,
		Description: "Store administration",
		Permissions: []string{
			PermUserView, PermUserCreate, PermUserUpdate, PermUserDelete,
			PermOrderView, PermOrderUpdate, PermOrderDelete,
			PermProductCreate, PermProductUpdate,
			PermRoleView,
		},
	},
	{
		Name:        RoleManager,
		Description: "Order fulfilment and catalogue oversight",
		Permissions: []string{PermOrderView, PermOrderUpdate, PermProductView, PermUserView},
	},
	{
		Name:        RoleSupplier,
		Description: "Maintains own products",
		Permissions: []string{PermProductCreate, PermProductUpdate, PermProductView},
	},
	{
		Name:        RoleCustomer,
		Description: "Shopper",
		Permissions: []string{PermWishlistManage, PermOrderCreate, PermOrderViewOwn, PermProductView},
	},
}

// Principal is the authenticated identity making a request.
type Principal struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type contextKey string

const principalKey contextKey = "principal"

func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns nil when the request is anonymous.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey).(*Principal)
	return p
}

// Credentials is what login needs to know about a user.
type Credentials struct {
	Principal
	PasswordHash string
	IsActive     bool
}

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims represents JWT token claims
type Claims struct {
	UserID    int64  `json:"uid"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

func (c *Claims) Principal() *Principal {
	return &Principal{ID: c.UserID, Username: c.Username, Email: c.Email}
}

type AuthTokens struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// TokenGenerator issues and validates signed tokens.
type TokenGenerator interface {
	GenerateAccessToken(p *Principal) (token string, expiresAt time.Time, err error)
	GenerateRefreshToken(p *Principal) (token string, err error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	ValidateRefreshToken(tokenString string) (*Claims, error)
}
