package globals

// Context keys
type ContextKey string

const UserIDKey ContextKey = "userId"
const UsernameKey ContextKey = "username"
const RoleKey ContextKey = "role"
const TenantIDKey ContextKey = "tenantId"
const TenantDBKey ContextKey = "tenantDb"
